package handler

import (
	"Amora/internal/api/dto"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func historyResponse(t *testing.T, query string) *dto.Response {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/im/history?"+query, nil)
	c.Set("user_id", uint64(1))

	// 非法参数在进入服务层之前就被拦下
	h := NewIMHandler(nil)
	h.GetHistory(c)

	var res dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return &res
}

func TestGetHistoryRejectsBadPageSize(t *testing.T) {
	assert.EqualValues(t, 400, historyResponse(t, "peer_id=2&page_size=abc").Code)
	assert.EqualValues(t, 400, historyResponse(t, "peer_id=2&page_size=0").Code)
	assert.EqualValues(t, 400, historyResponse(t, "peer_id=2&page_size=-5").Code)
	assert.EqualValues(t, 400, historyResponse(t, "peer_id=2&page_size=500").Code)
}

func TestGetHistoryRejectsBadPeer(t *testing.T) {
	assert.EqualValues(t, 400, historyResponse(t, "peer_id=abc").Code)
	assert.EqualValues(t, 400, historyResponse(t, "peer_id=0").Code)
}
