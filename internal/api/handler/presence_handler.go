package handler

import (
	"Amora/internal/api/dto"
	"Amora/internal/pkg/response"
	"Amora/internal/realtime"
	"Amora/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

type PresenceHandler struct {
	tracker *realtime.Tracker
}

func NewPresenceHandler(tracker *realtime.Tracker) *PresenceHandler {
	return &PresenceHandler{tracker: tracker}
}

// GetPresence 查询用户在线状态
func (h *PresenceHandler) GetPresence(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil || userID == 0 {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	response.Success(c, &dto.PresenceDTO{
		UserID: userID,
		Online: h.tracker.IsOnline(userID),
	})
}
