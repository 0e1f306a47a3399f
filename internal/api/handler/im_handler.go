package handler

import (
	"Amora/internal/api/dto"
	"Amora/internal/pkg/response"
	"Amora/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

type IMHandler struct {
	messageService service.MessageService
}

func NewIMHandler(s service.MessageService) *IMHandler {
	return &IMHandler{messageService: s}
}

// SendMessage 发送消息
func (h *IMHandler) SendMessage(c *gin.Context) {
	var req dto.SendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	senderID := c.GetUint64("user_id")
	msg, err := h.messageService.SendMessage(c.Request.Context(), senderID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, msg)
}

// GetHistory 拉取与某人的会话历史
func (h *IMHandler) GetHistory(c *gin.Context) {
	peerID, err := strconv.ParseUint(c.Query("peer_id"), 10, 64)
	if err != nil || peerID == 0 {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil || pageSize <= 0 || pageSize > 100 {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	beforeID := c.Query("before_id")

	userID := c.GetUint64("user_id")
	list, err := h.messageService.GetHistory(c.Request.Context(), userID, peerID, beforeID, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, list)
}
