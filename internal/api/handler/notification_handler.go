package handler

import (
	"Amora/internal/api/dto"
	"Amora/internal/pkg/response"
	"Amora/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notifService service.NotificationService
}

func NewNotificationHandler(s service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notifService: s,
	}
}

// Flash 喜欢对方，产生 Like 通知
func (h *NotificationHandler) Flash(c *gin.Context) {
	var req dto.FlashReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	actorID := c.GetUint64("user_id")
	n, err := h.notifService.Flash(c.Request.Context(), actorID, req.RecipientID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, n)
}

// Unflash 取消喜欢：对方未收到则静默作废，否则产生 Unlike 通知
func (h *NotificationHandler) Unflash(c *gin.Context) {
	var req dto.FlashReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	actorID := c.GetUint64("user_id")
	res, err := h.notifService.Unflash(c.Request.Context(), actorID, req.RecipientID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, res)
}

// Match 配对成功，双方各收一条通知。
// 该接口同时也由配对引擎经 Kafka 旁路触发。
func (h *NotificationHandler) Match(c *gin.Context) {
	var req dto.MatchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	if err := h.notifService.CreateMatch(c.Request.Context(), req.UserA, req.UserB); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, nil)
}

// View 浏览对方主页
func (h *NotificationHandler) View(c *gin.Context) {
	var req dto.FlashReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	actorID := c.GetUint64("user_id")
	n, err := h.notifService.RecordProfileView(c.Request.Context(), actorID, req.RecipientID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, n)
}

// GetUnread 未读列表，仅限本人
func (h *NotificationHandler) GetUnread(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	requesterID := c.GetUint64("user_id")
	list, err := h.notifService.ListUnread(c.Request.Context(), requesterID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, list)
}

// GetUnreadCount 未读数
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	userID := c.GetUint64("user_id")

	unread, err := h.notifService.GetUnreadCount(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, unread)
}

// MarkRead 标记单条已读
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	notificationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	requesterID := c.GetUint64("user_id")
	if err := h.notifService.MarkRead(c.Request.Context(), requesterID, notificationID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, nil)
}
