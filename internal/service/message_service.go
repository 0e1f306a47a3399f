package service

import (
	"Amora/internal/api/dto"
	"Amora/internal/pkg/mongo"
	"context"
	"errors"
	log "log/slog"
	"time"
	"unicode/utf8"
)

const messagePreviewLimit = 60

// MessageService 聊天消息服务。消息明细入 Mongo，
// 推送与补发复用通知核心的注册表和分发器（Message 类型事件）。
type MessageService interface {
	SendMessage(ctx context.Context, senderID uint64, req *dto.SendMessageReq) (*dto.MessageDTO, error)
	GetHistory(ctx context.Context, userID, peerID uint64, beforeID string, pageSize int) ([]*dto.MessageDTO, error)
}

type messageServiceImpl struct {
	messageRepo mongo.MessageRepo
	notifSvc    NotificationService
}

func NewMessageService(messageRepo mongo.MessageRepo, notifSvc NotificationService) MessageService {
	return &messageServiceImpl{
		messageRepo: messageRepo,
		notifSvc:    notifSvc,
	}
}

// SendMessage 发送消息：明细落 Mongo 后经通知链路推送给对方
func (s *messageServiceImpl) SendMessage(ctx context.Context, senderID uint64, req *dto.SendMessageReq) (*dto.MessageDTO, error) {
	if req.RecipientID == 0 {
		return nil, ErrTargetUserInvalid
	}
	if req.RecipientID == senderID {
		return nil, ErrMessageNotAllowed
	}

	msg := &mongo.Message{
		SenderID:    senderID,
		RecipientID: req.RecipientID,
		Content:     req.Content,
		CreatedAt:   time.Now(),
	}
	if err := s.messageRepo.SaveMessage(ctx, msg); err != nil {
		return nil, err
	}

	payload := map[string]any{
		"message_id": msg.ID.Hex(),
		"preview":    preview(req.Content),
	}
	if err := s.notifSvc.NotifyMessage(ctx, senderID, req.RecipientID, payload); err != nil {
		// 明细已持久化，通知链路失败只影响实时性，拉历史仍可见
		log.Error("消息通知入队失败", "senderID", senderID, "recipientID", req.RecipientID, "err", err)
	}

	return toMessageDTO(msg), nil
}

// GetHistory 双方会话历史，倒序分页
func (s *messageServiceImpl) GetHistory(ctx context.Context, userID, peerID uint64, beforeID string, pageSize int) ([]*dto.MessageDTO, error) {
	if peerID == 0 {
		return nil, ErrTargetUserInvalid
	}

	models, err := s.messageRepo.GetHistory(ctx, userID, peerID, beforeID, pageSize)
	if err != nil {
		if errors.Is(err, mongo.ErrInvalidCursor) {
			return nil, ErrParamInvalid
		}
		return nil, err
	}

	res := make([]*dto.MessageDTO, 0, len(models))
	for _, m := range models {
		res = append(res, toMessageDTO(m))
	}
	return res, nil
}

func preview(content string) string {
	if utf8.RuneCountInString(content) <= messagePreviewLimit {
		return content
	}
	runes := []rune(content)
	return string(runes[:messagePreviewLimit]) + "..."
}

func toMessageDTO(m *mongo.Message) *dto.MessageDTO {
	return &dto.MessageDTO{
		ID:          m.ID.Hex(),
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Content:     m.Content,
		CreatedAt:   m.CreatedAt,
	}
}
