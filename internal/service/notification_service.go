package service

import (
	"Amora/internal/api/dto"
	"Amora/internal/model"
	"Amora/internal/repository"
	"context"
	"errors"
	"time"

	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

// Dispatcher 投递侧的窄接口：入队即返回，持久化成功后才调用
type Dispatcher interface {
	Dispatch(n *model.Notification)
}

// NotificationService 事件入口服务接口定义
type NotificationService interface {
	Flash(ctx context.Context, actorID, recipientID uint64) (*dto.NotificationDTO, error)
	Unflash(ctx context.Context, actorID, recipientID uint64) (*dto.UnflashResultDTO, error)
	RecordProfileView(ctx context.Context, actorID, recipientID uint64) (*dto.NotificationDTO, error)
	CreateMatch(ctx context.Context, userA, userB uint64) error
	NotifyMessage(ctx context.Context, actorID, recipientID uint64, payload map[string]any) error

	ListUnread(ctx context.Context, requesterID, userID uint64) ([]*dto.NotificationDTO, error)
	MarkRead(ctx context.Context, requesterID, notificationID uint64) error
	GetUnreadCount(ctx context.Context, userID uint64) (*dto.UnreadCountDTO, error)
}

type notificationServiceImpl struct {
	repo       repository.NotificationRepo
	dispatcher Dispatcher
}

func NewNotificationService(repo repository.NotificationRepo, dispatcher Dispatcher) NotificationService {
	return &notificationServiceImpl{
		repo:       repo,
		dispatcher: dispatcher,
	}
}

// originate 事件起源的统一路径：先落库，成功后异步投递。
// 调用方拿到返回即表示事件已持久化，送达时机与其无关。
func (s *notificationServiceImpl) originate(ctx context.Context, kind model.NotificationKind, actorID, recipientID uint64, payload map[string]any) (*model.Notification, error) {
	n := &model.Notification{
		RecipientID: recipientID,
		ActorID:     actorID,
		Kind:        kind,
		Payload:     payload,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	s.dispatcher.Dispatch(n)
	return n, nil
}

func (s *notificationServiceImpl) checkPair(actorID, recipientID uint64) error {
	if recipientID == 0 {
		return ErrTargetUserInvalid
	}
	if actorID == recipientID {
		return ErrFlashSelf
	}
	return nil
}

// Flash 对方被 flash（喜欢）
func (s *notificationServiceImpl) Flash(ctx context.Context, actorID, recipientID uint64) (*dto.NotificationDTO, error) {
	if err := s.checkPair(actorID, recipientID); err != nil {
		return nil, err
	}
	n, err := s.originate(ctx, model.KindLike, actorID, recipientID, nil)
	if err != nil {
		return nil, err
	}
	return toNotificationDTO(n), nil
}

// Unflash 取消 flash。对方还没收到之前的 Like 就直接作废；
// 已经送达的 Like 对方已看见，需要补一条对称的 Unlike 通知。
func (s *notificationServiceImpl) Unflash(ctx context.Context, actorID, recipientID uint64) (*dto.UnflashResultDTO, error) {
	if err := s.checkPair(actorID, recipientID); err != nil {
		return nil, err
	}

	cancelled, err := s.repo.CancelPendingLike(ctx, actorID, recipientID)
	if err != nil {
		return nil, err
	}
	if cancelled {
		return &dto.UnflashResultDTO{Cancelled: true}, nil
	}

	n, err := s.originate(ctx, model.KindUnlike, actorID, recipientID, nil)
	if err != nil {
		return nil, err
	}
	return &dto.UnflashResultDTO{Cancelled: false, Notification: toNotificationDTO(n)}, nil
}

// RecordProfileView 主页被浏览
func (s *notificationServiceImpl) RecordProfileView(ctx context.Context, actorID, recipientID uint64) (*dto.NotificationDTO, error) {
	if err := s.checkPair(actorID, recipientID); err != nil {
		return nil, err
	}
	n, err := s.originate(ctx, model.KindProfileView, actorID, recipientID, nil)
	if err != nil {
		return nil, err
	}
	return toNotificationDTO(n), nil
}

// CreateMatch 配对成功：双方各收一条，互为动作发起者
func (s *notificationServiceImpl) CreateMatch(ctx context.Context, userA, userB uint64) error {
	if userA == 0 || userB == 0 {
		return ErrTargetUserInvalid
	}
	if userA == userB {
		return ErrFlashSelf
	}

	if _, err := s.originate(ctx, model.KindMatch, userB, userA, nil); err != nil {
		return err
	}
	if _, err := s.originate(ctx, model.KindMatch, userA, userB, nil); err != nil {
		return err
	}
	return nil
}

// NotifyMessage 聊天消息走同一条投递链路，payload 带消息预览
func (s *notificationServiceImpl) NotifyMessage(ctx context.Context, actorID, recipientID uint64, payload map[string]any) error {
	if err := s.checkPair(actorID, recipientID); err != nil {
		return err
	}
	_, err := s.originate(ctx, model.KindMessage, actorID, recipientID, payload)
	return err
}

// ListUnread 未读列表，只允许本人查询
func (s *notificationServiceImpl) ListUnread(ctx context.Context, requesterID, userID uint64) ([]*dto.NotificationDTO, error) {
	if requesterID != userID {
		return nil, ForbiddenError
	}

	list, err := s.repo.ListUnread(ctx, userID)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.NotificationDTO, 0, len(list))
	for _, n := range list {
		res = append(res, toNotificationDTO(n))
	}
	return res, nil
}

// MarkRead 标记已读，仅接收者本人可操作
func (s *notificationServiceImpl) MarkRead(ctx context.Context, requesterID, notificationID uint64) error {
	n, err := s.repo.GetByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}

	if n.RecipientID != requesterID {
		return ForbiddenError
	}
	if n.ReadAt != nil {
		return nil
	}

	return s.repo.MarkRead(ctx, notificationID, time.Now())
}

// GetUnreadCount 未读数
func (s *notificationServiceImpl) GetUnreadCount(ctx context.Context, userID uint64) (*dto.UnreadCountDTO, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.UnreadCountDTO{UnreadCount: count}, nil
}

func toNotificationDTO(n *model.Notification) *dto.NotificationDTO {
	d := &dto.NotificationDTO{}
	_ = copier.Copy(d, n)
	d.Kind = n.Kind.String()
	d.CreatedAt = n.CreatedAt.UTC().Format(time.RFC3339)
	d.Read = n.ReadAt != nil
	d.Delivered = n.DeliveredAt != nil
	return d
}
