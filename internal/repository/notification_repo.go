package repository

import (
	"Amora/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

type NotificationRepo interface {
	Create(ctx context.Context, n *model.Notification) error
	GetByID(ctx context.Context, id uint64) (*model.Notification, error)

	// CancelPendingLike 将 (actor, recipient) 间尚未送达、未作废的 Like 标记为作废。
	// 返回是否命中。查询键固定为 kind=Like + 未作废 + delivered_at IS NULL，
	// 已送达的 Like 不在此处理（由调用方补发对称的 Unlike）。
	CancelPendingLike(ctx context.Context, actorID, recipientID uint64) (bool, error)

	MarkRead(ctx context.Context, id uint64, at time.Time) error
	MarkDelivered(ctx context.Context, ids []uint64, at time.Time) error

	// ClaimDelivery 推送前抢占送达权：只有未作废且未送达的行能被抢到。
	// 作废在投递前落库的 Like 在这里被拦下，不会推到对端。
	ClaimDelivery(ctx context.Context, id uint64, at time.Time) (bool, error)
	// ReleaseDelivery 推送全部失败时回退送达标记，积压补发还会再来
	ReleaseDelivery(ctx context.Context, id uint64) error

	ListUnread(ctx context.Context, userID uint64) ([]*model.Notification, error)
	ListUndelivered(ctx context.Context, userID uint64) ([]*model.Notification, error)
	CountUnread(ctx context.Context, userID uint64) (int64, error)

	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type notificationRepoImpl struct {
	db *gorm.DB
}

func NewNotificationRepo(db *gorm.DB) NotificationRepo {
	return &notificationRepoImpl{db: db}
}

func (s *notificationRepoImpl) Create(ctx context.Context, n *model.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	return s.db.WithContext(ctx).Create(n).Error
}

func (s *notificationRepoImpl) GetByID(ctx context.Context, id uint64) (*model.Notification, error) {
	var n model.Notification
	err := s.db.WithContext(ctx).First(&n, id).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// CancelPendingLike 单条 UPDATE，依赖行锁保证与并发 Create 的先后一致性：
// 要么先建后废，要么作废扑空、由调用方另建 Unlike，不存在中间态。
func (s *notificationRepoImpl) CancelPendingLike(ctx context.Context, actorID, recipientID uint64) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("kind = ? AND actor_id = ? AND recipient_id = ? AND cancelled = ? AND delivered_at IS NULL",
			model.KindLike, actorID, recipientID, false).
		Update("cancelled", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *notificationRepoImpl) MarkRead(ctx context.Context, id uint64, at time.Time) error {
	return s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", at).Error
}

func (s *notificationRepoImpl) MarkDelivered(ctx context.Context, ids []uint64, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id IN ? AND delivered_at IS NULL AND cancelled = ?", ids, false).
		Update("delivered_at", at).Error
}

func (s *notificationRepoImpl) ClaimDelivery(ctx context.Context, id uint64, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND delivered_at IS NULL AND cancelled = ?", id, false).
		Update("delivered_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *notificationRepoImpl) ReleaseDelivery(ctx context.Context, id uint64) error {
	return s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND cancelled = ?", id, false).
		Update("delivered_at", nil).Error
}

// ListUnread 未读列表：按创建时间升序，作废的不返回
func (s *notificationRepoImpl) ListUnread(ctx context.Context, userID uint64) ([]*model.Notification, error) {
	var list []*model.Notification
	err := s.db.WithContext(ctx).
		Where("recipient_id = ? AND read_at IS NULL AND cancelled = ?", userID, false).
		Order("created_at ASC, id ASC").
		Find(&list).Error
	return list, err
}

// ListUndelivered 补发积压：按创建时间升序，作废的不参与补发
func (s *notificationRepoImpl) ListUndelivered(ctx context.Context, userID uint64) ([]*model.Notification, error) {
	var list []*model.Notification
	err := s.db.WithContext(ctx).
		Where("recipient_id = ? AND delivered_at IS NULL AND cancelled = ?", userID, false).
		Order("created_at ASC, id ASC").
		Find(&list).Error
	return list, err
}

func (s *notificationRepoImpl) CountUnread(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("recipient_id = ? AND read_at IS NULL AND cancelled = ?", userID, false).
		Count(&count).Error
	return count, err
}

// PurgeBefore 清理超过审计留存期的已读或已作废通知
func (s *notificationRepoImpl) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("created_at < ? AND (cancelled = ? OR read_at IS NOT NULL)", cutoff, true).
		Delete(&model.Notification{})
	return res.RowsAffected, res.Error
}
