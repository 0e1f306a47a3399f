package model

import (
	"database/sql/driver"
	"errors"
	"time"

	"github.com/goccy/go-json"
)

// NotificationKind 通知类型（闭合枚举）
type NotificationKind int8

const (
	KindLike        NotificationKind = 1 // 被 flash（喜欢）
	KindUnlike      NotificationKind = 2 // 被取消 flash
	KindProfileView NotificationKind = 3 // 主页被浏览
	KindMatch       NotificationKind = 4 // 互相 flash 配对成功
	KindMessage     NotificationKind = 5 // 收到聊天消息
)

// Valid 校验是否为合法的通知类型
func (k NotificationKind) Valid() bool {
	switch k {
	case KindLike, KindUnlike, KindProfileView, KindMatch, KindMessage:
		return true
	}
	return false
}

func (k NotificationKind) String() string {
	switch k {
	case KindLike:
		return "like"
	case KindUnlike:
		return "unlike"
	case KindProfileView:
		return "profile_view"
	case KindMatch:
		return "match"
	case KindMessage:
		return "message"
	}
	return "unknown"
}

// JSONMap 以 JSON 文本落库的扩展字段
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("unsupported payload column type")
	}
	if len(raw) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(raw, m)
}

// Notification 通知主表
// 约束：read_at / delivered_at 一旦写入必须 >= created_at；
// cancelled=1 的记录不参与未读查询与补发，仅留存审计。
type Notification struct {
	ID          uint64           `gorm:"primaryKey;autoIncrement" json:"id"`
	RecipientID uint64           `gorm:"not null;index:idx_recipient_created,priority:1" json:"recipientId"` // 接收者 UID
	ActorID     uint64           `gorm:"not null;default:0;index:idx_pending_like,priority:2" json:"actorId"` // 动作发起者 UID (系统事件为 0)
	Kind        NotificationKind `gorm:"not null;index:idx_pending_like,priority:1" json:"kind"`
	Payload     JSONMap          `gorm:"type:json" json:"payload"` // 类型相关的扩展数据
	CreatedAt   time.Time        `gorm:"not null;index:idx_recipient_created,priority:2" json:"createdAt"`
	ReadAt      *time.Time       `json:"readAt"`
	DeliveredAt *time.Time       `json:"deliveredAt"`
	Cancelled   bool             `gorm:"not null;default:false;index:idx_pending_like,priority:3" json:"cancelled"`
}

func (Notification) TableName() string { return "notifications" }

// Delivered 是否已推送到过至少一条连接
func (n *Notification) Delivered() bool { return n.DeliveredAt != nil }
