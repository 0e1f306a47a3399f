package dto

// FlashReq flash / unflash / 浏览主页请求体
type FlashReq struct {
	RecipientID uint64 `json:"recipient_id" binding:"required"` // 对方 UID
}

// MatchReq 配对成功事件请求体
type MatchReq struct {
	UserA uint64 `json:"user_a" binding:"required"`
	UserB uint64 `json:"user_b" binding:"required"`
}

// NotificationDTO 通知返回对象
type NotificationDTO struct {
	ID          uint64         `json:"id"`
	RecipientID uint64         `json:"recipient_id"`
	ActorID     uint64         `json:"actor_id"` // 0 代表系统事件
	Kind        string         `json:"kind"`
	Payload     map[string]any `json:"payload,omitempty"`
	CreatedAt   string         `json:"created_at"`
	Read        bool           `json:"read"`
	Delivered   bool           `json:"delivered"`
}

// UnflashResultDTO 取消 flash 的两种结局：
// 作废了未送达的 Like，或产生了一条对称的 Unlike 通知
type UnflashResultDTO struct {
	Cancelled    bool             `json:"cancelled"`
	Notification *NotificationDTO `json:"notification,omitempty"`
}

// UnreadCountDTO 未读数返回
type UnreadCountDTO struct {
	UnreadCount int64 `json:"unread_count"`
}

// PresenceDTO 在线状态返回
type PresenceDTO struct {
	UserID uint64 `json:"user_id"`
	Online bool   `json:"online"`
}
