package dto

import "time"

// SendMessageReq 发送消息请求体
type SendMessageReq struct {
	RecipientID uint64 `json:"recipient_id" binding:"required"`
	Content     string `json:"content" binding:"required"`
}

// MessageDTO 消息明细响应
type MessageDTO struct {
	ID          string    `json:"id"`
	SenderID    uint64    `json:"sender_id"`
	RecipientID uint64    `json:"recipient_id"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}
