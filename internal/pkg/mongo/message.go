package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message 聊天消息明细模型。
// 推送走通知链路，这里只负责明细留存与历史查询。
type Message struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SenderID    uint64             `bson:"sender_id" json:"senderId"`       // 发送者 UID
	RecipientID uint64             `bson:"recipient_id" json:"recipientId"` // 接收者 UID
	Content     string             `bson:"content" json:"content"`          // 文本内容
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`     // 发送时间
}
