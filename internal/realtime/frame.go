package realtime

import (
	"Amora/internal/model"
	"time"

	"github.com/goccy/go-json"
)

// Frame 服务端下行帧，协议上不要求客户端回应
type Frame struct {
	ID        uint64         `json:"id"`
	Kind      string         `json:"kind"`
	ActorID   uint64         `json:"actor_id"`
	Payload   map[string]any `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// EncodeFrame 将通知编码为下行帧
func EncodeFrame(n *model.Notification) ([]byte, error) {
	return json.Marshal(&Frame{
		ID:        n.ID,
		Kind:      n.Kind.String(),
		ActorID:   n.ActorID,
		Payload:   n.Payload,
		CreatedAt: n.CreatedAt,
	})
}
