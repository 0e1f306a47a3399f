package kafka

import (
	"Amora/internal/service"
	"context"
	"errors"
	log "log/slog"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

// DomainEvent 上游（配对引擎、风控侧等）产出的站外事件。
// flash/unflash/view 携带 actor_id + recipient_id，match 携带 user_a + user_b。
type DomainEvent struct {
	Type        string `json:"type"`
	ActorID     uint64 `json:"actor_id"`
	RecipientID uint64 `json:"recipient_id"`
	UserA       uint64 `json:"user_a"`
	UserB       uint64 `json:"user_b"`
}

type EventHandler struct {
	notifSvc service.NotificationService
}

func NewEventHandler(notifSvc service.NotificationService) *EventHandler {
	return &EventHandler{notifSvc: notifSvc}
}

func (s *EventHandler) Setup(_ sarama.ConsumerGroupSession) error   { return nil }
func (s *EventHandler) Cleanup(_ sarama.ConsumerGroupSession) error { return nil }

func (s *EventHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	return pullMessages(session, claim, s.process)
}

func (s *EventHandler) process(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var ev DomainEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		// 脏数据只记录，不无限重试
		log.Error("unmarshal domain event error", "offset", msg.Offset, "err", err)
		return nil
	}

	var err error
	switch ev.Type {
	case "flash":
		_, err = s.notifSvc.Flash(ctx, ev.ActorID, ev.RecipientID)
	case "unflash":
		_, err = s.notifSvc.Unflash(ctx, ev.ActorID, ev.RecipientID)
	case "view":
		_, err = s.notifSvc.RecordProfileView(ctx, ev.ActorID, ev.RecipientID)
	case "match":
		err = s.notifSvc.CreateMatch(ctx, ev.UserA, ev.UserB)
	default:
		log.Warn("unknown domain event type", "type", ev.Type, "offset", msg.Offset)
		return nil
	}

	// 业务侧拒绝（发给自己等）属于终态，不重试
	if err != nil && !errors.Is(err, service.UnExpectedError) {
		if _, ok := service.ErrorMap[err]; ok {
			log.Warn("domain event rejected", "type", ev.Type, "err", err)
			return nil
		}
	}
	return err
}
