package kafka

import (
	"context"
	log "log/slog"
	"time"

	"github.com/IBM/sarama"
)

type LogicFunc func(ctx context.Context, msg *sarama.ConsumerMessage) error

// pullMessages 逐条消费并执行业务逻辑，指数退避重试，
// 成功后手动提交位点
func pullMessages(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim, logic LogicFunc) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			processWithRetry(session, msg, logic)
			session.MarkMessage(msg, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

func processWithRetry(session sarama.ConsumerGroupSession, msg *sarama.ConsumerMessage, logic LogicFunc) {
	var retryInterval = 100 * time.Millisecond

	for {
		err := logic(session.Context(), msg)
		if err == nil {
			return
		}
		select {
		case <-session.Context().Done():
			return
		default:
		}

		log.Error("process message error", "topic", msg.Topic, "offset", msg.Offset, "err", err)
		time.Sleep(retryInterval)

		retryInterval *= 2
		if retryInterval > 5*time.Second {
			retryInterval = 5 * time.Second
		}
	}
}
