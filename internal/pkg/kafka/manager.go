package kafka

import (
	"Amora/internal/api/config"
	"Amora/internal/service"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// ConsumerManager 管理站外事件消费者
type ConsumerManager struct {
	eventConsumer sarama.ConsumerGroup
	eventHandler  sarama.ConsumerGroupHandler
}

// NewConsumerManager 构造函数
func NewConsumerManager(cfg *config.Config, notifSvc service.NotificationService) (*ConsumerManager, error) {
	saramaCfg := newSaramaConfig(cfg.Kafka)

	eventConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaEventConsumer.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}

	return &ConsumerManager{
		eventConsumer: eventConsumer,
		eventHandler:  NewEventHandler(notifSvc),
	}, nil
}

// Start 启动消费，阻塞到 ctx 结束
func (m *ConsumerManager) Start(ctx context.Context, cfg *config.Config) error {
	topic := cfg.KafkaEventConsumer.Topic

	go func() {
		log.Info("Domain event consumer started", "topic", topic)
		for {
			if err := m.eventConsumer.Consume(ctx, []string{topic}, m.eventHandler); err != nil {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")

	if err := m.eventConsumer.Close(); err != nil {
		log.Error("Failed to close event consumer", "err", err)
	}

	return nil
}
