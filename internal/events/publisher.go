package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/fathima-sithara/realtime-chat/internal/models"
)

// Publisher emits message.sent events for downstream consumers
// (notifications, analytics). Publishing is best-effort: delivery to live
// connections never waits on the broker.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
	return &Publisher{writer: w}
}

func (p *Publisher) MessageSent(ctx context.Context, m *models.Message) error {
	if p == nil {
		return nil
	}
	value, err := json.Marshal(map[string]any{
		"event":   "message.sent",
		"message": m,
	})
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(m.ConversationKey()),
		Value: value,
		Time:  time.Now(),
	})
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
