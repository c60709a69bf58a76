package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"devspaces/internal/audit/domain"
)

// KafkaProducer implements Publisher using segmentio/kafka-go.
type KafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaProducer creates a producer that writes audit events to topic.
// Returns nil when brokers or topic is empty, so streaming stays off unless configured.
func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaProducer{writer: writer, topic: topic}
}

// event is the wire form of an audit record on the stream.
type event struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	UserID      string    `json:"user_id"`
	Action      string    `json:"action"`
	Resource    string    `json:"resource"`
	IP          string    `json:"ip"`
	Metadata    string    `json:"metadata,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// encode keys messages by workspace so one workspace's events stay ordered within a partition.
func encode(entry *domain.AuditLog) (kafka.Message, error) {
	payload, err := json.Marshal(event{
		ID:          entry.ID,
		WorkspaceID: entry.WorkspaceID,
		UserID:      entry.UserID,
		Action:      entry.Action,
		Resource:    entry.Resource,
		IP:          entry.IP,
		Metadata:    entry.Metadata,
		CreatedAt:   entry.CreatedAt.UTC(),
	})
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(entry.WorkspaceID),
		Value: payload,
		Time:  entry.CreatedAt,
	}, nil
}

// Publish serializes entry as JSON and writes it to the topic.
func (p *KafkaProducer) Publish(ctx context.Context, entry *domain.AuditLog) error {
	if p == nil || p.writer == nil || entry == nil {
		return nil
	}
	msg, err := encode(entry)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

// Topic returns the destination topic.
func (p *KafkaProducer) Topic() string {
	if p == nil {
		return ""
	}
	return p.topic
}

// Close closes the Kafka writer.
func (p *KafkaProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
