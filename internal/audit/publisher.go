package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// LogPublisher writes events to the structured log.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	p.logger.InfoContext(ctx, "audit_event",
		"event_id", event.ID,
		"type", event.Type,
		"actor", event.Actor,
		"member_id", event.MemberID,
		"league_id", event.LeagueID,
		"week", event.WeekNumber,
		"status", event.Next.Status,
		"balance", event.Balance.StringFixed(2),
	)
	return nil
}

// KafkaPublisher produces events as JSON records keyed by membership.
type KafkaPublisher struct {
	client *kgo.Client
}

// NewKafkaPublisher connects a producer for topic.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	return &KafkaPublisher{client: client}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}

	record := &kgo.Record{
		Key:   []byte(event.MemberID.String() + ":" + event.LeagueID.String()),
		Value: value,
	}

	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event %s: %w", event.ID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() {
	p.client.Close()
}
