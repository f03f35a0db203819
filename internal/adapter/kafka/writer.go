// Package kafka publishes newly stored RTD records to a Kafka topic for
// downstream consumers.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/disaster-rtd-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces one message per inserted record, keyed by record ID.
type Publisher struct {
	writer messageWriter
	logger *slog.Logger
	now    func() time.Time
}

// NewPublisher creates a producer for topic on brokers.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, logger: logger, now: domain.Now}
}

// Publish serializes records and writes them in a single call.
func (p *Publisher) Publish(ctx context.Context, records []domain.RtdRecord) error {
	if len(records) == 0 {
		return nil
	}
	publishedAt := p.now()
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i], publishedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d records: %w", len(msgs), err)
	}
	p.logger.Debug("records published", "count", len(msgs))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a record into a Kafka message.
func serializeToMessage(r domain.RtdRecord, publishedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize rtd record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(r.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "rtd_code", Value: []byte(strconv.Itoa(int(r.HazardCode)))},
			{Key: "hazard", Value: []byte(r.HazardCode.String())},
			{Key: "published_at", Value: []byte(publishedAt.Format(time.RFC3339))},
		},
	}, nil
}
