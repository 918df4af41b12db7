package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/smukkama/dwd-ingest/internal/points"
)

// PointMessage is the JSON envelope published per point.
type PointMessage struct {
	Measurement string             `json:"measurement"`
	Tags        map[string]string  `json:"tags"`
	Fields      map[string]float64 `json:"fields"`
	Time        time.Time          `json:"time"`
}

// Publisher streams normalized points to a Kafka topic so downstream
// consumers can react without polling the sink. Best-effort: the ingest run
// never fails because of it.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a point publisher.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{}, // Partition by key (station id)
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
	}
}

// PublishPoints sends pts to the topic, keyed by station id.
func (p *Publisher) PublishPoints(ctx context.Context, pts []points.Point) error {
	if len(pts) == 0 {
		return nil
	}

	messages := make([]kafka.Message, 0, len(pts))
	for _, pt := range pts {
		value, err := json.Marshal(PointMessage{
			Measurement: pt.Measurement,
			Tags:        pt.Tags,
			Fields:      pt.Fields,
			Time:        pt.Time,
		})
		if err != nil {
			return fmt.Errorf("encoding point: %w", err)
		}
		messages = append(messages, kafka.Message{
			Key:   []byte(pt.Tags["station_id"]),
			Value: value,
		})
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		return fmt.Errorf("failed to write batch: %w", err)
	}
	return nil
}

// Close closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
