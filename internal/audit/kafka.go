package audit

import (
	"context"
	"encoding/json"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

// KafkaRecorder publishes audit events to a Kafka topic using franz-go.
// Produce is asynchronous; delivery failures are logged, not surfaced.
type KafkaRecorder struct {
	client *kgo.Client
	topic  string
	log    *zap.Logger
}

// NewKafkaRecorder connects a producer to the given brokers and topic.
// Returns (nil, nil) when brokers is empty so callers can fall back to Nop.
func NewKafkaRecorder(brokers []string, topic string, log *zap.Logger) (*KafkaRecorder, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchMaxBytes(1 << 20),
	)
	if err != nil {
		return nil, err
	}
	return &KafkaRecorder{client: client, topic: topic, log: log}, nil
}

// Record serializes the event as JSON and produces it asynchronously. The
// user id keys the record so one user's events stay ordered per partition.
func (r *KafkaRecorder) Record(ctx context.Context, event Event) {
	if r == nil || r.client == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		r.log.Error("audit: marshal event", zap.Error(err))
		return
	}
	record := &kgo.Record{
		Key:   []byte(event.UserID),
		Value: payload,
	}
	r.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			r.log.Warn("audit: kafka produce failed",
				zap.String("event_type", event.Type),
				zap.Error(err),
			)
		}
	})
}

// Close flushes pending records and releases the client. Safe on nil.
func (r *KafkaRecorder) Close(ctx context.Context) {
	if r == nil || r.client == nil {
		return
	}
	if err := r.client.Flush(ctx); err != nil {
		r.log.Warn("audit: flush on close", zap.Error(err))
	}
	r.client.Close()
}
