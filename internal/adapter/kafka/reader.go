package kafka

import (
	"context"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/tide-chart-service/internal/config"
	"github.com/couchcryptid/tide-chart-service/internal/domain"
)

// Reader consumes chart request messages from the source topic.
// It implements pipeline.BatchExtractor.
type Reader struct {
	reader *kafkago.Reader
	logger *slog.Logger
}

// NewReader creates a Kafka consumer for the configured source topic.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		Topic:          cfg.KafkaSourceTopic,
		GroupID:        cfg.KafkaGroupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // explicit commits only
	})
	return &Reader{reader: r, logger: logger}
}

// ExtractBatch fetches up to batchSize messages. The first fetch blocks on
// the parent context; subsequent fetches use a short deadline so a partial
// batch flushes instead of waiting indefinitely for a full one.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error) {
	events := make([]domain.RawEvent, 0, batchSize)

	for len(events) < batchSize {
		fetchCtx := ctx
		var cancel context.CancelFunc
		if len(events) > 0 {
			fetchCtx, cancel = context.WithTimeout(ctx, 100*time.Millisecond)
		}

		msg, err := r.reader.FetchMessage(fetchCtx)
		if cancel != nil {
			cancel()
		}
		if err != nil {
			if len(events) > 0 && ctx.Err() == nil {
				return events, nil
			}
			if ctx.Err() != nil {
				return events, ctx.Err()
			}
			return nil, err
		}

		events = append(events, r.mapMessageToRawEvent(msg))
	}

	return events, nil
}

func (r *Reader) mapMessageToRawEvent(msg kafkago.Message) domain.RawEvent {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return domain.RawEvent{
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
		Commit: func(ctx context.Context) error {
			return r.reader.CommitMessages(ctx, msg)
		},
	}
}

func (r *Reader) Close() error {
	return r.reader.Close()
}
