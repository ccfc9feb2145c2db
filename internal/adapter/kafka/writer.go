package kafka

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/storm-data-dsg/internal/config"
	"github.com/couchcryptid/storm-data-dsg/internal/domain"
	"github.com/couchcryptid/storm-data-dsg/internal/dsg"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces dataset messages to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes the datasets of one engine batch and publishes them to
// the sink topic in a single WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, batchID string, datasets []*dsg.Dataset) error {
	if len(datasets) == 0 {
		return nil
	}
	generatedAt := domain.Now()
	msgs := make([]kafkago.Message, len(datasets))
	for i, ds := range datasets {
		msg, err := serializeToMessage(batchID, generatedAt, ds)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return err
	}
	w.logger.Debug("datasets written", "batch_id", batchID, "datasets", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}
