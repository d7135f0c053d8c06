// Package kafka publishes search analytics records to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/venue-discovery/internal/config"
	"github.com/couchcryptid/venue-discovery/internal/observability"
	"github.com/couchcryptid/venue-discovery/internal/pipeline"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces search records to a Kafka topic.
// It implements pipeline.SearchRecorder.
type Writer struct {
	writer  messageWriter
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured search topic.
func NewWriter(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSearchTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Writer{writer: w, metrics: metrics, logger: logger}
}

// RecordSearch serializes and publishes one search record.
func (w *Writer) RecordSearch(ctx context.Context, rec pipeline.SearchRecord) error {
	msg, err := serializeToMessage(rec)
	if err != nil {
		w.metrics.RecordsPublished.WithLabelValues("error").Inc()
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		w.metrics.RecordsPublished.WithLabelValues("error").Inc()
		return fmt.Errorf("publish search record %s: %w", rec.ID, err)
	}
	w.metrics.RecordsPublished.WithLabelValues("success").Inc()
	w.logger.Debug("search record published", "search_id", rec.ID)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a SearchRecord into a Kafka message keyed by
// the normalized query so records for one query share a partition.
func serializeToMessage(rec pipeline.SearchRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize search record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.Query),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "search_id", Value: []byte(rec.ID)},
			{Key: "sport", Value: []byte(strconv.FormatBool(rec.Sport))},
			{Key: "recorded_at", Value: []byte(rec.Timestamp.Format(time.RFC3339))},
		},
	}, nil
}
