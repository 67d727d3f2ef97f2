// Package kafka publishes render-audit events to a Kafka topic. The writer is
// optional; when auditing is disabled the service runs without it.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/geo-dashboard-service/internal/config"
	"github.com/couchcryptid/geo-dashboard-service/internal/domain"
)

// Writer produces audit messages to the configured topic. It implements
// dashboard.AuditPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured audit topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.AuditTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes and publishes one render-audit event.
func (w *Writer) Publish(ctx context.Context, audit domain.RenderAudit) error {
	msg, err := serializeToMessage(audit)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a RenderAudit into a Kafka message keyed by
// session so one session's renders land on one partition in order.
func serializeToMessage(audit domain.RenderAudit) (kafkago.Message, error) {
	data, err := json.Marshal(audit)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize render audit: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(audit.SessionID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "chart", Value: []byte(audit.Chart)},
			{Key: "rendered_at", Value: []byte(audit.RenderedAt.Format(time.RFC3339))},
		},
	}, nil
}
