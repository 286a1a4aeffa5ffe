// Package kafka publishes merged daily rows to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/harryeslick/weather-tools-sub000/internal/config"
	"github.com/harryeslick/weather-tools-sub000/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces one message per merged row.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish writes every row of s in a single WriteMessages call. Rows of one location
// share a partition because the key starts with the location key.
func (w *Writer) Publish(ctx context.Context, runID string, loc domain.Location, s domain.Series) error {
	if s.Len() == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, s.Len())
	for i, row := range s.Rows {
		msg, err := serializeToMessage(runID, loc, s.Columns, row)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d rows for %s: %w", len(msgs), loc.Key(), err)
	}
	w.logger.Debug("merged rows published", "location", loc.Key(), "rows", len(msgs), "run_id", runID)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage renders one row as a flat JSON object keyed by column name, plus
// location and run identifiers.
func serializeToMessage(runID string, loc domain.Location, cols []domain.Column, row domain.Row) (kafkago.Message, error) {
	fields := row.Fields(cols)
	fields["location"] = loc.Name
	fields["lat"] = loc.Lat
	fields["lon"] = loc.Lon
	if loc.StationCode != "" {
		fields["station_code"] = loc.StationCode
	}
	fields["run_id"] = runID

	data, err := json.Marshal(fields)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize row %s: %w", row.Date.Format(domain.DateLayout), err)
	}

	headers := []kafkago.Header{
		{Key: "run_id", Value: []byte(runID)},
		{Key: "location", Value: []byte(loc.Key())},
	}
	if p := row.Provenance; p != nil {
		headers = append(headers, kafkago.Header{Key: "data_source", Value: []byte(p.Source)})
		if p.GeneratedAt != nil {
			headers = append(headers, kafkago.Header{Key: "generated_at", Value: []byte(p.GeneratedAt.Format(time.RFC3339))})
		}
	}
	return kafkago.Message{
		Key:     []byte(loc.Key() + "/" + row.Date.Format(domain.DateLayout)),
		Value:   data,
		Headers: headers,
	}, nil
}
