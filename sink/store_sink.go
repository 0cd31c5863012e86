package sink

import (
	"context"
	"fmt"

	"bookingtrack/api/config"
	"bookingtrack/api/models"
)

// EventWriter is satisfied by store.AnalyticsStore.
type EventWriter interface {
	InsertAnalyticsEvents(ctx context.Context, events []models.AnalyticsEvent) error
}

// StoreSink batches events into the ClickHouse analytics store directly,
// skipping the collector. Used by `simulate --sink store`.
type StoreSink struct {
	*batchQueue

	writer EventWriter
	cfg    config.SinkConfig
}

func NewStoreSink(writer EventWriter, cfg config.SinkConfig) *StoreSink {
	cfg = withDefaults(cfg)
	s := &StoreSink{writer: writer, cfg: cfg}
	s.batchQueue = newBatchQueue(cfg, "analytics store", s.insert)
	return s
}

func (s *StoreSink) insert(batch []models.AnalyticsEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()

	if err := s.writer.InsertAnalyticsEvents(ctx, batch); err != nil {
		return fmt.Errorf("%w: %w", ErrSinkUnavailable, err)
	}
	return nil
}
