package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"bookingtrack/api/config"
	"bookingtrack/api/models"
)

// HTTPSink batches events in the background and POSTs them as a JSON array
// to the collector's /api/track endpoint.
type HTTPSink struct {
	*batchQueue

	cfg    config.SinkConfig
	client *http.Client
}

func NewHTTPSink(cfg config.SinkConfig) *HTTPSink {
	cfg = withDefaults(cfg)
	s := &HTTPSink{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
	s.batchQueue = newBatchQueue(cfg, cfg.Endpoint, s.post)
	return s
}

func (s *HTTPSink) post(batch []models.AnalyticsEvent) error {
	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("marshal events: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post events: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("collector responded %s", resp.Status)
	}
	return nil
}
