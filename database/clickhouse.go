package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"bookingtrack/api/config"
)

type ClickHouseClient struct {
	Conn clickhouse.Conn
}

func NewClickHouseDB(cfg config.ClickHouseConfig) (*ClickHouseClient, error) {
	if cfg.Host == "" || cfg.Database == "" {
		return nil, fmt.Errorf("CLICKHOUSE_HOST or CLICKHOUSE_DB_NAME environment variables are not set")
	}

	options := &clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.NativePort)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		ClientInfo: clickhouse.ClientInfo{
			Products: []struct {
				Name    string
				Version string
			}{{Name: "bookingtrack-collector", Version: "1.0.0"}},
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		DialTimeout: time.Second * 5,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse via Native TCP: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	log.Printf("Connected to ClickHouse at %s:%d (db=%s)", cfg.Host, cfg.NativePort, cfg.Database)
	return &ClickHouseClient{Conn: conn}, nil
}

// EnsureTrackingSchema creates the events table when it does not exist yet.
func (c *ClickHouseClient) EnsureTrackingSchema(ctx context.Context) error {
	if err := c.Conn.Exec(ctx, trackingEventsDDL); err != nil {
		return fmt.Errorf("failed to create tracking_events table: %w", err)
	}
	return nil
}

func (c *ClickHouseClient) Close() {
	if c.Conn != nil {
		c.Conn.Close()
		log.Println("ClickHouse connection closed.")
	}
}

const trackingEventsDDL = `
CREATE TABLE IF NOT EXISTS tracking_events (
	event_id                String,
	event_type              LowCardinality(String),
	visitor_id              String,
	session_id              String,
	timestamp               DateTime64(3, 'UTC'),
	page_path               String,
	team_member_id          String,
	traffic_source          LowCardinality(String),
	utm_source              String,
	utm_medium              String,
	utm_campaign            String,
	utm_content             String,
	fbclid                  String,
	ttclid                  String,
	gclid                   String,
	attribution_captured_at DateTime64(3, 'UTC'),
	sequence_id             String,
	sequence_ordinal        Int64,
	user_agent              String,
	ip_hash                 String
) ENGINE = ReplacingMergeTree
PARTITION BY toYYYYMM(timestamp)
ORDER BY (session_id, sequence_ordinal, event_id)
`
