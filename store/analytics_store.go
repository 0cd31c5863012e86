// api/store/analytics_store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"bookingtrack/api/database"
	"bookingtrack/api/models"
	"bookingtrack/api/utils"
)

type AnalyticsStore struct {
	DB *database.ClickHouseClient
}

type EventTypeCountByTime struct {
	Time      time.Time `json:"time"`
	EventType *string   `json:"eventType,omitempty"`
	Count     uint64    `json:"count"`
}

func NewAnalyticsStore(chClient *database.ClickHouseClient) *AnalyticsStore {
	return &AnalyticsStore{
		DB: chClient,
	}
}

func (s *AnalyticsStore) InsertAnalyticsEvents(ctx context.Context, events []models.AnalyticsEvent) error {
	if len(events) == 0 {
		return nil
	}

	// Column order must match tracking_events.
	batch, err := s.DB.Conn.PrepareBatch(ctx, `
		INSERT INTO tracking_events (
			event_id, event_type, visitor_id, session_id, timestamp, page_path, team_member_id,
			traffic_source, utm_source, utm_medium, utm_campaign, utm_content, fbclid, ttclid, gclid,
			attribution_captured_at, sequence_id, sequence_ordinal, user_agent, ip_hash
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch insert: %w", err)
	}

	appended := 0
	for _, event := range events {
		a := event.Attribution
		err := batch.Append(
			event.EventID,
			string(event.EventType),
			event.VisitorID,
			event.SessionID,
			event.Timestamp,
			event.PagePath,
			event.TeamMemberID,
			string(a.Source),
			a.UTMSource,
			a.UTMMedium,
			a.UTMCampaign,
			a.UTMContent,
			a.FBClID,
			a.TTClID,
			a.GClID,
			a.CapturedAt,
			event.SequenceID,
			event.SequenceOrdinal,
			event.UserAgent,
			event.IPHash,
		)
		if err != nil {
			log.Printf("Error appending event to batch (EventID: %s): %v", event.EventID, err)
			continue
		}
		appended++
	}
	if appended == 0 {
		batch.Abort()
		return errors.New("no events could be appended to the batch")
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	log.Printf("Inserted %d tracking events.", appended)
	return nil
}

func (s *AnalyticsStore) GetEventCountsOverTime(ctx context.Context, interval string, start, end time.Time, eventTypeFilter string) ([]EventTypeCountByTime, error) {
	if !utils.IsValidInterval(interval) {
		return nil, fmt.Errorf("invalid interval: %s", interval)
	}

	args := []interface{}{start, end}
	selectCols := fmt.Sprintf("toStartOf%s(timestamp) AS time_bucket, count() AS total_events", interval)
	groupByCols := "time_bucket"
	whereClause := "WHERE timestamp >= ? AND timestamp <= ?"
	orderByCols := "time_bucket ASC"
	isFilteringByType := eventTypeFilter != ""

	if isFilteringByType {
		selectCols += ", event_type"
		groupByCols += ", event_type"
		whereClause += " AND event_type = ?"
		args = append(args, eventTypeFilter)
		orderByCols += ", event_type ASC"
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM tracking_events FINAL
		%s
		GROUP BY %s
		ORDER BY %s
	`, selectCols, whereClause, groupByCols, orderByCols)

	rows, err := s.DB.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query event counts over time: %w", err)
	}
	defer rows.Close()

	var results []EventTypeCountByTime
	for rows.Next() {
		var (
			timeBucket    time.Time
			count         uint64
			eventTypeDB   string
			currentResult EventTypeCountByTime
		)

		if isFilteringByType {
			if err := rows.Scan(&timeBucket, &count, &eventTypeDB); err != nil {
				log.Printf("Error scanning row for event counts over time (with type filter): %v", err)
				continue
			}
			currentResult.EventType = &eventTypeDB
		} else {
			if err := rows.Scan(&timeBucket, &count); err != nil {
				log.Printf("Error scanning row for event counts over time (no type filter): %v", err)
				continue
			}
		}

		currentResult.Time = timeBucket
		currentResult.Count = count
		results = append(results, currentResult)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during event counts over time query: %w", err)
	}

	return results, nil
}

func (s *AnalyticsStore) GetUniqueVisitorsOverTime(ctx context.Context, interval string, start, end time.Time) ([]EventTypeCountByTime, error) {
	if !utils.IsValidInterval(interval) {
		return nil, fmt.Errorf("invalid interval: %s", interval)
	}

	query := fmt.Sprintf(`
		SELECT toStartOf%s(timestamp) AS time_bucket, uniq(visitor_id) AS unique_visitors
		FROM tracking_events
		WHERE timestamp >= ? AND timestamp <= ?
		GROUP BY time_bucket
		ORDER BY time_bucket ASC
	`, interval)

	rows, err := s.DB.Conn.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query unique visitors over time: %w", err)
	}
	defer rows.Close()

	var results []EventTypeCountByTime
	for rows.Next() {
		var timeBucket time.Time
		var uniqueVisitors uint64
		if err := rows.Scan(&timeBucket, &uniqueVisitors); err != nil {
			log.Printf("Error scanning row for unique visitors: %v", err)
			continue
		}
		results = append(results, EventTypeCountByTime{
			Time:  timeBucket,
			Count: uniqueVisitors,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows for unique visitors: %w", err)
	}

	return results, nil
}

func (s *AnalyticsStore) GetTopNPagePaths(ctx context.Context, start, end time.Time, limit uint64) ([]models.TopPathResult, error) {
	if limit == 0 {
		limit = 10
	}

	query := `
		SELECT page_path, count() AS view_count
		FROM tracking_events FINAL
		WHERE event_type = ? AND timestamp >= ? AND timestamp <= ?
		GROUP BY page_path
		ORDER BY view_count DESC
		LIMIT ?
	`
	rows, err := s.DB.Conn.Query(ctx, query, string(models.EventPageVisit), start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top page paths: %w", err)
	}
	defer rows.Close()

	var results []models.TopPathResult
	for rows.Next() {
		var pagePath string
		var count uint64
		if err := rows.Scan(&pagePath, &count); err != nil {
			log.Printf("Error scanning row for top page paths: %v", err)
			continue
		}
		results = append(results, models.TopPathResult{
			PagePath: pagePath,
			Count:    count,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows for top page paths: %w", err)
	}

	return results, nil
}

// GetTrafficSourceBreakdown counts sessions per first-touch traffic source.
func (s *AnalyticsStore) GetTrafficSourceBreakdown(ctx context.Context, start, end time.Time) ([]models.TrafficSourceResult, error) {
	query := `
		SELECT traffic_source, uniq(session_id) AS sessions
		FROM tracking_events
		WHERE timestamp >= ? AND timestamp <= ?
		GROUP BY traffic_source
		ORDER BY sessions DESC
	`
	rows, err := s.DB.Conn.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query traffic sources: %w", err)
	}
	defer rows.Close()

	var results []models.TrafficSourceResult
	for rows.Next() {
		var source string
		var sessions uint64
		if err := rows.Scan(&source, &sessions); err != nil {
			log.Printf("Error scanning row for traffic sources: %v", err)
			continue
		}
		results = append(results, models.TrafficSourceResult{
			Source:   models.TrafficSource(source),
			Sessions: sessions,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows for traffic sources: %w", err)
	}

	return results, nil
}

// GetFunnel counts the sessions reaching each funnel step, in funnel order.
// Steps nobody reached are reported with zero sessions.
func (s *AnalyticsStore) GetFunnel(ctx context.Context, start, end time.Time, source string) ([]models.FunnelStepResult, error) {
	args := []interface{}{start, end}
	whereClause := "WHERE timestamp >= ? AND timestamp <= ?"
	if source != "" {
		whereClause += " AND traffic_source = ?"
		args = append(args, source)
	}

	query := fmt.Sprintf(`
		SELECT event_type, uniq(session_id) AS sessions
		FROM tracking_events
		%s
		GROUP BY event_type
	`, whereClause)

	rows, err := s.DB.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query funnel: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.EventType]uint64)
	for rows.Next() {
		var eventType string
		var sessions uint64
		if err := rows.Scan(&eventType, &sessions); err != nil {
			log.Printf("Error scanning row for funnel: %v", err)
			continue
		}
		counts[models.EventType(eventType)] = sessions
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows for funnel: %w", err)
	}

	return BuildFunnel(counts), nil
}

// BuildFunnel orders per-type session counts along models.FunnelSteps.
func BuildFunnel(counts map[models.EventType]uint64) []models.FunnelStepResult {
	results := make([]models.FunnelStepResult, 0, len(models.FunnelSteps))
	for _, step := range models.FunnelSteps {
		results = append(results, models.FunnelStepResult{EventType: step, Sessions: counts[step]})
	}
	return results
}
