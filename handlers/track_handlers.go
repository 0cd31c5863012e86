// api/handlers/track_handlers.go
package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"bookingtrack/api/models"
	"bookingtrack/api/store"
	"bookingtrack/api/utils"
)

// EventStore is the part of store.AnalyticsStore the handlers use.
type EventStore interface {
	InsertAnalyticsEvents(ctx context.Context, events []models.AnalyticsEvent) error
	GetEventCountsOverTime(ctx context.Context, interval string, start, end time.Time, eventTypeFilter string) ([]store.EventTypeCountByTime, error)
	GetUniqueVisitorsOverTime(ctx context.Context, interval string, start, end time.Time) ([]store.EventTypeCountByTime, error)
	GetTopNPagePaths(ctx context.Context, start, end time.Time, limit uint64) ([]models.TopPathResult, error)
	GetTrafficSourceBreakdown(ctx context.Context, start, end time.Time) ([]models.TrafficSourceResult, error)
	GetFunnel(ctx context.Context, start, end time.Time, source string) ([]models.FunnelStepResult, error)
}

type AnalyticsHandlers struct {
	Store      EventStore
	IPHashSalt string
	MaxBatch   int
	now        func() time.Time
}

func NewAnalyticsHandlers(s EventStore, ipHashSalt string, maxBatch int) *AnalyticsHandlers {
	return &AnalyticsHandlers{
		Store:      s,
		IPHashSalt: ipHashSalt,
		MaxBatch:   maxBatch,
		now:        time.Now,
	}
}

// TrackEvent ingests a JSON array of events pushed by tracking sinks.
// Events the engine could not have produced are skipped, not rejected.
func (h *AnalyticsHandlers) TrackEvent(c *gin.Context) {
	var incomingEvents []models.AnalyticsEvent
	if err := c.ShouldBindJSON(&incomingEvents); err != nil {
		log.Printf("Error binding incoming tracking JSON: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if len(incomingEvents) == 0 {
		c.Status(http.StatusOK)
		return
	}
	if h.MaxBatch > 0 && len(incomingEvents) > h.MaxBatch {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Too many events in one request", "max": h.MaxBatch})
		return
	}

	ipHash := utils.HashIP(h.IPHashSalt, c.ClientIP())
	userAgent := c.Request.UserAgent()

	eventsToInsert := make([]models.AnalyticsEvent, 0, len(incomingEvents))
	skipped := 0
	for _, event := range incomingEvents {
		if !event.EventType.Valid() || event.VisitorID == "" || event.SessionID == "" {
			skipped++
			continue
		}
		if event.EventID == "" {
			event.EventID = utils.NewOpaqueID()
		}
		if event.Timestamp.IsZero() {
			event.Timestamp = h.now().UTC()
		}
		if event.Attribution.Source == "" {
			event.Attribution.Source = models.SourceDirect
		}
		event.UserAgent = userAgent
		event.IPHash = ipHash

		eventsToInsert = append(eventsToInsert, event)
	}
	if skipped > 0 {
		log.Printf("Skipped %d invalid tracking events out of %d", skipped, len(incomingEvents))
	}
	if len(eventsToInsert) == 0 {
		c.JSON(http.StatusOK, gin.H{"accepted": 0, "skipped": skipped})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	if err := h.Store.InsertAnalyticsEvents(ctx, eventsToInsert); err != nil {
		log.Printf("Error inserting tracking events into ClickHouse: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record tracking events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"accepted": len(eventsToInsert), "skipped": skipped})
}

func (h *AnalyticsHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// timeRange reads start/end query params, defaulting to the last 7 days.
// It writes the 400 response itself and reports false on bad input.
func (h *AnalyticsHandlers) timeRange(c *gin.Context) (time.Time, time.Time, bool) {
	now := h.now().UTC()

	start, err := utils.ParseTimeOrDefault(c.Query("start"), now.Add(-7*24*time.Hour))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'start' timestamp format. Use RFC3339 (e.g., 2006-01-02T15:04:05Z)"})
		return time.Time{}, time.Time{}, false
	}
	end, err := utils.ParseTimeOrDefault(c.Query("end"), now)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'end' timestamp format. Use RFC3339 (e.g., 2006-01-02T15:04:05Z)"})
		return time.Time{}, time.Time{}, false
	}
	if end.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'end' must not be before 'start'"})
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func (h *AnalyticsHandlers) GetEventCountsOverTime(c *gin.Context) {
	interval := c.Query("interval")
	if !utils.IsValidInterval(interval) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "interval query parameter is required (e.g., 'Day', 'Hour')"})
		return
	}

	eventTypeFilter := c.Query("eventType")
	if eventTypeFilter != "" && !models.EventType(eventTypeFilter).Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown eventType"})
		return
	}

	start, end, ok := h.timeRange(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	results, err := h.Store.GetEventCountsOverTime(ctx, interval, start, end, eventTypeFilter)
	if err != nil {
		log.Printf("Error getting event counts over time: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve event statistics"})
		return
	}

	c.JSON(http.StatusOK, results)
}

func (h *AnalyticsHandlers) GetUniqueVisitorsOverTime(c *gin.Context) {
	interval := c.Query("interval")
	if !utils.IsValidInterval(interval) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "interval query parameter is required (e.g., 'Day', 'Hour')"})
		return
	}

	start, end, ok := h.timeRange(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	results, err := h.Store.GetUniqueVisitorsOverTime(ctx, interval, start, end)
	if err != nil {
		log.Printf("Error getting unique visitors over time: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve unique visitor statistics"})
		return
	}

	c.JSON(http.StatusOK, results)
}

func (h *AnalyticsHandlers) GetTopNPagePaths(c *gin.Context) {
	start, end, ok := h.timeRange(c)
	if !ok {
		return
	}

	var limit uint64 = 10
	if limitParam := c.Query("limit"); limitParam != "" {
		parsedLimit, err := strconv.ParseUint(limitParam, 10, 64)
		if err != nil || parsedLimit == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'limit' parameter. Must be a positive integer."})
			return
		}
		limit = parsedLimit
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	results, err := h.Store.GetTopNPagePaths(ctx, start, end, limit)
	if err != nil {
		log.Printf("Error getting top page paths: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve top page paths statistics"})
		return
	}

	c.JSON(http.StatusOK, results)
}

func (h *AnalyticsHandlers) GetTrafficSources(c *gin.Context) {
	start, end, ok := h.timeRange(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	results, err := h.Store.GetTrafficSourceBreakdown(ctx, start, end)
	if err != nil {
		log.Printf("Error getting traffic sources: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve traffic source statistics"})
		return
	}

	c.JSON(http.StatusOK, results)
}

func (h *AnalyticsHandlers) GetFunnel(c *gin.Context) {
	start, end, ok := h.timeRange(c)
	if !ok {
		return
	}
	source := c.Query("source")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	results, err := h.Store.GetFunnel(ctx, start, end, source)
	if err != nil {
		log.Printf("Error getting funnel for source %q: %v", source, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve funnel statistics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"startDate": start.Format(time.RFC3339),
		"endDate":   end.Format(time.RFC3339),
		"source":    source,
		"steps":     results,
	})
}
