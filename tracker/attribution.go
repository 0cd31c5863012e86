package tracker

import (
	"net/url"
	"strings"
	"time"

	"bookingtrack/api/models"
)

// Recognized query parameters.
const (
	ParamUTMSource   = "utm_source"
	ParamUTMMedium   = "utm_medium"
	ParamUTMCampaign = "utm_campaign"
	ParamUTMContent  = "utm_content"
	ParamFBClID      = "fbclid"
	ParamTTClID      = "ttclid"
	ParamGClID       = "gclid"
)

type storedAttribution struct {
	SessionID string                     `json:"sessionId"`
	Snapshot  models.AttributionSnapshot `json:"snapshot"`
}

// AttributionCapture records the first-touch marketing parameters of each session.
type AttributionCapture struct {
	state *State
}

// CaptureIfNew returns the snapshot already bound to sessionID, or classifies
// query and binds the result to it. A live session's snapshot is never replaced.
func (a *AttributionCapture) CaptureIfNew(sessionID string, query url.Values, now time.Time) models.AttributionSnapshot {
	a.state.mu.Lock()
	defer a.state.mu.Unlock()
	return a.capture(sessionID, query, now)
}

// Current returns the snapshot bound to sessionID, if any.
func (a *AttributionCapture) Current(sessionID string) (models.AttributionSnapshot, bool) {
	a.state.mu.Lock()
	defer a.state.mu.Unlock()
	return a.load(sessionID)
}

func (a *AttributionCapture) capture(sessionID string, query url.Values, now time.Time) models.AttributionSnapshot {
	if snap, ok := a.load(sessionID); ok {
		return snap
	}
	snap := Classify(query)
	snap.CapturedAt = now
	a.state.writeJSON(attributionKey, storedAttribution{SessionID: sessionID, Snapshot: snap})
	return snap
}

func (a *AttributionCapture) load(sessionID string) (models.AttributionSnapshot, bool) {
	var rec storedAttribution
	if !a.state.readJSON(attributionKey, &rec) || rec.SessionID != sessionID || rec.Snapshot.Source == "" {
		return models.AttributionSnapshot{}, false
	}
	return rec.Snapshot, true
}

// Classify extracts the recognized parameters from query and assigns a traffic
// source. Click identifiers win over utm_source because they cannot be typed in
// by hand; utm_source wins over utm_medium.
func Classify(query url.Values) models.AttributionSnapshot {
	snap := models.AttributionSnapshot{
		UTMSource:   param(query, ParamUTMSource),
		UTMMedium:   param(query, ParamUTMMedium),
		UTMCampaign: param(query, ParamUTMCampaign),
		UTMContent:  param(query, ParamUTMContent),
		FBClID:      param(query, ParamFBClID),
		TTClID:      param(query, ParamTTClID),
		GClID:       param(query, ParamGClID),
	}

	switch {
	case snap.FBClID != "":
		snap.Source = models.SourceFacebook
	case snap.TTClID != "":
		snap.Source = models.SourceTikTok
	case snap.GClID != "":
		snap.Source = models.SourceGoogle
	case snap.UTMSource != "":
		snap.Source = sourceFromUTM(snap.UTMSource)
	case isOrganicMedium(snap.UTMMedium):
		snap.Source = models.SourceOrganic
	case snap.UTMMedium != "" || snap.UTMCampaign != "" || snap.UTMContent != "":
		snap.Source = models.SourceOther
	default:
		snap.Source = models.SourceDirect
	}
	return snap
}

// ParseQuery accepts a raw query with or without the leading '?'. Malformed
// pairs are dropped; whatever parsed cleanly is kept.
func ParseQuery(raw string) url.Values {
	raw = strings.TrimPrefix(raw, "?")
	if raw == "" {
		return url.Values{}
	}
	values, _ := url.ParseQuery(raw)
	if values == nil {
		return url.Values{}
	}
	return values
}

func sourceFromUTM(source string) models.TrafficSource {
	switch strings.ToLower(source) {
	case "google":
		return models.SourceGoogle
	case "facebook", "fb":
		return models.SourceFacebook
	case "tiktok":
		return models.SourceTikTok
	default:
		return models.SourceOther
	}
}

func isOrganicMedium(medium string) bool {
	switch strings.ToLower(medium) {
	case "organic", "seo":
		return true
	default:
		return false
	}
}

func param(query url.Values, name string) string {
	if query == nil {
		return ""
	}
	return strings.TrimSpace(query.Get(name))
}
