package models

import "time"

// TrafficSource is the coarse acquisition channel of a session.
type TrafficSource string

const (
	SourceDirect   TrafficSource = "DIRECT"
	SourceOrganic  TrafficSource = "ORGANIC"
	SourceFacebook TrafficSource = "FACEBOOK"
	SourceTikTok   TrafficSource = "TIKTOK"
	SourceGoogle   TrafficSource = "GOOGLE"
	SourceOther    TrafficSource = "OTHER"
)

// AttributionSnapshot holds the marketing parameters seen when a session began.
// Empty strings mean the parameter was absent.
type AttributionSnapshot struct {
	Source      TrafficSource `json:"source"`
	UTMSource   string        `json:"utmSource,omitempty"`
	UTMMedium   string        `json:"utmMedium,omitempty"`
	UTMCampaign string        `json:"utmCampaign,omitempty"`
	UTMContent  string        `json:"utmContent,omitempty"`
	FBClID      string        `json:"fbclid,omitempty"`
	TTClID      string        `json:"ttclid,omitempty"`
	GClID       string        `json:"gclid,omitempty"`
	CapturedAt  time.Time     `json:"capturedAt"`
}
