package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"bookingtrack/api/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		query string
		want  models.TrafficSource
	}{
		{"", models.SourceDirect},
		{"ref=home", models.SourceDirect},
		{"fbclid=abc&utm_source=google", models.SourceFacebook},
		{"ttclid=t1&utm_source=facebook", models.SourceTikTok},
		{"gclid=g1", models.SourceGoogle},
		{"fbclid=f1&gclid=g1", models.SourceFacebook},
		{"utm_source=google", models.SourceGoogle},
		{"utm_source=FB", models.SourceFacebook},
		{"utm_source=facebook&utm_medium=cpc", models.SourceFacebook},
		{"utm_source=TikTok", models.SourceTikTok},
		{"utm_source=newsletter", models.SourceOther},
		{"utm_source=google&utm_medium=organic", models.SourceGoogle},
		{"utm_source=facebook&utm_medium=seo", models.SourceFacebook},
		{"utm_source=bing&utm_medium=organic", models.SourceOther},
		{"utm_medium=seo", models.SourceOrganic},
		{"utm_medium=Organic&utm_campaign=spring", models.SourceOrganic},
		{"utm_campaign=spring", models.SourceOther},
		{"utm_source=", models.SourceDirect},
		{"gclid=g1&utm_medium=organic", models.SourceGoogle},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(ParseQuery(tt.query)).Source)
		})
	}
}

func TestClassifyKeepsParameters(t *testing.T) {
	snap := Classify(ParseQuery("?utm_source=google&utm_medium=cpc&utm_campaign=brand&utm_content=ad1&gclid=xyz"))

	assert.Equal(t, models.SourceGoogle, snap.Source)
	assert.Equal(t, "google", snap.UTMSource)
	assert.Equal(t, "cpc", snap.UTMMedium)
	assert.Equal(t, "brand", snap.UTMCampaign)
	assert.Equal(t, "ad1", snap.UTMContent)
	assert.Equal(t, "xyz", snap.GClID)
	assert.Empty(t, snap.FBClID)
}

func TestClassifyNilQuery(t *testing.T) {
	assert.Equal(t, models.SourceDirect, Classify(nil).Source)
}

func TestParseQueryToleratesGarbage(t *testing.T) {
	q := ParseQuery("?fbclid=abc&bad=%zz&utm_source=fb")
	assert.Equal(t, "abc", q.Get("fbclid"))
	assert.Equal(t, "fb", q.Get("utm_source"))

	assert.Empty(t, ParseQuery("").Get("fbclid"))
	assert.Empty(t, ParseQuery("?").Get("fbclid"))
}

func TestCaptureIfNewIsFirstTouchPerSession(t *testing.T) {
	e := newTestEngine(t, time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	now := e.clock.Now()

	first := e.Attribution().CaptureIfNew("s-1", ParseQuery("fbclid=abc"), now)
	second := e.Attribution().CaptureIfNew("s-1", ParseQuery("utm_source=google"), now.Add(time.Minute))

	assert.Equal(t, first, second)
	assert.Equal(t, models.SourceFacebook, second.Source)
	assert.True(t, second.CapturedAt.Equal(now))

	other := e.Attribution().CaptureIfNew("s-2", ParseQuery("utm_source=google"), now.Add(time.Hour))
	assert.Equal(t, models.SourceGoogle, other.Source)

	_, ok := e.Attribution().Current("s-1")
	assert.False(t, ok, "snapshot of a superseded session is gone")
}
