package utils

import (
	"fmt"
	"time"
)

func IsValidInterval(interval string) bool {
	switch interval {
	case "Minute", "Hour", "Day", "Week", "Month", "Quarter", "Year":
		return true
	default:
		return false
	}
}

// ParseTimeOrDefault parses an RFC3339 query value, returning def when it is empty.
func ParseTimeOrDefault(value string, def time.Time) (time.Time, error) {
	if value == "" {
		return def, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q, use RFC3339 (e.g., 2006-01-02T15:04:05Z): %w", value, err)
	}
	return t, nil
}
