// Package sink delivers stamped tracking events downstream. Every sink is
// best effort: no retries, no durability.
package sink

import "errors"

// ErrSinkUnavailable is returned when an event could not be accepted for delivery.
var ErrSinkUnavailable = errors.New("analytics sink unavailable")
