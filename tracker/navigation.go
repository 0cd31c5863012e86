package tracker

import (
	"sync"

	"bookingtrack/api/models"
)

// NavigationTracker emits one page_visit per actual navigation. It remembers
// only the last emitted path, for its own lifetime; a change of query string
// alone is the same logical page and emits nothing.
type NavigationTracker struct {
	engine *Engine

	mu       sync.Mutex
	lastPath string
	seen     bool
}

// OnNavigationChanged refreshes the session (capturing attribution from
// rawQuery when a new session starts) and emits a page_visit for path.
// It reports whether an event was emitted.
func (n *NavigationTracker) OnNavigationChanged(path, rawQuery string) bool {
	if path == "" {
		path = "/"
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.seen && n.lastPath == path {
		return false
	}

	e := n.engine
	e.state.mu.Lock()
	now := e.state.now()
	e.sessions.getOrRefresh(now, ParseQuery(rawQuery))
	event := e.dispatcher.build(now, models.EventPageVisit, Attributes{Path: path})
	e.state.mu.Unlock()

	e.dispatcher.send(event)
	n.lastPath, n.seen = path, true
	return true
}

// LastPath returns the last path a page_visit was emitted for.
func (n *NavigationTracker) LastPath() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastPath, n.seen
}
