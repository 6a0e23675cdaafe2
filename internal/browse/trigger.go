package browse

import "sync"

// ScrollTrigger turns sentinel visibility changes into page requests. Only a
// hidden-to-visible transition asks for the next page.
type ScrollTrigger struct {
	mu       sync.Mutex
	visible  bool
	loadMore func() bool
}

// NewScrollTrigger calls loadMore whenever the sentinel becomes visible.
// loadMore decides whether a page is actually requested.
func NewScrollTrigger(loadMore func() bool) *ScrollTrigger {
	return &ScrollTrigger{loadMore: loadMore}
}

// SetVisible records the sentinel visibility and reports whether the next
// page was requested as a result.
func (t *ScrollTrigger) SetVisible(visible bool) bool {
	t.mu.Lock()
	became := visible && !t.visible
	t.visible = visible
	t.mu.Unlock()

	if !became {
		return false
	}
	return t.loadMore()
}

// Rearm forgets the last visibility so the next visible report counts as a
// new edge. The list under the sentinel has been replaced or extended, so a
// sentinel still on screen should be able to ask for another page.
func (t *ScrollTrigger) Rearm() {
	t.mu.Lock()
	t.visible = false
	t.mu.Unlock()
}

// Visible reports the last known sentinel visibility.
func (t *ScrollTrigger) Visible() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.visible
}
