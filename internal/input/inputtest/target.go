// Package inputtest provides fakes for exercising input engines.
package inputtest

import (
	"sync"

	"stroop/internal/input"
)

// Target is a RenderTarget that records statuses and replays queued events.
type Target struct {
	mu       sync.Mutex
	width    int
	height   int
	statuses []input.Status
	pending  []input.Event
	scripted map[int][]input.Event
	polls    int
}

// NewTarget returns a target of the given size.
func NewTarget(width, height int) *Target {
	return &Target{width: width, height: height, scripted: make(map[int][]input.Event)}
}

// Size implements input.RenderTarget.
func (t *Target) Size() (int, int) { return t.width, t.height }

// Render implements input.RenderTarget.
func (t *Target) Render(s input.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.statuses = append(t.statuses, s)
}

// Poll implements input.RenderTarget.
func (t *Target) Poll() []input.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.polls++
	events := append(t.pending, t.scripted[t.polls]...)
	t.pending = nil
	return events
}

// Push queues events for the next Poll.
func (t *Target) Push(events ...input.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = append(t.pending, events...)
}

// At queues events for the n-th Poll call (1-based).
func (t *Target) At(n int, events ...input.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scripted[n] = append(t.scripted[n], events...)
}

// Statuses returns everything rendered so far.
func (t *Target) Statuses() []input.Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]input.Status, len(t.statuses))
	copy(out, t.statuses)
	return out
}

// Phases returns the distinct phases rendered, in order of first appearance.
func (t *Target) Phases() []input.Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []input.Phase
	for _, s := range t.statuses {
		if len(out) == 0 || out[len(out)-1] != s.Phase {
			out = append(out, s.Phase)
		}
	}
	return out
}

// Strings echoes keys back as text.
type Strings struct{}

// T implements input.Strings.
func (Strings) T(key string) string { return key }
