package gesture

import "time"

// Confirmer is the hold-confirmation state machine:
// no gesture -> candidate(value, since) -> confirmed once the same value has
// been held for the hold duration. Any change restarts the candidate.
type Confirmer struct {
	hold      time.Duration
	candidate int
	since     time.Time
	active    bool
}

// NewConfirmer returns a confirmer in the no-gesture state.
func NewConfirmer(hold time.Duration) *Confirmer {
	return &Confirmer{hold: hold}
}

// Observe feeds the current debounced selection. It returns true once v has
// been held for the hold duration.
func (c *Confirmer) Observe(v int, now time.Time) bool {
	if !c.active || v != c.candidate {
		c.candidate, c.since, c.active = v, now, true
	}
	return now.Sub(c.since) >= c.hold
}

// Clear returns to the no-gesture state.
func (c *Confirmer) Clear() {
	c.active = false
}

// Candidate returns the value being held, if any.
func (c *Confirmer) Candidate() (int, bool) {
	return c.candidate, c.active
}

// Progress returns the held fraction of the hold duration in [0,1].
func (c *Confirmer) Progress(now time.Time) float64 {
	if !c.active {
		return 0
	}
	if c.hold <= 0 {
		return 1
	}
	return min(1, float64(now.Sub(c.since))/float64(c.hold))
}
