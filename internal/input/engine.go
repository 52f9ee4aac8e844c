package input

import (
	"context"
	"image"
	"time"

	"stroop/internal/catalog"
)

// Engine converts one subject answer into a Result.
//
// GetInput blocks until success, failure or cancellation and returns exactly
// once. Cancelling ctx is equivalent to a quit event. Engines are not
// reentrant: the caller must not run two GetInput calls on the same engine at
// once. Cleanup releases devices and background goroutines; it may be
// called more than once.
type Engine interface {
	GetInput(ctx context.Context, cat catalog.Catalog, target RenderTarget, ui Strings) Result
	Cleanup()
}

// Strings resolves localized UI text.
type Strings interface {
	T(key string) string
}

// RenderTarget is the screen an engine draws its progress on and the source
// of subject events.
type RenderTarget interface {
	// Size returns the drawable area in target units.
	Size() (width, height int)
	// Render replaces the engine's status area.
	Render(Status)
	// Poll drains events received since the previous call without blocking.
	Poll() []Event
}

// EventKind distinguishes events.
type EventKind int

const (
	EventQuit EventKind = iota
	EventKey
	EventClick
)

// Event is a subject action delivered by the render target.
type Event struct {
	Kind EventKind
	Rune rune // EventKey
	X, Y int  // EventClick
}

// Quit returns a quit event.
func Quit() Event { return Event{Kind: EventQuit} }

// Key returns a key press event.
func Key(r rune) Event { return Event{Kind: EventKey, Rune: r} }

// Click returns a primary button click at (x, y).
func Click(x, y int) Event { return Event{Kind: EventClick, X: x, Y: y} }

// HasQuit reports whether events contains a quit request.
func HasQuit(events []Event) bool {
	for _, ev := range events {
		if ev.Kind == EventQuit {
			return true
		}
	}
	return false
}

// Phase is the coarse engine state shown to the subject.
type Phase int

const (
	PhaseWaiting Phase = iota
	PhaseGetReady
	PhaseRecording
	PhaseProcessing
	PhaseTracking
	PhaseConfirming
)

// Button is a clickable answer area.
type Button struct {
	Rect  image.Rectangle
	Index int
	Label string
	RGB   [3]uint8
}

// Status is what an engine wants the subject to see right now.
type Status struct {
	Phase     Phase
	Message   string
	Detail    string
	Remaining time.Duration
	// Progress in [0,1]; negative hides the bar.
	Progress float64
	// Highlight is the candidate catalog index, or -1.
	Highlight int
	Buttons   []Button
}

// StepFunc advances an engine by one polling iteration. It returns done=true
// together with the final result.
type StepFunc func(now time.Time, events []Event) (Result, bool)

// RunLoop is the sleep-paced polling loop shared by engines. Each iteration
// checks cancellation, then the deadline, then calls step.
func RunLoop(ctx context.Context, target RenderTarget, deadline time.Time, interval time.Duration, step StepFunc) Result {
	for {
		if err := ctx.Err(); err != nil {
			return Failure(Cancelled, err.Error())
		}
		events := target.Poll()
		if HasQuit(events) {
			return Failure(Cancelled, "quit requested")
		}

		now := time.Now()
		if !now.Before(deadline) {
			return Failure(Timeout, "attempt window elapsed")
		}
		if res, done := step(now, events); done {
			return res
		}

		select {
		case <-ctx.Done():
			return Failure(Cancelled, ctx.Err().Error())
		case <-time.After(interval):
		}
	}
}
