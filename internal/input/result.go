// Package input defines the contract shared by every answer engine: the
// Result an engine produces, the render target it draws on, and the polling
// loop that drives it.
package input

import (
	"fmt"

	"stroop/internal/catalog"
)

// Reason explains why an engine produced no selection.
type Reason int

const (
	// None is the reason carried by a successful result.
	None Reason = iota
	// Timeout means nothing usable arrived within the attempt window.
	Timeout
	// RecognitionFailed means a backend ran but produced no usable signal.
	RecognitionFailed
	// NoMatch means a signal was obtained but names no catalog entry.
	NoMatch
	// DeviceUnavailable means no capture device could be opened.
	DeviceUnavailable
	// Cancelled means the subject quit.
	Cancelled
)

var reasonNames = map[Reason]string{
	None:              "none",
	Timeout:           "timeout",
	RecognitionFailed: "recognition_failed",
	NoMatch:           "no_match",
	DeviceUnavailable: "device_unavailable",
	Cancelled:         "cancelled",
}

func (r Reason) String() string {
	if s, ok := reasonNames[r]; ok {
		return s
	}
	return fmt.Sprintf("reason(%d)", int(r))
}

// Result is the single outcome of one GetInput call: either a catalog index
// or a failure reason, never both.
type Result struct {
	index  int
	reason Reason
	detail string
}

// Success returns a result selecting catalog index i.
func Success(i int) Result {
	return Result{index: i, reason: None}
}

// Failure returns a result carrying reason. detail is for logs only.
func Failure(reason Reason, detail string) Result {
	if reason == None {
		reason = RecognitionFailed
	}
	return Result{index: -1, reason: reason, detail: detail}
}

// Succeed returns Success(i) if i addresses an entry of cat and
// Failure(NoMatch) otherwise.
func Succeed(cat catalog.Catalog, i int) Result {
	if !cat.Valid(i) {
		return Failure(NoMatch, fmt.Sprintf("index %d outside catalog of %d", i, cat.Len()))
	}
	return Success(i)
}

// OK reports whether the result selects an entry.
func (r Result) OK() bool { return r.reason == None }

// Index returns the selected index when OK.
func (r Result) Index() (int, bool) {
	if r.reason != None {
		return -1, false
	}
	return r.index, true
}

// Reason returns the failure reason, or None on success.
func (r Result) Reason() Reason { return r.reason }

// Detail returns the diagnostic detail of a failure.
func (r Result) Detail() string { return r.detail }

func (r Result) String() string {
	if r.OK() {
		return fmt.Sprintf("success(%d)", r.index)
	}
	if r.detail == "" {
		return fmt.Sprintf("failure(%s)", r.reason)
	}
	return fmt.Sprintf("failure(%s: %s)", r.reason, r.detail)
}
