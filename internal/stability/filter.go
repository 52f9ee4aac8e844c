// Package stability debounces noisy per-frame classifications.
package stability

// Filter reports a value once it has been observed for N consecutive frames.
// It counts frames, not time, so its latency depends on the frame rate.
// A Filter is not safe for concurrent use.
type Filter[T comparable] struct {
	n    int
	last T
	run  int
}

// NewFilter returns a filter requiring n consecutive observations. n < 1 is
// treated as 1.
func NewFilter[T comparable](n int) *Filter[T] {
	if n < 1 {
		n = 1
	}
	return &Filter[T]{n: n}
}

// Observe feeds one raw value. It returns the value and true once the current
// run has reached N; a different value starts a new run of length 1.
func (f *Filter[T]) Observe(v T) (T, bool) {
	if f.run > 0 && v == f.last {
		f.run++
	} else {
		f.last = v
		f.run = 1
	}
	if f.run >= f.n {
		return v, true
	}
	var zero T
	return zero, false
}

// Run returns the current run length.
func (f *Filter[T]) Run() int { return f.run }

// Threshold returns N.
func (f *Filter[T]) Threshold() int { return f.n }

// Reset forgets the current run.
func (f *Filter[T]) Reset() {
	var zero T
	f.last = zero
	f.run = 0
}
