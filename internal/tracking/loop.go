package tracking

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"stroop/internal/stability"
)

// Config tunes a Loop.
type Config struct {
	Probe ProbeConfig
	// StableFrames is N for the frame debouncer.
	StableFrames int
	// MaxFailures consecutive read errors end the loop with ErrDeviceLost.
	MaxFailures int
	// Interval is the pause between samples; zero samples back to back.
	Interval time.Duration
}

// DefaultConfig returns the probing defaults with the given N.
func DefaultConfig(stableFrames int) Config {
	return Config{
		Probe:        DefaultProbeConfig(),
		StableFrames: stableFrames,
		MaxFailures:  20,
	}
}

// State is a snapshot of the loop.
type State[T comparable] struct {
	// Raw is the latest observation.
	Raw T
	// Stable is the debounced value; valid only when HasStable.
	Stable    T
	HasStable bool
	// Run is the current run length of Raw.
	Run int
	// Probing is true until a device is adopted or probing fails.
	Probing bool
	// Err is set once the loop has ended because no device was adopted or
	// the device failed.
	Err error
}

// Loop owns one capture device and keeps a debounced observation current.
// It starts lazily, survives across GetInput calls, and is stopped once by
// the engine's Cleanup.
type Loop[T comparable] struct {
	cfg    Config
	open   Opener[T]
	logger *zap.Logger

	mu      sync.Mutex
	filter  *stability.Filter[T]
	state   State[T]
	running bool
	closed  bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewLoop creates a loop; nothing is opened until Start.
func NewLoop[T comparable](cfg Config, open Opener[T], logger *zap.Logger) *Loop[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFailures < 1 {
		cfg.MaxFailures = 1
	}
	return &Loop[T]{
		cfg:    cfg,
		open:   open,
		logger: logger.Named("tracking"),
		filter: stability.NewFilter[T](cfg.StableFrames),
	}
}

// Start launches the goroutine that probes for a device and then samples
// it. It returns at once so the caller keeps polling for quit while probing
// runs; the outcome shows up in State. It is a no-op while the loop runs.
// After probing failed or the device was lost Start probes again.
func (l *Loop[T]) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}
	if l.running {
		return nil
	}

	if l.cancel != nil {
		l.cancel()
	}
	runCtx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.done = make(chan struct{})
	l.running = true
	l.state = State[T]{Probing: true}
	l.filter.Reset()

	go l.run(runCtx, l.done)
	return nil
}

// end records why the goroutine stopped.
func (l *Loop[T]) end(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.Probing = false
	l.state.Err = err
	l.running = false
}

func (l *Loop[T]) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	src, idx, err := Probe(ctx, l.open, l.cfg.Probe, l.logger)
	if err != nil {
		l.end(err)
		return
	}
	defer func() {
		if err := src.Close(); err != nil {
			l.logger.Debug("close device", zap.Error(err))
		}
	}()

	l.mu.Lock()
	l.state.Probing = false
	l.mu.Unlock()
	l.logger.Debug("loop started", zap.Int("index", idx))

	failures := 0
	for ctx.Err() == nil {
		v, err := src.Sample(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			failures++
			if failures >= l.cfg.MaxFailures {
				l.logger.Warn("device lost", zap.Int("failures", failures), zap.Error(err))
				l.end(ErrDeviceLost)
				return
			}
		} else {
			failures = 0
			l.mu.Lock()
			stable, ok := l.filter.Observe(v)
			l.state.Raw = v
			l.state.Run = l.filter.Run()
			if ok {
				l.state.Stable, l.state.HasStable = stable, true
			}
			l.mu.Unlock()
		}

		if l.cfg.Interval > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(l.cfg.Interval):
			}
		}
	}
}

// State returns the current snapshot.
func (l *Loop[T]) State() State[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Reset forgets the debounced value so a new question starts clean.
func (l *Loop[T]) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.filter.Reset()
	l.state = State[T]{Probing: l.state.Probing, Err: l.state.Err}
}

// Stop ends the loop and waits up to timeout for the goroutine. It reports
// whether the goroutine finished; if not, it is abandoned and releases the
// device when its current read returns.
func (l *Loop[T]) Stop(timeout time.Duration) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return true
	}
	l.closed = true
	cancel, done := l.cancel, l.done
	l.mu.Unlock()

	if cancel == nil {
		return true
	}
	cancel()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		l.logger.Warn("tracking goroutine did not stop, abandoning it", zap.Duration("timeout", timeout))
		return false
	}
}

// Done is closed once no goroutine of the loop is running. Owners of
// resources shared by every opened source release them after it.
func (l *Loop[T]) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	return l.done
}
