// Package gesture selects a catalog color by the number of raised fingers.
// A background tracking loop debounces the per-frame count; a hold
// confirmation on top of it turns a steady count into an answer.
package gesture

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"stroop/internal/catalog"
	"stroop/internal/input"
	"stroop/internal/tracking"
	"stroop/internal/vision"
)

// HandReader yields hand landmarks per frame.
type HandReader interface {
	ReadHand(ctx context.Context) (vision.Hand, bool, error)
	Close() error
}

// Opener opens the camera at a probe index.
type Opener func(index int) (HandReader, error)

// Config tunes the engine.
type Config struct {
	Tracking     tracking.Config
	Hold         time.Duration
	Timeout      time.Duration
	PollInterval time.Duration
	StopTimeout  time.Duration
	// Release frees what every opened reader shares, such as the hand
	// tracker. It runs once, after the tracking goroutine has exited.
	Release func() error
}

// DefaultConfig returns the tuned defaults: 10 stable frames, 1.5s hold.
func DefaultConfig() Config {
	return Config{
		Tracking:     tracking.DefaultConfig(10),
		Hold:         1500 * time.Millisecond,
		Timeout:      15 * time.Second,
		PollInterval: 50 * time.Millisecond,
		StopTimeout:  2 * time.Second,
	}
}

// Engine is the gesture input engine.
type Engine struct {
	cfg     Config
	loop    *tracking.Loop[int]
	logger  *zap.Logger
	cleanup sync.Once
}

// New creates the engine. The camera is opened on the first GetInput.
func New(cfg Config, open Opener, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("gesture")
	return &Engine{
		cfg:    cfg,
		loop:   tracking.NewLoop(cfg.Tracking, fingerOpener(open), logger),
		logger: logger,
	}
}

// noHand is the observation for frames without a hand.
const noHand = 0

type fingerSource struct {
	r HandReader
}

func (s fingerSource) Sample(ctx context.Context) (int, error) {
	hand, ok, err := s.r.ReadHand(ctx)
	if err != nil {
		return noHand, err
	}
	if !ok {
		return noHand, nil
	}
	return vision.CountFingers(hand), nil
}

func (s fingerSource) Close() error { return s.r.Close() }

func fingerOpener(open Opener) tracking.Opener[int] {
	return func(index int) (tracking.Source[int], error) {
		r, err := open(index)
		if err != nil {
			return nil, err
		}
		return fingerSource{r: r}, nil
	}
}

// GetInput waits for a finger count held steady for the hold duration.
func (e *Engine) GetInput(ctx context.Context, cat catalog.Catalog, target input.RenderTarget, ui input.Strings) input.Result {
	if err := e.loop.Start(ctx); err != nil {
		if ctx.Err() != nil {
			return input.Failure(input.Cancelled, ctx.Err().Error())
		}
		return input.Failure(input.DeviceUnavailable, err.Error())
	}
	e.loop.Reset()

	conf := NewConfirmer(e.cfg.Hold)
	deadline := time.Now().Add(e.cfg.Timeout)

	return input.RunLoop(ctx, target, deadline, e.cfg.PollInterval, func(now time.Time, _ []input.Event) (input.Result, bool) {
		st := e.loop.State()
		if st.Err != nil {
			e.logger.Warn("camera unavailable", zap.Error(st.Err))
			return input.Failure(input.DeviceUnavailable, st.Err.Error()), true
		}

		idx, ok := -1, false
		if st.HasStable {
			idx, ok = vision.FingersToIndex(st.Stable, cat.Len())
		}
		if !ok {
			conf.Clear()
		} else if conf.Observe(idx, now) {
			e.logger.Debug("gesture confirmed", zap.Int("fingers", st.Stable))
			return input.Succeed(cat, idx), true
		}

		target.Render(e.status(st, idx, conf.Progress(now), deadline.Sub(now), ui))
		return input.Result{}, false
	})
}

func (e *Engine) status(st tracking.State[int], idx int, progress float64, remaining time.Duration, ui input.Strings) input.Status {
	s := input.Status{
		Phase:     input.PhaseTracking,
		Message:   ui.T("show_fingers"),
		Detail:    ui.T("fingers") + ": " + strconv.Itoa(st.Raw),
		Remaining: remaining,
		Progress:  -1,
		Highlight: idx,
	}
	if idx >= 0 {
		s.Phase = input.PhaseConfirming
		s.Progress = progress
	}
	return s
}

// Cleanup stops the tracking loop and releases the camera. When the loop
// goroutine is stuck in a read, Release waits for it in the background.
func (e *Engine) Cleanup() {
	e.cleanup.Do(func() {
		if e.loop.Stop(e.cfg.StopTimeout) {
			e.release()
			return
		}
		done := e.loop.Done()
		go func() {
			<-done
			e.release()
		}()
	})
}

func (e *Engine) release() {
	if e.cfg.Release == nil {
		return
	}
	if err := e.cfg.Release(); err != nil {
		e.logger.Warn("release hand tracker", zap.Error(err))
	}
}
