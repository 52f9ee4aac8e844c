// Package swatch recognizes a colored object held up to the camera.
package swatch

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"stroop/internal/catalog"
	"stroop/internal/input"
	"stroop/internal/tracking"
	"stroop/internal/vision"
)

// FrameReader yields HSV frames.
type FrameReader interface {
	ReadHSV(ctx context.Context) (vision.HSVImage, error)
	Close() error
}

// Opener opens the camera at a probe index.
type Opener func(index int) (FrameReader, error)

// Config tunes the engine.
type Config struct {
	Tracking     tracking.Config
	Classifier   vision.Classifier
	Timeout      time.Duration
	PollInterval time.Duration
	StopTimeout  time.Duration
}

// DefaultConfig returns 8 stable frames and a 15s window.
func DefaultConfig() Config {
	return Config{
		Tracking:     tracking.DefaultConfig(8),
		Classifier:   vision.NewClassifier(),
		Timeout:      15 * time.Second,
		PollInterval: 50 * time.Millisecond,
		StopTimeout:  2 * time.Second,
	}
}

// Engine is the color swatch input engine.
type Engine struct {
	cfg    Config
	keys   atomic.Pointer[[]string]
	loop   *tracking.Loop[string]
	logger *zap.Logger
}

// New creates the engine. The camera is opened on the first GetInput.
func New(cfg Config, open Opener, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{cfg: cfg, logger: logger.Named("swatch")}
	e.keys.Store(&[]string{})
	e.loop = tracking.NewLoop(cfg.Tracking, e.opener(open), e.logger)
	return e
}

type colorSource struct {
	r FrameReader
	e *Engine
}

// Sample classifies the center of the frame; "" means no color.
func (s colorSource) Sample(ctx context.Context) (string, error) {
	img, err := s.r.ReadHSV(ctx)
	if err != nil {
		return "", err
	}
	key, _ := s.e.cfg.Classifier.Classify(img, vision.CenterROI(img.Width, img.Height), *s.e.keys.Load())
	return key, nil
}

func (s colorSource) Close() error { return s.r.Close() }

func (e *Engine) opener(open Opener) tracking.Opener[string] {
	return func(index int) (tracking.Source[string], error) {
		r, err := open(index)
		if err != nil {
			return nil, err
		}
		return colorSource{r: r, e: e}, nil
	}
}

// GetInput waits until one catalog color fills the center of the frame for
// enough consecutive frames.
func (e *Engine) GetInput(ctx context.Context, cat catalog.Catalog, target input.RenderTarget, ui input.Strings) input.Result {
	keys := cat.Keys()
	e.keys.Store(&keys)

	if err := e.loop.Start(ctx); err != nil {
		if ctx.Err() != nil {
			return input.Failure(input.Cancelled, ctx.Err().Error())
		}
		return input.Failure(input.DeviceUnavailable, err.Error())
	}
	e.loop.Reset()

	deadline := time.Now().Add(e.cfg.Timeout)
	return input.RunLoop(ctx, target, deadline, e.cfg.PollInterval, func(now time.Time, _ []input.Event) (input.Result, bool) {
		st := e.loop.State()
		if st.Err != nil {
			e.logger.Warn("camera unavailable", zap.Error(st.Err))
			return input.Failure(input.DeviceUnavailable, st.Err.Error()), true
		}
		if st.HasStable && st.Stable != "" {
			if idx, ok := cat.IndexOfKey(st.Stable); ok {
				e.logger.Debug("color confirmed", zap.String("key", st.Stable))
				return input.Succeed(cat, idx), true
			}
		}

		s := input.Status{
			Phase:     input.PhaseTracking,
			Message:   ui.T("show_color"),
			Remaining: deadline.Sub(now),
			Progress:  -1,
			Highlight: -1,
		}
		if st.Raw != "" {
			if idx, ok := cat.IndexOfKey(st.Raw); ok {
				s.Highlight = idx
				s.Detail = cat.Entry(idx).Name
				s.Progress = min(1, float64(st.Run)/float64(max(1, e.cfg.Tracking.StableFrames)))
			}
		}
		target.Render(s)
		return input.Result{}, false
	})
}

// Cleanup stops the tracking loop and releases the camera.
func (e *Engine) Cleanup() {
	e.loop.Stop(e.cfg.StopTimeout)
}
