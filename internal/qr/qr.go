package qr

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"stroop/internal/catalog"
	"stroop/internal/input"
	"stroop/internal/tracking"
)

// Scanner decodes the QR code in the current camera frame, "" if none.
type Scanner interface {
	Scan(ctx context.Context) (string, error)
	Close() error
}

// Opener opens the camera at a probe index.
type Opener func(index int) (Scanner, error)

// Config tunes the engine.
type Config struct {
	Tracking     tracking.Config
	Timeout      time.Duration
	PollInterval time.Duration
	StopTimeout  time.Duration
}

// DefaultConfig accepts a code on the first frame it decodes.
func DefaultConfig() Config {
	return Config{
		Tracking:     tracking.DefaultConfig(1),
		Timeout:      10 * time.Second,
		PollInterval: 50 * time.Millisecond,
		StopTimeout:  2 * time.Second,
	}
}

// Engine is the QR input engine.
type Engine struct {
	cfg    Config
	store  *Store
	loop   *tracking.Loop[string]
	logger *zap.Logger
}

// New creates the engine over a validated store. The engine owns the store
// and closes it in Cleanup.
func New(cfg Config, store *Store, open Opener, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("qr")
	return &Engine{
		cfg:    cfg,
		store:  store,
		loop:   tracking.NewLoop(cfg.Tracking, scanOpener(open), logger),
		logger: logger,
	}
}

type scanSource struct {
	s Scanner
}

func (src scanSource) Sample(ctx context.Context) (string, error) { return src.s.Scan(ctx) }
func (src scanSource) Close() error                                { return src.s.Close() }

func scanOpener(open Opener) tracking.Opener[string] {
	return func(index int) (tracking.Source[string], error) {
		s, err := open(index)
		if err != nil {
			return nil, err
		}
		return scanSource{s: s}, nil
	}
}

// GetInput waits for a known code. Unknown payloads are ignored; a known
// code whose color is missing from the catalog is a NoMatch.
func (e *Engine) GetInput(ctx context.Context, cat catalog.Catalog, target input.RenderTarget, ui input.Strings) input.Result {
	if err := e.loop.Start(ctx); err != nil {
		if ctx.Err() != nil {
			return input.Failure(input.Cancelled, ctx.Err().Error())
		}
		return input.Failure(input.DeviceUnavailable, err.Error())
	}
	e.loop.Reset()

	var ignored string
	deadline := time.Now().Add(e.cfg.Timeout)
	return input.RunLoop(ctx, target, deadline, e.cfg.PollInterval, func(now time.Time, _ []input.Event) (input.Result, bool) {
		st := e.loop.State()
		if st.Err != nil {
			e.logger.Warn("camera unavailable", zap.Error(st.Err))
			return input.Failure(input.DeviceUnavailable, st.Err.Error()), true
		}

		if st.HasStable && st.Stable != "" {
			key, err := e.store.Table().Resolve(st.Stable)
			switch {
			case err == nil:
				idx, ok := cat.IndexOfKey(key)
				if !ok {
					return input.Failure(input.NoMatch, key), true
				}
				return input.Succeed(cat, idx), true
			case errors.Is(err, ErrUnknownPayload):
				if st.Stable != ignored {
					ignored = st.Stable
					e.logger.Debug("ignoring payload", zap.String("payload", st.Stable))
				}
			}
		}

		target.Render(input.Status{
			Phase:     input.PhaseTracking,
			Message:   ui.T("show_qr"),
			Remaining: deadline.Sub(now),
			Progress:  -1,
			Highlight: -1,
		})
		return input.Result{}, false
	})
}

// Cleanup stops the camera loop and the directory watch.
func (e *Engine) Cleanup() {
	e.loop.Stop(e.cfg.StopTimeout)
	if err := e.store.Close(); err != nil {
		e.logger.Warn("close reference watch", zap.Error(err))
	}
}
