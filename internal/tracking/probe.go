// Package tracking runs the continuous capture loop shared by the camera
// engines: device probing, per-frame sampling, and frame debouncing.
package tracking

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	// ErrNoDevice means no probed device produced readable frames.
	ErrNoDevice = errors.New("no usable capture device")
	// ErrDeviceLost means the adopted device stopped producing frames.
	ErrDeviceLost = errors.New("capture device lost")
	// ErrClosed is returned by Start after Stop.
	ErrClosed = errors.New("tracking loop closed")
)

// Source is an opened device that turns one frame into one observation.
// A frame without anything to observe is not an error; Sample returns the
// zero-information value for T instead.
type Source[T any] interface {
	Sample(ctx context.Context) (T, error)
	Close() error
}

// Opener opens the device at a probe index.
type Opener[T any] func(index int) (Source[T], error)

// ProbeConfig controls device adoption.
type ProbeConfig struct {
	Indices []int
	Reads   int
	Need    int
}

// DefaultProbeConfig tries indices 0, 1, 2 and adopts a device once three of
// five test reads succeed.
func DefaultProbeConfig() ProbeConfig {
	return ProbeConfig{Indices: []int{0, 1, 2}, Reads: 5, Need: 3}
}

// Probe opens the first device in cfg.Indices that passes the read test.
// Rejected devices are closed.
func Probe[T any](ctx context.Context, open Opener[T], cfg ProbeConfig, logger *zap.Logger) (Source[T], int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var errs []error
	for _, idx := range cfg.Indices {
		if err := ctx.Err(); err != nil {
			return nil, -1, err
		}

		src, err := open(idx)
		if err != nil {
			logger.Warn("device open failed", zap.Int("index", idx), zap.Error(err))
			errs = append(errs, fmt.Errorf("device %d: %w", idx, err))
			continue
		}

		good := 0
		for i := 0; i < cfg.Reads && ctx.Err() == nil; i++ {
			if _, err := src.Sample(ctx); err == nil {
				good++
			}
		}
		if good >= cfg.Need {
			logger.Info("device adopted", zap.Int("index", idx), zap.Int("good_reads", good))
			return src, idx, nil
		}

		logger.Warn("device rejected", zap.Int("index", idx), zap.Int("good_reads", good), zap.Int("reads", cfg.Reads))
		errs = append(errs, fmt.Errorf("device %d: %d/%d reads", idx, good, cfg.Reads))
		if err := src.Close(); err != nil {
			logger.Debug("close rejected device", zap.Error(err))
		}
	}
	if len(errs) == 0 {
		return nil, -1, ErrNoDevice
	}
	return nil, -1, fmt.Errorf("%w: %w", ErrNoDevice, errors.Join(errs...))
}
