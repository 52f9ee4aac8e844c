// Package keys answers with a single keystroke.
package keys

import (
	"context"
	"time"
	"unicode"

	"go.uber.org/zap"

	"stroop/internal/catalog"
	"stroop/internal/input"
)

// Map translates a key to a catalog index.
type Map map[rune]int

// DefaultMap binds r g b y p o u and 1-7 to indices 0-6.
func DefaultMap() Map {
	m := make(Map, 14)
	for i, r := range "rgbypou" {
		m[r] = i
	}
	for i, r := range "1234567" {
		m[r] = i
	}
	return m
}

// Lookup returns the index for r if it fits a catalog of the given size.
// Letters are case-insensitive.
func (m Map) Lookup(r rune, size int) (int, bool) {
	idx, ok := m[unicode.ToLower(r)]
	if !ok || idx >= size {
		return -1, false
	}
	return idx, true
}

// Hint returns the first key bound to each of the first n indices.
func (m Map) Hint(n int) []rune {
	out := make([]rune, n)
	for r, idx := range m {
		if idx >= n {
			continue
		}
		// Prefer letters over digits, then the smaller rune.
		cur := out[idx]
		if cur == 0 || (unicode.IsLetter(r) && !unicode.IsLetter(cur)) ||
			(unicode.IsLetter(r) == unicode.IsLetter(cur) && r < cur) {
			out[idx] = r
		}
	}
	return out
}

// Engine is the keystroke input engine.
type Engine struct {
	keys     Map
	timeout  time.Duration
	interval time.Duration
	logger   *zap.Logger
}

// New creates the engine; a nil map uses DefaultMap.
func New(m Map, timeout time.Duration, logger *zap.Logger) *Engine {
	if m == nil {
		m = DefaultMap()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{keys: m, timeout: timeout, interval: 20 * time.Millisecond, logger: logger.Named("keys")}
}

// GetInput waits for a mapped key press.
func (e *Engine) GetInput(ctx context.Context, cat catalog.Catalog, target input.RenderTarget, ui input.Strings) input.Result {
	deadline := time.Now().Add(e.timeout)
	hint := string(e.keys.Hint(cat.Len()))

	return input.RunLoop(ctx, target, deadline, e.interval, func(now time.Time, events []input.Event) (input.Result, bool) {
		for _, ev := range events {
			if ev.Kind != input.EventKey {
				continue
			}
			if idx, ok := e.keys.Lookup(ev.Rune, cat.Len()); ok {
				e.logger.Debug("key pressed", zap.String("key", string(ev.Rune)), zap.Int("index", idx))
				return input.Succeed(cat, idx), true
			}
		}

		target.Render(input.Status{
			Phase:     input.PhaseWaiting,
			Message:   ui.T("press_key"),
			Detail:    hint,
			Remaining: deadline.Sub(now),
			Progress:  -1,
			Highlight: -1,
		})
		return input.Result{}, false
	})
}

// Cleanup is a no-op; the engine holds no resources.
func (e *Engine) Cleanup() {}
