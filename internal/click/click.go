// Package click answers by clicking one of the on-screen color buttons.
package click

import (
	"context"
	"image"
	"time"

	"go.uber.org/zap"

	"stroop/internal/catalog"
	"stroop/internal/input"
)

const (
	perRow    = 3
	gap       = 2
	btnHeight = 3
	maxWidth  = 20
)

// Layout places the catalog's buttons three per row in the lower half of a
// w x h screen, centered horizontally.
func Layout(cat catalog.Catalog, w, h int) []input.Button {
	n := cat.Len()
	if n == 0 || w <= 0 || h <= 0 {
		return nil
	}

	cols := min(perRow, n)
	width := min(maxWidth, (w-gap*(cols+1))/cols)
	if width < 1 {
		width = 1
	}
	rowWidth := cols*width + (cols-1)*gap
	left := max(0, (w-rowWidth)/2)
	top := h/2 + 2

	buttons := make([]input.Button, 0, n)
	for i, e := range cat.Entries() {
		row, col := i/perRow, i%perRow
		x := left + col*(width+gap)
		y := top + row*(btnHeight+1)
		buttons = append(buttons, input.Button{
			Rect:  image.Rect(x, y, x+width, y+btnHeight),
			Index: i,
			Label: e.Name,
			RGB:   e.RGB,
		})
	}
	return buttons
}

// Hit returns the button index under (x, y).
func Hit(buttons []input.Button, x, y int) (int, bool) {
	p := image.Pt(x, y)
	for _, b := range buttons {
		if p.In(b.Rect) {
			return b.Index, true
		}
	}
	return -1, false
}

// Engine is the pointer input engine.
type Engine struct {
	timeout  time.Duration
	interval time.Duration
	logger   *zap.Logger
}

// New creates the engine.
func New(timeout time.Duration, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{timeout: timeout, interval: 20 * time.Millisecond, logger: logger.Named("click")}
}

// GetInput waits for a click inside a button.
func (e *Engine) GetInput(ctx context.Context, cat catalog.Catalog, target input.RenderTarget, ui input.Strings) input.Result {
	deadline := time.Now().Add(e.timeout)
	return input.RunLoop(ctx, target, deadline, e.interval, func(now time.Time, events []input.Event) (input.Result, bool) {
		w, h := target.Size()
		buttons := Layout(cat, w, h)
		for _, ev := range events {
			if ev.Kind != input.EventClick {
				continue
			}
			if idx, ok := Hit(buttons, ev.X, ev.Y); ok {
				e.logger.Debug("button clicked", zap.Int("index", idx))
				return input.Succeed(cat, idx), true
			}
		}

		target.Render(input.Status{
			Phase:     input.PhaseWaiting,
			Message:   ui.T("click_color"),
			Remaining: deadline.Sub(now),
			Progress:  -1,
			Highlight: -1,
			Buttons:   buttons,
		})
		return input.Result{}, false
	})
}

// Cleanup is a no-op; the engine holds no resources.
func (e *Engine) Cleanup() {}
