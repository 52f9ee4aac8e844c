package input

import (
	"context"
	"sync/atomic"

	"stroop/internal/catalog"
)

// Degrading runs a primary engine until it reports DeviceUnavailable, then
// asks the same question again through the backup and keeps using the backup
// for the rest of its life.
type Degrading struct {
	primary  Engine
	backup   Engine
	onSwitch func(Result)
	degraded atomic.Bool
}

// WithBackup wraps primary. onSwitch, when not nil, is called once with the
// primary's failure at the moment of the switch.
func WithBackup(primary, backup Engine, onSwitch func(Result)) *Degrading {
	return &Degrading{primary: primary, backup: backup, onSwitch: onSwitch}
}

// Degraded reports whether the backup has taken over.
func (d *Degrading) Degraded() bool { return d.degraded.Load() }

// GetInput implements Engine.
func (d *Degrading) GetInput(ctx context.Context, cat catalog.Catalog, target RenderTarget, ui Strings) Result {
	if !d.degraded.Load() {
		res := d.primary.GetInput(ctx, cat, target, ui)
		if res.Reason() != DeviceUnavailable {
			return res
		}
		d.degraded.Store(true)
		d.primary.Cleanup()
		if d.onSwitch != nil {
			d.onSwitch(res)
		}
	}
	return d.backup.GetInput(ctx, cat, target, ui)
}

// Cleanup implements Engine.
func (d *Degrading) Cleanup() {
	d.primary.Cleanup()
	d.backup.Cleanup()
}
