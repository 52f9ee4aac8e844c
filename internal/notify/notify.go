// Package notify предоставляет системные уведомления.
package notify

import (
	"strings"
	"sync/atomic"

	"github.com/gen2brain/beeep"

	"stroop/internal/game"
	"stroop/internal/i18n"
)

const appName = "Stroop"

// Sender доставляет уведомление. По умолчанию beeep.Notify.
type Sender func(title, message, icon string) error

// Notifier отправляет системные уведомления.
type Notifier struct {
	enabled atomic.Bool
	ui      i18n.Table
	send    Sender
}

// New создаёт новый Notifier.
func New(enabled bool, ui i18n.Table) *Notifier {
	return NewWithSender(enabled, ui, beeep.Notify)
}

// NewWithSender создаёт Notifier с заданным способом доставки.
func NewWithSender(enabled bool, ui i18n.Table, send Sender) *Notifier {
	n := &Notifier{ui: ui, send: send}
	n.enabled.Store(enabled)
	return n
}

// SetEnabled включает/выключает уведомления.
func (n *Notifier) SetEnabled(enabled bool) {
	n.enabled.Store(enabled)
}

// DeviceUnavailable сообщает, что устройство способа ответа недоступно.
func (n *Notifier) DeviceUnavailable(method, detail string) {
	msg := n.ui.T("notify_device_hint")
	if detail != "" {
		msg = method + ": " + detail + "\n" + msg
	}
	n.notify(n.ui.T("notify_device"), msg)
}

// Summary показывает итоги сессии.
func (n *Notifier) Summary(s game.Summary) {
	n.notify(n.ui.T("notify_done"), strings.Join(Report(n.ui, s), "\n"))
}

// Report форматирует итоги сессии построчно.
func Report(ui i18n.Table, s game.Summary) []string {
	lines := []string{ui.Tf("summary", s.Correct, s.Rounds)}
	if s.Rounds > 0 {
		lines = append(lines,
			ui.Tf("summary_mean", s.MeanTime.Seconds()),
			ui.Tf("summary_eff", s.Efficiency),
		)
	}
	if s.StroopEffect != 0 {
		lines = append(lines, ui.Tf("summary_stroop", float64(s.StroopEffect.Milliseconds())))
	}
	if s.Cancelled {
		lines = append(lines, ui.T("summary_cancelled"))
	}
	return lines
}

func (n *Notifier) notify(title, message string) {
	if !n.enabled.Load() {
		return
	}
	// Игнорируем ошибки уведомлений - они не критичны
	_ = n.send(appName+": "+title, message, "")
}
