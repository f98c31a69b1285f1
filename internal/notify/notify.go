// Package notify carries transient, user-visible messages out of the core.
package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

type Kind string

const (
	KindInfo  Kind = "info"
	KindError Kind = "error"
)

type Options struct {
	Kind Kind
	// AutoDismiss expires the message after the given duration. Zero uses
	// the notifier's default; a negative value keeps it until dismissed.
	AutoDismiss time.Duration
}

type Notifier interface {
	Notify(message string, opts Options)
}

type Alert struct {
	Message string    `json:"message"`
	Kind    Kind      `json:"kind"`
	Expires time.Time `json:"expires,omitempty"`
}

// Alerts keeps the single current alert. A newer alert replaces the older.
type Alerts struct {
	mu      sync.Mutex
	cur     *Alert
	dismiss time.Duration
	now     func() time.Time
}

func NewAlerts(autoDismiss time.Duration) *Alerts {
	return &Alerts{dismiss: autoDismiss, now: time.Now}
}

// SetClock overrides the time source.
func (a *Alerts) SetClock(now func() time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if now != nil {
		a.now = now
	}
}

func (a *Alerts) Notify(message string, opts Options) {
	a.mu.Lock()
	defer a.mu.Unlock()
	kind := opts.Kind
	if kind == "" {
		kind = KindInfo
	}
	d := opts.AutoDismiss
	if d == 0 {
		d = a.dismiss
	}
	al := &Alert{Message: message, Kind: kind}
	if d > 0 {
		al.Expires = a.now().Add(d)
	}
	a.cur = al
}

// Current returns the live alert, if any. Expired alerts are dropped.
func (a *Alerts) Current() (Alert, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cur == nil {
		return Alert{}, false
	}
	if !a.cur.Expires.IsZero() && !a.now().Before(a.cur.Expires) {
		a.cur = nil
		return Alert{}, false
	}
	return *a.cur, true
}

func (a *Alerts) Dismiss() {
	a.mu.Lock()
	a.cur = nil
	a.mu.Unlock()
}

// Log writes notifications to a zap logger.
type Log struct {
	Logger *zap.Logger
}

func (l Log) Notify(message string, opts Options) {
	if l.Logger == nil {
		return
	}
	fields := []zap.Field{zap.String("kind", string(opts.Kind))}
	if opts.Kind == KindError {
		l.Logger.Warn(message, fields...)
		return
	}
	l.Logger.Info(message, fields...)
}

// Tee fans a notification out to several notifiers.
type Tee []Notifier

func (t Tee) Notify(message string, opts Options) {
	for _, n := range t {
		if n != nil {
			n.Notify(message, opts)
		}
	}
}
