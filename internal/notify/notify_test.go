package notify

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestAlerts_AutoDismiss(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := NewAlerts(3 * time.Second)
	a.SetClock(func() time.Time { return now })

	a.Notify("hello", Options{})
	got, ok := a.Current()
	if !ok || got.Message != "hello" || got.Kind != KindInfo {
		t.Fatalf("Current = %+v %v", got, ok)
	}

	now = now.Add(3 * time.Second)
	if _, ok := a.Current(); ok {
		t.Fatalf("alert should have expired")
	}
}

func TestAlerts_NewerReplacesOlderAndNegativeNeverExpires(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := NewAlerts(time.Second)
	a.SetClock(func() time.Time { return now })

	a.Notify("first", Options{})
	a.Notify("second", Options{Kind: KindError, AutoDismiss: -1})
	now = now.Add(time.Hour)
	got, ok := a.Current()
	if !ok || got.Message != "second" || got.Kind != KindError {
		t.Fatalf("Current = %+v %v", got, ok)
	}
	a.Dismiss()
	if _, ok := a.Current(); ok {
		t.Fatalf("expected dismissed")
	}
}

func TestTee_LogsAndKeeps(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	a := NewAlerts(0)
	n := Tee{a, Log{Logger: zap.New(core)}}
	n.Notify("boom", Options{Kind: KindError})
	if _, ok := a.Current(); !ok {
		t.Fatalf("alert not stored")
	}
	if logs.FilterMessage("boom").Len() != 1 {
		t.Fatalf("expected one log entry, got %d", logs.Len())
	}
}
