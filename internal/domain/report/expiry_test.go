package report

import (
	"testing"
	"time"
)

func TestExpiryPolicy_Expired(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	p := NewExpiryPolicy(DefaultValidity)

	tests := []struct {
		name string
		age  time.Duration
		want bool
	}{
		{"fresh", 0, false},
		{"six days", 6 * 24 * time.Hour, false},
		{"exactly seven days", 7 * 24 * time.Hour, false},
		{"seven days one second", 7*24*time.Hour + time.Second, true},
		{"eight days", 8 * 24 * time.Hour, true},
		{"generated in the future", -time.Hour, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Expired(now.Add(-tt.age), now); got != tt.want {
				t.Errorf("Expired(age=%s) = %v, want %v", tt.age, got, tt.want)
			}
		})
	}
}

func TestNewExpiryPolicy_DefaultsWindow(t *testing.T) {
	if p := NewExpiryPolicy(0); p.Window != DefaultValidity {
		t.Errorf("expected default window %s, got %s", DefaultValidity, p.Window)
	}
	if p := NewExpiryPolicy(time.Hour); p.Window != time.Hour {
		t.Errorf("expected configured window 1h, got %s", p.Window)
	}
}

func TestExpiryPolicy_ExpiresAt(t *testing.T) {
	gen := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	p := NewExpiryPolicy(DefaultValidity)
	want := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	if got := p.ExpiresAt(gen); !got.Equal(want) {
		t.Errorf("ExpiresAt = %s, want %s", got, want)
	}
	if p.Expired(gen, p.ExpiresAt(gen)) {
		t.Error("expected report to be valid at its expiry instant")
	}
}
