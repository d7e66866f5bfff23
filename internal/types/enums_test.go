package types

import (
	"testing"
	"time"
)

func TestSubscriptionStatusGrantsPro(t *testing.T) {
	tests := []struct {
		status SubscriptionStatus
		want   bool
	}{
		{SubscriptionStatusOnTrial, true},
		{SubscriptionStatusActive, true},
		{SubscriptionStatusPastDue, true},
		{SubscriptionStatusCancelled, true},
		{SubscriptionStatusPaused, false},
		{SubscriptionStatusUnpaid, false},
		{SubscriptionStatusExpired, false},
		{SubscriptionStatusNone, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.GrantsPro(); got != tt.want {
				t.Errorf("GrantsPro() for %q = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestCollabStatusIsTerminal(t *testing.T) {
	if CollabStatusPending.IsTerminal() {
		t.Error("pending should not be terminal")
	}
	if !CollabStatusAccepted.IsTerminal() {
		t.Error("accepted should be terminal")
	}
	if !CollabStatusDeclined.IsTerminal() {
		t.Error("declined should be terminal")
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	live := &Session{ExpiresAt: now.Add(time.Hour)}
	if live.Expired(now) {
		t.Error("session expiring in the future should not be expired")
	}

	dead := &Session{ExpiresAt: now.Add(-time.Minute)}
	if !dead.Expired(now) {
		t.Error("session with past expiry should be expired")
	}

	boundary := &Session{ExpiresAt: now}
	if !boundary.Expired(now) {
		t.Error("session expiring exactly now should be treated as expired")
	}
}
