package mediawiki

import (
	"testing"
	"time"
)

func TestRetryStateExponentialBackoff(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 4, BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond}
	s := p.newState()

	d, ok := s.Next()
	if !ok || d != 100*time.Millisecond {
		t.Fatalf("first retry: got %v/%v, want 100ms/true", d, ok)
	}
	d, ok = s.Next()
	if !ok || d != 200*time.Millisecond {
		t.Fatalf("second retry: got %v/%v, want 200ms/true", d, ok)
	}
	d, ok = s.Next()
	if !ok || d != 300*time.Millisecond {
		t.Fatalf("third retry: got %v/%v, want capped 300ms/true", d, ok)
	}
	if _, ok = s.Next(); ok {
		t.Fatal("attempt budget should be exhausted after MaxAttempts failures")
	}
}

func TestRetryStateSingleAttemptNeverRetries(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 1, BaseDelay: time.Second}
	s := p.newState()
	if _, ok := s.Next(); ok {
		t.Fatal("MaxAttempts=1 must not allow a retry")
	}
}

func TestRetryStateLargeAttemptBudgetStaysCapped(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 80, BaseDelay: time.Millisecond, MaxDelay: 30 * time.Second}
	s := p.newState()

	for i := 1; i < p.MaxAttempts; i++ {
		d, ok := s.Next()
		if !ok {
			t.Fatalf("attempt budget spent early at failure %d", i)
		}
		if d <= 0 || d > p.MaxDelay {
			t.Fatalf("failure %d: delay %v outside (0, %v]", i, d, p.MaxDelay)
		}
	}
	if _, ok := s.Next(); ok {
		t.Fatal("attempt budget should be exhausted after MaxAttempts failures")
	}
}

func TestRetryStateTracksAttempts(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	s := p.newState()
	s.Next()
	s.Next()
	if got := s.Attempts(); got != 2 {
		t.Fatalf("attempts = %d, want 2", got)
	}
}
