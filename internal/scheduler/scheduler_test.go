package scheduler

import (
	"context"
	"testing"
	"time"
)

func TestNew_PassTimeoutHasHeadroom(t *testing.T) {
	s := New(10*time.Minute, nil)
	if s.passTimeout <= s.interval {
		t.Fatalf("pass timeout %s must exceed the %s cadence", s.passTimeout, s.interval)
	}
	if s.passTimeout != 40*time.Minute {
		t.Errorf("pass timeout = %s, want 40m", s.passTimeout)
	}
}

func TestRunPass_DeadlineBeyondInterval(t *testing.T) {
	var deadline time.Time
	s := New(time.Minute, func(ctx context.Context) error {
		deadline, _ = ctx.Deadline()
		return nil
	})

	start := time.Now()
	s.runPass()

	if deadline.IsZero() {
		t.Fatal("pass context has no deadline")
	}
	// A pass slower than one interval must not be cancelled mid-run.
	if deadline.Before(start.Add(s.interval)) {
		t.Errorf("deadline %s gives the pass less than one interval", deadline.Sub(start))
	}
}

func TestRunPass_SlowPassCancelled(t *testing.T) {
	s := New(time.Minute, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	s.passTimeout = 10 * time.Millisecond

	done := make(chan struct{})
	go func() {
		s.runPass()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("slow pass was not cancelled by the pass timeout")
	}
}
