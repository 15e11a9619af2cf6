package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

// NOTE: These tests are intentionally DB-free. They validate the sweeper's
// lifecycle semantics; the attach pass it delegates to is covered by the
// models package integration tests.

func TestNewAttachmentSweeperDefaults(t *testing.T) {
	s := NewAttachmentSweeper(nil, logrus.New(), 5*time.Minute)
	if s.Interval != 5*time.Minute {
		t.Fatalf("interval = %v, want 5m", s.Interval)
	}
	if s.Lookback <= 0 {
		t.Fatalf("lookback must default to a positive window; got %v", s.Lookback)
	}
	if s.LockTTL <= 0 {
		t.Fatalf("lock TTL must default to a positive duration; got %v", s.LockTTL)
	}
	if s.SweeperID == "" {
		t.Fatal("sweeper id must be assigned")
	}
	other := NewAttachmentSweeper(nil, logrus.New(), 5*time.Minute)
	if other.SweeperID == s.SweeperID {
		t.Fatal("each sweeper instance needs its own id")
	}
}

func TestAttachmentSweeperRunStopsOnContextCancel(t *testing.T) {
	s := NewAttachmentSweeper(nil, logrus.New(), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	// let it tick a few times with no DB wired; sweepOnce must be a no-op
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
