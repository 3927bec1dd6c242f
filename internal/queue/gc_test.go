package queue

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakePurger struct {
	calls     int
	retention time.Duration
	purged    int
	err       error
}

func (f *fakePurger) PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error) {
	f.calls++
	f.retention = retention
	return f.purged, f.err
}

func TestGarbageCollectorSweeps(t *testing.T) {
	t.Parallel()

	purger := &fakePurger{purged: 3}
	gc := NewGarbageCollector(purger, 5*time.Millisecond, 24*time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := gc.Start(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded from Start, got %v", err)
	}

	if purger.calls == 0 {
		t.Error("expected at least one purge pass")
	}
	if purger.retention != 24*time.Hour {
		t.Errorf("expected retention 24h, got %v", purger.retention)
	}
}

func TestGarbageCollectorSurvivesPurgeErrors(t *testing.T) {
	t.Parallel()

	purger := &fakePurger{err: errors.New("broker unavailable")}
	gc := NewGarbageCollector(purger, 5*time.Millisecond, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	// Errors are logged, not fatal; the loop keeps running until cancelled.
	_ = gc.Start(ctx)

	if purger.calls < 2 {
		t.Errorf("expected repeated purge attempts despite errors, got %d", purger.calls)
	}
}

func TestGarbageCollectorNilPurger(t *testing.T) {
	t.Parallel()

	gc := NewGarbageCollector(nil, 5*time.Millisecond, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := gc.Start(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected clean exit on cancel, got %v", err)
	}
}
