package queue

import (
	"context"
	"fmt"
	"log"
	"time"
)

// purgeCallTimeout bounds a single purge pass so a stuck broker connection
// cannot wedge the GC loop.
const purgeCallTimeout = 2 * time.Minute

// GarbageCollector periodically drops dead-lettered messages older than the
// retention window. Abandoned store-sync jobs have no value once the task
// they referenced has moved on.
type GarbageCollector struct {
	purger    DLQPurger
	interval  time.Duration
	retention time.Duration
}

// NewGarbageCollector creates a collector over a DLQPurger.
func NewGarbageCollector(purger DLQPurger, interval, retention time.Duration) *GarbageCollector {
	return &GarbageCollector{purger: purger, interval: interval, retention: retention}
}

// Start blocks running purge passes until ctx is cancelled.
func (gc *GarbageCollector) Start(ctx context.Context) error {
	ticker := time.NewTicker(gc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := gc.sweep(ctx); err != nil {
				log.Printf("dead-letter sweep failed: %v", err)
			}
		}
	}
}

func (gc *GarbageCollector) sweep(ctx context.Context) error {
	if gc.purger == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, purgeCallTimeout)
	defer cancel()

	purged, err := gc.purger.PurgeOlderThan(ctx, gc.retention)
	if err != nil {
		return fmt.Errorf("purge dead letters: %w", err)
	}
	if purged > 0 {
		log.Printf("purged %d dead-lettered message(s) older than %v", purged, gc.retention)
	}
	return nil
}
