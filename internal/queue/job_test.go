package queue

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestJob_ShouldProcess(t *testing.T) {
	t.Parallel()

	job := NewStoreSyncJob(uuid.New(), StoreOpDelete, uuid.New(), nil)
	if !job.ShouldProcess() {
		t.Error("job without NotBefore should process immediately")
	}

	future := time.Now().Add(time.Hour)
	job.NotBefore = &future
	if job.ShouldProcess() {
		t.Error("job with future NotBefore should not process yet")
	}

	past := time.Now().Add(-time.Hour)
	job.NotBefore = &past
	if !job.ShouldProcess() {
		t.Error("job with past NotBefore should process")
	}
}

func TestJob_Retry(t *testing.T) {
	t.Parallel()

	job := NewStoreSyncJob(uuid.New(), StoreOpCreate, uuid.New(), nil)
	if job.MaxRetries != 3 {
		t.Fatalf("expected default max retries 3, got %d", job.MaxRetries)
	}

	for i := 0; i < 3; i++ {
		if !job.CanRetry() {
			t.Fatalf("expected CanRetry at retry count %d", job.RetryCount)
		}
		job.IncrementRetry()
	}

	if job.CanRetry() {
		t.Error("expected retries exhausted after MaxRetries increments")
	}
}
