package queue

import (
	"time"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/models"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeStoreSync retries a task-store write that failed during an
	// optimistic batch application
	JobTypeStoreSync JobType = "store_sync"
)

// StoreOpKind is the store operation to replay
type StoreOpKind string

const (
	StoreOpCreate StoreOpKind = "create"
	StoreOpUpdate StoreOpKind = "update"
	StoreOpDelete StoreOpKind = "delete"
)

// Job is a queued store-sync operation. The in-memory task set already
// reflects the change; the job only reconciles the persistent store.
type Job struct {
	ID        uuid.UUID   `json:"id"`
	Type      JobType     `json:"type"`
	UserID    uuid.UUID   `json:"user_id"`
	Op        StoreOpKind `json:"op"`
	TaskID    uuid.UUID   `json:"task_id"`
	Task      *models.Task `json:"task,omitempty"` // payload for create/update
	NotBefore *time.Time  `json:"not_before,omitempty"`
	CreatedAt time.Time   `json:"created_at"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// NewStoreSyncJob creates a store-sync job. task may be nil for deletes.
func NewStoreSyncJob(userID uuid.UUID, op StoreOpKind, taskID uuid.UUID, task *models.Task) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       JobTypeStoreSync,
		UserID:     userID,
		Op:         op,
		TaskID:     taskID,
		Task:       task,
		CreatedAt:  time.Now(),
		RetryCount: 0,
		MaxRetries: 3,
	}
}

// ShouldProcess checks whether the job's NotBefore delay has elapsed
func (j *Job) ShouldProcess() bool {
	return j.NotBefore == nil || !time.Now().Before(*j.NotBefore)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}
