package workers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/taskdeck/taskdeck-api/internal/database"
	"github.com/taskdeck/taskdeck-api/internal/queue"
)

// StoreSyncer replays task-store writes that failed during optimistic batch
// application. The in-memory task set already reflects each change; this
// worker only brings the persistent store back in line.
type StoreSyncer struct {
	taskRepo database.TaskStore
	jobQueue queue.JobQueue // for re-enqueueing delayed retries
}

// NewStoreSyncer creates a new store-sync worker
func NewStoreSyncer(taskRepo database.TaskStore, jobQueue queue.JobQueue) *StoreSyncer {
	return &StoreSyncer{
		taskRepo: taskRepo,
		jobQueue: jobQueue,
	}
}

// ProcessStoreSyncJob replays one store operation
func (s *StoreSyncer) ProcessStoreSyncJob(ctx context.Context, job *queue.Job) error {
	switch job.Op {
	case queue.StoreOpCreate:
		if job.Task == nil {
			return fmt.Errorf("task payload is required for create sync")
		}
		if err := s.taskRepo.Create(ctx, job.Task); err != nil {
			return fmt.Errorf("failed to replay create for task %s: %w", job.TaskID, err)
		}

	case queue.StoreOpUpdate:
		if job.Task == nil {
			return fmt.Errorf("task payload is required for update sync")
		}
		// the task may have been deleted since; treat a failed update of a
		// missing row as create, the payload is the full desired state
		if _, err := s.taskRepo.GetByID(ctx, job.TaskID); err != nil {
			if err := s.taskRepo.Create(ctx, job.Task); err != nil {
				return fmt.Errorf("failed to replay update-as-create for task %s: %w", job.TaskID, err)
			}
			return nil
		}
		if err := s.taskRepo.Update(ctx, job.Task); err != nil {
			return fmt.Errorf("failed to replay update for task %s: %w", job.TaskID, err)
		}

	case queue.StoreOpDelete:
		if err := s.taskRepo.Delete(ctx, job.UserID, job.TaskID); err != nil {
			return fmt.Errorf("failed to replay delete for task %s: %w", job.TaskID, err)
		}

	default:
		return fmt.Errorf("unknown store-sync op: %s", job.Op)
	}

	log.Printf("Replayed store %s for task %s (user %s)", job.Op, job.TaskID, job.UserID)
	return nil
}

// Run consumes store-sync jobs until ctx is cancelled. Failed jobs are
// re-enqueued with a delay while retries remain, then dead-lettered.
func (s *StoreSyncer) Run(ctx context.Context, prefetch int) error {
	messages, errs, err := s.jobQueue.Consume(ctx, prefetch)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case consumeErr, ok := <-errs:
			if !ok {
				return nil
			}
			return fmt.Errorf("consumer error: %w", consumeErr)

		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			s.handleMessage(ctx, msg)
		}
	}
}

func (s *StoreSyncer) handleMessage(ctx context.Context, msg queue.MessageInterface) {
	job := msg.GetJob()
	if job == nil {
		log.Printf("Discarding message with no job payload")
		if err := msg.Nack(false); err != nil {
			log.Printf("Failed to nack message: %v", err)
		}
		return
	}

	// honor the NotBefore delay for brokers without the delayed exchange
	if !job.ShouldProcess() {
		wait := time.Until(*job.NotBefore)
		select {
		case <-ctx.Done():
			_ = msg.Nack(true)
			return
		case <-time.After(wait):
		}
	}

	if err := s.ProcessStoreSyncJob(ctx, job); err != nil {
		log.Printf("Store sync failed for job %s: %v", job.ID, err)
		s.retryOrAbandon(ctx, msg, job)
		return
	}

	if err := msg.Ack(); err != nil {
		log.Printf("Failed to ack job %s: %v", job.ID, err)
	}
}

// retryOrAbandon re-enqueues the job with a growing delay while retries
// remain, dead-lettering it otherwise
func (s *StoreSyncer) retryOrAbandon(ctx context.Context, msg queue.MessageInterface, job *queue.Job) {
	if !job.CanRetry() {
		log.Printf("Job %s exhausted %d retries, dead-lettering", job.ID, job.MaxRetries)
		if err := msg.Nack(false); err != nil {
			log.Printf("Failed to nack job %s: %v", job.ID, err)
		}
		return
	}

	job.IncrementRetry()
	delay := time.Duration(job.RetryCount) * 10 * time.Second
	notBefore := time.Now().Add(delay)
	job.NotBefore = &notBefore

	if err := s.jobQueue.Enqueue(ctx, job); err != nil {
		log.Printf("Failed to re-enqueue job %s: %v", job.ID, err)
		if nackErr := msg.Nack(true); nackErr != nil {
			log.Printf("Failed to nack job %s: %v", job.ID, nackErr)
		}
		return
	}

	// the retry copy owns the job now
	if err := msg.Ack(); err != nil {
		log.Printf("Failed to ack job %s after re-enqueue: %v", job.ID, err)
	}
}
