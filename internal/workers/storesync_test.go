package workers

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck-api/internal/database"
	"github.com/taskdeck/taskdeck-api/internal/models"
	"github.com/taskdeck/taskdeck-api/internal/queue"
)

type stubStore struct {
	tasks    map[uuid.UUID]*models.Task
	failNext bool
}

var _ database.TaskStore = (*stubStore)(nil)

func newStubStore() *stubStore {
	return &stubStore{tasks: make(map[uuid.UUID]*models.Task)}
}

func (s *stubStore) ListByUser(context.Context, uuid.UUID, *models.Workspace) ([]*models.Task, error) {
	return nil, nil
}

func (s *stubStore) Create(_ context.Context, task *models.Task) error {
	if s.failNext {
		s.failNext = false
		return errors.New("store down")
	}
	s.tasks[task.ID] = task
	return nil
}

func (s *stubStore) Update(_ context.Context, task *models.Task) error {
	if s.failNext {
		s.failNext = false
		return errors.New("store down")
	}
	s.tasks[task.ID] = task
	return nil
}

func (s *stubStore) Delete(_ context.Context, _, id uuid.UUID) error {
	delete(s.tasks, id)
	return nil
}

func (s *stubStore) GetByID(_ context.Context, id uuid.UUID) (*models.Task, error) {
	if t, ok := s.tasks[id]; ok {
		return t, nil
	}
	return nil, errors.New("not found")
}

type stubQueue struct {
	enqueued []*queue.Job
}

func (q *stubQueue) Enqueue(_ context.Context, job *queue.Job) error {
	q.enqueued = append(q.enqueued, job)
	return nil
}

func (q *stubQueue) Consume(context.Context, int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, errors.New("not implemented")
}

func (q *stubQueue) Close() error                      { return nil }
func (q *stubQueue) HealthCheck(context.Context) error { return nil }

type stubMessage struct {
	job    *queue.Job
	acked  bool
	nacked bool
}

func (m *stubMessage) Ack() error            { m.acked = true; return nil }
func (m *stubMessage) Nack(requeue bool) error { m.nacked = true; return nil }
func (m *stubMessage) GetJob() *queue.Job    { return m.job }

func TestProcessStoreSyncJob_Create(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	syncer := NewStoreSyncer(store, &stubQueue{})

	userID := uuid.New()
	task := &models.Task{ID: uuid.New(), UserID: userID, Title: "persisted late"}
	job := queue.NewStoreSyncJob(userID, queue.StoreOpCreate, task.ID, task)

	if err := syncer.ProcessStoreSyncJob(context.Background(), job); err != nil {
		t.Fatalf("ProcessStoreSyncJob() error: %v", err)
	}
	if _, ok := store.tasks[task.ID]; !ok {
		t.Error("task not created in store")
	}
}

func TestProcessStoreSyncJob_UpdateMissingRowBecomesCreate(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	syncer := NewStoreSyncer(store, &stubQueue{})

	userID := uuid.New()
	task := &models.Task{ID: uuid.New(), UserID: userID, Title: "desired state"}
	job := queue.NewStoreSyncJob(userID, queue.StoreOpUpdate, task.ID, task)

	if err := syncer.ProcessStoreSyncJob(context.Background(), job); err != nil {
		t.Fatalf("ProcessStoreSyncJob() error: %v", err)
	}
	if got, ok := store.tasks[task.ID]; !ok || got.Title != "desired state" {
		t.Error("update of a missing row should upsert the payload")
	}
}

func TestProcessStoreSyncJob_Delete(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	userID := uuid.New()
	taskID := uuid.New()
	store.tasks[taskID] = &models.Task{ID: taskID, UserID: userID}

	syncer := NewStoreSyncer(store, &stubQueue{})
	job := queue.NewStoreSyncJob(userID, queue.StoreOpDelete, taskID, nil)

	if err := syncer.ProcessStoreSyncJob(context.Background(), job); err != nil {
		t.Fatalf("ProcessStoreSyncJob() error: %v", err)
	}
	if _, ok := store.tasks[taskID]; ok {
		t.Error("task not deleted from store")
	}
}

func TestProcessStoreSyncJob_MissingPayload(t *testing.T) {
	t.Parallel()

	syncer := NewStoreSyncer(newStubStore(), &stubQueue{})
	job := queue.NewStoreSyncJob(uuid.New(), queue.StoreOpCreate, uuid.New(), nil)

	if err := syncer.ProcessStoreSyncJob(context.Background(), job); err == nil {
		t.Error("create without payload should fail")
	}
}

func TestHandleMessage_RetryReEnqueuesWithDelay(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	store.failNext = true
	jobs := &stubQueue{}
	syncer := NewStoreSyncer(store, jobs)

	userID := uuid.New()
	task := &models.Task{ID: uuid.New(), UserID: userID, Title: "flaky"}
	msg := &stubMessage{job: queue.NewStoreSyncJob(userID, queue.StoreOpCreate, task.ID, task)}

	syncer.handleMessage(context.Background(), msg)

	if !msg.acked {
		t.Error("message should be acked after successful re-enqueue")
	}
	if len(jobs.enqueued) != 1 {
		t.Fatalf("expected 1 re-enqueued job, got %d", len(jobs.enqueued))
	}
	retry := jobs.enqueued[0]
	if retry.RetryCount != 1 {
		t.Errorf("RetryCount = %d, want 1", retry.RetryCount)
	}
	if retry.NotBefore == nil {
		t.Error("retry should carry a delay")
	}
}

func TestHandleMessage_ExhaustedRetriesDeadLetters(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	store.failNext = true
	jobs := &stubQueue{}
	syncer := NewStoreSyncer(store, jobs)

	userID := uuid.New()
	task := &models.Task{ID: uuid.New(), UserID: userID}
	job := queue.NewStoreSyncJob(userID, queue.StoreOpCreate, task.ID, task)
	job.RetryCount = job.MaxRetries
	msg := &stubMessage{job: job}

	syncer.handleMessage(context.Background(), msg)

	if !msg.nacked {
		t.Error("exhausted job should be nacked to the DLQ")
	}
	if len(jobs.enqueued) != 0 {
		t.Errorf("no re-enqueue expected, got %d", len(jobs.enqueued))
	}
}
