package command

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskdeck/taskdeck-api/internal/database"
	"github.com/taskdeck/taskdeck-api/internal/models"
	"github.com/taskdeck/taskdeck-api/internal/queue"
)

// storeSyncDelay is how long a failed store write waits before its queued
// retry becomes eligible
const storeSyncDelay = 5 * time.Second

// AppliedResult reports what one batch actually did. Counts reflect applied
// mutations only; patches and deletes addressed to vanished ids are dropped.
type AppliedResult struct {
	Created    []*models.Task `json:"created"`
	Updated    []*models.Task `json:"updated"`
	DeletedIDs []uuid.UUID    `json:"deleted_ids"`
	AIResponse string         `json:"ai_response,omitempty"`
	Undo       *UndoSnapshot  `json:"-"`

	// StoreFailures counts writes that missed the store and were queued for
	// retry. The in-memory result above is authoritative regardless.
	StoreFailures int `json:"-"`
}

// Applier commits mutation batches to the in-memory task set, then mirrors
// each change to the persistent store. The in-memory commit always succeeds;
// a store write that fails is logged and queued for background retry rather
// than rolled back.
type Applier struct {
	store  database.TaskStore
	jobs   queue.JobQueue
	logger *zap.Logger
	now    func() time.Time
}

func NewApplier(store database.TaskStore, jobs queue.JobQueue, logger *zap.Logger) *Applier {
	return &Applier{
		store:  store,
		jobs:   jobs,
		logger: logger,
		now:    time.Now,
	}
}

// Apply commits a batch against the session's task set: creations first, then
// deletions, then updates. A pre-apply snapshot is recorded in the ledger
// before anything changes. The caller holds the session lock.
func (a *Applier) Apply(ctx context.Context, sess *Session, commandText string, batch *models.MutationBatch, fallbackWorkspace models.Workspace) *AppliedResult {
	result := &AppliedResult{
		AIResponse: batch.AIResponse,
	}
	result.Undo = sess.Ledger().RecordSnapshot(sess.SnapshotTasks(), commandText)

	now := a.now()

	for _, draft := range batch.Added {
		t := a.buildTask(sess.UserID(), draft, fallbackWorkspace, now)
		sess.Insert(t)
		result.Created = append(result.Created, t.Clone())
		if err := a.store.Create(ctx, t); err != nil {
			result.StoreFailures++
			a.queueStoreSync(ctx, sess.UserID(), queue.StoreOpCreate, t.ID, t.Clone(), err)
		}
	}

	for _, id := range batch.DeletedIDs {
		if !sess.Remove(id) {
			continue
		}
		result.DeletedIDs = append(result.DeletedIDs, id)
		if err := a.store.Delete(ctx, sess.UserID(), id); err != nil {
			result.StoreFailures++
			a.queueStoreSync(ctx, sess.UserID(), queue.StoreOpDelete, id, nil, err)
		}
	}

	for _, patch := range batch.Updated {
		t := sess.Find(patch.ID)
		if t == nil {
			continue
		}
		applyUpdates(t, patch.Updates)
		t.UpdatedAt = now
		result.Updated = append(result.Updated, t.Clone())
		if err := a.store.Update(ctx, t); err != nil {
			result.StoreFailures++
			a.queueStoreSync(ctx, sess.UserID(), queue.StoreOpUpdate, t.ID, t.Clone(), err)
		}
	}

	sess.Ledger().RecordCommand(models.CommandHistoryEntry{
		Command:   commandText,
		Added:     len(result.Created),
		Updated:   len(result.Updated),
		Deleted:   len(result.DeletedIDs),
		Timestamp: now,
	})

	a.logger.Info("command_batch_applied",
		zap.String("user_id", sess.UserID().String()),
		zap.Int("created", len(result.Created)),
		zap.Int("updated", len(result.Updated)),
		zap.Int("deleted", len(result.DeletedIDs)),
		zap.Int("store_failures", result.StoreFailures))

	return result
}

// Undo consumes the session's undo slot and restores the snapshotted task
// set wholesale, then reconciles the store against the restored state. The
// caller holds the session lock. Returns false when no undo is available.
func (a *Applier) Undo(ctx context.Context, sess *Session) ([]*models.Task, bool) {
	snap, ok := sess.Ledger().TakeSnapshot()
	if !ok {
		return nil, false
	}

	current := sess.Tasks()
	currentByID := make(map[uuid.UUID]*models.Task, len(current))
	for _, t := range current {
		currentByID[t.ID] = t
	}

	restored := models.CloneTasks(snap.Tasks)
	sess.Overwrite(restored)

	// mirror the restoration: re-create what the batch deleted, delete what
	// it created, and rewrite what it changed
	restoredByID := make(map[uuid.UUID]*models.Task, len(restored))
	for _, t := range restored {
		restoredByID[t.ID] = t
		prev, existed := currentByID[t.ID]
		switch {
		case !existed:
			if err := a.store.Create(ctx, t); err != nil {
				a.queueStoreSync(ctx, sess.UserID(), queue.StoreOpCreate, t.ID, t.Clone(), err)
			}
		case !tasksEqual(prev, t):
			if err := a.store.Update(ctx, t); err != nil {
				a.queueStoreSync(ctx, sess.UserID(), queue.StoreOpUpdate, t.ID, t.Clone(), err)
			}
		}
	}
	for _, t := range current {
		if _, kept := restoredByID[t.ID]; kept {
			continue
		}
		if err := a.store.Delete(ctx, sess.UserID(), t.ID); err != nil {
			a.queueStoreSync(ctx, sess.UserID(), queue.StoreOpDelete, t.ID, nil, err)
		}
	}

	a.logger.Info("command_batch_undone",
		zap.String("user_id", sess.UserID().String()),
		zap.String("command", snap.Description),
		zap.Int("restored_tasks", len(restored)))

	return sess.SnapshotTasks(), true
}

func (a *Applier) buildTask(userID uuid.UUID, draft models.TaskDraft, fallbackWorkspace models.Workspace, now time.Time) *models.Task {
	t := &models.Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       draft.Title,
		Description: draft.Description,
		Priority:    draft.Priority,
		Category:    draft.Category,
		DueDate:     draft.DueDate,
		Subtasks:    []models.Subtask{},
		Comments:    []models.Comment{},
		Workspace:   fallbackWorkspace,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	if draft.Workspace != nil {
		t.Workspace = *draft.Workspace
	}
	if t.Workspace == "" {
		t.Workspace = models.WorkspacePersonal
	}
	return t
}

// queueStoreSync records a failed store write and hands it to the background
// retry queue. The in-memory state has already moved on.
func (a *Applier) queueStoreSync(ctx context.Context, userID uuid.UUID, op queue.StoreOpKind, taskID uuid.UUID, task *models.Task, cause error) {
	a.logger.Error("task_store_write_failed",
		zap.String("user_id", userID.String()),
		zap.String("op", string(op)),
		zap.String("task_id", taskID.String()),
		zap.Error(cause))

	if a.jobs == nil {
		return
	}

	job := queue.NewStoreSyncJob(userID, op, taskID, task)
	notBefore := a.now().Add(storeSyncDelay)
	job.NotBefore = &notBefore
	if err := a.jobs.Enqueue(ctx, job); err != nil {
		a.logger.Error("store_sync_enqueue_failed",
			zap.String("task_id", taskID.String()),
			zap.Error(err))
	}
}

func applyUpdates(t *models.Task, u models.TaskUpdates) {
	if u.Title != nil && *u.Title != "" {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Priority != nil {
		t.Priority = *u.Priority
	}
	if u.Category != nil {
		t.Category = *u.Category
	}
	if u.IsCompleted != nil {
		t.IsCompleted = *u.IsCompleted
	}
	if u.DueDate != nil {
		if *u.DueDate == "" {
			t.DueDate = nil
		} else {
			due := *u.DueDate
			t.DueDate = &due
		}
	}
	if u.Workspace != nil {
		t.Workspace = *u.Workspace
	}
}

func tasksEqual(a, b *models.Task) bool {
	aj, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bj, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(aj, bj)
}
