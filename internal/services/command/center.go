package command

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskdeck/taskdeck-api/internal/database"
	"github.com/taskdeck/taskdeck-api/internal/models"
	"github.com/taskdeck/taskdeck-api/internal/queue"
)

// Status of a command after one round trip
type Status string

const (
	StatusApplied             Status = "applied"
	StatusPendingConfirmation Status = "pending_confirmation"
)

// Outcome is what a command round trip produced: either an applied result or
// a batch held for confirmation
type Outcome struct {
	Status  Status                `json:"status"`
	Message string                `json:"message,omitempty"`
	Result  *AppliedResult        `json:"result,omitempty"`
	Pending *models.MutationBatch `json:"pending,omitempty"`

	// UndoExpiresAt is when the undo affordance should disappear from the
	// client; set only for applied outcomes
	UndoExpiresAt *time.Time `json:"undo_expires_at,omitempty"`
}

// Options tunes the center. Zero values fall back to the package defaults.
type Options struct {
	ConfirmationThreshold int
	UndoWindow            time.Duration
	HistorySize           int
	HistoryContext        int
}

// Center routes commands through interpretation, classification and
// application, holding one session per user. Sessions are created lazily
// from the store and live for the process lifetime.
type Center struct {
	store      database.TaskStore
	interp     *Interpreter
	classifier Classifier
	applier    *Applier
	opts       Options
	logger     *zap.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

func NewCenter(store database.TaskStore, gen Generator, jobs queue.JobQueue, opts Options, logger *zap.Logger) *Center {
	return &Center{
		store:      store,
		interp:     NewInterpreter(gen, logger),
		classifier: NewClassifier(opts.ConfirmationThreshold),
		applier:    NewApplier(store, jobs, logger),
		opts:       opts,
		logger:     logger,
		sessions:   make(map[uuid.UUID]*Session),
	}
}

// session returns the user's session, loading their tasks from the store on
// first use
func (c *Center) session(ctx context.Context, userID uuid.UUID) (*Session, error) {
	c.mu.RLock()
	sess, ok := c.sessions[userID]
	c.mu.RUnlock()
	if ok {
		return sess, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if sess, ok = c.sessions[userID]; ok {
		return sess, nil
	}

	tasks, err := c.store.ListByUser(ctx, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks for session: %w", err)
	}

	ledger := NewLedger(c.opts.HistorySize, c.opts.HistoryContext, c.opts.UndoWindow)
	sess = NewSession(userID, tasks, ledger)
	c.sessions[userID] = sess

	c.logger.Debug("command_session_created",
		zap.String("user_id", userID.String()),
		zap.Int("tasks", len(tasks)))

	return sess, nil
}

// HandleCommand interprets one command and either applies it or parks it
// behind a confirmation. A destructive or large batch never touches the task
// set until confirmed.
func (c *Center) HandleCommand(ctx context.Context, userID uuid.UUID, input string, uiCtx UIContext) (*Outcome, error) {
	sess, err := c.session(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Snapshot under the lock, then release it for the model call so other
	// operations on the session are not stalled behind a slow provider.
	sess.Lock()
	snapshot := sess.SnapshotTasks()
	recent := sess.Ledger().RecentCommands()
	sess.Unlock()

	batch, err := c.interp.Interpret(ctx, input, snapshot, recent, uiCtx)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	// A new command supersedes any unconsumed confirmation, whatever the new
	// batch classifies as.
	if prev := sess.SetPending(nil); prev != nil {
		c.logger.Info("pending_action_replaced",
			zap.String("user_id", userID.String()),
			zap.String("discarded_command", prev.Command))
	}

	if c.classifier.Classify(batch) == DecisionRequiresConfirmation {
		sess.SetPending(&PendingAction{
			Command:   input,
			Batch:     batch,
			Workspace: c.fallbackWorkspace(uiCtx),
			CreatedAt: time.Now(),
		})
		return &Outcome{
			Status:  StatusPendingConfirmation,
			Message: batch.AIResponse,
			Pending: batch,
		}, nil
	}

	result := c.applier.Apply(ctx, sess, input, batch, c.fallbackWorkspace(uiCtx))
	return appliedOutcome(result), nil
}

// Confirm applies the pending batch. The batch's classification decision is
// final; it is not re-classified here.
func (c *Center) Confirm(ctx context.Context, userID uuid.UUID) (*Outcome, error) {
	sess, err := c.session(ctx, userID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	p, err := sess.TakePending()
	if err != nil {
		return nil, err
	}

	result := c.applier.Apply(ctx, sess, p.Command, p.Batch, p.Workspace)
	return appliedOutcome(result), nil
}

// Cancel discards the pending batch without applying anything
func (c *Center) Cancel(ctx context.Context, userID uuid.UUID) error {
	sess, err := c.session(ctx, userID)
	if err != nil {
		return err
	}

	sess.Lock()
	defer sess.Unlock()

	if err := sess.ClearPending(); err != nil {
		return err
	}

	c.logger.Info("pending_action_cancelled", zap.String("user_id", userID.String()))
	return nil
}

// Undo reverts the most recently applied batch, returning the restored task
// set. ok is false when nothing is undoable, which is a no-op rather than an
// error.
func (c *Center) Undo(ctx context.Context, userID uuid.UUID) ([]*models.Task, bool, error) {
	sess, err := c.session(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	sess.Lock()
	defer sess.Unlock()

	tasks, ok := c.applier.Undo(ctx, sess)
	return tasks, ok, nil
}

// History returns the user's applied-command history, oldest first
func (c *Center) History(ctx context.Context, userID uuid.UUID) ([]models.CommandHistoryEntry, error) {
	sess, err := c.session(ctx, userID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()
	return sess.Ledger().History(), nil
}

// ClearHistory empties the user's command history. The undo slot survives.
func (c *Center) ClearHistory(ctx context.Context, userID uuid.UUID) error {
	sess, err := c.session(ctx, userID)
	if err != nil {
		return err
	}

	sess.Lock()
	defer sess.Unlock()
	sess.Ledger().ClearHistory()
	return nil
}

// Tasks returns a copy of the user's live task set
func (c *Center) Tasks(ctx context.Context, userID uuid.UUID) ([]*models.Task, error) {
	sess, err := c.session(ctx, userID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()
	return sess.SnapshotTasks(), nil
}

// Invalidate drops a user's session so the next command reloads from the
// store. Used after out-of-band task edits through the REST endpoints.
func (c *Center) Invalidate(userID uuid.UUID) {
	c.mu.Lock()
	delete(c.sessions, userID)
	c.mu.Unlock()
}

func (c *Center) fallbackWorkspace(uiCtx UIContext) models.Workspace {
	if uiCtx.Workspace.IsValid() {
		return uiCtx.Workspace
	}
	return models.WorkspacePersonal
}

func appliedOutcome(result *AppliedResult) *Outcome {
	out := &Outcome{
		Status:  StatusApplied,
		Message: result.AIResponse,
		Result:  result,
	}
	if result.Undo != nil {
		expires := result.Undo.ExpiresAt
		out.UndoExpiresAt = &expires
	}
	return out
}
