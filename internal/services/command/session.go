package command

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck-api/internal/models"
)

// PendingAction is a mutation batch waiting for user confirmation. Each
// session holds at most one: any newer command replaces the previous pending
// batch. Workspace is the fallback workspace resolved from the UI context the
// command was issued under, so confirmation lands new tasks where the user
// was working.
type PendingAction struct {
	Command   string
	Batch     *models.MutationBatch
	Workspace models.Workspace
	CreatedAt time.Time
}

// Session is a user's live command context: the in-memory task set the
// interpreter and applier work against, the pending confirmation slot, and
// the undo/history ledger. One mutex orders all command operations for the
// user; concurrent commands serialize, they never interleave.
type Session struct {
	mu      sync.Mutex
	userID  uuid.UUID
	tasks   []*models.Task
	pending *PendingAction
	ledger  *Ledger
}

func NewSession(userID uuid.UUID, tasks []*models.Task, ledger *Ledger) *Session {
	return &Session{
		userID: userID,
		tasks:  tasks,
		ledger: ledger,
	}
}

func (s *Session) UserID() uuid.UUID { return s.userID }
func (s *Session) Ledger() *Ledger   { return s.ledger }

// Lock serializes a full command operation against the session. Callers hold
// it across interpret/classify/apply so a slow model call cannot interleave
// with a confirm or undo for the same user.
func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// The methods below assume the caller holds the session lock.

// SnapshotTasks returns a deep copy of the current task set
func (s *Session) SnapshotTasks() []*models.Task {
	return models.CloneTasks(s.tasks)
}

// Tasks returns the live task list. Callers must not retain it past unlock.
func (s *Session) Tasks() []*models.Task {
	return s.tasks
}

// Overwrite replaces the whole task set, used by undo restoration
func (s *Session) Overwrite(tasks []*models.Task) {
	s.tasks = tasks
}

// Insert adds a task to the set
func (s *Session) Insert(t *models.Task) {
	s.tasks = append(s.tasks, t)
}

// Remove deletes the task with the given id, reporting whether it existed
func (s *Session) Remove(id uuid.UUID) bool {
	for i, t := range s.tasks {
		if t.ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return true
		}
	}
	return false
}

// Find returns the live task with the given id, or nil
func (s *Session) Find(id uuid.UUID) *models.Task {
	for _, t := range s.tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// SetPending installs a batch awaiting confirmation, returning the batch it
// displaced, if any
func (s *Session) SetPending(p *PendingAction) *PendingAction {
	prev := s.pending
	s.pending = p
	return prev
}

// TakePending removes and returns the pending batch
func (s *Session) TakePending() (*PendingAction, error) {
	if s.pending == nil {
		return nil, ErrNoPendingAction
	}
	p := s.pending
	s.pending = nil
	return p, nil
}

// ClearPending discards the pending batch
func (s *Session) ClearPending() error {
	if s.pending == nil {
		return ErrNoPendingAction
	}
	s.pending = nil
	return nil
}

// Pending returns the pending batch without consuming it
func (s *Session) Pending() *PendingAction {
	return s.pending
}
