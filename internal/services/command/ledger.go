package command

import (
	"time"

	"github.com/taskdeck/taskdeck-api/internal/models"
)

const (
	// DefaultUndoWindow is how long the undo affordance stays visible after
	// a batch is applied. The snapshot itself remains usable until the next
	// batch overwrites it.
	DefaultUndoWindow = 8 * time.Second

	// DefaultHistorySize bounds the command history ring
	DefaultHistorySize = 20

	// DefaultHistoryContext is how many recent commands are fed back to the
	// interpreter as context
	DefaultHistoryContext = 3
)

// UndoSnapshot is a full copy of the task set taken immediately before a
// batch was applied. Restoring it reverts the batch wholesale.
type UndoSnapshot struct {
	Tasks       []*models.Task
	Description string
	CreatedAt   time.Time
	ExpiresAt   time.Time // end of the visibility window, not of validity
}

// Ledger holds a session's single undo slot and its bounded command history.
// It is not safe for concurrent use on its own; the owning session's lock
// covers it.
type Ledger struct {
	snapshot       *UndoSnapshot
	history        []models.CommandHistoryEntry
	maxHistory     int
	historyContext int
	undoWindow     time.Duration
	now            func() time.Time
}

func NewLedger(maxHistory, historyContext int, undoWindow time.Duration) *Ledger {
	if maxHistory <= 0 {
		maxHistory = DefaultHistorySize
	}
	if historyContext <= 0 {
		historyContext = DefaultHistoryContext
	}
	if undoWindow <= 0 {
		undoWindow = DefaultUndoWindow
	}
	return &Ledger{
		maxHistory:     maxHistory,
		historyContext: historyContext,
		undoWindow:     undoWindow,
		now:            time.Now,
	}
}

// RecordSnapshot captures the pre-apply task set, replacing any previous
// snapshot. There is exactly one undo level.
func (l *Ledger) RecordSnapshot(tasks []*models.Task, description string) *UndoSnapshot {
	now := l.now()
	l.snapshot = &UndoSnapshot{
		Tasks:       tasks,
		Description: description,
		CreatedAt:   now,
		ExpiresAt:   now.Add(l.undoWindow),
	}
	return l.snapshot
}

// TakeSnapshot consumes the undo slot. A second undo without an intervening
// apply finds the slot empty.
func (l *Ledger) TakeSnapshot() (*UndoSnapshot, bool) {
	if l.snapshot == nil {
		return nil, false
	}
	s := l.snapshot
	l.snapshot = nil
	return s, true
}

// UndoAvailable reports whether an undo slot exists and when its visibility
// window closes
func (l *Ledger) UndoAvailable() (*UndoSnapshot, bool) {
	if l.snapshot == nil {
		return nil, false
	}
	return l.snapshot, true
}

// RecordCommand appends an applied command to the history ring, evicting the
// oldest entry once the ring is full
func (l *Ledger) RecordCommand(e models.CommandHistoryEntry) {
	l.history = append(l.history, e)
	if len(l.history) > l.maxHistory {
		l.history = l.history[len(l.history)-l.maxHistory:]
	}
}

// History returns the recorded commands oldest-first
func (l *Ledger) History() []models.CommandHistoryEntry {
	out := make([]models.CommandHistoryEntry, len(l.history))
	copy(out, l.history)
	return out
}

// RecentCommands returns the last few command texts oldest-first, for the
// interpreter's context window
func (l *Ledger) RecentCommands() []string {
	n := l.historyContext
	if n > len(l.history) {
		n = len(l.history)
	}
	out := make([]string, 0, n)
	for _, e := range l.history[len(l.history)-n:] {
		out = append(out, e.Command)
	}
	return out
}

// ClearHistory drops all recorded commands. The undo slot is untouched.
func (l *Ledger) ClearHistory() {
	l.history = nil
}
