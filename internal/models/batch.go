package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskDraft holds the fields for a task to be created from a command
type TaskDraft struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    Priority   `json:"priority,omitempty"`
	Category    string     `json:"category,omitempty"`
	DueDate     *string    `json:"dueDate,omitempty"`
	Workspace   *Workspace `json:"workspace,omitempty"`
}

// TaskPatch is a partial field update addressed to an existing task.
// Ids referenced here come from the snapshot given to the interpreter; the
// applier treats an id that has since disappeared as a no-op, not an error.
type TaskPatch struct {
	ID      uuid.UUID   `json:"id"`
	Updates TaskUpdates `json:"updates"`
}

// TaskUpdates carries the updatable fields of a patch. Nil means "leave as is".
type TaskUpdates struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	Category    *string    `json:"category,omitempty"`
	IsCompleted *bool      `json:"isCompleted,omitempty"`
	DueDate     *string    `json:"dueDate,omitempty"`
	Workspace   *Workspace `json:"workspace,omitempty"`
}

// MutationBatch is the structured set of task mutations produced from one
// natural-language command.
type MutationBatch struct {
	Added      []TaskDraft `json:"added"`
	Updated    []TaskPatch `json:"updated"`
	DeletedIDs []uuid.UUID `json:"deletedIds"`
	AIResponse string      `json:"aiResponse"`
}

// TotalChanges returns the combined count of additions, updates and deletions.
func (b *MutationBatch) TotalChanges() int {
	return len(b.Added) + len(b.Updated) + len(b.DeletedIDs)
}

// IsEmpty reports whether the batch mutates nothing.
func (b *MutationBatch) IsEmpty() bool {
	return b.TotalChanges() == 0
}

// CommandHistoryEntry records an applied command for the interpreter's
// rolling context window.
type CommandHistoryEntry struct {
	Command   string    `json:"command"`
	Added     int       `json:"added"`
	Updated   int       `json:"updated"`
	Deleted   int       `json:"deleted"`
	Timestamp time.Time `json:"timestamp"`
}
