package models

import (
	"time"

	"github.com/google/uuid"
)

// Priority represents the urgency of a task
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// IsValid reports whether p is one of the known priority levels
func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Workspace is a named partition of a user's tasks used for filtering views
type Workspace string

const (
	WorkspacePersonal Workspace = "personal"
	WorkspaceOffice   Workspace = "office"
	WorkspaceStartup  Workspace = "startup"
)

// IsValid reports whether w is one of the known workspaces
func (w Workspace) IsValid() bool {
	switch w {
	case WorkspacePersonal, WorkspaceOffice, WorkspaceStartup:
		return true
	}
	return false
}

// CommentAuthor identifies who wrote a comment
type CommentAuthor string

const (
	CommentAuthorUser CommentAuthor = "user"
	CommentAuthorAI   CommentAuthor = "ai"
)

// DateLayout is the calendar-date form used for due dates (no time component)
const DateLayout = "2006-01-02"

// Comment is an append-only note attached to a task or subtask
type Comment struct {
	ID        uuid.UUID     `json:"id"`
	Text      string        `json:"text"`
	Author    CommentAuthor `json:"author"`
	Timestamp time.Time     `json:"timestamp"`
}

// Subtask is owned exclusively by its parent task and removed with it
type Subtask struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	IsCompleted bool      `json:"is_completed"`
	Comments    []Comment `json:"comments"`
}

// Task represents a task item
type Task struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Priority    Priority  `json:"priority"`
	Category    string    `json:"category,omitempty"`
	IsCompleted bool      `json:"is_completed"`
	DueDate     *string   `json:"due_date,omitempty"` // YYYY-MM-DD, no time component
	Subtasks    []Subtask `json:"subtasks"`
	Comments    []Comment `json:"comments"`
	Workspace   Workspace `json:"workspace"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the task. Undo snapshots rely on copies that
// cannot be mutated through the live task set.
func (t *Task) Clone() *Task {
	c := *t
	if t.DueDate != nil {
		due := *t.DueDate
		c.DueDate = &due
	}
	c.Subtasks = make([]Subtask, len(t.Subtasks))
	for i, st := range t.Subtasks {
		c.Subtasks[i] = st
		c.Subtasks[i].Comments = append([]Comment(nil), st.Comments...)
	}
	c.Comments = append([]Comment(nil), t.Comments...)
	return &c
}

// CloneTasks deep-copies a task list.
func CloneTasks(tasks []*Task) []*Task {
	out := make([]*Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

// ValidDueDate reports whether s is a valid calendar date string.
func ValidDueDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
