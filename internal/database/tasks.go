package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/models"
)

// TaskStore is the contract the applier and handlers consume. It is a thin
// key-value-like facade: list/create/update/delete scoped to a user.
type TaskStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID, workspace *models.Workspace) ([]*models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
}

// TaskRepository handles task database operations
type TaskRepository struct {
	db *DB
}

var _ TaskStore = (*TaskRepository)(nil)

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, user_id, title, description, priority, category, is_completed, due_date, subtasks, comments, workspace, created_at, updated_at`

// Create creates a new task. Subtasks and comments are stored as JSONB owned
// by the task row, so deleting the row removes them with it.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`

	subtasksJSON, commentsJSON, err := marshalOwned(task)
	if err != nil {
		return err
	}

	now := time.Now()
	err = r.db.QueryRowContext(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.Priority,
		task.Category,
		task.IsCompleted,
		dueDateParam(task.DueDate),
		subtasksJSON,
		commentsJSON,
		task.Workspace,
		now,
		now,
	).Scan(&task.CreatedAt, &task.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetByID retrieves a task by ID
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

// ListByUser retrieves all tasks for a user, optionally filtered by workspace
func (r *TaskRepository) ListByUser(ctx context.Context, userID uuid.UUID, workspace *models.Workspace) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1`
	args := []any{userID}

	if workspace != nil {
		query += " AND workspace = $2"
		args = append(args, string(*workspace))
	}

	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// Update updates an existing task
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks
		SET title = $2, description = $3, priority = $4, category = $5,
		    is_completed = $6, due_date = $7, subtasks = $8, comments = $9,
		    workspace = $10, updated_at = $11
		WHERE id = $1
		RETURNING updated_at
	`

	subtasksJSON, commentsJSON, err := marshalOwned(task)
	if err != nil {
		return err
	}

	err = r.db.QueryRowContext(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.Priority,
		task.Category,
		task.IsCompleted,
		dueDateParam(task.DueDate),
		subtasksJSON,
		commentsJSON,
		task.Workspace,
		time.Now(),
	).Scan(&task.UpdatedAt)

	if err == sql.ErrNoRows {
		return fmt.Errorf("task not found")
	}
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	return nil
}

// Delete deletes a task by ID, scoped to its owner
func (r *TaskRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	query := `DELETE FROM tasks WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("task not found")
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	task := &models.Task{}
	var subtasksJSON, commentsJSON []byte
	var dueDate sql.NullTime

	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&task.Priority,
		&task.Category,
		&task.IsCompleted,
		&dueDate,
		&subtasksJSON,
		&commentsJSON,
		&task.Workspace,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if dueDate.Valid {
		due := dueDate.Time.Format(models.DateLayout)
		task.DueDate = &due
	}

	if err := json.Unmarshal(subtasksJSON, &task.Subtasks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal subtasks: %w", err)
	}
	if err := json.Unmarshal(commentsJSON, &task.Comments); err != nil {
		return nil, fmt.Errorf("failed to unmarshal comments: %w", err)
	}

	return task, nil
}

func marshalOwned(task *models.Task) (subtasks, comments []byte, err error) {
	if task.Subtasks == nil {
		task.Subtasks = []models.Subtask{}
	}
	if task.Comments == nil {
		task.Comments = []models.Comment{}
	}
	subtasks, err = json.Marshal(task.Subtasks)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal subtasks: %w", err)
	}
	comments, err = json.Marshal(task.Comments)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal comments: %w", err)
	}
	return subtasks, comments, nil
}

func dueDateParam(due *string) any {
	if due == nil {
		return nil
	}
	return *due
}
