package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/taskdeck/taskdeck-api/internal/database"
	"github.com/taskdeck/taskdeck-api/internal/middleware"
	"github.com/taskdeck/taskdeck-api/internal/models"
	"github.com/taskdeck/taskdeck-api/internal/services/command"
	"github.com/taskdeck/taskdeck-api/internal/validation"
)

// TaskHandler handles direct task CRUD requests. Edits made here bypass the
// command center, so each mutation invalidates the user's command session.
type TaskHandler struct {
	taskRepo database.TaskStore
	center   *command.Center
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskRepo database.TaskStore, center *command.Center) *TaskHandler {
	return &TaskHandler{taskRepo: taskRepo, center: center}
}

// RegisterRoutes registers task routes on the given router
// The router should already have the /tasks prefix
func (h *TaskHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTasks).Methods("GET")
	r.HandleFunc("", h.CreateTask).Methods("POST")
	r.HandleFunc("/{id}", h.GetTask).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateTask).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteTask).Methods("DELETE")
	r.HandleFunc("/{id}/complete", h.CompleteTask).Methods("POST")
}

const (
	// MaxTitleLength is the maximum length for a task title
	MaxTitleLength = 500
	// MaxDescriptionLength is the maximum length for a task description
	MaxDescriptionLength = 10000
)

// CreateTaskRequest represents a create task request
type CreateTaskRequest struct {
	Title       string            `json:"title" validate:"required,min=1,max=500"`
	Description string            `json:"description,omitempty" validate:"max=10000"`
	Priority    *models.Priority  `json:"priority,omitempty"`
	Category    string            `json:"category,omitempty" validate:"max=100"`
	DueDate     *string           `json:"due_date,omitempty"`
	Workspace   *models.Workspace `json:"workspace,omitempty"`
}

// UpdateTaskRequest represents an update task request
type UpdateTaskRequest struct {
	Title       *string           `json:"title,omitempty"`
	Description *string           `json:"description,omitempty"`
	Priority    *models.Priority  `json:"priority,omitempty"`
	Category    *string           `json:"category,omitempty"`
	IsCompleted *bool             `json:"is_completed,omitempty"`
	DueDate     *string           `json:"due_date,omitempty"`
	Workspace   *models.Workspace `json:"workspace,omitempty"`
}

// ListTasks lists tasks for the authenticated user, optionally filtered by
// workspace
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	ctx := r.Context()

	var workspace *models.Workspace
	if ws := r.URL.Query().Get("workspace"); ws != "" {
		if err := validation.ValidateWorkspace(ws); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		wsEnum := models.Workspace(ws)
		workspace = &wsEnum
	}

	limit, offset, err := pageParams(r)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	tasks, err := h.taskRepo.ListByUser(ctx, user.ID, workspace)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve tasks")
		return
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}

	respondJSON(w, http.StatusOK, pageSlice(tasks, limit, offset))
}

// pageParams reads optional limit/offset query parameters. Zero limit means
// no cap.
func pageParams(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return 0, 0, fmt.Errorf("limit must be a non-negative integer")
		}
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("offset must be a non-negative integer")
		}
	}
	return limit, offset, nil
}

func pageSlice(tasks []*models.Task, limit, offset int) []*models.Task {
	if offset >= len(tasks) {
		return []*models.Task{}
	}
	tasks = tasks[offset:]
	if limit > 0 && limit < len(tasks) {
		tasks = tasks[:limit]
	}
	return tasks
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldError := range validationErrors {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", fieldError.Error()))
				return
			}
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return
	}

	req.Title = validation.SanitizeText(req.Title)
	if req.Title == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title is required and cannot be empty after sanitization")
		return
	}
	if req.Priority != nil && !req.Priority.IsValid() {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid priority")
		return
	}
	if req.Workspace != nil && !req.Workspace.IsValid() {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid workspace")
		return
	}
	if req.DueDate != nil && !models.ValidDueDate(*req.DueDate) {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Due date must be a YYYY-MM-DD calendar date")
		return
	}

	now := time.Now()
	task := &models.Task{
		ID:          uuid.New(),
		UserID:      user.ID,
		Title:       req.Title,
		Description: validation.SanitizeText(req.Description),
		Priority:    models.PriorityMedium,
		Category:    req.Category,
		DueDate:     req.DueDate,
		Subtasks:    []models.Subtask{},
		Comments:    []models.Comment{},
		Workspace:   models.WorkspacePersonal,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.Workspace != nil {
		task.Workspace = *req.Workspace
	}

	ctx := r.Context()
	if err := h.taskRepo.Create(ctx, task); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create task")
		return
	}

	h.center.Invalidate(user.ID)
	respondJSON(w, http.StatusCreated, task)
}

// GetTask retrieves a task by ID
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	task, ok := h.lookupTask(w, r, user.ID)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// UpdateTask updates an existing task
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	task, ok := h.lookupTask(w, r, user.ID)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if req.Title != nil {
		sanitized := validation.SanitizeText(*req.Title)
		if sanitized == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title cannot be empty after sanitization")
			return
		}
		if len(sanitized) > MaxTitleLength {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Title exceeds maximum length of %d characters", MaxTitleLength))
			return
		}
		task.Title = sanitized
	}
	if req.Description != nil {
		sanitized := validation.SanitizeText(*req.Description)
		if len(sanitized) > MaxDescriptionLength {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Description exceeds maximum length of %d characters", MaxDescriptionLength))
			return
		}
		task.Description = sanitized
	}
	if req.Priority != nil {
		if !req.Priority.IsValid() {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid priority")
			return
		}
		task.Priority = *req.Priority
	}
	if req.Category != nil {
		task.Category = *req.Category
	}
	if req.IsCompleted != nil {
		task.IsCompleted = *req.IsCompleted
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			task.DueDate = nil
		} else {
			if !models.ValidDueDate(*req.DueDate) {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", "Due date must be a YYYY-MM-DD calendar date")
				return
			}
			task.DueDate = req.DueDate
		}
	}
	if req.Workspace != nil {
		if !req.Workspace.IsValid() {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid workspace")
			return
		}
		task.Workspace = *req.Workspace
	}

	if err := h.taskRepo.Update(r.Context(), task); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update task")
		return
	}

	h.center.Invalidate(user.ID)
	respondJSON(w, http.StatusOK, task)
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	task, ok := h.lookupTask(w, r, user.ID)
	if !ok {
		return
	}

	if err := h.taskRepo.Delete(r.Context(), user.ID, task.ID); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete task")
		return
	}

	h.center.Invalidate(user.ID)
	w.WriteHeader(http.StatusNoContent)
}

// CompleteTask marks a task as completed
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	task, ok := h.lookupTask(w, r, user.ID)
	if !ok {
		return
	}

	task.IsCompleted = true
	if err := h.taskRepo.Update(r.Context(), task); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to complete task")
		return
	}

	h.center.Invalidate(user.ID)
	respondJSON(w, http.StatusOK, task)
}

// lookupTask parses the path id, fetches the task and verifies ownership,
// writing the error response itself when anything fails
func (h *TaskHandler) lookupTask(w http.ResponseWriter, r *http.Request, userID uuid.UUID) (*models.Task, bool) {
	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid task ID")
		return nil, false
	}

	task, err := h.taskRepo.GetByID(r.Context(), id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return nil, false
	}

	if task.UserID != userID {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Task does not belong to user")
		return nil, false
	}

	return task, true
}
