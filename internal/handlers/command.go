package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/taskdeck/taskdeck-api/internal/middleware"
	"github.com/taskdeck/taskdeck-api/internal/services/command"
	"github.com/taskdeck/taskdeck-api/internal/services/llm"
	"github.com/taskdeck/taskdeck-api/internal/validation"
)

// MaxCommandLength bounds the free-form command text
const MaxCommandLength = 2000

// CommandHandler exposes the natural-language command pipeline
type CommandHandler struct {
	center *command.Center
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(center *command.Center) *CommandHandler {
	return &CommandHandler{center: center}
}

// RegisterRoutes registers command routes on the given router
// The router should already have the /command prefix
func (h *CommandHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.SubmitCommand).Methods("POST")
	r.HandleFunc("/confirm", h.Confirm).Methods("POST")
	r.HandleFunc("/cancel", h.Cancel).Methods("POST")
	r.HandleFunc("/undo", h.Undo).Methods("POST")
	r.HandleFunc("/history", h.GetHistory).Methods("GET")
	r.HandleFunc("/history", h.ClearHistory).Methods("DELETE")
}

// SubmitCommandRequest represents a natural-language command submission
type SubmitCommandRequest struct {
	Command string            `json:"command" validate:"required,min=1,max=2000"`
	Context command.UIContext `json:"context"`
}

// SubmitCommand runs one command through interpretation and either applies it
// or returns it pending confirmation
func (h *CommandHandler) SubmitCommand(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req SubmitCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	req.Command = validation.SanitizeText(req.Command)
	if req.Command == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Command is required and cannot be empty after sanitization")
		return
	}
	if len(req.Command) > MaxCommandLength {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Command exceeds maximum length of %d characters", MaxCommandLength))
		return
	}

	outcome, err := h.center.HandleCommand(r.Context(), user.ID, req.Command, req.Context)
	if err != nil {
		h.respondCommandError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, outcome)
}

// Confirm applies the batch that is waiting for confirmation
func (h *CommandHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	outcome, err := h.center.Confirm(r.Context(), user.ID)
	if err != nil {
		h.respondCommandError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, outcome)
}

// Cancel discards the batch that is waiting for confirmation
func (h *CommandHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	if err := h.center.Cancel(r.Context(), user.ID); err != nil {
		h.respondCommandError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// UndoResponse reports the result of an undo request
type UndoResponse struct {
	Undone bool `json:"undone"`
	Tasks  any  `json:"tasks,omitempty"`
}

// Undo reverts the most recently applied batch. An empty undo slot is
// reported as undone=false, not as an error.
func (h *CommandHandler) Undo(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	tasks, ok, err := h.center.Undo(r.Context(), user.ID)
	if err != nil {
		h.respondCommandError(w, err)
		return
	}

	resp := UndoResponse{Undone: ok}
	if ok {
		resp.Tasks = tasks
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetHistory returns the user's applied-command history
func (h *CommandHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	history, err := h.center.History(r.Context(), user.ID)
	if err != nil {
		h.respondCommandError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// ClearHistory empties the user's command history
func (h *CommandHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	if err := h.center.ClearHistory(r.Context(), user.ID); err != nil {
		h.respondCommandError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// respondCommandError maps pipeline errors to HTTP statuses
func (h *CommandHandler) respondCommandError(w http.ResponseWriter, err error) {
	switch {
	case llm.IsModelUnavailable(err):
		respondJSONError(w, http.StatusServiceUnavailable, "Model Unavailable", "All language model providers are currently unreachable")
	case command.IsInterpretationFailed(err):
		respondJSONError(w, http.StatusUnprocessableEntity, "Interpretation Failed", "The command could not be interpreted; try rephrasing it")
	case errors.Is(err, command.ErrNoPendingAction):
		respondJSONError(w, http.StatusConflict, "No Pending Action", "There is no command waiting for confirmation")
	default:
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to process command")
	}
}
