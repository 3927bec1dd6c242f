package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/taskdeck/taskdeck-api/internal/database"
	"github.com/taskdeck/taskdeck-api/internal/middleware"
	"github.com/taskdeck/taskdeck-api/internal/models"
	"github.com/taskdeck/taskdeck-api/internal/services/command"
	"github.com/taskdeck/taskdeck-api/internal/services/llm"
)

// memStore is a minimal in-memory TaskStore for handler tests
type memStore struct {
	tasks map[uuid.UUID]*models.Task
}

var _ database.TaskStore = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{tasks: make(map[uuid.UUID]*models.Task)}
}

func (s *memStore) ListByUser(_ context.Context, userID uuid.UUID, workspace *models.Workspace) ([]*models.Task, error) {
	var out []*models.Task
	for _, t := range s.tasks {
		if t.UserID != userID {
			continue
		}
		if workspace != nil && t.Workspace != *workspace {
			continue
		}
		out = append(out, t.Clone())
	}
	return out, nil
}

func (s *memStore) Create(_ context.Context, task *models.Task) error {
	s.tasks[task.ID] = task.Clone()
	return nil
}

func (s *memStore) Update(_ context.Context, task *models.Task) error {
	s.tasks[task.ID] = task.Clone()
	return nil
}

func (s *memStore) Delete(_ context.Context, _, id uuid.UUID) error {
	delete(s.tasks, id)
	return nil
}

func (s *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.Task, error) {
	if t, ok := s.tasks[id]; ok {
		return t.Clone(), nil
	}
	return nil, errors.New("not found")
}

// scriptedGenerator returns a canned response or error
type scriptedGenerator struct {
	response string
	err      error
}

func (g *scriptedGenerator) Generate(context.Context, llm.GenerateRequest) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

func newCommandRouter(gen command.Generator, store database.TaskStore) *mux.Router {
	center := command.NewCenter(store, gen, nil, command.Options{}, zap.NewNop())
	handler := NewCommandHandler(center)
	r := mux.NewRouter()
	handler.RegisterRoutes(r.PathPrefix("/command").Subrouter())
	return r
}

func authedRequest(method, target string, body []byte) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	user := &models.User{ID: uuid.New(), Email: "test@example.com"}
	return req.WithContext(middleware.SetUserInContext(req.Context(), user))
}

func TestSubmitCommand_Applied(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{response: `{"added": [{"title": "Buy milk"}], "aiResponse": "Added it."}`}
	router := newCommandRouter(gen, newMemStore())

	body, _ := json.Marshal(SubmitCommandRequest{Command: "add buy milk"})
	req := authedRequest("POST", "/command", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success {
		t.Error("expected success envelope")
	}
	if resp.Data.Status != string(command.StatusApplied) {
		t.Errorf("status = %q, want applied", resp.Data.Status)
	}
	if resp.Data.Message != "Added it." {
		t.Errorf("message = %q", resp.Data.Message)
	}
}

func TestSubmitCommand_PendingConfirmation(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	store := newMemStore()
	victim := &models.Task{ID: uuid.New(), UserID: userID, Title: "old", Priority: models.PriorityLow, Workspace: models.WorkspacePersonal}
	store.tasks[victim.ID] = victim

	gen := &scriptedGenerator{response: `{"deletedIds": ["` + victim.ID.String() + `"], "aiResponse": "Delete?"}`}
	center := command.NewCenter(store, gen, nil, command.Options{}, zap.NewNop())
	handler := NewCommandHandler(center)
	router := mux.NewRouter()
	handler.RegisterRoutes(router.PathPrefix("/command").Subrouter())

	body, _ := json.Marshal(SubmitCommandRequest{Command: "delete the old task"})
	req := httptest.NewRequest("POST", "/command", bytes.NewReader(body))
	user := &models.User{ID: userID, Email: "test@example.com"}
	req = req.WithContext(middleware.SetUserInContext(req.Context(), user))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.Status != string(command.StatusPendingConfirmation) {
		t.Errorf("status = %q, want pending_confirmation", resp.Data.Status)
	}
}

func TestSubmitCommand_ModelUnavailable(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{err: &llm.ModelUnavailableError{
		PrimaryErr:   errors.New("timeout"),
		SecondaryErr: errors.New("refused"),
	}}
	router := newCommandRouter(gen, newMemStore())

	body, _ := json.Marshal(SubmitCommandRequest{Command: "anything"})
	req := authedRequest("POST", "/command", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestSubmitCommand_InterpretationFailed(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{response: "no json here at all"}
	router := newCommandRouter(gen, newMemStore())

	body, _ := json.Marshal(SubmitCommandRequest{Command: "garble"})
	req := authedRequest("POST", "/command", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestSubmitCommand_MissingUser(t *testing.T) {
	t.Parallel()

	router := newCommandRouter(&scriptedGenerator{response: "{}"}, newMemStore())

	body, _ := json.Marshal(SubmitCommandRequest{Command: "hello"})
	req := httptest.NewRequest("POST", "/command", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestSubmitCommand_EmptyCommand(t *testing.T) {
	t.Parallel()

	router := newCommandRouter(&scriptedGenerator{response: "{}"}, newMemStore())

	req := authedRequest("POST", "/command", []byte(`{"command": "   "}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestConfirm_NoPendingAction(t *testing.T) {
	t.Parallel()

	router := newCommandRouter(&scriptedGenerator{response: "{}"}, newMemStore())

	req := authedRequest("POST", "/command/confirm", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestUndo_EmptySlot(t *testing.T) {
	t.Parallel()

	router := newCommandRouter(&scriptedGenerator{response: "{}"}, newMemStore())

	req := authedRequest("POST", "/command/undo", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Data UndoResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.Undone {
		t.Error("undo with nothing to revert should report undone=false")
	}
}

func TestHistory_RoundTrip(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{response: `{"added": [{"title": "x"}], "aiResponse": "ok"}`}
	store := newMemStore()
	center := command.NewCenter(store, gen, nil, command.Options{}, zap.NewNop())
	handler := NewCommandHandler(center)
	router := mux.NewRouter()
	handler.RegisterRoutes(router.PathPrefix("/command").Subrouter())

	userID := uuid.New()
	user := &models.User{ID: userID, Email: "test@example.com"}
	authed := func(method, target string, body []byte) *http.Request {
		req := httptest.NewRequest(method, target, bytes.NewReader(body))
		return req.WithContext(middleware.SetUserInContext(req.Context(), user))
	}

	body, _ := json.Marshal(SubmitCommandRequest{Command: "add x"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authed("POST", "/command", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authed("GET", "/command/history", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d", rec.Code)
	}
	var histResp struct {
		Data []models.CommandHistoryEntry `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&histResp); err != nil {
		t.Fatal(err)
	}
	if len(histResp.Data) != 1 || histResp.Data[0].Command != "add x" {
		t.Errorf("unexpected history: %+v", histResp.Data)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authed("DELETE", "/command/history", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("clear status = %d", rec.Code)
	}
}
