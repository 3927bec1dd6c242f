package command

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskdeck/taskdeck-api/internal/models"
	"github.com/taskdeck/taskdeck-api/internal/services/llm"
	"github.com/taskdeck/taskdeck-api/internal/validation"
)

// Generator is the slice of the LLM gateway the interpreter needs
type Generator interface {
	Generate(ctx context.Context, req llm.GenerateRequest) (string, error)
}

// UIContext carries what the user is currently looking at, so the model can
// resolve references like "this list" or "the one I'm viewing".
type UIContext struct {
	View      string           `json:"view,omitempty"`
	Workspace models.Workspace `json:"workspace,omitempty"`
	FocusMode bool             `json:"focusMode,omitempty"`
}

// Interpreter turns free-form command text into a structured mutation batch
type Interpreter struct {
	gen    Generator
	logger *zap.Logger
	now    func() time.Time
}

func NewInterpreter(gen Generator, logger *zap.Logger) *Interpreter {
	return &Interpreter{
		gen:    gen,
		logger: logger,
		now:    time.Now,
	}
}

const systemInstruction = `You are the command interpreter for a personal task manager. The user gives you a natural-language command together with their current tasks. You respond with a single JSON object describing the mutations to perform:

{
  "added": [{"title": "...", "description": "...", "priority": "High|Medium|Low", "category": "...", "dueDate": "YYYY-MM-DD", "workspace": "personal|office|startup"}],
  "updated": [{"id": "<existing task id>", "updates": {<only the fields that change>}}],
  "deletedIds": ["<existing task id>"],
  "aiResponse": "one short sentence telling the user what you did"
}

Rules:
- Only reference task ids that appear in the task list you were given.
- "updates" carries only the fields the command changes; omit everything else.
- Completing a task means updating it with {"isCompleted": true}, not deleting it.
- Dates are YYYY-MM-DD. Resolve relative dates ("tomorrow", "next friday") against the current date you were given.
- If the command names no workspace, keep existing tasks in their workspace and place new tasks in the user's active workspace.
- If the command is a question or requires no changes, return empty arrays and answer in aiResponse.
- Respond with the JSON object only, no surrounding prose.`

// Interpret runs one command through the model. snapshot is the user's
// current tasks, recent the last few command texts oldest-first.
func (i *Interpreter) Interpret(ctx context.Context, input string, snapshot []*models.Task, recent []string, uiCtx UIContext) (*models.MutationBatch, error) {
	prompt := i.buildPrompt(input, snapshot, recent, uiCtx)

	raw, err := i.gen.Generate(ctx, llm.GenerateRequest{
		Prompt:            prompt,
		SystemInstruction: systemInstruction,
		StructuredOutput:  true,
	})
	if err != nil {
		return nil, err
	}

	batch, err := parseBatch(raw)
	if err != nil {
		preview := llm.SanitizeResponse(raw, false)
		i.logger.Warn("command_interpretation_failed",
			zap.Error(err),
			zap.String("response_preview", preview))
		return nil, &InterpretationError{Cause: err, Raw: preview}
	}

	i.logger.Debug("command_interpreted",
		zap.Int("added", len(batch.Added)),
		zap.Int("updated", len(batch.Updated)),
		zap.Int("deleted", len(batch.DeletedIDs)))

	return batch, nil
}

func (i *Interpreter) buildPrompt(input string, snapshot []*models.Task, recent []string, uiCtx UIContext) string {
	var b strings.Builder

	now := i.now()
	fmt.Fprintf(&b, "Current date: %s (%s, %s)\n", now.Format(models.DateLayout), now.Weekday(), timeOfDay(now))

	if uiCtx.Workspace != "" {
		fmt.Fprintf(&b, "Active workspace: %s\n", uiCtx.Workspace)
	}
	if uiCtx.View != "" {
		fmt.Fprintf(&b, "Current view: %s\n", uiCtx.View)
	}
	if uiCtx.FocusMode {
		b.WriteString("Focus mode: on\n")
	}

	b.WriteString("\nCurrent tasks:\n")
	if len(snapshot) == 0 {
		b.WriteString("(none)\n")
	}
	for _, t := range snapshot {
		fmt.Fprintf(&b, "- id=%s title=%q priority=%s workspace=%s completed=%t",
			t.ID, t.Title, t.Priority, t.Workspace, t.IsCompleted)
		if t.Category != "" {
			fmt.Fprintf(&b, " category=%q", t.Category)
		}
		if t.DueDate != nil {
			fmt.Fprintf(&b, " due=%s", *t.DueDate)
		}
		b.WriteString("\n")
	}

	if len(recent) > 0 {
		b.WriteString("\nRecent commands (oldest first):\n")
		for _, c := range recent {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}

	fmt.Fprintf(&b, "\nCommand: %s\n", input)
	return b.String()
}

// timeOfDay buckets the clock so the model can interpret phrases like
// "later today" or "this evening" sensibly
func timeOfDay(t time.Time) string {
	switch h := t.Hour(); {
	case h < 12:
		return "morning"
	case h < 17:
		return "afternoon"
	default:
		return "evening"
	}
}

// wire-format structs: ids arrive as strings and are validated here so a
// hallucinated id never reaches the applier as anything but a skip
type wireBatch struct {
	Added      []models.TaskDraft `json:"added"`
	Updated    []wirePatch        `json:"updated"`
	DeletedIDs []string           `json:"deletedIds"`
	AIResponse string             `json:"aiResponse"`
}

type wirePatch struct {
	ID      string             `json:"id"`
	Updates models.TaskUpdates `json:"updates"`
}

func parseBatch(raw string) (*models.MutationBatch, error) {
	cleaned := extractJSON(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	var wire wireBatch
	if err := json.Unmarshal([]byte(cleaned), &wire); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}

	batch := &models.MutationBatch{
		AIResponse: strings.TrimSpace(wire.AIResponse),
	}

	for _, d := range wire.Added {
		d.Title = validation.SanitizeText(d.Title)
		if d.Title == "" {
			continue
		}
		d.Description = validation.SanitizeText(d.Description)
		if d.Priority != "" && !d.Priority.IsValid() {
			d.Priority = ""
		}
		if d.Workspace != nil && !d.Workspace.IsValid() {
			d.Workspace = nil
		}
		if d.DueDate != nil && !models.ValidDueDate(*d.DueDate) {
			d.DueDate = nil
		}
		batch.Added = append(batch.Added, d)
	}

	for _, p := range wire.Updated {
		id, err := uuid.Parse(p.ID)
		if err != nil {
			// garbage id, same outcome as a stale one: skip
			continue
		}
		u := p.Updates
		if u.Priority != nil && !u.Priority.IsValid() {
			u.Priority = nil
		}
		if u.Workspace != nil && !u.Workspace.IsValid() {
			u.Workspace = nil
		}
		if u.DueDate != nil && *u.DueDate != "" && !models.ValidDueDate(*u.DueDate) {
			u.DueDate = nil
		}
		if u.Title != nil {
			t := validation.SanitizeText(*u.Title)
			u.Title = &t
		}
		batch.Updated = append(batch.Updated, models.TaskPatch{ID: id, Updates: u})
	}

	for _, s := range wire.DeletedIDs {
		id, err := uuid.Parse(s)
		if err != nil {
			continue
		}
		batch.DeletedIDs = append(batch.DeletedIDs, id)
	}

	return batch, nil
}

// extractJSON strips markdown code fences and pulls out the outermost JSON
// object, tolerating prose the model wraps around it
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return s[start : end+1]
}
