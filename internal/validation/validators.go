package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/taskdeck/taskdeck-api/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("priority", validatePriority); err != nil {
		panic(fmt.Sprintf("failed to register priority validator: %v", err))
	}
	if err := Validate.RegisterValidation("workspace", validateWorkspace); err != nil {
		panic(fmt.Sprintf("failed to register workspace validator: %v", err))
	}
	if err := Validate.RegisterValidation("due_date", validateDueDate); err != nil {
		panic(fmt.Sprintf("failed to register due_date validator: %v", err))
	}
}

func validatePriority(fl validator.FieldLevel) bool {
	switch models.Priority(fl.Field().String()) {
	case models.PriorityHigh, models.PriorityMedium, models.PriorityLow:
		return true
	default:
		return false
	}
}

func validateWorkspace(fl validator.FieldLevel) bool {
	switch models.Workspace(fl.Field().String()) {
	case models.WorkspacePersonal, models.WorkspaceOffice, models.WorkspaceStartup:
		return true
	default:
		return false
	}
}

func validateDueDate(fl validator.FieldLevel) bool {
	return models.ValidDueDate(fl.Field().String())
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidatePriority validates a Priority string value
func ValidatePriority(value string) error {
	switch models.Priority(value) {
	case models.PriorityHigh, models.PriorityMedium, models.PriorityLow:
		return nil
	default:
		return fmt.Errorf("invalid priority: %s (must be 'High', 'Medium', or 'Low')", value)
	}
}

// ValidateWorkspace validates a Workspace string value
func ValidateWorkspace(value string) error {
	switch models.Workspace(value) {
	case models.WorkspacePersonal, models.WorkspaceOffice, models.WorkspaceStartup:
		return nil
	default:
		return fmt.Errorf("invalid workspace: %s (must be 'personal', 'office', or 'startup')", value)
	}
}

// ValidateDueDate validates a calendar-date string (YYYY-MM-DD)
func ValidateDueDate(value string) error {
	if !models.ValidDueDate(value) {
		return fmt.Errorf("invalid due date: %s (must be YYYY-MM-DD)", value)
	}
	return nil
}
