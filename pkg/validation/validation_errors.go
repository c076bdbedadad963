package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// FieldMessage is one user-friendly validation message for a field
type FieldMessage struct {
	Field   string
	Message string
}

// FieldLabels maps json field names to user-friendly labels
var FieldLabels = map[string]string{
	"firstName":   "First name",
	"lastName":    "Last name",
	"email":       "Email",
	"projectType": "Project type",
	"message":     "Message",
}

// requiredMessages overrides the generic "is required" text per field
var requiredMessages = map[string]string{
	"projectType": "Please select a project type",
}

// FormatValidationErrors converts validator.ValidationErrors to user-friendly messages
func FormatValidationErrors(err error) []FieldMessage {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		// Not a validation error, return generic message
		return []FieldMessage{{Field: "", Message: err.Error()}}
	}

	messages := make([]FieldMessage, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, FieldMessage{
			Field:   e.Field(),
			Message: formatSingleError(e),
		})
	}

	return messages
}

// formatSingleError formats a single validation error to a user-friendly message
func formatSingleError(e validator.FieldError) string {
	fieldName := e.Field()
	label := getFieldLabel(fieldName)
	param := e.Param()

	switch e.Tag() {
	case "required":
		if msg, ok := requiredMessages[fieldName]; ok {
			return msg
		}
		return fmt.Sprintf("%s is required", label)

	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, param)

	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, param)

	case "email", "contact_email":
		return "Please enter a valid email address"

	case "single_line":
		return fmt.Sprintf("%s must not contain line breaks", label)

	default:
		return fmt.Sprintf("%s is invalid (%s)", label, e.Tag())
	}
}

// getFieldLabel returns the user-friendly label for a field
func getFieldLabel(fieldName string) string {
	if label, ok := FieldLabels[fieldName]; ok {
		return label
	}
	return fieldName
}
