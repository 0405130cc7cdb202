package application

import (
	"fmt"
	"strings"
)

// ValidateRequired checks if a string field is non-empty (after trimming whitespace).
// Returns a ValidationError if the field is empty.
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		displayName := formatFieldName(fieldName)
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s is required", displayName),
		}
	}
	return nil
}

// formatFieldName converts camelCase field names to space-separated words
// for more readable error messages (e.g., "sessionID" -> "session ID")
func formatFieldName(fieldName string) string {
	replacements := map[string]string{
		"sessionID": "session ID",
		"source":    "source",
		"filter":    "filter",
	}

	if formatted, ok := replacements[fieldName]; ok {
		return formatted
	}

	return fieldName
}

// ValidateSource checks that a source tag names a supported session source.
// An empty tag is accepted and means "all sources".
func ValidateSource(fieldName, tag string) error {
	if tag == "" {
		return nil
	}
	if !KnownSource(tag) {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("unknown source: %s (expected claude or codex)", tag),
		}
	}
	return nil
}
