package errors

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// MaxIDLength bounds entity identifiers read from graph documents.
const MaxIDLength = 256

// ValidateEntityID validates an entity identifier read from a graph document.
// Identifiers appear in logs, reports and output documents, so the rules are
// conservative:
//   - No empty identifiers
//   - No control characters or null bytes
//   - Maximum length of MaxIDLength bytes
func ValidateEntityID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "entity id cannot be empty")
	}

	if len(id) > MaxIDLength {
		return New(ErrCodeInvalidInput, "entity id too long (max %d characters)", MaxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "entity id %q contains control characters", id)
		}
	}

	return nil
}

// ValidateFinite rejects NaN and infinite values. The field name is included
// in the error message.
func ValidateFinite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return New(ErrCodeInvalidInput, "%s must be finite, got %v", field, v)
	}
	return nil
}

// ValidateExtent validates a width/height pair. Both values must be finite
// and non-negative.
func ValidateExtent(field string, w, h float64) error {
	if err := ValidateFinite(field+" width", w); err != nil {
		return err
	}
	if err := ValidateFinite(field+" height", h); err != nil {
		return err
	}
	if w < 0 || h < 0 {
		return New(ErrCodeInvalidInput, "%s must be non-negative, got %vx%v", field, w, h)
	}
	return nil
}

// ValidatePath validates a file path given on the command line or in a
// configuration file.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "path contains invalid characters")
		}
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidInput, "path cannot contain backslashes")
	}

	return nil
}

// algorithmNameRegex matches registered algorithm names ("force", "layered").
var algorithmNameRegex = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// ValidateAlgorithmName validates an algorithm name before registry lookup.
func ValidateAlgorithmName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidConfig, "algorithm name cannot be empty")
	}
	if !algorithmNameRegex.MatchString(name) {
		return New(ErrCodeInvalidConfig, "invalid algorithm name: %q", name)
	}
	return nil
}
