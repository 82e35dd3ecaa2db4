package errors

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/logger"
)

var (
	ErrHabitNotFound = errors.New("habit not found")
	ErrStepNotFound  = errors.New("step not found")
)

// ValidationError reports an import document that does not satisfy the
// expected shape. It is always returned to the caller, never swallowed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid document: %s", e.Reason)
	}
	return fmt.Sprintf("invalid document: %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Format prefixes err with "Error: ".
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Hint suggests a follow-up command for errors the user can act on.
func Hint(err error) string {
	var verr *ValidationError
	switch {
	case errors.Is(err, ErrHabitNotFound):
		return fmt.Sprintf("Run '%s habit list' to see habit names.", constants.AppName)
	case errors.Is(err, ErrStepNotFound):
		return fmt.Sprintf("Run '%s habit show <habit>' to see its steps.", constants.AppName)
	case errors.As(err, &verr):
		return "The file was not changed. Check that it was produced by export or backup."
	}
	return ""
}

// Fatal logs err, prints it with any hint to stderr and exits with code 1.
// A nil err is a no-op.
func Fatal(err error) {
	if err == nil {
		return
	}
	logger.Error("Command execution failed", "error", err)
	fmt.Fprintln(os.Stderr, Format(err))
	if hint := Hint(err); hint != "" {
		fmt.Fprintln(os.Stderr, hint)
	}
	os.Exit(1)
}
