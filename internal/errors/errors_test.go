package errors

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil error", nil, ""},
		{"simple error", errors.New("something went wrong"), "Error: something went wrong"},
		{"validation error", NewValidationError("habits", "must be an array"), "Error: invalid document: habits: must be an array"},
		{"document level", NewValidationError("", "no valid habits found"), "Error: invalid document: no valid habits found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.err); got != tt.expected {
				t.Errorf("Format(%v) = %q, want %q", tt.err, got, tt.expected)
			}
		})
	}
}

func TestHint(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"wrapped habit", fmt.Errorf("%w: Read", ErrHabitNotFound), "habit list"},
		{"wrapped step", fmt.Errorf("%w in Read: 4", ErrStepNotFound), "habit show"},
		{"joined validation", errors.Join(errors.New("import failed"), NewValidationError("records", "must be an array")), "was not changed"},
		{"plain", errors.New("disk full"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Hint(tt.err)
			if tt.want == "" && got != "" {
				t.Errorf("Hint() = %q, want none", got)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("Hint() = %q, want to contain %q", got, tt.want)
			}
		})
	}
}

func TestFatal(t *testing.T) {
	if os.Getenv("GO_TEST_FATAL") == "1" {
		Fatal(fmt.Errorf("%w: Read", ErrHabitNotFound))
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestFatal$")
	cmd.Env = append(os.Environ(), "GO_TEST_FATAL=1")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Fatal() did not exit with error: %v", err)
	}
	if exitErr.ExitCode() != 1 {
		t.Errorf("exit code = %d, want 1", exitErr.ExitCode())
	}
	for _, want := range []string{"Error: habit not found: Read", "habit list"} {
		if !strings.Contains(stderr.String(), want) {
			t.Errorf("stderr = %q, want to contain %q", stderr.String(), want)
		}
	}
}

func TestFatal_NilError(t *testing.T) {
	if os.Getenv("GO_TEST_FATAL_NIL") == "1" {
		Fatal(nil)
		os.Exit(0)
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestFatal_NilError$")
	cmd.Env = append(os.Environ(), "GO_TEST_FATAL_NIL=1")
	if err := cmd.Run(); err != nil {
		t.Errorf("Fatal(nil) should not exit, got %v", err)
	}
}
