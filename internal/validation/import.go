package validation

import (
	"bytes"
	"encoding/json"

	apperrors "github.com/julianstephens/habitlit/internal/errors"
	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/models"
)

// ParseBackup validates a full-state import. Both collections must be
// present as JSON arrays; nothing is repaired.
func ParseBackup(data []byte) (models.HabitState, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.HabitState{}, apperrors.NewValidationError("", "not a JSON object: %v", err)
	}

	for _, field := range []string{"habits", "records"} {
		if !models.IsJSONArray(raw[field]) {
			return models.HabitState{}, apperrors.NewValidationError(field, "must be an array")
		}
	}

	var state models.HabitState
	if err := json.Unmarshal(raw["habits"], &state.Habits); err != nil {
		return models.HabitState{}, apperrors.NewValidationError("habits", "%v", err)
	}
	if err := json.Unmarshal(raw["records"], &state.Records); err != nil {
		return models.HabitState{}, apperrors.NewValidationError("records", "%v", err)
	}
	return state.Normalize(), nil
}

// ParseHabits validates a habits-only import. Entries that are not objects
// with a string id and a string name are dropped; an import left with no
// habits is rejected.
func ParseHabits(data []byte) ([]models.Habit, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, apperrors.NewValidationError("", "expected an array of habits")
	}

	var habits []models.Habit
	for i, entry := range entries {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(entry, &fields); err != nil || fields == nil {
			continue
		}
		if !isJSONString(fields["id"]) || !isJSONString(fields["name"]) {
			continue
		}
		var h models.Habit
		if err := json.Unmarshal(entry, &h); err != nil {
			logger.Warn("Skipping malformed habit", "index", i, "error", err)
			continue
		}
		habits = append(habits, h)
	}

	if len(habits) == 0 {
		return nil, apperrors.NewValidationError("", "no valid habits found")
	}
	return habits, nil
}

func isJSONString(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '"'
}
