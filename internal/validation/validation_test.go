package validation

import (
	"errors"
	"strings"
	"testing"

	apperrors "github.com/julianstephens/habitlit/internal/errors"
	"github.com/julianstephens/habitlit/internal/models"
)

func habit(id, name string) models.Habit {
	return models.ApplyDefaults(models.Habit{ID: id, Name: name})
}

func hasConflict(result ValidationResult, typ ConflictType) bool {
	for _, c := range result.Conflicts {
		if c.Type == typ {
			return true
		}
	}
	return false
}

func TestValidateState_Clean(t *testing.T) {
	state := models.HabitState{
		Habits:  []models.Habit{habit("1", "Read"), habit("2", "Run")},
		Records: []models.HabitRecord{{HabitID: "1", Value: 1, CompletedSteps: []string{"removed-step"}}},
	}

	result := New().ValidateState(state)
	if result.HasConflicts() {
		t.Errorf("Expected no conflicts, got: %s", result.FormatReport())
	}
	if result.FormatReport() != "No conflicts detected." {
		t.Errorf("unexpected report %q", result.FormatReport())
	}
}

func TestValidateState_Conflicts(t *testing.T) {
	badGoal := habit("3", "Walk")
	badGoal.GoalValue = 0
	badDays := habit("4", "Swim")
	badDays.CustomDays = []int{1, 8}
	badStart := habit("5", "Bike")
	badStart.PeriodStartDay = models.StartDay(9)
	badFreq := habit("6", "Row")
	badFreq.FrequencyType = "monthly"

	tests := []struct {
		name  string
		state models.HabitState
		want  ConflictType
	}{
		{"duplicate id", models.HabitState{Habits: []models.Habit{habit("1", "A"), habit("1", "B")}}, ConflictDuplicateHabitID},
		{"duplicate name", models.HabitState{Habits: []models.Habit{habit("1", "Read"), habit("2", "read")}}, ConflictDuplicateHabitName},
		{"invalid goal", models.HabitState{Habits: []models.Habit{badGoal}}, ConflictInvalidGoal},
		{"invalid custom day", models.HabitState{Habits: []models.Habit{badDays}}, ConflictInvalidWeekday},
		{"invalid period start", models.HabitState{Habits: []models.Habit{badStart}}, ConflictInvalidWeekday},
		{"unknown frequency", models.HabitState{Habits: []models.Habit{badFreq}}, ConflictUnknownFrequency},
		{"orphan record", models.HabitState{Records: []models.HabitRecord{{HabitID: "gone", Value: 1}}}, ConflictOrphanRecord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := New().ValidateState(tt.state)
			if !hasConflict(result, tt.want) {
				t.Errorf("Expected %s conflict, got: %s", tt.want, result.FormatReport())
			}
			if !strings.HasPrefix(result.FormatReport(), "Conflicts detected:") {
				t.Errorf("unexpected report %q", result.FormatReport())
			}
		})
	}
}

func TestParseBackup(t *testing.T) {
	state, err := ParseBackup([]byte(`{"habits":[{"id":"1","name":"Read","goalValue":2}],"records":[{"habitId":"1","timestamp":5,"value":1}]}`))
	if err != nil {
		t.Fatalf("ParseBackup failed: %v", err)
	}
	if len(state.Habits) != 1 || state.Habits[0].GoalValue != 2 {
		t.Errorf("unexpected habits %+v", state.Habits)
	}
	if len(state.Records) != 1 || state.Records[0].Timestamp != 5 {
		t.Errorf("unexpected records %+v", state.Records)
	}

	empty, err := ParseBackup([]byte(`{"habits":[],"records":[]}`))
	if err != nil {
		t.Fatalf("empty backup rejected: %v", err)
	}
	if empty.Habits == nil || empty.Records == nil {
		t.Error("expected normalized collections")
	}
}

func TestParseBackupRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{"malformed", `{"habits":`, ""},
		{"top-level array", `[]`, ""},
		{"missing records", `{"habits":[]}`, "records"},
		{"missing habits", `{"records":[]}`, "habits"},
		{"habits not array", `{"habits":{},"records":[]}`, "habits"},
		{"records null", `{"habits":[],"records":null}`, "records"},
		{"wrong element type", `{"habits":[{"goalValue":"x"}],"records":[]}`, "habits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBackup([]byte(tt.input))
			var verr *apperrors.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
}

func TestParseHabits(t *testing.T) {
	input := `[
		{"id":"1","name":"Read"},
		{"id":2,"name":"numeric id"},
		{"id":"3"},
		{"id":null,"name":"null id"},
		"not an object",
		{"id":"4","name":"Bad goal","goalValue":"x"},
		{"id":"5","name":"Run","customDays":[1,3]}
	]`

	habits, err := ParseHabits([]byte(input))
	if err != nil {
		t.Fatalf("ParseHabits failed: %v", err)
	}
	if len(habits) != 2 || habits[0].ID != "1" || habits[1].ID != "5" {
		t.Fatalf("unexpected habits %+v", habits)
	}
	if len(habits[1].CustomDays) != 2 {
		t.Errorf("expected fields decoded, got %+v", habits[1])
	}
}

func TestParseHabitsRejects(t *testing.T) {
	for _, input := range []string{`{"habits":[]}`, `[]`, `[{"name":"x"}]`, `nope`} {
		_, err := ParseHabits([]byte(input))
		var verr *apperrors.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("ParseHabits(%s) error = %v, want ValidationError", input, err)
		}
	}
}
