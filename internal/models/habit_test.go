package models

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	h := ApplyDefaults(Habit{Name: "Meditate"})

	if h.Category != "Mind" {
		t.Errorf("Category = %q, want Mind", h.Category)
	}
	if h.GoalValue != 1 {
		t.Errorf("GoalValue = %v, want 1", h.GoalValue)
	}
	if h.Unit != UnitCount {
		t.Errorf("Unit = %q, want count", h.Unit)
	}
	if h.Priority != PriorityNormal || h.PriorityTime != PriorityTimeAllDay {
		t.Errorf("priority defaults = %q/%q", h.Priority, h.PriorityTime)
	}
	if !reflect.DeepEqual(h.CustomDays, []int{0, 1, 2, 3, 4, 5, 6}) {
		t.Errorf("CustomDays = %v, want all weekdays", h.CustomDays)
	}
	if h.PeriodAnchor() != time.Monday {
		t.Errorf("PeriodAnchor = %v, want Monday", h.PeriodAnchor())
	}
	if h.Steps == nil || len(h.Steps) != 0 {
		t.Errorf("Steps = %#v, want empty non-nil slice", h.Steps)
	}
}

func TestApplyDefaultsKeepsProvidedValues(t *testing.T) {
	h := ApplyDefaults(Habit{
		Name:           "Read",
		Category:       "Learning",
		GoalValue:      30,
		Unit:           UnitPages,
		CustomDays:     []int{},
		PeriodStartDay: StartDay(time.Wednesday),
	})

	if h.Category != "Learning" || h.GoalValue != 30 || h.Unit != UnitPages {
		t.Errorf("provided values overwritten: %+v", h)
	}
	if h.CustomDays == nil || len(h.CustomDays) != 0 {
		t.Errorf("explicit empty schedule lost: %#v", h.CustomDays)
	}
	if h.PeriodAnchor() != time.Wednesday {
		t.Errorf("PeriodAnchor = %v, want Wednesday", h.PeriodAnchor())
	}
}

func TestApplyDefaultsDoesNotAliasWeekdays(t *testing.T) {
	a := ApplyDefaults(Habit{Name: "a"})
	a.CustomDays[0] = 6

	b := ApplyDefaults(Habit{Name: "b"})
	if b.CustomDays[0] != 0 {
		t.Fatalf("default schedule shared between habits: %v", b.CustomDays)
	}
}

func TestScheduledOn(t *testing.T) {
	tests := []struct {
		name string
		days []int
		wd   time.Weekday
		want bool
	}{
		{"nil schedule means every day", nil, time.Saturday, true},
		{"empty schedule means never", []int{}, time.Monday, false},
		{"listed weekday", []int{1, 3, 5}, time.Wednesday, true},
		{"unlisted weekday", []int{1, 3, 5}, time.Sunday, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Habit{CustomDays: tt.days}
			if got := h.ScheduledOn(tt.wd); got != tt.want {
				t.Errorf("ScheduledOn(%v) = %v, want %v", tt.wd, got, tt.want)
			}
		})
	}
}

func TestHabitPatchApply(t *testing.T) {
	base := ApplyDefaults(Habit{ID: "h1", Name: "Run", CreatedAt: 42})

	name := "Run far"
	goal := 5.0
	days := []int{6}
	patched := HabitPatch{Name: &name, GoalValue: &goal, CustomDays: &days}.Apply(base)

	if patched.ID != "h1" || patched.CreatedAt != 42 {
		t.Errorf("immutable fields changed: %+v", patched)
	}
	if patched.Name != name || patched.GoalValue != goal {
		t.Errorf("patch not applied: %+v", patched)
	}
	if !reflect.DeepEqual(patched.CustomDays, []int{6}) {
		t.Errorf("CustomDays = %v", patched.CustomDays)
	}
	if patched.Category != base.Category {
		t.Errorf("unset field changed: %q", patched.Category)
	}

	days[0] = 0
	if patched.CustomDays[0] != 6 {
		t.Error("patched habit aliases caller slice")
	}

	if !(HabitPatch{}).IsEmpty() {
		t.Error("zero patch should be empty")
	}
	if (HabitPatch{Name: &name}).IsEmpty() {
		t.Error("patch with name should not be empty")
	}
}

func TestHabitMatches(t *testing.T) {
	h := Habit{ID: "abc", Name: "Morning Walk"}
	if !h.Matches("abc") || !h.Matches("morning walk") {
		t.Error("expected id and case-insensitive name to match")
	}
	if h.Matches("walk") {
		t.Error("partial name should not match")
	}
}

func TestRecordToggleStep(t *testing.T) {
	r := HabitRecord{HabitID: "h", Value: 2}

	r = r.ToggleStep("s1")
	if !r.HasStep("s1") || !r.HasStepCompletions() {
		t.Fatalf("step not added: %+v", r)
	}

	r = r.ToggleStep("s1")
	if r.HasStep("s1") || r.HasStepCompletions() {
		t.Fatalf("step not removed: %+v", r)
	}
	if r.CompletedSteps != nil {
		t.Errorf("empty completions should be nil, got %#v", r.CompletedSteps)
	}
	if !r.HasProgress() {
		t.Error("value facet changed by step toggle")
	}
}

func TestStateNormalize(t *testing.T) {
	s := HabitState{}.Normalize()
	if s.Habits == nil || s.Records == nil {
		t.Fatalf("Normalize left nil collections: %#v", s)
	}
}

func TestStateUnmarshalLenient(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantHabits  int
		wantRecords int
		wantErr     bool
	}{
		{"both arrays", `{"habits":[{"id":"a","name":"A"}],"records":[{"habitId":"a","timestamp":1,"value":1}]}`, 1, 1, false},
		{"missing records", `{"habits":[{"id":"a","name":"A"}]}`, 1, 0, false},
		{"habits not an array", `{"habits":{"id":"a"},"records":[]}`, 0, 0, false},
		{"null document", `null`, 0, 0, false},
		{"malformed", `{"habits":[`, 0, 0, true},
		{"top-level array", `[1,2]`, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s HabitState
			err := json.Unmarshal([]byte(tt.input), &s)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(s.Habits) != tt.wantHabits || len(s.Records) != tt.wantRecords {
				t.Errorf("got %d habits / %d records, want %d / %d", len(s.Habits), len(s.Records), tt.wantHabits, tt.wantRecords)
			}
		})
	}
}

func TestStateJSONRoundTrip(t *testing.T) {
	want := HabitState{
		Habits: []Habit{ApplyDefaults(Habit{
			ID:            "h1",
			Name:          "Stretch",
			FrequencyType: FrequencyPeriod,
			Steps:         []HabitStep{{ID: "s1", Text: "Neck"}},
			CreatedAt:     1700000000000,
		})},
		Records: []HabitRecord{
			{HabitID: "h1", Timestamp: 1700000001000, Value: 1},
			{HabitID: "h1", Timestamp: 1700000002000, Value: 0, CompletedSteps: []string{"s1", "gone"}},
			{HabitID: "h1", Timestamp: 1700000003000, Value: 2, CompletedSteps: []string{}},
		},
	}

	data, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got HabitState
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch\n got: %#v\nwant: %#v", got, want)
	}
}

func TestRecordMarshalCompletedSteps(t *testing.T) {
	tests := []struct {
		name  string
		steps []string
		want  string
	}{
		{"nil omitted", nil, `{"habitId":"h","timestamp":1,"value":1}`},
		{"empty kept", []string{}, `{"habitId":"h","timestamp":1,"value":1,"completedSteps":[]}`},
		{"values", []string{"a"}, `{"habitId":"h","timestamp":1,"value":1,"completedSteps":["a"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(HabitRecord{HabitID: "h", Timestamp: 1, Value: 1, CompletedSteps: tt.steps})
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != tt.want {
				t.Errorf("Marshal = %s, want %s", data, tt.want)
			}
		})
	}
}

func TestStateLookups(t *testing.T) {
	s := HabitState{
		Habits:  []Habit{{ID: "a"}, {ID: "b"}},
		Records: []HabitRecord{{HabitID: "a", Value: 1}, {HabitID: "b"}, {HabitID: "a", Value: 2}},
	}
	if _, ok := s.Habit("b"); !ok {
		t.Error("Habit(b) not found")
	}
	if s.HabitIndex("zzz") != -1 {
		t.Error("HabitIndex of unknown id should be -1")
	}
	if got := s.RecordsFor("a"); len(got) != 2 || got[1].Value != 2 {
		t.Errorf("RecordsFor(a) = %+v", got)
	}
}
