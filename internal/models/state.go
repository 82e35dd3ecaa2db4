package models

import (
	"bytes"
	"encoding/json"
)

// HabitState is the whole persisted document.
type HabitState struct {
	Habits  []Habit       `json:"habits"`
	Records []HabitRecord `json:"records"`
}

// Normalize guarantees both collections are non-nil.
func (s HabitState) Normalize() HabitState {
	if s.Habits == nil {
		s.Habits = []Habit{}
	}
	if s.Records == nil {
		s.Records = []HabitRecord{}
	}
	return s
}

// UnmarshalJSON decodes leniently: a collection that is present but not an
// array is treated as empty, while malformed JSON is still an error.
func (s *HabitState) UnmarshalJSON(data []byte) error {
	var raw struct {
		Habits  json.RawMessage `json:"habits"`
		Records json.RawMessage `json:"records"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var out HabitState
	if IsJSONArray(raw.Habits) {
		if err := json.Unmarshal(raw.Habits, &out.Habits); err != nil {
			return err
		}
	}
	if IsJSONArray(raw.Records) {
		if err := json.Unmarshal(raw.Records, &out.Records); err != nil {
			return err
		}
	}
	*s = out
	return nil
}

// IsJSONArray reports whether raw holds a JSON array literal.
func IsJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// Habit returns the habit with the given id.
func (s HabitState) Habit(id string) (Habit, bool) {
	i := s.HabitIndex(id)
	if i < 0 {
		return Habit{}, false
	}
	return s.Habits[i], true
}

// HabitIndex returns the position of the habit with the given id, or -1.
func (s HabitState) HabitIndex(id string) int {
	for i, h := range s.Habits {
		if h.ID == id {
			return i
		}
	}
	return -1
}

// RecordsFor returns the habit's records in ledger order.
func (s HabitState) RecordsFor(habitID string) []HabitRecord {
	var out []HabitRecord
	for _, r := range s.Records {
		if r.HabitID == habitID {
			out = append(out, r)
		}
	}
	return out
}
