package models

import (
	"encoding/json"
	"slices"
	"time"
)

// HabitRecord is one ledger entry. Several records per habit per day are
// valid; their values are summed. A record may exist only to carry step
// completions, in which case Value is 0.
type HabitRecord struct {
	HabitID        string   `json:"habitId"`
	Timestamp      int64    `json:"timestamp"` // Unix milliseconds
	Value          float64  `json:"value"`
	CompletedSteps []string `json:"completedSteps,omitempty"`
}

// MarshalJSON omits completedSteps only when it is nil, so an explicit
// empty list survives a write and reload.
func (r HabitRecord) MarshalJSON() ([]byte, error) {
	var steps *[]string
	if r.CompletedSteps != nil {
		steps = &r.CompletedSteps
	}
	return json.Marshal(struct {
		HabitID        string    `json:"habitId"`
		Timestamp      int64     `json:"timestamp"`
		Value          float64   `json:"value"`
		CompletedSteps *[]string `json:"completedSteps,omitempty"`
	}{r.HabitID, r.Timestamp, r.Value, steps})
}

// Time returns the record timestamp in the given location.
func (r HabitRecord) Time(loc *time.Location) time.Time {
	return time.UnixMilli(r.Timestamp).In(loc)
}

// HasProgress reports whether the record contributes quantity progress.
func (r HabitRecord) HasProgress() bool {
	return r.Value > 0
}

// HasStepCompletions reports whether the record carries checklist state.
func (r HabitRecord) HasStepCompletions() bool {
	return len(r.CompletedSteps) > 0
}

// HasStep reports whether stepID is marked done on this record.
func (r HabitRecord) HasStep(stepID string) bool {
	return slices.Contains(r.CompletedSteps, stepID)
}

// ToggleStep returns the record with stepID's membership flipped. An empty
// result is stored as nil so it round-trips through JSON unchanged.
func (r HabitRecord) ToggleStep(stepID string) HabitRecord {
	if r.HasStep(stepID) {
		steps := slices.DeleteFunc(slices.Clone(r.CompletedSteps), func(s string) bool { return s == stepID })
		if len(steps) == 0 {
			steps = nil
		}
		r.CompletedSteps = steps
		return r
	}
	r.CompletedSteps = append(slices.Clone(r.CompletedSteps), stepID)
	return r
}
