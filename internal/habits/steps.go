package habits

import (
	"time"

	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/utils"
)

// StepTracker records per-day checklist completion. The first record of
// the day in ledger order carries the day's completed steps.
type StepTracker struct {
	store *StateStore
}

// ToggleStepRecord flips stepID on the day of t. With no record that day a
// zero-value carrier record is appended. Unknown habits are ignored.
func (st *StepTracker) ToggleStepRecord(habitID, stepID string, t time.Time) error {
	if _, ok := st.store.Read().Habit(habitID); !ok {
		return nil
	}

	return st.store.Write(func(s models.HabitState) models.HabitState {
		if _, ok := s.Habit(habitID); !ok {
			return s
		}
		if i := carrierIndex(s.Records, habitID, t); i >= 0 {
			s.Records[i] = s.Records[i].ToggleStep(stepID)
			return s
		}
		s.Records = append(s.Records, models.HabitRecord{
			HabitID:        habitID,
			Timestamp:      t.UnixMilli(),
			Value:          0,
			CompletedSteps: []string{stepID},
		})
		return s
	})
}

// CompletedSteps returns the step ids completed on day's calendar day.
func (st *StepTracker) CompletedSteps(habitID string, day time.Time) []string {
	return StepsOn(st.store.Read().Records, habitID, day)
}

// StepsOn reads the day's completions from a snapshot's records: the first
// record of the habit on that calendar day carries them.
func StepsOn(records []models.HabitRecord, habitID string, day time.Time) []string {
	if i := carrierIndex(records, habitID, day); i >= 0 {
		return records[i].CompletedSteps
	}
	return nil
}

func carrierIndex(records []models.HabitRecord, habitID string, day time.Time) int {
	for i, r := range records {
		if r.HabitID == habitID && utils.SameDay(day, r.Time(day.Location())) {
			return i
		}
	}
	return -1
}
