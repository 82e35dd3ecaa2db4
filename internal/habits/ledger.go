package habits

import (
	"slices"
	"time"

	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/utils"
)

// Ledger appends and retracts progress records. Records are kept in
// insertion order, which is also the order undo walks (newest last).
type Ledger struct {
	store *StateStore
}

// AddRecordValue appends a record unconditionally. Several records per
// day are valid and their values are summed.
func (l *Ledger) AddRecordValue(habitID string, t time.Time, value float64) error {
	rec := models.HabitRecord{
		HabitID:   habitID,
		Timestamp: t.UnixMilli(),
		Value:     value,
	}
	return l.store.Write(func(s models.HabitState) models.HabitState {
		s.Records = append(s.Records, rec)
		return s
	})
}

// RemoveLastRecord retracts the newest progress-bearing record of habitID
// on ref's calendar day. A record that also carries step completions is
// kept with its value reset to 0, so the checklist state survives.
func (l *Ledger) RemoveLastRecord(habitID string, ref time.Time) error {
	if lastProgressIndex(l.store.Read().Records, habitID, ref) < 0 {
		return nil
	}

	return l.store.Write(func(s models.HabitState) models.HabitState {
		i := lastProgressIndex(s.Records, habitID, ref)
		if i < 0 {
			return s
		}
		if s.Records[i].HasStepCompletions() {
			s.Records[i].Value = 0
			return s
		}
		s.Records = slices.Delete(s.Records, i, i+1)
		return s
	})
}

// Records returns the habit's records in ledger order.
func (l *Ledger) Records(habitID string) []models.HabitRecord {
	return l.store.Read().RecordsFor(habitID)
}

// RecordsOn returns the habit's records on day's calendar day.
func (l *Ledger) RecordsOn(habitID string, day time.Time) []models.HabitRecord {
	var out []models.HabitRecord
	for _, r := range l.Records(habitID) {
		if utils.SameDay(day, r.Time(day.Location())) {
			out = append(out, r)
		}
	}
	return out
}

func lastProgressIndex(records []models.HabitRecord, habitID string, ref time.Time) int {
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		if r.HabitID == habitID && r.HasProgress() && utils.SameDay(ref, r.Time(ref.Location())) {
			return i
		}
	}
	return -1
}
