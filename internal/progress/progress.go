// Package progress computes period-scoped progress from a habit and its
// records. Every function is pure; callers pass the snapshot they read.
package progress

import (
	"math"
	"time"

	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/utils"
)

// Progress summarizes a habit's current period.
type Progress struct {
	PeriodStart time.Time
	Sum         float64
	Goal        float64
	Complete    bool
	// Percent is Sum/Goal scaled to 0..100 and capped at 100.
	Percent float64
}

// ResolvePeriodStart returns the start of the period containing asOf, in
// asOf's location. Daily and custom habits reset every day; weekly and
// period habits reset on their anchor weekday.
func ResolvePeriodStart(h models.Habit, asOf time.Time) time.Time {
	dayStart := utils.StartOfDay(asOf)
	switch h.FrequencyType {
	case models.FrequencyWeekly, models.FrequencyPeriod:
		back := (int(asOf.Weekday()) - int(h.PeriodAnchor()) + 7) % 7
		// AddDate keeps wall-clock midnight across DST changes.
		return dayStart.AddDate(0, 0, -back)
	default:
		return dayStart
	}
}

// ComputeProgress sums the habit's record values since the period start.
func ComputeProgress(h models.Habit, records []models.HabitRecord, asOf time.Time) Progress {
	start := ResolvePeriodStart(h, asOf)
	from := start.UnixMilli()

	var sum float64
	for _, r := range records {
		if r.HabitID == h.ID && r.Timestamp >= from {
			sum += r.Value
		}
	}

	p := Progress{PeriodStart: start, Sum: sum, Goal: h.GoalValue}
	// Goals are validated on every write path; a hand-edited document can
	// still carry a bad one, which never completes.
	if models.ValidGoal(h.GoalValue) {
		p.Complete = sum >= h.GoalValue
		p.Percent = math.Min(100, math.Max(0, sum/h.GoalValue*100))
	}
	return p
}

// IsScheduled reports whether the habit is active on day. A day that
// already has recorded progress stays active even when the schedule
// excludes its weekday. A habit created after the day ends is not
// scheduled on it.
func IsScheduled(h models.Habit, records []models.HabitRecord, day time.Time) bool {
	if hasRecordOn(h.ID, records, day, models.HabitRecord.HasProgress) {
		return true
	}
	if h.CreatedAt > 0 && h.CreatedTime().After(utils.EndOfDay(day)) {
		return false
	}
	return h.ScheduledOn(day.Weekday())
}

// Scheduled returns the habits active on day, in input order.
func Scheduled(state models.HabitState, day time.Time) []models.Habit {
	var out []models.Habit
	for _, h := range state.Habits {
		if IsScheduled(h, state.Records, day) {
			out = append(out, h)
		}
	}
	return out
}

func hasRecordOn(habitID string, records []models.HabitRecord, day time.Time, match func(models.HabitRecord) bool) bool {
	for _, r := range records {
		if r.HabitID == habitID && match(r) && utils.SameDay(day, r.Time(day.Location())) {
			return true
		}
	}
	return false
}
