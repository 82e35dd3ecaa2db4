package progress

import (
	"time"

	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/utils"
)

// DayIntensity is one cell of the journey heatmap.
type DayIntensity struct {
	Day       time.Time
	Scheduled int
	Completed int
	// Percent is Completed/Scheduled scaled to 0..100; 0 when nothing is scheduled.
	Percent float64
}

// DailyIntensity scores each day by the share of scheduled habits that
// were worked on. A habit counts as worked on when it has a record with
// progress or step completions that day, not only when the first record of
// the day does; such a day is always scheduled.
func DailyIntensity(state models.HabitState, days []time.Time) []DayIntensity {
	out := make([]DayIntensity, 0, len(days))
	for _, day := range days {
		cell := DayIntensity{Day: utils.StartOfDay(day)}
		for _, h := range state.Habits {
			if hasRecordOn(h.ID, state.Records, day, isActive) {
				cell.Scheduled++
				cell.Completed++
				continue
			}
			if h.CreatedAt > 0 && h.CreatedTime().After(utils.EndOfDay(day)) {
				continue
			}
			if h.ScheduledOn(day.Weekday()) {
				cell.Scheduled++
			}
		}
		if cell.Scheduled > 0 {
			cell.Percent = float64(cell.Completed) / float64(cell.Scheduled) * 100
		}
		out = append(out, cell)
	}
	return out
}

// Resonance counts engagement: one point per record with progress plus one
// per completed step.
func Resonance(records []models.HabitRecord) int {
	total := 0
	for _, r := range records {
		if r.HasProgress() {
			total++
		}
		total += len(r.CompletedSteps)
	}
	return total
}

func isActive(r models.HabitRecord) bool {
	return r.HasProgress() || r.HasStepCompletions()
}
