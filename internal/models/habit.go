package models

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/julianstephens/habitlit/internal/constants"
)

// FrequencyType selects the window progress is aggregated over.
type FrequencyType string

// Priority is an informational classification.
type Priority string

// PriorityTime is the part of the day a habit is meant for.
type PriorityTime string

// Unit is the quantity unit of a habit goal. Informational only.
type Unit string

const (
	FrequencyDaily  FrequencyType = "daily"
	FrequencyWeekly FrequencyType = "weekly"
	FrequencyPeriod FrequencyType = "period"
	FrequencyCustom FrequencyType = "custom"

	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"

	PriorityTimeMorning   PriorityTime = "morning"
	PriorityTimeAfternoon PriorityTime = "afternoon"
	PriorityTimeEvening   PriorityTime = "evening"
	PriorityTimeAllDay    PriorityTime = "all-day"

	UnitCount   Unit = "count"
	UnitMinutes Unit = "minutes"
	UnitHours   Unit = "hours"
	UnitLiters  Unit = "liters"
	UnitKM      Unit = "km"
	UnitPages   Unit = "pages"
)

// HabitStep is a named sub-task template. IsCompleted is kept for format
// compatibility only; per-day completion lives on records.
type HabitStep struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	IsCompleted bool   `json:"isCompleted"`
}

// Habit represents a recurring practice to track
type Habit struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Category      string        `json:"category"`
	FrequencyType FrequencyType `json:"frequencyType"`
	GoalValue     float64       `json:"goalValue"`
	Unit          Unit          `json:"unit"`
	Priority      Priority      `json:"priority"`
	PriorityTime  PriorityTime  `json:"priorityTime"`
	// CustomDays holds weekday indexes (0=Sunday). nil means every day,
	// an empty slice means no weekday at all.
	CustomDays     []int       `json:"customDays"`
	PeriodStartDay *int        `json:"periodStartDay,omitempty"`
	Color          string      `json:"color,omitempty"`
	Icon           string      `json:"icon,omitempty"`
	Notes          string      `json:"notes,omitempty"`
	Steps          []HabitStep `json:"steps"`
	CreatedAt      int64       `json:"createdAt"` // Unix milliseconds
}

// StartDay returns a pointer suitable for Habit.PeriodStartDay.
func StartDay(d time.Weekday) *int {
	v := int(d)
	return &v
}

// CreatedTime returns CreatedAt as a time in the local zone.
func (h Habit) CreatedTime() time.Time {
	return time.UnixMilli(h.CreatedAt)
}

// ScheduledOn reports whether the weekday is part of the habit's schedule.
func (h Habit) ScheduledOn(wd time.Weekday) bool {
	if h.CustomDays == nil {
		return true
	}
	return slices.Contains(h.CustomDays, int(wd))
}

// PeriodAnchor is the weekday a weekly or rolling period starts on.
func (h Habit) PeriodAnchor() time.Weekday {
	if h.PeriodStartDay == nil {
		return time.Weekday(constants.DefaultPeriodStartDay)
	}
	return time.Weekday(((*h.PeriodStartDay % 7) + 7) % 7)
}

// HasStep reports whether the current template contains the step id.
func (h Habit) HasStep(id string) bool {
	return slices.ContainsFunc(h.Steps, func(s HabitStep) bool { return s.ID == id })
}

// Matches reports whether ref names this habit by id or, case-insensitively, by name.
func (h Habit) Matches(ref string) bool {
	return h.ID == ref || strings.EqualFold(h.Name, ref)
}

// ApplyDefaults fills unset optional fields. It is the single place
// creation-time defaults are decided; read paths never re-derive them.
func ApplyDefaults(h Habit) Habit {
	if h.Category == "" {
		h.Category = constants.DefaultCategory
	}
	if h.FrequencyType == "" {
		h.FrequencyType = FrequencyDaily
	}
	if !ValidGoal(h.GoalValue) {
		h.GoalValue = constants.DefaultGoalValue
	}
	if h.Unit == "" {
		h.Unit = constants.DefaultUnit
	}
	if h.Priority == "" {
		h.Priority = constants.DefaultPriority
	}
	if h.PriorityTime == "" {
		h.PriorityTime = constants.DefaultPriorityTime
	}
	if h.CustomDays == nil {
		h.CustomDays = slices.Clone(constants.AllWeekdays)
	} else {
		h.CustomDays = slices.Clone(h.CustomDays)
	}
	if h.PeriodStartDay == nil {
		h.PeriodStartDay = StartDay(time.Weekday(constants.DefaultPeriodStartDay))
	}
	if h.Steps == nil {
		h.Steps = []HabitStep{}
	} else {
		h.Steps = slices.Clone(h.Steps)
	}
	return h
}

// ValidGoal reports whether goal is a finite number above zero.
func ValidGoal(goal float64) bool {
	return goal > 0 && !math.IsInf(goal, 1)
}

// HabitPatch is a shallow merge applied by UpdateHabit. Nil fields are left
// untouched. ID and CreatedAt are immutable and therefore absent.
type HabitPatch struct {
	Name           *string
	Category       *string
	FrequencyType  *FrequencyType
	GoalValue      *float64
	Unit           *Unit
	Priority       *Priority
	PriorityTime   *PriorityTime
	CustomDays     *[]int
	PeriodStartDay *int
	Color          *string
	Icon           *string
	Notes          *string
	Steps          *[]HabitStep
}

// IsEmpty reports whether the patch changes nothing.
func (p HabitPatch) IsEmpty() bool {
	return p == (HabitPatch{})
}

// Apply returns h with the patch merged in.
func (p HabitPatch) Apply(h Habit) Habit {
	if p.Name != nil {
		h.Name = *p.Name
	}
	if p.Category != nil {
		h.Category = *p.Category
	}
	if p.FrequencyType != nil {
		h.FrequencyType = *p.FrequencyType
	}
	if p.GoalValue != nil {
		h.GoalValue = *p.GoalValue
	}
	if p.Unit != nil {
		h.Unit = *p.Unit
	}
	if p.Priority != nil {
		h.Priority = *p.Priority
	}
	if p.PriorityTime != nil {
		h.PriorityTime = *p.PriorityTime
	}
	if p.CustomDays != nil {
		h.CustomDays = slices.Clone(*p.CustomDays)
	}
	if p.PeriodStartDay != nil {
		v := *p.PeriodStartDay
		h.PeriodStartDay = &v
	}
	if p.Color != nil {
		h.Color = *p.Color
	}
	if p.Icon != nil {
		h.Icon = *p.Icon
	}
	if p.Notes != nil {
		h.Notes = *p.Notes
	}
	if p.Steps != nil {
		h.Steps = slices.Clone(*p.Steps)
	}
	return h
}
