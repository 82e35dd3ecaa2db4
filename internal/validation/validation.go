package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/julianstephens/habitlit/internal/models"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictDuplicateHabitID   ConflictType = "duplicate_habit_id"
	ConflictDuplicateHabitName ConflictType = "duplicate_habit_name"
	ConflictInvalidGoal        ConflictType = "invalid_goal"
	ConflictInvalidWeekday     ConflictType = "invalid_weekday"
	ConflictOrphanRecord       ConflictType = "orphan_record"
	ConflictUnknownFrequency   ConflictType = "unknown_frequency"
)

// Conflict represents a detected inconsistency in the habit document
type Conflict struct {
	Type        ConflictType
	Description string
	Items       []string // Habit names involved
	HabitIDs    []string // IDs of habits involved
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, conflict := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s\n", conflict.Description)
	}
	return b.String()
}

// Validator checks a habit document for inconsistencies
type Validator struct{}

// New creates a new Validator
func New() *Validator {
	return &Validator{}
}

// ValidateState checks habits and records. Records referencing a removed
// step are not reported: orphan step references are kept on purpose.
func (v *Validator) ValidateState(state models.HabitState) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	idCount := make(map[string]int)
	nameIDs := make(map[string][]string)
	var names []string
	for _, h := range state.Habits {
		idCount[h.ID]++
		if h.Name == "" {
			continue
		}
		key := strings.ToLower(h.Name)
		if _, ok := nameIDs[key]; !ok {
			names = append(names, h.Name)
		}
		nameIDs[key] = append(nameIDs[key], h.ID)
	}

	ids := make([]string, 0, len(idCount))
	for id := range idCount {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if idCount[id] > 1 {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictDuplicateHabitID,
				Description: fmt.Sprintf("Habit id %q is used %d times", id, idCount[id]),
				HabitIDs:    []string{id},
			})
		}
	}

	// Names are matched case-insensitively, as habit lookups are.
	for _, name := range names {
		if matched := nameIDs[strings.ToLower(name)]; len(matched) > 1 {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictDuplicateHabitName,
				Description: fmt.Sprintf("Duplicate habit name: %q (IDs: %v)", name, matched),
				Items:       []string{name},
				HabitIDs:    matched,
			})
		}
	}

	for _, h := range state.Habits {
		if h.GoalValue <= 0 {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictInvalidGoal,
				Description: fmt.Sprintf("Habit %q has non-positive goal %g", h.Name, h.GoalValue),
				Items:       []string{h.Name},
				HabitIDs:    []string{h.ID},
			})
		}

		switch h.FrequencyType {
		case models.FrequencyDaily, models.FrequencyWeekly, models.FrequencyPeriod, models.FrequencyCustom:
		default:
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictUnknownFrequency,
				Description: fmt.Sprintf("Habit %q has unknown frequency %q", h.Name, h.FrequencyType),
				Items:       []string{h.Name},
				HabitIDs:    []string{h.ID},
			})
		}

		for _, d := range h.CustomDays {
			if d < 0 || d > 6 {
				result.Conflicts = append(result.Conflicts, Conflict{
					Type:        ConflictInvalidWeekday,
					Description: fmt.Sprintf("Habit %q has invalid custom day %d", h.Name, d),
					Items:       []string{h.Name},
					HabitIDs:    []string{h.ID},
				})
			}
		}
		if h.PeriodStartDay != nil && (*h.PeriodStartDay < 0 || *h.PeriodStartDay > 6) {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictInvalidWeekday,
				Description: fmt.Sprintf("Habit %q has invalid period start day %d", h.Name, *h.PeriodStartDay),
				Items:       []string{h.Name},
				HabitIDs:    []string{h.ID},
			})
		}
	}

	orphans := make(map[string]int)
	for _, r := range state.Records {
		if idCount[r.HabitID] == 0 {
			orphans[r.HabitID]++
		}
	}
	orphanIDs := make([]string, 0, len(orphans))
	for id := range orphans {
		orphanIDs = append(orphanIDs, id)
	}
	sort.Strings(orphanIDs)
	for _, id := range orphanIDs {
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:        ConflictOrphanRecord,
			Description: fmt.Sprintf("%d record(s) reference unknown habit %q", orphans[id], id),
			HabitIDs:    []string{id},
		})
	}

	return result
}
