package habits

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/julianstephens/habitlit/internal/models"
)

var (
	ErrHabitNameRequired = errors.New("habit name is required")
	ErrInvalidWeekday    = errors.New("weekday must be between 0 (Sunday) and 6 (Saturday)")
	ErrInvalidGoal       = errors.New("goal value must be a positive number")
)

// Repository manages habit definitions.
type Repository struct {
	store *StateStore
	deps  *deps
}

// AddHabit stores a new habit. The id and creation time are always
// generated here; any supplied values are ignored.
func (r *Repository) AddHabit(h models.Habit) (models.Habit, error) {
	h.Name = strings.TrimSpace(h.Name)
	if h.Name == "" {
		return models.Habit{}, ErrHabitNameRequired
	}
	if err := validateWeekdays(h.CustomDays, h.PeriodStartDay); err != nil {
		return models.Habit{}, err
	}

	h.ID = r.deps.newID()
	h.CreatedAt = r.deps.now().UnixMilli()
	h = models.ApplyDefaults(h)
	for i := range h.Steps {
		if h.Steps[i].ID == "" {
			h.Steps[i].ID = r.deps.newID()
		}
	}

	if err := r.store.Write(func(s models.HabitState) models.HabitState {
		s.Habits = append(s.Habits, h)
		return s
	}); err != nil {
		return models.Habit{}, err
	}
	return h, nil
}

// UpdateHabit merges patch into the habit. An unknown id is a no-op.
func (r *Repository) UpdateHabit(id string, patch models.HabitPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return ErrHabitNameRequired
	}
	var customDays []int
	if patch.CustomDays != nil {
		customDays = *patch.CustomDays
	}
	if err := validateWeekdays(customDays, patch.PeriodStartDay); err != nil {
		return err
	}
	if patch.GoalValue != nil {
		if err := validateGoal(*patch.GoalValue); err != nil {
			return err
		}
	}
	if _, ok := r.store.Read().Habit(id); !ok {
		return nil
	}

	return r.store.Write(func(s models.HabitState) models.HabitState {
		if i := s.HabitIndex(id); i >= 0 {
			s.Habits[i] = patch.Apply(s.Habits[i])
		}
		return s
	})
}

// DeleteHabit removes the habit and every record referencing it in a
// single write, so no observer sees orphaned records.
func (r *Repository) DeleteHabit(id string) error {
	if _, ok := r.store.Read().Habit(id); !ok {
		return nil
	}

	return r.store.Write(func(s models.HabitState) models.HabitState {
		s.Habits = slices.DeleteFunc(s.Habits, func(h models.Habit) bool { return h.ID == id })
		s.Records = slices.DeleteFunc(s.Records, func(rec models.HabitRecord) bool { return rec.HabitID == id })
		return s
	})
}

// Habits returns every habit in insertion order.
func (r *Repository) Habits() []models.Habit {
	return r.store.Read().Habits
}

func (r *Repository) GetHabit(id string) (models.Habit, bool) {
	return r.store.Read().Habit(id)
}

// FindHabit resolves ref as an id first, then as a case-insensitive name.
func (r *Repository) FindHabit(ref string) (models.Habit, bool) {
	state := r.store.Read()
	if h, ok := state.Habit(ref); ok {
		return h, true
	}
	for _, h := range state.Habits {
		if h.Matches(ref) {
			return h, true
		}
	}
	return models.Habit{}, false
}

// AddStep appends a checklist item to the habit's template.
func (r *Repository) AddStep(habitID, text string) (models.HabitStep, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.HabitStep{}, fmt.Errorf("step text is required")
	}
	if _, ok := r.GetHabit(habitID); !ok {
		return models.HabitStep{}, fmt.Errorf("habit %q not found", habitID)
	}

	step := models.HabitStep{ID: r.deps.newID(), Text: text}
	err := r.store.Write(func(s models.HabitState) models.HabitState {
		if i := s.HabitIndex(habitID); i >= 0 {
			s.Habits[i].Steps = append(s.Habits[i].Steps, step)
		}
		return s
	})
	if err != nil {
		return models.HabitStep{}, err
	}
	return step, nil
}

// RemoveStep drops a step from the template. Records that completed the
// step keep their reference.
func (r *Repository) RemoveStep(habitID, stepID string) error {
	h, ok := r.GetHabit(habitID)
	if !ok || !h.HasStep(stepID) {
		return nil
	}

	return r.store.Write(func(s models.HabitState) models.HabitState {
		if i := s.HabitIndex(habitID); i >= 0 {
			s.Habits[i].Steps = slices.DeleteFunc(s.Habits[i].Steps, func(st models.HabitStep) bool {
				return st.ID == stepID
			})
		}
		return s
	})
}

func validateWeekdays(days []int, start *int) error {
	for _, d := range days {
		if d < 0 || d > 6 {
			return fmt.Errorf("%w: got %d", ErrInvalidWeekday, d)
		}
	}
	if start != nil && (*start < 0 || *start > 6) {
		return fmt.Errorf("%w: got %d", ErrInvalidWeekday, *start)
	}
	return nil
}

func validateGoal(goal float64) error {
	if !models.ValidGoal(goal) {
		return fmt.Errorf("%w: got %v", ErrInvalidGoal, goal)
	}
	return nil
}
