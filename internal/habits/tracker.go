// Package habits holds the mutators over the persisted habit document:
// habit CRUD, the record ledger and per-day step completion.
package habits

import (
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/pubsub"
	"github.com/julianstephens/habitlit/internal/reactive"
	"github.com/julianstephens/habitlit/internal/storage"
)

// StateStore is the reactive handle every mutator writes through.
type StateStore = reactive.Store[models.HabitState]

// NewStateStore binds a handle to the habit document key.
func NewStateStore(provider storage.Provider, bus *pubsub.Bus) *StateStore {
	return NewStateStoreWithKey(constants.StateKey, provider, bus)
}

// NewStateStoreWithKey binds a handle to a custom document key, so several
// habit documents can share one medium.
func NewStateStoreWithKey(key string, provider storage.Provider, bus *pubsub.Bus) *StateStore {
	return reactive.New(key, provider, bus, models.HabitState{}.Normalize(),
		reactive.WithNormalizer(models.HabitState.Normalize))
}

// Tracker bundles the three mutator groups over one store handle.
type Tracker struct {
	*Repository
	*Ledger
	*StepTracker

	store *StateStore
}

// Option customizes a Tracker. Used by tests to pin the clock and ids.
type Option func(*deps)

type deps struct {
	now   func() time.Time
	newID func() string
}

func WithClock(now func() time.Time) Option {
	return func(d *deps) { d.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(d *deps) { d.newID = newID }
}

func NewTracker(store *StateStore, opts ...Option) *Tracker {
	d := &deps{now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(d)
	}
	return &Tracker{
		Repository:  &Repository{store: store, deps: d},
		Ledger:      &Ledger{store: store},
		StepTracker: &StepTracker{store: store},
		store:       store,
	}
}

// State returns the current normalized snapshot.
func (t *Tracker) State() models.HabitState {
	return t.store.Read()
}

// Store exposes the underlying handle for subscription and raw replace.
func (t *Tracker) Store() *StateStore {
	return t.store
}

// ReplaceState overwrites the whole document, as a full import does.
func (t *Tracker) ReplaceState(state models.HabitState) error {
	return t.store.Set(state)
}

// MergeHabits replaces habits sharing an id and appends the rest. Records
// are untouched. Incoming habits get the same defaults as AddHabit, so an
// imported habit without a goal is stored with the default goal.
func (t *Tracker) MergeHabits(incoming []models.Habit) error {
	return t.store.Write(func(s models.HabitState) models.HabitState {
		for _, h := range incoming {
			h = models.ApplyDefaults(h)
			if i := s.HabitIndex(h.ID); i >= 0 {
				s.Habits[i] = h
			} else {
				s.Habits = append(s.Habits, h)
			}
		}
		return s
	})
}
