package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/habitlit/internal/backup"
	"github.com/julianstephens/habitlit/internal/config"
	"github.com/julianstephens/habitlit/internal/constants"
	apperrors "github.com/julianstephens/habitlit/internal/errors"
	"github.com/julianstephens/habitlit/internal/habits"
	"github.com/julianstephens/habitlit/internal/keyring"
	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/pubsub"
	"github.com/julianstephens/habitlit/internal/storage"
	"github.com/julianstephens/habitlit/internal/storage/postgres"
	"github.com/julianstephens/habitlit/internal/storage/redis"
	"github.com/julianstephens/habitlit/internal/storage/sqlite"
	"github.com/julianstephens/habitlit/internal/utils"
)

type Context struct {
	Settings   config.Settings
	ConfigPath string
	Store      storage.Provider
	Bus        *pubsub.Bus
	Tracker    *habits.Tracker
	Backups    *backup.Manager
	Location   *time.Location

	// Clock overrides time.Now. Used by tests.
	Clock func() time.Time
}

// NewContext wires the habit tracker over an opened provider.
func NewContext(settings config.Settings, store storage.Provider) (*Context, error) {
	loc, err := utils.LoadLocation(settings.Timezone)
	if err != nil {
		return nil, err
	}
	key := settings.Key
	if key == "" {
		key = constants.StateKey
	}

	ctx := &Context{
		Settings: settings,
		Store:    store,
		Bus:      pubsub.NewBus(),
		Location: loc,
	}
	ctx.Tracker = habits.NewTracker(
		habits.NewStateStoreWithKey(key, store, ctx.Bus),
		habits.WithClock(ctx.Now),
	)

	ctx.Backups = backup.NewManager(settings.BackupDir)
	if settings.MaxBackups > 0 {
		ctx.Backups.SetMaxBackups(settings.MaxBackups)
	}
	return ctx, nil
}

// Now returns the current time in the configured timezone.
func (c *Context) Now() time.Time {
	now := time.Now
	if c.Clock != nil {
		now = c.Clock
	}
	if c.Location == nil {
		return now()
	}
	return now().In(c.Location)
}

// ResolveDate turns an optional --date flag into an instant.
func (c *Context) ResolveDate(date string) (time.Time, error) {
	return utils.ResolveDate(date, c.Now())
}

// ResolveHabit finds a habit by id or name.
func (c *Context) ResolveHabit(ref string) (models.Habit, error) {
	h, ok := c.Tracker.FindHabit(ref)
	if !ok {
		return models.Habit{}, fmt.Errorf("%w: %s", apperrors.ErrHabitNotFound, ref)
	}
	return h, nil
}

// ResolveStep finds a step of h by id, 1-based position or text.
func ResolveStep(h models.Habit, ref string) (models.HabitStep, error) {
	for _, s := range h.Steps {
		if s.ID == ref {
			return s, nil
		}
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(h.Steps) {
		return h.Steps[n-1], nil
	}
	for _, s := range h.Steps {
		if strings.EqualFold(s.Text, ref) {
			return s, nil
		}
	}
	return models.HabitStep{}, fmt.Errorf("%w in %s: %s", apperrors.ErrStepNotFound, h.Name, ref)
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	if _, err := c.Backups.CreateBackup(c.Tracker.State()); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// OpenProvider builds the storage medium selected by the settings. The
// provider is neither initialized nor loaded.
func OpenProvider(s config.Settings) (storage.Provider, error) {
	switch s.Backend {
	case constants.BackendJSON:
		st := storage.NewJSONStore(s.Path)
		st.PollInterval = s.PollInterval
		return st, nil
	case constants.BackendSQLite:
		st := sqlite.NewStore(s.Path)
		st.PollInterval = s.PollInterval
		return st, nil
	case constants.BackendMemory:
		return storage.NewMemoryStore(), nil
	case constants.BackendPostgres:
		connStr, trusted, err := connectionString(s)
		if err != nil {
			return nil, err
		}
		if valid, err := postgres.ValidateConnString(connStr); !valid {
			if !(trusted && errors.Is(err, postgres.ErrEmbeddedCredentials)) {
				return nil, credentialsHint(err)
			}
		}
		return postgres.New(connStr), nil
	case constants.BackendRedis:
		url, trusted, err := connectionString(s)
		if err != nil {
			return nil, err
		}
		if !trusted {
			if err := redis.ValidateURL(url); err != nil {
				return nil, credentialsHint(err)
			}
		}
		return redis.New(url), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", s.Backend)
	}
}

// connectionString picks the network backend address. Values from the
// keyring or the environment are trusted to carry a password; values from
// the config file or flags are not.
func connectionString(s config.Settings) (string, bool, error) {
	if s.URL != "" {
		return s.URL, false, nil
	}
	if s.Path != "" {
		return s.Path, false, nil
	}
	connStr, err := keyring.ResolveConnectionString(s.Backend)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", false, fmt.Errorf("no %s connection configured: set storage.url, %s or run '%s keyring set'",
				s.Backend, constants.ConnectionEnvVar, constants.AppName)
		}
		return "", false, err
	}
	return connStr, true, nil
}

func credentialsHint(err error) error {
	return fmt.Errorf("%w\n  store credentials with '%s keyring set' or export %s instead",
		err, constants.AppName, constants.ConnectionEnvVar)
}

// ParseWeekdays parses a comma-separated list of weekdays into indexes
// (0=Sunday). An empty string yields an empty, non-nil schedule.
func ParseWeekdays(s string) ([]int, error) {
	weekdays := []int{}
	if strings.TrimSpace(s) == "" {
		return weekdays, nil
	}

	dayMap := map[string]time.Weekday{
		"sun":       time.Sunday,
		"sunday":    time.Sunday,
		"mon":       time.Monday,
		"monday":    time.Monday,
		"tue":       time.Tuesday,
		"tuesday":   time.Tuesday,
		"wed":       time.Wednesday,
		"wednesday": time.Wednesday,
		"thu":       time.Thursday,
		"thursday":  time.Thursday,
		"fri":       time.Friday,
		"friday":    time.Friday,
		"sat":       time.Saturday,
		"saturday":  time.Saturday,
	}

	seen := make(map[int]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		day := -1
		if wd, ok := dayMap[part]; ok {
			day = int(wd)
		} else if part == "all" || part == "daily" {
			return append(weekdays[:0], constants.AllWeekdays...), nil
		} else if num, err := strconv.Atoi(part); err == nil && num >= 0 && num <= 6 {
			day = num
		}
		if day < 0 {
			return nil, fmt.Errorf("invalid weekday: %s", part)
		}
		if !seen[day] {
			seen[day] = true
			weekdays = append(weekdays, day)
		}
	}
	return weekdays, nil
}

// FormatWeekdays renders a schedule for display.
func FormatWeekdays(days []int) string {
	if days == nil || len(days) == 7 {
		return "every day"
	}
	if len(days) == 0 {
		return "no days"
	}
	names := make([]string, 0, len(days))
	for _, d := range days {
		names = append(names, time.Weekday(d).String()[:3])
	}
	return strings.Join(names, ",")
}

// FormatValue prints a quantity without a trailing ".0".
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
