package system

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/habits"
	"github.com/julianstephens/habitlit/internal/instances"
	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/models"
)

// WatchCmd follows the habit document and prints every change, including
// writes made by other processes sharing the medium.
type WatchCmd struct {
	For time.Duration `help:"Stop after this long; 0 waits for an interrupt." default:"0s"`
}

func (cmd *WatchCmd) Run(ctx *cli.Context) error {
	log := logger.With("watch")

	dir := filepath.Join(ctx.Settings.ConfigDir, constants.InstanceDirName)
	unregister, err := instances.Register(dir, ctx.Settings.Backend, ctx.Store.GetConfigPath())
	if err != nil {
		return err
	}
	defer func() {
		if err := unregister(); err != nil {
			logger.Warn("Failed to remove lockfile", "error", err)
		}
	}()

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cmd.For > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, cmd.For)
		defer cancel()
	}

	if others, err := instances.List(dir); err == nil && len(others) > 1 {
		fmt.Printf("%d other contexts are watching\n", len(others)-1)
	}
	fmt.Printf("Watching %s (Ctrl+C to stop)\n", ctx.Store.GetConfigPath())

	var mu sync.Mutex
	show := func(state models.HabitState) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Println(summarize(ctx.Now(), state))
	}

	store := ctx.Tracker.Store()
	unsubscribe := follow(store, func(state models.HabitState) {
		if log != nil {
			log.Debug("Document changed", "habits", len(state.Habits), "records", len(state.Records))
		}
		show(state)
	})
	defer unsubscribe()

	if err := store.Watch(runCtx); err != nil {
		return fmt.Errorf("failed to watch storage: %w", err)
	}

	<-runCtx.Done()
	return nil
}

// follow subscribes fn before handing it the current snapshot, so a change
// landing in between is delivered rather than lost.
func follow(store *habits.StateStore, fn func(models.HabitState)) func() {
	unsubscribe := store.Subscribe(fn)
	fn(store.Read())
	return unsubscribe
}

func summarize(now time.Time, state models.HabitState) string {
	line := fmt.Sprintf("[%s] %d habits, %d records", now.Format(constants.TimeFormat), len(state.Habits), len(state.Records))
	if n := len(state.Records); n > 0 {
		last := state.Records[n-1]
		name := last.HabitID
		if h, ok := state.Habit(last.HabitID); ok {
			name = h.Name
		}
		line += fmt.Sprintf(" (latest: %s %s)", name, last.Time(now.Location()).Format(constants.DateFormat+" "+constants.TimeFormat))
	}
	return line
}
