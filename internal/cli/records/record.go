package records

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/progress"
)

type RecordCmd struct {
	Add  RecordAddCmd  `cmd:"" help:"Log progress for a habit."`
	Undo RecordUndoCmd `cmd:"" help:"Remove the latest progress entry of a day."`
	List RecordListCmd `cmd:"" help:"List a habit's entries for a day."`
}

type RecordAddCmd struct {
	Habit string  `arg:"" help:"Habit name or ID."`
	Value float64 `arg:"" optional:"" help:"Amount to add (default 1)." default:"1"`
	Date  string  `help:"Date (YYYY-MM-DD), defaults to now."`
}

func (c *RecordAddCmd) Validate() error {
	if c.Value <= 0 {
		return fmt.Errorf("value must be greater than zero")
	}
	return nil
}

func (c *RecordAddCmd) Run(ctx *cli.Context) error {
	h, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	t, err := ctx.ResolveDate(c.Date)
	if err != nil {
		return err
	}

	if err := ctx.Tracker.AddRecordValue(h.ID, t, c.Value); err != nil {
		return err
	}

	p := progress.ComputeProgress(h, ctx.Tracker.Records(h.ID), ctx.Now())
	fmt.Printf("Logged %s %s for %s (%s/%s this period)\n",
		cli.FormatValue(c.Value), h.Unit, h.Name, cli.FormatValue(p.Sum), cli.FormatValue(p.Goal))
	if p.Complete {
		fmt.Println("✓ Goal reached!")
	}
	return nil
}

type RecordUndoCmd struct {
	Habit string `arg:"" help:"Habit name or ID."`
	Date  string `help:"Date (YYYY-MM-DD), defaults to today."`
}

func (c *RecordUndoCmd) Run(ctx *cli.Context) error {
	h, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	t, err := ctx.ResolveDate(c.Date)
	if err != nil {
		return err
	}

	before := daySum(ctx, h.ID, t)
	if err := ctx.Tracker.RemoveLastRecord(h.ID, t); err != nil {
		return err
	}

	// Undo only touches entries with progress, so an unchanged sum means no match.
	if before == daySum(ctx, h.ID, t) {
		fmt.Printf("No progress to undo for %s on %s\n", h.Name, t.Format(constants.DateFormat))
		return nil
	}
	fmt.Printf("Removed latest entry for %s on %s\n", h.Name, t.Format(constants.DateFormat))
	return nil
}

type RecordListCmd struct {
	Habit string `arg:"" help:"Habit name or ID."`
	Date  string `help:"Date (YYYY-MM-DD), defaults to today."`
}

func (c *RecordListCmd) Run(ctx *cli.Context) error {
	h, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	t, err := ctx.ResolveDate(c.Date)
	if err != nil {
		return err
	}

	entries := ctx.Tracker.RecordsOn(h.ID, t)
	if len(entries) == 0 {
		fmt.Printf("No entries for %s on %s\n", h.Name, t.Format(constants.DateFormat))
		return nil
	}

	fmt.Printf("%s on %s:\n", h.Name, t.Format(constants.DateFormat))
	for _, r := range entries {
		line := fmt.Sprintf("  %s  %s %s", r.Time(ctx.Location).Format(constants.TimeFormat), cli.FormatValue(r.Value), h.Unit)
		if r.HasStepCompletions() {
			names := make([]string, 0, len(r.CompletedSteps))
			for _, s := range h.Steps {
				if slices.Contains(r.CompletedSteps, s.ID) {
					names = append(names, s.Text)
				}
			}
			line += "  steps: " + strings.Join(names, ", ")
		}
		fmt.Println(line)
	}
	return nil
}

func daySum(ctx *cli.Context, habitID string, day time.Time) float64 {
	var sum float64
	for _, r := range ctx.Tracker.RecordsOn(habitID, day) {
		sum += r.Value
	}
	return sum
}
