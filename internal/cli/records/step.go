package records

import (
	"fmt"
	"slices"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/models"
)

type StepCmd struct {
	Toggle StepToggleCmd `cmd:"" help:"Mark a checklist step done or undone for a day."`
}

type StepToggleCmd struct {
	Habit string `arg:"" help:"Habit name or ID."`
	Step  string `arg:"" help:"Step ID, position or text."`
	Date  string `help:"Date (YYYY-MM-DD), defaults to today."`
}

func (c *StepToggleCmd) Run(ctx *cli.Context) error {
	h, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	step, err := cli.ResolveStep(h, c.Step)
	if err != nil {
		return err
	}
	t, err := ctx.ResolveDate(c.Date)
	if err != nil {
		return err
	}

	if err := ctx.Tracker.ToggleStepRecord(h.ID, step.ID, t); err != nil {
		return err
	}

	done := ctx.Tracker.CompletedSteps(h.ID, t)
	state := "undone"
	if slices.Contains(done, step.ID) {
		state = "done"
	}
	fmt.Printf("%s: %q marked %s on %s (%d/%d steps)\n",
		h.Name, step.Text, state, t.Format(constants.DateFormat), countCurrent(h.Steps, done), len(h.Steps))
	return nil
}

// countCurrent ignores completions of steps no longer in the template.
func countCurrent(steps []models.HabitStep, done []string) int {
	n := 0
	for _, s := range steps {
		if slices.Contains(done, s.ID) {
			n++
		}
	}
	return n
}
