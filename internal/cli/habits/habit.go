package habits

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/progress"
)

type HabitCmd struct {
	Add    HabitAddCmd    `cmd:"" help:"Add a new habit."`
	List   HabitListCmd   `cmd:"" help:"List habits."`
	Show   HabitShowCmd   `cmd:"" help:"Show a habit with its steps and progress."`
	Edit   HabitEditCmd   `cmd:"" help:"Edit an existing habit."`
	Delete HabitDeleteCmd `cmd:"" help:"Delete a habit and all of its records."`
	Step   HabitStepCmd   `cmd:"" help:"Manage a habit's step checklist."`
}

var (
	frequencies   = []string{"daily", "weekly", "period", "custom"}
	priorities    = []string{"high", "normal", "low"}
	priorityTimes = []string{"morning", "afternoon", "evening", "all-day"}
)

func checkChoice(flag, value string, allowed []string) error {
	if value == "" || slices.Contains(allowed, value) {
		return nil
	}
	return fmt.Errorf("--%s must be one of %s", flag, strings.Join(allowed, "|"))
}

type HabitAddCmd struct {
	Name      string   `arg:"" help:"Habit name."`
	Category  string   `short:"c" help:"Category." default:"Mind"`
	Frequency string   `short:"f" help:"Frequency (daily|weekly|period|custom)." default:"daily"`
	Goal      float64  `short:"g" help:"Goal value per period." default:"1"`
	Unit      string   `short:"u" help:"Unit (count, minutes, hours, liters, km, pages)." default:"count"`
	Priority  string   `short:"p" help:"Priority (high|normal|low)." default:"normal"`
	Time      string   `short:"t" help:"Time of day (morning|afternoon|evening|all-day)." default:"all-day"`
	Days      *string  `short:"w" help:"Comma-separated weekdays the habit is scheduled on (default every day)."`
	StartDay  string   `help:"Weekday weekly and rolling periods start on." default:"mon"`
	Color     string   `help:"Display color."`
	Icon      string   `help:"Display icon."`
	Notes     string   `help:"Free-form notes."`
	Steps     []string `name:"step" sep:"none" help:"Checklist step (repeatable)."`
}

func (c *HabitAddCmd) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("habit name cannot be empty")
	}
	if c.Goal <= 0 {
		return fmt.Errorf("goal must be greater than zero")
	}
	if err := checkChoice("frequency", c.Frequency, frequencies); err != nil {
		return err
	}
	if err := checkChoice("priority", c.Priority, priorities); err != nil {
		return err
	}
	return checkChoice("time", c.Time, priorityTimes)
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	if _, ok := ctx.Tracker.FindHabit(c.Name); ok {
		return fmt.Errorf("habit with name %q already exists", c.Name)
	}

	start, err := parseStartDay(c.StartDay)
	if err != nil {
		return err
	}

	h := models.Habit{
		Name:           c.Name,
		Category:       c.Category,
		FrequencyType:  models.FrequencyType(c.Frequency),
		GoalValue:      c.Goal,
		Unit:           models.Unit(c.Unit),
		Priority:       models.Priority(c.Priority),
		PriorityTime:   models.PriorityTime(c.Time),
		PeriodStartDay: &start,
		Color:          c.Color,
		Icon:           c.Icon,
		Notes:          c.Notes,
	}
	if c.Days != nil {
		days, err := cli.ParseWeekdays(*c.Days)
		if err != nil {
			return err
		}
		h.CustomDays = days
	}
	for _, text := range c.Steps {
		h.Steps = append(h.Steps, models.HabitStep{Text: text})
	}

	added, err := ctx.Tracker.AddHabit(h)
	if err != nil {
		return err
	}

	fmt.Printf("Added habit: %s (%s)\n", added.Name, added.ID)
	return nil
}

func parseStartDay(s string) (int, error) {
	days, err := cli.ParseWeekdays(s)
	if err != nil {
		return 0, err
	}
	if len(days) != 1 {
		return 0, fmt.Errorf("start day must name exactly one weekday, got %q", s)
	}
	return days[0], nil
}

type HabitListCmd struct {
	Category string `short:"c" help:"Only list habits in this category."`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	list := ctx.Tracker.Habits()
	if c.Category != "" {
		list = slices.DeleteFunc(list, func(h models.Habit) bool {
			return !strings.EqualFold(h.Category, c.Category)
		})
	}

	if len(list) == 0 {
		fmt.Println("No habits found.")
		return nil
	}

	state := ctx.Tracker.State()
	now := ctx.Now()
	for _, h := range list {
		p := progress.ComputeProgress(h, state.Records, now)
		mark := " "
		if p.Complete {
			mark = "✓"
		}
		fmt.Printf("%s %-24s %-8s %s/%s %s  [%s, %s]\n",
			mark, h.Name, h.FrequencyType,
			cli.FormatValue(p.Sum), cli.FormatValue(p.Goal), h.Unit,
			h.Category, cli.FormatWeekdays(h.CustomDays))
	}
	return nil
}

type HabitShowCmd struct {
	Habit string `arg:"" help:"Habit name or ID."`
}

func (c *HabitShowCmd) Run(ctx *cli.Context) error {
	h, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}

	now := ctx.Now()
	records := ctx.Tracker.Records(h.ID)
	p := progress.ComputeProgress(h, records, now)
	done := ctx.Tracker.CompletedSteps(h.ID, now)

	fmt.Printf("%s  (%s)\n", h.Name, h.ID)
	fmt.Printf("  Category:   %s\n", h.Category)
	fmt.Printf("  Frequency:  %s, starting %s\n", h.FrequencyType, h.PeriodAnchor())
	fmt.Printf("  Schedule:   %s\n", cli.FormatWeekdays(h.CustomDays))
	fmt.Printf("  Priority:   %s (%s)\n", h.Priority, h.PriorityTime)
	fmt.Printf("  Created:    %s\n", h.CreatedTime().In(ctx.Location).Format(constants.DateFormat))
	if h.Notes != "" {
		fmt.Printf("  Notes:      %s\n", h.Notes)
	}
	fmt.Printf("  Progress:   %s/%s %s since %s (%.0f%%)\n",
		cli.FormatValue(p.Sum), cli.FormatValue(p.Goal), h.Unit,
		p.PeriodStart.Format(constants.DateFormat), p.Percent)
	fmt.Printf("  Resonance:  %d\n", progress.Resonance(records))

	if len(h.Steps) > 0 {
		fmt.Println("  Steps today:")
		for i, s := range h.Steps {
			mark := "[ ]"
			if slices.Contains(done, s.ID) {
				mark = "[x]"
			}
			fmt.Printf("    %d. %s %s\n", i+1, mark, s.Text)
		}
	}
	return nil
}

type HabitEditCmd struct {
	Habit     string   `arg:"" help:"Habit name or ID."`
	Name      *string  `short:"n" help:"New name."`
	Category  *string  `short:"c" help:"New category."`
	Frequency *string  `short:"f" help:"New frequency (daily|weekly|period|custom)."`
	Goal      *float64 `short:"g" help:"New goal value."`
	Unit      *string  `short:"u" help:"New unit."`
	Priority  *string  `short:"p" help:"New priority (high|normal|low)."`
	Time      *string  `short:"t" help:"New time of day (morning|afternoon|evening|all-day)."`
	Days      *string  `short:"w" help:"New comma-separated weekdays."`
	StartDay  *string  `help:"New period start weekday."`
	Color     *string  `help:"New display color."`
	Icon      *string  `help:"New display icon."`
	Notes     *string  `help:"New notes."`
}

func (c *HabitEditCmd) Validate() error {
	if c.Name != nil && strings.TrimSpace(*c.Name) == "" {
		return errors.New("habit name cannot be empty")
	}
	if c.Goal != nil && *c.Goal <= 0 {
		return fmt.Errorf("goal must be greater than zero")
	}
	if c.Frequency != nil {
		if err := checkChoice("frequency", *c.Frequency, frequencies); err != nil {
			return err
		}
	}
	if c.Priority != nil {
		if err := checkChoice("priority", *c.Priority, priorities); err != nil {
			return err
		}
	}
	if c.Time != nil {
		return checkChoice("time", *c.Time, priorityTimes)
	}
	return nil
}

func (c *HabitEditCmd) Run(ctx *cli.Context) error {
	h, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}

	patch := models.HabitPatch{
		Category:  c.Category,
		GoalValue: c.Goal,
		Color:     c.Color,
		Icon:      c.Icon,
		Notes:     c.Notes,
	}
	if c.Name != nil {
		name := strings.TrimSpace(*c.Name)
		if other, ok := ctx.Tracker.FindHabit(name); ok && other.ID != h.ID {
			return fmt.Errorf("habit with name %q already exists", name)
		}
		patch.Name = &name
	}
	if c.Frequency != nil {
		f := models.FrequencyType(*c.Frequency)
		patch.FrequencyType = &f
	}
	if c.Unit != nil {
		u := models.Unit(*c.Unit)
		patch.Unit = &u
	}
	if c.Priority != nil {
		p := models.Priority(*c.Priority)
		patch.Priority = &p
	}
	if c.Time != nil {
		pt := models.PriorityTime(*c.Time)
		patch.PriorityTime = &pt
	}
	if c.Days != nil {
		days, err := cli.ParseWeekdays(*c.Days)
		if err != nil {
			return err
		}
		patch.CustomDays = &days
	}
	if c.StartDay != nil {
		start, err := parseStartDay(*c.StartDay)
		if err != nil {
			return err
		}
		patch.PeriodStartDay = &start
	}

	if patch.IsEmpty() {
		fmt.Println("Nothing to change.")
		return nil
	}
	if err := ctx.Tracker.UpdateHabit(h.ID, patch); err != nil {
		return err
	}

	fmt.Printf("Updated habit: %s\n", h.Name)
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit name or ID."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	h, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}

	// Deletion cascades to records, so keep a restore point.
	ctx.PerformAutomaticBackup()

	if err := ctx.Tracker.DeleteHabit(h.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted habit: %s\n", h.Name)
	return nil
}

type HabitStepCmd struct {
	Add    HabitStepAddCmd    `cmd:"" help:"Append a step to the checklist."`
	Remove HabitStepRemoveCmd `cmd:"" help:"Remove a step from the checklist."`
}

type HabitStepAddCmd struct {
	Habit string `arg:"" help:"Habit name or ID."`
	Text  string `arg:"" help:"Step text."`
}

func (c *HabitStepAddCmd) Run(ctx *cli.Context) error {
	h, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	step, err := ctx.Tracker.AddStep(h.ID, c.Text)
	if err != nil {
		return err
	}
	fmt.Printf("Added step to %s: %s\n", h.Name, step.Text)
	return nil
}

type HabitStepRemoveCmd struct {
	Habit string `arg:"" help:"Habit name or ID."`
	Step  string `arg:"" help:"Step ID, position or text."`
}

func (c *HabitStepRemoveCmd) Run(ctx *cli.Context) error {
	h, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	step, err := cli.ResolveStep(h, c.Step)
	if err != nil {
		return err
	}
	if err := ctx.Tracker.RemoveStep(h.ID, step.ID); err != nil {
		return err
	}
	fmt.Printf("Removed step from %s: %s\n", h.Name, step.Text)
	return nil
}
