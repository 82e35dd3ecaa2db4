// Package views renders the read-only dashboards: today's checklist and the
// journey heatmap.
package views

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/habits"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/progress"
	"github.com/julianstephens/habitlit/internal/utils"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// heat levels, coldest first
	heatStyles = []lipgloss.Style{
		lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("22")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
	}
)

type TodayCmd struct {
	Date string `help:"Date (YYYY-MM-DD), defaults to today."`
}

func (c *TodayCmd) Run(ctx *cli.Context) error {
	day, err := ctx.ResolveDate(c.Date)
	if err != nil {
		return err
	}
	fmt.Print(RenderToday(ctx.Tracker.State(), day))
	return nil
}

// RenderToday lists the habits scheduled on day with their period progress
// and step checklist, grouped by time of day.
func RenderToday(state models.HabitState, day time.Time) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(day.Format("Monday, "+constants.DateFormat)) + "\n")

	scheduled := progress.Scheduled(state, day)
	if len(scheduled) == 0 {
		b.WriteString(mutedStyle.Render("Nothing scheduled.") + "\n")
		return b.String()
	}

	order := []models.PriorityTime{
		models.PriorityTimeMorning, models.PriorityTimeAfternoon,
		models.PriorityTimeEvening, models.PriorityTimeAllDay,
	}
	slices.SortStableFunc(scheduled, func(a, b models.Habit) int {
		return slices.Index(order, a.PriorityTime) - slices.Index(order, b.PriorityTime)
	})

	// as-of is the end of the day so entries logged later that day count
	asOf := utils.EndOfDay(day)
	var group models.PriorityTime = "-"
	completed := 0
	for _, h := range scheduled {
		if h.PriorityTime != group {
			group = h.PriorityTime
			b.WriteString("\n" + mutedStyle.Render(strings.ToUpper(string(group))) + "\n")
		}

		p := progress.ComputeProgress(h, state.RecordsFor(h.ID), asOf)
		mark, style := "○", pendingStyle
		if p.Complete {
			mark, style = "●", doneStyle
			completed++
		}
		fmt.Fprintf(&b, "  %s %s %s\n", style.Render(mark), style.Render(h.Name),
			mutedStyle.Render(fmt.Sprintf("%s/%s %s", cli.FormatValue(p.Sum), cli.FormatValue(p.Goal), h.Unit)))

		done := habits.StepsOn(state.Records, h.ID, day)
		for _, s := range h.Steps {
			box := "[ ]"
			if slices.Contains(done, s.ID) {
				box = "[x]"
			}
			fmt.Fprintf(&b, "      %s %s\n", box, s.Text)
		}
	}

	fmt.Fprintf(&b, "\n%d/%d complete\n", completed, len(scheduled))
	return b.String()
}

type JourneyCmd struct {
	Days int `help:"Number of days to show." default:"${heatmap_days}"`
}

func (c *JourneyCmd) Validate() error {
	if c.Days < 1 || c.Days > 366 {
		return fmt.Errorf("days must be between 1 and 366")
	}
	return nil
}

func (c *JourneyCmd) Run(ctx *cli.Context) error {
	fmt.Print(RenderJourney(ctx.Tracker.State(), utils.LastNDays(c.Days, ctx.Now())))
	return nil
}

// RenderJourney draws one cell per day, a week per row, followed by the
// resonance score.
func RenderJourney(state models.HabitState, days []time.Time) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Journey") + "\n")

	cells := progress.DailyIntensity(state, days)
	for i, cell := range cells {
		if i%7 == 0 {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(mutedStyle.Render(cell.Day.Format("01-02")) + " ")
		}
		b.WriteString(heatStyles[heatLevel(cell)].Render("■") + " ")
	}
	if len(cells) > 0 {
		b.WriteString("\n")
	}

	active := 0
	for _, cell := range cells {
		if cell.Completed > 0 {
			active++
		}
	}
	fmt.Fprintf(&b, "\n%d of %d days active\n", active, len(cells))
	fmt.Fprintf(&b, "Total resonance: %d\n", progress.Resonance(state.Records))
	return b.String()
}

func heatLevel(cell progress.DayIntensity) int {
	switch {
	case cell.Completed == 0:
		return 0
	case cell.Percent < 34:
		return 1
	case cell.Percent < 67:
		return 2
	case cell.Percent < 100:
		return 3
	default:
		return 4
	}
}
