package constants

const (
	// Defaults applied once when a habit is created.
	DefaultCategory       = "Mind"
	DefaultGoalValue      = 1.0
	DefaultUnit           = "count"
	DefaultPriority       = "normal"
	DefaultPriorityTime   = "all-day"
	DefaultPeriodStartDay = 1 // Monday
)

// AllWeekdays is the default schedule: every day, Sunday=0 through Saturday=6.
var AllWeekdays = []int{0, 1, 2, 3, 4, 5, 6}
