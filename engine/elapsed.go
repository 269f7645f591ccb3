package engine

import (
	"fmt"
	"time"
)

const clockLayout = "02.01.06 15:04"

// NarrateElapsed describes how long ago the user last wrote, followed by the
// current time.
func NarrateElapsed(last *time.Time, now time.Time) string {
	current := fmt.Sprintf("Current time: %s.", now.Format(clockLayout))
	if last == nil {
		return "You do not remember when you last talked. " + current
	}

	elapsed := max(now.Sub(*last), 0)
	hours := int(elapsed / time.Hour)
	minutes := int(elapsed%time.Hour) / int(time.Minute)

	var since string
	switch {
	case elapsed < 2*time.Minute:
		since = "The user wrote to you just now."
	case hours == 0:
		since = fmt.Sprintf("It has been %s since the user's last message.", plural(minutes, "minute"))
	case hours < 24:
		since = fmt.Sprintf("It has been %s and %s since the user's last message.", plural(hours, "hour"), plural(minutes, "minute"))
	default:
		since = fmt.Sprintf("It has been %s since you last talked.", plural(hours/24, "day"))
	}

	return since + " " + current
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
