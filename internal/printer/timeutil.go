package printer

import (
	"fmt"
	"time"
)

// timeUnits are evaluated in order, first one whose span covers the elapsed
// time wins. Days have no upper bound.
var timeUnits = []struct {
	span     time.Duration
	unit     time.Duration
	singular string
	plural   string
}{
	{span: time.Minute, unit: time.Second, singular: "second", plural: "seconds"},
	{span: time.Hour, unit: time.Minute, singular: "minute", plural: "minutes"},
	{span: 24 * time.Hour, unit: time.Hour, singular: "hour", plural: "hours"},
	{span: 0, unit: 24 * time.Hour, singular: "day", plural: "days"},
}

// TimeAgo returns a human-readable relative time string in UTC.
// Examples: "5 seconds ago (UTC)", "2 minutes ago (UTC)", "3 hours ago (UTC)".
func TimeAgo(t time.Time) string {
	diff := time.Now().UTC().Sub(t.UTC())
	if diff < 0 {
		return "in the future (UTC)"
	}

	for _, u := range timeUnits {
		if u.span != 0 && diff >= u.span {
			continue
		}
		n := int(diff / u.unit)
		if n == 1 {
			return fmt.Sprintf("1 %s ago (UTC)", u.singular)
		}
		return fmt.Sprintf("%d %s ago (UTC)", n, u.plural)
	}

	return "in the past (UTC)" // Unreachable, days are unbounded.
}

// FormatTimestamp returns a formatted timestamp string in UTC.
// Format: "2006-01-02 15:04:05 UTC".
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}
