package printer

import (
	"fmt"
	"time"
)

const noTime = "-"

var timeAgoUnits = []struct {
	size time.Duration
	name string
}{
	{24 * time.Hour, "day"},
	{time.Hour, "hour"},
	{time.Minute, "minute"},
	{time.Second, "second"},
}

// TimeAgo returns a human-readable relative time string.
// Examples: "5 seconds ago", "2 minutes ago", "3 hours ago".
func TimeAgo(t time.Time) string {
	if t.IsZero() {
		return noTime
	}

	diff := time.Since(t)
	if diff < 0 {
		return "in the future"
	}

	for _, u := range timeAgoUnits {
		if diff < u.size {
			continue
		}
		n := int(diff / u.size)
		if n == 1 {
			return fmt.Sprintf("1 %s ago", u.name)
		}
		return fmt.Sprintf("%d %ss ago", n, u.name)
	}

	return "just now"
}

// FormatTimestamp returns a formatted timestamp string in UTC.
// Format: "2006-01-02 15:04:05 UTC".
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return noTime
	}
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}
