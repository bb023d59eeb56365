package internal

import "time"

const (
	// DisplayTimeFormat is the standard time format used in reports
	DisplayTimeFormat = "2006-01-02 15:04:05"
	// LogTimeFormat is the short time format used in log lines
	LogTimeFormat = "15:04:05"
)

// FormatLocal formats t in the local time zone for display
func FormatLocal(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(DisplayTimeFormat)
}

// parseImageDate parses the RFC3339 creation date EC2 reports for images.
func parseImageDate(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
