package game

import "time"

type eventWindow struct {
	name  string
	start string // MM-DD inclusive
	end   string // MM-DD inclusive; start > end means the window wraps the year
}

var eventWindows = []eventWindow{
	{"halloween", "10-20", "10-31"},
	{"newyear", "12-30", "01-02"},
	{"space", "07-01", "07-10"},
	{"rainbow", "06-01", "06-30"},
}

// EventModeFor returns the seasonal event active at t, or "classic".
func EventModeFor(t time.Time) string {
	day := t.Format("01-02")
	for _, w := range eventWindows {
		if w.start <= w.end {
			if day >= w.start && day <= w.end {
				return w.name
			}
		} else if day >= w.start || day <= w.end {
			return w.name
		}
	}
	return "classic"
}
