package main

import "time"

const (
	windowPolicyClipped = "clipped"
	windowPolicyMonth   = "month"
)

// ReportingWindow is the inclusive date range over which attendance is
// evaluated. Start after End means an empty window.
type ReportingWindow struct {
	Start time.Time
	End   time.Time
}

func (w ReportingWindow) Empty() bool {
	return w.Start.After(w.End)
}

// CurrentWindow derives the reporting window from now.
//
// Start follows the configured policy:
//   - "month": first day of the current month;
//   - "clipped": min(max(Jan 1, 10 days ago), first of month).
//
// End is today, shifted back one day unless today is Friday, so a
// non-Friday today is never counted as a completed business day. The
// shift lives here, not in BusinessDays.
func CurrentWindow(policy string, now time.Time) ReportingWindow {
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	start := firstOfMonth
	if policy != windowPolicyMonth {
		jan1 := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		tenDaysAgo := midnight(now.AddDate(0, 0, -10))
		start = jan1
		if tenDaysAgo.After(start) {
			start = tenDaysAgo
		}
		if firstOfMonth.Before(start) {
			start = firstOfMonth
		}
	}

	end := midnight(now)
	if now.Weekday() != time.Friday {
		end = end.AddDate(0, 0, -1)
	}

	return ReportingWindow{Start: start, End: end}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// BusinessDays enumerates every Mon-Fri date inside the window that is not
// a public holiday, ascending, as ISO dates. Empty window yields nil.
func BusinessDays(w ReportingWindow, holidays []string) []string {
	holidaySet := make(map[string]bool, len(holidays))
	for _, h := range holidays {
		holidaySet[h] = true
	}

	var days []string
	for d := midnight(w.Start); !d.After(midnight(w.End)); d = d.AddDate(0, 0, 1) {
		if isWorkingDay(d, holidaySet) {
			days = append(days, d.Format(isoDate))
		}
	}
	return days
}

func isWorkingDay(t time.Time, holidaySet map[string]bool) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !holidaySet[t.Format(isoDate)]
}
