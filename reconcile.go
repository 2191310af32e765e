package main

// WorkLogRecord is one logged-time entry from the time-tracking system.
type WorkLogRecord struct {
	Date        string // ISO YYYY-MM-DD
	Seconds     int
	Description string
}

// Attendance is the reconciliation result for one user.
type Attendance struct {
	Email       string
	SlackID     string
	DisplayName string
	MissingDays []string // ascending ISO dates
}

// HoursPerDay aggregates logged time per calendar day, in hours, keeping
// only records inside the window. ISO date strings compare lexically.
func HoursPerDay(records []WorkLogRecord, w ReportingWindow) map[string]float64 {
	from := w.Start.Format(isoDate)
	to := w.End.Format(isoDate)

	hours := make(map[string]float64)
	for _, r := range records {
		if r.Date < from || r.Date > to {
			continue
		}
		hours[r.Date] += float64(r.Seconds) / 3600
	}
	return hours
}

// Reconcile returns the business days of the window the user has not
// covered. A day is missing when no record exists for it or the summed
// hours are strictly below minHours; exactly minHours satisfies the day.
// With minHours zero any record at all counts.
func Reconcile(records []WorkLogRecord, w ReportingWindow, holidays []string, minHours float64) []string {
	hours := HoursPerDay(records, w)

	var missing []string
	for _, day := range BusinessDays(w, holidays) {
		h, ok := hours[day]
		if !ok || h < minHours {
			missing = append(missing, day)
		}
	}
	return missing
}
