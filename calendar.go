package main

import (
	"fmt"
	"io"
	"log"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

const isoDate = "2006-01-02"

// easterFallback is used whenever the calendar oracle cannot be reached or
// returns something unparseable. A single failure falls back immediately,
// no retry and no stale cache.
const easterFallback = "2024-05-05"

var grigorinRe = regexp.MustCompile(`<grigorin>([\d.]+)</grigorin>`)

// HolidayCalendar computes the official Bulgarian public holidays for a
// year. Results are cached per year; the moving Easter date comes from an
// external oracle injected as a function so it can be stubbed in tests.
type HolidayCalendar struct {
	easter func(year int) string

	mu    sync.Mutex
	cache map[int][]string
}

func NewHolidayCalendar(oracleURL string) *HolidayCalendar {
	return &HolidayCalendar{
		easter: func(year int) string { return fetchEasterDate(oracleURL, year) },
		cache:  make(map[int][]string),
	}
}

// HolidaysForYear returns the sorted, duplicate-free holiday list for the
// year as ISO dates. Computed lazily on first request per year.
func (c *HolidayCalendar) HolidaysForYear(year int) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if days, ok := c.cache[year]; ok {
		return days
	}
	days := buildHolidays(year, c.easter(year))
	c.cache[year] = days
	return days
}

// fetchEasterDate asks the oracle for the Orthodox Easter Sunday of a year.
// The response embeds the date as <grigorin>DD.MM.YYYY</grigorin>.
func fetchEasterDate(oracleURL string, year int) string {
	apiURL := fmt.Sprintf("%s/%d", strings.TrimRight(oracleURL, "/"), year)

	resp, err := outboundHTTPClient.Get(apiURL)
	if err != nil {
		log.Printf("easter oracle unreachable: %v, using fallback %s", err, easterFallback)
		return easterFallback
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode != 200 {
		log.Printf("easter oracle status=%d err=%v, using fallback %s", resp.StatusCode, err, easterFallback)
		return easterFallback
	}

	match := grigorinRe.FindSubmatch(body)
	if match == nil {
		log.Printf("easter oracle response has no grigorin tag, using fallback %s", easterFallback)
		return easterFallback
	}
	parts := strings.Split(string(match[1]), ".")
	if len(parts) != 3 {
		log.Printf("easter oracle date %q malformed, using fallback %s", match[1], easterFallback)
		return easterFallback
	}
	return parts[2] + "-" + parts[1] + "-" + parts[0]
}

func buildHolidays(year int, easterSunday string) []string {
	base := []string{
		fmt.Sprintf("%d-01-01", year),
		fmt.Sprintf("%d-03-03", year),
		addDays(easterSunday, -2), // Good Friday
		addDays(easterSunday, +1), // Easter Monday
		fmt.Sprintf("%d-05-01", year),
		fmt.Sprintf("%d-05-06", year),
		fmt.Sprintf("%d-05-24", year),
		fmt.Sprintf("%d-09-06", year),
		fmt.Sprintf("%d-09-22", year),
		fmt.Sprintf("%d-11-01", year),
	}

	days := append([]string(nil), base...)

	// A holiday landing on a weekend shifts onto the following weekday.
	for _, holiday := range base {
		switch weekdayOf(holiday) {
		case time.Saturday:
			days = append(days, addDays(holiday, +2))
		case time.Sunday:
			days = append(days, addDays(holiday, +1))
		}
	}

	days = append(days,
		fmt.Sprintf("%d-12-24", year),
		fmt.Sprintf("%d-12-25", year),
		fmt.Sprintf("%d-12-26", year),
	)

	// Christmas substitution table from the labour code, keyed by the
	// weekday of Dec 24. Hand-authored, do not re-derive.
	switch time.Date(year, time.December, 24, 0, 0, 0, 0, time.UTC).Weekday() {
	case time.Sunday:
		days = append(days, fmt.Sprintf("%d-12-27", year))
	case time.Thursday:
		days = append(days, fmt.Sprintf("%d-12-28", year))
	case time.Friday, time.Saturday:
		days = append(days, fmt.Sprintf("%d-12-27", year), fmt.Sprintf("%d-12-28", year))
	}

	seen := make(map[string]bool, len(days))
	unique := days[:0]
	for _, d := range days {
		if seen[d] {
			continue
		}
		seen[d] = true
		unique = append(unique, d)
	}
	sort.Strings(unique)
	return unique
}

func addDays(iso string, n int) string {
	t, err := time.Parse(isoDate, iso)
	if err != nil {
		return iso
	}
	return t.AddDate(0, 0, n).Format(isoDate)
}

func weekdayOf(iso string) time.Weekday {
	t, err := time.Parse(isoDate, iso)
	if err != nil {
		return time.Monday
	}
	return t.Weekday()
}
