package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var eventDateRe = regexp.MustCompile(`^\d{1,2}-\d{1,2}(-\d{2,4})?$`)

// Person is one roster entry: an email plus recurring annual dates keyed
// by event kind ("birthday", "anniversary", ...). Raw values stay in
// DD-MM or DD-MM-YYYY form; the year is replaced on evaluation.
type Person struct {
	Email  string
	Events map[string][]string
}

// Celebration is one person's qualifying events for the current week.
type Celebration struct {
	Email  string
	Events []string // "kind on DD Month"
}

// LoadRoster reads the birthdays file. Each entry is a JSON object with an
// "email" field; every other field is an event kind holding a date string
// or an array of date strings. Values that do not look like dates are
// dropped one at a time, the rest of the entry survives.
func LoadRoster(path string) ([]Person, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	var roster []Person
	for i, entry := range raw {
		p := Person{Events: make(map[string][]string)}
		for key, value := range entry {
			if key == "email" {
				if s, ok := value.(string); ok {
					p.Email = strings.TrimSpace(s)
				}
				continue
			}
			switch v := value.(type) {
			case string:
				if eventDateRe.MatchString(v) {
					p.Events[key] = append(p.Events[key], v)
				} else {
					log.Printf("roster entry %d: ignoring %s value %q", i, key, v)
				}
			case []any:
				for _, item := range v {
					s, ok := item.(string)
					if !ok || !eventDateRe.MatchString(s) {
						log.Printf("roster entry %d: ignoring %s value %v", i, key, item)
						continue
					}
					p.Events[key] = append(p.Events[key], s)
				}
			default:
				log.Printf("roster entry %d: ignoring non-date field %s", i, key)
			}
		}
		if p.Email == "" {
			log.Printf("roster entry %d has no email, skipped", i)
			continue
		}
		roster = append(roster, p)
	}
	return roster, nil
}

// parseEventDate parses DD-MM or DD-MM-YYYY, substituting ref's year for
// the year component. ok is false when the value does not parse.
func parseEventDate(value string, ref time.Time) (time.Time, bool) {
	if !eventDateRe.MatchString(value) {
		return time.Time{}, false
	}
	parts := strings.Split(value, "-")
	day, _ := strconv.Atoi(parts[0])
	month, _ := strconv.Atoi(parts[1])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(ref.Year(), time.Month(month), day, 0, 0, 0, 0, ref.Location()), true
}

// CelebrationWindow is Monday 00:00:00 through Sunday 23:59:59 of the ISO
// week containing today. A Sunday today closes the week begun the prior
// Monday, so the window never spans a Sunday-to-Monday boundary.
func CelebrationWindow(today time.Time) (time.Time, time.Time) {
	offset := int(today.Weekday()) - int(time.Monday)
	if today.Weekday() == time.Sunday {
		offset = 6
	}
	monday := time.Date(today.Year(), today.Month(), today.Day()-offset, 0, 0, 0, 0, today.Location())
	sunday := monday.AddDate(0, 0, 6)
	end := time.Date(sunday.Year(), sunday.Month(), sunday.Day(), 23, 59, 59, 0, sunday.Location())
	return monday, end
}

// CelebrationsThisWeek selects roster entries with at least one event in
// the current week. People with nothing to celebrate are not emitted.
// Events are ordered by kind for a deterministic output.
func CelebrationsThisWeek(roster []Person, today time.Time) []Celebration {
	weekStart, weekEnd := CelebrationWindow(today)

	var out []Celebration
	for _, p := range roster {
		kinds := make([]string, 0, len(p.Events))
		for kind := range p.Events {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)

		var events []string
		for _, kind := range kinds {
			for _, value := range p.Events[kind] {
				date, ok := parseEventDate(value, today)
				if !ok {
					continue
				}
				if date.Before(weekStart) || date.After(weekEnd) {
					continue
				}
				events = append(events, fmt.Sprintf("%s on %s", kind, date.Format("02 January")))
			}
		}
		if len(events) == 0 {
			continue
		}
		out = append(out, Celebration{Email: p.Email, Events: events})
	}
	return out
}

// RenderCelebrations is the plain-text summary used when the LLM is
// unavailable and as prompt input when it is.
func RenderCelebrations(celebrations []Celebration) string {
	parts := make([]string, 0, len(celebrations))
	for _, c := range celebrations {
		parts = append(parts, fmt.Sprintf("%s - %s", c.Email, strings.Join(c.Events, ", ")))
	}
	return strings.Join(parts, ", ")
}
