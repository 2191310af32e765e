package main

import (
	"fmt"
	"sort"
	"strings"
)

// LeaderboardGroup is one rank on the not-logged-days leaderboard. Users
// sharing the same count share the rank; Members keeps input order.
type LeaderboardGroup struct {
	Place   int
	Count   int
	Members []string // Slack user IDs
}

// LeaderboardGroups groups users by missing-day count, descending. Users
// below minDays (or with nothing missing) are dropped.
func LeaderboardGroups(attendances []Attendance, minDays int) []LeaderboardGroup {
	byCount := make(map[int][]string)
	for _, a := range attendances {
		n := len(a.MissingDays)
		if n == 0 || n < minDays {
			continue
		}
		byCount[n] = append(byCount[n], a.SlackID)
	}

	counts := make([]int, 0, len(byCount))
	for n := range byCount {
		counts = append(counts, n)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(counts)))

	groups := make([]LeaderboardGroup, 0, len(counts))
	for i, n := range counts {
		groups = append(groups, LeaderboardGroup{
			Place:   i + 1,
			Count:   n,
			Members: byCount[n],
		})
	}
	return groups
}

// RenderLeaderboard renders one line per group, blank line between groups.
// The <@ID> mention tokens are mapped by Slack on delivery.
func RenderLeaderboard(groups []LeaderboardGroup) string {
	lines := make([]string, 0, len(groups))
	for _, g := range groups {
		mentions := make([]string, len(g.Members))
		for i, id := range g.Members {
			mentions[i] = fmt.Sprintf("<@%s>", id)
		}
		lines = append(lines, fmt.Sprintf("%d PLACE (%d not logged days) %s\n %s",
			g.Place, g.Count, medalFor(g.Place), strings.Join(mentions, ", ")))
	}
	return strings.Join(lines, "\n\n")
}

// BuildLeaderboard is the grouping plus rendering in one step.
func BuildLeaderboard(attendances []Attendance, minDays int) string {
	return RenderLeaderboard(LeaderboardGroups(attendances, minDays))
}

func medalFor(place int) string {
	switch place {
	case 1:
		return ":first_place_medal:"
	case 2:
		return ":second_place_medal:"
	case 3:
		return ":third_place_medal:"
	}
	return ":clap:"
}

// ReminderMessage is the per-user DM listing unlogged days.
func ReminderMessage(displayName string, missingDays []string) string {
	quoted := make([]string, len(missingDays))
	for i, d := range missingDays {
		quoted[i] = "`" + d + "`"
	}
	return fmt.Sprintf("Hello %s, please log your time for the following days: %s",
		displayName, strings.Join(quoted, ", "))
}
