package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/slack-go/slack"
)

var errRunInProgress = errors.New("a reminder run is already in progress")

// Runner executes the scheduled reminder and celebration passes. Only one
// reminder run may be active at a time; a re-trigger while one is in
// flight is rejected rather than queued.
type Runner struct {
	cfg      Config
	api      *slack.Client
	calendar *HolidayCalendar
	compose  func(Config, []Celebration, time.Time) (CelebrationMessage, error)

	runMu sync.Mutex

	statusMu  sync.Mutex
	lastRun   time.Time
	lastState string
}

func NewRunner(cfg Config, api *slack.Client, calendar *HolidayCalendar) *Runner {
	return &Runner{
		cfg:       cfg,
		api:       api,
		calendar:  calendar,
		compose:   ComposeCelebrationMessage,
		lastState: "never ran",
	}
}

// Status reports the outcome of the most recent reminder run for the
// status page.
func (r *Runner) Status() (string, time.Time) {
	r.statusMu.Lock()
	defer r.statusMu.Unlock()
	return r.lastState, r.lastRun
}

func (r *Runner) setStatus(state string) {
	r.statusMu.Lock()
	r.lastState = state
	r.lastRun = time.Now()
	r.statusMu.Unlock()
}

// RunReminders executes one full reminder pass: per user, resolve the
// Jira identity, fetch worklogs, reconcile against the business-day set
// and DM the unlogged days; then invite qualifying users to the report
// channel and post the leaderboard. Per-user failures skip that user and
// never abort the batch.
func (r *Runner) RunReminders(now time.Time) error {
	if !r.runMu.TryLock() {
		log.Println("reminder run rejected: already in progress")
		return errRunInProgress
	}
	defer r.runMu.Unlock()

	window := CurrentWindow(r.cfg.WindowStartPolicy, now)
	if window.Empty() {
		log.Printf("reminder run: empty window %s - %s, nothing to do",
			window.Start.Format(isoDate), window.End.Format(isoDate))
		r.setStatus("ok (empty window)")
		return nil
	}
	log.Printf("reminder run: window %s - %s users=%d",
		window.Start.Format(isoDate), window.End.Format(isoDate), len(r.cfg.Emails))

	holidays := r.calendar.HolidaysForYear(now.Year())

	var winners []Attendance
	for _, email := range r.cfg.Emails {
		user, err := ResolveJiraUser(r.cfg, email)
		if err != nil {
			log.Printf("reminder run: jira lookup failed for %s, skipped: %v", email, err)
			continue
		}
		if user == nil {
			log.Printf("reminder run: no jira account for %s, skipped", email)
			continue
		}

		// A failed fetch is a skip, never treated as zero records: that
		// would mark every business day missing.
		records, err := FetchWorkLogs(r.cfg, user.AccountID, window)
		if err != nil {
			log.Printf("reminder run: worklog fetch failed for %s, skipped: %v", email, err)
			continue
		}

		missing := Reconcile(records, window, holidays, r.cfg.MinHours)
		if len(missing) == 0 {
			continue
		}

		slackID, err := lookupUserIDByEmail(r.api, email)
		if err != nil {
			log.Printf("reminder run: slack lookup failed for %s, skipped: %v", email, err)
			continue
		}

		if err := sendDM(r.api, slackID, ReminderMessage(user.DisplayName, missing)); err != nil {
			log.Printf("reminder run: DM to %s failed: %v", email, err)
		} else {
			log.Printf("reminder run: nudged %s for %d days", email, len(missing))
		}

		if r.cfg.EnableLeaderboard && len(missing) >= r.cfg.LeaderboardMinDays {
			winners = append(winners, Attendance{
				Email:       email,
				SlackID:     slackID,
				DisplayName: user.DisplayName,
				MissingDays: missing,
			})
		}
	}

	if len(winners) == 0 {
		r.setStatus("ok")
		return nil
	}

	for _, w := range winners {
		if err := inviteToChannel(r.api, w.SlackID, r.cfg.ReportChannelID); err != nil {
			log.Printf("reminder run: invite %s failed: %v", w.Email, err)
		}
	}

	board := BuildLeaderboard(winners, r.cfg.LeaderboardMinDays)
	if err := postChannel(r.api, r.cfg.ReportChannelID, board); err != nil {
		r.setStatus(fmt.Sprintf("failed: %v", err))
		return fmt.Errorf("posting leaderboard: %w", err)
	}

	r.setStatus("ok")
	return nil
}

// RunCelebrations posts this week's birthday/anniversary message. A
// missing roster file disables the run silently; an LLM failure degrades
// to the plain rendered summary.
func (r *Runner) RunCelebrations(now time.Time) error {
	roster, err := LoadRoster(r.cfg.BirthdaysPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("celebration run: %s not found, skipped", r.cfg.BirthdaysPath)
			return nil
		}
		return fmt.Errorf("loading roster: %w", err)
	}

	celebrations := CelebrationsThisWeek(roster, now)
	log.Printf("celebration run: %d people celebrating this week", len(celebrations))

	msg, err := r.compose(r.cfg, celebrations, now)
	if err != nil {
		log.Printf("celebration run: compose failed: %v", err)
		if len(celebrations) == 0 {
			// Nothing to announce and no filler to generate.
			return nil
		}
		msg = fallbackCelebrationMessage(celebrations)
	}

	text := msg.Message
	for _, email := range msg.Emails {
		slackID, err := lookupUserIDByEmail(r.api, email)
		if err != nil || slackID == "" {
			log.Printf("celebration run: slack lookup failed for %s: %v", email, err)
			continue
		}
		text = strings.ReplaceAll(text, email, "<@"+slackID+">")
	}

	return postChannel(r.api, r.cfg.BirthdayChannelID, text)
}

// fallbackCelebrationMessage degrades to the plain rendered summary with
// every celebrant mentioned, used when composition fails.
func fallbackCelebrationMessage(celebrations []Celebration) CelebrationMessage {
	msg := CelebrationMessage{Message: RenderCelebrations(celebrations)}
	for _, c := range celebrations {
		msg.Emails = append(msg.Emails, c.Email)
	}
	return msg
}

// startCronLoop runs job on a 5-field cron schedule (minute hour
// day-of-month month day-of-week), sleeping until each next firing.
func startCronLoop(name, schedule string, loc *time.Location, job func()) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(strings.TrimSpace(schedule))
	if err != nil {
		log.Printf("Invalid %s schedule '%s': %v, disabled", name, schedule, err)
		return
	}

	log.Printf("%s scheduled (cron: %s)", name, schedule)

	go func() {
		for {
			now := time.Now().In(loc)
			next := sched.Next(now)
			log.Printf("Next %s at %s (in %s)", name, next.Format("Mon Jan 2 15:04"), next.Sub(now).Round(time.Minute))

			time.Sleep(next.Sub(now))
			job()
		}
	}()
}
