package main

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// buildStatusRouter wires the status page and the manual-trigger endpoint.
func buildStatusRouter(cfg Config, runner *Runner, calendar *HolidayCalendar, startedAt time.Time) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		state, lastRun := runner.Status()
		last := "never"
		if !lastRun.IsZero() {
			last = lastRun.In(cfg.Location).Format(time.RFC1123)
		}
		holidays := calendar.HolidaysForYear(time.Now().In(cfg.Location).Year())

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<h1>Cron Job Status</h1>
<p>Debug: %t</p>
<p>Started: %s</p>
<p>Holidays: %s</p>
<p>Runs: %s (reminders), %s (celebrations)</p>
<p>Status: %s</p>
<p>Last Run: %s</p>
`,
			cfg.Debug,
			startedAt.In(cfg.Location).Format(time.RFC1123),
			strings.Join(holidays, ", "),
			cfg.ReminderSchedule, cfg.CelebrationSchedule,
			state, last)
	})

	r.Get("/runcron", func(w http.ResponseWriter, _ *http.Request) {
		go func() {
			if err := runner.RunReminders(time.Now().In(cfg.Location)); err != nil {
				log.Printf("manual reminder run: %v", err)
			}
		}()
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintln(w, "Reminder run triggered manually")
	})

	return r
}

func StartStatusServer(cfg Config, runner *Runner, calendar *HolidayCalendar) {
	router := buildStatusRouter(cfg, runner, calendar, time.Now())
	go func() {
		log.Printf("Status server listening on %s", cfg.ListenAddr)
		if err := http.ListenAndServe(cfg.ListenAddr, router); err != nil {
			log.Printf("Status server error: %v", err)
		}
	}()
}
