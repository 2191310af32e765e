package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestStatusPage(t *testing.T) {
	cfg := Config{
		Location:            time.UTC,
		ReminderSchedule:    "0 16 * * *",
		CelebrationSchedule: "0 9 * * 1",
	}
	runner := NewRunner(cfg, nil, stubCalendar())
	router := buildStatusRouter(cfg, runner, stubCalendar("2024-01-01"), time.Now())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status page returned %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Cron Job Status", "Holidays", "0 16 * * *", "never ran"} {
		if !strings.Contains(body, want) {
			t.Fatalf("status page missing %q:\n%s", want, body)
		}
	}
}

func TestManualTrigger(t *testing.T) {
	cfg := Config{Location: time.UTC, WindowStartPolicy: windowPolicyClipped}
	runner := NewRunner(cfg, nil, stubCalendar())
	router := buildStatusRouter(cfg, runner, stubCalendar(), time.Now())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runcron", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("manual trigger returned %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Reminder run triggered manually") {
		t.Fatalf("unexpected trigger response: %s", rec.Body.String())
	}
}
