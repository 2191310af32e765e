package main

import (
	"testing"
	"time"
)

func weekWindow() ReportingWindow {
	return ReportingWindow{
		Start: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), // Monday
		End:   time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC), // Friday
	}
}

func TestReconcilePresenceOnly(t *testing.T) {
	records := []WorkLogRecord{
		{Date: "2024-06-03", Seconds: 28800},
		{Date: "2024-06-05", Seconds: 28800},
	}

	missing := Reconcile(records, weekWindow(), nil, 0)

	want := []string{"2024-06-04", "2024-06-06", "2024-06-07"}
	if len(missing) != len(want) {
		t.Fatalf("unexpected missing days: %v", missing)
	}
	for i, d := range want {
		if missing[i] != d {
			t.Fatalf("missing day %d: got %s want %s", i, missing[i], d)
		}
	}
}

func TestReconcileNumericThreshold(t *testing.T) {
	records := []WorkLogRecord{
		{Date: "2024-06-03", Seconds: 14400}, // exactly 4h, ties satisfy
		{Date: "2024-06-04", Seconds: 14399}, // just under
		{Date: "2024-06-05", Seconds: 7200},
		{Date: "2024-06-05", Seconds: 7200}, // sums to 4h
	}

	missing := Reconcile(records, weekWindow(), nil, 4)

	want := []string{"2024-06-04", "2024-06-06", "2024-06-07"}
	if len(missing) != len(want) {
		t.Fatalf("unexpected missing days: %v", missing)
	}
	for i, d := range want {
		if missing[i] != d {
			t.Fatalf("missing day %d: got %s want %s", i, missing[i], d)
		}
	}
}

func TestReconcileIgnoresRecordsOutsideWindow(t *testing.T) {
	records := []WorkLogRecord{
		{Date: "2024-05-31", Seconds: 28800},
		{Date: "2024-06-08", Seconds: 28800},
	}

	missing := Reconcile(records, weekWindow(), nil, 0)
	if len(missing) != 5 {
		t.Fatalf("out-of-window records must not satisfy days, got %v", missing)
	}
}

func TestReconcileExcludesHolidays(t *testing.T) {
	missing := Reconcile(nil, weekWindow(), []string{"2024-06-05"}, 0)

	for _, d := range missing {
		if d == "2024-06-05" {
			t.Fatalf("holiday must not be reported missing: %v", missing)
		}
	}
	if len(missing) != 4 {
		t.Fatalf("expected 4 missing days, got %v", missing)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	records := []WorkLogRecord{
		{Date: "2024-06-03", Seconds: 3600},
		{Date: "2024-06-06", Seconds: 1800},
	}

	first := Reconcile(records, weekWindow(), nil, 1)
	second := Reconcile(records, weekWindow(), nil, 1)

	if len(first) != len(second) {
		t.Fatalf("reconcile not idempotent: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("reconcile not idempotent at %d: %v vs %v", i, first, second)
		}
	}
}

func TestHoursPerDayAggregates(t *testing.T) {
	records := []WorkLogRecord{
		{Date: "2024-06-03", Seconds: 3600},
		{Date: "2024-06-03", Seconds: 5400},
	}

	hours := HoursPerDay(records, weekWindow())
	if hours["2024-06-03"] != 2.5 {
		t.Fatalf("expected 2.5 aggregated hours, got %f", hours["2024-06-03"])
	}
}
