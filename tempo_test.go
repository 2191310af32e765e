package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestResolveJiraUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/3/user/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("query") != "ana@example.com" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if _, _, ok := r.BasicAuth(); !ok {
			t.Errorf("missing basic auth")
		}
		fmt.Fprint(w, `[{"accountId": "abc123", "emailAddress": "ana@example.com", "displayName": "Ana", "avatarUrls": {"48x48": "https://example.com/a.png"}}]`)
	}))
	defer server.Close()

	cfg := Config{JiraBaseURL: server.URL, JiraEmail: "bot@example.com", JiraAPIToken: "token"}
	user, err := ResolveJiraUser(cfg, "ana@example.com")
	if err != nil {
		t.Fatalf("ResolveJiraUser: %v", err)
	}
	if user == nil || user.AccountID != "abc123" || user.DisplayName != "Ana" {
		t.Fatalf("user wrong: %+v", user)
	}
	if user.Avatar != "https://example.com/a.png" {
		t.Fatalf("avatar wrong: %q", user.Avatar)
	}
}

func TestResolveJiraUserNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	cfg := Config{JiraBaseURL: server.URL}
	user, err := ResolveJiraUser(cfg, "nobody@example.com")
	if err != nil {
		t.Fatalf("no match must not be an error: %v", err)
	}
	if user != nil {
		t.Fatalf("expected nil user, got %+v", user)
	}
}

func TestResolveJiraUserHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	cfg := Config{JiraBaseURL: server.URL}
	if _, err := ResolveJiraUser(cfg, "ana@example.com"); err == nil {
		t.Fatalf("non-200 must be an error")
	}
}

func TestFetchWorkLogsSorted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/4/worklogs/user/abc123" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer token" {
			t.Errorf("missing bearer token")
		}
		if r.URL.Query().Get("from") != "2024-06-03" || r.URL.Query().Get("to") != "2024-06-07" {
			t.Errorf("unexpected range %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"results": [
			{"startDate": "2024-06-05", "timeSpentSeconds": 28800, "description": "midweek"},
			{"startDate": "2024-06-03", "timeSpentSeconds": 14400, "description": "monday"}
		]}`)
	}))
	defer server.Close()

	cfg := Config{TempoBaseURL: server.URL, TempoAPIToken: "token"}
	w := ReportingWindow{
		Start: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC),
	}

	records, err := FetchWorkLogs(cfg, "abc123", w)
	if err != nil {
		t.Fatalf("FetchWorkLogs: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Date != "2024-06-03" || records[1].Date != "2024-06-05" {
		t.Fatalf("records not sorted ascending: %+v", records)
	}
	if records[0].Seconds != 14400 || records[0].Description != "monday" {
		t.Fatalf("record fields wrong: %+v", records[0])
	}
}

func TestFetchWorkLogsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := Config{TempoBaseURL: server.URL}
	if _, err := FetchWorkLogs(cfg, "abc123", ReportingWindow{}); err == nil {
		t.Fatalf("non-200 must be an error")
	}
}
