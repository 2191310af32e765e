package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// JiraUser is the identity descriptor resolved from an email address.
type JiraUser struct {
	AccountID    string
	EmailAddress string
	DisplayName  string
	Avatar       string
}

type jiraUserResponse struct {
	AccountID    string            `json:"accountId"`
	EmailAddress string            `json:"emailAddress"`
	DisplayName  string            `json:"displayName"`
	AvatarURLs   map[string]string `json:"avatarUrls"`
}

// ResolveJiraUser looks up a Jira account by email. Returns nil without
// error when no account matches; callers treat that as a skip condition.
func ResolveJiraUser(cfg Config, email string) (*JiraUser, error) {
	apiURL := fmt.Sprintf("%s/rest/api/3/user/search?query=%s",
		strings.TrimRight(cfg.JiraBaseURL, "/"), url.QueryEscape(email))

	req, err := http.NewRequest("GET", apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth(cfg.JiraEmail, cfg.JiraAPIToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := outboundHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searching Jira user: %w", err)
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("Jira API returned %d: %s", resp.StatusCode, string(body))
	}

	var users []jiraUserResponse
	if err := json.Unmarshal(body, &users); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if len(users) == 0 {
		return nil, nil
	}

	u := users[0]
	return &JiraUser{
		AccountID:    u.AccountID,
		EmailAddress: u.EmailAddress,
		DisplayName:  u.DisplayName,
		Avatar:       u.AvatarURLs["48x48"],
	}, nil
}

type tempoWorklogsResponse struct {
	Results []struct {
		StartDate        string `json:"startDate"`
		TimeSpentSeconds int    `json:"timeSpentSeconds"`
		Description      string `json:"description"`
	} `json:"results"`
}

// FetchWorkLogs fetches all Tempo worklogs for an account inside the
// window, ascending by date. An error here means the user is skipped for
// the run; it is never turned into "zero records".
func FetchWorkLogs(cfg Config, accountID string, w ReportingWindow) ([]WorkLogRecord, error) {
	apiURL := fmt.Sprintf("%s/4/worklogs/user/%s?from=%s&to=%s&limit=5000",
		strings.TrimRight(cfg.TempoBaseURL, "/"), url.PathEscape(accountID),
		w.Start.Format(isoDate), w.End.Format(isoDate))

	req, err := http.NewRequest("GET", apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cfg.TempoAPIToken)

	resp, err := outboundHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching worklogs: %w", err)
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("Tempo API returned %d: %s", resp.StatusCode, string(body))
	}

	var worklogs tempoWorklogsResponse
	if err := json.Unmarshal(body, &worklogs); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	records := make([]WorkLogRecord, 0, len(worklogs.Results))
	for _, r := range worklogs.Results {
		records = append(records, WorkLogRecord{
			Date:        r.StartDate,
			Seconds:     r.TimeSpentSeconds,
			Description: r.Description,
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date < records[j].Date })
	return records, nil
}
