package main

import (
	"os"
	"path/filepath"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("SLACK_APP_TOKEN", "xapp-test")
	t.Setenv("JIRA_BASE_URL", "https://example.atlassian.net")
	t.Setenv("JIRA_EMAIL", "bot@example.com")
	t.Setenv("JIRA_API_TOKEN", "jira-token")
	t.Setenv("TEMPO_BASE_URL", "https://api.tempo.io")
	t.Setenv("TEMPO_API_TOKEN", "tempo-token")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg := LoadConfig()

	if cfg.WindowStartPolicy != windowPolicyClipped {
		t.Fatalf("default window policy wrong: %q", cfg.WindowStartPolicy)
	}
	if cfg.MinHours != 0 {
		t.Fatalf("default min hours wrong: %f", cfg.MinHours)
	}
	if cfg.LeaderboardMinDays != 1 {
		t.Fatalf("default leaderboard min days wrong: %d", cfg.LeaderboardMinDays)
	}
	if cfg.LLMProvider != "anthropic" {
		t.Fatalf("default llm provider wrong: %q", cfg.LLMProvider)
	}
	if cfg.ReminderSchedule != "0 16 * * *" || cfg.CelebrationSchedule != "0 9 * * 1" {
		t.Fatalf("default schedules wrong: %q %q", cfg.ReminderSchedule, cfg.CelebrationSchedule)
	}
	if cfg.BirthdaysPath != "birthdays.json" || cfg.DBPath != "./feedback.db" {
		t.Fatalf("default paths wrong: %q %q", cfg.BirthdaysPath, cfg.DBPath)
	}
	if cfg.ListenAddr != ":3000" {
		t.Fatalf("default listen addr wrong: %q", cfg.ListenAddr)
	}
	if cfg.Location == nil {
		t.Fatalf("location not resolved")
	}
}

func TestLoadConfigFromYAML(t *testing.T) {
	setRequiredEnv(t)

	yamlContent := `
min_hours: 4
window_start_policy: month
enable_leaderboard: true
leaderboard_min_days: 2
emails:
  - ana@example.com
  - bo@example.com
timezone: Europe/Sofia
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)

	cfg := LoadConfig()

	if cfg.MinHours != 4 {
		t.Fatalf("min hours wrong: %f", cfg.MinHours)
	}
	if cfg.WindowStartPolicy != windowPolicyMonth {
		t.Fatalf("window policy wrong: %q", cfg.WindowStartPolicy)
	}
	if !cfg.EnableLeaderboard || cfg.LeaderboardMinDays != 2 {
		t.Fatalf("leaderboard settings wrong: %v %d", cfg.EnableLeaderboard, cfg.LeaderboardMinDays)
	}
	if len(cfg.Emails) != 2 || cfg.Emails[0] != "ana@example.com" {
		t.Fatalf("emails wrong: %v", cfg.Emails)
	}
	if cfg.Location == nil || cfg.Location.String() != "Europe/Sofia" {
		t.Fatalf("location wrong: %v", cfg.Location)
	}
}

func TestLoadConfigEnvOverridesYAML(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("min_hours: 4\nwindow_start_policy: month\n"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("MIN_HOURS", "6.5")
	t.Setenv("WINDOW_START_POLICY", "clipped")

	cfg := LoadConfig()

	if cfg.MinHours != 6.5 {
		t.Fatalf("env must override yaml min hours: %f", cfg.MinHours)
	}
	if cfg.WindowStartPolicy != windowPolicyClipped {
		t.Fatalf("env must override yaml policy: %q", cfg.WindowStartPolicy)
	}
}

func TestLoadConfigEmailList(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("EMAIL_LIST", "ana@example.com, bo@example.com , ,cat@example.com")

	cfg := LoadConfig()

	if len(cfg.Emails) != 3 {
		t.Fatalf("email list wrong: %v", cfg.Emails)
	}
	if cfg.Emails[1] != "bo@example.com" || cfg.Emails[2] != "cat@example.com" {
		t.Fatalf("email list not trimmed: %v", cfg.Emails)
	}
}
