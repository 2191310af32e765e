package main

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

type Config struct {
	SlackBotToken string `yaml:"slack_bot_token"`
	SlackAppToken string `yaml:"slack_app_token"`

	JiraBaseURL   string `yaml:"jira_base_url"`
	JiraEmail     string `yaml:"jira_email"`
	JiraAPIToken  string `yaml:"jira_api_token"`
	TempoBaseURL  string `yaml:"tempo_base_url"`
	TempoAPIToken string `yaml:"tempo_api_token"`

	Emails []string `yaml:"emails"`

	MinHours           float64 `yaml:"min_hours"`
	WindowStartPolicy  string  `yaml:"window_start_policy"`
	EnableLeaderboard  bool    `yaml:"enable_leaderboard"`
	LeaderboardMinDays int     `yaml:"leaderboard_min_days"`

	ReportChannelID      string `yaml:"report_channel_id"`
	BirthdayChannelID    string `yaml:"birthday_channel_id"`
	BirthdaysPath        string `yaml:"birthdays_path"`
	BirthdayInstructions string `yaml:"birthday_msg_instructions"`

	LLMProvider     string `yaml:"llm_provider"`
	LLMModel        string `yaml:"llm_model"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`

	EncryptionKey   string `yaml:"encryption_key"`
	ManagerPassword string `yaml:"manager_password"`
	AdminEmail      string `yaml:"admin_email"`
	DBPath          string `yaml:"db_path"`

	ReminderSchedule    string `yaml:"reminder_schedule"`
	CelebrationSchedule string `yaml:"celebration_schedule"`
	EasterOracleURL     string `yaml:"easter_oracle_url"`
	Timezone            string `yaml:"timezone"`
	ListenAddr          string `yaml:"listen_addr"`
	Debug               bool   `yaml:"debug"`

	Location *time.Location `yaml:"-"`
}

func LoadConfig() Config {
	var cfg Config

	// .env then .env.local override, before anything reads the environment.
	_ = godotenv.Load()
	_ = godotenv.Overload(".env.local")

	// Load from config.yaml if it exists
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackAppToken, "SLACK_APP_TOKEN")
	envOverride(&cfg.JiraBaseURL, "JIRA_BASE_URL")
	envOverride(&cfg.JiraEmail, "JIRA_EMAIL")
	envOverride(&cfg.JiraAPIToken, "JIRA_API_TOKEN")
	envOverride(&cfg.TempoBaseURL, "TEMPO_BASE_URL")
	envOverride(&cfg.TempoAPIToken, "TEMPO_API_TOKEN")
	envOverrideFloat(&cfg.MinHours, "MIN_HOURS")
	envOverride(&cfg.WindowStartPolicy, "WINDOW_START_POLICY")
	envOverrideBool(&cfg.EnableLeaderboard, "ENABLE_WINNERS")
	envOverrideInt(&cfg.LeaderboardMinDays, "WINNERS_MIN_DAYS")
	envOverride(&cfg.ReportChannelID, "SLACK_CHANNEL_ID")
	envOverride(&cfg.BirthdayChannelID, "SLACK_CHANNEL_ID_BIRTHDAYS")
	envOverride(&cfg.BirthdaysPath, "BIRTHDAYS_PATH")
	envOverride(&cfg.BirthdayInstructions, "BIRTHDAY_MSG_INSTRUCTIONS")
	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverride(&cfg.EncryptionKey, "ENCRYPTION_KEY")
	envOverride(&cfg.ManagerPassword, "MANAGER_PASSWORD")
	envOverride(&cfg.AdminEmail, "ADMIN_EMAIL")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.ReminderSchedule, "REMINDER_SCHEDULE")
	envOverride(&cfg.CelebrationSchedule, "CELEBRATION_SCHEDULE")
	envOverride(&cfg.EasterOracleURL, "EASTER_ORACLE_URL")
	envOverride(&cfg.Timezone, "TIMEZONE")
	envOverride(&cfg.ListenAddr, "LISTEN_ADDR")
	envOverrideBool(&cfg.Debug, "DEBUG")

	if emails := os.Getenv("EMAIL_LIST"); emails != "" {
		cfg.Emails = nil
		for _, email := range strings.Split(emails, ",") {
			email = strings.TrimSpace(email)
			if email != "" {
				cfg.Emails = append(cfg.Emails, email)
			}
		}
	}

	// Defaults
	if cfg.WindowStartPolicy == "" {
		cfg.WindowStartPolicy = windowPolicyClipped
	}
	if cfg.LeaderboardMinDays == 0 {
		cfg.LeaderboardMinDays = 1
	}
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "anthropic"
	}
	if cfg.BirthdaysPath == "" {
		cfg.BirthdaysPath = "birthdays.json"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./feedback.db"
	}
	if cfg.ReminderSchedule == "" {
		cfg.ReminderSchedule = "0 16 * * *"
	}
	if cfg.CelebrationSchedule == "" {
		cfg.CelebrationSchedule = "0 9 * * 1"
	}
	if cfg.EasterOracleURL == "" {
		cfg.EasterOracleURL = "https://psdox.com/calendar/api"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":3000"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}

	// Validate required fields
	required := map[string]string{
		"slack_bot_token": cfg.SlackBotToken,
		"slack_app_token": cfg.SlackAppToken,
		"jira_base_url":   cfg.JiraBaseURL,
		"jira_email":      cfg.JiraEmail,
		"jira_api_token":  cfg.JiraAPIToken,
		"tempo_base_url":  cfg.TempoBaseURL,
		"tempo_api_token": cfg.TempoAPIToken,
	}
	for name, val := range required {
		if val == "" {
			log.Fatalf("Required config '%s' is not set (via config.yaml or env var)", name)
		}
	}

	switch cfg.LLMProvider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Fatalf("anthropic_api_key is required when llm_provider=anthropic")
		}
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Fatalf("openai_api_key is required when llm_provider=openai")
		}
	default:
		log.Fatalf("llm_provider must be 'anthropic' or 'openai', got '%s'", cfg.LLMProvider)
	}

	if cfg.WindowStartPolicy != windowPolicyClipped && cfg.WindowStartPolicy != windowPolicyMonth {
		log.Fatalf("window_start_policy must be 'clipped' or 'month', got '%s'", cfg.WindowStartPolicy)
	}
	if cfg.MinHours < 0 || cfg.MinHours > 24 {
		log.Fatalf("invalid min_hours '%f': must be between 0 and 24", cfg.MinHours)
	}
	if cfg.EnableLeaderboard && cfg.LeaderboardMinDays < 1 {
		log.Fatalf("invalid leaderboard_min_days '%d': must be >= 1", cfg.LeaderboardMinDays)
	}
	if len(cfg.EncryptionKey) != 32 {
		log.Fatalf("encryption_key must be exactly 32 characters long, got %d", len(cfg.EncryptionKey))
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(cfg.ReminderSchedule); err != nil {
		log.Fatalf("invalid reminder_schedule '%s': %v", cfg.ReminderSchedule, err)
	}
	if _, err := parser.Parse(cfg.CelebrationSchedule); err != nil {
		log.Fatalf("invalid celebration_schedule '%s': %v", cfg.CelebrationSchedule, err)
	}

	if strings.EqualFold(cfg.Timezone, "Local") {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			log.Fatalf("invalid timezone '%s': %v", cfg.Timezone, err)
		}
		cfg.Location = loc
	}

	return cfg
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideFloat(field *float64, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideBool(field *bool, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = strings.EqualFold(val, "true") || val == "1"
	}
}
