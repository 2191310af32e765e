package main

import (
	"log"
	"time"

	"github.com/slack-go/slack"
)

func main() {
	cfg := LoadConfig()

	db, err := InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	defer db.Close()

	api := slack.New(
		cfg.SlackBotToken,
		slack.OptionAppLevelToken(cfg.SlackAppToken),
	)

	calendar := NewHolidayCalendar(cfg.EasterOracleURL)
	runner := NewRunner(cfg, api, calendar)

	// Debug mode runs both passes once and exits.
	if cfg.Debug {
		now := time.Now().In(cfg.Location)
		if err := runner.RunReminders(now); err != nil {
			log.Printf("Reminder run: %v", err)
		}
		if err := runner.RunCelebrations(now); err != nil {
			log.Printf("Celebration run: %v", err)
		}
		return
	}

	StartStatusServer(cfg, runner, calendar)
	startCronLoop("reminder run", cfg.ReminderSchedule, cfg.Location, func() {
		if err := runner.RunReminders(time.Now().In(cfg.Location)); err != nil {
			log.Printf("Reminder run: %v", err)
		}
	})
	startCronLoop("celebration run", cfg.CelebrationSchedule, cfg.Location, func() {
		if err := runner.RunCelebrations(time.Now().In(cfg.Location)); err != nil {
			log.Printf("Celebration run: %v", err)
		}
	})

	log.Println("Starting logbot...")
	if err := StartFeedbackBot(cfg, db, api); err != nil {
		log.Fatalf("Feedback bot error: %v", err)
	}
}
