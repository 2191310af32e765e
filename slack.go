package main

import (
	"database/sql"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
)

var feedbackMentionRe = regexp.MustCompile(`^<@([A-Z0-9]+)(?:\|[^>]*)?>\s+(.+)`)
var feedbackHandleRe = regexp.MustCompile(`^@([\w.-]+)\s+(.+)`)
var managerPassRe = regexp.MustCompile(`(?i)^pass:\s*([^\s,]+)`)
var anyMentionRe = regexp.MustCompile(`<@([A-Z0-9]+)(?:\|[^>]*)?>|(?:^|[\s,])@([\w.-]+)`)

const feedbackRetentionNotice = "*NOTE: This message will self delete after 10 minutes.*\n\n"
const managerResponseTTL = 10 * time.Minute

const feedbackHelpText = "Hello! :wave: I'm here to help you manage feedback. Here's what I can do:\n" +
	"1. *Submit Feedback*: share feedback about someone confidentially.\n" +
	"   Format: `@recipient your feedback`\n" +
	"2. *Retrieve Feedback (managers only)*: view feedback submitted for one or more people.\n" +
	"   Format: `Pass: <password>, Feedback for @recipient1, @recipient2`\n" +
	"3. *Delete all messages*: purge my messages from this conversation.\n" +
	"   Format: `delete all messages`\n" +
	"4. *Help*: this message, anytime.\n\n" +
	"All messages sent to me are confidential and deleted after processing."

const feedbackFormatHint = "Unrecognized message format.\n" +
	"To share feedback about someone: `@recipient your feedback message`.\n" +
	"To retrieve feedback: `Pass: <password>, Feedback for @person, @person...`"

// sendDM opens (or reuses) the direct-message conversation with a user
// and posts there.
func sendDM(api *slack.Client, userID, text string) error {
	channel, _, _, err := api.OpenConversation(&slack.OpenConversationParameters{
		Users: []string{userID},
	})
	if err != nil {
		return fmt.Errorf("opening DM with %s: %w", userID, err)
	}
	_, _, err = api.PostMessage(channel.ID, slack.MsgOptionText(text, false))
	return err
}

func postChannel(api *slack.Client, channelID, text string) error {
	_, _, err := api.PostMessage(channelID, slack.MsgOptionText(text, false))
	return err
}

func lookupUserIDByEmail(api *slack.Client, email string) (string, error) {
	user, err := api.GetUserByEmail(email)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// inviteToChannel makes sure the bot itself is in the channel, then
// invites the user unless already a member.
func inviteToChannel(api *slack.Client, userID, channelID string) error {
	if _, _, _, err := api.JoinConversation(channelID); err != nil {
		log.Printf("join channel %s: %v", channelID, err)
	}

	params := &slack.GetUsersInConversationParameters{
		ChannelID: channelID,
		Limit:     1000,
	}
	for {
		members, cursor, err := api.GetUsersInConversation(params)
		if err != nil {
			return fmt.Errorf("listing members of %s: %w", channelID, err)
		}
		for _, m := range members {
			if m == userID {
				return nil
			}
		}
		if cursor == "" {
			break
		}
		params.Cursor = cursor
	}

	_, err := api.InviteUsersToConversation(channelID, userID)
	return err
}

// StartFeedbackBot runs the socket-mode event loop handling feedback DMs.
func StartFeedbackBot(cfg Config, db *sql.DB, api *slack.Client) error {
	client := socketmode.New(api)

	go func() {
		for evt := range client.Events {
			switch evt.Type {
			case socketmode.EventTypeEventsAPI:
				client.Ack(*evt.Request)
				eventsAPIEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
				if !ok {
					continue
				}
				go handleEventsAPI(api, db, cfg, eventsAPIEvent)
			}
		}
	}()

	return client.Run()
}

func handleEventsAPI(api *slack.Client, db *sql.DB, cfg Config, event slackevents.EventsAPIEvent) {
	if event.Type != slackevents.CallbackEvent {
		return
	}
	ev, ok := event.InnerEvent.Data.(*slackevents.MessageEvent)
	if !ok {
		return
	}
	handleDirectMessage(api, db, cfg, ev)
}

func handleDirectMessage(api *slack.Client, db *sql.DB, cfg Config, ev *slackevents.MessageEvent) {
	// Ignore bot echo and non-DM traffic.
	if ev.SubType == "bot_message" || ev.BotID != "" || ev.Text == "" {
		return
	}
	if ev.ChannelType != "" && ev.ChannelType != "im" {
		return
	}

	text := strings.TrimSpace(ev.Text)
	switch {
	case strings.EqualFold(text, "help"):
		respond(api, ev.Channel, feedbackHelpText)
	case isDeleteAllCommand(text):
		handleDeleteAll(api, cfg, ev.Channel)
	case managerPassRe.MatchString(text):
		handleManagerRequest(api, db, cfg, ev)
	case feedbackMentionRe.MatchString(text) || feedbackHandleRe.MatchString(text):
		handleFeedbackSubmission(api, db, cfg, ev)
	default:
		respond(api, ev.Channel, feedbackFormatHint)
	}
}

func respond(api *slack.Client, channelID, text string) (string, string) {
	channel, ts, err := api.PostMessage(channelID,
		slack.MsgOptionBlocks(slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil)))
	if err != nil {
		log.Printf("feedback bot respond error: %v", err)
	}
	return channel, ts
}

// parseFeedbackCommand extracts the recipient handle and feedback text
// from "@recipient feedback..." or "<@U123> feedback...".
func parseFeedbackCommand(text string) (recipient string, isID bool, feedback string, ok bool) {
	if m := feedbackMentionRe.FindStringSubmatch(text); m != nil {
		return m[1], true, strings.TrimSpace(m[2]), true
	}
	if m := feedbackHandleRe.FindStringSubmatch(text); m != nil {
		return m[1], false, strings.TrimSpace(m[2]), true
	}
	return "", false, "", false
}

// parseManagerCommand extracts the password and requested recipients from
// "Pass: <password>, Feedback for @a, @b".
func parseManagerCommand(text string) (password string, recipients []string, ok bool) {
	m := managerPassRe.FindStringSubmatch(text)
	if m == nil {
		return "", nil, false
	}
	password = strings.TrimSuffix(m[1], ",")

	rest := text[len(m[0]):]
	for _, match := range anyMentionRe.FindAllStringSubmatch(rest, -1) {
		if match[1] != "" {
			recipients = append(recipients, match[1])
		} else if match[2] != "" {
			recipients = append(recipients, match[2])
		}
	}
	if len(recipients) == 0 {
		return "", nil, false
	}
	return password, recipients, true
}

func isDeleteAllCommand(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), "delete all messages")
}

func isBotAuthored(msg slack.Message) bool {
	return msg.BotID != "" || msg.SubType == "bot_message"
}

// handleDeleteAll purges every bot message from the DM history, page by
// page. Only the bot's own messages are deletable; the user's stay. No
// confirmation is posted, it would just repopulate the conversation.
func handleDeleteAll(api *slack.Client, cfg Config, channelID string) {
	var cursor string
	failed := false
	for {
		history, err := api.GetConversationHistory(&slack.GetConversationHistoryParameters{
			ChannelID: channelID,
			Cursor:    cursor,
			Limit:     100,
		})
		if err != nil {
			log.Printf("delete all: history fetch for %s: %v", channelID, err)
			respond(api, channelID, "Something went wrong. Please try again later.")
			return
		}
		for _, msg := range history.Messages {
			if !isBotAuthored(msg) {
				continue
			}
			if _, _, err := api.DeleteMessage(channelID, msg.Timestamp); err != nil {
				log.Printf("delete all: delete %s in %s: %v", msg.Timestamp, channelID, err)
				failed = true
			}
		}
		if history.ResponseMetaData.NextCursor == "" {
			break
		}
		cursor = history.ResponseMetaData.NextCursor
	}
	if failed {
		respond(api, channelID, deleteFailureNotice(api, cfg))
	}
}

// deleteFailureNotice names who to contact when plaintext feedback could
// not be purged from the conversation.
func deleteFailureNotice(api *slack.Client, cfg Config) string {
	if cfg.AdminEmail != "" {
		adminID, err := lookupUserIDByEmail(api, cfg.AdminEmail)
		if err == nil && adminID != "" {
			return fmt.Sprintf("There was an error deleting the messages. Please contact <@%s> to have them removed.", adminID)
		}
		log.Printf("admin lookup %s: %v", cfg.AdminEmail, err)
	}
	return "There was an error deleting the messages. Please contact an administrator to have them removed."
}

func handleFeedbackSubmission(api *slack.Client, db *sql.DB, cfg Config, ev *slackevents.MessageEvent) {
	recipientHandle, isID, feedback, ok := parseFeedbackCommand(strings.TrimSpace(ev.Text))
	if !ok || feedback == "" {
		respond(api, ev.Channel, "Please use the format: `@recipient your feedback`.")
		return
	}

	author, err := api.GetUserInfo(ev.User)
	if err != nil {
		log.Printf("feedback author lookup %s: %v", ev.User, err)
		respond(api, ev.Channel, "Something went wrong. Please try again later.")
		return
	}

	recipient, err := resolveUserByHandle(api, recipientHandle, isID)
	if err != nil || recipient == nil {
		respond(api, ev.Channel, "Recipient not found. Please use the format: `@recipient your feedback`.")
		return
	}

	rec := FeedbackRecord{
		Date:             time.Now(),
		AuthorEmail:      author.Profile.Email,
		AuthorSlackID:    author.ID,
		RecipientEmail:   recipient.Profile.Email,
		RecipientSlackID: recipient.ID,
		Feedback:         feedback,
	}
	if err := InsertFeedback(db, []byte(cfg.EncryptionKey), rec); err != nil {
		log.Printf("feedback insert error: %v", err)
		respond(api, ev.Channel, "Something went wrong. Please try again later.")
		return
	}

	respond(api, ev.Channel, fmt.Sprintf(
		"Your feedback for <@%s> has been saved securely and will remain confidential. Thank you!", recipient.ID))

	// Remove the plaintext submission from the conversation.
	if _, _, err := api.DeleteMessage(ev.Channel, ev.TimeStamp); err != nil {
		log.Printf("feedback delete original error: %v", err)
	}
}

func handleManagerRequest(api *slack.Client, db *sql.DB, cfg Config, ev *slackevents.MessageEvent) {
	password, recipients, ok := parseManagerCommand(strings.TrimSpace(ev.Text))
	if !ok {
		respond(api, ev.Channel, "Invalid format. Please include `Pass: <password>` followed by `@person` mentions.")
		return
	}
	if cfg.ManagerPassword == "" || password != cfg.ManagerPassword {
		respond(api, ev.Channel, "Invalid password. Access denied.")
		return
	}

	var response strings.Builder
	response.WriteString(feedbackRetentionNotice)

	for _, handle := range recipients {
		recipient, err := resolveUserByHandle(api, handle, isLikelySlackID(handle))
		if err != nil || recipient == nil {
			response.WriteString(fmt.Sprintf("No feedback found for @%s.\n", handle))
			continue
		}

		records, err := GetFeedbackForRecipient(db, []byte(cfg.EncryptionKey), recipient.ID)
		if err != nil {
			log.Printf("feedback read error for %s: %v", recipient.ID, err)
			continue
		}
		if len(records) == 0 {
			response.WriteString(fmt.Sprintf("No feedback found for <@%s>.\n", recipient.ID))
			continue
		}

		response.WriteString(fmt.Sprintf("Feedback for <@%s>:\n", recipient.ID))
		for _, rec := range records {
			response.WriteString(fmt.Sprintf("• %s\n", rec.Feedback))
		}
		response.WriteString("\n")
	}

	collated := response.String()
	if summary, err := SummarizeFeedback(cfg, collated); err != nil {
		log.Printf("feedback summary error (non-fatal): %v", err)
	} else if summary != "" {
		collated += fmt.Sprintf("\n\n*Here is a summary:*\n%s", summary)
	}

	botChannel, botTS := respond(api, ev.Channel, strings.TrimSpace(collated))

	// Both the request and the response carry plaintext feedback; purge
	// them after the retention window.
	requestChannel, requestTS := ev.Channel, ev.TimeStamp
	time.AfterFunc(managerResponseTTL, func() {
		failed := false
		if _, _, err := api.DeleteMessage(requestChannel, requestTS); err != nil {
			log.Printf("feedback delete manager request error: %v", err)
			failed = true
		}
		if botTS != "" {
			if _, _, err := api.DeleteMessage(botChannel, botTS); err != nil {
				log.Printf("feedback delete response error: %v", err)
				failed = true
			}
		}
		if failed {
			respond(api, requestChannel, deleteFailureNotice(api, cfg))
		}
	})
}
