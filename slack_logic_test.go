package main

import (
	"testing"

	"github.com/slack-go/slack"
)

func TestParseFeedbackCommandMention(t *testing.T) {
	recipient, isID, feedback, ok := parseFeedbackCommand("<@U12345678> did a great job on the release")
	if !ok || !isID {
		t.Fatalf("mention form must parse as an ID: ok=%v isID=%v", ok, isID)
	}
	if recipient != "U12345678" {
		t.Fatalf("recipient wrong: %q", recipient)
	}
	if feedback != "did a great job on the release" {
		t.Fatalf("feedback wrong: %q", feedback)
	}
}

func TestParseFeedbackCommandMentionWithLabel(t *testing.T) {
	recipient, isID, _, ok := parseFeedbackCommand("<@U12345678|john> thanks for helping out")
	if !ok || !isID || recipient != "U12345678" {
		t.Fatalf("labeled mention parse wrong: %q ok=%v isID=%v", recipient, ok, isID)
	}
}

func TestParseFeedbackCommandHandle(t *testing.T) {
	recipient, isID, feedback, ok := parseFeedbackCommand("@john.doe very helpful in reviews")
	if !ok || isID {
		t.Fatalf("handle form must parse as a handle: ok=%v isID=%v", ok, isID)
	}
	if recipient != "john.doe" || feedback != "very helpful in reviews" {
		t.Fatalf("parse wrong: %q %q", recipient, feedback)
	}
}

func TestParseFeedbackCommandRejectsOther(t *testing.T) {
	if _, _, _, ok := parseFeedbackCommand("just some chatter"); ok {
		t.Fatalf("plain text must not parse as feedback")
	}
	if _, _, _, ok := parseFeedbackCommand("@john"); ok {
		t.Fatalf("handle without feedback must not parse")
	}
}

func TestParseManagerCommand(t *testing.T) {
	password, recipients, ok := parseManagerCommand("Pass: s3cret, Feedback for <@U1>, <@U2>")
	if !ok {
		t.Fatalf("manager command must parse")
	}
	if password != "s3cret" {
		t.Fatalf("password wrong: %q", password)
	}
	if len(recipients) != 2 || recipients[0] != "U1" || recipients[1] != "U2" {
		t.Fatalf("recipients wrong: %v", recipients)
	}
}

func TestParseManagerCommandHandles(t *testing.T) {
	password, recipients, ok := parseManagerCommand("pass: hunter2 Feedback for @john, @jane.doe")
	if !ok || password != "hunter2" {
		t.Fatalf("case-insensitive pass must parse: ok=%v %q", ok, password)
	}
	if len(recipients) != 2 || recipients[0] != "john" || recipients[1] != "jane.doe" {
		t.Fatalf("recipients wrong: %v", recipients)
	}
}

func TestParseManagerCommandNoRecipients(t *testing.T) {
	if _, _, ok := parseManagerCommand("Pass: s3cret"); ok {
		t.Fatalf("manager command without recipients must not parse")
	}
	if _, _, ok := parseManagerCommand("Feedback for @john"); ok {
		t.Fatalf("missing password must not parse")
	}
}

func TestIsDeleteAllCommand(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"delete all messages", true},
		{"Delete All Messages", true},
		{"  delete all messages  ", true},
		{"delete all", false},
		{"@john delete all messages", false},
	}
	for _, c := range cases {
		if got := isDeleteAllCommand(c.text); got != c.want {
			t.Fatalf("isDeleteAllCommand(%q) = %v, want %v", c.text, got, c.want)
		}
	}
}

func TestIsBotAuthored(t *testing.T) {
	if !isBotAuthored(slack.Message{Msg: slack.Msg{BotID: "B1"}}) {
		t.Fatalf("bot_id message must count as bot authored")
	}
	if !isBotAuthored(slack.Message{Msg: slack.Msg{SubType: "bot_message"}}) {
		t.Fatalf("bot_message subtype must count as bot authored")
	}
	if isBotAuthored(slack.Message{Msg: slack.Msg{User: "U1"}}) {
		t.Fatalf("user message must not count as bot authored")
	}
}

func TestIsLikelySlackID(t *testing.T) {
	cases := []struct {
		val  string
		want bool
	}{
		{"U12345678", true},
		{"W0ABCDEF1", true},
		{"john.doe", false},
		{"U12", false},
		{"u12345678", false},
	}
	for _, c := range cases {
		if got := isLikelySlackID(c.val); got != c.want {
			t.Fatalf("isLikelySlackID(%q) = %v, want %v", c.val, got, c.want)
		}
	}
}
