package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-sonnet-4-5-20250929"
const defaultOpenAIModel = "gpt-4o-mini"

// CelebrationMessage is the strict-JSON shape the model must answer with.
// Emails are replaced with platform mentions by the delivery layer.
type CelebrationMessage struct {
	Message string   `json:"message"`
	Emails  []string `json:"emails"`
}

// ComposeCelebrationMessage turns this week's celebrations into a team
// message. With an empty celebration list it asks for a generic filler
// instead. The model must answer with {"message": ..., "emails": [...]}.
func ComposeCelebrationMessage(cfg Config, celebrations []Celebration, now time.Time) (CelebrationMessage, error) {
	summary := RenderCelebrations(celebrations)

	var prompt string
	if summary != "" {
		prompt = fmt.Sprintf(`I will provide a celebration message containing peoples details such as birthdays, anniversaries, hiring dates and others.
Your task is to:
- Current date and time is %s.
- Replace peoples names with their emails and include the dates and days of the week for each person mentioned.
- Format the message well so that it is clearly visible who, when and what is celebrating.
- Additional instructions: %s
- This message will be directly sent to the team. So make it final - no placeholders.
Here is the message: %q`, now.Format("Monday, January 2, 2006 3:04 PM"), cfg.BirthdayInstructions, summary)
	} else {
		prompt = fmt.Sprintf(`We don't have any birthdays to celebrate this week.
- Make a nice message to the team to keep the spirits high!
- Current date and time is %s.
- Do not return emails in the response.
- This message will be directly sent to the team. So make it final - no placeholders.
- Additional instructions: %s`, now.Format("Monday, January 2, 2006 3:04 PM"), cfg.BirthdayInstructions)
	}

	systemPrompt := `Respond ONLY in strict valid JSON format { "message": "...", "emails": [...] }.`

	responseText, err := callLLM(cfg, systemPrompt, prompt)
	if err != nil {
		return CelebrationMessage{}, err
	}
	return parseCelebrationResponse(responseText)
}

func parseCelebrationResponse(responseText string) (CelebrationMessage, error) {
	responseText = strings.TrimSpace(responseText)
	responseText = strings.TrimPrefix(responseText, "```json")
	responseText = strings.TrimPrefix(responseText, "```")
	responseText = strings.TrimSuffix(responseText, "```")
	responseText = strings.TrimSpace(responseText)

	var msg CelebrationMessage
	if err := json.Unmarshal([]byte(responseText), &msg); err != nil {
		return CelebrationMessage{}, fmt.Errorf("parsing celebration response: %w (response: %s)", err, responseText)
	}
	if msg.Message == "" {
		return CelebrationMessage{}, fmt.Errorf("empty message in celebration response")
	}
	return msg, nil
}

// SummarizeFeedback produces per-person summaries for a manager's
// feedback retrieval. Failure is non-fatal; the caller posts the raw
// collated feedback without a summary.
func SummarizeFeedback(cfg Config, collated string) (string, error) {
	prompt := fmt.Sprintf(`I'll give you list of employee feedback for some people.
- Summarize the feedback for every person separately.
- Add some conclusions for each person separately.
- Add some short goals to become better employee as well, based on the feedback.
- Return the response formatted as a plain slack message.
- Do not use other text formatting other than * for bold, and _ for italic.
- Do not use emojis.
Here is the feedback: %s`, collated)

	return callLLM(cfg, "", prompt)
}

func callLLM(cfg Config, systemPrompt, userPrompt string) (string, error) {
	switch cfg.LLMProvider {
	case "openai":
		model := cfg.LLMModel
		if model == "" {
			model = defaultOpenAIModel
		}
		return callOpenAI(cfg.OpenAIAPIKey, model, systemPrompt, userPrompt)
	default:
		model := cfg.LLMModel
		if model == "" {
			model = defaultAnthropicModel
		}
		return callAnthropic(cfg.AnthropicAPIKey, model, systemPrompt, userPrompt)
	}
}

func callAnthropic(apiKey, model, systemPrompt, userPrompt string) (string, error) {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	message, err := client.Messages.New(context.Background(), params)
	if err != nil {
		log.Printf("llm anthropic error: %v", err)
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			log.Printf("llm anthropic response size=%d tokens_in=%d tokens_out=%d",
				len(block.Text), message.Usage.InputTokens, message.Usage.OutputTokens)
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in Anthropic response")
}

// --- OpenAI ---

type openAIRequest struct {
	Model       string          `json:"model"`
	Temperature float64         `json:"temperature"`
	Messages    []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func callOpenAI(apiKey, model, systemPrompt, userPrompt string) (string, error) {
	reqBody := openAIRequest{
		Model:       model,
		Temperature: 0.7,
		Messages: []openAIMessage{
			{Role: "user", Content: userPrompt},
		},
	}
	if systemPrompt != "" {
		reqBody.Messages = append(reqBody.Messages, openAIMessage{Role: "system", Content: systemPrompt})
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequest("POST", "https://api.openai.com/v1/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := outboundHTTPClient.Do(req)
	if err != nil {
		log.Printf("llm openai error: %v", err)
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var openAIResp openAIResponse
	if err := json.Unmarshal(respBody, &openAIResp); err != nil {
		return "", fmt.Errorf("parsing OpenAI response: %w", err)
	}
	if openAIResp.Error != nil {
		log.Printf("llm openai api error: %s", openAIResp.Error.Message)
		return "", fmt.Errorf("OpenAI API error: %s", openAIResp.Error.Message)
	}
	if len(openAIResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenAI response")
	}

	log.Printf("llm openai response size=%d", len(openAIResp.Choices[0].Message.Content))
	return openAIResp.Choices[0].Message.Content, nil
}
