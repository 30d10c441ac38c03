package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/taleforge/engine/pkg/chat"
)

const (
	anthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion = "2023-06-01"

	DefaultAnthropicTemperature = 0.8
	DefaultAnthropicMaxTokens   = 2048
)

// AnthropicService implements LLMService for Anthropic Claude.
type AnthropicService struct {
	apiKey           string
	modelName        string
	backendModelName string
	httpClient       *http.Client
	logger           *slog.Logger
}

type anthropicChatRequest struct {
	Model       string         `json:"model"`
	MaxTokens   int            `json:"max_tokens"`
	Temperature *float64       `json:"temperature,omitempty"`
	Messages    []chat.Message `json:"messages"`
	System      string         `json:"system,omitempty"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicChatResponse struct {
	ID         string                  `json:"id"`
	Content    []anthropicContentBlock `json:"content"`
	Model      string                  `json:"model"`
	StopReason string                  `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewAnthropicService builds the Claude-backed generation boundary.
// backendModelName, when set, is used for background summarization.
func NewAnthropicService(apiKey, modelName, backendModelName string, logger *slog.Logger) *AnthropicService {
	return &AnthropicService{
		apiKey:           apiKey,
		modelName:        modelName,
		backendModelName: backendModelName,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger,
	}
}

// splitMessages extracts and joins system messages into a single
// system prompt, returning the conversational remainder.
func splitMessages(messages []chat.Message) (string, []chat.Message) {
	var systemParts []string
	var conversation []chat.Message
	for _, msg := range messages {
		if msg.Role == chat.RoleSystem {
			systemParts = append(systemParts, msg.Content)
		} else {
			conversation = append(conversation, msg)
		}
	}
	return strings.Join(systemParts, "\n\n"), conversation
}

func (a *AnthropicService) chatCompletion(ctx context.Context, messages []chat.Message, modelName string) (string, error) {
	systemPrompt, conversation := splitMessages(messages)

	temperature := DefaultAnthropicTemperature
	apiReq := anthropicChatRequest{
		Model:       modelName,
		MaxTokens:   DefaultAnthropicMaxTokens,
		Temperature: &temperature,
		Messages:    conversation,
		System:      systemPrompt,
	}

	reqBody, err := json.Marshal(apiReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", anthropicBaseURL+"/messages", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("content-type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	var apiResp anthropicChatResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
		}
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if apiResp.Error != nil {
		if isPolicyMessage(apiResp.Error.Message) {
			return "", fmt.Errorf("%w: %s", ErrContentPolicy, apiResp.Error.Message)
		}
		return "", fmt.Errorf("API error: %s", apiResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}
	if apiResp.StopReason == "refusal" {
		return "", ErrContentPolicy
	}

	var text strings.Builder
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("empty response from model")
	}
	return text.String(), nil
}

// isPolicyMessage recognizes content-policy rejections by their
// distinguishing message pattern.
func isPolicyMessage(msg string) bool {
	lowered := strings.ToLower(msg)
	return strings.Contains(lowered, "content policy") ||
		strings.Contains(lowered, "content filtering") ||
		strings.Contains(lowered, "usage policy")
}

// GenerateTurn produces the narrator response for one turn.
func (a *AnthropicService) GenerateTurn(ctx context.Context, messages []chat.Message) (string, error) {
	return a.chatCompletion(ctx, messages, a.modelName)
}

// Summarize condenses dossier entries using the backend model when
// one is configured.
func (a *AnthropicService) Summarize(ctx context.Context, npcName string, entries []string) (string, error) {
	model := a.modelName
	if a.backendModelName != "" {
		model = a.backendModelName
	}

	messages := []chat.Message{
		{
			Role: chat.RoleSystem,
			Content: "You condense game history into NPC dossier notes. " +
				"Reply with a single short paragraph, third person, no preamble.",
		},
		{
			Role: chat.RoleUser,
			Content: fmt.Sprintf("Summarize everything involving %s in these excerpts:\n\n%s",
				npcName, strings.Join(entries, "\n---\n")),
		},
	}
	return a.chatCompletion(ctx, messages, model)
}
