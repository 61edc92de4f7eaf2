package reviewers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// httpClient wird für alle Chat-Completion-Aufrufe verwendet. LLM-Antworten
// können mehrere Minuten dauern; engere Fristen setzt der Aufrufer per Context.
var httpClient = &http.Client{Timeout: 10 * time.Minute}

// ChatClient spricht ein OpenAI-kompatibles /chat/completions-Endpoint an.
// Staff-Backends, Prompt-Modus und API-Modus teilen sich diesen Transport
// und unterscheiden sich nur in BaseURL, Key und Modell.
type ChatClient struct {
	BaseURL string
	APIKey  string
	Model   string
	Logger  *zap.Logger
}

// NewChatClient erstellt einen Client für ein OpenAI-kompatibles Backend.
func NewChatClient(baseURL, apiKey, model string, logger *zap.Logger) *ChatClient {
	return &ChatClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Model:   model,
		Logger:  logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Call implementiert den Caller-Vertrag: (systemPrompt, userPrompt) → Rohtext.
func (c *ChatClient) Call(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:     c.Model,
		MaxTokens: 4096,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		c.Logger.Warn("Chat backend returned non-200 status",
			zap.String("model", c.Model),
			zap.Int("status", resp.StatusCode))
		return "", fmt.Errorf("chat completion failed: status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("chat completion response not parseable: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("chat backend error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
