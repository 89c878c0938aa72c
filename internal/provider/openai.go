package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// defaultLLMTimeout bounds every completion call; provider contracts do
// not guarantee bounded latency.
const defaultLLMTimeout = 120 * time.Second

// chatClient speaks the OpenAI chat-completions dialect. It serves both
// the OpenAI and Groq providers, which differ only in base URL, model,
// and key.
type chatClient struct {
	name    string
	baseURL string
	apiKey  string
	model   string
	temp    float64
	client  *http.Client
}

var _ Provider = (*chatClient)(nil)

func newChatClient(cfg Config) *chatClient {
	return &chatClient{
		name:    cfg.Name,
		baseURL: cfg.BaseURL,
		apiKey:  cfg.Credential,
		model:   cfg.Model,
		temp:    cfg.Temperature,
		client:  &http.Client{Timeout: defaultLLMTimeout},
	}
}

func (c *chatClient) Name() string  { return c.name }
func (c *chatClient) Model() string { return c.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	// Temperature is always sent; omitting it means 1.0, not 0.0.
	Temperature float64 `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Generate invokes the chat-completions endpoint with the fixed RAG
// prompt template.
func (c *chatClient) Generate(ctx context.Context, contextBlock, question string) (string, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(contextBlock, question)},
		},
		Temperature: c.temp,
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ErrGenerationFailed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", ErrGenerationFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: send request: %v", ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrGenerationFailed, err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("%w: decode response (status %d): %v", ErrGenerationFailed, resp.StatusCode, err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("%w: %s error: %s", ErrGenerationFailed, c.name, chatResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s returned status %d: %s", ErrGenerationFailed, c.name, resp.StatusCode, string(body))
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("%w: %s returned no completion choices", ErrGenerationFailed, c.name)
	}

	return chatResp.Choices[0].Message.Content, nil
}
