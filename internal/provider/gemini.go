package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// geminiClient calls the Google Generative Language generateContent API.
type geminiClient struct {
	baseURL string
	apiKey  string
	model   string
	temp    float64
	client  *http.Client
}

var _ Provider = (*geminiClient)(nil)

func newGeminiClient(cfg Config) *geminiClient {
	return &geminiClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.Credential,
		model:   cfg.Model,
		temp:    cfg.Temperature,
		client:  &http.Client{Timeout: defaultLLMTimeout},
	}
}

func (c *geminiClient) Name() string  { return NameGemini }
func (c *geminiClient) Model() string { return c.model }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"system_instruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  struct {
		Temperature float64 `json:"temperature"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// Generate invokes models/{model}:generateContent with the fixed RAG
// prompt template.
func (c *geminiClient) Generate(ctx context.Context, contextBlock, question string) (string, error) {
	req := geminiRequest{
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: systemPrompt}},
		},
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: buildUserPrompt(contextBlock, question)}}},
		},
	}
	req.GenerationConfig.Temperature = c.temp

	reqBody, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ErrGenerationFailed, err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.baseURL, c.model, url.QueryEscape(c.apiKey))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", ErrGenerationFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: send request: %v", ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrGenerationFailed, err)
	}

	var genResp geminiResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("%w: decode response (status %d): %v", ErrGenerationFailed, resp.StatusCode, err)
	}
	if genResp.Error != nil {
		return "", fmt.Errorf("%w: gemini error %s: %s", ErrGenerationFailed, genResp.Error.Status, genResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: gemini returned status %d: %s", ErrGenerationFailed, resp.StatusCode, string(body))
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: gemini returned no candidates", ErrGenerationFailed)
	}

	return genResp.Candidates[0].Content.Parts[0].Text, nil
}
