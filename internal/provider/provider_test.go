package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectPriority(t *testing.T) {
	tests := []struct {
		name      string
		creds     Credentials
		wantName  string
		wantModel string
		wantErr   error
	}{
		{
			name:      "openai wins over everything",
			creds:     Credentials{OpenAIKey: "sk-1", GroqKey: "gk-1", GoogleKey: "gg-1"},
			wantName:  NameOpenAI,
			wantModel: DefaultOpenAIModel,
		},
		{
			name:      "groq wins over gemini",
			creds:     Credentials{GroqKey: "gk-1", GoogleKey: "gg-1"},
			wantName:  NameGroq,
			wantModel: DefaultGroqModel,
		},
		{
			name:      "gemini as last resort",
			creds:     Credentials{GoogleKey: "gg-1"},
			wantName:  NameGemini,
			wantModel: DefaultGeminiModel,
		},
		{
			name:      "model override respected",
			creds:     Credentials{OpenAIKey: "sk-1", OpenAIModel: "gpt-4o"},
			wantName:  NameOpenAI,
			wantModel: "gpt-4o",
		},
		{
			name:    "no credentials is fatal",
			creds:   Credentials{},
			wantErr: ErrNoCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Select(tt.creds)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, cfg.Name)
			assert.Equal(t, tt.wantModel, cfg.Model)
		})
	}
}

func TestSelectIsPure(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-should-be-ignored")
	_, err := Select(Credentials{})
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestNewUnsupportedProvider(t *testing.T) {
	_, err := New(Config{Name: "claude"})
	assert.Error(t, err)
}

func TestChatClientGenerate(t *testing.T) {
	var gotReq struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "the answer"}},
			},
		})
	}))
	defer srv.Close()

	p, err := New(Config{
		Name:       NameGroq,
		Credential: "gk-test",
		BaseURL:    srv.URL,
		Model:      "llama-3.1-8b-instant",
	})
	require.NoError(t, err)

	answer, err := p.Generate(context.Background(), "ctx block", "the question")
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)

	assert.Equal(t, "Bearer gk-test", gotAuth)
	assert.Equal(t, "llama-3.1-8b-instant", gotReq.Model)
	assert.Zero(t, gotReq.Temperature, "answers must be deterministic")
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
	assert.Contains(t, gotReq.Messages[1].Content, "ctx block")
	assert.Contains(t, gotReq.Messages[1].Content, "the question")
}

func TestChatClientGenerateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limit exceeded", "type": "rate_limit"},
		})
	}))
	defer srv.Close()

	p, err := New(Config{Name: NameOpenAI, Credential: "sk", BaseURL: srv.URL, Model: "gpt-4o-mini"})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), "ctx", "q")
	require.ErrorIs(t, err, ErrGenerationFailed)
	assert.Contains(t, err.Error(), "rate limit exceeded")
}

func TestChatClientGenerateEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	p, err := New(Config{Name: NameOpenAI, Credential: "sk", BaseURL: srv.URL, Model: "gpt-4o-mini"})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), "ctx", "q")
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestChatClientGenerateUnreachable(t *testing.T) {
	p, err := New(Config{Name: NameOpenAI, Credential: "sk", BaseURL: "http://127.0.0.1:1", Model: "gpt-4o-mini"})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), "ctx", "q")
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestGeminiClientGenerate(t *testing.T) {
	var gotPath, gotKey string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Contains(t, req, "system_instruction")
		require.Contains(t, req, "contents")

		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": "gemini answer"}}}},
			},
		})
	}))
	defer srv.Close()

	p, err := New(Config{
		Name:       NameGemini,
		Credential: "gg-test",
		BaseURL:    srv.URL,
		Model:      "gemini-2.0-flash",
	})
	require.NoError(t, err)

	answer, err := p.Generate(context.Background(), "ctx block", "the question")
	require.NoError(t, err)
	assert.Equal(t, "gemini answer", answer)
	assert.Equal(t, "/models/gemini-2.0-flash:generateContent", gotPath)
	assert.Equal(t, "gg-test", gotKey)
}

func TestGeminiClientGenerateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 400, "message": "invalid key", "status": "INVALID_ARGUMENT"},
		})
	}))
	defer srv.Close()

	p, err := New(Config{Name: NameGemini, Credential: "bad", BaseURL: srv.URL, Model: "gemini-2.0-flash"})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), "ctx", "q")
	require.ErrorIs(t, err, ErrGenerationFailed)
	assert.Contains(t, err.Error(), "invalid key")
}

func TestGeminiClientGenerateNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	}))
	defer srv.Close()

	p, err := New(Config{Name: NameGemini, Credential: "gg", BaseURL: srv.URL, Model: "gemini-2.0-flash"})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), "ctx", "q")
	assert.ErrorIs(t, err, ErrGenerationFailed)
}
