// Package provider routes generation to one of the supported LLM
// services. Exactly one provider is selected per process, by checking
// credentials in a fixed priority order.
package provider

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Sentinel errors.
var (
	// ErrNoCredentials means no provider credential is configured.
	// Fatal at startup; the service must not report itself healthy.
	ErrNoCredentials = errors.New("no provider credentials configured")

	// ErrGenerationFailed wraps provider-side failures (timeouts, rate
	// limits, malformed responses). Recoverable per request, never
	// retried automatically.
	ErrGenerationFailed = errors.New("generation failed")
)

// Provider names, in selection priority order.
const (
	NameOpenAI = "openai"
	NameGroq   = "groq"
	NameGemini = "gemini"
)

// Default models, overridable via the *_MODEL environment variables.
const (
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultGroqModel   = "llama-3.1-8b-instant"
	DefaultGeminiModel = "gemini-2.0-flash"
)

// API base URLs. Groq speaks the OpenAI chat-completions dialect.
const (
	openAIBaseURL = "https://api.openai.com/v1"
	groqBaseURL   = "https://api.groq.com/openai/v1"
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

// Provider is a language-generation service with a uniform completion
// contract: given retrieved context and a question, produce an answer.
type Provider interface {
	Name() string
	Model() string
	Generate(ctx context.Context, contextBlock, question string) (string, error)
}

// Credentials is a snapshot of the provider-related environment,
// captured once at startup.
type Credentials struct {
	OpenAIKey   string
	OpenAIModel string
	GroqKey     string
	GroqModel   string
	GoogleKey   string
	GoogleModel string
}

// CredentialsFromEnv reads the credential and model variables.
func CredentialsFromEnv() Credentials {
	return Credentials{
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel: os.Getenv("OPENAI_MODEL"),
		GroqKey:     os.Getenv("GROQ_API_KEY"),
		GroqModel:   os.Getenv("GROQ_MODEL"),
		GoogleKey:   os.Getenv("GOOGLE_API_KEY"),
		GoogleModel: os.Getenv("GOOGLE_MODEL"),
	}
}

// Config describes the one provider selected for the process lifetime.
type Config struct {
	Name        string
	Credential  string
	BaseURL     string
	Model       string
	Temperature float64
}

// Select picks the provider config from a credential record: OpenAI,
// then Groq, then Gemini; the first present, non-empty credential wins.
// Pure function, no environment or network access.
func Select(creds Credentials) (Config, error) {
	switch {
	case creds.OpenAIKey != "":
		return Config{
			Name:       NameOpenAI,
			Credential: creds.OpenAIKey,
			BaseURL:    openAIBaseURL,
			Model:      orDefault(creds.OpenAIModel, DefaultOpenAIModel),
		}, nil
	case creds.GroqKey != "":
		return Config{
			Name:       NameGroq,
			Credential: creds.GroqKey,
			BaseURL:    groqBaseURL,
			Model:      orDefault(creds.GroqModel, DefaultGroqModel),
		}, nil
	case creds.GoogleKey != "":
		return Config{
			Name:       NameGemini,
			Credential: creds.GoogleKey,
			BaseURL:    geminiBaseURL,
			Model:      orDefault(creds.GoogleModel, DefaultGeminiModel),
		}, nil
	default:
		return Config{}, fmt.Errorf("%w: set one of OPENAI_API_KEY, GROQ_API_KEY, or GOOGLE_API_KEY", ErrNoCredentials)
	}
}

// New builds the client for a selected config.
func New(cfg Config) (Provider, error) {
	switch cfg.Name {
	case NameOpenAI, NameGroq:
		return newChatClient(cfg), nil
	case NameGemini:
		return newGeminiClient(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Name)
	}
}

// The fixed RAG prompt: a system framing plus retrieved context and the
// user's question.
const systemPrompt = "You are a helpful assistant. Use the following context to answer the question."

func buildUserPrompt(contextBlock, question string) string {
	return fmt.Sprintf("Context: %s\n\nQuestion: %s", contextBlock, question)
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
