// Package assistant orchestrates the document question-answering flow:
// upload binds an extracted, indexed document to a session; query
// retrieves context and generates an answer, recording the exchange.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"rag-engine/internal/index"
	"rag-engine/internal/middleware"
	"rag-engine/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

// NoContextSentinel replaces retrieved context when the index is empty
// or retrieval returns nothing. The provider still answers; it just
// knows there is no document context to lean on.
const NoContextSentinel = "No relevant documents found."

// Status is the lifecycle of a query: it starts idle, moves through
// retrieval and generation, and settles as done or failed. Results only
// ever carry one of the two terminal states.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusRetrieving Status = "retrieving"
	StatusGenerating Status = "generating"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

// Extractor pulls plain text out of an uploaded file.
type Extractor interface {
	Extract(ctx context.Context, filename, path string) (string, error)
}

// VectorIndex ingests documents and serves similarity search.
type VectorIndex interface {
	AddDocument(ctx context.Context, text, sourceName string) (index.AddResult, error)
	Search(ctx context.Context, query string, n int) (*models.SearchResult, error)
	CollectionCount(ctx context.Context) (int64, error)
}

// SessionStore persists sessions, their document binding, and their
// message history.
type SessionStore interface {
	GenerateSessionID() string
	CreateSession(ctx context.Context, id string) error
	GetDocumentBySession(ctx context.Context, id string) (*models.Document, error)
	SetSessionDocument(ctx context.Context, id, documentID string, resetHistory bool) error
	RecordMessage(ctx context.Context, sessionID, role, content string) error
}

// Generator produces an answer from retrieved context and a question.
type Generator interface {
	Name() string
	Model() string
	Generate(ctx context.Context, contextBlock, question string) (string, error)
}

// QueryResult is the structured outcome of a query. Exactly one of
// Answer or Error is set, keyed by Status.
type QueryResult struct {
	Status Status `json:"status"`
	Answer string `json:"answer,omitempty"`
	Error  string `json:"error,omitempty"`
}

// UploadResult is the structured outcome of a document upload.
// ChunkCount and WasProcessed are part of the result shape proper, so
// they serialize even at their zero values.
type UploadResult struct {
	Status       Status `json:"status"`
	SessionID    string `json:"session_id,omitempty"`
	DocumentID   string `json:"document_id,omitempty"`
	ChunkCount   int    `json:"chunk_count"`
	WasProcessed bool   `json:"was_processed"`
	Error        string `json:"error,omitempty"`
}

// Assistant wires extraction, indexing, sessions, and generation into
// the two user-facing operations.
type Assistant struct {
	extractor    Extractor
	index        VectorIndex
	sessions     SessionStore
	generator    Generator
	nResults     int
	resetHistory bool
}

// New creates an Assistant. nResults bounds how many chunks each query
// retrieves; resetHistory controls whether binding a new document wipes
// the session's conversation.
func New(extractor Extractor, idx VectorIndex, sessions SessionStore, generator Generator, nResults int, resetHistory bool) *Assistant {
	if nResults <= 0 {
		nResults = 3
	}
	return &Assistant{
		extractor:    extractor,
		index:        idx,
		sessions:     sessions,
		generator:    generator,
		nResults:     nResults,
		resetHistory: resetHistory,
	}
}

// UploadDocument extracts a file, indexes its content, and binds the
// resulting document to the session. An empty session id creates a new
// session. Failures come back inside the result, never as a raw error.
func (a *Assistant) UploadDocument(ctx context.Context, sessionID, filename, path string) UploadResult {
	ctx, span := middleware.StartSpan(ctx, "Assistant.UploadDocument",
		attribute.String("upload.filename", filename),
	)
	defer span.End()

	if sessionID == "" {
		sessionID = a.sessions.GenerateSessionID()
		if err := a.sessions.CreateSession(ctx, sessionID); err != nil {
			middleware.AddSpanError(ctx, err)
			return UploadResult{Status: StatusFailed, Error: fmt.Sprintf("failed to create session: %v", err)}
		}
	}

	text, err := a.extractor.Extract(ctx, filename, path)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return UploadResult{Status: StatusFailed, SessionID: sessionID, Error: err.Error()}
	}

	added, err := a.index.AddDocument(ctx, text, filename)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return UploadResult{Status: StatusFailed, SessionID: sessionID, Error: err.Error()}
	}

	if err := a.sessions.SetSessionDocument(ctx, sessionID, added.DocumentID, a.resetHistory); err != nil {
		middleware.AddSpanError(ctx, err)
		return UploadResult{Status: StatusFailed, SessionID: sessionID, Error: err.Error()}
	}

	middleware.AddSpanEvent(ctx, "document_bound",
		attribute.String("session.id", sessionID),
		attribute.String("document.id", added.DocumentID),
		attribute.Bool("document.deduplicated", added.WasProcessed),
	)

	return UploadResult{
		Status:       StatusDone,
		SessionID:    sessionID,
		DocumentID:   added.DocumentID,
		ChunkCount:   added.ChunkCount,
		WasProcessed: added.WasProcessed,
	}
}

// Query answers a question against the session's document. The result
// is always structured: callers never see a raw error, and the message
// history records the user's question and any successful answer.
func (a *Assistant) Query(ctx context.Context, sessionID, question string) QueryResult {
	ctx, span := middleware.StartSpan(ctx, "Assistant.Query",
		attribute.String("session.id", sessionID),
	)
	defer span.End()

	if strings.TrimSpace(question) == "" {
		return QueryResult{Status: StatusFailed, Error: "query must not be empty"}
	}

	doc, err := a.sessions.GetDocumentBySession(ctx, sessionID)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return QueryResult{Status: StatusFailed, Error: err.Error()}
	}
	if doc == nil {
		return QueryResult{Status: StatusFailed, Error: "no document uploaded for this session; upload a document first"}
	}

	middleware.AddSpanEvent(ctx, "query_retrieving")
	contextBlock, err := a.retrieveContext(ctx, question)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return QueryResult{Status: StatusFailed, Error: err.Error()}
	}

	middleware.AddSpanEvent(ctx, "query_generating",
		attribute.String("provider.name", a.generator.Name()),
		attribute.String("provider.model", a.generator.Model()),
	)
	answer, err := a.generator.Generate(ctx, contextBlock, question)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return QueryResult{Status: StatusFailed, Error: err.Error()}
	}

	// History is written only once the exchange completed. The answer
	// exists at this point, so a failed history write is logged rather
	// than turned into a failed query.
	if err := a.sessions.RecordMessage(ctx, sessionID, models.RoleUser, question); err != nil {
		middleware.AddSpanError(ctx, err)
		log.Printf("⚠️ failed to record user message for session %s: %v", sessionID, err)
	} else if err := a.sessions.RecordMessage(ctx, sessionID, models.RoleAssistant, answer); err != nil {
		middleware.AddSpanError(ctx, err)
		log.Printf("⚠️ failed to record assistant message for session %s: %v", sessionID, err)
	}

	return QueryResult{Status: StatusDone, Answer: answer}
}

// retrieveContext searches the index and joins the hits into one
// context block. An empty index or an empty hit list yields the
// sentinel so generation still proceeds.
func (a *Assistant) retrieveContext(ctx context.Context, question string) (string, error) {
	result, err := a.index.Search(ctx, question, a.nResults)
	if errors.Is(err, index.ErrEmptyIndex) {
		return NoContextSentinel, nil
	}
	if err != nil {
		return "", err
	}
	if len(result.Chunks) == 0 {
		return NoContextSentinel, nil
	}

	texts := make([]string, len(result.Chunks))
	for i, c := range result.Chunks {
		texts[i] = c.Text
	}
	return strings.Join(texts, "\n\n"), nil
}

// Ready reports whether the assistant can serve: the database is
// reachable and a generation provider is configured.
func (a *Assistant) Ready(ctx context.Context) error {
	if a.generator == nil {
		return errors.New("no generation provider configured")
	}
	if _, err := a.index.CollectionCount(ctx); err != nil {
		return fmt.Errorf("index not reachable: %w", err)
	}
	return nil
}
