package api

import (
	"context"

	"rag-engine/internal/assistant"
	"rag-engine/internal/models"
)

// QAService is the assistant surface the handlers consume.
type QAService interface {
	UploadDocument(ctx context.Context, sessionID, filename, path string) assistant.UploadResult
	Query(ctx context.Context, sessionID, question string) assistant.QueryResult
	Ready(ctx context.Context) error
}

// SessionReader exposes session lookups for the read-only endpoints.
type SessionReader interface {
	GetSessionInfo(ctx context.Context, id string) (*models.Session, error)
}
