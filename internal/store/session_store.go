// Package store persists sessions and their conversation history.
// Sessions outlive a single request, so everything lands in the
// database, never in process memory.
package store

import (
	"context"
	"errors"
	"fmt"

	"rag-engine/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sentinel errors for session operations. Unknown ids on reads are NOT
// errors; the getters return nil instead.
var (
	// ErrDuplicateSession indicates a create with an id that exists.
	ErrDuplicateSession = errors.New("session already exists")

	// ErrUnknownSession indicates a write against a missing session.
	ErrUnknownSession = errors.New("unknown session")
)

// SessionStore implements session persistence over GORM.
type SessionStore struct {
	db *gorm.DB
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db}
}

// GenerateSessionID returns a new cryptographically-unpredictable
// session identifier (UUIDv4, sourced from crypto/rand).
func (s *SessionStore) GenerateSessionID() string {
	return uuid.NewString()
}

// CreateSession inserts a new session row with no document bound yet.
func (s *SessionStore) CreateSession(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Create(&models.Session{ID: id}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", ErrDuplicateSession, id)
	}
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetSessionInfo returns the session with its message history in
// insertion order, or nil for an unknown id.
func (s *SessionStore) GetSessionInfo(ctx context.Context, id string) (*models.Session, error) {
	var sess models.Session
	err := s.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			// KSUID timestamps are second-precision, so id alone cannot
			// order messages written in the same second. created_at
			// carries microseconds; id breaks the remaining ties.
			return db.Order("created_at ASC, id ASC")
		}).
		First(&sess, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &sess, nil
}

// GetDocumentBySession resolves the active document for a session. It
// returns nil when the session does not exist or has no document bound.
func (s *SessionStore) GetDocumentBySession(ctx context.Context, id string) (*models.Document, error) {
	var sess models.Session
	err := s.db.WithContext(ctx).First(&sess, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if sess.DocumentID == nil {
		return nil, nil
	}

	var doc models.Document
	err = s.db.WithContext(ctx).First(&doc, "id = ?", *sess.DocumentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

// SetSessionDocument binds a document to a session, replacing any prior
// association. When resetHistory is set, the session's message history
// is cleared in the same transaction.
func (s *SessionStore) SetSessionDocument(ctx context.Context, id, documentID string, resetHistory bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Session{}).
			Where("id = ?", id).
			Update("document_id", documentID)
		if result.Error != nil {
			return fmt.Errorf("failed to bind document: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrUnknownSession, id)
		}
		if resetHistory {
			if err := tx.Where("session_id = ?", id).Delete(&models.Message{}).Error; err != nil {
				return fmt.Errorf("failed to reset history: %w", err)
			}
		}
		return nil
	})
}

// RecordMessage appends one message to the session's history.
func (s *SessionStore) RecordMessage(ctx context.Context, sessionID, role, content string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Session{}).Where("id = ?", sessionID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}

	msg := &models.Message{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
	}
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to record message: %w", err)
	}
	return nil
}
