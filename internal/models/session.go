package models

import (
	"time"

	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

// Session binds a conversation to at most one active document. DocumentID
// is nil until the first upload; re-uploading a different document to the
// same session replaces the association.
type Session struct {
	ID         string    `json:"id" gorm:"type:char(36);primaryKey"`
	DocumentID *string   `json:"document_id" gorm:"type:char(27);index"`
	CreatedAt  time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`

	Messages []Message `json:"messages,omitempty" gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

// Message roles. The generation providers expect exactly these strings.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry in a session's conversation history. History
// order is created_at then ID; KSUIDs alone only order to the second.
type Message struct {
	ID        string    `json:"id" gorm:"type:char(27);primaryKey"`
	SessionID string    `json:"session_id" gorm:"type:char(36);not null;index"`
	Role      string    `json:"role" gorm:"type:varchar(20);not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate hook generates a KSUID before inserting.
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = ksuid.New().String()
	}
	return nil
}
