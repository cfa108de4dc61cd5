// Package domain contains core concepts of the messenger.
// This file defines Message entities and related rules.
// Messages are immutable after creation except for the seen flag.
package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MaxBodyBytes bounds the message body, counted in bytes, not runes.
const MaxBodyBytes = 5000

// ConversationKind marks the cause of a message.
type ConversationKind string

const (
	KindDirect ConversationKind = "user"
	KindGroup  ConversationKind = "group"
)

// Attachment is the metadata of a file attached to a message.
// StoredName is the blob-store key; OriginalName is what the sender uploaded.
type Attachment struct {
	StoredName   string `json:"stored_name"`
	OriginalName string `json:"original_name"`
}

// Message represents one item exchanged between two correspondents.
type Message struct {
	ID         uuid.UUID        `json:"id"`
	Kind       ConversationKind `json:"kind"`
	From       Ref              `json:"from"`
	To         Ref              `json:"to"`
	RoomID     *int64           `json:"room_id,omitempty"`
	Body       string           `json:"body"`
	Attachment *Attachment      `json:"attachment,omitempty"`
	Seen       bool             `json:"seen"`
	CreatedAt  time.Time        `json:"created_at"`
}

var (
	ErrSelfConversation = errors.New("sender and receiver are the same participant")
	ErrEmptyMessage     = errors.New("message needs a body or an attachment")
)

// Validate checks domain invariants. Transport and upload rules
// (size limits on files, extension filters) are not the domain's concern.
func (m Message) Validate() error {
	if err := m.From.Validate(); err != nil {
		return err
	}
	if err := m.To.Validate(); err != nil {
		return err
	}
	if m.From.Equal(m.To) {
		return ErrSelfConversation
	}
	if m.Body == "" && m.Attachment == nil {
		return ErrEmptyMessage
	}
	if len(m.Body) > MaxBodyBytes {
		return fmt.Errorf("message body is %d bytes, limit is %d", len(m.Body), MaxBodyBytes)
	}
	return nil
}
