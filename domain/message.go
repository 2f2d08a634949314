// Package domain contains core concepts of the realtime conversation subsystem.
// This file defines Message records and related rules.
// Messages are immutable once created.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
)

// Message represents an immutable conversation record.
// Sender is a best-effort enrichment joined from the profile store;
// a nil Sender means the profile could not be resolved, which is not an error.
type Message struct {
	ID        uuid.UUID
	ChannelID ChannelID
	SenderID  string
	Content   string
	ImageURL  *string
	Type      MessageType
	CreatedAt time.Time
	Sender    *Profile
}
