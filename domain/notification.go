package domain

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a user-scoped alert record. Created by any privileged actor,
// mutated only by the owning user (marking read), never deleted by this subsystem.
type Notification struct {
	ID        uuid.UUID
	UserID    string
	Title     string
	Message   string
	Type      string
	Link      *string
	Read      bool
	CreatedAt time.Time
}
