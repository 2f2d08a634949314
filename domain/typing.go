package domain

import "time"

// TypingStatus is a short-lived store record signaling active composition.
// Unique per (ChannelID, UserID) pair, upsert semantics.
// An entry with IsTyping=true is deleted or flipped to false within the
// coordinator's expiry window of the last keystroke signal.
type TypingStatus struct {
	ChannelID ChannelID
	UserID    string
	IsTyping  bool
	UpdatedAt time.Time
}

// TypingUser is an observed typing participant.
// DisplayName may be empty when the profile lookup failed or resolved nothing.
type TypingUser struct {
	UserID      string
	DisplayName string
}
