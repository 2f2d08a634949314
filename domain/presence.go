package domain

import "time"

// PresenceEntry is the ephemeral record a client tracks on a channel.
// Keyed by UserID: at most one entry per user per channel, a rejoin overwrites.
type PresenceEntry struct {
	UserID   string
	OnlineAt time.Time
}
