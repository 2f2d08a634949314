// Package event defines the tagged variants delivered through the channel
// transport, one per mutation category. Payloads are validated at the
// transport boundary, never inside the consuming components.
package event

import (
	"betstream/domain"
)

// ChannelEvent is any event routable to a single channel.
// Per-channel delivery order follows the order the corresponding
// mutations were committed; no ordering exists across channels.
type ChannelEvent interface {
	Channel() domain.ChannelID
}

// MessageInserted signals a new row in the message log of a conversation.
type MessageInserted struct {
	Message domain.Message `validate:"required"`
}

func (e MessageInserted) Channel() domain.ChannelID {
	return e.Message.ChannelID
}

// PresenceSync is the full-state snapshot a subscriber receives when the
// transport has established its view of a channel. Keys is the complete
// set of currently tracked user identifiers.
type PresenceSync struct {
	ChannelID domain.ChannelID `validate:"required"`
	Keys      []string
}

func (e PresenceSync) Channel() domain.ChannelID { return e.ChannelID }

// PresenceJoin signals a user started tracking presence on a channel.
type PresenceJoin struct {
	ChannelID domain.ChannelID     `validate:"required"`
	Entry     domain.PresenceEntry `validate:"required"`
}

func (e PresenceJoin) Channel() domain.ChannelID { return e.ChannelID }

// PresenceLeave signals a user stopped tracking presence on a channel.
type PresenceLeave struct {
	ChannelID domain.ChannelID `validate:"required"`
	UserID    string           `validate:"required"`
}

func (e PresenceLeave) Channel() domain.ChannelID { return e.ChannelID }

// TypingUpserted signals an insert or update of a typing status row.
type TypingUpserted struct {
	Status domain.TypingStatus `validate:"required"`
}

func (e TypingUpserted) Channel() domain.ChannelID { return e.Status.ChannelID }

// TypingDeleted signals the removal of a typing status row.
type TypingDeleted struct {
	ChannelID domain.ChannelID `validate:"required"`
	UserID    string           `validate:"required"`
}

func (e TypingDeleted) Channel() domain.ChannelID { return e.ChannelID }

// NotificationInserted signals a new row in a user's notification log.
// It travels on the user-scoped notification channel.
type NotificationInserted struct {
	Notification domain.Notification `validate:"required"`
}

func (e NotificationInserted) Channel() domain.ChannelID {
	return domain.NotificationChannel(e.Notification.UserID)
}
