package transport

import (
	"betstream/domain"
	"betstream/domain/event"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCodec_Message_Event_Survives_The_Wire(t *testing.T) {
	req := require.New(t)
	original := event.MessageInserted{Message: domain.Message{
		ID:        uuid.New(),
		ChannelID: "general",
		SenderID:  "u1",
		Content:   "nice odds on the late game",
		Type:      domain.MessageTypeText,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}}

	// When the event crosses the broker encoding
	payload, err := encodeEvent(original)
	req.NoError(err)
	decoded, err := decodeEvent(payload)
	req.NoError(err)

	// Then the variant and its payload come back intact
	inserted, ok := decoded.(event.MessageInserted)
	req.True(ok)
	req.Equal(original.Message.ID, inserted.Message.ID)
	req.Equal(original.Message.Content, inserted.Message.Content)
	req.Equal(domain.ChannelID("general"), inserted.Channel())
}

func TestCodec_Presence_Leave_Survives_The_Wire(t *testing.T) {
	req := require.New(t)

	payload, err := encodeEvent(event.PresenceLeave{ChannelID: "general", UserID: "u2"})
	req.NoError(err)
	decoded, err := decodeEvent(payload)
	req.NoError(err)

	leave, ok := decoded.(event.PresenceLeave)
	req.True(ok)
	req.Equal("u2", leave.UserID)
}

func TestCodec_Unknown_Kind_Rejected(t *testing.T) {
	req := require.New(t)

	_, err := decodeEvent([]byte(`{"kind":"ticket_settled","payload":{}}`))

	req.Error(err)
	req.Contains(err.Error(), "ticket_settled")
}

func TestCodec_Decoded_Event_Must_Validate(t *testing.T) {
	req := require.New(t)

	// A join without a channel is structurally valid JSON but not a usable event
	_, err := decodeEvent([]byte(`{"kind":"presence_join","payload":{"entry":{"user_id":"u1"}}}`))

	req.Error(err)
}

func TestCodec_Garbage_Rejected(t *testing.T) {
	req := require.New(t)

	_, err := decodeEvent([]byte("not json at all"))

	req.Error(err)
}
