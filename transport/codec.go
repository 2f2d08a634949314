package transport

import (
	"betstream/domain"
	"betstream/domain/event"
	"encoding/json"
	"fmt"
)

// envelope is the wire shape of an event crossing a backing broker.
// Kind tags the variant so the receiving side can decode into the right
// struct instead of sniffing dynamic payloads.
type envelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

const (
	kindMessageInserted      = "message_inserted"
	kindPresenceSync         = "presence_sync"
	kindPresenceJoin         = "presence_join"
	kindPresenceLeave        = "presence_leave"
	kindTypingUpserted       = "typing_upserted"
	kindTypingDeleted        = "typing_deleted"
	kindNotificationInserted = "notification_inserted"
)

func encodeEvent(e event.ChannelEvent) ([]byte, error) {
	var kind string
	switch e.(type) {
	case event.MessageInserted:
		kind = kindMessageInserted
	case event.PresenceSync:
		kind = kindPresenceSync
	case event.PresenceJoin:
		kind = kindPresenceJoin
	case event.PresenceLeave:
		kind = kindPresenceLeave
	case event.TypingUpserted:
		kind = kindTypingUpserted
	case event.TypingDeleted:
		kind = kindTypingDeleted
	case event.NotificationInserted:
		kind = kindNotificationInserted
	default:
		return nil, fmt.Errorf("unknown event type %T", e)
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Kind: kind, Payload: payload})
}

func decodeEvent(data []byte) (event.ChannelEvent, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}

	var (
		e   event.ChannelEvent
		err error
	)
	switch env.Kind {
	case kindMessageInserted:
		var v event.MessageInserted
		err = json.Unmarshal(env.Payload, &v)
		e = v
	case kindPresenceSync:
		var v event.PresenceSync
		err = json.Unmarshal(env.Payload, &v)
		e = v
	case kindPresenceJoin:
		var v event.PresenceJoin
		err = json.Unmarshal(env.Payload, &v)
		e = v
	case kindPresenceLeave:
		var v event.PresenceLeave
		err = json.Unmarshal(env.Payload, &v)
		e = v
	case kindTypingUpserted:
		var v event.TypingUpserted
		err = json.Unmarshal(env.Payload, &v)
		e = v
	case kindTypingDeleted:
		var v event.TypingDeleted
		err = json.Unmarshal(env.Payload, &v)
		e = v
	case kindNotificationInserted:
		var v event.NotificationInserted
		err = json.Unmarshal(env.Payload, &v)
		e = v
	default:
		return nil, fmt.Errorf("unknown event kind %q", env.Kind)
	}
	if err != nil {
		return nil, err
	}
	if err = validateEvent(e); err != nil {
		return nil, err
	}
	return e, nil
}

func eventsKey(channel domain.ChannelID) string {
	return "channel:" + string(channel) + ":events"
}

func presenceKey(channel domain.ChannelID) string {
	return "channel:" + string(channel) + ":users"
}
