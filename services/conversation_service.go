package services

import (
	"betstream/contract"
	"betstream/domain"
	"betstream/domain/event"
	"betstream/errors"
	"betstream/notify"
	"betstream/presence"
	"betstream/repositories"
	"betstream/stream"
	"betstream/typing"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type IConversationService interface {
	Open(ctx context.Context, channel domain.ChannelID, userID string) (*Session, error)
	PostMessage(ctx context.Context, channel domain.ChannelID, senderID, content string, imageURL *string) (domain.Message, error)
	Notify(ctx context.Context, notification domain.Notification) error
}

// ConversationService wires the realtime components of one conversation to a
// shared transport and store. It is the composition root UI code talks to;
// the components themselves never reach for ambient globals.
type ConversationService struct {
	log           *slog.Logger
	transport     contract.Transport
	messages      repositories.IMessageRepository
	profiles      repositories.IProfileRepository
	statuses      repositories.ITypingRepository
	notifications repositories.INotificationRepository
	alerter       contract.Alerter
	typingExpiry  time.Duration
}

func NewConversationService(log *slog.Logger, transport contract.Transport,
	messages repositories.IMessageRepository, profiles repositories.IProfileRepository,
	statuses repositories.ITypingRepository, notifications repositories.INotificationRepository,
	alerter contract.Alerter, typingExpiry time.Duration) *ConversationService {
	return &ConversationService{
		log:           log,
		transport:     transport,
		messages:      messages,
		profiles:      profiles,
		statuses:      statuses,
		notifications: notifications,
		alerter:       alerter,
		typingExpiry:  typingExpiry,
	}
}

// Session is one opened conversation: the message stream, the presence
// tracker, the typing coordinator and the notification dispatcher, all
// attached to the same logical channel namespace and torn down together.
type Session struct {
	Stream        *stream.Manager
	Presence      *presence.Tracker
	Typing        *typing.Coordinator
	Notifications *notify.Dispatcher
}

// Close tears every attachment down. Safe to call more than once.
func (s *Session) Close() {
	s.Stream.Close()
	s.Presence.Detach()
	s.Typing.Detach()
	s.Notifications.Detach()
}

// Open attaches a full session to a conversation channel. The message stream
// loads asynchronously; presence and typing attach immediately. A failed
// presence or typing attachment aborts the whole open so the caller never
// holds a half-wired session.
func (s *ConversationService) Open(ctx context.Context, channel domain.ChannelID, userID string) (*Session, error) {
	session := &Session{
		Stream:        stream.NewManager(s.log, s.transport, s.messages, s.profiles),
		Presence:      presence.NewTracker(s.log, s.transport),
		Typing:        typing.NewCoordinator(s.log, s.transport, s.statuses, s.profiles, s.typingExpiry),
		Notifications: notify.NewDispatcher(s.log, s.transport, s.alerter, nil),
	}

	if err := session.Presence.Attach(channel, userID); err != nil {
		return nil, fmt.Errorf("%w: presence: %v", errors.ErrSubscription, err)
	}
	if err := session.Typing.Attach(channel, userID); err != nil {
		session.Presence.Detach()
		return nil, fmt.Errorf("%w: typing: %v", errors.ErrSubscription, err)
	}
	if err := session.Notifications.Attach(userID); err != nil {
		session.Presence.Detach()
		session.Typing.Detach()
		return nil, fmt.Errorf("%w: notifications: %v", errors.ErrSubscription, err)
	}
	session.Stream.Open(channel)

	s.log.Info("Conversation opened", "channel", channel, "user", userID)
	return session, nil
}

// PostMessage persists a message and pushes the insert through the transport,
// the same path a backing-store change feed would take.
func (s *ConversationService) PostMessage(ctx context.Context, channel domain.ChannelID,
	senderID, content string, imageURL *string) (domain.Message, error) {
	messageType := domain.MessageTypeText
	if imageURL != nil {
		messageType = domain.MessageTypeImage
	}
	message := domain.Message{
		ID:        uuid.New(),
		ChannelID: channel,
		SenderID:  senderID,
		Content:   content,
		ImageURL:  imageURL,
		Type:      messageType,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.messages.StoreMessage(message); err != nil {
		return domain.Message{}, err
	}
	if err := s.transport.Publish(ctx, event.MessageInserted{Message: message}); err != nil {
		// The row is durable; only live delivery was lost. Next load catches up.
		s.log.Warn("Message insert fan-out failed", "channel", channel, "error", err)
	}
	return message, nil
}

// Notify appends to a user's notification log and announces the insert on
// the user-scoped channel.
func (s *ConversationService) Notify(ctx context.Context, notification domain.Notification) error {
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	if err := s.notifications.StoreNotification(notification); err != nil {
		return err
	}
	if err := s.transport.Publish(ctx, event.NotificationInserted{Notification: notification}); err != nil {
		s.log.Warn("Notification fan-out failed", "user", notification.UserID, "error", err)
	}
	return nil
}
