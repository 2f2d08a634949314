package stream

import (
	"betstream/domain"
	"betstream/domain/event"
	"betstream/errors"
	"betstream/mocks"
	"betstream/transport"
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func message(channel domain.ChannelID, sender, content string, at time.Time) domain.Message {
	return domain.Message{
		ID:        uuid.New(),
		ChannelID: channel,
		SenderID:  sender,
		Content:   content,
		Type:      domain.MessageTypeText,
		CreatedAt: at,
	}
}

func waitLoaded(t *testing.T, m *Manager) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, m.WaitLoaded(ctx))
}

func eventually(t *testing.T, cond func() bool, what string) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond, what)
}

func TestManager_Open_Loads_History_And_Enriches_Senders(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	channel := domain.ChannelID("general")
	base := time.Now().UTC()

	// Given two stored messages from two senders
	history := []domain.Message{
		message(channel, "u1", "who's in for tonight?", base),
		message(channel, "u2", "count me in", base.Add(time.Second)),
	}
	messages := mocks.NewMockIMessageRepository(ctrl)
	messages.EXPECT().GetMessages(channel).Return(history, nil)
	profiles := mocks.NewMockIProfileRepository(ctrl)
	profiles.EXPECT().GetProfiles(gomock.InAnyOrder([]string{"u1", "u2"})).
		Return(map[string]domain.Profile{
			"u1": {ID: "u1", DisplayName: "Alex"},
			"u2": {ID: "u2", DisplayName: "Sam"},
		}, nil)

	manager := NewManager(silentLogger(), transport.NewHub(silentLogger(), 16), messages, profiles)

	// When the channel opens
	manager.Open(channel)
	waitLoaded(t, manager)

	// Then the sequence is the history, oldest first, senders resolved
	got := manager.Messages()
	req.Len(got, 2)
	req.Equal("who's in for tonight?", got[0].Content)
	req.Equal("count me in", got[1].Content)
	req.NotNil(got[0].Sender)
	req.Equal("Alex", got[0].Sender.DisplayName)
	req.NotNil(got[1].Sender)
	req.Equal("Sam", got[1].Sender.DisplayName)
	req.False(manager.Loading())
	req.Equal(channel, manager.ChannelID())

	manager.Close()
}

func TestManager_Live_Messages_Append_After_History(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	channel := domain.ChannelID("general")
	base := time.Now().UTC()
	hub := transport.NewHub(silentLogger(), 64)

	// Given three historical messages
	history := []domain.Message{
		message(channel, "u1", "h1", base),
		message(channel, "u1", "h2", base.Add(time.Second)),
		message(channel, "u1", "h3", base.Add(2*time.Second)),
	}
	messages := mocks.NewMockIMessageRepository(ctrl)
	messages.EXPECT().GetMessages(channel).Return(history, nil)
	profiles := mocks.NewMockIProfileRepository(ctrl)
	profiles.EXPECT().GetProfiles(gomock.Any()).Return(nil, nil)
	profiles.EXPECT().GetProfile(gomock.Any()).Return(domain.Profile{}, errors.ErrProfileNotFound).AnyTimes()

	manager := NewManager(silentLogger(), hub, messages, profiles)
	manager.Open(channel)
	waitLoaded(t, manager)

	// When two live messages arrive in order
	for i := 0; i < 2; i++ {
		req.NoError(hub.Publish(context.Background(), event.MessageInserted{
			Message: message(channel, "u2", fmt.Sprintf("live-%d", i), base.Add(time.Duration(3+i)*time.Second)),
		}))
	}

	// Then the sequence is history, then live, in arrival order
	eventually(t, func() bool {
		return len(manager.Messages()) == len(history)+2
	}, "live messages never appended")
	got := manager.Messages()
	req.Equal("h1", got[0].Content)
	req.Equal("h2", got[1].Content)
	req.Equal("h3", got[2].Content)
	req.Equal("live-0", got[3].Content)
	req.Equal("live-1", got[4].Content)

	manager.Close()
}

func TestManager_Channel_Switch_Discards_Stale_Load(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	hub := transport.NewHub(silentLogger(), 16)
	release := make(chan struct{})

	// Given a slow load for the first channel
	messages := mocks.NewMockIMessageRepository(ctrl)
	messages.EXPECT().GetMessages(domain.ChannelID("slow")).DoAndReturn(
		func(domain.ChannelID) ([]domain.Message, error) {
			<-release
			return []domain.Message{message("slow", "u1", "stale history", time.Now().UTC())}, nil
		})
	messages.EXPECT().GetMessages(domain.ChannelID("fast")).Return(nil, nil)
	profiles := mocks.NewMockIProfileRepository(ctrl)
	profiles.EXPECT().GetProfiles(gomock.Any()).Return(nil, nil).AnyTimes()

	manager := NewManager(silentLogger(), hub, messages, profiles)
	manager.Open("slow")

	// When the user switches channels before the first load settles
	manager.Open("fast")
	waitLoaded(t, manager)
	close(release)

	// Then the stale result never leaks into the new channel's view
	req.Equal(domain.ChannelID("fast"), manager.ChannelID())
	time.Sleep(50 * time.Millisecond)
	req.Empty(manager.Messages())

	manager.Close()
}

func TestManager_Fetch_Failure_Yields_Empty_Settled_View(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	channel := domain.ChannelID("general")

	// Given a failing bulk fetch
	messages := mocks.NewMockIMessageRepository(ctrl)
	messages.EXPECT().GetMessages(channel).Return(nil, errors.ErrFetch)
	profiles := mocks.NewMockIProfileRepository(ctrl)

	manager := NewManager(silentLogger(), transport.NewHub(silentLogger(), 16), messages, profiles)

	// When the channel opens
	manager.Open(channel)
	waitLoaded(t, manager)

	// Then the view is empty and no longer loading
	req.Empty(manager.Messages())
	req.False(manager.Loading())

	manager.Close()
}

func TestManager_Batch_Enrichment_Failure_Still_Commits_History(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	channel := domain.ChannelID("general")

	// Given history whose batched profile lookup fails
	history := []domain.Message{message(channel, "u1", "still here", time.Now().UTC())}
	messages := mocks.NewMockIMessageRepository(ctrl)
	messages.EXPECT().GetMessages(channel).Return(history, nil)
	profiles := mocks.NewMockIProfileRepository(ctrl)
	profiles.EXPECT().GetProfiles(gomock.Any()).Return(nil, errors.ErrFetch)

	manager := NewManager(silentLogger(), transport.NewHub(silentLogger(), 16), messages, profiles)

	// When the channel opens
	manager.Open(channel)
	waitLoaded(t, manager)

	// Then the messages commit with senders unresolved
	got := manager.Messages()
	req.Len(got, 1)
	req.Equal("still here", got[0].Content)
	req.Nil(got[0].Sender)

	manager.Close()
}

func TestManager_Live_Append_Fills_Sender_Afterwards(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	channel := domain.ChannelID("general")
	hub := transport.NewHub(silentLogger(), 16)

	messages := mocks.NewMockIMessageRepository(ctrl)
	messages.EXPECT().GetMessages(channel).Return(nil, nil)
	profiles := mocks.NewMockIProfileRepository(ctrl)
	profiles.EXPECT().GetProfiles(gomock.Any()).Return(nil, nil)
	profiles.EXPECT().GetProfile("u2").Return(domain.Profile{ID: "u2", DisplayName: "Sam"}, nil).AnyTimes()

	manager := NewManager(silentLogger(), hub, messages, profiles)
	manager.Open(channel)
	waitLoaded(t, manager)

	// When a live message arrives
	live := message(channel, "u2", "late entry", time.Now().UTC())
	req.NoError(hub.Publish(context.Background(), event.MessageInserted{Message: live}))

	// Then its sender resolves shortly after the append
	eventually(t, func() bool {
		got := manager.Messages()
		return len(got) > 0 && got[0].Sender != nil && got[0].Sender.DisplayName == "Sam"
	}, "sender never filled in")
	req.Equal("late entry", manager.Messages()[0].Content)

	manager.Close()
}

func TestManager_Close_Clears_The_View(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	channel := domain.ChannelID("general")

	messages := mocks.NewMockIMessageRepository(ctrl)
	messages.EXPECT().GetMessages(channel).Return([]domain.Message{
		message(channel, "u1", "gone soon", time.Now().UTC()),
	}, nil)
	profiles := mocks.NewMockIProfileRepository(ctrl)
	profiles.EXPECT().GetProfiles(gomock.Any()).Return(nil, nil)

	manager := NewManager(silentLogger(), transport.NewHub(silentLogger(), 16), messages, profiles)
	manager.Open(channel)
	waitLoaded(t, manager)

	// When the manager closes
	manager.Close()

	// Then nothing of the previous channel survives
	req.Empty(manager.Messages())
	req.Empty(manager.ChannelID())
	req.False(manager.Loading())
}
