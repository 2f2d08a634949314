package notify

import (
	"betstream/contract"
	"betstream/domain"
	"betstream/domain/event"
	"betstream/errors"
	"betstream/mocks"
	"context"
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

func notification(userID, title string) domain.Notification {
	return domain.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Message:   "your parlay settled",
		Type:      "bet_settled",
		CreatedAt: time.Now().UTC(),
	}
}

// attach wires a dispatcher to a mocked transport and hands back the sink it
// subscribed with.
func attach(t *testing.T, ctrl *gomock.Controller, alerter contract.Alerter, surface Surfacer, userID string) (*Dispatcher, contract.EventSink) {
	t.Helper()
	mockTransport := mocks.NewMockTransport(ctrl)
	mockSub := mocks.NewMockSubscription(ctrl)
	mockSub.EXPECT().Close().AnyTimes()

	var sink contract.EventSink
	mockTransport.EXPECT().
		Subscribe(domain.NotificationChannel(userID), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ domain.ChannelID, _ string, s contract.EventSink) (contract.Subscription, error) {
			sink = s
			return mockSub, nil
		})

	dispatcher := NewDispatcher(silentLogger(), mockTransport, alerter, surface)
	require.NoError(t, dispatcher.Attach(userID))
	require.NotNil(t, sink)
	return dispatcher, sink
}

func TestDispatcher_Granted_Permission_Raises_Keyed_Alert(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	alerter := mocks.NewMockAlerter(ctrl)
	_, sink := attach(t, ctrl, alerter, nil, "u1")
	inserted := notification("u1", "Bet settled")

	// Given permission already granted
	alerter.EXPECT().Permission().Return(contract.PermissionGranted)
	alerter.EXPECT().Alert(inserted.ID.String(), "Bet settled", "your parlay settled").Return(nil)

	// When the insert arrives
	req.NoError(sink.Consume(context.Background(), event.NotificationInserted{Notification: inserted}))
}

func TestDispatcher_Requests_Permission_At_Most_Once(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	alerter := mocks.NewMockAlerter(ctrl)
	_, sink := attach(t, ctrl, alerter, nil, "u1")
	ctx := context.Background()

	// Given undetermined permission that stays undetermined
	alerter.EXPECT().Permission().Return(contract.PermissionDefault).Times(2)
	alerter.EXPECT().RequestPermission().Return(contract.PermissionDefault).Times(1)

	// When two inserts arrive
	req.NoError(sink.Consume(ctx, event.NotificationInserted{Notification: notification("u1", "first")}))
	req.NoError(sink.Consume(ctx, event.NotificationInserted{Notification: notification("u1", "second")}))

	// Then the second event never re-prompts
}

func TestDispatcher_Grant_On_Request_Alerts_Immediately(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	alerter := mocks.NewMockAlerter(ctrl)
	_, sink := attach(t, ctrl, alerter, nil, "u1")
	inserted := notification("u1", "Bet settled")

	// Given the prompt resolves to granted
	alerter.EXPECT().Permission().Return(contract.PermissionDefault)
	alerter.EXPECT().RequestPermission().Return(contract.PermissionGranted)
	alerter.EXPECT().Alert(inserted.ID.String(), gomock.Any(), gomock.Any()).Return(nil)

	req.NoError(sink.Consume(context.Background(), event.NotificationInserted{Notification: inserted}))
}

func TestDispatcher_Denied_Permission_Stays_Silent(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	alerter := mocks.NewMockAlerter(ctrl)
	_, sink := attach(t, ctrl, alerter, nil, "u1")

	// Given denied permission, no alert and no prompt
	alerter.EXPECT().Permission().Return(contract.PermissionDenied)

	req.NoError(sink.Consume(context.Background(), event.NotificationInserted{Notification: notification("u1", "quiet")}))
}

func TestDispatcher_Surface_Failure_Is_Dropped_Not_Queued(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	alerter := mocks.NewMockAlerter(ctrl)
	surfaced := 0
	surface := func(domain.Notification) error {
		surfaced++
		return errors.ErrWrite
	}
	_, sink := attach(t, ctrl, alerter, surface, "u1")
	alerter.EXPECT().Permission().Return(contract.PermissionDenied).AnyTimes()

	// When the surface attempt fails
	req.NoError(sink.Consume(context.Background(), event.NotificationInserted{Notification: notification("u1", "lost")}))

	// Then it was tried exactly once; no retry, no queue
	req.Equal(1, surfaced)
}

func TestDispatcher_Ignores_Foreign_And_Stale_Events(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	alerter := mocks.NewMockAlerter(ctrl)
	dispatcher, sink := attach(t, ctrl, alerter, nil, "u1")
	ctx := context.Background()

	// A notification owned by someone else never surfaces
	req.NoError(sink.Consume(ctx, event.NotificationInserted{Notification: notification("u2", "not yours")}))

	// Nor does anything delivered after detach
	dispatcher.Detach()
	req.NoError(sink.Consume(ctx, event.NotificationInserted{Notification: notification("u1", "too late")}))
}

func TestDispatcher_Attach_Empty_User_Only_Detaches(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	dispatcher := NewDispatcher(silentLogger(), mocks.NewMockTransport(ctrl), mocks.NewMockAlerter(ctrl), nil)

	req.NoError(dispatcher.Attach(""))
}
