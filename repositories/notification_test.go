package repositories

import (
	"betstream/domain"
	"betstream/errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func storedNotification(userID, title string, at time.Time) domain.Notification {
	return domain.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Message:   "your parlay settled",
		Type:      "bet_settled",
		CreatedAt: at,
	}
}

func Test_List_Notifications_Newest_First(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewNotificationRepository(db)
	at := time.Now().UTC()

	req.NoError(repository.StoreNotification(storedNotification("u1", "oldest", at)))
	req.NoError(repository.StoreNotification(storedNotification("u1", "middle", at.Add(time.Minute))))
	req.NoError(repository.StoreNotification(storedNotification("u1", "newest", at.Add(2*time.Minute))))

	notifications, err := repository.ListNotifications("u1")
	req.NoError(err)
	req.Len(notifications, 3)
	req.Equal("newest", notifications[0].Title)
	req.Equal("middle", notifications[1].Title)
	req.Equal("oldest", notifications[2].Title)
}

func Test_List_Notifications_Is_User_Scoped(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewNotificationRepository(db)
	at := time.Now().UTC()

	req.NoError(repository.StoreNotification(storedNotification("u1", "mine", at)))
	req.NoError(repository.StoreNotification(storedNotification("u2", "theirs", at)))

	notifications, err := repository.ListNotifications("u1")
	req.NoError(err)
	req.Len(notifications, 1)
	req.Equal("mine", notifications[0].Title)
}

func Test_Mark_Read_Flips_The_Flag(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewNotificationRepository(db)
	notification := storedNotification("u1", "unread", time.Now().UTC())
	req.NoError(repository.StoreNotification(notification))

	req.NoError(repository.MarkRead("u1", notification.ID))

	notifications, err := repository.ListNotifications("u1")
	req.NoError(err)
	req.Len(notifications, 1)
	req.True(notifications[0].Read)
}

func Test_Mark_Read_Unknown_Id_Fails(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewNotificationRepository(db)
	req.NoError(repository.StoreNotification(storedNotification("u1", "only one", time.Now().UTC())))

	err := repository.MarkRead("u1", uuid.New())
	req.ErrorIs(err, errors.ErrWrite)
}
