//go:generate go run go.uber.org/mock/mockgen -source=notification.go -destination=../mocks/mock_notification_repository.go -package=mocks
package repositories

import (
	"betstream/domain"
	"betstream/errors"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type INotificationRepository interface {
	StoreNotification(notification domain.Notification) error
	ListNotifications(userID string) ([]domain.Notification, error)
	MarkRead(userID string, id uuid.UUID) error
}

type NotificationRepository struct {
	db *badger.DB
}

func NewNotificationRepository(db *badger.DB) INotificationRepository {
	return &NotificationRepository{db: db}
}

type notificationRow struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	Title     string  `json:"title"`
	Message   string  `json:"message"`
	Type      string  `json:"type"`
	Link      *string `json:"link,omitempty"`
	Read      bool    `json:"read"`
	At        int64   `json:"created_at"`
}

func notificationKey(userID string, at time.Time, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("notif:%s:%019d:%s", userID, at.UnixNano(), id))
}

func (n NotificationRepository) StoreNotification(notification domain.Notification) error {
	bytes, err := json.Marshal(fromNotification(notification))
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrWrite, err)
	}
	err = n.db.Update(func(txn *badger.Txn) error {
		return txn.Set(notificationKey(notification.UserID, notification.CreatedAt, notification.ID), bytes)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrWrite, err)
	}
	return nil
}

// ListNotifications returns a user's notification log newest first.
// The padded timestamp in the key makes reverse iteration chronological.
func (n NotificationRepository) ListNotifications(userID string) ([]domain.Notification, error) {
	var notifications []domain.Notification
	err := n.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("notif:%s:", userID)
		prefix := []byte(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible key, then walk backwards
		seekKey := append([]byte{}, prefix...)
		seekKey = append(seekKey, []byte("9999999999999999999")...)

		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var row notificationRow
				if err := json.Unmarshal(val, &row); err != nil {
					return err
				}
				notification, err := toNotification(row)
				if err != nil {
					return err
				}
				notifications = append(notifications, notification)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrFetch, err)
	}
	return notifications, nil
}

// MarkRead flips the read flag of one notification owned by userID.
// The id is not part of the key prefix, so the user's log is scanned;
// logs are short-lived and user-scoped, which keeps this acceptable.
func (n NotificationRepository) MarkRead(userID string, id uuid.UUID) error {
	suffix := ":" + id.String()
	err := n.db.Update(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("notif:%s:", userID))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			if !strings.HasSuffix(string(item.Key()), suffix) {
				continue
			}
			var row notificationRow
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &row)
			})
			if err != nil {
				return err
			}
			row.Read = true
			bytes, err := json.Marshal(row)
			if err != nil {
				return err
			}
			return txn.Set(item.KeyCopy(nil), bytes)
		}
		return badger.ErrKeyNotFound
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrWrite, err)
	}
	return nil
}

func fromNotification(notification domain.Notification) notificationRow {
	return notificationRow{
		ID:      notification.ID.String(),
		UserID:  notification.UserID,
		Title:   notification.Title,
		Message: notification.Message,
		Type:    notification.Type,
		Link:    notification.Link,
		Read:    notification.Read,
		At:      notification.CreatedAt.UnixNano(),
	}
}

func toNotification(row notificationRow) (domain.Notification, error) {
	parsedID, err := uuid.Parse(row.ID)
	if err != nil {
		return domain.Notification{}, err
	}
	return domain.Notification{
		ID:        parsedID,
		UserID:    row.UserID,
		Title:     row.Title,
		Message:   row.Message,
		Type:      row.Type,
		Link:      row.Link,
		Read:      row.Read,
		CreatedAt: time.Unix(0, row.At).UTC(),
	}, nil
}
