//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"betstream/domain"
	"betstream/errors"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	StoreMessage(message domain.Message) error
	GetMessages(channel domain.ChannelID) ([]domain.Message, error)
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

// messageRow is the stored shape of a message. Sender enrichment is never
// persisted; it is joined from the profile store at read time by callers.
type messageRow struct {
	ID        string  `json:"id"`
	ChannelID string  `json:"channel_id"`
	SenderID  string  `json:"sender_id"`
	Content   string  `json:"content"`
	ImageURL  *string `json:"image_url,omitempty"`
	Type      string  `json:"type"`
	At        int64   `json:"created_at"`
}

// StoreMessage persists a message in BadgerDB.
// The key is formatted as "msg:{channel}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
func (m MessageRepository) StoreMessage(message domain.Message) error {
	key := fmt.Sprintf("msg:%s:%019d:%s",
		message.ChannelID,
		message.CreatedAt.UnixNano(),
		message.ID,
	)
	bytes, err := json.Marshal(fromMessage(message))
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrWrite, err)
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrWrite, err)
	}
	return nil
}

// GetMessages retrieves the full ordered log of a channel using a prefix scan.
// Thanks to the padded timestamp in the key, forward iteration yields messages
// oldest first. There is no pagination: one conversation is one full fetch.
func (m MessageRepository) GetMessages(channel domain.ChannelID) ([]domain.Message, error) {
	var messages []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", channel))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var row messageRow
				if err := json.Unmarshal(value, &row); err != nil {
					return err
				}
				message, err := toMessage(row)
				if err != nil {
					return err
				}
				messages = append(messages, message)
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
	return messages, nil
}

func fromMessage(message domain.Message) messageRow {
	return messageRow{
		ID:        message.ID.String(),
		ChannelID: string(message.ChannelID),
		SenderID:  message.SenderID,
		Content:   message.Content,
		ImageURL:  message.ImageURL,
		Type:      string(message.Type),
		At:        message.CreatedAt.UnixNano(),
	}
}

func toMessage(row messageRow) (domain.Message, error) {
	parsedID, err := uuid.Parse(row.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:        parsedID,
		ChannelID: domain.ChannelID(row.ChannelID),
		SenderID:  row.SenderID,
		Content:   row.Content,
		ImageURL:  row.ImageURL,
		Type:      domain.MessageType(row.Type),
		CreatedAt: time.Unix(0, row.At).UTC(),
	}, nil
}
