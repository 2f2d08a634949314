//go:generate go run go.uber.org/mock/mockgen -source=typing.go -destination=../mocks/mock_typing_repository.go -package=mocks
package repositories

import (
	"betstream/domain"
	"betstream/errors"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

type ITypingRepository interface {
	UpsertTyping(status domain.TypingStatus) error
	DeleteTyping(channel domain.ChannelID, userID string) error
	GetTyping(channel domain.ChannelID) ([]domain.TypingStatus, error)
}

type TypingRepository struct {
	db *badger.DB
}

func NewTypingRepository(db *badger.DB) ITypingRepository {
	return &TypingRepository{db: db}
}

type typingRow struct {
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id"`
	IsTyping  bool   `json:"is_typing"`
	UpdatedAt int64  `json:"updated_at"`
}

func typingKey(channel domain.ChannelID, userID string) []byte {
	return []byte(fmt.Sprintf("typing:%s:%s", channel, userID))
}

// UpsertTyping writes the row for (channel, user). The key carries no
// timestamp on purpose: one row per pair, a repeat upsert overwrites.
func (t TypingRepository) UpsertTyping(status domain.TypingStatus) error {
	bytes, err := json.Marshal(typingRow{
		ChannelID: string(status.ChannelID),
		UserID:    status.UserID,
		IsTyping:  status.IsTyping,
		UpdatedAt: status.UpdatedAt.UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrWrite, err)
	}
	err = t.db.Update(func(txn *badger.Txn) error {
		return txn.Set(typingKey(status.ChannelID, status.UserID), bytes)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrWrite, err)
	}
	return nil
}

func (t TypingRepository) DeleteTyping(channel domain.ChannelID, userID string) error {
	err := t.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(typingKey(channel, userID))
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrWrite, err)
	}
	return nil
}

func (t TypingRepository) GetTyping(channel domain.ChannelID) ([]domain.TypingStatus, error) {
	var statuses []domain.TypingStatus
	err := t.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("typing:%s:", channel))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var row typingRow
				if err := json.Unmarshal(val, &row); err != nil {
					return err
				}
				statuses = append(statuses, domain.TypingStatus{
					ChannelID: domain.ChannelID(row.ChannelID),
					UserID:    row.UserID,
					IsTyping:  row.IsTyping,
					UpdatedAt: time.Unix(0, row.UpdatedAt).UTC(),
				})
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
	return statuses, nil
}
