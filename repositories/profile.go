//go:generate go run go.uber.org/mock/mockgen -source=profile.go -destination=../mocks/mock_profile_repository.go -package=mocks
package repositories

import (
	"betstream/domain"
	"betstream/errors"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

type IProfileRepository interface {
	UpsertProfile(profile domain.Profile) error
	GetProfile(id string) (domain.Profile, error)
	GetProfiles(ids []string) (map[string]domain.Profile, error)
}

type ProfileRepository struct {
	db *badger.DB
}

func NewProfileRepository(db *badger.DB) IProfileRepository {
	return &ProfileRepository{db: db}
}

type profileRow struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	Username    string `json:"username"`
}

func (p ProfileRepository) UpsertProfile(profile domain.Profile) error {
	bytes, err := json.Marshal(profileRow(profile))
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrWrite, err)
	}
	err = p.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("profile:"+profile.ID), bytes)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrWrite, err)
	}
	return nil
}

func (p ProfileRepository) GetProfile(id string) (domain.Profile, error) {
	var row profileRow
	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("profile:" + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &row)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.Profile{}, fmt.Errorf("%w: %s", errors.ErrProfileNotFound, id)
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("%w: %v", errors.ErrFetch, err)
	}
	return domain.Profile(row), nil
}

// GetProfiles resolves a batch of identifiers in a single read transaction.
// Absent identifiers are omitted from the result, not reported as errors.
func (p ProfileRepository) GetProfiles(ids []string) (map[string]domain.Profile, error) {
	profiles := make(map[string]domain.Profile)
	err := p.db.View(func(txn *badger.Txn) error {
		for _, id := range lo.Uniq(ids) {
			item, err := txn.Get([]byte("profile:" + id))
			if err == badger.ErrKeyNotFound {
				continue
			}
			if err != nil {
				return err
			}
			var row profileRow
			err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, &row)
			})
			if err != nil {
				return err
			}
			profiles[row.ID] = domain.Profile(row)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrFetch, err)
	}
	return profiles, nil
}
