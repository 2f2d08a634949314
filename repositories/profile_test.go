package repositories

import (
	"betstream/domain"
	"betstream/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Upsert_And_Get_Profile(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewProfileRepository(db)

	profile := domain.Profile{ID: "u1", DisplayName: "Alex", AvatarURL: "https://cdn.example.com/a.png", Username: "alex"}
	req.NoError(repository.UpsertProfile(profile))

	fetched, err := repository.GetProfile("u1")
	req.NoError(err)
	req.Equal(profile, fetched)
}

func Test_Upsert_Overwrites_Profile(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewProfileRepository(db)

	req.NoError(repository.UpsertProfile(domain.Profile{ID: "u1", DisplayName: "Alex"}))
	req.NoError(repository.UpsertProfile(domain.Profile{ID: "u1", DisplayName: "Alexandra"}))

	fetched, err := repository.GetProfile("u1")
	req.NoError(err)
	req.Equal("Alexandra", fetched.DisplayName)
}

func Test_Get_Missing_Profile_Is_Not_Found(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewProfileRepository(db)

	_, err := repository.GetProfile("ghost")
	req.ErrorIs(err, errors.ErrProfileNotFound)
}

func Test_Get_Profiles_Omits_Absentees(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewProfileRepository(db)

	req.NoError(repository.UpsertProfile(domain.Profile{ID: "u1", DisplayName: "Alex"}))
	req.NoError(repository.UpsertProfile(domain.Profile{ID: "u2", DisplayName: "Sam"}))

	// Duplicates and an unknown id in the same batch
	fetched, err := repository.GetProfiles([]string{"u1", "u2", "u1", "ghost"})
	req.NoError(err)
	req.Len(fetched, 2)
	req.Equal("Alex", fetched["u1"].DisplayName)
	req.Equal("Sam", fetched["u2"].DisplayName)
	req.NotContains(fetched, "ghost")
}
