package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/insight-aggregator/internal/models"
)

func TestStorage_Users(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	t.Run("создание и чтение учётной записи", func(t *testing.T) {
		uid, err := storage.CreateUser(ctx, UserAccount{
			Email:        "mira@example.com",
			DisplayName:  "Mira",
			PasswordHash: "hashedpassword",
			Gender:       "female",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, uid)

		account, err := storage.GetUserByEmail(ctx, "mira@example.com")
		require.NoError(t, err)
		assert.Equal(t, uid, account.UID)
		assert.Equal(t, "Mira", account.DisplayName)
		assert.Equal(t, "female", account.Gender)
	})

	t.Run("неизвестный email даёт ErrUserNotFound", func(t *testing.T) {
		_, err := storage.GetUserByEmail(ctx, "ghost@example.com")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("повторный email отклоняется базой", func(t *testing.T) {
		_, err := storage.CreateUser(ctx, UserAccount{
			Email:        "mira@example.com",
			DisplayName:  "Another Mira",
			PasswordHash: "hashedpassword",
		})
		assert.Error(t, err)
	})
}

func TestStorage_SessionRecords(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	factory := NewTestDataFactory(storage)
	ctx := context.Background()

	t.Run("upsert и чтение записи", func(t *testing.T) {
		record := models.PersistedSessionRecord{
			Name:   "Mira",
			Email:  "mira@example.com",
			Tier:   models.TierTrial,
			Gender: "female",
		}
		require.NoError(t, storage.UpsertSessionRecord(ctx, record))

		got, found, err := storage.GetSessionRecord(ctx, "mira@example.com")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, record, *got)
	})

	t.Run("upsert перезаписывает tier той же записи", func(t *testing.T) {
		require.NoError(t, storage.UpsertSessionRecord(ctx, models.PersistedSessionRecord{
			Name:  "Mira",
			Email: "mira@example.com",
			Tier:  models.TierFullAccess,
		}))

		got, found, err := storage.GetSessionRecord(ctx, "mira@example.com")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, models.TierFullAccess, got.Tier)
	})

	t.Run("отсутствующая запись — found=false без ошибки", func(t *testing.T) {
		got, found, err := storage.GetSessionRecord(ctx, "ghost@example.com")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, got)
	})

	t.Run("запись с неизвестным tier трактуется как отсутствующая", func(t *testing.T) {
		factory.CreateRawSessionRecord(t, "broken@example.com",
			[]byte(`{"name":"X","email":"broken@example.com","tier":"vip"}`))

		got, found, err := storage.GetSessionRecord(ctx, "broken@example.com")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, got)
	})
}
