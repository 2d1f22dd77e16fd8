package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/insight-aggregator/internal/models"
)

type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) GetSessionRecord(ctx context.Context, email string) (*models.PersistedSessionRecord, bool, error) {
	args := m.Called(ctx, email)
	record, _ := args.Get(0).(*models.PersistedSessionRecord)
	return record, args.Bool(1), args.Error(2)
}

func (m *RepoMock) UpsertSessionRecord(ctx context.Context, record models.PersistedSessionRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

type SnapshotMock struct {
	mock.Mock
}

func (m *SnapshotMock) SaveSnapshot(ctx context.Context, sessionKey string, session models.UserSession) error {
	args := m.Called(ctx, sessionKey, session)
	return args.Error(0)
}

func (m *SnapshotMock) DropSnapshot(ctx context.Context, sessionKey string) error {
	args := m.Called(ctx, sessionKey)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestStore_CurrentUnknownKeyIsGuest(t *testing.T) {
	store := NewStore(new(RepoMock), new(SnapshotMock), newNoopLogger())

	current := store.Current("unknown")

	assert.Equal(t, models.TierGuest, current.Tier)
	assert.Empty(t, current.Email)
}

func TestStore_Reconcile(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		record     *models.PersistedSessionRecord
		found      bool
		lookupErr  error
		wantTier   models.Tier
		wantUpsert bool
	}{
		{
			name:       "первый вход без зеркальной записи даёт trial",
			record:     nil,
			found:      false,
			wantTier:   models.TierTrial,
			wantUpsert: true,
		},
		{
			name:     "повторный вход принимает tier из зеркала",
			record:   &models.PersistedSessionRecord{Name: "Mira", Email: "mira@example.com", Tier: models.TierFullAccess, Gender: "female"},
			found:    true,
			wantTier: models.TierFullAccess,
		},
		{
			name:       "нечитаемое зеркало трактуется как первый вход",
			lookupErr:  errors.New("connection refused"),
			wantTier:   models.TierTrial,
			wantUpsert: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			snapshots := new(SnapshotMock)
			store := NewStore(repo, snapshots, newNoopLogger())

			repo.On("GetSessionRecord", mock.Anything, "mira@example.com").
				Return(tt.record, tt.found, tt.lookupErr).Once()
			if tt.wantUpsert {
				repo.On("UpsertSessionRecord", mock.Anything, mock.Anything).Return(nil).Once()
			}
			snapshots.On("SaveSnapshot", mock.Anything, "key-1", mock.Anything).Return(nil).Once()

			err := store.Reconcile(ctx, "key-1", IdentityEvent{
				Kind:        SignedIn,
				Email:       "mira@example.com",
				DisplayName: "Mira",
			})
			require.NoError(t, err)

			current := store.Current("key-1")
			assert.Equal(t, tt.wantTier, current.Tier)
			assert.Equal(t, "mira@example.com", current.Email)
			repo.AssertExpectations(t)
			snapshots.AssertExpectations(t)
		})
	}
}

func TestStore_ReconcileNeverDowngradesSameIdentity(t *testing.T) {
	ctx := context.Background()
	repo := new(RepoMock)
	snapshots := new(SnapshotMock)
	store := NewStore(repo, snapshots, newNoopLogger())

	repo.On("UpsertSessionRecord", mock.Anything, mock.Anything).Return(nil)
	snapshots.On("SaveSnapshot", mock.Anything, "key-1", mock.Anything).Return(nil)

	// Оптимистично полный доступ, зеркало отстаёт и всё ещё хранит trial.
	require.NoError(t, store.ApplyOptimistic(ctx, "key-1",
		models.TierFullAccess, "Mira", "mira@example.com", "female"))

	repo.On("GetSessionRecord", mock.Anything, "mira@example.com").
		Return(&models.PersistedSessionRecord{Email: "mira@example.com", Tier: models.TierTrial}, true, nil).Once()

	err := store.Reconcile(ctx, "key-1", IdentityEvent{
		Kind:  SignedIn,
		Email: "mira@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, models.TierFullAccess, store.Current("key-1").Tier)
	assert.Equal(t, "female", store.Current("key-1").Gender)
}

func TestStore_ReconcileSignedOutResetsSession(t *testing.T) {
	ctx := context.Background()
	repo := new(RepoMock)
	snapshots := new(SnapshotMock)
	store := NewStore(repo, snapshots, newNoopLogger())

	repo.On("UpsertSessionRecord", mock.Anything, mock.Anything).Return(nil)
	snapshots.On("SaveSnapshot", mock.Anything, "key-1", mock.Anything).Return(nil)
	snapshots.On("DropSnapshot", mock.Anything, "key-1").Return(nil).Once()

	require.NoError(t, store.ApplyOptimistic(ctx, "key-1",
		models.TierFullAccess, "Mira", "mira@example.com", "female"))
	store.setPendingBundle("key-1", "daily-draw")
	epochBefore := store.Epoch("key-1")

	err := store.Reconcile(ctx, "key-1", IdentityEvent{Kind: SignedOut})
	require.NoError(t, err)

	current := store.Current("key-1")
	assert.Equal(t, models.TierGuest, current.Tier)
	assert.Empty(t, current.Email)
	assert.Empty(t, store.PendingBundle("key-1"))
	assert.Equal(t, epochBefore+1, store.Epoch("key-1"), "выход должен поднять эпоху")
	snapshots.AssertExpectations(t)
}

func TestStore_SubscribersAreNotified(t *testing.T) {
	ctx := context.Background()
	repo := new(RepoMock)
	snapshots := new(SnapshotMock)
	store := NewStore(repo, snapshots, newNoopLogger())

	repo.On("UpsertSessionRecord", mock.Anything, mock.Anything).Return(nil)
	snapshots.On("SaveSnapshot", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	var seen []models.Tier
	store.Subscribe("key-1", func(s models.UserSession) {
		seen = append(seen, s.Tier)
	})

	require.NoError(t, store.ApplyOptimistic(ctx, "key-1",
		models.TierTrial, "Mira", "mira@example.com", "female"))
	require.NoError(t, store.ApplyOptimistic(ctx, "key-1",
		models.TierFullAccess, "Mira", "mira@example.com", "female"))

	assert.Equal(t, []models.Tier{models.TierTrial, models.TierFullAccess}, seen)
}

func TestStore_TakePendingBundleClears(t *testing.T) {
	store := NewStore(new(RepoMock), new(SnapshotMock), newNoopLogger())

	store.setPendingBundle("key-1", "inner-compass")

	assert.Equal(t, "inner-compass", store.takePendingBundle("key-1"))
	assert.Empty(t, store.takePendingBundle("key-1"))
}
