package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/insight-aggregator/internal/models"
)

type WizardMock struct {
	mock.Mock
}

func (m *WizardMock) StartForBundle(sessionKey string, bundle models.Bundle, name, gender string) []models.WizardStep {
	args := m.Called(sessionKey, bundle, name, gender)
	steps, _ := args.Get(0).([]models.WizardStep)
	return steps
}

func (m *WizardMock) Cancel(sessionKey string) {
	m.Called(sessionKey)
}

type ReportsMock struct {
	mock.Mock
}

func (m *ReportsMock) Discard(sessionKey string) {
	m.Called(sessionKey)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(routingKey string, message any) error {
	args := m.Called(routingKey, message)
	return args.Error(0)
}

func newTransitionsUnderTest(t *testing.T) (*Transitions, *Store, *WizardMock, *ReportsMock, *PublisherMock) {
	t.Helper()
	repo := new(RepoMock)
	snapshots := new(SnapshotMock)
	repo.On("UpsertSessionRecord", mock.Anything, mock.Anything).Return(nil)
	snapshots.On("SaveSnapshot", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	snapshots.On("DropSnapshot", mock.Anything, mock.Anything).Return(nil)

	store := NewStore(repo, snapshots, newNoopLogger())
	wizardMock := new(WizardMock)
	reportsMock := new(ReportsMock)
	publisherMock := new(PublisherMock)
	tr := NewTransitions(store, wizardMock, reportsMock, publisherMock, newNoopLogger())
	return tr, store, wizardMock, reportsMock, publisherMock
}

func TestTransitions_OnRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("гость становится trial и пакет откладывается", func(t *testing.T) {
		tr, store, _, _, _ := newTransitionsUnderTest(t)

		err := tr.OnRegister(ctx, "key-1", "Mira", "mira@example.com", "female", "inner-compass")
		require.NoError(t, err)

		current := store.Current("key-1")
		assert.Equal(t, models.TierTrial, current.Tier)
		assert.Equal(t, "mira@example.com", current.Email)
		assert.Equal(t, "inner-compass", store.PendingBundle("key-1"))
	})

	t.Run("неизвестный пакет не откладывается", func(t *testing.T) {
		tr, store, _, _, _ := newTransitionsUnderTest(t)

		err := tr.OnRegister(ctx, "key-1", "Mira", "mira@example.com", "female", "no-such-bundle")
		require.NoError(t, err)

		assert.Empty(t, store.PendingBundle("key-1"))
	})

	t.Run("повторная регистрация той же сессии отклоняется", func(t *testing.T) {
		tr, _, _, _, _ := newTransitionsUnderTest(t)

		require.NoError(t, tr.OnRegister(ctx, "key-1", "Mira", "mira@example.com", "female", ""))
		err := tr.OnRegister(ctx, "key-1", "Mira", "mira@example.com", "female", "")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestTransitions_OnPurchaseConfirmed(t *testing.T) {
	ctx := context.Background()

	t.Run("trial становится full_access и отложенный пакет открывает мастер", func(t *testing.T) {
		tr, store, wizardMock, _, publisherMock := newTransitionsUnderTest(t)

		require.NoError(t, tr.OnRegister(ctx, "key-1", "Mira", "mira@example.com", "female", "inner-compass"))

		wizardMock.On("StartForBundle", "key-1", mock.Anything, "Mira", "female").
			Return([]models.WizardStep{}).Once()
		publisherMock.On("Publish", "purchase.confirmed", mock.Anything).Return(nil).Once()

		err := tr.OnPurchaseConfirmed(ctx, "key-1")
		require.NoError(t, err)

		assert.Equal(t, models.TierFullAccess, store.Current("key-1").Tier)
		assert.Empty(t, store.PendingBundle("key-1"), "отложенный пакет должен быть израсходован")
		wizardMock.AssertExpectations(t)
		publisherMock.AssertExpectations(t)
	})

	t.Run("без отложенного пакета мастер не открывается", func(t *testing.T) {
		tr, store, wizardMock, _, publisherMock := newTransitionsUnderTest(t)

		require.NoError(t, tr.OnRegister(ctx, "key-1", "Mira", "mira@example.com", "female", ""))
		publisherMock.On("Publish", "purchase.confirmed", mock.Anything).Return(nil).Once()

		require.NoError(t, tr.OnPurchaseConfirmed(ctx, "key-1"))

		assert.Equal(t, models.TierFullAccess, store.Current("key-1").Tier)
		wizardMock.AssertNotCalled(t, "StartForBundle", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("повторное подтверждение покупки отклоняется", func(t *testing.T) {
		tr, _, _, _, publisherMock := newTransitionsUnderTest(t)
		publisherMock.On("Publish", mock.Anything, mock.Anything).Return(nil)

		ctx := context.Background()
		require.NoError(t, tr.OnRegister(ctx, "key-1", "Mira", "mira@example.com", "female", ""))
		require.NoError(t, tr.OnPurchaseConfirmed(ctx, "key-1"))

		err := tr.OnPurchaseConfirmed(ctx, "key-1")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestTransitions_OnLogout(t *testing.T) {
	ctx := context.Background()
	tr, store, wizardMock, reportsMock, publisherMock := newTransitionsUnderTest(t)
	publisherMock.On("Publish", mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, tr.OnRegister(ctx, "key-1", "Mira", "mira@example.com", "female", "inner-compass"))

	wizardMock.On("Cancel", "key-1").Once()
	reportsMock.On("Discard", "key-1").Once()

	err := tr.OnLogout(ctx, "key-1")
	require.NoError(t, err)

	assert.Equal(t, models.TierGuest, store.Current("key-1").Tier)
	assert.Empty(t, store.PendingBundle("key-1"))
	wizardMock.AssertExpectations(t)
	reportsMock.AssertExpectations(t)
}

func TestTransitions_SelectBundle(t *testing.T) {
	tr, store, _, _, _ := newTransitionsUnderTest(t)

	require.NoError(t, tr.SelectBundle("key-1", "daily-draw"))
	assert.Equal(t, "daily-draw", store.PendingBundle("key-1"))

	err := tr.SelectBundle("key-1", "no-such-bundle")
	assert.Error(t, err)
}
