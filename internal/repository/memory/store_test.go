package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/showcase-api/internal/model"
	"github.com/jwalitptl/showcase-api/internal/repository"
)

func seedRequest(t *testing.T, store *Store) *model.AppRequest {
	t.Helper()
	req := &model.AppRequest{
		Name:             "Ledger App",
		ShortDescription: "Ledger App",
		Status:           model.RequestStatusOpen,
		RequesterID:      uuid.New(),
	}
	require.NoError(t, store.Repos().AppRequests.Create(context.Background(), req))
	return req
}

func TestStore_WithTxCommits(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	req := seedRequest(t, store)
	userID := uuid.New()

	err := store.WithTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		r, err := tx.AppRequests.GetForUpdate(ctx, req.ID)
		if err != nil {
			return err
		}
		r.Status = model.RequestStatusCancelled
		if err := tx.AppRequests.Update(ctx, r); err != nil {
			return err
		}
		return tx.Notifications.Create(ctx, &model.Notification{UserID: userID, Type: model.NotificationClaimDenied, Title: "closed"})
	})
	require.NoError(t, err)

	got, err := store.Repos().AppRequests.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusCancelled, got.Status)

	count, err := store.Repos().Notifications.CountUnread(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStore_WithTxRollsBackOnError(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	req := seedRequest(t, store)
	userID := uuid.New()
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		r, err := tx.AppRequests.GetForUpdate(ctx, req.ID)
		require.NoError(t, err)
		r.Status = model.RequestStatusCancelled
		require.NoError(t, tx.AppRequests.Update(ctx, r))
		require.NoError(t, tx.Claims.Create(ctx, &model.ClaimRequest{AppRequestID: req.ID, ClaimerID: userID, Status: model.ClaimStatusPending}))
		require.NoError(t, tx.Notifications.Create(ctx, &model.Notification{UserID: userID, Type: model.NotificationNewClaim, Title: "new"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	repos := store.Repos()
	got, err := repos.AppRequests.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusOpen, got.Status)

	claims, err := repos.Claims.ListByRequest(ctx, req.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, claims)

	count, err := repos.Notifications.CountUnread(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStore_WithTxRollsBackOnPanic(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	req := seedRequest(t, store)

	assert.Panics(t, func() {
		_ = store.WithTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
			require.NoError(t, tx.AppRequests.Delete(ctx, req.ID))
			panic("halfway")
		})
	})

	_, err := store.Repos().AppRequests.Get(ctx, req.ID)
	assert.NoError(t, err)

	// The lock is released after the panic.
	assert.NoError(t, store.WithTx(ctx, func(context.Context, repository.Repositories) error { return nil }))
}

func TestStore_WithTxCancelledContext(t *testing.T) {
	store := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := store.WithTx(ctx, func(context.Context, repository.Repositories) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestStore_Directories(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	bob := model.User{ID: uuid.New(), Username: "bob", Email: "Bob@Example.com"}
	store.AddUser(bob)
	team := model.Team{ID: uuid.New(), Name: "Platform"}
	store.AddTeam(team)

	got, err := store.Repos().Users.GetByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, got.ID)

	_, err = store.Repos().Users.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)

	gotTeam, err := store.Repos().Teams.Get(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, "Platform", gotTeam.Name)
}
