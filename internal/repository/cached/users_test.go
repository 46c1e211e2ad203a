package cached

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/showcase-api/internal/model"
	"github.com/jwalitptl/showcase-api/internal/repository"
)

type countingDirectory struct {
	users map[uuid.UUID]*model.User
	calls int
}

func (d *countingDirectory) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	d.calls++
	if u, ok := d.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (d *countingDirectory) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	d.calls++
	for _, u := range d.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func TestUserDirectory_CachesHits(t *testing.T) {
	user := &model.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com"}
	next := &countingDirectory{users: map[uuid.UUID]*model.User{user.ID: user}}
	dir := NewUserDirectory(next, Config{TTL: time.Minute, CleanupInterval: time.Minute})
	ctx := context.Background()

	got, err := dir.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	got, err = dir.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	got, err = dir.GetByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	assert.Equal(t, 1, next.calls)
}

func TestUserDirectory_MissesAreNotCached(t *testing.T) {
	next := &countingDirectory{users: map[uuid.UUID]*model.User{}}
	dir := NewUserDirectory(next, DefaultConfig())
	ctx := context.Background()

	_, err := dir.GetByEmail(ctx, "bob@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	bob := &model.User{ID: uuid.New(), Username: "bob", Email: "bob@example.com"}
	next.users[bob.ID] = bob

	got, err := dir.GetByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, got.ID)
	assert.Equal(t, 2, next.calls)
}
