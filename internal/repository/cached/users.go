// Package cached decorates directory lookups with an in-process TTL cache.
package cached

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/showcase-api/internal/model"
	"github.com/jwalitptl/showcase-api/internal/repository"
)

type Config struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		TTL:             5 * time.Minute,
		CleanupInterval: 10 * time.Minute,
	}
}

// UserDirectory caches successful lookups only; a miss always reaches the
// underlying directory so newly registered users resolve immediately.
type UserDirectory struct {
	next  repository.UserDirectory
	cache *cache.Cache
}

func NewUserDirectory(next repository.UserDirectory, cfg Config) *UserDirectory {
	return &UserDirectory{
		next:  next,
		cache: cache.New(cfg.TTL, cfg.CleanupInterval),
	}
}

func idKey(id uuid.UUID) string    { return "id:" + id.String() }
func emailKey(email string) string { return "email:" + strings.ToLower(email) }

func (d *UserDirectory) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if v, found := d.cache.Get(idKey(id)); found {
		return v.(*model.User), nil
	}
	user, err := d.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d.store(user)
	return user, nil
}

func (d *UserDirectory) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if v, found := d.cache.Get(emailKey(email)); found {
		return v.(*model.User), nil
	}
	user, err := d.next.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	d.store(user)
	return user, nil
}

func (d *UserDirectory) store(user *model.User) {
	d.cache.Set(idKey(user.ID), user, cache.DefaultExpiration)
	d.cache.Set(emailKey(user.Email), user, cache.DefaultExpiration)
}
