// Package memory is a process-local repository.Store used for development
// and tests. Units of work are serialised and rolled back from a snapshot.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/showcase-api/internal/model"
	"github.com/jwalitptl/showcase-api/internal/repository"
)

type state struct {
	requests      map[uuid.UUID]model.AppRequest
	claims        map[uuid.UUID]model.ClaimRequest
	notifications map[uuid.UUID]model.Notification
	outbox        map[uuid.UUID]model.OutboxEvent
	users         map[uuid.UUID]model.User
	teams         map[uuid.UUID]model.Team
	last          time.Time
}

// now returns a strictly increasing timestamp so newest-first ordering is
// stable for writes within the same clock tick.
func (s *state) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func newState() *state {
	return &state{
		requests:      make(map[uuid.UUID]model.AppRequest),
		claims:        make(map[uuid.UUID]model.ClaimRequest),
		notifications: make(map[uuid.UUID]model.Notification),
		outbox:        make(map[uuid.UUID]model.OutboxEvent),
		users:         make(map[uuid.UUID]model.User),
		teams:         make(map[uuid.UUID]model.Team),
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// clone copies the maps; values are stored by value so pointer fields are
// never mutated in place.
func (s *state) clone() *state {
	return &state{
		requests:      copyMap(s.requests),
		claims:        copyMap(s.claims),
		notifications: copyMap(s.notifications),
		outbox:        copyMap(s.outbox),
		users:         copyMap(s.users),
		teams:         copyMap(s.teams),
		last:          s.last,
	}
}

type Store struct {
	mu sync.Mutex
	st *state
}

func NewStore() *Store {
	return &Store{st: newState()}
}

// runner executes fn against the current state.
type runner func(fn func(st *state) error) error

func (s *Store) locked(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

func (s *Store) repos(run runner) repository.Repositories {
	return repository.Repositories{
		AppRequests:   &appRequestRepository{run: run},
		Claims:        &claimRepository{run: run},
		Notifications: &notificationRepository{run: run},
		Outbox:        &outboxRepository{run: run},
		Users:         &userDirectory{run: run},
		Teams:         &teamDirectory{run: run},
	}
}

func (s *Store) Repos() repository.Repositories {
	return s.repos(s.locked)
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Repositories) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	defer func() {
		if p := recover(); p != nil {
			s.st = snapshot
			panic(p)
		}
		if err != nil {
			s.st = snapshot
		}
	}()

	if err = ctx.Err(); err != nil {
		return err
	}
	direct := func(f func(st *state) error) error { return f(s.st) }
	return fn(ctx, s.repos(direct))
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}

// AddUser seeds the user directory.
func (s *Store) AddUser(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.users[u.ID] = u
}

func (s *Store) AddTeam(t model.Team) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.teams[t.ID] = t
}

type userDirectory struct{ run runner }

func (r *userDirectory) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var out *model.User
	err := r.run(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *userDirectory) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var out *model.User
	err := r.run(func(st *state) error {
		for _, u := range st.users {
			if strings.EqualFold(u.Email, email) {
				u := u
				out = &u
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

type teamDirectory struct{ run runner }

func (r *teamDirectory) Get(ctx context.Context, id uuid.UUID) (*model.Team, error) {
	var out *model.Team
	err := r.run(func(st *state) error {
		t, ok := st.teams[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &t
		return nil
	})
	return out, err
}
