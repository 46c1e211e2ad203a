package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jwalitptl/showcase-api/internal/model"
	"github.com/jwalitptl/showcase-api/internal/repository"
)

type notificationRepository struct{ run runner }

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return r.run(func(st *state) error {
		if n.CreatedAt.IsZero() {
			n.CreatedAt = st.now()
		}
		st.notifications[n.ID] = *n
		return nil
	})
}

func owned(st *state, userID, id uuid.UUID) (model.Notification, bool) {
	n, ok := st.notifications[id]
	if !ok || n.UserID != userID {
		return model.Notification{}, false
	}
	return n, true
}

func (r *notificationRepository) Get(ctx context.Context, userID, id uuid.UUID) (*model.Notification, error) {
	var out *model.Notification
	err := r.run(func(st *state) error {
		n, ok := owned(st, userID, id)
		if !ok {
			return repository.ErrNotFound
		}
		out = &n
		return nil
	})
	return out, err
}

func (r *notificationRepository) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]*model.Notification, error) {
	var out []*model.Notification
	err := r.run(func(st *state) error {
		for _, n := range st.notifications {
			n := n
			if n.UserID != userID || (unreadOnly && n.IsRead) {
				continue
			}
			out = append(out, &n)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.run(func(st *state) error {
		for _, n := range st.notifications {
			if n.UserID == userID && !n.IsRead {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return r.run(func(st *state) error {
		n, ok := owned(st, userID, id)
		if !ok {
			return repository.ErrNotFound
		}
		n.IsRead = true
		st.notifications[id] = n
		return nil
	})
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	var marked int64
	err := r.run(func(st *state) error {
		for id, n := range st.notifications {
			if n.UserID == userID && !n.IsRead {
				n.IsRead = true
				st.notifications[id] = n
				marked++
			}
		}
		return nil
	})
	return marked, err
}

func (r *notificationRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return r.run(func(st *state) error {
		if _, ok := owned(st, userID, id); !ok {
			return repository.ErrNotFound
		}
		delete(st.notifications, id)
		return nil
	})
}
