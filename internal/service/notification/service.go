package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/showcase-api/internal/model"
	"github.com/jwalitptl/showcase-api/internal/repository"
	apperrors "github.com/jwalitptl/showcase-api/pkg/errors"
	"github.com/jwalitptl/showcase-api/pkg/logger"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Service is the user-facing side of the notification ledger.
type Service struct {
	store    repository.Store
	recorder *Recorder
	log      *logger.Logger
}

func NewService(store repository.Store, recorder *Recorder, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		store:    store,
		recorder: recorder,
		log:      log.With("service", "notification"),
	}
}

// ClampLimit applies the default and the upper bound to a page size.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}

func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("notification", nil)
	}
	return err
}

func (s *Service) List(ctx context.Context, actor uuid.UUID, unreadOnly bool, limit int) ([]*model.Notification, error) {
	items, err := s.store.Repos().Notifications.List(ctx, actor, unreadOnly, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	if items == nil {
		items = []*model.Notification{}
	}
	return items, nil
}

func (s *Service) UnreadCount(ctx context.Context, actor uuid.UUID) (int, error) {
	n, err := s.store.Repos().Notifications.CountUnread(ctx, actor)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return n, nil
}

func (s *Service) MarkRead(ctx context.Context, actor, id uuid.UUID) (*model.Notification, error) {
	var out *model.Notification
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		n, err := tx.Notifications.Get(ctx, actor, id)
		if err != nil {
			return notFound(err)
		}
		if !n.IsRead {
			if err := tx.Notifications.MarkRead(ctx, actor, id); err != nil {
				return notFound(err)
			}
			n.IsRead = true
		}
		out = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) MarkAllRead(ctx context.Context, actor uuid.UUID) (int64, error) {
	n, err := s.store.Repos().Notifications.MarkAllRead(ctx, actor)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return n, nil
}

func (s *Service) Delete(ctx context.Context, actor, id uuid.UUID) error {
	if err := s.store.Repos().Notifications.Delete(ctx, actor, id); err != nil {
		return notFound(err)
	}
	return nil
}

// Append records a notification raised outside the request lifecycle, such as
// a team invitation, in its own unit of work.
func (s *Service) Append(ctx context.Context, notice model.Notice) (*model.Notification, error) {
	var out *model.Notification
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		n, err := s.recorder.Append(ctx, tx, notice)
		out = n
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("notification appended", "type", out.Type, "user_id", out.UserID)
	return out, nil
}

// NotifyTeamInvitation tells invitee that inviter added them to a team. Team
// membership itself is owned by the team service.
func (s *Service) NotifyTeamInvitation(ctx context.Context, inviter, teamID, inviteeID uuid.UUID) (*model.Notification, error) {
	repos := s.store.Repos()

	team, err := repos.Teams.Get(ctx, teamID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("team", nil)
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	invitee, err := repos.Users.GetByID(ctx, inviteeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user", nil)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return s.Append(ctx, TeamInvitation(*team, *invitee, ActorName(ctx, repos.Users, inviter)))
}
