package apprequest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/showcase-api/internal/model"
	"github.com/jwalitptl/showcase-api/internal/repository"
	"github.com/jwalitptl/showcase-api/internal/service/access"
	"github.com/jwalitptl/showcase-api/internal/service/claim"
	"github.com/jwalitptl/showcase-api/internal/service/notification"
	apperrors "github.com/jwalitptl/showcase-api/pkg/errors"
	"github.com/jwalitptl/showcase-api/pkg/logger"
	"github.com/jwalitptl/showcase-api/pkg/metrics"
)

type Config struct {
	// NotifyOnCompletion sends request_completed to the requester when the
	// assignee completes a request.
	NotifyOnCompletion bool
}

// ListQuery is the caller-facing filter; Mine and AssignedToMe are resolved
// against the actor.
type ListQuery struct {
	Status       *model.RequestStatus
	TeamID       *uuid.UUID
	Mine         bool
	AssignedToMe bool
}

type Service struct {
	store    repository.Store
	users    repository.UserDirectory
	recorder *notification.Recorder
	metrics  *metrics.Metrics
	log      *logger.Logger
	cfg      Config
}

func NewService(
	store repository.Store,
	users repository.UserDirectory,
	recorder *notification.Recorder,
	m *metrics.Metrics,
	log *logger.Logger,
	cfg Config,
) *Service {
	if log == nil {
		log = logger.Nop()
	}
	if users == nil {
		users = store.Repos().Users
	}
	return &Service{
		store:    store,
		users:    users,
		recorder: recorder,
		metrics:  m,
		log:      log.With("service", "apprequest"),
		cfg:      cfg,
	}
}

func requestLookupErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("app request", nil)
	}
	return fmt.Errorf("failed to get app request: %w", err)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func shortDescription(explicit *string, name string, description *string) string {
	if s := trimmed(explicit); s != nil {
		return model.DeriveShortDescription(*s, nil)
	}
	return model.DeriveShortDescription(name, description)
}

func (s *Service) Create(ctx context.Context, actor uuid.UUID, in model.CreateAppRequestInput) (*model.AppRequest, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.InvalidArgument("name is required")
	}
	description := trimmed(in.Description)

	if in.TeamID != nil {
		if _, err := s.store.Repos().Teams.Get(ctx, *in.TeamID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.InvalidArgument("team not found")
			}
			return nil, fmt.Errorf("failed to get team: %w", err)
		}
	}

	req := &model.AppRequest{
		Name:             name,
		ShortDescription: shortDescription(in.ShortDescription, name, description),
		Description:      description,
		Status:           model.RequestStatusOpen,
		RequesterID:      actor,
		TeamID:           in.TeamID,
	}

	var assignee *model.User
	if email := trimmed(in.AssignedEmail); email != nil {
		user, err := s.users.GetByEmail(ctx, *email)
		switch {
		case err == nil:
			assignee = user
			if err := req.AssignTo(&user.ID, email); err != nil {
				return nil, err
			}
		case errors.Is(err, repository.ErrNotFound):
			// Unknown address: kept as an invitation target, request stays open.
			req.AssignedEmail = email
		default:
			return nil, fmt.Errorf("failed to resolve assignee: %w", err)
		}
	}

	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		if err := tx.AppRequests.Create(ctx, req); err != nil {
			return err
		}
		if assignee != nil {
			notice := notification.RequestAssigned(req, *assignee, notification.ActorName(ctx, tx.Users, actor))
			if _, err := s.recorder.Append(ctx, tx, notice); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RequestTransition(string(req.Status))
	s.log.Info("app request created", "request_id", req.ID, "status", req.Status)
	return req, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.AppRequestSummary, error) {
	repos := s.store.Repos()
	req, err := repos.AppRequests.Get(ctx, id)
	if err != nil {
		return nil, requestLookupErr(err)
	}
	pending, err := repos.Claims.CountByStatus(ctx, id, model.ClaimStatusPending)
	if err != nil {
		return nil, err
	}
	return &model.AppRequestSummary{AppRequest: *req, PendingClaimsCount: pending}, nil
}

// List returns requests newest first. Mine and AssignedToMe are ignored when
// actor is nil.
func (s *Service) List(ctx context.Context, actor *uuid.UUID, q ListQuery) ([]*model.AppRequestSummary, error) {
	filters := &model.AppRequestFilters{
		Status: q.Status,
		TeamID: q.TeamID,
	}
	if actor != nil {
		if q.Mine {
			filters.RequesterID = actor
		}
		if q.AssignedToMe {
			filters.AssigneeID = actor
			if user, err := s.users.GetByID(ctx, *actor); err == nil {
				filters.AssigneeEmail = user.Email
			} else if !errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("failed to resolve actor: %w", err)
			}
		}
	}

	items, err := s.store.Repos().AppRequests.List(ctx, filters)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*model.AppRequestSummary{}
	}
	return items, nil
}

// Update edits the descriptive fields. Status changes go through Assign,
// Complete, Cancel and claim approval.
func (s *Service) Update(ctx context.Context, actor, id uuid.UUID, in model.UpdateAppRequestInput) (*model.AppRequest, error) {
	var out *model.AppRequest
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		req, err := tx.AppRequests.GetForUpdate(ctx, id)
		if err != nil {
			return requestLookupErr(err)
		}
		if err := access.RequireRequester(actor, req, "edit this request"); err != nil {
			return err
		}
		if in.Status != nil {
			return apperrors.InvalidArgument("status cannot be updated directly; use assign, approve, complete or cancel")
		}

		derived := req.ShortDescription == model.DeriveShortDescription(req.Name, req.Description)
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return apperrors.InvalidArgument("name cannot be blank")
			}
			req.Name = name
		}
		if in.Description != nil {
			req.Description = trimmed(in.Description)
		}
		switch {
		case in.ShortDescription != nil:
			req.ShortDescription = shortDescription(in.ShortDescription, req.Name, req.Description)
		case derived:
			req.ShortDescription = model.DeriveShortDescription(req.Name, req.Description)
		}

		if err := tx.AppRequests.Update(ctx, req); err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Assign sets the assignee directly. A user id must resolve and then wins over
// any email sent with it; an email that does not resolve is stored as a
// pending invitation target.
func (s *Service) Assign(ctx context.Context, actor, id uuid.UUID, in model.AssignInput) (*model.AppRequest, error) {
	var out *model.AppRequest
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		req, err := tx.AppRequests.GetForUpdate(ctx, id)
		if err != nil {
			return requestLookupErr(err)
		}
		if err := access.RequireRequester(actor, req, "assign this request"); err != nil {
			return err
		}

		email := trimmed(in.Email)
		if in.UserID == nil && email == nil {
			return apperrors.InvalidArgument("email or user_id is required")
		}

		var user *model.User
		if in.UserID != nil {
			user, err = tx.Users.GetByID(ctx, *in.UserID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return apperrors.NotFound("user", nil)
				}
				return fmt.Errorf("failed to get user: %w", err)
			}
			email = &user.Email
		} else {
			user, err = tx.Users.GetByEmail(ctx, *email)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("failed to resolve assignee: %w", err)
			}
		}

		var assigneeID *uuid.UUID
		if user != nil {
			assigneeID = &user.ID
		}
		if err := req.AssignTo(assigneeID, email); err != nil {
			return err
		}
		if err := tx.AppRequests.Update(ctx, req); err != nil {
			return err
		}

		if user != nil {
			notice := notification.RequestAssigned(req, *user, notification.ActorName(ctx, tx.Users, actor))
			if _, err := s.recorder.Append(ctx, tx, notice); err != nil {
				return err
			}
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RequestTransition(string(out.Status))
	return out, nil
}

func (s *Service) Complete(ctx context.Context, actor, id, appID uuid.UUID) (*model.AppRequest, error) {
	var out *model.AppRequest
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		req, err := tx.AppRequests.GetForUpdate(ctx, id)
		if err != nil {
			return requestLookupErr(err)
		}
		if err := access.RequireAssignee(actor, req, "complete this request"); err != nil {
			return err
		}
		if appID == uuid.Nil {
			return apperrors.InvalidArgument("app_id is required")
		}
		if err := req.Complete(appID); err != nil {
			return err
		}
		if err := tx.AppRequests.Update(ctx, req); err != nil {
			return err
		}

		if s.cfg.NotifyOnCompletion {
			notice := notification.RequestCompleted(req, notification.ActorName(ctx, tx.Users, actor))
			if _, err := s.recorder.Append(ctx, tx, notice); err != nil {
				return err
			}
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RequestTransition(string(out.Status))
	s.log.Info("app request completed", "request_id", id, "app_id", appID)
	return out, nil
}

// Cancel closes the request and denies every pending claim.
func (s *Service) Cancel(ctx context.Context, actor, id uuid.UUID) (*model.AppRequest, error) {
	var out *model.AppRequest
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		req, err := tx.AppRequests.GetForUpdate(ctx, id)
		if err != nil {
			return requestLookupErr(err)
		}
		if err := access.RequireRequester(actor, req, "cancel this request"); err != nil {
			return err
		}
		if err := req.Cancel(); err != nil {
			return err
		}
		if err := tx.AppRequests.Update(ctx, req); err != nil {
			return err
		}
		if _, err := claim.DenyPending(ctx, tx, s.recorder, req, notification.RequestCancelled); err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RequestTransition(string(out.Status))
	return out, nil
}

// Delete removes the request and its claims. Notifications that reference it
// are kept.
func (s *Service) Delete(ctx context.Context, actor, id uuid.UUID) error {
	return s.store.WithTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		req, err := tx.AppRequests.GetForUpdate(ctx, id)
		if err != nil {
			return requestLookupErr(err)
		}
		if err := access.RequireRequester(actor, req, "delete this request"); err != nil {
			return err
		}
		if _, err := tx.Claims.DeleteByRequest(ctx, req.ID); err != nil {
			return err
		}
		if err := tx.AppRequests.Delete(ctx, req.ID); err != nil {
			return requestLookupErr(err)
		}
		return nil
	})
}
