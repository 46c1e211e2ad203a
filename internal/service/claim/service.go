package claim

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/showcase-api/internal/model"
	"github.com/jwalitptl/showcase-api/internal/repository"
	"github.com/jwalitptl/showcase-api/internal/service/access"
	"github.com/jwalitptl/showcase-api/internal/service/notification"
	apperrors "github.com/jwalitptl/showcase-api/pkg/errors"
	"github.com/jwalitptl/showcase-api/pkg/logger"
	"github.com/jwalitptl/showcase-api/pkg/metrics"
)

// Service arbitrates claims on app requests. Every decision runs in one unit
// of work that locks the request row first.
type Service struct {
	store    repository.Store
	recorder *notification.Recorder
	metrics  *metrics.Metrics
	log      *logger.Logger
}

func NewService(store repository.Store, recorder *notification.Recorder, m *metrics.Metrics, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		store:    store,
		recorder: recorder,
		metrics:  m,
		log:      log.With("service", "claim"),
	}
}

func lookupErr(resource string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(resource, nil)
	}
	return fmt.Errorf("failed to get %s: %w", resource, err)
}

// loadForDecision locks the request and loads a claim that must belong to it.
func loadForDecision(ctx context.Context, tx repository.Repositories, requestID, claimID uuid.UUID) (*model.AppRequest, *model.ClaimRequest, error) {
	req, err := tx.AppRequests.GetForUpdate(ctx, requestID)
	if err != nil {
		return nil, nil, lookupErr("app request", err)
	}
	claim, err := tx.Claims.Get(ctx, claimID)
	if err != nil {
		return nil, nil, lookupErr("claim", err)
	}
	if claim.AppRequestID != req.ID {
		return nil, nil, apperrors.NotFound("claim", nil)
	}
	return req, claim, nil
}

func (s *Service) Submit(ctx context.Context, actor, requestID uuid.UUID, in model.SubmitClaimInput) (*model.ClaimRequest, error) {
	var message *string
	if in.Message != nil {
		if m := strings.TrimSpace(*in.Message); m != "" {
			message = &m
		}
	}

	var out *model.ClaimRequest
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		req, err := tx.AppRequests.GetForUpdate(ctx, requestID)
		if err != nil {
			return lookupErr("app request", err)
		}
		if !req.AcceptingClaims() {
			return apperrors.InvalidState(fmt.Sprintf("request is %s and not accepting claims", req.Status))
		}
		if access.IsRequester(actor, req) {
			return apperrors.InvalidArgument("you cannot claim your own request")
		}

		pending, err := tx.Claims.HasPending(ctx, req.ID, actor)
		if err != nil {
			return err
		}
		if pending {
			return apperrors.AlreadyExists("you already have a pending claim for this request")
		}

		claim := &model.ClaimRequest{
			AppRequestID: req.ID,
			ClaimerID:    actor,
			Message:      message,
			Status:       model.ClaimStatusPending,
		}
		if err := tx.Claims.Create(ctx, claim); err != nil {
			return err
		}

		if _, err := s.recorder.Append(ctx, tx, notification.NewClaim(req, notification.ActorName(ctx, tx.Users, actor))); err != nil {
			return err
		}
		out = claim
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ClaimDecision(string(model.ClaimStatusPending))
	s.log.Info("claim submitted", "request_id", requestID, "claim_id", out.ID)
	return out, nil
}

func (s *Service) List(ctx context.Context, actor, requestID uuid.UUID) ([]*model.ClaimRequest, error) {
	repos := s.store.Repos()
	req, err := repos.AppRequests.Get(ctx, requestID)
	if err != nil {
		return nil, lookupErr("app request", err)
	}
	if err := access.RequireRequester(actor, req, "view claims for this request"); err != nil {
		return nil, err
	}

	claims, err := repos.Claims.ListByRequest(ctx, req.ID, nil)
	if err != nil {
		return nil, err
	}
	if claims == nil {
		claims = []*model.ClaimRequest{}
	}
	return claims, nil
}

// Approve assigns the request to the claimer and denies every other pending
// claim. A second approval on the same request observes the first one's
// committed state and fails with InvalidState.
func (s *Service) Approve(ctx context.Context, actor, requestID, claimID uuid.UUID) (*model.AppRequest, error) {
	var (
		out    *model.AppRequest
		denied int
	)
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		req, claim, err := loadForDecision(ctx, tx, requestID, claimID)
		if err != nil {
			return err
		}
		if err := access.RequireRequester(actor, req, "approve claims"); err != nil {
			return err
		}
		if !claim.IsPending() {
			return apperrors.InvalidState(fmt.Sprintf("claim is already %s", claim.Status))
		}
		if !req.ApprovalEligible() {
			return apperrors.InvalidState(fmt.Sprintf("request is %s and no longer accepting claims", req.Status))
		}
		approved, err := tx.Claims.CountByStatus(ctx, req.ID, model.ClaimStatusApproved)
		if err != nil {
			return err
		}
		if approved > 0 {
			return apperrors.InvalidState("a claim has already been approved for this request")
		}

		if err := claim.Decide(model.ClaimStatusApproved); err != nil {
			return err
		}
		if err := tx.Claims.UpdateStatus(ctx, claim); err != nil {
			return err
		}
		previous := req.AssigneeID
		if err := req.StartWork(claim.ClaimerID); err != nil {
			return err
		}
		if err := tx.AppRequests.Update(ctx, req); err != nil {
			return err
		}
		if _, err := s.recorder.Append(ctx, tx, notification.ClaimApproved(req, claim)); err != nil {
			return err
		}
		if previous != nil && *previous != claim.ClaimerID {
			if _, err := s.recorder.Append(ctx, tx, notification.AssignmentReplaced(req, *previous)); err != nil {
				return err
			}
		}

		denied, err = DenyPending(ctx, tx, s.recorder, req, notification.ClaimNotSelected)
		if err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ClaimDecision(string(model.ClaimStatusApproved))
	s.metrics.RequestTransition(string(out.Status))
	s.log.Info("claim approved", "request_id", requestID, "claim_id", claimID, "denied", denied)
	return out, nil
}

func (s *Service) Deny(ctx context.Context, actor, requestID, claimID uuid.UUID) (*model.ClaimRequest, error) {
	var out *model.ClaimRequest
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		req, claim, err := loadForDecision(ctx, tx, requestID, claimID)
		if err != nil {
			return err
		}
		if err := access.RequireRequester(actor, req, "deny claims"); err != nil {
			return err
		}
		if err := claim.Decide(model.ClaimStatusDenied); err != nil {
			return err
		}
		if err := tx.Claims.UpdateStatus(ctx, claim); err != nil {
			return err
		}
		if _, err := s.recorder.Append(ctx, tx, notification.ClaimDenied(req, claim)); err != nil {
			return err
		}
		out = claim
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ClaimDecision(string(model.ClaimStatusDenied))
	return out, nil
}

// DenyPending denies every pending claim on req inside tx and notifies each
// claimer with the notice built by notice. It returns the number denied.
func DenyPending(
	ctx context.Context,
	tx repository.Repositories,
	recorder *notification.Recorder,
	req *model.AppRequest,
	notice func(*model.AppRequest, *model.ClaimRequest) model.Notice,
) (int, error) {
	status := model.ClaimStatusPending
	pending, err := tx.Claims.ListByRequest(ctx, req.ID, &status)
	if err != nil {
		return 0, err
	}

	for _, c := range pending {
		if err := c.Decide(model.ClaimStatusDenied); err != nil {
			return 0, err
		}
		if err := tx.Claims.UpdateStatus(ctx, c); err != nil {
			return 0, err
		}
		if _, err := recorder.Append(ctx, tx, notice(req, c)); err != nil {
			return 0, err
		}
	}
	return len(pending), nil
}
