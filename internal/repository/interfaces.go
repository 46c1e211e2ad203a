package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/showcase-api/internal/model"
)

// ErrNotFound is returned by every repository when the addressed row is absent.
var ErrNotFound = errors.New("record not found")

// All repository interfaces in one file
type (
	AppRequestRepository interface {
		Create(ctx context.Context, req *model.AppRequest) error
		Get(ctx context.Context, id uuid.UUID) (*model.AppRequest, error)
		// GetForUpdate reads the request and holds a row lock until the
		// surrounding transaction ends.
		GetForUpdate(ctx context.Context, id uuid.UUID) (*model.AppRequest, error)
		Update(ctx context.Context, req *model.AppRequest) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.AppRequestFilters) ([]*model.AppRequestSummary, error)
	}

	ClaimRepository interface {
		Create(ctx context.Context, claim *model.ClaimRequest) error
		Get(ctx context.Context, id uuid.UUID) (*model.ClaimRequest, error)
		ListByRequest(ctx context.Context, requestID uuid.UUID, status *model.ClaimStatus) ([]*model.ClaimRequest, error)
		HasPending(ctx context.Context, requestID, claimerID uuid.UUID) (bool, error)
		CountByStatus(ctx context.Context, requestID uuid.UUID, status model.ClaimStatus) (int, error)
		UpdateStatus(ctx context.Context, claim *model.ClaimRequest) error
		DeleteByRequest(ctx context.Context, requestID uuid.UUID) (int64, error)
	}

	NotificationRepository interface {
		Create(ctx context.Context, n *model.Notification) error
		// Get, MarkRead and Delete are scoped to the owner; another user's
		// notification is reported as ErrNotFound.
		Get(ctx context.Context, userID, id uuid.UUID) (*model.Notification, error)
		List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]*model.Notification, error)
		CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
		MarkRead(ctx context.Context, userID, id uuid.UUID) error
		MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
		Delete(ctx context.Context, userID, id uuid.UUID) error
	}

	// UserDirectory is a read-only view of the externally owned users table.
	UserDirectory interface {
		GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
	}

	TeamDirectory interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Team, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string, retryAt *time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)

// Repositories groups the repositories bound to one connection or transaction.
type Repositories struct {
	AppRequests   AppRequestRepository
	Claims        ClaimRepository
	Notifications NotificationRepository
	Outbox        OutboxRepository
	Users         UserDirectory
	Teams         TeamDirectory
}

// Store hands out repositories and runs units of work. A non-nil error from
// fn rolls back everything written through the transactional repositories.
type Store interface {
	Repos() Repositories
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
	Ping(ctx context.Context) error
	Close() error
}
