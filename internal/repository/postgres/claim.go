package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/showcase-api/internal/model"
	"github.com/jwalitptl/showcase-api/internal/repository"
)

const claimColumns = `id, app_request_id, claimer_id, message, status, created_at, updated_at`

type claimRepository struct {
	BaseRepository
}

func NewClaimRepository(base BaseRepository) repository.ClaimRepository {
	return &claimRepository{base}
}

func (r *claimRepository) Create(ctx context.Context, claim *model.ClaimRequest) error {
	query := `
		INSERT INTO claim_requests (
			id, app_request_id, claimer_id, message, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if claim.ID == uuid.Nil {
		claim.ID = uuid.New()
	}
	claim.Touch(time.Now().UTC())

	_, err := r.db.ExecContext(ctx, query,
		claim.ID,
		claim.AppRequestID,
		claim.ClaimerID,
		claim.Message,
		claim.Status,
		claim.CreatedAt,
		claim.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create claim: %w", err)
	}
	return nil
}

func (r *claimRepository) Get(ctx context.Context, id uuid.UUID) (*model.ClaimRequest, error) {
	var claim model.ClaimRequest
	if err := r.get(ctx, &claim, `SELECT `+claimColumns+` FROM claim_requests WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &claim, nil
}

func (r *claimRepository) ListByRequest(ctx context.Context, requestID uuid.UUID, status *model.ClaimStatus) ([]*model.ClaimRequest, error) {
	query := `SELECT ` + claimColumns + ` FROM claim_requests WHERE app_request_id = $1`
	args := []interface{}{requestID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC, id`

	var claims []*model.ClaimRequest
	if err := sqlx.SelectContext(ctx, r.db, &claims, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	return claims, nil
}

func (r *claimRepository) HasPending(ctx context.Context, requestID, claimerID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM claim_requests
			WHERE app_request_id = $1 AND claimer_id = $2 AND status = 'pending'
		)
	`
	var exists bool
	if err := sqlx.GetContext(ctx, r.db, &exists, query, requestID, claimerID); err != nil {
		return false, fmt.Errorf("failed to check pending claim: %w", err)
	}
	return exists, nil
}

func (r *claimRepository) CountByStatus(ctx context.Context, requestID uuid.UUID, status model.ClaimStatus) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n,
		`SELECT COUNT(*) FROM claim_requests WHERE app_request_id = $1 AND status = $2`, requestID, status)
	if err != nil {
		return 0, fmt.Errorf("failed to count claims: %w", err)
	}
	return n, nil
}

func (r *claimRepository) UpdateStatus(ctx context.Context, claim *model.ClaimRequest) error {
	claim.Touch(time.Now().UTC())
	return r.execOne(ctx,
		`UPDATE claim_requests SET status = $1, updated_at = $2 WHERE id = $3`,
		claim.Status, claim.UpdatedAt, claim.ID)
}

func (r *claimRepository) DeleteByRequest(ctx context.Context, requestID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM claim_requests WHERE app_request_id = $1`, requestID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete claims: %w", err)
	}
	return res.RowsAffected()
}
