package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/showcase-api/internal/model"
	"github.com/jwalitptl/showcase-api/internal/repository"
)

const appRequestColumns = `r.id, r.name, r.short_description, r.description, r.status,
	r.requester_id, r.assignee_id, r.assigned_email, r.app_id, r.team_id,
	r.created_at, r.updated_at`

type appRequestRepository struct {
	BaseRepository
}

func NewAppRequestRepository(base BaseRepository) repository.AppRequestRepository {
	return &appRequestRepository{base}
}

func (r *appRequestRepository) Create(ctx context.Context, req *model.AppRequest) error {
	query := `
		INSERT INTO app_requests (
			id, name, short_description, description, status, requester_id,
			assignee_id, assigned_email, app_id, team_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	req.Touch(time.Now().UTC())

	_, err := r.db.ExecContext(ctx, query,
		req.ID,
		req.Name,
		req.ShortDescription,
		req.Description,
		req.Status,
		req.RequesterID,
		req.AssigneeID,
		req.AssignedEmail,
		req.AppID,
		req.TeamID,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create app request: %w", err)
	}
	return nil
}

func (r *appRequestRepository) Get(ctx context.Context, id uuid.UUID) (*model.AppRequest, error) {
	query := `SELECT ` + appRequestColumns + ` FROM app_requests r WHERE r.id = $1`
	var req model.AppRequest
	if err := r.get(ctx, &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *appRequestRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.AppRequest, error) {
	query := `SELECT ` + appRequestColumns + ` FROM app_requests r WHERE r.id = $1 FOR UPDATE`
	var req model.AppRequest
	if err := r.get(ctx, &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *appRequestRepository) Update(ctx context.Context, req *model.AppRequest) error {
	query := `
		UPDATE app_requests SET
			name = $1,
			short_description = $2,
			description = $3,
			status = $4,
			assignee_id = $5,
			assigned_email = $6,
			app_id = $7,
			updated_at = $8
		WHERE id = $9
	`
	req.Touch(time.Now().UTC())
	return r.execOne(ctx, query,
		req.Name,
		req.ShortDescription,
		req.Description,
		req.Status,
		req.AssigneeID,
		req.AssignedEmail,
		req.AppID,
		req.UpdatedAt,
		req.ID,
	)
}

func (r *appRequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.execOne(ctx, `DELETE FROM app_requests WHERE id = $1`, id)
}

func (r *appRequestRepository) List(ctx context.Context, filters *model.AppRequestFilters) ([]*model.AppRequestSummary, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters != nil {
		if filters.Status != nil {
			conds = append(conds, "r.status = "+arg(*filters.Status))
		}
		if filters.TeamID != nil {
			conds = append(conds, "r.team_id = "+arg(*filters.TeamID))
		}
		if filters.RequesterID != nil {
			conds = append(conds, "r.requester_id = "+arg(*filters.RequesterID))
		}
		switch {
		case filters.AssigneeID != nil && filters.AssigneeEmail != "":
			conds = append(conds, fmt.Sprintf("(r.assignee_id = %s OR lower(r.assigned_email) = lower(%s))",
				arg(*filters.AssigneeID), arg(filters.AssigneeEmail)))
		case filters.AssigneeID != nil:
			conds = append(conds, "r.assignee_id = "+arg(*filters.AssigneeID))
		case filters.AssigneeEmail != "":
			conds = append(conds, "lower(r.assigned_email) = lower("+arg(filters.AssigneeEmail)+")")
		}
	}

	query := `
		SELECT ` + appRequestColumns + `, COALESCE(c.pending, 0) AS pending_claims_count
		FROM app_requests r
		LEFT JOIN (
			SELECT app_request_id, COUNT(*) AS pending
			FROM claim_requests
			WHERE status = 'pending'
			GROUP BY app_request_id
		) c ON c.app_request_id = r.id`
	if len(conds) > 0 {
		query += "\n\t\tWHERE " + strings.Join(conds, " AND ")
	}
	query += "\n\t\tORDER BY r.created_at DESC, r.id"

	var out []*model.AppRequestSummary
	if err := sqlx.SelectContext(ctx, r.db, &out, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list app requests: %w", err)
	}
	return out, nil
}
