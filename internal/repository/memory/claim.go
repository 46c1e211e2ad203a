package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jwalitptl/showcase-api/internal/model"
	"github.com/jwalitptl/showcase-api/internal/repository"
)

type claimRepository struct{ run runner }

func (r *claimRepository) Create(ctx context.Context, claim *model.ClaimRequest) error {
	if claim.ID == uuid.Nil {
		claim.ID = uuid.New()
	}
	return r.run(func(st *state) error {
		claim.Touch(st.now())
		st.claims[claim.ID] = *claim
		return nil
	})
}

func (r *claimRepository) Get(ctx context.Context, id uuid.UUID) (*model.ClaimRequest, error) {
	var out *model.ClaimRequest
	err := r.run(func(st *state) error {
		c, ok := st.claims[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &c
		return nil
	})
	return out, err
}

func (r *claimRepository) ListByRequest(ctx context.Context, requestID uuid.UUID, status *model.ClaimStatus) ([]*model.ClaimRequest, error) {
	var out []*model.ClaimRequest
	err := r.run(func(st *state) error {
		for _, c := range st.claims {
			c := c
			if c.AppRequestID != requestID || (status != nil && c.Status != *status) {
				continue
			}
			out = append(out, &c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, err
}

func (r *claimRepository) HasPending(ctx context.Context, requestID, claimerID uuid.UUID) (bool, error) {
	var found bool
	err := r.run(func(st *state) error {
		for _, c := range st.claims {
			if c.AppRequestID == requestID && c.ClaimerID == claimerID && c.Status == model.ClaimStatusPending {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

func (r *claimRepository) CountByStatus(ctx context.Context, requestID uuid.UUID, status model.ClaimStatus) (int, error) {
	var n int
	err := r.run(func(st *state) error {
		for _, c := range st.claims {
			if c.AppRequestID == requestID && c.Status == status {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *claimRepository) UpdateStatus(ctx context.Context, claim *model.ClaimRequest) error {
	return r.run(func(st *state) error {
		existing, ok := st.claims[claim.ID]
		if !ok {
			return repository.ErrNotFound
		}
		claim.Touch(st.now())
		existing.Status = claim.Status
		existing.UpdatedAt = claim.UpdatedAt
		st.claims[claim.ID] = existing
		return nil
	})
}

func (r *claimRepository) DeleteByRequest(ctx context.Context, requestID uuid.UUID) (int64, error) {
	var n int64
	err := r.run(func(st *state) error {
		for id, c := range st.claims {
			if c.AppRequestID == requestID {
				delete(st.claims, id)
				n++
			}
		}
		return nil
	})
	return n, err
}
