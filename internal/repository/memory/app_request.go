package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/showcase-api/internal/model"
	"github.com/jwalitptl/showcase-api/internal/repository"
)

type appRequestRepository struct{ run runner }

func (r *appRequestRepository) Create(ctx context.Context, req *model.AppRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	return r.run(func(st *state) error {
		req.Touch(st.now())
		st.requests[req.ID] = *req
		return nil
	})
}

func (r *appRequestRepository) Get(ctx context.Context, id uuid.UUID) (*model.AppRequest, error) {
	var out *model.AppRequest
	err := r.run(func(st *state) error {
		req, ok := st.requests[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &req
		return nil
	})
	return out, err
}

// GetForUpdate needs no row lock: units of work already hold the store lock.
func (r *appRequestRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.AppRequest, error) {
	return r.Get(ctx, id)
}

func (r *appRequestRepository) Update(ctx context.Context, req *model.AppRequest) error {
	return r.run(func(st *state) error {
		if _, ok := st.requests[req.ID]; !ok {
			return repository.ErrNotFound
		}
		req.Touch(st.now())
		st.requests[req.ID] = *req
		return nil
	})
}

func (r *appRequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.run(func(st *state) error {
		if _, ok := st.requests[id]; !ok {
			return repository.ErrNotFound
		}
		delete(st.requests, id)
		return nil
	})
}

func matches(req *model.AppRequest, f *model.AppRequestFilters) bool {
	if f == nil {
		return true
	}
	if f.Status != nil && req.Status != *f.Status {
		return false
	}
	if f.TeamID != nil && (req.TeamID == nil || *req.TeamID != *f.TeamID) {
		return false
	}
	if f.RequesterID != nil && req.RequesterID != *f.RequesterID {
		return false
	}
	if f.AssigneeID != nil || f.AssigneeEmail != "" {
		byID := f.AssigneeID != nil && req.AssigneeID != nil && *req.AssigneeID == *f.AssigneeID
		byEmail := f.AssigneeEmail != "" && req.AssignedEmail != nil && strings.EqualFold(*req.AssignedEmail, f.AssigneeEmail)
		if !byID && !byEmail {
			return false
		}
	}
	return true
}

func (r *appRequestRepository) List(ctx context.Context, filters *model.AppRequestFilters) ([]*model.AppRequestSummary, error) {
	var out []*model.AppRequestSummary
	err := r.run(func(st *state) error {
		pending := make(map[uuid.UUID]int)
		for _, c := range st.claims {
			if c.Status == model.ClaimStatusPending {
				pending[c.AppRequestID]++
			}
		}
		for _, req := range st.requests {
			req := req
			if !matches(&req, filters) {
				continue
			}
			out = append(out, &model.AppRequestSummary{AppRequest: req, PendingClaimsCount: pending[req.ID]})
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
