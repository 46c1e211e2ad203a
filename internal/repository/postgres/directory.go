package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/showcase-api/internal/model"
	"github.com/jwalitptl/showcase-api/internal/repository"
)

type userDirectory struct {
	BaseRepository
}

func NewUserDirectory(base BaseRepository) repository.UserDirectory {
	return &userDirectory{base}
}

func (r *userDirectory) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.get(ctx, &user, `SELECT id, username, email, full_name FROM users WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userDirectory) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	query := `SELECT id, username, email, full_name FROM users WHERE lower(email) = lower($1)`
	if err := r.get(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

type teamDirectory struct {
	BaseRepository
}

func NewTeamDirectory(base BaseRepository) repository.TeamDirectory {
	return &teamDirectory{base}
}

func (r *teamDirectory) Get(ctx context.Context, id uuid.UUID) (*model.Team, error) {
	var team model.Team
	if err := r.get(ctx, &team, `SELECT id, name FROM teams WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &team, nil
}
