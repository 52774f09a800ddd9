package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/radieske/cavs-spread-bets/internal/shared/apperr"
	"github.com/radieske/cavs-spread-bets/internal/users"
)

type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// FindByID retorna o usuário ou apperr.ErrNotFound
func (p *Postgres) FindByID(ctx context.Context, id string) (*users.User, error) {
	var u users.User
	err := p.db.QueryRowContext(ctx,
		`SELECT id, email, points, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.Points, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
