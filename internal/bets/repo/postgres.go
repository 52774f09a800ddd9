package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/radieske/cavs-spread-bets/internal/bets"
	"github.com/radieske/cavs-spread-bets/internal/games"
	"github.com/radieske/cavs-spread-bets/internal/shared/apperr"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// Postgres implementa operações de persistência de apostas em banco Postgres
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do repositório de apostas
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// Create insere a aposta com status pending.
// A unicidade (user_id, game_id) fica a cargo do índice do banco.
func (p *Postgres) Create(ctx context.Context, b *bets.Bet) error {
	id := uuid.NewString()
	var createdAt, updatedAt time.Time
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO bets (id, user_id, game_id, selection, status)
		VALUES ($1,$2,$3,$4,'pending')
		RETURNING created_at, updated_at`,
		id, b.UserID, b.GameID, string(b.Selection),
	).Scan(&createdAt, &updatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch string(pqErr.Code) {
			case pqUniqueViolation:
				return fmt.Errorf("%w: user already has a bet on game %s", apperr.ErrConflict, b.GameID)
			case pqForeignKeyViolation:
				return fmt.Errorf("user %s: %w", b.UserID, apperr.ErrNotFound)
			}
		}
		return err
	}

	b.ID = id
	b.Status = bets.StatusPending
	b.CreatedAt = createdAt
	b.UpdatedAt = updatedAt
	return nil
}

// ListByUser retorna as apostas do usuário com o resumo do jogo, mais recentes primeiro
func (p *Postgres) ListByUser(ctx context.Context, userID string) ([]bets.BetWithGame, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT b.id, b.user_id, b.game_id, b.selection, b.status, b.created_at, b.updated_at,
		       g.home_team, g.away_team, g.start_time, g.spread, g.status,
		       g.final_home_score, g.final_away_score
		FROM bets b
		JOIN games g ON g.game_id = b.game_id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]bets.BetWithGame, 0)
	for rows.Next() {
		var (
			bg         bets.BetWithGame
			sel, st    string
			gameStatus string
			home, away sql.NullInt64
		)
		if err := rows.Scan(&bg.ID, &bg.UserID, &bg.GameID, &sel, &st, &bg.CreatedAt, &bg.UpdatedAt,
			&bg.Game.HomeTeam, &bg.Game.AwayTeam, &bg.Game.StartTime, &bg.Game.Spread, &gameStatus,
			&home, &away); err != nil {
			return nil, err
		}
		bg.Selection = bets.Selection(sel)
		bg.Status = bets.Status(st)
		bg.Game.Status = games.Status(gameStatus)
		if home.Valid {
			v := int(home.Int64)
			bg.Game.FinalHomeScore = &v
		}
		if away.Valid {
			v := int(away.Int64)
			bg.Game.FinalAwayScore = &v
		}
		out = append(out, bg)
	}
	return out, rows.Err()
}
