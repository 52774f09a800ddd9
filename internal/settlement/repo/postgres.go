package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/radieske/cavs-spread-bets/internal/bets"
	"github.com/radieske/cavs-spread-bets/internal/games"
	gamesrepo "github.com/radieske/cavs-spread-bets/internal/games/repo"
	"github.com/radieske/cavs-spread-bets/internal/settlement"
	"github.com/radieske/cavs-spread-bets/internal/shared/db"
)

// Postgres implementa settlement.Repository sobre games, bets e users
type Postgres struct {
	DB *sql.DB
}

func NewPostgres(conn *sql.DB) *Postgres { return &Postgres{DB: conn} }

func (p *Postgres) WithinTx(ctx context.Context, fn func(settlement.Tx) error) error {
	return db.WithTx(ctx, p.DB, func(tx *sql.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

type pgTx struct {
	tx *sql.Tx
}

// LockGame usa SELECT ... FOR UPDATE: liquidações concorrentes do mesmo jogo serializam aqui
func (t *pgTx) LockGame(ctx context.Context, gameID string) (*games.Game, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT `+gamesrepo.GameColumns+` FROM games WHERE game_id = $1 FOR UPDATE`, gameID)
	g, err := gamesrepo.ScanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return g, err
}

func (t *pgTx) FinishGame(ctx context.Context, gameID string, home, away int) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE games
		SET status = 'finished', final_home_score = $2, final_away_score = $3, updated_at = NOW()
		WHERE game_id = $1 AND status = 'upcoming'`,
		gameID, home, away)
	if err != nil {
		return err
	}
	return expectOneRow(res, "game "+gameID)
}

func (t *pgTx) PendingBets(ctx context.Context, gameID string) ([]bets.Bet, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, user_id, game_id, selection, status, created_at, updated_at
		FROM bets
		WHERE game_id = $1 AND status = 'pending'
		FOR UPDATE`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []bets.Bet
	for rows.Next() {
		var (
			b       bets.Bet
			sel, st string
		)
		if err := rows.Scan(&b.ID, &b.UserID, &b.GameID, &sel, &st, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		b.Selection = bets.Selection(sel)
		b.Status = bets.Status(st)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (t *pgTx) ResolveBet(ctx context.Context, betID string, status bets.Status) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE bets SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`,
		betID, string(status))
	if err != nil {
		return err
	}
	return expectOneRow(res, "bet "+betID)
}

// AwardPoints incrementa no banco, sem ler-modificar-escrever
func (t *pgTx) AwardPoints(ctx context.Context, userID string, points int) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE users SET points = points + $2 WHERE id = $1`, userID, points)
	if err != nil {
		return err
	}
	return expectOneRow(res, "user "+userID)
}

func expectOneRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("%s: expected 1 row updated, got %d", what, n)
	}
	return nil
}
