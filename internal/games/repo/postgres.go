package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/radieske/cavs-spread-bets/internal/games"
)

// GameColumns é a projeção padrão da tabela games, na ordem lida por ScanGame
const GameColumns = `game_id, home_team, away_team, start_time, spread, status,
		final_home_score, final_away_score, last_odds_fetched_at, created_at, updated_at`

// Postgres implementa games.Repository sobre a tabela games
type Postgres struct {
	DB *sql.DB
}

// NewPostgres retorna uma instância do repositório de jogos
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{DB: db}
}

type RowScanner interface {
	Scan(dest ...any) error
}

// ScanGame lê uma linha de games (Row ou Rows) no modelo do domínio
func ScanGame(row RowScanner) (*games.Game, error) {
	var (
		g         games.Game
		status    string
		home      sql.NullInt64
		away      sql.NullInt64
		fetchedAt sql.NullTime
	)
	err := row.Scan(&g.GameID, &g.HomeTeam, &g.AwayTeam, &g.StartTime, &g.Spread, &status,
		&home, &away, &fetchedAt, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	g.Status = games.Status(status)
	if home.Valid {
		v := int(home.Int64)
		g.FinalHomeScore = &v
	}
	if away.Valid {
		v := int(away.Int64)
		g.FinalAwayScore = &v
	}
	if fetchedAt.Valid {
		t := fetchedAt.Time
		g.LastOddsFetchedAt = &t
	}
	return &g, nil
}

// queryOne executa uma consulta de linha única; sem linha => (nil, nil)
func (r *Postgres) queryOne(ctx context.Context, q string, args ...any) (*games.Game, error) {
	g, err := ScanGame(r.DB.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return g, err
}

func (r *Postgres) queryMany(ctx context.Context, q string, args ...any) ([]games.Game, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []games.Game
	for rows.Next() {
		g, err := ScanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

func (r *Postgres) FindNextUpcoming(ctx context.Context, now time.Time) (*games.Game, error) {
	q := `SELECT ` + GameColumns + `
		FROM games
		WHERE status = 'upcoming' AND start_time >= $1
		ORDER BY start_time ASC
		LIMIT 1`
	return r.queryOne(ctx, q, now)
}

func (r *Postgres) FindByGameID(ctx context.Context, gameID string) (*games.Game, error) {
	q := `SELECT ` + GameColumns + ` FROM games WHERE game_id = $1`
	return r.queryOne(ctx, q, gameID)
}

// Upsert insere ou atualiza o jogo por game_id.
// O WHERE do ON CONFLICT impede que um jogo finished volte a upcoming;
// nesse caso nenhuma linha retorna e devolvemos o registro atual.
func (r *Postgres) Upsert(ctx context.Context, p games.ParsedGame, fetchedAt time.Time) (*games.Game, error) {
	q := `
		INSERT INTO games
		  (game_id, home_team, away_team, start_time, spread, status, last_odds_fetched_at, created_at, updated_at)
		VALUES
		  ($1,$2,$3,$4,$5,'upcoming',$6,$6,$6)
		ON CONFLICT (game_id) DO UPDATE SET
		  home_team            = EXCLUDED.home_team,
		  away_team            = EXCLUDED.away_team,
		  start_time           = EXCLUDED.start_time,
		  spread               = EXCLUDED.spread,
		  status               = 'upcoming',
		  last_odds_fetched_at = EXCLUDED.last_odds_fetched_at,
		  updated_at           = EXCLUDED.updated_at
		WHERE games.status = 'upcoming'
		RETURNING ` + GameColumns

	g, err := r.queryOne(ctx, q, p.GameID, p.HomeTeam, p.AwayTeam, p.StartTime, p.Spread, fetchedAt)
	if err != nil {
		return nil, err
	}
	if g != nil {
		return g, nil
	}
	return r.FindByGameID(ctx, p.GameID)
}

func (r *Postgres) FindUnsettled(ctx context.Context, now time.Time) ([]games.Game, error) {
	q := `SELECT ` + GameColumns + `
		FROM games
		WHERE status = 'upcoming' AND start_time < $1
		ORDER BY start_time ASC`
	return r.queryMany(ctx, q, now)
}

func (r *Postgres) FindLastUpcoming(ctx context.Context) (*games.Game, error) {
	q := `SELECT ` + GameColumns + `
		FROM games
		WHERE status = 'upcoming'
		ORDER BY start_time DESC
		LIMIT 1`
	return r.queryOne(ctx, q)
}
