// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking. Postgres holds the teams/nations
// reference data and the manually entered games.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matchwatch/matchwatch/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers all statements the admin API and the
// manual league adapter use. Prepared statements eliminate parse overhead on
// every request.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Teams / nations reference data
		"team_by_id": "SELECT id, name, code FROM teams WHERE id = $1",
		"team_list":  "SELECT id, name, code FROM teams ORDER BY name",

		// Manual games
		"manual_game_by_id": `SELECT id, round, home_team_id, away_team_id, venue, start_time, status, home_score, away_score
			FROM manual_games WHERE id = $1`,
		"manual_game_list": `SELECT id, round, home_team_id, away_team_id, venue, start_time, status, home_score, away_score
			FROM manual_games ORDER BY start_time`,
		"manual_game_active": `SELECT id, round, home_team_id, away_team_id, venue, start_time, status, home_score, away_score
			FROM manual_games
			WHERE status = 'live' OR (status = 'finished' AND start_time > NOW() - INTERVAL '2 hours')
			ORDER BY start_time`,
		"manual_game_insert": `INSERT INTO manual_games
			(round, home_team_id, away_team_id, venue, start_time, status, home_score, away_score)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		"manual_game_update": `UPDATE manual_games SET
			round = $2, home_team_id = $3, away_team_id = $4, venue = $5,
			start_time = $6, status = $7, home_score = $8, away_score = $9
			WHERE id = $1`,
		"manual_game_delete": "DELETE FROM manual_games WHERE id = $1",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
