// Package manual serves admin-entered games from Postgres through the same
// adapter contract as the feed-backed leagues. Scores are updated by hand,
// so the league is score-only: the watcher diffs aggregate scores.
package manual

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matchwatch/matchwatch/internal/league"
)

const leagueID = "manual"

// Adapter serves manually entered games.
type Adapter struct {
	store  *Store
	logger *slog.Logger
}

// New creates a manual-games adapter on top of a Store.
func New(store *Store, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{store: store, logger: logger}
}

func (a *Adapter) ID() string             { return leagueID }
func (a *Adapter) HasScoringDetail() bool { return false }

// ListAll returns every manually entered game.
func (a *Adapter) ListAll(ctx context.Context) ([]league.Event, error) {
	games, err := a.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return a.toEvents(ctx, games)
}

// ListActive returns games marked live plus recently finished ones.
func (a *Adapter) ListActive(ctx context.Context) ([]league.Event, error) {
	games, err := a.store.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return a.toEvents(ctx, games)
}

// FetchDetails always reports absent: manual games carry no goal list.
func (a *Adapter) FetchDetails(ctx context.Context, eventID string) (*league.EventDetails, error) {
	return nil, nil
}

// DisplayInfo summarizes a game for reminder messages.
func (a *Adapter) DisplayInfo(e league.Event) league.DisplayInfo {
	return league.DisplayInfo{
		Title:        fmt.Sprintf("%s – %s", e.Home.Name, e.Away.Name),
		Participants: []string{e.Home.Name, e.Away.Name},
		Venue:        e.Venue,
		StartTime:    e.StartTime,
	}
}

func (a *Adapter) toEvents(ctx context.Context, games []Game) ([]league.Event, error) {
	events := make([]league.Event, 0, len(games))
	for _, g := range games {
		home, err := a.store.TeamByID(ctx, g.HomeTeamID)
		if err != nil {
			a.logger.Warn("Unknown home team for manual game", "game", g.ID, "team", g.HomeTeamID)
			continue
		}
		away, err := a.store.TeamByID(ctx, g.AwayTeamID)
		if err != nil {
			a.logger.Warn("Unknown away team for manual game", "game", g.ID, "team", g.AwayTeamID)
			continue
		}
		events = append(events, league.Event{
			ID:        "manual-" + strconv.Itoa(g.ID),
			LeagueID:  leagueID,
			Round:     g.Round,
			Home:      home,
			Away:      away,
			Venue:     g.Venue,
			StartTime: g.StartTime,
			State:     league.State(g.Status),
			HomeScore: g.HomeScore,
			AwayScore: g.AwayScore,
		})
	}
	return events, nil
}

// --------------------------------------------------------------------------
// Store — CRUD over manual_games and the teams reference table
// --------------------------------------------------------------------------

// Game is a manually entered game row.
type Game struct {
	ID         int       `json:"id"`
	Round      string    `json:"round"`
	HomeTeamID string    `json:"home_team_id"`
	AwayTeamID string    `json:"away_team_id"`
	Venue      string    `json:"venue"`
	StartTime  time.Time `json:"start_time"`
	Status     string    `json:"status"` // scheduled|live|finished|postponed
	HomeScore  int       `json:"home_score"`
	AwayScore  int       `json:"away_score"`
}

// ErrNotFound is returned when a game or team does not exist.
var ErrNotFound = errors.New("not found")

// Store provides manual game CRUD used by both the adapter and the admin API.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store over a connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// List returns all manual games ordered by start time.
func (s *Store) List(ctx context.Context) ([]Game, error) {
	rows, err := s.pool.Query(ctx, "manual_game_list")
	if err != nil {
		return nil, fmt.Errorf("list manual games: %w", err)
	}
	defer rows.Close()
	return scanGames(rows)
}

// ListActive returns games that are live or finished within the last two hours.
func (s *Store) ListActive(ctx context.Context) ([]Game, error) {
	rows, err := s.pool.Query(ctx, "manual_game_active")
	if err != nil {
		return nil, fmt.Errorf("list active manual games: %w", err)
	}
	defer rows.Close()
	return scanGames(rows)
}

// Get returns one game by id.
func (s *Store) Get(ctx context.Context, id int) (Game, error) {
	g, err := scanGame(s.pool.QueryRow(ctx, "manual_game_by_id", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Game{}, ErrNotFound
	}
	if err != nil {
		return Game{}, fmt.Errorf("get manual game %d: %w", id, err)
	}
	return g, nil
}

// Create inserts a game and returns its id.
func (s *Store) Create(ctx context.Context, g Game) (int, error) {
	var id int
	err := s.pool.QueryRow(ctx, "manual_game_insert",
		g.Round, g.HomeTeamID, g.AwayTeamID, g.Venue, g.StartTime,
		g.Status, g.HomeScore, g.AwayScore,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert manual game: %w", err)
	}
	return id, nil
}

// Update replaces a game's fields.
func (s *Store) Update(ctx context.Context, g Game) error {
	tag, err := s.pool.Exec(ctx, "manual_game_update",
		g.ID, g.Round, g.HomeTeamID, g.AwayTeamID, g.Venue, g.StartTime,
		g.Status, g.HomeScore, g.AwayScore,
	)
	if err != nil {
		return fmt.Errorf("update manual game %d: %w", g.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a game.
func (s *Store) Delete(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx, "manual_game_delete", id)
	if err != nil {
		return fmt.Errorf("delete manual game %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TeamByID resolves a team from the reference table.
func (s *Store) TeamByID(ctx context.Context, id string) (league.Team, error) {
	var t league.Team
	err := s.pool.QueryRow(ctx, "team_by_id", id).Scan(&t.ID, &t.Name, &t.Code)
	if errors.Is(err, pgx.ErrNoRows) {
		return league.Team{}, ErrNotFound
	}
	if err != nil {
		return league.Team{}, fmt.Errorf("get team %s: %w", id, err)
	}
	return t, nil
}

// Teams returns the full team reference list.
func (s *Store) Teams(ctx context.Context) ([]league.Team, error) {
	rows, err := s.pool.Query(ctx, "team_list")
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	var teams []league.Team
	for rows.Next() {
		var t league.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.Code); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func scanGames(rows pgx.Rows) ([]Game, error) {
	var games []Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

func scanGame(row pgx.Row) (Game, error) {
	var g Game
	err := row.Scan(&g.ID, &g.Round, &g.HomeTeamID, &g.AwayTeamID,
		&g.Venue, &g.StartTime, &g.Status, &g.HomeScore, &g.AwayScore)
	if err != nil {
		return Game{}, err
	}
	return g, nil
}
