package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/rinkline/internal/domain/model"
	"github.com/okian/rinkline/internal/domain/rink"
	"github.com/okian/rinkline/pkg/logger"
	"github.com/okian/rinkline/pkg/metrics"
)

const defaultBusyTimeout = 5 * time.Second

const eventColumns = `event_key, game_id, event_type, period, team, zone,
	sequence_index, play_index, linked_event_key, puck_positions, players`

// SQLiteStore keeps the event pool in a SQLite database.
type SQLiteStore struct {
	db          *sql.DB
	busyTimeout time.Duration
	migrate     bool
}

// Compile-time check that SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// Open opens (or creates) the database at path and applies the schema.
func Open(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	s := &SQLiteStore{busyTimeout: defaultBusyTimeout, migrate: true}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One connection serialises writers and keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)
	s.db = db

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout = %d", s.busyTimeout.Milliseconds())); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure %s: %w", path, err)
	}
	if s.migrate {
		if err := MigrateUp(db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	logger.Get().Named("repository").Info(ctx, "event store opened", logger.String("path", path))
	return s, nil
}

// DB exposes the underlying handle for tooling.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save inserts or replaces ev.
func (s *SQLiteStore) Save(ctx context.Context, ev model.Event) error {
	start := time.Now()
	if ev.EventKey == "" || ev.GameID == "" || ev.Type == "" {
		metrics.RecordErrorByComponent("repository", "invalid_event")
		return fmt.Errorf("%w: key, game and type are required", ErrInvalidEvent)
	}

	puck, err := json.Marshal(nonNilPositions(ev.PuckPositions))
	if err != nil {
		return fmt.Errorf("%w: puck positions: %w", ErrInvalidEvent, err)
	}
	players, err := json.Marshal(nonNilPlayers(ev.Players))
	if err != nil {
		return fmt.Errorf("%w: players: %w", ErrInvalidEvent, err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO events (`+eventColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_key) DO UPDATE SET
			game_id = excluded.game_id,
			event_type = excluded.event_type,
			period = excluded.period,
			team = excluded.team,
			zone = excluded.zone,
			sequence_index = excluded.sequence_index,
			play_index = excluded.play_index,
			linked_event_key = excluded.linked_event_key,
			puck_positions = excluded.puck_positions,
			players = excluded.players`,
		ev.EventKey, ev.GameID, string(ev.Type), ev.Period, string(ev.Team), string(ev.Zone),
		nullIndex(ev.SequenceIndex), nullIndex(ev.PlayIndex), ev.LinkedEventKey,
		string(puck), string(players),
	)
	if err != nil {
		metrics.RecordRepositoryError("save")
		return fmt.Errorf("save %s: %w", ev.EventKey, err)
	}
	metrics.RecordEventStored(float64(time.Since(start).Microseconds()) / 1000)
	return nil
}

// Get returns the event stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key string) (model.Event, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	row := s.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE event_key = ?`, key)
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Event{}, ErrNotFound
	}
	if err != nil {
		metrics.RecordRepositoryError("get")
		return model.Event{}, fmt.Errorf("get %s: %w", key, err)
	}
	return ev, nil
}

// ListGame returns up to limit events of gameID in arrival order.
func (s *SQLiteStore) ListGame(ctx context.Context, gameID string, limit int) ([]model.Event, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if limit <= 0 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE game_id = ? ORDER BY seq LIMIT ?`, gameID, limit)
	if err != nil {
		metrics.RecordRepositoryError("list")
		return nil, fmt.Errorf("list game %s: %w", gameID, err)
	}
	defer rows.Close()

	events := make([]model.Event, 0, 64)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			metrics.RecordRepositoryError("list")
			return nil, fmt.Errorf("list game %s: %w", gameID, err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordRepositoryError("list")
		return nil, fmt.Errorf("list game %s: %w", gameID, err)
	}
	return events, nil
}

// Games returns the distinct game ids, sorted.
func (s *SQLiteStore) Games(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT game_id FROM events ORDER BY game_id`)
	if err != nil {
		metrics.RecordRepositoryError("games")
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var games []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list games: %w", err)
		}
		games = append(games, id)
	}
	return games, rows.Err()
}

// Count returns the number of stored events.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		metrics.RecordRepositoryError("count")
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(sc scanner) (model.Event, error) {
	var (
		ev            model.Event
		typ, team     string
		zone          string
		seqIdx, play  sql.NullInt64
		puck, players string
	)
	if err := sc.Scan(&ev.EventKey, &ev.GameID, &typ, &ev.Period, &team, &zone,
		&seqIdx, &play, &ev.LinkedEventKey, &puck, &players); err != nil {
		return model.Event{}, err
	}
	ev.Type = model.EventType(typ)
	ev.Team = rink.Team(team)
	ev.Zone = rink.Zone(zone)
	if seqIdx.Valid {
		ev.SequenceIndex = model.Index(int(seqIdx.Int64))
	}
	if play.Valid {
		ev.PlayIndex = model.Index(int(play.Int64))
	}
	if err := json.Unmarshal([]byte(puck), &ev.PuckPositions); err != nil {
		return model.Event{}, fmt.Errorf("decode puck positions: %w", err)
	}
	if err := json.Unmarshal([]byte(players), &ev.Players); err != nil {
		return model.Event{}, fmt.Errorf("decode players: %w", err)
	}
	return ev, nil
}

func nullIndex(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nonNilPositions(p []rink.RinkPosition) []rink.RinkPosition {
	if p == nil {
		return []rink.RinkPosition{}
	}
	return p
}

func nonNilPlayers(p []model.Player) []model.Player {
	if p == nil {
		return []model.Player{}
	}
	return p
}
