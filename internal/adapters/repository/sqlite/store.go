// Package sqlite provides a SQLite-backed repository.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/okian/squadup/internal/adapters/repository"
	"github.com/okian/squadup/internal/adapters/repository/sqlite/migrations"
	"github.com/okian/squadup/internal/domain/model"
)

// Store persists players, matches and ledgers in SQLite.
type Store struct {
	sqlDB *sql.DB
}

var _ repository.Repository = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite store at path and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// CreatePlayer inserts one player.
func (s *Store) CreatePlayer(ctx context.Context, p model.Player) (err error) {
	defer repository.Track("create_player", time.Now(), &err)
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO players (id, squad_id, name, position, base_score, score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.SquadID, p.Name, string(p.Position), p.BaseScore, p.Score, toMillis(p.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("player %s: %w", p.ID, repository.ErrAlreadyExists)
		}
		return fmt.Errorf("create player: %w", err)
	}
	return nil
}

const playerColumns = `id, squad_id, name, position, base_score, score, created_at`

func scanPlayer(row interface{ Scan(...any) error }) (model.Player, error) {
	var (
		p         model.Player
		position  string
		createdAt int64
	)
	if err := row.Scan(&p.ID, &p.SquadID, &p.Name, &position, &p.BaseScore, &p.Score, &createdAt); err != nil {
		return model.Player{}, err
	}
	p.Position = model.Position(position)
	p.CreatedAt = fromMillis(createdAt)
	return p, nil
}

// Player returns one player by id.
func (s *Store) Player(ctx context.Context, id string) (model.Player, error) {
	if err := ctx.Err(); err != nil {
		return model.Player{}, err
	}
	p, err := scanPlayer(s.sqlDB.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Player{}, fmt.Errorf("player %s: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return model.Player{}, fmt.Errorf("get player: %w", err)
	}
	return p, nil
}

// Players lists the players of a squad, or all players for an empty id.
func (s *Store) Players(ctx context.Context, squadID string) (_ []model.Player, err error) {
	defer repository.Track("players", time.Now(), &err)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+playerColumns+` FROM players
		 WHERE ? = '' OR squad_id = ?
		 ORDER BY created_at, id`,
		squadID, squadID,
	)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	out := make([]model.Player, 0)
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}
	return out, nil
}

// Match returns one match by id.
func (s *Store) Match(ctx context.Context, id string) (model.Match, error) {
	ms, err := s.queryMatches(ctx, `m.id = ?`, id)
	if err != nil {
		return model.Match{}, err
	}
	if len(ms) == 0 {
		return model.Match{}, fmt.Errorf("match %s: %w", id, repository.ErrNotFound)
	}
	return ms[0], nil
}

// Matches lists the matches of a squad, or all matches for an empty id.
func (s *Store) Matches(ctx context.Context, squadID string) (_ []model.Match, err error) {
	defer repository.Track("matches", time.Now(), &err)
	return s.queryMatches(ctx, `(? = '' OR m.squad_id = ?)`, squadID, squadID)
}

// PlayerMatches lists the matches one player took part in.
func (s *Store) PlayerMatches(ctx context.Context, playerID string) (_ []model.Match, err error) {
	defer repository.Track("player_matches", time.Now(), &err)
	return s.queryMatches(ctx, `m.id IN (SELECT match_id FROM match_players WHERE player_id = ?)`, playerID)
}

// queryMatches loads matches with their rosters in one join, ordered by
// creation time, then id, then side and roster position.
func (s *Store) queryMatches(ctx context.Context, where string, args ...any) ([]model.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT m.id, m.squad_id, m.created_at, m.team_a_color, m.team_b_color,
		        m.team_a_score, m.team_b_score, mp.player_id, mp.side
		 FROM matches m
		 LEFT JOIN match_players mp ON mp.match_id = m.id
		 WHERE `+where+`
		 ORDER BY m.created_at, m.id, mp.side, mp.position`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer rows.Close()

	out := make([]model.Match, 0)
	for rows.Next() {
		var (
			m              model.Match
			createdAt      int64
			scoreA, scoreB sql.NullInt64
			playerID       sql.NullString
			side           sql.NullInt64
		)
		if err := rows.Scan(&m.ID, &m.SquadID, &createdAt, &m.TeamA.Color, &m.TeamB.Color,
			&scoreA, &scoreB, &playerID, &side); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		if len(out) == 0 || out[len(out)-1].ID != m.ID {
			m.CreatedAt = fromMillis(createdAt)
			m.TeamA.PlayerIDs = []string{}
			m.TeamB.PlayerIDs = []string{}
			if scoreA.Valid {
				m.TeamA.Score = model.IntPtr(int(scoreA.Int64))
			}
			if scoreB.Valid {
				m.TeamB.Score = model.IntPtr(int(scoreB.Int64))
			}
			out = append(out, m)
		}
		if !playerID.Valid {
			continue
		}
		cur := &out[len(out)-1]
		if model.Side(side.Int64) == model.SideB {
			cur.TeamB.PlayerIDs = append(cur.TeamB.PlayerIDs, playerID.String)
		} else {
			cur.TeamA.PlayerIDs = append(cur.TeamA.PlayerIDs, playerID.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	return out, nil
}

// Entries returns the ledger of one player in timeline order.
func (s *Store) Entries(ctx context.Context, playerID string) (_ []model.LedgerEntry, err error) {
	defer repository.Track("entries", time.Now(), &err)
	if _, err := s.Player(ctx, playerID); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT player_id, match_id, match_created_at, created_at, previous_score, new_score, delta
		 FROM ledger_entries
		 WHERE player_id = ?
		 ORDER BY match_created_at, match_id`,
		playerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	out := make([]model.LedgerEntry, 0)
	for rows.Next() {
		var (
			e                  model.LedgerEntry
			matchAt, createdAt int64
		)
		if err := rows.Scan(&e.PlayerID, &e.MatchID, &matchAt, &createdAt, &e.PreviousScore, &e.NewScore, &e.Delta); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		e.MatchCreatedAt = fromMillis(matchAt)
		e.CreatedAt = fromMillis(createdAt)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger: %w", err)
	}
	return out, nil
}

// Apply writes a change in a single transaction.
func (s *Store) Apply(ctx context.Context, ch repository.Change) (err error) {
	defer repository.Track("apply", time.Now(), &err)
	if err := ctx.Err(); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin apply: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if ch.Match != nil {
		if err = upsertMatch(ctx, tx, *ch.Match); err != nil {
			return err
		}
	}
	if ch.DeleteMatch != "" {
		if err = deleteMatch(ctx, tx, ch.DeleteMatch); err != nil {
			return err
		}
	}
	for _, u := range ch.Ledger {
		if err = replaceLedger(ctx, tx, u); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit apply: %w", err)
	}
	return nil
}

func upsertMatch(ctx context.Context, tx *sql.Tx, m model.Match) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO matches (id, squad_id, created_at, team_a_color, team_b_color, team_a_score, team_b_score)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   team_a_color = excluded.team_a_color,
		   team_b_color = excluded.team_b_color,
		   team_a_score = excluded.team_a_score,
		   team_b_score = excluded.team_b_score`,
		m.ID, m.SquadID, toMillis(m.CreatedAt), m.TeamA.Color, m.TeamB.Color,
		nullInt(m.TeamA.Score), nullInt(m.TeamB.Score),
	)
	if err != nil {
		return fmt.Errorf("upsert match: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM match_players WHERE match_id = ?`, m.ID); err != nil {
		return fmt.Errorf("clear roster: %w", err)
	}
	insert := func(side model.Side, ids []string) error {
		for i, id := range ids {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO match_players (match_id, player_id, side, position) VALUES (?, ?, ?, ?)`,
				m.ID, id, int(side), i,
			); err != nil {
				if isForeignKeyViolation(err) {
					return fmt.Errorf("player %s: %w", id, repository.ErrNotFound)
				}
				return fmt.Errorf("insert roster: %w", err)
			}
		}
		return nil
	}
	if err := insert(model.SideA, m.TeamA.PlayerIDs); err != nil {
		return err
	}
	return insert(model.SideB, m.TeamB.PlayerIDs)
}

func deleteMatch(ctx context.Context, tx *sql.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM ledger_entries WHERE match_id = ?`, id); err != nil {
		return fmt.Errorf("delete match ledger: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM match_players WHERE match_id = ?`, id); err != nil {
		return fmt.Errorf("delete match roster: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM matches WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete match: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("match %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

func replaceLedger(ctx context.Context, tx *sql.Tx, u repository.LedgerUpdate) error {
	res, err := tx.ExecContext(ctx, `UPDATE players SET score = ? WHERE id = ?`, u.Score, u.PlayerID)
	if err != nil {
		return fmt.Errorf("update score: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("player %s: %w", u.PlayerID, repository.ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM ledger_entries WHERE player_id = ?`, u.PlayerID); err != nil {
		return fmt.Errorf("clear ledger: %w", err)
	}
	for _, e := range u.Entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO ledger_entries
			   (player_id, match_id, match_created_at, created_at, previous_score, new_score, delta)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			u.PlayerID, e.MatchID, toMillis(e.MatchCreatedAt), toMillis(e.CreatedAt),
			e.PreviousScore, e.NewScore, e.Delta,
		); err != nil {
			return fmt.Errorf("insert ledger entry %s/%s: %w", u.PlayerID, e.MatchID, err)
		}
	}
	return nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func sqliteCode(err error) (int, bool) {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code(), true
	}
	return 0, false
}

func isUniqueViolation(err error) bool {
	if code, ok := sqliteCode(err); ok {
		switch code {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func isForeignKeyViolation(err error) bool {
	if code, ok := sqliteCode(err); ok && code == sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint failed")
}
