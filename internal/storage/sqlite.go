// Package storage provides SQLite-based persistence for save slots, scores
// and achievement progress.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/skybird/internal/cloudsave"
	"github.com/vovakirdan/skybird/internal/savecodec"
)

// Store manages one SQLite database. The local progression file and the
// cloud stand-in are separate Stores.
type Store struct {
	db *sql.DB
}

// ScoreEntry represents a single posted score.
type ScoreEntry struct {
	ID            int64
	LeaderboardID string
	Score         int
	CreatedAt     time.Time
}

// AchievementEntry is the reported progress of one achievement.
type AchievementEntry struct {
	ID        string
	Percent   float64
	UpdatedAt time.Time
}

// Unlocked reports whether the achievement is complete.
func (a AchievementEntry) Unlocked() bool {
	return a.Percent >= 100
}

// LeaderboardStats contains aggregated statistics for a leaderboard.
type LeaderboardStats struct {
	LeaderboardID string
	Posts         int
	HighScore     int
	AvgScore      float64
	LastPosted    time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	// One connection keeps slot transactions serialized.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS save_slots (
			slot TEXT PRIMARY KEY,
			revision TEXT NOT NULL,
			data BLOB NOT NULL,
			total_play_ms INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS scores (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			leaderboard_id TEXT NOT NULL,
			score INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_scores_leaderboard ON scores(leaderboard_id);
		CREATE INDEX IF NOT EXISTS idx_scores_top ON scores(leaderboard_id, score DESC);

		CREATE TABLE IF NOT EXISTS achievements (
			achievement_id TEXT PRIMARY KEY,
			percent REAL NOT NULL DEFAULT 0,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// OpenSlot returns the current version of a slot. A slot that was never
// written has an empty revision.
func (s *Store) OpenSlot(ctx context.Context, slot string) (cloudsave.Metadata, error) {
	md, _, err := querySlot(ctx, s.db, slot)
	if err != nil {
		return cloudsave.Metadata{}, err
	}
	return md, nil
}

// ReadSlot returns the payload of the version described by md.
func (s *Store) ReadSlot(ctx context.Context, md cloudsave.Metadata) ([]byte, error) {
	cur, data, err := querySlot(ctx, s.db, md.Slot)
	if err != nil {
		return nil, err
	}
	if !cur.Exists() {
		return nil, cloudsave.ErrSlotNotFound
	}
	return data, nil
}

// WriteSlot stores data as a new revision of md.Slot. If the slot changed
// since md was opened, the stored version and the incoming one are resolved
// by total play time; when the stored version wins it is kept and its
// metadata is returned along with cloudsave.ErrConflict.
func (s *Store) WriteSlot(ctx context.Context, md cloudsave.Metadata, data []byte, totalPlayTime time.Duration) (cloudsave.Metadata, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return cloudsave.Metadata{}, fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	cur, stored, err := querySlot(ctx, tx, md.Slot)
	if err != nil {
		return cloudsave.Metadata{}, err
	}
	if cur.Exists() && cur.Revision != md.Revision {
		incoming := savecodec.Candidate{Data: data, TotalPlayTime: totalPlayTime}
		existing := savecodec.Candidate{Data: stored, TotalPlayTime: cur.TotalPlayTime, Revision: cur.Revision}
		if savecodec.RemoteWins(incoming, existing) {
			return cur, cloudsave.ErrConflict
		}
	}

	now := time.Now().UTC()
	next := cloudsave.Metadata{
		Slot:          md.Slot,
		Revision:      uuid.NewString(),
		TotalPlayTime: totalPlayTime,
		UpdatedAt:     now,
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO save_slots (slot, revision, data, total_play_ms, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(slot) DO UPDATE SET
		   revision = excluded.revision,
		   data = excluded.data,
		   total_play_ms = excluded.total_play_ms,
		   updated_at = excluded.updated_at`,
		next.Slot, next.Revision, data, totalPlayTime.Milliseconds(), now.Format(timeLayout),
	)
	if err != nil {
		return cloudsave.Metadata{}, fmt.Errorf("storage: cannot write slot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return cloudsave.Metadata{}, fmt.Errorf("storage: cannot commit slot: %w", err)
	}
	return next, nil
}

// DeleteSlot removes a slot. Deleting a missing slot is not an error.
func (s *Store) DeleteSlot(ctx context.Context, md cloudsave.Metadata) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM save_slots WHERE slot = ?", md.Slot); err != nil {
		return fmt.Errorf("storage: cannot delete slot: %w", err)
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func querySlot(ctx context.Context, q queryer, slot string) (cloudsave.Metadata, []byte, error) {
	md := cloudsave.Metadata{Slot: slot}
	var (
		data      []byte
		playMS    int64
		updatedAt any
	)
	err := q.QueryRowContext(ctx,
		"SELECT revision, data, total_play_ms, updated_at FROM save_slots WHERE slot = ?",
		slot,
	).Scan(&md.Revision, &data, &playMS, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return md, nil, nil
	}
	if err != nil {
		return cloudsave.Metadata{}, nil, fmt.Errorf("storage: cannot query slot: %w", err)
	}
	md.TotalPlayTime = time.Duration(playMS) * time.Millisecond
	md.UpdatedAt = parseTime(updatedAt)
	return md, data, nil
}

// PostScore records a score on a leaderboard.
// Returns the ID of the inserted record.
func (s *Store) PostScore(ctx context.Context, score int, leaderboardID string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO scores (leaderboard_id, score) VALUES (?, ?)",
		leaderboardID, score,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save score: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// TopScores retrieves the top N scores of a leaderboard.
// Results are ordered by score descending.
func (s *Store) TopScores(ctx context.Context, leaderboardID string, limit int) ([]ScoreEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, leaderboard_id, score, created_at
		 FROM scores
		 WHERE leaderboard_id = ?
		 ORDER BY score DESC
		 LIMIT ?`,
		leaderboardID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query scores: %w", err)
	}
	defer rows.Close()

	var entries []ScoreEntry
	for rows.Next() {
		var e ScoreEntry
		var createdAt any
		if err := rows.Scan(&e.ID, &e.LeaderboardID, &e.Score, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// HighScore returns the highest score of a leaderboard.
// Returns 0 if no scores exist.
func (s *Store) HighScore(ctx context.Context, leaderboardID string) (int, error) {
	var score sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT MAX(score) FROM scores WHERE leaderboard_id = ?",
		leaderboardID,
	).Scan(&score)

	if err != nil {
		return 0, fmt.Errorf("storage: cannot query high score: %w", err)
	}

	if !score.Valid {
		return 0, nil
	}

	return int(score.Int64), nil
}

// Stats retrieves aggregated statistics for a leaderboard.
func (s *Store) Stats(ctx context.Context, leaderboardID string) (LeaderboardStats, error) {
	stats := LeaderboardStats{LeaderboardID: leaderboardID}

	var lastPosted any
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(MAX(score), 0), COALESCE(AVG(score), 0), MAX(created_at)
		 FROM scores WHERE leaderboard_id = ?`,
		leaderboardID,
	).Scan(&stats.Posts, &stats.HighScore, &stats.AvgScore, &lastPosted)
	if err != nil {
		return stats, fmt.Errorf("storage: cannot get leaderboard stats: %w", err)
	}
	stats.LastPosted = parseTime(lastPosted)

	return stats, nil
}

// ClearScores deletes all scores of a leaderboard.
func (s *Store) ClearScores(ctx context.Context, leaderboardID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM scores WHERE leaderboard_id = ?", leaderboardID)
	if err != nil {
		return fmt.Errorf("storage: cannot clear scores: %w", err)
	}
	return nil
}

// ReportProgress records achievement progress in percent. Progress never
// goes down.
func (s *Store) ReportProgress(ctx context.Context, achievementID string, percent float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO achievements (achievement_id, percent, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(achievement_id) DO UPDATE SET
		   percent = MAX(achievements.percent, excluded.percent),
		   updated_at = excluded.updated_at`,
		achievementID, percent, time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot report achievement: %w", err)
	}
	return nil
}

// Achievements returns every achievement with reported progress, ordered by
// id.
func (s *Store) Achievements(ctx context.Context) ([]AchievementEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT achievement_id, percent, updated_at FROM achievements ORDER BY achievement_id",
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query achievements: %w", err)
	}
	defer rows.Close()

	var entries []AchievementEntry
	for rows.Next() {
		var e AchievementEntry
		var updatedAt any
		if err := rows.Scan(&e.ID, &e.Percent, &updatedAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.UpdatedAt = parseTime(updatedAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

const timeLayout = "2006-01-02 15:04:05"

// parseTime handles both time.Time and string datetimes.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(timeLayout, t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

var (
	_ cloudsave.Transport   = (*Store)(nil)
	_ cloudsave.Leaderboard = (*Store)(nil)
)
