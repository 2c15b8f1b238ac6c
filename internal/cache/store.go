package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"murmur/internal/transcript"
)

// Store is a SQLite-backed chunk result cache. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

// IdentityStats summarizes entries for one engine identity.
type IdentityStats struct {
	Identity string `json:"identity"`
	Entries  int    `json:"entries"`
	Segments int    `json:"segments"`
	Hits     int    `json:"hits"`
}

// Stats summarizes the cache contents.
type Stats struct {
	Path       string          `json:"path"`
	Entries    int             `json:"entries"`
	SizeBytes  int64           `json:"size_bytes"`
	Identities []IdentityStats `json:"identities"`
}

// connPragmas is applied by the driver to every pooled connection.
const connPragmas = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// Open creates or opens the cache database at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+connPragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Get returns the cached segments for key. The boolean is false on a miss.
func (s *Store) Get(ctx context.Context, key string) ([]transcript.Segment, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT segments_json FROM chunk_results WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get chunk result: %w", err)
	}
	var segments []transcript.Segment
	if err := json.Unmarshal([]byte(payload), &segments); err != nil {
		return nil, false, fmt.Errorf("decode chunk result: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx, `UPDATE chunk_results SET hits = hits + 1, last_used_at = ? WHERE key = ?`, now, key); err != nil {
		return nil, false, fmt.Errorf("touch chunk result: %w", err)
	}
	return segments, true, nil
}

// Put stores segments for key, replacing any previous entry.
func (s *Store) Put(ctx context.Context, key, identity string, duration float64, segments []transcript.Segment) error {
	if segments == nil {
		segments = []transcript.Segment{}
	}
	payload, err := json.Marshal(segments)
	if err != nil {
		return fmt.Errorf("encode chunk result: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO chunk_results (key, identity, duration_seconds, segment_count, segments_json, created_at, last_used_at, hits)
         VALUES (?, ?, ?, ?, ?, ?, ?, 0)
         ON CONFLICT(key) DO UPDATE SET
             identity = excluded.identity,
             duration_seconds = excluded.duration_seconds,
             segment_count = excluded.segment_count,
             segments_json = excluded.segments_json,
             last_used_at = excluded.last_used_at`,
		key, identity, duration, len(segments), string(payload), now, now,
	)
	if err != nil {
		return fmt.Errorf("put chunk result: %w", err)
	}
	return nil
}

// Stats reports entry counts grouped by engine identity.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Path: s.path}
	rows, err := s.db.QueryContext(ctx, `
		SELECT identity, COUNT(1), COALESCE(SUM(segment_count), 0), COALESCE(SUM(hits), 0)
		FROM chunk_results
		GROUP BY identity
		ORDER BY identity`)
	if err != nil {
		return stats, fmt.Errorf("query cache stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id IdentityStats
		if err := rows.Scan(&id.Identity, &id.Entries, &id.Segments, &id.Hits); err != nil {
			return stats, fmt.Errorf("scan cache stats: %w", err)
		}
		stats.Entries += id.Entries
		stats.Identities = append(stats.Identities, id)
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("iterate cache stats: %w", err)
	}
	if info, err := os.Stat(s.path); err == nil {
		stats.SizeBytes = info.Size()
	}
	return stats, nil
}

// Clear removes every entry and returns how many were deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chunk_results`)
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `VACUUM`); err != nil {
		return n, fmt.Errorf("vacuum cache: %w", err)
	}
	return n, nil
}

// Prune removes entries not used since cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chunk_results WHERE last_used_at < ?`, cutoff.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	return res.RowsAffected()
}
