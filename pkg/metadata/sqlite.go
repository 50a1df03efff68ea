package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const driverName = "sqlite3"

const defaultPragma = `
PRAGMA journal_mode=WAL;
PRAGMA busy_timeout=5000;
PRAGMA temp_store=MEMORY;
`

const schema = `
CREATE TABLE IF NOT EXISTS replays (
    sha256 TEXT PRIMARY KEY,
    mode INTEGER NOT NULL,
    version INTEGER NOT NULL,
    beatmap_hash TEXT NOT NULL,
    player_name TEXT NOT NULL,
    replay_hash TEXT NOT NULL,
    count_300 INTEGER NOT NULL,
    count_100 INTEGER NOT NULL,
    count_50 INTEGER NOT NULL,
    count_geki INTEGER NOT NULL,
    count_katu INTEGER NOT NULL,
    count_miss INTEGER NOT NULL,
    score INTEGER NOT NULL,
    max_combo INTEGER NOT NULL,
    perfect_combo INTEGER NOT NULL,
    mods INTEGER NOT NULL,
    timestamp TEXT NOT NULL -- RFC3339
);

CREATE INDEX IF NOT EXISTS idx_replays_beatmap ON replays(beatmap_hash);
CREATE INDEX IF NOT EXISTS idx_replays_player ON replays(player_name);
`

const upsertQuery = `
INSERT INTO replays (
    sha256, mode, version, beatmap_hash, player_name, replay_hash,
    count_300, count_100, count_50, count_geki, count_katu, count_miss,
    score, max_combo, perfect_combo, mods, timestamp
) VALUES (
    :sha256, :mode, :version, :beatmap_hash, :player_name, :replay_hash,
    :count_300, :count_100, :count_50, :count_geki, :count_katu, :count_miss,
    :score, :max_combo, :perfect_combo, :mods, :timestamp
)
ON CONFLICT(sha256) DO UPDATE SET
    mode = excluded.mode,
    version = excluded.version,
    beatmap_hash = excluded.beatmap_hash,
    player_name = excluded.player_name,
    replay_hash = excluded.replay_hash,
    count_300 = excluded.count_300,
    count_100 = excluded.count_100,
    count_50 = excluded.count_50,
    count_geki = excluded.count_geki,
    count_katu = excluded.count_katu,
    count_miss = excluded.count_miss,
    score = excluded.score,
    max_combo = excluded.max_combo,
    perfect_combo = excluded.perfect_combo,
    mods = excluded.mods,
    timestamp = excluded.timestamp
`

// SQLiteStore keeps replay records in a SQLite database
type SQLiteStore struct {
	db *sqlx.DB
}

// OpenSQLite opens (creating if needed) the database at path. ":memory:"
// gives a private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("ensure parent directory: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_txlock=immediate&mode=rwc", path)
	}

	db, err := sqlx.Connect(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	// the sync pass is sequential; one connection also keeps :memory: shared
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(defaultPragma); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// ListFingerprints returns every stored fingerprint
func (s *SQLiteStore) ListFingerprints(ctx context.Context) ([]string, error) {
	var fps []string
	if err := s.db.SelectContext(ctx, &fps, "SELECT sha256 FROM replays"); err != nil {
		return nil, fmt.Errorf("failed to list fingerprints: %w", err)
	}
	return fps, nil
}

// UpsertByFingerprint inserts rec or replaces the existing record for fingerprint
func (s *SQLiteStore) UpsertByFingerprint(ctx context.Context, fingerprint string, rec *ReplayRecord) error {
	row := *rec
	row.SHA256 = fingerprint

	if _, err := s.db.NamedExecContext(ctx, upsertQuery, &row); err != nil {
		return fmt.Errorf("failed to upsert record %s: %w", fingerprint, err)
	}
	return nil
}

// Get returns the record for fingerprint, or nil if there is none
func (s *SQLiteStore) Get(ctx context.Context, fingerprint string) (*ReplayRecord, error) {
	var rec ReplayRecord
	err := s.db.GetContext(ctx, &rec, "SELECT * FROM replays WHERE sha256 = ?", fingerprint)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query record %s: %w", fingerprint, err)
	}
	return &rec, nil
}

// Count returns the number of stored records
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM replays"); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
