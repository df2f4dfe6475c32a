package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository at dbPath, creating the
// parent directory and schema as needed.
func NewSQLite(dbPath string) (Repository, error) {
	if dbPath == "" {
		return nil, errors.New("store: db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL mode for concurrent readers during refresh.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS overrides (
		source_id    TEXT NOT NULL,
		uid          TEXT NOT NULL,
		instance_key TEXT NOT NULL,
		start_utc    INTEGER NOT NULL,
		end_utc      INTEGER NOT NULL,
		updated_at   INTEGER NOT NULL,
		PRIMARY KEY (source_id, uid, instance_key)
	);
	`
	_, err := s.db.Exec(query)
	return err
}

// SaveOverride inserts or replaces the override for one occurrence.
func (s *SQLiteStore) SaveOverride(ctx context.Context, ov Override) error {
	if ov.SourceID == "" || ov.UID == "" || ov.InstanceKey == "" {
		return errors.New("store: override key fields must be non-empty")
	}
	if !ov.End.After(ov.Start) {
		// The validation policy guarantees this upstream; enforcing it here
		// keeps the table free of corrupt rows no matter the caller.
		return errors.New("store: override end must be after start")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO overrides (source_id, uid, instance_key, start_utc, end_utc, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (source_id, uid, instance_key)
		DO UPDATE SET start_utc = excluded.start_utc,
		              end_utc = excluded.end_utc,
		              updated_at = excluded.updated_at`,
		ov.SourceID, ov.UID, ov.InstanceKey,
		ov.Start.UTC().UnixNano(), ov.End.UTC().UnixNano(),
		time.Now().UTC().UnixNano(),
	)
	return err
}

// GetOverride returns the override for one occurrence, if any.
func (s *SQLiteStore) GetOverride(ctx context.Context, sourceID, uid, instanceKey string) (Override, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT start_utc, end_utc, updated_at
		FROM overrides
		WHERE source_id = ? AND uid = ? AND instance_key = ?`,
		sourceID, uid, instanceKey,
	)

	var startNs, endNs, updatedNs int64
	if err := row.Scan(&startNs, &endNs, &updatedNs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Override{}, false, nil
		}
		return Override{}, false, err
	}

	return Override{
		SourceID:    sourceID,
		UID:         uid,
		InstanceKey: instanceKey,
		Start:       time.Unix(0, startNs).UTC(),
		End:         time.Unix(0, endNs).UTC(),
		UpdatedAt:   time.Unix(0, updatedNs).UTC(),
	}, true, nil
}

// ListOverrides returns all stored overrides.
func (s *SQLiteStore) ListOverrides(ctx context.Context) ([]Override, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_id, uid, instance_key, start_utc, end_utc, updated_at
		FROM overrides`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Override
	for rows.Next() {
		var ov Override
		var startNs, endNs, updatedNs int64
		if err := rows.Scan(&ov.SourceID, &ov.UID, &ov.InstanceKey, &startNs, &endNs, &updatedNs); err != nil {
			return nil, err
		}
		ov.Start = time.Unix(0, startNs).UTC()
		ov.End = time.Unix(0, endNs).UTC()
		ov.UpdatedAt = time.Unix(0, updatedNs).UTC()
		out = append(out, ov)
	}
	return out, rows.Err()
}

// DeleteOverride removes the override for one occurrence.
func (s *SQLiteStore) DeleteOverride(ctx context.Context, sourceID, uid, instanceKey string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM overrides
		WHERE source_id = ? AND uid = ? AND instance_key = ?`,
		sourceID, uid, instanceKey,
	)
	return err
}

// Ping checks database health.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
