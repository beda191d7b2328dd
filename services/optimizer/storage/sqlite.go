package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/common"
	_ "github.com/mattn/go-sqlite3"
	logger "github.com/multiversx/mx-chain-logger-go"
)

const defaultListLimit = 20

var log = logger.GetOrCreate("storage")

// sqliteStorage keeps the history of the published fetch cycles
type sqliteStorage struct {
	db               *sql.DB
	retentionSeconds int
	cancelFunc       context.CancelFunc
	wg               sync.WaitGroup
}

// NewSQLiteStorage creates the database, schema, and starts the retention cleaner
func NewSQLiteStorage(dbPath string, retentionSeconds int) (*sqliteStorage, error) {
	err := prepareDirectories(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create initial empty DB file: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps in-memory databases shared between the writer and the cleaner
	db.SetMaxOpenConns(1)

	err = createSchema(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &sqliteStorage{
		db:               db,
		retentionSeconds: retentionSeconds,
		cancelFunc:       cancel,
	}

	s.startRetentionCleaner(ctx)

	return s, nil
}

func prepareDirectories(dbPath string) error {
	return os.MkdirAll(filepath.Dir(dbPath), os.ModePerm)
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		generation   INTEGER NOT NULL,
		account_id   INTEGER NOT NULL,
		duration_ms  INTEGER NOT NULL DEFAULT 0,
		begin_ms     INTEGER NOT NULL DEFAULT 0,
		end_ms       INTEGER NOT NULL DEFAULT 0,
		num_rows     INTEGER NOT NULL DEFAULT 0,
		completed_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshot_rows (
		snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
		name        TEXT    NOT NULL,
		payload     TEXT    NOT NULL,
		PRIMARY KEY (snapshot_id, name)
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_account ON snapshots(account_id, completed_at);
	CREATE INDEX IF NOT EXISTS idx_snapshots_completed_at ON snapshots(completed_at);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// SaveSnapshot stores a published snapshot with all its rows and returns the snapshot ID
func (s *sqliteStorage) SaveSnapshot(ctx context.Context, snapshot common.Snapshot) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots (generation, account_id, duration_ms, begin_ms, end_ms, num_rows, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, int64(snapshot.Generation), snapshot.AccountID, snapshot.Window.DurationMs, snapshot.Window.BeginMs,
		snapshot.Window.EndMs, len(snapshot.Rows), snapshot.CompletedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read snapshot id: %w", err)
	}

	for _, row := range snapshot.Rows {
		payload, errMarshal := json.Marshal(row)
		if errMarshal != nil {
			return 0, fmt.Errorf("failed to encode row %s: %w", row.Name, errMarshal)
		}

		_, err = tx.ExecContext(ctx, "INSERT INTO snapshot_rows (snapshot_id, name, payload) VALUES (?, ?, ?)",
			id, row.Name, string(payload))
		if err != nil {
			return 0, fmt.Errorf("failed to insert row %s: %w", row.Name, err)
		}
	}

	return id, tx.Commit()
}

// ListSnapshots returns the most recent snapshots, newest first. A zero account ID lists all accounts.
func (s *sqliteStorage) ListSnapshots(ctx context.Context, accountID int64, limit int) ([]common.SnapshotInfo, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, duration_ms, begin_ms, end_ms, num_rows, completed_at
		FROM snapshots
		WHERE ? = 0 OR account_id = ?
		ORDER BY completed_at DESC, id DESC
		LIMIT ?
	`, accountID, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	results := make([]common.SnapshotInfo, 0)
	for rows.Next() {
		var info common.SnapshotInfo
		err = rows.Scan(&info.ID, &info.AccountID, &info.Window.DurationMs, &info.Window.BeginMs, &info.Window.EndMs,
			&info.NumRows, &info.CompletedAt)
		if err != nil {
			return nil, err
		}

		results = append(results, info)
	}

	return results, rows.Err()
}

// GetSnapshot returns a stored snapshot with its rows ordered by name
func (s *sqliteStorage) GetSnapshot(ctx context.Context, id int64) (*common.Snapshot, error) {
	snapshot := &common.Snapshot{ID: id}
	var generation int64

	err := s.db.QueryRowContext(ctx, `
		SELECT generation, account_id, duration_ms, begin_ms, end_ms, completed_at
		FROM snapshots WHERE id = ?
	`, id).Scan(&generation, &snapshot.AccountID, &snapshot.Window.DurationMs, &snapshot.Window.BeginMs,
		&snapshot.Window.EndMs, &snapshot.CompletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	snapshot.Generation = uint64(generation)

	rows, err := s.db.QueryContext(ctx, "SELECT payload FROM snapshot_rows WHERE snapshot_id = ? ORDER BY name", id)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	snapshot.Rows = make([]common.ApplicationRow, 0)
	for rows.Next() {
		var payload string
		err = rows.Scan(&payload)
		if err != nil {
			return nil, err
		}

		var row common.ApplicationRow
		err = json.Unmarshal([]byte(payload), &row)
		if err != nil {
			return nil, fmt.Errorf("failed to decode row of snapshot %d: %w", id, err)
		}
		snapshot.Rows = append(snapshot.Rows, row)
	}

	return snapshot, rows.Err()
}

func (s *sqliteStorage) cleanRetainedSnapshots(ctx context.Context) error {
	cutoff := time.Now().Unix() - int64(s.retentionSeconds)
	_, err := s.db.ExecContext(ctx, "DELETE FROM snapshots WHERE completed_at < ?", cutoff)
	return err
}

func (s *sqliteStorage) startRetentionCleaner(ctx context.Context) {
	s.wg.Add(1)

	intervalSec := max(s.retentionSeconds/10, 60)
	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)

	go func() {
		defer s.wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				log.Debug("running retention cleanup")

				err := s.cleanRetainedSnapshots(ctx)
				if err != nil {
					log.Warn("failed to cleanup retained snapshots", "error", err)
				}
			}
		}
	}()
}

// Close closes the database and stops background routines
func (s *sqliteStorage) Close() error {
	s.cancelFunc()
	s.wg.Wait()
	return s.db.Close()
}

// IsInterfaceNil returns true if the value under the interface is nil
func (s *sqliteStorage) IsInterfaceNil() bool {
	return s == nil
}
