// ABOUTME: Database operations for the sync_runs table
// ABOUTME: Records one row per pull/push invocation for observability
package db

import (
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// SyncRun captures the outcome of one pull or push invocation. Ids are
// ULIDs so the table sorts by time without a secondary index.
type SyncRun struct {
	ID         string
	Direction  string
	Synced     int
	Failed     int
	Error      *string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// StartSyncRun inserts an open run row and returns its id.
func StartSyncRun(db *sql.DB, direction string) (string, error) {
	now := time.Now()
	id := ulid.MustNew(ulid.Timestamp(now), rand.New(rand.NewSource(now.UnixNano()))).String()

	_, err := db.Exec(`
		INSERT INTO sync_runs (id, direction, started_at)
		VALUES (?, ?, ?)
	`, id, direction, now)
	if err != nil {
		return "", fmt.Errorf("failed to start sync run: %w", err)
	}

	return id, nil
}

// FinishSyncRun closes a run row with its counts and optional error.
func FinishSyncRun(db *sql.DB, id string, synced, failed int, runErr *string) error {
	_, err := db.Exec(`
		UPDATE sync_runs
		SET synced = ?, failed = ?, error = ?, finished_at = ?
		WHERE id = ?
	`, synced, failed, runErr, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to finish sync run: %w", err)
	}
	return nil
}

// RecentSyncRuns returns the latest runs, newest first.
func RecentSyncRuns(db *sql.DB, limit int) ([]SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.Query(`
		SELECT id, direction, synced, failed, error, started_at, finished_at
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []SyncRun
	for rows.Next() {
		var run SyncRun
		var errMsg sql.NullString
		var finishedAt sql.NullTime

		if err := rows.Scan(&run.ID, &run.Direction, &run.Synced, &run.Failed,
			&errMsg, &run.StartedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}

		if errMsg.Valid {
			run.Error = &errMsg.String
		}
		if finishedAt.Valid {
			run.FinishedAt = &finishedAt.Time
		}

		runs = append(runs, run)
	}

	return runs, rows.Err()
}
