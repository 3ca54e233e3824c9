/******************************************************************************
 * Copyright (c) 2025-2026 Tenebris Technologies Inc.                         *
 * Please see the LICENSE file for details                                    *
 ******************************************************************************/

package workflow

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Journal appends accepted steps to a SQLite database. It is an audit trail:
// nothing reads it back into a tracker. Several server processes may share one
// journal file; appends are serialized with a lock file next to the database.
type Journal struct {
	path string
	db   *sql.DB
	lock *flock.Flock
}

// OpenJournal opens or creates the journal database at path
func OpenJournal(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("journal: create directory: %w", err)
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("journal: pragma %q: %w", p, err)
		}
	}

	j := &Journal{path: path, db: db, lock: flock.New(path + ".lock")}
	if err := j.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: migration: %w", err)
	}
	return j, nil
}

func (j *Journal) migrate() error {
	_, err := j.db.Exec(`
		CREATE TABLE IF NOT EXISTS workflow_steps (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id       TEXT    NOT NULL,
			sequence         INTEGER NOT NULL,
			step_number      INTEGER NOT NULL,
			description      TEXT    NOT NULL,
			total_steps      INTEGER NOT NULL,
			next_step_needed INTEGER NOT NULL,
			is_revision      INTEGER NOT NULL DEFAULT 0,
			revises_step     INTEGER,
			branch_from_step INTEGER,
			branch_id        TEXT,
			needs_more_steps INTEGER,
			recorded_at      TEXT    NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_workflow_steps_session ON workflow_steps(session_id, sequence);
	`)
	return err
}

// Path returns the database file
func (j *Journal) Path() string {
	return j.path
}

// Append writes step under the cross-process lock
func (j *Journal) Append(sessionID string, step Step) error {
	if err := j.lock.Lock(); err != nil {
		return fmt.Errorf("journal: acquire lock: %w", err)
	}
	defer func() { _ = j.lock.Unlock() }()

	var branchID any
	if step.BranchID != "" {
		branchID = step.BranchID
	}

	_, err := j.db.Exec(`
		INSERT INTO workflow_steps (session_id, sequence, step_number, description, total_steps,
			next_step_needed, is_revision, revises_step, branch_from_step, branch_id, needs_more_steps, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, step.Sequence, step.StepNumber, step.Description, step.TotalStepsAtTime,
		step.NextStepNeeded, step.IsRevision, nullInt(step.RevisesStep), nullInt(step.BranchFromStep),
		branchID, nullBool(step.NeedsMoreSteps), step.RecordedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("journal: insert step: %w", err)
	}
	return nil
}

// Steps returns the journaled steps of one session in sequence order
func (j *Journal) Steps(sessionID string) ([]Step, error) {
	rows, err := j.db.Query(`
		SELECT sequence, step_number, description, total_steps, next_step_needed, is_revision,
			revises_step, branch_from_step, branch_id, needs_more_steps, recorded_at
		FROM workflow_steps WHERE session_id = ? ORDER BY sequence`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("journal: query steps: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var steps []Step
	for rows.Next() {
		var (
			s                   Step
			revises, branchFrom sql.NullInt64
			branchID            sql.NullString
			needsMore           sql.NullBool
			recordedAt          string
		)
		if err := rows.Scan(&s.Sequence, &s.StepNumber, &s.Description, &s.TotalStepsAtTime,
			&s.NextStepNeeded, &s.IsRevision, &revises, &branchFrom, &branchID, &needsMore, &recordedAt); err != nil {
			return nil, fmt.Errorf("journal: scan step: %w", err)
		}
		if revises.Valid {
			v := int(revises.Int64)
			s.RevisesStep = &v
		}
		if branchFrom.Valid {
			v := int(branchFrom.Int64)
			s.BranchFromStep = &v
		}
		s.BranchID = branchID.String
		if needsMore.Valid {
			v := needsMore.Bool
			s.NeedsMoreSteps = &v
		}
		if ts, err := time.Parse(time.RFC3339Nano, recordedAt); err == nil {
			s.RecordedAt = ts
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

// Close closes the database
func (j *Journal) Close() error {
	return j.db.Close()
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullBool(v *bool) any {
	if v == nil {
		return nil
	}
	return *v
}
