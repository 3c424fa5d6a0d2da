package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS attempts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			problem_id TEXT NOT NULL DEFAULT '',
			language TEXT NOT NULL DEFAULT '',
			outcome TEXT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			duration_ms INTEGER NOT NULL DEFAULT 0,
			ts TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS attempts_problem_idx ON attempts(problem_id);`,
		`CREATE TABLE IF NOT EXISTS problem_progress (
			problem_id TEXT PRIMARY KEY,
			submissions INTEGER NOT NULL DEFAULT 0,
			passed_count INTEGER NOT NULL DEFAULT 0,
			last_language TEXT NOT NULL DEFAULT '',
			last_attempt_ts TEXT NOT NULL DEFAULT '',
			last_passed_ts TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS app_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	// Backfill databases created before attempts.topic existed.
	if _, err := s.db.ExecContext(ctx, `ALTER TABLE attempts ADD COLUMN topic TEXT NOT NULL DEFAULT ''`); err != nil {
		msg := strings.ToLower(err.Error())
		if !strings.Contains(msg, "duplicate column name") {
			return fmt.Errorf("ensure schema alter attempts.topic: %w", err)
		}
	}
	return nil
}

// RecordAttempt stores the attempt and, for submissions, folds it into the
// per-problem progress row.
func (s *SQLiteStore) RecordAttempt(ctx context.Context, attempt Attempt) (err error) {
	kind := strings.TrimSpace(attempt.Kind)
	if kind == "" {
		return fmt.Errorf("record attempt: empty kind")
	}
	ts := attempt.TS
	if ts.IsZero() {
		ts = time.Now()
	}
	tsRaw := ts.UTC().Format(timeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO attempts(session_id, kind, problem_id, language, topic, outcome, message, duration_ms, ts) VALUES(?,?,?,?,?,?,?,?,?)`,
		attempt.SessionID,
		kind,
		strings.TrimSpace(attempt.ProblemID),
		attempt.Language,
		attempt.Topic,
		attempt.Outcome,
		attempt.Message,
		max(0, attempt.DurationMS),
		tsRaw,
	); err != nil {
		return err
	}

	problemID := strings.TrimSpace(attempt.ProblemID)
	if kind == "submit" && problemID != "" && (attempt.Outcome == "passed" || attempt.Outcome == "failed") {
		passed := attempt.Outcome == "passed"
		passTS := ""
		if passed {
			passTS = tsRaw
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO problem_progress(problem_id, submissions, passed_count, last_language, last_attempt_ts, last_passed_ts)
			VALUES(?, 1, ?, ?, ?, ?)
			ON CONFLICT(problem_id) DO UPDATE SET
				submissions = problem_progress.submissions + 1,
				passed_count = problem_progress.passed_count + excluded.passed_count,
				last_language = excluded.last_language,
				last_attempt_ts = excluded.last_attempt_ts,
				last_passed_ts = CASE
					WHEN excluded.last_passed_ts <> '' THEN excluded.last_passed_ts
					ELSE problem_progress.last_passed_ts
				END
		`, problemID, ifThen(passed, 1, 0), attempt.Language, tsRaw, passTS); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) RecentAttempts(ctx context.Context, limit int) ([]Attempt, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, kind, problem_id, language, topic, outcome, message, duration_ms, ts
		FROM attempts
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Attempt
	for rows.Next() {
		var (
			a     Attempt
			tsRaw string
		)
		if err := rows.Scan(&a.SessionID, &a.Kind, &a.ProblemID, &a.Language, &a.Topic, &a.Outcome, &a.Message, &a.DurationMS, &tsRaw); err != nil {
			return nil, err
		}
		if t, err := time.Parse(timeLayout, tsRaw); err == nil {
			a.TS = t
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) GetProblemProgressMap(ctx context.Context) (map[string]ProblemProgress, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT problem_id, submissions, passed_count, last_language, last_attempt_ts, last_passed_ts
		FROM problem_progress
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]ProblemProgress{}
	for rows.Next() {
		var (
			p           ProblemProgress
			lastAttempt string
			lastPassed  string
		)
		if err := rows.Scan(&p.ProblemID, &p.Submissions, &p.PassedCount, &p.LastLanguage, &lastAttempt, &lastPassed); err != nil {
			return nil, err
		}
		if t, err := time.Parse(timeLayout, lastAttempt); err == nil {
			p.LastAttemptTS = t
		}
		if t, err := time.Parse(timeLayout, lastPassed); err == nil {
			p.LastPassedTS = t
		}
		out[p.ProblemID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) SaveSettings(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for key, value := range values {
		k := strings.TrimSpace(key)
		if k == "" {
			continue
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO app_settings(key, value) VALUES(?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, k, value); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteStore) LoadSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM app_settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) GetSummary(ctx context.Context) (Summary, error) {
	var out Summary
	row := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN kind = 'generate' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN kind = 'run' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN kind = 'submit' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN kind = 'submit' AND outcome = 'passed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = 'error' THEN 1 ELSE 0 END), 0)
		FROM attempts
	`)
	if err := row.Scan(&out.Generates, &out.Runs, &out.Submissions, &out.Accepted, &out.Errors); err != nil {
		return Summary{}, err
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ifThen[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}
