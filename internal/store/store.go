// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/minipair/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for drill sessions.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			source TEXT NOT NULL,
			filters TEXT NOT NULL,
			attempted INTEGER NOT NULL,
			correct INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS answers (
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			record_id TEXT NOT NULL,
			category TEXT NOT NULL,
			selected INTEGER NOT NULL,
			correct_index INTEGER NOT NULL,
			correct INTEGER NOT NULL,
			answered_at TEXT NOT NULL,
			PRIMARY KEY (session_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_answers_category ON answers(category);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSession stores a finished session and its answers.
func (s *Store) InsertSession(ctx context.Context, stats model.SessionStats, answers []model.Answer) (err error) {
	if stats.ID == "" {
		return fmt.Errorf("session id is empty")
	}
	filters, err := json.Marshal(stats.Filters)
	if err != nil {
		return fmt.Errorf("failed to encode filters: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, started_at, ended_at, source, filters, attempted, correct)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		stats.ID,
		stats.StartedAt.Format(time.RFC3339Nano),
		stats.EndedAt.Format(time.RFC3339Nano),
		stats.Source,
		string(filters),
		stats.Attempted,
		stats.Correct,
	); err != nil {
		return err
	}

	if len(answers) > 0 {
		var stmt *sql.Stmt
		stmt, err = tx.PrepareContext(ctx,
			`INSERT INTO answers (session_id, seq, record_id, category, selected, correct_index, correct, answered_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for i, a := range answers {
			if _, err = stmt.ExecContext(ctx, stats.ID, i, a.RecordID, string(a.Category), a.Selected, a.CorrectIndex, boolInt(a.Correct), a.AnsweredAt.Format(time.RFC3339Nano)); err != nil {
				return err
			}
		}
	}

	err = tx.Commit()
	return err
}

// ListSessions returns sessions ordered by end time, oldest first.
func (s *Store) ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error) {
	clauses := []string{"attempted > 0"}
	args := []any{}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, ended_at, attempted, correct
		FROM sessions
		WHERE %s
		ORDER BY ended_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionAggregate
	for rows.Next() {
		var agg model.SessionAggregate
		var endedAt string
		if err := rows.Scan(&agg.SessionID, &endedAt, &agg.Attempted, &agg.Correct); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		agg.EndedAt = parsed
		sessions = append(sessions, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// ListCategoryAggregates aggregates answers per category across sessions.
func (s *Store) ListCategoryAggregates(ctx context.Context, sessionIDs []string) ([]model.CategoryAggregate, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(sessionIDs))
	args := make([]any, len(sessionIDs))
	for i, id := range sessionIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT category, COUNT(*) AS attempted, SUM(correct) AS correct
		FROM answers
		WHERE session_id IN (%s)
		GROUP BY category`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.CategoryAggregate
	for rows.Next() {
		var agg model.CategoryAggregate
		var category string
		if err := rows.Scan(&category, &agg.Attempted, &agg.Correct); err != nil {
			return nil, err
		}
		agg.Category = model.Category(category)
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListMissedRecords returns record ids answered incorrectly, most missed first.
func (s *Store) ListMissedRecords(ctx context.Context, sessionIDs []string, limit int) ([]string, error) {
	if len(sessionIDs) == 0 || limit <= 0 {
		return nil, nil
	}
	placeholders := make([]string, len(sessionIDs))
	args := make([]any, 0, len(sessionIDs)+1)
	for i, id := range sessionIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}
	args = append(args, limit)
	query := fmt.Sprintf(`SELECT record_id
		FROM answers
		WHERE session_id IN (%s) AND correct = 0
		GROUP BY record_id
		ORDER BY COUNT(*) DESC, record_id ASC
		LIMIT ?`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
