// Package store persists pipeline runs to SQLite so past formatting attempts
// stay inspectable. The core pipeline never reads from it; only the CLI
// writes and queries runs.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"github.com/mlutsiv/draftforge/internal/formatter"
	"github.com/mlutsiv/draftforge/internal/refine"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		input_digest TEXT NOT NULL,
		persona TEXT NOT NULL,
		provider TEXT NOT NULL,
		original_draft TEXT NOT NULL,
		refined_draft TEXT,
		formatted_draft TEXT,
		introduction TEXT,
		conclusion TEXT,
		summary TEXT,
		formatting_score REAL,
		formatting_state TEXT,
		attempts INTEGER DEFAULT 0,
		error TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS attempt_records (
		run_id TEXT NOT NULL,
		attempt INTEGER NOT NULL,
		score REAL NOT NULL,
		missing TEXT,
		present TEXT,
		feedback TEXT,
		PRIMARY KEY (run_id, attempt),
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE TABLE IF NOT EXISTS title_options (
		run_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		subtitle TEXT,
		reasoning TEXT,
		PRIMARY KEY (run_id, position),
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_digest ON runs(input_digest);
	CREATE INDEX IF NOT EXISTS idx_attempts_run ON attempt_records(run_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveRun persists the terminal state of one pipeline run, including its
// attempt history and title options.
func (s *Store) SaveRun(ctx context.Context, st refine.State, persona, providerName string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, input_digest, persona, provider, original_draft, refined_draft, formatted_draft,
		 introduction, conclusion, summary, formatting_score, formatting_state, attempts, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.RunID, inputDigest(st.OriginalDraft), persona, providerName,
		st.OriginalDraft, st.RefinedDraft, st.FormattedDraft,
		st.Introduction, st.Conclusion, st.Summary,
		st.FormattingScore, st.FormattingState, st.FormattingAttempts, st.Error, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	for _, rec := range st.FormattingHistory {
		_, err := s.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO attempt_records (run_id, attempt, score, missing, present, feedback)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			st.RunID, rec.Attempt, rec.Score,
			strings.Join(rec.Missing, ","), strings.Join(rec.Present, ","), rec.Feedback)
		if err != nil {
			return fmt.Errorf("failed to save attempt %d: %w", rec.Attempt, err)
		}
	}

	for i, opt := range st.TitleOptions {
		_, err := s.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO title_options (run_id, position, title, subtitle, reasoning)
			 VALUES (?, ?, ?, ?, ?)`,
			st.RunID, i, opt.Title, opt.Subtitle, opt.Reasoning)
		if err != nil {
			return fmt.Errorf("failed to save title option %d: %w", i, err)
		}
	}

	return nil
}

// RunSummary is the list-view projection of a stored run.
type RunSummary struct {
	ID        string
	Persona   string
	Provider  string
	Score     float64
	State     string
	Attempts  int
	Error     string
	CreatedAt time.Time
}

// ListRuns returns stored runs newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, persona, provider, COALESCE(formatting_score, 0), COALESCE(formatting_state, ''),
		 attempts, COALESCE(error, ''), created_at FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.Persona, &r.Provider, &r.Score, &r.State, &r.Attempts, &r.Error, &r.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// GetRun reconstructs a full pipeline state from storage.
func (s *Store) GetRun(ctx context.Context, id string) (refine.State, error) {
	var st refine.State
	err := s.db.QueryRowContext(ctx,
		`SELECT id, original_draft, COALESCE(refined_draft, ''), COALESCE(formatted_draft, ''),
		 COALESCE(introduction, ''), COALESCE(conclusion, ''), COALESCE(summary, ''),
		 COALESCE(formatting_score, 0), COALESCE(formatting_state, ''), attempts, COALESCE(error, '')
		 FROM runs WHERE id = ?`, id).Scan(
		&st.RunID, &st.OriginalDraft, &st.RefinedDraft, &st.FormattedDraft,
		&st.Introduction, &st.Conclusion, &st.Summary,
		&st.FormattingScore, &st.FormattingState, &st.FormattingAttempts, &st.Error)
	if err == sql.ErrNoRows {
		return st, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return st, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT attempt, score, COALESCE(missing, ''), COALESCE(present, ''), COALESCE(feedback, '')
		 FROM attempt_records WHERE run_id = ? ORDER BY attempt`, id)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var rec struct {
			attempt          int
			score            float64
			missing, present string
			feedback         string
		}
		if err := rows.Scan(&rec.attempt, &rec.score, &rec.missing, &rec.present, &rec.feedback); err != nil {
			return st, err
		}
		st.FormattingHistory = append(st.FormattingHistory, attemptRecord(rec.attempt, rec.score, rec.missing, rec.present, rec.feedback))
	}
	if err := rows.Err(); err != nil {
		return st, err
	}

	titles, err := s.db.QueryContext(ctx,
		`SELECT title, COALESCE(subtitle, ''), COALESCE(reasoning, '')
		 FROM title_options WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return st, err
	}
	defer titles.Close()

	for titles.Next() {
		var opt refine.TitleOption
		if err := titles.Scan(&opt.Title, &opt.Subtitle, &opt.Reasoning); err != nil {
			return st, err
		}
		st.TitleOptions = append(st.TitleOptions, opt)
	}
	return st, titles.Err()
}

// RunStats summarises the stored run history.
type RunStats struct {
	TotalRuns     int
	AcceptedRuns  int
	ExhaustedRuns int
	FailedRuns    int
	TotalAttempts int
	AverageScore  float64
}

// Stats returns aggregate statistics over all stored runs.
func (s *Store) Stats(ctx context.Context) (*RunStats, error) {
	stats := &RunStats{}
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN formatting_state = 'accepted' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN formatting_state = 'exhausted' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN formatting_state = 'failed' OR error != '' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(attempts), 0),
			COALESCE(AVG(formatting_score), 0)
		FROM runs`).Scan(
		&stats.TotalRuns,
		&stats.AcceptedRuns,
		&stats.ExhaustedRuns,
		&stats.FailedRuns,
		&stats.TotalAttempts,
		&stats.AverageScore,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// DeleteRun removes a run and its dependent rows.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM attempt_records WHERE run_id = ?`, id); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM title_options WHERE run_id = ?`, id); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return err
}

// Clear removes all stored runs and returns how many were deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM attempt_records`); err != nil {
		return 0, err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM title_options`); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Close() error {
	return s.db.Close()
}

// inputDigest produces a stable key for a draft: NFC-normalized, trimmed,
// SHA-256 hashed. Lets identical drafts be correlated across runs regardless
// of Unicode composition.
func inputDigest(text string) string {
	normalized := norm.NFC.String(strings.TrimSpace(text))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

func attemptRecord(attempt int, score float64, missing, present, feedback string) (rec formatter.AttemptRecord) {
	rec.Attempt = attempt
	rec.Score = score
	rec.Missing = splitList(missing)
	rec.Present = splitList(present)
	rec.Feedback = feedback
	return rec
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
