// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/trialscope/pkg/types"
)

// Store writes runs into a SQLite database. Each run is stored under its
// run ID; saving the same run twice replaces it.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the database at path and creates the schema
// if it does not exist.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			timestamp TEXT NOT NULL,
			source_file TEXT,
			column_header TEXT,
			diseases_extracted INTEGER,
			diseases_deduplicated INTEGER,
			diseases_with_trials INTEGER,
			total_trials INTEGER,
			max_trials_per_disease INTEGER,
			sorted_by TEXT,
			filters_applied INTEGER,
			years_back INTEGER,
			used_llm INTEGER,
			statistics TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS diseases (
			run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
			term TEXT NOT NULL,
			position INTEGER NOT NULL,
			total_count INTEGER,
			pages INTEGER,
			query_params TEXT,
			PRIMARY KEY (run_id, term)
		)`,
		`CREATE TABLE IF NOT EXISTS trials (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
			term TEXT NOT NULL,
			nct_id TEXT NOT NULL,
			brief_title TEXT,
			official_title TEXT,
			overall_status TEXT,
			is_complete INTEGER,
			has_results INTEGER,
			study_type TEXT,
			phases TEXT,
			conditions TEXT,
			start_date TEXT,
			primary_completion_date TEXT,
			completion_date TEXT,
			duration_days INTEGER,
			duration_months REAL,
			duration_years REAL,
			duration_status TEXT,
			enrollment_count INTEGER,
			sponsor_name TEXT,
			sponsor_class TEXT,
			url TEXT,
			detail TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trials_run_term ON trials(run_id, term)`,
		`CREATE INDEX IF NOT EXISTS idx_trials_nct_id ON trials(nct_id)`,
		`CREATE TABLE IF NOT EXISTS term_mappings (
			run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			original TEXT NOT NULL,
			optimized TEXT NOT NULL,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE TABLE IF NOT EXISTS failed_queries (
			run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
			term TEXT NOT NULL,
			PRIMARY KEY (run_id, term)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveRun writes res in a single transaction.
func (s *Store) SaveRun(ctx context.Context, res *types.RunResult) error {
	if res.Metadata.RunID == "" {
		return fmt.Errorf("run has no ID")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	m := res.Metadata
	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, m.RunID); err != nil {
		return fmt.Errorf("replacing run: %w", err)
	}

	stats, _ := json.Marshal(res.SummaryStatistics)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, timestamp, source_file, column_header, diseases_extracted,
			diseases_deduplicated, diseases_with_trials, total_trials, max_trials_per_disease,
			sorted_by, filters_applied, years_back, used_llm, statistics)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.RunID, m.Timestamp.UTC().Format(time.RFC3339), m.SourceFile, m.ColumnHeader,
		m.TotalDiseasesExtracted, m.TotalDiseasesDeduplicated, m.TotalDiseasesWithTrials,
		m.TotalTrials, m.MaxTrialsPerDisease, m.SortedBy, m.FiltersApplied, m.YearsBack,
		m.UsedLLM, string(stats),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	if err := insertDiseases(ctx, tx, res); err != nil {
		return err
	}

	for i, tm := range res.Normalization.Mapping {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO term_mappings (run_id, position, original, optimized) VALUES (?, ?, ?, ?)`,
			m.RunID, i, tm.Original, tm.Optimized,
		); err != nil {
			return fmt.Errorf("inserting term mapping: %w", err)
		}
	}

	for _, term := range res.FailedQueries {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO failed_queries (run_id, term) VALUES (?, ?)`, m.RunID, term,
		); err != nil {
			return fmt.Errorf("inserting failed query: %w", err)
		}
	}

	return tx.Commit()
}

func insertDiseases(ctx context.Context, tx *sql.Tx, res *types.RunResult) error {
	runID := res.Metadata.RunID

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO trials (run_id, term, nct_id, brief_title, official_title, overall_status,
			is_complete, has_results, study_type, phases, conditions, start_date,
			primary_completion_date, completion_date, duration_days, duration_months,
			duration_years, duration_status, enrollment_count, sponsor_name, sponsor_class, url, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing trial insert: %w", err)
	}
	defer stmt.Close()

	position := 0
	for _, term := range res.Metadata.DiseasesQueried {
		qr, ok := res.ResultsByDisease[term]
		if !ok {
			continue
		}
		params, _ := json.Marshal(qr.QueryParams)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO diseases (run_id, term, position, total_count, pages, query_params) VALUES (?, ?, ?, ?, ?, ?)`,
			runID, term, position, qr.TotalCount, qr.Pages, string(params),
		); err != nil {
			return fmt.Errorf("inserting disease %s: %w", term, err)
		}
		position++

		for _, t := range qr.Studies {
			phases, _ := json.Marshal(t.Phases)
			conditions, _ := json.Marshal(t.Conditions)
			detail, _ := json.Marshal(t)
			if _, err := stmt.ExecContext(ctx,
				runID, term, t.NCTID, t.BriefTitle, t.OfficialTitle, t.OverallStatus,
				t.IsComplete, t.HasResults, t.StudyType, string(phases), string(conditions),
				t.Dates.StartDate, t.Dates.PrimaryCompletionDate, t.Dates.CompletionDate,
				t.Duration.Days, t.Duration.Months, t.Duration.Years, string(t.Duration.Status),
				t.Enrollment.Count, t.Sponsor.Name, t.Sponsor.Class, t.URL, string(detail),
			); err != nil {
				return fmt.Errorf("inserting trial %s: %w", t.NCTID, err)
			}
		}
	}
	return nil
}

// WriteSQLite saves res into the database at path.
func WriteSQLite(ctx context.Context, path string, res *types.RunResult) error {
	s, err := NewStore(path)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.SaveRun(ctx, res)
}
