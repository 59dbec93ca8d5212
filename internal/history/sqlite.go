package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ascvd-risk-server/internal/domain"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite history store.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// newSQLiteStoreWithDB wraps an already opened database without touching the schema
func newSQLiteStoreWithDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// createSchema creates the database tables and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS assessments (
		id TEXT PRIMARY KEY,
		cohort TEXT NOT NULL,
		profile TEXT NOT NULL,
		markers TEXT NOT NULL,
		baseline_risk REAL NOT NULL,
		adjusted_risk REAL NOT NULL,
		category TEXT NOT NULL,
		category_color TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_assessments_created_at ON assessments(created_at);
	CREATE INDEX IF NOT EXISTS idx_assessments_category ON assessments(category);
	`

	_, err := db.Exec(schema)
	return err
}

const selectColumns = `id, cohort, profile, markers, baseline_risk, adjusted_risk, category, category_color, created_at`

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanAssessment scans a row into an Assessment. Shared by both stores.
func scanAssessment(s scanner) (*domain.Assessment, error) {
	a := &domain.Assessment{}
	var profileJSON, markersJSON []byte
	var category string

	err := s.Scan(
		&a.ID, &a.Cohort, &profileJSON, &markersJSON,
		&a.Result.BaselineRiskPercent, &a.Result.AdjustedRiskPercent,
		&category, &a.Result.CategoryColor, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(profileJSON, &a.Profile); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}
	if err := json.Unmarshal(markersJSON, &a.Markers); err != nil {
		return nil, fmt.Errorf("decoding markers: %w", err)
	}
	a.Result.Category = domain.RiskCategory(category)
	a.CreatedAt = a.CreatedAt.UTC()
	return a, nil
}

// Save stores a new assessment.
func (s *SQLiteStore) Save(ctx context.Context, assessment *domain.Assessment) error {
	if assessment.ID == "" {
		return fmt.Errorf("assessment ID is required")
	}
	if assessment.CreatedAt.IsZero() {
		assessment.CreatedAt = time.Now().UTC()
	}

	profileJSON, err := json.Marshal(assessment.Profile)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	markersJSON, err := json.Marshal(assessment.Markers)
	if err != nil {
		return fmt.Errorf("encoding markers: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO assessments (
			id, cohort, profile, markers, baseline_risk, adjusted_risk,
			category, category_color, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		assessment.ID,
		assessment.Cohort,
		string(profileJSON),
		string(markersJSON),
		assessment.Result.BaselineRiskPercent,
		assessment.Result.AdjustedRiskPercent,
		string(assessment.Result.Category),
		assessment.Result.CategoryColor,
		assessment.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert assessment: %w", err)
	}
	return nil
}

// Get retrieves an assessment by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.Assessment, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM assessments WHERE id = ?", id)

	a, err := scanAssessment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("assessment %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	return a, nil
}

// List returns assessments newest first with pagination.
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]*domain.Assessment, error) {
	limit, offset = normalizePage(limit, offset)

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+selectColumns+" FROM assessments ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	var results []*domain.Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}
		results = append(results, a)
	}
	return results, rows.Err()
}

// Count returns the total number of stored assessments.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM assessments").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count assessments: %w", err)
	}
	return count, nil
}

// Delete removes an assessment by ID.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM assessments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete assessment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deletion: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("assessment %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ExportJSON exports all assessments to a JSON writer.
func (s *SQLiteStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+selectColumns+" FROM assessments ORDER BY created_at ASC, rowid ASC")
	if err != nil {
		return fmt.Errorf("failed to query assessments: %w", err)
	}
	defer rows.Close()

	all := []*domain.Assessment{}
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return fmt.Errorf("failed to scan assessment: %w", err)
		}
		all = append(all, a)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	return writeExport(writer, all)
}

// ImportJSON imports assessments from a JSON reader.
func (s *SQLiteStore) ImportJSON(ctx context.Context, reader io.Reader) (int, int, error) {
	return importExport(ctx, s, reader)
}

// Health checks that the database is reachable.
func (s *SQLiteStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DBPath returns the database file path.
func (s *SQLiteStore) DBPath() string {
	return s.dbPath
}
