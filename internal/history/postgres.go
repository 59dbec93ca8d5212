package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	_ "github.com/lib/pq"

	"github.com/ascvd-risk-server/internal/domain"
)

// PostgresStore implements the Store interface using PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	ownsDB bool
}

// NewPostgresStore creates a new PostgreSQL history store.
// It expects the schema to already exist (created via migrations).
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromURL creates a new PostgreSQL history store from a connection URL.
// The returned store closes its connection on Close.
func NewPostgresStoreFromURL(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	store.ownsDB = true

	return store, nil
}

// Save stores a new assessment.
func (s *PostgresStore) Save(ctx context.Context, assessment *domain.Assessment) error {
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

	query := `
		INSERT INTO assessments (
			id, cohort, profile, markers, baseline_risk, adjusted_risk,
			category, category_color, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = s.db.ExecContext(ctx, query,
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
		return fmt.Errorf("failed to save assessment: %w", err)
	}
	return nil
}

// Get retrieves an assessment by ID.
func (s *PostgresStore) Get(ctx context.Context, id string) (*domain.Assessment, error) {
	query := `SELECT ` + selectColumns + ` FROM assessments WHERE id = $1`

	a, err := scanAssessment(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("assessment %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	return a, nil
}

// List returns assessments newest first with pagination.
func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]*domain.Assessment, error) {
	limit, offset = normalizePage(limit, offset)

	query := `SELECT ` + selectColumns + ` FROM assessments
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
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
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM assessments").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count assessments: %w", err)
	}
	return count, nil
}

// Delete removes an assessment by ID.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM assessments WHERE id = $1", id)
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
func (s *PostgresStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM assessments ORDER BY created_at ASC, id ASC`)
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
func (s *PostgresStore) ImportJSON(ctx context.Context, reader io.Reader) (int, int, error) {
	return importExport(ctx, s, reader)
}

// Health checks that the database is reachable.
func (s *PostgresStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection when the store opened it itself.
func (s *PostgresStore) Close() error {
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}
