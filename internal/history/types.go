// Package history provides persistent storage for completed risk assessments.
// It keeps an auditable record of every calculation and supports JSON export
// and import for moving history between installations.
package history

import (
	"context"
	"io"
	"time"

	"github.com/ascvd-risk-server/internal/domain"
)

// ExportVersion is the schema version written by ExportJSON
const ExportVersion = "1.0"

// Store defines the interface for assessment history operations.
type Store interface {
	// Save stores a new assessment. The assessment ID must be set.
	Save(ctx context.Context, assessment *domain.Assessment) error

	// Get retrieves an assessment by ID.
	// Returns domain.ErrNotFound when no assessment matches.
	Get(ctx context.Context, id string) (*domain.Assessment, error)

	// List returns assessments newest first with pagination.
	List(ctx context.Context, limit, offset int) ([]*domain.Assessment, error)

	// Count returns the total number of stored assessments.
	Count(ctx context.Context) (int64, error)

	// Delete removes an assessment by ID.
	Delete(ctx context.Context, id string) error

	// ExportJSON exports all assessments to a JSON writer.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// ImportJSON imports assessments from a JSON reader.
	// Entries whose ID already exists are skipped.
	ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error)

	// Health checks that the backing database is reachable.
	Health(ctx context.Context) error

	// Close closes the store and releases resources.
	Close() error
}

// AssessmentExport represents the JSON export format.
type AssessmentExport struct {
	Version     string               `json:"version"`
	ExportedAt  time.Time            `json:"exported_at"`
	Count       int                  `json:"count"`
	Assessments []*domain.Assessment `json:"assessments"`
}

// DefaultListLimit is applied when List is called with a non-positive limit
const DefaultListLimit = 50

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
