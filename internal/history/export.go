package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ascvd-risk-server/internal/domain"
)

func writeExport(writer io.Writer, assessments []*domain.Assessment) error {
	export := AssessmentExport{
		Version:     ExportVersion,
		ExportedAt:  time.Now().UTC(),
		Count:       len(assessments),
		Assessments: assessments,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

// importExport decodes an export document and saves every entry not already
// present in the store
func importExport(ctx context.Context, store Store, reader io.Reader) (int, int, error) {
	var export AssessmentExport
	if err := json.NewDecoder(reader).Decode(&export); err != nil {
		return 0, 0, fmt.Errorf("failed to decode JSON: %w", err)
	}

	imported, skipped := 0, 0
	for _, a := range export.Assessments {
		if a == nil || a.ID == "" {
			skipped++
			continue
		}

		_, err := store.Get(ctx, a.ID)
		if err == nil {
			skipped++
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return imported, skipped, fmt.Errorf("checking assessment %s: %w", a.ID, err)
		}

		if err := store.Save(ctx, a); err != nil {
			return imported, skipped, fmt.Errorf("failed to import assessment %s: %w", a.ID, err)
		}
		imported++
	}

	return imported, skipped, nil
}
