package providers

import (
	"context"

	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/entities"
)

// IdentityResolver pre-resolves anonymous identifiers for a batch. It runs
// before the pipeline, never during it; the pipeline consumes the returned
// mapping as a plain lookup keyed by original record key.
type IdentityResolver interface {
	// ResolveBatch returns record key to anonymous identifier for every
	// keyed record in the batch.
	ResolveBatch(ctx context.Context, batch []entities.RawRecord) (map[string]string, error)
}
