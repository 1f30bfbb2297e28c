package repositories

import (
	"context"

	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/entities"
)

// Stage1Repository is the persistent storage collaborator for
// storage-anonymized records. The pipeline hands the enforced Stage-1
// output to it and then drops the records.
type Stage1Repository interface {
	// SaveBatch durably stores the Stage-1 output of one batch.
	SaveBatch(ctx context.Context, batchID, hospitalID string, records []*entities.Stage1Record) error

	// ListByBatch returns the stored records of a batch.
	ListByBatch(ctx context.Context, batchID string) ([]*entities.Stage1Record, error)

	// ListByAnonymousID returns all stored records for an anonymous patient.
	ListByAnonymousID(ctx context.Context, anonymousID string) ([]*entities.Stage1Record, error)
}

// Stage1IndexRepository is the query-optimized index over Stage-1 output.
// Indexing is best-effort; the pipeline logs and continues on failure.
type Stage1IndexRepository interface {
	// InitSchema ensures the index collection exists.
	InitSchema(ctx context.Context) error

	// IndexBatch indexes the Stage-1 output of one batch.
	IndexBatch(ctx context.Context, batchID string, records []*entities.Stage1Record) error
}
