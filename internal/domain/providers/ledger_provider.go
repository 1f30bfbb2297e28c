package providers

import (
	"context"

	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/entities"
)

// LedgerProvider is the append-only ledger collaborator. It accepts
// provenance records and returns an opaque submission reference; retries,
// topology and network concerns belong to the implementation, not the
// pipeline.
type LedgerProvider interface {
	// Submit appends one provenance record and returns its reference.
	Submit(ctx context.Context, record *entities.ProvenanceRecord) (string, error)

	// Anchor appends a batch anchor binding the batch id to the Merkle root
	// of its record storage hashes.
	Anchor(ctx context.Context, batchID, merkleRoot string, recordCount int) (string, error)

	// Close releases the underlying resources.
	Close() error
}
