package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/entities"
	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/providers"
)

// MemoryLedgerAdapter is an in-memory ledger for tests and local runs.
type MemoryLedgerAdapter struct {
	mu      sync.Mutex
	entries []*entities.ProvenanceRecord
	anchors map[string]string
}

// Ensure MemoryLedgerAdapter implements LedgerProvider
var _ providers.LedgerProvider = (*MemoryLedgerAdapter)(nil)

// NewMemoryLedgerAdapter creates an empty in-memory ledger.
func NewMemoryLedgerAdapter() *MemoryLedgerAdapter {
	return &MemoryLedgerAdapter{anchors: make(map[string]string)}
}

// Submit appends the record and returns a positional reference.
func (a *MemoryLedgerAdapter) Submit(ctx context.Context, record *entities.ProvenanceRecord) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, record)
	return fmt.Sprintf("mem-%d", len(a.entries)-1), nil
}

// Anchor records the batch root.
func (a *MemoryLedgerAdapter) Anchor(ctx context.Context, batchID, merkleRoot string, recordCount int) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.anchors[batchID] = merkleRoot
	return "anchor-" + batchID, nil
}

// Close is a no-op.
func (a *MemoryLedgerAdapter) Close() error {
	return nil
}

// Entries returns the submitted records in append order.
func (a *MemoryLedgerAdapter) Entries() []*entities.ProvenanceRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*entities.ProvenanceRecord, len(a.entries))
	copy(out, a.entries)
	return out
}

// AnchorRoot returns the anchored Merkle root for a batch, if any.
func (a *MemoryLedgerAdapter) AnchorRoot(batchID string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	root, ok := a.anchors[batchID]
	return root, ok
}
