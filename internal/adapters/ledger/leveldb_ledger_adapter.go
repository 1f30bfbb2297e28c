package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/entities"
	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/providers"
)

const (
	provenanceKeyPrefix = "prov:"
	anchorKeyPrefix     = "anchor:"
)

// LevelDBLedgerAdapter is an embedded append-only ledger backed by
// LevelDB, for deployments without a shared ledger service. Entries are
// keyed by proof (provenance) or batch id (anchors); once written, a key
// can never be rewritten to different content.
type LevelDBLedgerAdapter struct {
	db *leveldb.DB
}

// Ensure LevelDBLedgerAdapter implements LedgerProvider
var _ providers.LedgerProvider = (*LevelDBLedgerAdapter)(nil)

// NewLevelDBLedgerAdapter opens (or creates) the ledger database at path.
func NewLevelDBLedgerAdapter(path string) (*LevelDBLedgerAdapter, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}
	return &LevelDBLedgerAdapter{db: db}, nil
}

// Submit appends one provenance record keyed by its proof and returns the
// key as the submission reference. Re-submitting identical content is
// idempotent; conflicting content for an existing key is refused.
func (a *LevelDBLedgerAdapter) Submit(ctx context.Context, record *entities.ProvenanceRecord) (string, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to marshal provenance record: %w", err)
	}

	key := provenanceKeyPrefix + record.Proof
	return a.append(key, payload)
}

// Anchor appends a batch anchor keyed by batch id.
func (a *LevelDBLedgerAdapter) Anchor(ctx context.Context, batchID, merkleRoot string, recordCount int) (string, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"batch_id":     batchID,
		"merkle_root":  merkleRoot,
		"record_count": recordCount,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal batch anchor: %w", err)
	}

	key := anchorKeyPrefix + batchID
	return a.append(key, payload)
}

func (a *LevelDBLedgerAdapter) append(key string, payload []byte) (string, error) {
	existing, err := a.db.Get([]byte(key), nil)
	if err == nil {
		if bytes.Equal(existing, payload) {
			return key, nil
		}
		return "", fmt.Errorf("ledger entry %s already exists with different content", key)
	}
	if err != leveldb.ErrNotFound {
		return "", fmt.Errorf("failed to read ledger entry %s: %w", key, err)
	}

	if err := a.db.Put([]byte(key), payload, nil); err != nil {
		return "", fmt.Errorf("failed to append ledger entry %s: %w", key, err)
	}
	return key, nil
}

// Get returns the raw content of a ledger entry by reference.
func (a *LevelDBLedgerAdapter) Get(ref string) ([]byte, error) {
	payload, err := a.db.Get([]byte(ref), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger entry %s: %w", ref, err)
	}
	return payload, nil
}

// Close closes the underlying database.
func (a *LevelDBLedgerAdapter) Close() error {
	return a.db.Close()
}
