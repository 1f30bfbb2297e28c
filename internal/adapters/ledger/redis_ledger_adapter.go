package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/entities"
	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/providers"
	redisclient "github.com/zatekoja/Patientrecordanonymizationdesign/internal/infrastructure/clients/redis"
)

const anchorStreamSuffix = ":anchors"

// RedisLedgerAdapter submits provenance records to a Redis Stream. Streams
// are append-only, so stream entry IDs double as submission references.
type RedisLedgerAdapter struct {
	client *redisclient.Client
	stream string
}

// Ensure RedisLedgerAdapter implements LedgerProvider
var _ providers.LedgerProvider = (*RedisLedgerAdapter)(nil)

// NewRedisLedgerAdapter creates a new Redis Streams ledger adapter.
func NewRedisLedgerAdapter(client *redisclient.Client, stream string) *RedisLedgerAdapter {
	return &RedisLedgerAdapter{client: client, stream: stream}
}

// Submit appends one provenance record to the stream and returns the
// stream entry ID as the submission reference.
func (a *RedisLedgerAdapter) Submit(ctx context.Context, record *entities.ProvenanceRecord) (string, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to marshal provenance record: %w", err)
	}

	id, err := a.client.Client().XAdd(ctx, &redis.XAddArgs{
		Stream: a.stream,
		Values: map[string]interface{}{
			"storage_hash":  record.Storage.Hash,
			"chain_hash":    record.Chain.Hash,
			"anonymous_pid": record.AnonymousPatientID,
			"resource_type": record.ResourceType,
			"proof":         record.Proof,
			"payload":       payload,
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to append provenance record: %w", err)
	}

	return id, nil
}

// Anchor appends a batch anchor entry to the companion anchors stream.
func (a *RedisLedgerAdapter) Anchor(ctx context.Context, batchID, merkleRoot string, recordCount int) (string, error) {
	id, err := a.client.Client().XAdd(ctx, &redis.XAddArgs{
		Stream: a.stream + anchorStreamSuffix,
		Values: map[string]interface{}{
			"batch_id":     batchID,
			"merkle_root":  merkleRoot,
			"record_count": recordCount,
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to append batch anchor: %w", err)
	}

	return id, nil
}

// Close is a no-op; the shared Redis client is owned by the caller.
func (a *RedisLedgerAdapter) Close() error {
	return nil
}
