//go:build integration

package integration

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/adapters/ledger"
	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/entities"
	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/infrastructure/clients/redis"
	"github.com/zatekoja/Patientrecordanonymizationdesign/pkg/config"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func newTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	cfg := &config.RedisConfig{
		Host:     getEnv("TEST_REDIS_HOST", "localhost"),
		Port:     getEnvAsInt("TEST_REDIS_PORT", 6379),
		Password: getEnv("TEST_REDIS_PASSWORD", ""),
		DB:       getEnvAsInt("TEST_REDIS_DB", 0),
	}

	client, err := redis.NewClient(cfg)
	require.NoError(t, err, "Failed to create redis client")
	return client
}

func TestRedisLedger_SubmitAndAnchor(t *testing.T) {
	client := newTestRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	stream := "test:ledger:" + strconv.FormatInt(time.Now().UnixNano(), 10)
	defer client.Client().Del(ctx, stream, stream+":anchors")

	adapter := ledger.NewRedisLedgerAdapter(client, stream)

	now := time.Now().UTC()
	record := &entities.ProvenanceRecord{
		Storage: entities.StageDigest{
			Hash:               "a1b2c3",
			AnonymizationLevel: entities.LevelStorage,
			Timestamp:          now,
		},
		Chain: entities.StageDigest{
			Hash:               "d4e5f6",
			AnonymizationLevel: entities.LevelChain,
			DerivedFrom:        "a1b2c3",
			Timestamp:          now,
		},
		AnonymousPatientID: "PID-001",
		ResourceType:       "DiagnosticReport",
		Timestamp:          now,
		Proof:              "proof-1",
	}

	ref, err := adapter.Submit(ctx, record)
	require.NoError(t, err)
	assert.NotEmpty(t, ref)

	entries, err := client.Client().XRange(ctx, stream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "PID-001", entries[0].Values["anonymous_pid"])
	assert.Equal(t, "proof-1", entries[0].Values["proof"])

	_, err = adapter.Anchor(ctx, "batch-1", "root-hash", 1)
	require.NoError(t, err)

	anchors, err := client.Client().XRange(ctx, stream+":anchors", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, anchors, 1)
	assert.Equal(t, "root-hash", anchors[0].Values["merkle_root"])
}
