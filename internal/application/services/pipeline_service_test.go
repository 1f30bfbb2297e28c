package services

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/adapters/ledger"
	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/anonymization"
	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/entities"
	apperrors "github.com/zatekoja/Patientrecordanonymizationdesign/pkg/errors"
)

type fakeStage1Store struct {
	saved   map[string][]*entities.Stage1Record
	saveErr error
}

func newFakeStage1Store() *fakeStage1Store {
	return &fakeStage1Store{saved: make(map[string][]*entities.Stage1Record)}
}

func (s *fakeStage1Store) SaveBatch(ctx context.Context, batchID, hospitalID string, records []*entities.Stage1Record) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved[batchID] = records
	return nil
}

func (s *fakeStage1Store) ListByBatch(ctx context.Context, batchID string) ([]*entities.Stage1Record, error) {
	return s.saved[batchID], nil
}

func (s *fakeStage1Store) ListByAnonymousID(ctx context.Context, anonymousID string) ([]*entities.Stage1Record, error) {
	var out []*entities.Stage1Record
	for _, records := range s.saved {
		for _, r := range records {
			if r.AnonymousID == anonymousID {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

type fakeStage1Index struct {
	indexed  int
	indexErr error
}

func (s *fakeStage1Index) InitSchema(ctx context.Context) error { return nil }

func (s *fakeStage1Index) IndexBatch(ctx context.Context, batchID string, records []*entities.Stage1Record) error {
	if s.indexErr != nil {
		return s.indexErr
	}
	s.indexed += len(records)
	return nil
}

func testBatch(n int) []entities.RawRecord {
	batch := make([]entities.RawRecord, 0, n)
	names := []string{"Okello James", "Nakato Sarah", "Mugisha Peter", "Achen Grace", "Ssali David", "Apio Ruth", "Kato Brian", "Namutebi Joy"}
	for i := 0; i < n; i++ {
		batch = append(batch, entities.RawRecord{
			"Name":      names[i%len(names)],
			"PID":       "MRN-" + string(rune('A'+i)),
			"Age":       "46",
			"Sex":       "male",
			"Job":       "Teacher",
			"City":      "Kampala, Uganda",
			"Test Name": "HbA1c",
			"Test Date": "2024-03-15",
			"Value":     "6.83",
			"Unit":      "%",
		})
	}
	return batch
}

func testContext() entities.HospitalContext {
	return entities.HospitalContext{Country: "Uganda", Location: "Kampala", HospitalID: "H-42"}
}

func TestProcessBatch_FullPipeline(t *testing.T) {
	store := newFakeStage1Store()
	index := &fakeStage1Index{}
	memLedger := ledger.NewMemoryLedgerAdapter()
	service := NewPipelineService(store, index, memLedger, nil, zerolog.Nop())

	result, err := service.ProcessBatch(context.Background(), testBatch(6), testContext(), PipelineOptions{K: 5})
	require.NoError(t, err)

	require.Len(t, result.Stage1, 6)
	require.Len(t, result.Stage2, 6)
	require.Len(t, result.Provenance, 6)
	require.Len(t, result.LedgerRefs, 6)
	assert.Equal(t, 0, result.Excluded)
	assert.Empty(t, result.Suppressed)

	// Aliased source fields landed on canonical attributes.
	first := result.Stage1[0]
	assert.Equal(t, "PID-001", first.AnonymousID)
	assert.Equal(t, "45-49", first.AgeRange)
	assert.Equal(t, "Uganda", first.Country)
	assert.Equal(t, "Kampala", first.Region)
	assert.Equal(t, "Male", first.Gender)
	assert.Equal(t, "Education", first.OccupationCategory)
	assert.Equal(t, "HbA1c", first.Clinical[entities.FieldLabTest])

	// No direct identifier survives into storage output.
	for _, rec := range result.Stage1 {
		for _, v := range rec.Clinical {
			assert.NotContains(t, v, "Okello")
			assert.NotContains(t, v, "MRN-")
		}
	}

	// Stage-2 is strictly coarser and index-aligned with Stage-1.
	assert.Equal(t, "40-49", result.Stage2[0].AgeRange)
	assert.Equal(t, "2024-03", result.Stage2[0].Clinical[entities.FieldTestDate])
	assert.Equal(t, "6.8", result.Stage2[0].Clinical[entities.FieldResult])
	assert.Equal(t, result.Stage1[0].AnonymousID, result.Stage2[0].AnonymousID)

	// Provenance binds both digests and verifies end to end.
	for i, prov := range result.Provenance {
		assert.Equal(t, result.Stage1[i].AnonymousID, prov.AnonymousPatientID)
		assert.Equal(t, prov.Storage.Hash, prov.Chain.DerivedFrom)
		assert.True(t, anonymization.VerifyProof(prov))
	}

	// Stage-1 output reached the store and the index.
	assert.Len(t, store.saved[result.BatchID], 6)
	assert.Equal(t, 6, index.indexed)

	// Every record was submitted and the batch root anchored.
	assert.Len(t, memLedger.Entries(), 6)
	root, ok := memLedger.AnchorRoot(result.BatchID)
	assert.True(t, ok)
	assert.Equal(t, result.BatchRoot, root)
	assert.NotEmpty(t, result.BatchRoot)
}

func TestProcessBatch_EmptyBatch(t *testing.T) {
	service := NewPipelineService(nil, nil, nil, nil, zerolog.Nop())

	_, err := service.ProcessBatch(context.Background(), nil, testContext(), PipelineOptions{})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidInput))
}

func TestProcessBatch_ExcludesUngeneralizableRecords(t *testing.T) {
	batch := testBatch(6)
	// No age, no date of birth: cannot be generalized.
	batch[2] = entities.RawRecord{
		"Name": "No Age",
		"Sex":  "female",
		"City": "Kampala",
	}

	service := NewPipelineService(nil, nil, nil, nil, zerolog.Nop())
	result, err := service.ProcessBatch(context.Background(), batch, testContext(), PipelineOptions{K: 5})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Excluded)
	assert.Len(t, result.Stage1, 5)
	require.NotEmpty(t, result.Warnings)
	assert.Equal(t, entities.WarningRecordExcluded, result.Warnings[0].Code)
	// The excluded slot still consumed its sequential identifier.
	assert.Equal(t, "PID-004", result.Stage1[2].AnonymousID)
}

func TestProcessBatch_StrictAbortsOnFailure(t *testing.T) {
	batch := testBatch(6)
	batch[2] = entities.RawRecord{"Name": "No Age", "City": "Kampala"}

	service := NewPipelineService(nil, nil, nil, nil, zerolog.Nop())
	_, err := service.ProcessBatch(context.Background(), batch, testContext(), PipelineOptions{K: 5, Strict: true})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeMissingAttribute))
}

func TestProcessBatch_BatchBelowKIsSkipped(t *testing.T) {
	service := NewPipelineService(nil, nil, nil, nil, zerolog.Nop())
	result, err := service.ProcessBatch(context.Background(), testBatch(3), testContext(), PipelineOptions{K: 5})
	require.NoError(t, err)

	assert.Len(t, result.Stage1, 3)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, entities.WarningPrivacyConstraint, result.Warnings[0].Code)
}

func TestProcessBatch_SuppressesSmallGroups(t *testing.T) {
	batch := testBatch(6)
	// One record lands in a group of its own.
	batch[5]["Age"] = "82"

	service := NewPipelineService(nil, nil, nil, nil, zerolog.Nop())
	result, err := service.ProcessBatch(context.Background(), batch, testContext(), PipelineOptions{K: 5})
	require.NoError(t, err)

	assert.Len(t, result.Stage1, 5)
	require.Len(t, result.Suppressed, 1)
	assert.Equal(t, "80-84", result.Suppressed[0].AgeRange)
	assert.Equal(t, 1, result.Suppressed[0].Size)
}

func TestProcessBatch_StoreFailureFailsBatch(t *testing.T) {
	store := newFakeStage1Store()
	store.saveErr = errors.New("connection refused")

	service := NewPipelineService(store, nil, nil, nil, zerolog.Nop())
	_, err := service.ProcessBatch(context.Background(), testBatch(6), testContext(), PipelineOptions{K: 5})
	assert.Error(t, err)
}

func TestProcessBatch_IndexFailureIsBestEffort(t *testing.T) {
	index := &fakeStage1Index{indexErr: errors.New("typesense unavailable")}

	service := NewPipelineService(nil, index, nil, nil, zerolog.Nop())
	result, err := service.ProcessBatch(context.Background(), testBatch(6), testContext(), PipelineOptions{K: 5})
	require.NoError(t, err)
	assert.Len(t, result.Stage1, 6)
}

func TestProcessBatch_Deterministic(t *testing.T) {
	service := NewPipelineService(nil, nil, nil, nil, zerolog.Nop())

	first, err := service.ProcessBatch(context.Background(), testBatch(6), testContext(), PipelineOptions{K: 5})
	require.NoError(t, err)
	second, err := service.ProcessBatch(context.Background(), testBatch(6), testContext(), PipelineOptions{K: 5})
	require.NoError(t, err)

	require.Len(t, second.Provenance, len(first.Provenance))
	for i := range first.Provenance {
		assert.Equal(t, first.Provenance[i].Proof, second.Provenance[i].Proof)
		assert.Equal(t, first.Provenance[i].Storage.Hash, second.Provenance[i].Storage.Hash)
	}
	assert.Equal(t, first.BatchRoot, second.BatchRoot)
	assert.NotEqual(t, first.BatchID, second.BatchID)
}

func TestProcessBatch_PreResolvedIdentities(t *testing.T) {
	batch := testBatch(2)
	service := NewPipelineService(nil, nil, nil, nil, zerolog.Nop())

	result, err := service.ProcessBatch(context.Background(), batch, testContext(), PipelineOptions{
		K:                  5,
		ResolvedIdentities: map[string]string{"MRN-A": "PID-777"},
	})
	require.NoError(t, err)
	assert.Equal(t, "PID-777", result.Stage1[0].AnonymousID)
	assert.Equal(t, "PID-001", result.Stage1[1].AnonymousID)
}
