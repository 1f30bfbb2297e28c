package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/anonymization"
	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/entities"
	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/providers"
	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/repositories"
	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/Patientrecordanonymizationdesign/pkg/errors"
)

// PipelineOptions configures one batch run.
type PipelineOptions struct {
	// K is the group-size privacy bound; values below 2 use the default.
	K int

	// Strict aborts the whole batch on the first per-record
	// generalization failure instead of excluding the record.
	Strict bool

	// ResourceType labels the provenance records, e.g. "DiagnosticReport".
	ResourceType string

	// ResolvedIdentities carries externally pre-resolved anonymous
	// identifiers keyed by original patient key. Resolution must have
	// happened before the batch enters the pipeline.
	ResolvedIdentities map[string]string
}

// PipelineService runs the two-stage anonymization and provenance pipeline
// for one batch at a time. The store, index and ledger collaborators are
// all optional; a nil collaborator skips that hand-off. Batches share no
// mutable state, so independent batches may run concurrently on separate
// service calls.
type PipelineService struct {
	store   repositories.Stage1Repository
	index   repositories.Stage1IndexRepository
	ledger  providers.LedgerProvider
	metrics *observability.Metrics
	logger  zerolog.Logger
}

// NewPipelineService creates a new pipeline service.
func NewPipelineService(
	store repositories.Stage1Repository,
	index repositories.Stage1IndexRepository,
	ledger providers.LedgerProvider,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *PipelineService {
	return &PipelineService{
		store:   store,
		index:   index,
		ledger:  ledger,
		metrics: metrics,
		logger:  logger,
	}
}

// ProcessBatch runs the full pipeline over one ordered batch:
// normalization, demographic generalization, identity assignment,
// k-anonymity enforcement (Stage-1 hand-off to storage), chain
// generalization, hashing and provenance submission.
//
// An error return means the batch must be treated as not processed; the
// caller discards any partial result rather than persisting half an
// anonymized batch.
func (s *PipelineService) ProcessBatch(ctx context.Context, batch []entities.RawRecord, hctx entities.HospitalContext, opts PipelineOptions) (*entities.BatchResult, error) {
	started := time.Now()

	if len(batch) == 0 {
		return nil, apperrors.NewInvalidInputError("batch contains no records")
	}
	if opts.ResourceType == "" {
		opts.ResourceType = "DiagnosticReport"
	}
	if opts.K < 2 {
		opts.K = anonymization.DefaultK
	}

	result := &entities.BatchResult{
		BatchID:    uuid.New().String(),
		HospitalID: hctx.HospitalID,
	}
	logger := s.logger.With().Str("batch_id", result.BatchID).Logger()

	normalized := anonymization.NormalizeBatch(batch)

	// Identity assignment needs the whole ordered batch before any
	// downstream step runs: the sequence depends on first-seen order.
	assigner := anonymization.NewAssigner(opts.ResolvedIdentities)
	_, anonymousIDs := assigner.AssignBatch(normalized)

	generalizer := anonymization.NewGeneralizer()
	candidates := make([]*entities.Stage1Record, 0, len(normalized))
	for i, rec := range normalized {
		demographics, err := generalizer.Generalize(rec, hctx)
		if err != nil {
			if opts.Strict {
				return nil, fmt.Errorf("record %s failed generalization: %w", anonymousIDs[i], err)
			}
			// Only the anonymous identifier may appear in diagnostics once
			// the record is inside the anonymization boundary.
			logger.Warn().
				Str("anonymous_pid", anonymousIDs[i]).
				Err(err).
				Msg("excluding record from batch")
			result.Excluded++
			result.Warnings = append(result.Warnings, entities.BatchWarning{
				Code:    entities.WarningRecordExcluded,
				Message: fmt.Sprintf("record %s excluded: %v", anonymousIDs[i], err),
			})
			continue
		}
		candidates = append(candidates, buildStage1(rec, demographics, anonymousIDs[i], hctx))
	}

	if len(candidates) == 0 {
		return nil, apperrors.NewInvalidInputError("no record in the batch survived generalization")
	}

	enforcement := anonymization.NewEnforcer(opts.K, logger).Enforce(candidates)
	result.Stage1 = enforcement.Records
	result.Suppressed = enforcement.Suppressed
	if enforcement.Skipped {
		result.Warnings = append(result.Warnings, entities.BatchWarning{
			Code: entities.WarningPrivacyConstraint,
			Message: fmt.Sprintf(
				"batch size %d below k=%d; k-anonymity enforcement skipped", len(candidates), opts.K),
		})
	}

	if s.store != nil {
		if err := s.store.SaveBatch(ctx, result.BatchID, hctx.HospitalID, result.Stage1); err != nil {
			return nil, fmt.Errorf("failed to persist stage-1 output: %w", err)
		}
	}

	if s.index != nil {
		// Indexing is eventual-consistency territory: log and continue.
		if err := s.index.IndexBatch(ctx, result.BatchID, result.Stage1); err != nil {
			logger.Warn().Err(err).Msg("failed to index stage-1 output")
		}
	}

	composer := anonymization.NewComposer()
	storageHashes := make([]string, 0, len(result.Stage1))
	for _, rec := range result.Stage1 {
		for _, field := range anonymization.UnparseableDates(rec) {
			logger.Warn().
				Str("anonymous_pid", rec.AnonymousID).
				Str("field", field).
				Msg("date could not be parsed, passing through unchanged")
			result.Warnings = append(result.Warnings, entities.BatchWarning{
				Code:    entities.WarningUnparseableDate,
				Message: fmt.Sprintf("record %s: %s left unchanged, value not parseable as a date", rec.AnonymousID, field),
			})
		}

		stage2 := anonymization.ChainGeneralize(rec)
		result.Stage2 = append(result.Stage2, stage2)

		storageHash, err := anonymization.HashRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to hash stage-1 record %s: %w", rec.AnonymousID, err)
		}
		chainHash, err := anonymization.HashRecord(stage2)
		if err != nil {
			return nil, fmt.Errorf("failed to hash stage-2 record %s: %w", rec.AnonymousID, err)
		}
		storageHashes = append(storageHashes, storageHash)

		provenance, err := composer.Compose(storageHash, chainHash, rec.AnonymousID, opts.ResourceType, hctx.HospitalID)
		if err != nil {
			return nil, fmt.Errorf("failed to compose provenance for %s: %w", rec.AnonymousID, err)
		}
		result.Provenance = append(result.Provenance, provenance)

		if s.ledger != nil {
			ref, err := s.ledger.Submit(ctx, provenance)
			if err != nil {
				return nil, fmt.Errorf("failed to submit provenance for %s: %w", rec.AnonymousID, err)
			}
			result.LedgerRefs = append(result.LedgerRefs, ref)
		}
	}

	result.BatchRoot = anonymization.MerkleRoot(storageHashes)
	if s.ledger != nil && result.BatchRoot != "" {
		if _, err := s.ledger.Anchor(ctx, result.BatchID, result.BatchRoot, len(result.Stage1)); err != nil {
			return nil, fmt.Errorf("failed to anchor batch: %w", err)
		}
	}

	suppressedCount := 0
	for _, g := range result.Suppressed {
		suppressedCount += g.Size
	}
	observability.RecordBatchMetrics(ctx, s.metrics, hctx.HospitalID,
		len(result.Stage1), result.Excluded, suppressedCount, len(result.LedgerRefs), time.Since(started))

	logger.Info().
		Int("stage1_records", len(result.Stage1)).
		Int("excluded", result.Excluded).
		Int("suppressed", suppressedCount).
		Int("ledger_refs", len(result.LedgerRefs)).
		Msg("batch processed")

	return result, nil
}

// buildStage1 assembles the storage-anonymized record: demographics plus
// the surviving clinical fields. Direct identifiers never cross this
// boundary.
func buildStage1(rec entities.RawRecord, d anonymization.Demographics, anonymousID string, hctx entities.HospitalContext) *entities.Stage1Record {
	out := &entities.Stage1Record{
		AnonymousID:        anonymousID,
		AgeRange:           d.AgeRange,
		Country:            d.Country,
		Region:             hctx.Location,
		Gender:             d.Gender,
		OccupationCategory: d.OccupationCategory,
	}

	for _, field := range entities.ClinicalFields {
		if v := rec.Get(field); v != "" {
			if out.Clinical == nil {
				out.Clinical = make(map[string]string)
			}
			out.Clinical[field] = v
		}
	}
	return out
}
