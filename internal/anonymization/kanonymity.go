package anonymization

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/entities"
)

// DefaultK is the default group-size privacy bound.
const DefaultK = 5

// Enforcer applies suppression-only k-anonymity over the quasi-identifier
// tuple (country, age range, gender, occupation category). Under-sized
// groups are removed wholesale; no generalization widening is attempted to
// rescue them.
type Enforcer struct {
	k      int
	logger zerolog.Logger
}

// NewEnforcer creates an enforcer. k values below 2 fall back to DefaultK.
func NewEnforcer(k int, logger zerolog.Logger) *Enforcer {
	if k < 2 {
		k = DefaultK
	}
	return &Enforcer{k: k, logger: logger}
}

// EnforcementResult is the outcome of one enforcement pass.
type EnforcementResult struct {
	// Records are the surviving records, in input order.
	Records []*entities.Stage1Record

	// Suppressed reports each removed group by its generalized tuple.
	Suppressed []entities.SuppressedGroup

	// Skipped is true when the whole batch was below k and enforcement was
	// bypassed with a privacy warning.
	Skipped bool
}

// Enforce groups records by quasi-identifier tuple and suppresses groups
// smaller than k. When the total batch is itself smaller than k,
// enforcement is skipped entirely and all records pass through; the caller
// is expected to surface the skip as a privacy warning.
func (e *Enforcer) Enforce(records []*entities.Stage1Record) EnforcementResult {
	if len(records) < e.k {
		e.logger.Warn().
			Int("batch_size", len(records)).
			Int("k", e.k).
			Msg("batch below k, skipping k-anonymity enforcement")
		return EnforcementResult{Records: records, Skipped: true}
	}

	sizes := make(map[string]int, len(records))
	firstSeen := make([]string, 0, len(records))
	for _, rec := range records {
		key := rec.QuasiKey()
		if sizes[key] == 0 {
			firstSeen = append(firstSeen, key)
		}
		sizes[key]++
	}

	kept := make([]*entities.Stage1Record, 0, len(records))
	for _, rec := range records {
		if sizes[rec.QuasiKey()] >= e.k {
			kept = append(kept, rec)
		}
	}

	var suppressed []entities.SuppressedGroup
	byKey := make(map[string]*entities.Stage1Record, len(records))
	for _, rec := range records {
		if _, ok := byKey[rec.QuasiKey()]; !ok {
			byKey[rec.QuasiKey()] = rec
		}
	}
	for _, key := range firstSeen {
		if sizes[key] >= e.k {
			continue
		}
		rec := byKey[key]
		suppressed = append(suppressed, entities.SuppressedGroup{
			Country:            rec.Country,
			AgeRange:           rec.AgeRange,
			Gender:             rec.Gender,
			OccupationCategory: rec.OccupationCategory,
			Size:               sizes[key],
		})
		e.logger.Info().
			Str("age_range", rec.AgeRange).
			Str("country", rec.Country).
			Int("group_size", sizes[key]).
			Int("k", e.k).
			Msg("suppressed under-sized quasi-identifier group")
	}

	return EnforcementResult{Records: kept, Suppressed: suppressed}
}

// Validate checks the k-anonymity invariant on a record set: every
// quasi-identifier group is either empty or has at least k members.
func Validate(records []*entities.Stage1Record, k int) error {
	sizes := make(map[string]int, len(records))
	for _, rec := range records {
		sizes[rec.QuasiKey()]++
	}
	for key, size := range sizes {
		if size < k {
			return fmt.Errorf("quasi-identifier group %q has size %d, below k=%d", key, size, k)
		}
	}
	return nil
}
