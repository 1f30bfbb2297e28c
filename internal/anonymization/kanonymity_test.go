package anonymization

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/entities"
)

func stage1(anonID, country, ageRange, gender, occupation string) *entities.Stage1Record {
	return &entities.Stage1Record{
		AnonymousID:        anonID,
		Country:            country,
		AgeRange:           ageRange,
		Gender:             gender,
		OccupationCategory: occupation,
	}
}

func TestEnforce_RetainsGroupsAtOrAboveK(t *testing.T) {
	// Six records sharing one quasi-identifier tuple, k=5: all retained.
	records := make([]*entities.Stage1Record, 6)
	for i := range records {
		records[i] = stage1(fmt.Sprintf("PID-%03d", i+1), "Uganda", "45-49", GenderFemale, OccupationHealthcare)
	}

	result := NewEnforcer(5, zerolog.Nop()).Enforce(records)

	assert.Len(t, result.Records, 6)
	assert.Empty(t, result.Suppressed)
	assert.False(t, result.Skipped)
}

func TestEnforce_SuppressesUndersizedGroups(t *testing.T) {
	records := make([]*entities.Stage1Record, 0, 8)
	for i := 0; i < 5; i++ {
		records = append(records, stage1(fmt.Sprintf("PID-%03d", i+1), "Uganda", "45-49", GenderFemale, OccupationHealthcare))
	}
	for i := 5; i < 8; i++ {
		records = append(records, stage1(fmt.Sprintf("PID-%03d", i+1), "Kenya", "30-34", GenderMale, OccupationService))
	}

	result := NewEnforcer(5, zerolog.Nop()).Enforce(records)

	assert.Len(t, result.Records, 5)
	require.Len(t, result.Suppressed, 1)
	assert.Equal(t, "Kenya", result.Suppressed[0].Country)
	assert.Equal(t, 3, result.Suppressed[0].Size)

	// No surviving record belongs to the suppressed tuple.
	for _, rec := range result.Records {
		assert.Equal(t, "Uganda", rec.Country)
	}
}

func TestEnforce_Invariant(t *testing.T) {
	// Mixed groups of varying sizes: after enforcement, every remaining
	// group is either empty or at least k.
	var records []*entities.Stage1Record
	groupSizes := []int{1, 2, 5, 7, 3, 6}
	for g, size := range groupSizes {
		for i := 0; i < size; i++ {
			records = append(records, stage1(
				fmt.Sprintf("PID-%d-%d", g, i),
				"Uganda",
				fmt.Sprintf("%d-%d", g*10, g*10+4),
				GenderMale,
				OccupationOther,
			))
		}
	}

	result := NewEnforcer(5, zerolog.Nop()).Enforce(records)

	assert.NoError(t, Validate(result.Records, 5))
	assert.Len(t, result.Suppressed, 3)
}

func TestEnforce_BatchBelowKSkipsEnforcement(t *testing.T) {
	// Three records total, k=5: enforcement is skipped entirely and all
	// three come back, flagged.
	records := []*entities.Stage1Record{
		stage1("PID-001", "Uganda", "45-49", GenderFemale, OccupationHealthcare),
		stage1("PID-002", "Kenya", "30-34", GenderMale, OccupationService),
		stage1("PID-003", "Uganda", "20-24", GenderOther, OccupationStudent),
	}

	result := NewEnforcer(5, zerolog.Nop()).Enforce(records)

	assert.Len(t, result.Records, 3)
	assert.True(t, result.Skipped)
	assert.Empty(t, result.Suppressed)
}

func TestEnforce_PreservesInputOrder(t *testing.T) {
	var records []*entities.Stage1Record
	for i := 0; i < 10; i++ {
		records = append(records, stage1(fmt.Sprintf("PID-%03d", i+1), "Uganda", "45-49", GenderFemale, OccupationHealthcare))
	}

	result := NewEnforcer(5, zerolog.Nop()).Enforce(records)

	require.Len(t, result.Records, 10)
	for i, rec := range result.Records {
		assert.Equal(t, fmt.Sprintf("PID-%03d", i+1), rec.AnonymousID)
	}
}

func TestValidate_DetectsViolation(t *testing.T) {
	records := []*entities.Stage1Record{
		stage1("PID-001", "Uganda", "45-49", GenderFemale, OccupationHealthcare),
	}
	assert.Error(t, Validate(records, 5))
	assert.NoError(t, Validate(nil, 5))
}
