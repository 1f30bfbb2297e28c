package anonymization

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/entities"
)

func TestAssignBatch_SequentialFirstSeenOrder(t *testing.T) {
	batch := []entities.RawRecord{
		{entities.FieldPatientID: "H-100"},
		{entities.FieldPatientID: "H-100"},
		{entities.FieldPatientID: "H-200"},
	}

	identityMap, perRecord := NewAssigner(nil).AssignBatch(batch)

	// Two records sharing a Patient ID get the identical identifier; the
	// new Patient ID gets the next sequential one.
	assert.Equal(t, []string{"PID-001", "PID-001", "PID-002"}, perRecord)
	assert.Equal(t, 2, identityMap.Len())
	assert.Equal(t, []string{"PID-001", "PID-002"}, identityMap.AnonymousIDs())
}

func TestAssignBatch_NameFallback(t *testing.T) {
	batch := []entities.RawRecord{
		{entities.FieldPatientName: "Jane Okello"},
		{entities.FieldPatientID: "H-300", entities.FieldPatientName: "Peter Ouma"},
		{entities.FieldPatientName: "Jane Okello"},
	}

	_, perRecord := NewAssigner(nil).AssignBatch(batch)

	assert.Equal(t, "PID-001", perRecord[0])
	assert.Equal(t, "PID-002", perRecord[1])
	assert.Equal(t, "PID-001", perRecord[2])
}

func TestAssignBatch_KeylessRecordsGetOwnIDs(t *testing.T) {
	batch := []entities.RawRecord{
		{entities.FieldLabTest: "CBC"},
		{entities.FieldLabTest: "CBC"},
	}

	_, perRecord := NewAssigner(nil).AssignBatch(batch)

	assert.NotEqual(t, perRecord[0], perRecord[1])
}

func TestAssignBatch_Deterministic(t *testing.T) {
	batch := []entities.RawRecord{
		{entities.FieldPatientID: "x"},
		{entities.FieldPatientID: "y"},
		{entities.FieldPatientID: "x"},
		{entities.FieldPatientID: "z"},
	}

	_, first := NewAssigner(nil).AssignBatch(batch)
	_, second := NewAssigner(nil).AssignBatch(batch)

	assert.Equal(t, first, second)
}

func TestAssignBatch_PreResolvedIdentities(t *testing.T) {
	batch := []entities.RawRecord{
		{entities.FieldPatientID: "H-100"},
		{entities.FieldPatientID: "H-200"},
	}
	resolved := map[string]string{"H-100": "PID-A1B2C3D4E5F6"}

	identityMap, perRecord := NewAssigner(resolved).AssignBatch(batch)

	assert.Equal(t, "PID-A1B2C3D4E5F6", perRecord[0])
	// Unresolved keys still get sequential assignment.
	assert.Equal(t, "PID-001", perRecord[1])
	assert.Equal(t, 2, identityMap.Len())
}

func TestSaltedIdentities_StableAndSaltSensitive(t *testing.T) {
	batch := []entities.RawRecord{
		{entities.FieldPatientID: "H-100"},
		{entities.FieldPatientID: "H-200"},
	}

	a := SaltedIdentities(batch, "hospital-salt")
	b := SaltedIdentities(batch, "hospital-salt")
	c := SaltedIdentities(batch, "other-salt")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a["H-100"], c["H-100"])
	assert.NotEqual(t, a["H-100"], a["H-200"])
	assert.Regexp(t, `^PID-[0-9A-F]{12}$`, a["H-100"])
}

func TestSaltedResolver_ResolveBatch(t *testing.T) {
	batch := []entities.RawRecord{
		{entities.FieldPatientID: "H-100"},
		{entities.FieldPatientID: "H-200"},
	}

	resolved, err := NewSaltedResolver("pepper").ResolveBatch(context.Background(), batch)
	assert.NoError(t, err)
	assert.Equal(t, SaltedIdentities(batch, "pepper"), resolved)
	assert.Len(t, resolved, 2)
}
