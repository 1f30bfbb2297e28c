package anonymization

import (
	"strings"

	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/entities"
)

// fieldAliases declares, per canonical field, the recognized source
// synonyms in priority order. Lookup is case-insensitive and the first
// non-empty match wins. Every downstream stage works against the canonical
// keys only; this table is the single place new source vocabularies get
// registered.
var fieldAliases = []struct {
	Canonical string
	Aliases   []string
}{
	{entities.FieldPatientName, []string{"Patient Name", "Name", "Full Name", "patient_name"}},
	{entities.FieldPatientID, []string{"Patient ID", "PatientID", "PID", "MRN", "Medical Record Number", "patient_id"}},
	{entities.FieldAddress, []string{"Address", "City", "Location", "Residence", "address"}},
	{entities.FieldPhoneNumber, []string{"Phone Number", "Phone", "Telephone", "Mobile", "phone"}},
	{entities.FieldDateOfBirth, []string{"Date of Birth", "DOB", "Birth Date", "Birthdate", "date_of_birth"}},
	{entities.FieldAge, []string{"Age", "Patient Age", "age"}},
	{entities.FieldGender, []string{"Gender", "Sex", "gender"}},
	{entities.FieldOccupation, []string{"Occupation", "Job", "Profession", "occupation"}},
	{entities.FieldLabTest, []string{"Lab Test", "Test Name", "Test", "lab_test"}},
	{entities.FieldTestDate, []string{"Test Date", "Sample Date", "Collection Date", "test_date"}},
	{entities.FieldDiagnosisDate, []string{"Diagnosis Date", "Diagnosed On", "diagnosis_date"}},
	{entities.FieldEncounterDate, []string{"Encounter Date", "Visit Date", "encounter_date"}},
	{entities.FieldResult, []string{"Result", "Test Result", "Value", "result"}},
	{entities.FieldUnit, []string{"Unit", "Units", "unit"}},
	{entities.FieldReferenceRange, []string{"Reference Range", "Ref Range", "Normal Range", "reference_range"}},
}

// NormalizeFields resolves alias field names to the canonical record shape.
// Unresolved fields are simply absent from the output; nothing here decides
// whether a missing field is an error. Pure function, the input record is
// not modified.
func NormalizeFields(raw entities.RawRecord) entities.RawRecord {
	// Index the source keys case-insensitively, first occurrence wins.
	byKey := make(map[string]string, len(raw))
	for k, v := range raw {
		lk := strings.ToLower(strings.TrimSpace(k))
		if _, ok := byKey[lk]; !ok {
			byKey[lk] = strings.TrimSpace(v)
		}
	}

	out := make(entities.RawRecord, len(fieldAliases))
	for _, f := range fieldAliases {
		for _, alias := range f.Aliases {
			if v, ok := byKey[strings.ToLower(alias)]; ok && v != "" {
				out[f.Canonical] = v
				break
			}
		}
	}
	return out
}

// NormalizeBatch normalizes every record of a batch, preserving order.
func NormalizeBatch(batch []entities.RawRecord) []entities.RawRecord {
	out := make([]entities.RawRecord, len(batch))
	for i, rec := range batch {
		out[i] = NormalizeFields(rec)
	}
	return out
}
