package entities

import "strings"

// Canonical field names for raw medical records. All pipeline stages work
// against these keys; the field normalizer maps source synonyms onto them.
const (
	FieldPatientName    = "Patient Name"
	FieldPatientID      = "Patient ID"
	FieldAddress        = "Address"
	FieldPhoneNumber    = "Phone Number"
	FieldDateOfBirth    = "Date of Birth"
	FieldAge            = "Age"
	FieldGender         = "Gender"
	FieldOccupation     = "Occupation"
	FieldLabTest        = "Lab Test"
	FieldTestDate       = "Test Date"
	FieldDiagnosisDate  = "Diagnosis Date"
	FieldEncounterDate  = "Encounter Date"
	FieldResult         = "Result"
	FieldUnit           = "Unit"
	FieldReferenceRange = "Reference Range"
)

// DirectIdentifierFields are the fields that must never survive into a
// Stage1Record.
var DirectIdentifierFields = []string{
	FieldPatientName,
	FieldPatientID,
	FieldAddress,
	FieldPhoneNumber,
	FieldDateOfBirth,
}

// ClinicalFields are the non-identifying fields carried through to storage.
var ClinicalFields = []string{
	FieldLabTest,
	FieldTestDate,
	FieldDiagnosisDate,
	FieldEncounterDate,
	FieldResult,
	FieldUnit,
	FieldReferenceRange,
}

// RawRecord is one identifiable record as produced by the extraction
// collaborator: canonical field name to value. It is consumed once and
// never persisted.
type RawRecord map[string]string

// Get returns the trimmed value for a field, empty if absent.
func (r RawRecord) Get(field string) string {
	return strings.TrimSpace(r[field])
}

// Has reports whether the field is present and non-empty.
func (r RawRecord) Has(field string) bool {
	return r.Get(field) != ""
}

// Clone returns a shallow copy of the record.
func (r RawRecord) Clone() RawRecord {
	out := make(RawRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// HospitalContext is supplied once per batch and used as a generalization
// fallback when a record carries no resolvable location of its own.
type HospitalContext struct {
	Country    string `json:"country"`
	Location   string `json:"location,omitempty"`
	HospitalID string `json:"hospital_id,omitempty"`
}

// Stage1Record is the storage-anonymized representation: all direct
// identifiers removed, demographics generalized at query granularity.
type Stage1Record struct {
	AnonymousID        string            `json:"anonymous_pid" db:"anonymous_pid"`
	AgeRange           string            `json:"age_range" db:"age_range"`
	Country            string            `json:"country" db:"country"`
	Region             string            `json:"region,omitempty" db:"region"`
	Gender             string            `json:"gender" db:"gender"`
	OccupationCategory string            `json:"occupation_category" db:"occupation_category"`
	Clinical           map[string]string `json:"clinical,omitempty"`
}

// QuasiKey returns the grouping key over the quasi-identifier tuple
// (country, age range, gender, occupation category).
func (r *Stage1Record) QuasiKey() string {
	return strings.Join([]string{r.Country, r.AgeRange, r.Gender, r.OccupationCategory}, "|")
}

// Clone returns a deep copy of the record.
func (r *Stage1Record) Clone() *Stage1Record {
	out := *r
	if r.Clinical != nil {
		out.Clinical = make(map[string]string, len(r.Clinical))
		for k, v := range r.Clinical {
			out.Clinical[k] = v
		}
	}
	return &out
}

// Stage2Record is the chain-anonymized representation, derived only from a
// Stage1Record and strictly coarser than it: 10-year age buckets,
// month-precision dates, country-only location, broader occupation buckets,
// rounded numeric results.
type Stage2Record struct {
	AnonymousID        string            `json:"anonymous_pid"`
	AgeRange           string            `json:"age_range"`
	Country            string            `json:"country"`
	Gender             string            `json:"gender"`
	OccupationCategory string            `json:"occupation_category"`
	Clinical           map[string]string `json:"clinical,omitempty"`
}
