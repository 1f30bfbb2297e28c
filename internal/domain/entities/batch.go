package entities

// WarningCode identifies a non-fatal pipeline signal.
type WarningCode string

const (
	// WarningPrivacyConstraint signals that the total batch size was below k
	// and group-wise enforcement was skipped.
	WarningPrivacyConstraint WarningCode = "PRIVACY_CONSTRAINT"

	// WarningRecordExcluded signals that a record failed generalization and
	// was dropped from the batch.
	WarningRecordExcluded WarningCode = "RECORD_EXCLUDED"

	// WarningUnparseableDate signals a date field left untouched because it
	// could not be parsed.
	WarningUnparseableDate WarningCode = "UNPARSEABLE_DATE"
)

// BatchWarning is surfaced to the caller alongside the batch result.
type BatchWarning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
}

// SuppressedGroup reports one quasi-identifier group removed by k-anonymity
// enforcement. It carries only the generalized tuple and the group size,
// never the records themselves.
type SuppressedGroup struct {
	Country            string `json:"country"`
	AgeRange           string `json:"age_range"`
	Gender             string `json:"gender"`
	OccupationCategory string `json:"occupation_category"`
	Size               int    `json:"size"`
}

// BatchResult is everything the pipeline produces for one batch. Stage1
// holds the enforced storage output; Stage2 and Provenance are index-aligned
// with Stage1.
type BatchResult struct {
	BatchID    string              `json:"batch_id"`
	HospitalID string              `json:"hospital_id,omitempty"`
	Stage1     []*Stage1Record     `json:"stage1"`
	Stage2     []*Stage2Record     `json:"stage2"`
	Provenance []*ProvenanceRecord `json:"provenance"`
	BatchRoot  string              `json:"batch_root,omitempty"`
	LedgerRefs []string            `json:"ledger_refs,omitempty"`
	Suppressed []SuppressedGroup   `json:"suppressed,omitempty"`
	Excluded   int                 `json:"excluded"`
	Warnings   []BatchWarning      `json:"warnings,omitempty"`
}
