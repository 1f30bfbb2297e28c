package entities

import "time"

// Anonymization levels carried on stage digests.
const (
	LevelStorage = "storage"
	LevelChain   = "chain"
)

// StageDigest describes one anonymization stage of a resource: its content
// hash, the stage level, and for the chain stage the storage hash it was
// derived from.
type StageDigest struct {
	Hash               string    `json:"hash"`
	AnonymizationLevel string    `json:"anonymizationLevel"`
	DerivedFrom        string    `json:"derivedFrom,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
}

// ProvenanceRecord binds a Stage-1 digest to its derived Stage-2 digest.
// Proof is recomputable by any party holding the two hashes and the
// identifiers, without access to the underlying data.
type ProvenanceRecord struct {
	Storage            StageDigest `json:"storage"`
	Chain              StageDigest `json:"chain"`
	AnonymousPatientID string      `json:"anonymousPatientId"`
	ResourceType       string      `json:"resourceType"`
	HospitalID         string      `json:"hospitalId,omitempty"`
	Timestamp          time.Time   `json:"timestamp"`
	Proof              string      `json:"provenanceProof"`
}
