package anonymization

import (
	"time"

	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/entities"
	apperrors "github.com/zatekoja/Patientrecordanonymizationdesign/pkg/errors"
)

// Composer assembles provenance records binding a storage digest to its
// derived chain digest. Composition never fails silently: a missing input
// hash is a correctness violation and raises.
type Composer struct {
	now func() time.Time
}

// NewComposer creates a composer using the wall clock.
func NewComposer() *Composer {
	return &Composer{now: time.Now}
}

// NewComposerAt creates a composer with a fixed reference time.
func NewComposerAt(now time.Time) *Composer {
	return &Composer{now: func() time.Time { return now }}
}

// Compose builds the provenance record for one resource. derivedFrom is
// always the storage hash; the proof is recomputable from the two hashes
// and the identifiers alone.
func (c *Composer) Compose(storageHash, chainHash, anonymousID, resourceType, hospitalID string) (*entities.ProvenanceRecord, error) {
	if storageHash == "" {
		return nil, apperrors.NewValidationError("provenance composition requires a storage hash")
	}
	if chainHash == "" {
		return nil, apperrors.NewValidationError("provenance composition requires a chain hash")
	}

	now := c.now().UTC()
	return &entities.ProvenanceRecord{
		Storage: entities.StageDigest{
			Hash:               storageHash,
			AnonymizationLevel: entities.LevelStorage,
			Timestamp:          now,
		},
		Chain: entities.StageDigest{
			Hash:               chainHash,
			AnonymizationLevel: entities.LevelChain,
			DerivedFrom:        storageHash,
			Timestamp:          now,
		},
		AnonymousPatientID: anonymousID,
		ResourceType:       resourceType,
		HospitalID:         hospitalID,
		Timestamp:          now,
		Proof:              ComputeProof(storageHash, chainHash, anonymousID, resourceType),
	}, nil
}

// ComputeProof digests the concatenation of the two stage hashes and the
// identifiers. Any party holding these four values can recompute it.
func ComputeProof(storageHash, chainHash, anonymousID, resourceType string) string {
	return sha256Hex([]byte(storageHash + chainHash + anonymousID + resourceType))
}

// VerifyProof recomputes the proof of a provenance record and reports
// whether it matches and the chain digest still points at the storage
// digest.
func VerifyProof(p *entities.ProvenanceRecord) bool {
	if p == nil || p.Chain.DerivedFrom != p.Storage.Hash {
		return false
	}
	return p.Proof == ComputeProof(p.Storage.Hash, p.Chain.Hash, p.AnonymousPatientID, p.ResourceType)
}
