package anonymization

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/entities"
	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/providers"
)

// anonymousIDPrefix is the token prefix for sequential assignment.
const anonymousIDPrefix = "PID"

// Assigner allocates batch-stable anonymous identifiers. Records are keyed
// by Patient ID, falling back to Patient Name; the first occurrence of a
// key gets the next sequential token and later occurrences reuse it.
//
// Callers that resolve identities externally (stable pseudonym plus a
// per-hospital salt) pass the fully pre-resolved mapping in; resolution
// always happens before the batch enters the pipeline, never mid-flight.
type Assigner struct {
	resolved map[string]string
}

// NewAssigner creates an assigner. resolved may be nil for pure sequential
// assignment.
func NewAssigner(resolved map[string]string) *Assigner {
	return &Assigner{resolved: resolved}
}

// AssignBatch walks the batch in input order and returns the identity map
// plus, per record, its resolved anonymous identifier (index-aligned with
// the batch).
func (a *Assigner) AssignBatch(batch []entities.RawRecord) (*entities.IdentityMap, []string) {
	identityMap := entities.NewIdentityMap()
	perRecord := make([]string, len(batch))
	next := 0

	for i, rec := range batch {
		key := recordKey(rec, i)

		if id, ok := identityMap.Resolve(key); ok {
			perRecord[i] = id
			continue
		}

		var id string
		if external, ok := a.resolved[key]; ok && external != "" {
			id = external
		} else {
			next++
			id = fmt.Sprintf("%s-%03d", anonymousIDPrefix, next)
		}

		identityMap.Put(key, id)
		perRecord[i] = id
	}

	return identityMap, perRecord
}

// recordKey keys a record by Patient ID, then Patient Name. A record with
// neither gets a positional key so it still receives its own identifier.
func recordKey(rec entities.RawRecord, index int) string {
	if id := rec.Get(entities.FieldPatientID); id != "" {
		return id
	}
	if name := rec.Get(entities.FieldPatientName); name != "" {
		return name
	}
	return fmt.Sprintf("__record_%d", index)
}

// SaltedIdentities pre-resolves every record key of a batch into a salted
// pseudonym-derived identifier, for callers that want identifiers stable
// across batches instead of sequence-numbered tokens. The result is handed
// to NewAssigner before the pipeline runs.
func SaltedIdentities(batch []entities.RawRecord, salt string) map[string]string {
	resolved := make(map[string]string)
	for i, rec := range batch {
		key := recordKey(rec, i)
		if _, ok := resolved[key]; ok {
			continue
		}
		resolved[key] = saltedID(key, salt)
	}
	return resolved
}

// saltedID derives a stable identifier from a record key and salt: the
// uppercased 12-hex prefix of SHA-256(key|salt).
func saltedID(key, salt string) string {
	sum := sha256.Sum256([]byte(key + "|" + salt))
	return anonymousIDPrefix + "-" + strings.ToUpper(hex.EncodeToString(sum[:])[:12])
}

// SaltedResolver adapts SaltedIdentities to the IdentityResolver port.
type SaltedResolver struct {
	salt string
}

// Ensure SaltedResolver implements IdentityResolver
var _ providers.IdentityResolver = (*SaltedResolver)(nil)

// NewSaltedResolver creates a resolver with a per-hospital salt.
func NewSaltedResolver(salt string) *SaltedResolver {
	return &SaltedResolver{salt: salt}
}

// ResolveBatch resolves every record key to its salted identifier.
func (r *SaltedResolver) ResolveBatch(ctx context.Context, batch []entities.RawRecord) (map[string]string, error) {
	return SaltedIdentities(batch, r.salt), nil
}
