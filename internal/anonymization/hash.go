package anonymization

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// CanonicalJSON serializes v with deterministic key ordering, so the same
// logical content always yields the same bytes regardless of key insertion
// order in memory. Round-tripping through an untyped value leaves ordering
// to the JSON encoder, which sorts map keys at every nesting level.
func CanonicalJSON(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize record: %w", err)
	}

	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("failed to canonicalize record: %w", err)
	}

	canonical, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize record: %w", err)
	}
	return canonical, nil
}

// HashRecord computes the SHA-256 hex digest over the canonical
// serialization of a record. Recomputing the digest of the same content
// must reproduce the hash exactly.
func HashRecord(v interface{}) (string, error) {
	canonical, err := CanonicalJSON(v)
	if err != nil {
		return "", err
	}
	return sha256Hex(canonical), nil
}

// MerkleRoot computes the Merkle root over an ordered list of hex digests.
// Odd levels duplicate their last node. Empty input yields "".
func MerkleRoot(hashes []string) string {
	if len(hashes) == 0 {
		return ""
	}
	nodes := hashes
	for len(nodes) > 1 {
		level := make([]string, 0, (len(nodes)+1)/2)
		for i := 0; i < len(nodes); i += 2 {
			right := nodes[i]
			if i+1 < len(nodes) {
				right = nodes[i+1]
			}
			level = append(level, sha256Hex([]byte(nodes[i]+right)))
		}
		nodes = level
	}
	return nodes[0]
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
