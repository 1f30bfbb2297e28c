package anonymization

import (
	"testing"

	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/entities"
)

func TestHashRecord_IndependentOfKeyInsertionOrder(t *testing.T) {
	a := map[string]string{"b": "2", "a": "1", "c": "3"}
	b := map[string]string{"c": "3", "a": "1", "b": "2"}

	ha, err := HashRecord(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hb, err := HashRecord(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ha != hb {
		t.Errorf("same logical content produced different digests: %s vs %s", ha, hb)
	}
	if len(ha) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(ha))
	}
}

func TestHashRecord_Deterministic(t *testing.T) {
	rec := &entities.Stage1Record{
		AnonymousID: "PID-001",
		AgeRange:    "45-49",
		Country:     "Uganda",
		Clinical:    map[string]string{entities.FieldLabTest: "CBC", entities.FieldResult: "5.4"},
	}

	first, err := HashRecord(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := HashRecord(rec.Clone())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Errorf("expected identical digests, got %s and %s", first, second)
	}
}

func TestHashRecord_ContentSensitive(t *testing.T) {
	a, _ := HashRecord(&entities.Stage1Record{AnonymousID: "PID-001", AgeRange: "45-49"})
	b, _ := HashRecord(&entities.Stage1Record{AnonymousID: "PID-001", AgeRange: "40-44"})
	if a == b {
		t.Error("different content must not collide on digest")
	}
}

func TestMerkleRoot(t *testing.T) {
	if got := MerkleRoot(nil); got != "" {
		t.Errorf("empty input should yield empty root, got %q", got)
	}

	single := []string{"aa"}
	if got := MerkleRoot(single); got != "aa" {
		t.Errorf("single leaf is its own root, got %q", got)
	}

	leaves := []string{"aa", "bb", "cc"}
	root1 := MerkleRoot(leaves)
	root2 := MerkleRoot([]string{"aa", "bb", "cc"})
	if root1 != root2 {
		t.Error("root must be deterministic")
	}

	reordered := MerkleRoot([]string{"bb", "aa", "cc"})
	if root1 == reordered {
		t.Error("root must be order-sensitive")
	}
}
