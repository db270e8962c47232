package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Canonical returns the canonical JSON serialization of the snapshot: a
// compact array of records with header-ordered keys and rowIndex last. An
// empty snapshot serializes as the literal empty array.
func Canonical(s Snapshot) []byte {
	if len(s) == 0 {
		return []byte("[]")
	}
	// Records hold only strings and ints; marshaling cannot fail.
	data, err := json.Marshal(s)
	if err != nil {
		panic("snapshot: marshal canonical form: " + err.Error())
	}
	return data
}

// Hash computes the SHA-256 hex digest of the canonical serialization.
// It is a cheap equality oracle for "did anything change" polling, never a
// security boundary. The empty snapshot hashes the canonical "[]" so the
// empty state is stable and distinguishable.
func Hash(s Snapshot) string {
	sum := sha256.Sum256(Canonical(s))
	return hex.EncodeToString(sum[:])
}
