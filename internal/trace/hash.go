package trace

import (
	"crypto/sha256"
	"encoding/hex"
)

// DomainSnapshot is the domain prefix for snapshot identity hashing. The
// version suffix enables future algorithm migration.
const DomainSnapshot = "arbor/trace/v1"

// SnapshotID computes the content-addressed identity of a canonical
// snapshot serialization.
//
// Format: SHA256(domain + 0x00 + data). The null separator prevents
// domain/data boundary ambiguity.
func SnapshotID(canonical []byte) string {
	h := sha256.New()
	h.Write([]byte(DomainSnapshot))
	h.Write([]byte{0x00})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil))
}
