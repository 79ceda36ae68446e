package trace

import (
	"crypto/sha256"
	"encoding/hex"
)

// ComputeTraceHash computes the deterministic hash of a canonical trace
// encoding: sha256 over the canonical bytes, hex-encoded.
//
// The input must already be canonical (e.g. from
// GenerationTrace.CanonicalJSON) so the hash covers sorted event order, not
// insertion order.
func ComputeTraceHash(canonicalEncoding []byte) string {
	if len(canonicalEncoding) == 0 {
		return ""
	}
	sum := sha256.Sum256(canonicalEncoding)
	return hex.EncodeToString(sum[:])
}
