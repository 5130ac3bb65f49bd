// Package rollout implements the deterministic percentage-rollout hash
// shared across every App Configuration SDK: MurmurHash3 x86 32-bit,
// seed 0, of "<entityID>:<subjectID>", normalized into [0, 99].
package rollout

import (
	"fmt"
	"math"

	"github.com/spaolacci/murmur3"
)

// NormalizedHash returns the bucket in [0, 99] that tag falls into.
// Computed in double-precision floating point — required to match the
// boundary behavior of other SDKs in the ecosystem; an integer-math
// equivalent would round differently at the edges.
func NormalizedHash(tag string) uint32 {
	h := murmur3.Sum32WithSeed([]byte(tag), 0)
	return uint32(math.Floor(float64(h) / 4294967296.0 * 100.0))
}

// ShouldRollout reports whether the entity/subject pair falls within the
// first p percent of the bucket space. p==100 and p==0 are short-circuit
// special cases so callers never pay for a hash on the common all-or-
// nothing configurations.
func ShouldRollout(p uint32, entityID, subjectID string) bool {
	if p == 100 {
		return true
	}
	if p == 0 {
		return false
	}
	tag := fmt.Sprintf("%s:%s", entityID, subjectID)
	return NormalizedHash(tag) < p
}
