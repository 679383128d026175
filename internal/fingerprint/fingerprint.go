// Package fingerprint computes the stable content hashes used as identity
// for rules, sources and targets throughout the build graph.
package fingerprint

import (
	"encoding/hex"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// A Fingerprint is an opaque, fixed-length identity derived from a
// canonical serialisation of some value. Equal inputs always produce
// equal fingerprints.
type Fingerprint string

// Empty is the fingerprint of an empty Builder; useful as a zero value
// for optional fields that contribute nothing to a hash.
var Empty = New().Build()

// Builder accumulates a canonical serialisation of a value's fields, in
// the order they're added, and reduces it to a Fingerprint on Build.
// Every field method writes a length-prefixed chunk so that ("ab", "c")
// and ("a", "bc") never collide.
type Builder struct {
	digest *xxhash.Digest
}

// New starts a fresh Builder.
func New() *Builder {
	return &Builder{digest: xxhash.New()}
}

// String feeds a single string into the fingerprint.
func (b *Builder) String(s string) *Builder {
	b.writeChunk([]byte(s))
	return b
}

// Strings feeds a slice of strings in, in the given order. Callers that
// want an order-independent contribution should sort before calling.
func (b *Builder) Strings(ss []string) *Builder {
	b.writeUint(uint64(len(ss)))
	for _, s := range ss {
		b.String(s)
	}
	return b
}

// SortedStrings sorts a copy of ss and feeds it in, for fields whose
// identity must not depend on insertion order.
func (b *Builder) SortedStrings(ss []string) *Builder {
	sorted := append([]string(nil), ss...)
	sort.Strings(sorted)
	return b.Strings(sorted)
}

// StringPairs feeds an already-ordered sequence of key/value pairs in.
// Callers that want order-independence should sort the pairs themselves
// (e.g. by key) before calling; this mirrors how Rule folds its sorted
// defaults and params into its own identity.
func (b *Builder) StringPairs(pairs [][2]string) *Builder {
	b.writeUint(uint64(len(pairs)))
	for _, p := range pairs {
		b.String(p[0]).String(p[1])
	}
	return b
}

// Fingerprint folds an already-computed fingerprint in as an opaque
// chunk, letting composite objects (targets referencing other targets)
// build their identity out of their children's identities without
// re-serialising them.
func (b *Builder) Fingerprint(f Fingerprint) *Builder {
	b.writeChunk([]byte(f))
	return b
}

// SortedFingerprints feeds a sorted copy of fs in; used when a field is
// an unordered set of child identities (e.g. a target's effective
// inputs).
func (b *Builder) SortedFingerprints(fs []Fingerprint) *Builder {
	sorted := append([]Fingerprint(nil), fs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	b.writeUint(uint64(len(sorted)))
	for _, f := range sorted {
		b.Fingerprint(f)
	}
	return b
}

// Bool feeds a boolean flag in.
func (b *Builder) Bool(v bool) *Builder {
	if v {
		return b.String("1")
	}
	return b.String("0")
}

// Build finalises the fingerprint. The Builder must not be reused
// afterwards.
func (b *Builder) Build() Fingerprint {
	return Fingerprint(hex.EncodeToString(b.digest.Sum(nil)))
}

func (b *Builder) writeUint(n uint64) {
	var buf [8]byte
	for i := range buf {
		buf[i] = byte(n >> (8 * i))
	}
	b.digest.Write(buf[:])
}

func (b *Builder) writeChunk(data []byte) {
	b.writeUint(uint64(len(data)))
	b.digest.Write(data)
}
