// Package kmer implements the canonical k-mer representation used to
// key the occurrence matrix: a 2-bit-packed encoding of up to 32 DNA
// bases, its reverse complement, and a canonical form (the lexicographic
// minimum of the two). Hashing and literal-to-ID interning live here
// too, since both the sparse matrix and the k-mers-list reader need a
// stable integer ID per distinct canonical k-mer.
//
// Adapted from grailbio-bio's fusion/kmer.go and fusion/kmer_index.go,
// generalized from a fixed short-read k-mer length to any k up to
// MaxLength (32, the most bases a uint64 holds), and with kmerizing a
// full read (fusion's job) dropped — the kmers-list input already
// supplies k-mer literals, so only per-k-mer encoding, canonicalization
// and hashing survive.
package kmer

import farm "github.com/dgryski/go-farm"

const invalidBits = uint8(255)

var toBits [256]uint8
var toComplementBits [256]uint8

func init() {
	for i := range toBits {
		toBits[i] = invalidBits
		toComplementBits[i] = invalidBits
	}
	set := func(base byte, bits, comp uint8) {
		toBits[base] = bits
		toComplementBits[base] = comp
	}
	set('A', 0, 3)
	set('a', 0, 3)
	set('C', 1, 2)
	set('c', 1, 2)
	set('G', 2, 1)
	set('g', 2, 1)
	set('T', 3, 0)
	set('t', 3, 0)
}

// K is a 2-bit-packed DNA k-mer of length <= 32, the longest that fits a
// uint64. MaxLength is enforced by Encode.
type K uint64

// MaxLength is the longest k-mer Encode can pack into a K.
const MaxLength = 32

// Encode packs seq (which must be composed only of A/C/G/T, upper or
// lower case) into a K. ok is false if seq is too long, empty, or
// contains a base outside ACGT.
func Encode(seq string) (k K, ok bool) {
	if len(seq) == 0 || len(seq) > MaxLength {
		return 0, false
	}
	var packed K
	for i := 0; i < len(seq); i++ {
		bits := toBits[seq[i]]
		if bits == invalidBits {
			return 0, false
		}
		packed = (packed << 2) | K(bits)
	}
	return packed, true
}

// ReverseComplement returns the packed encoding of seq's reverse
// complement. ok is false under the same conditions as Encode.
func ReverseComplement(seq string) (k K, ok bool) {
	if len(seq) == 0 || len(seq) > MaxLength {
		return 0, false
	}
	var packed K
	for i := len(seq) - 1; i >= 0; i-- {
		bits := toComplementBits[seq[i]]
		if bits == invalidBits {
			return 0, false
		}
		packed = (packed << 2) | K(bits)
	}
	return packed, true
}

// Canonical returns the lexicographic minimum of seq's forward encoding
// and its reverse complement, the representation used to key the
// occurrence matrix so that a k-mer and its reverse complement collide
// to the same column.
func Canonical(seq string) (k K, ok bool) {
	fwd, ok := Encode(seq)
	if !ok {
		return 0, false
	}
	rc, ok := ReverseComplement(seq)
	if !ok {
		return 0, false
	}
	if rc < fwd {
		return rc, true
	}
	return fwd, true
}

// Hash returns a well-mixed 64-bit hash of k, suitable for sharding or
// for seeding an open-addressing table. Grounded on
// fusion/kmer_index.go's hashKmer, which hashes the packed k-mer with
// farm rather than the ASCII sequence.
func Hash(k K) uint64 {
	return farm.Hash64WithSeed(nil, uint64(k))
}
