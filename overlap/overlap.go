// Package overlap defines the semiring used to drive the sparse×sparse
// -transpose product at the heart of the read-overlap computation: the
// value carried by each nonzero of C, and the multop/addop pair that
// accumulates shared k-mer counts while shipping along enough seed
// coordinates to hand a candidate pair to the alignment dispatcher.
//
// Grounded on grailbio-bio/fusion's emphasis on small, copyable value
// types flowing through the matrix machinery, and on
// original_source/mtspgemm2017/overlapping.h's commonKmers value type.
package overlap

import "github.com/pkg/errors"

// Pos is a 0-based offset of a k-mer occurrence within a read.
type Pos int32

// Seed is a single shared-kmer anchor: a position in the column read
// ("V" in dispatcher terms, the aligner's query) paired with the
// matching position in the row read ("H", the aligner's target).
type Seed struct {
	PosA Pos
	PosB Pos
}

// maxSeeds is the number of seed slots a Value carries. Only the first
// one or two shared k-mers between a pair of reads are needed to anchor
// single- or two-seed extension; additional shared k-mers only affect
// Count.
const maxSeeds = 2

// Value is the semiring value attached to a nonzero C[i,j]: the number
// of shared k-mers between read i and read j, and up to the first two
// shared-kmer coordinate pairs observed during the product.
type Value struct {
	Count  int32
	Seeds  [maxSeeds]Seed
	NSeeds int8
}

// Multiply implements multop: combining a single occurrence of a k-mer
// in the column read j (posA) with its occurrence in the row read i
// (posB) produces a singleton value with count 1.
func Multiply(posA, posB Pos) Value {
	return Value{
		Count:  1,
		Seeds:  [maxSeeds]Seed{{PosA: posA, PosB: posB}},
		NSeeds: 1,
	}
}

// Add implements addop: it must be associative and, per the data-model
// formula in spec.md §3, preserve the first seed observed while summing
// counts. sparse.HashSpGEMM always calls this as Add(existing, incoming),
// so "first observed" means existing's seed slots win; incoming's seeds
// only fill slots existing left empty.
func Add(existing, incoming Value) Value {
	out := existing
	out.Count += incoming.Count
	for _, s := range incoming.Seeds[:incoming.NSeeds] {
		if out.NSeeds >= maxSeeds {
			break
		}
		out.Seeds[out.NSeeds] = s
		out.NSeeds++
	}
	return out
}

// Occurrence is a single (read, kmer, position) triple from the input,
// the raw material CSC construction buckets into A's triples.
type Occurrence struct {
	ReadID int
	KmerID int
	Pos    Pos
}

// Candidate is a nonzero C[i,j] with i != j, ready for the alignment
// dispatcher: j is the column (the "query"/V read), i is the row (the
// "target"/H read).
type Candidate struct {
	RowID int
	ColID int
	Value Value
}

// Validate rejects a Candidate that cannot be dispatched: a self-pair,
// or a count that disagrees with the number of seed slots actually
// carried (when count is 1 or 2; higher counts may legitimately exceed
// maxSeeds since only the first two seeds are retained).
func (c Candidate) Validate() error {
	if c.RowID == c.ColID {
		return errors.Errorf("overlap: self-pair at row=col=%d is not a candidate", c.RowID)
	}
	if c.Value.Count <= 0 {
		return errors.Errorf("overlap: candidate (%d,%d) has non-positive count %d", c.RowID, c.ColID, c.Value.Count)
	}
	if c.Value.Count <= maxSeeds && int(c.Value.NSeeds) != int(c.Value.Count) {
		return errors.Errorf("overlap: candidate (%d,%d) has count %d but %d seed slots", c.RowID, c.ColID, c.Value.Count, c.Value.NSeeds)
	}
	return nil
}
