package overlap

// Strand records which orientation of the column read ("V") produced
// the best alignment against the row read ("H").
type Strand int

const (
	Forward Strand = iota
	Reverse
)

// AlignResult is what an Aligner returns for one candidate pair: a
// score and the seed's extended span on both reads. begV/endV are
// offsets into the query (column) read, begH/endH into the target
// (row) read, matching spec.md §4.8's beginPosition{V,H}/endPosition{V,H}.
type AlignResult struct {
	Score  int
	Strand Strand
	BegV   int
	EndV   int
	BegH   int
	EndH   int
}

// Aligner is the external collaborator that performs seeded x-drop
// banded extension. The core never implements the alignment kernel
// itself; it only decides when to call it and whether to accept what
// it returns.
type Aligner interface {
	// AlignOne extends from a single seed shared between the query and
	// target sequences.
	AlignOne(query, target string, seed Seed) AlignResult
	// AlignTwo extends using two shared-kmer seeds as anchors.
	AlignTwo(query, target string, first, second Seed) AlignResult
}

// ReadProvider resolves a read's display name, sequence, and length by
// its interned ID. Sequence lookups happen once per candidate pair, on
// the dispatcher's hot path, so implementations should serve them from
// memory (e.g. a slice indexed by ID) rather than re-reading a file.
type ReadProvider interface {
	Name(id int) string
	Sequence(id int) string
	Length(id int) int
}
