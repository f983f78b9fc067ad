// Package driver implements the overlap driver (spec.md §4.7): it builds
// the read x kmer incidence matrix and its transpose from ingested
// occurrences, applies the bounds filter to drop unreliable k-mers,
// plans memory-bounded stages, runs the sparse GEMM stage by stage, and
// hands each stage's candidates to the alignment dispatcher.
//
// Grounded on original_source/mtspgemm2017/overlapping.h's top-level
// HashSpGEMM orchestration (estimate -> prefix-sum -> stage -> combine
// -> align -> release) and cmd/bio-fusion/main.go's staged
// request/response wiring style.
package driver

import (
	"context"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"

	"github.com/grailbio/bella/bounds"
	"github.com/grailbio/bella/dispatch"
	"github.com/grailbio/bella/memprobe"
	"github.com/grailbio/bella/overlap"
	"github.com/grailbio/bella/resultio"
	"github.com/grailbio/bella/sparse"
)

// State names the overlap driver's state machine (spec.md §4.7): INIT ->
// ESTIMATE -> PLANNED -> STAGE(b) -> (STAGE(b+1) | DONE).
type State int

const (
	StateInit State = iota
	StateEstimate
	StatePlanned
	StateStage
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateEstimate:
		return "ESTIMATE"
	case StatePlanned:
		return "PLANNED"
	case StateStage:
		return "STAGE"
	case StateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// entrySize is sizeof(value)+sizeof(index) for the product matrix's
// storage, per spec.md §4.6; overlap.Value (24 bytes) plus an int rowid.
const entrySize = 24 + 8

// safetyFactor is spec.md §4.6's sigma.
const safetyFactor = 1.2

// Config bundles every tunable the driver needs across bounds, staging,
// and dispatch, named after spec.md §6's configuration table.
type Config struct {
	Bounds   bounds.Params
	Dispatch dispatch.Config

	// TotalMemory is the user-supplied memory budget in MB
	// (spec.md §6's totalMemory), consulted when UserDefMem is true or
	// the platform memory probe fails.
	TotalMemory int
	UserDefMem  bool

	// NumThreads bounds parallelism for prefix-sum, estimation, SpGEMM,
	// and dispatch. Defaults to 1 if <= 0.
	NumThreads int
}

// Inputs bundles the already-ingested occurrence data the driver needs:
// Occurrences is the read x kmer incidence in triple form (before CSC
// construction), NumReads and NumKmers size the matrix, and KmerReadCounts
// is used by the bounds filter to decide which kmer columns to keep.
type Inputs struct {
	Occurrences    []overlap.Occurrence
	NumReads       int
	NumKmers       int
	KmerReadCounts []int // per-kmer distinct read count, len == NumKmers
	ReadProvider   overlap.ReadProvider
	Aligner        overlap.Aligner
	MemProber      memprobe.Prober
}

// Run executes the full driver state machine against a prepared set of
// occurrences, writing accepted (or skip-mode) records to w. It returns
// the final bounds thresholds applied, for diagnostics/logging.
func Run(ctx context.Context, cfg Config, in Inputs, w *resultio.Writer) (bounds.Thresholds, error) {
	nthreads := cfg.NumThreads
	if nthreads < 1 {
		nthreads = 1
	}

	log.Printf("driver: %s (reads=%d kmers=%d occurrences=%d)", StateInit, in.NumReads, in.NumKmers, len(in.Occurrences))

	thresholds, err := bounds.Compute(cfg.Bounds)
	if err != nil {
		return bounds.Thresholds{}, errors.E(err, "driver: computing bounds thresholds")
	}
	log.Printf("driver: kmer multiplicity bounds [%d, %d]", thresholds.Lower, thresholds.Upper)

	keepKmer := make([]bool, in.NumKmers)
	kept := 0
	for k := 0; k < in.NumKmers; k++ {
		c := 0
		if k < len(in.KmerReadCounts) {
			c = in.KmerReadCounts[k]
		}
		if c >= thresholds.Lower && c <= thresholds.Upper {
			keepKmer[k] = true
			kept++
		}
	}
	log.Printf("driver: %d/%d kmers pass the bounds filter", kept, in.NumKmers)

	// A's nonzero values are bare k-mer occurrence positions (spec.md
	// §3's "(posA), (posB)" multop operands); overlap.Value is only the
	// *product*'s value type, built by overlap.Multiply from a pair of
	// these positions.
	triplesA := make([]sparse.Triple[overlap.Pos], 0, len(in.Occurrences))
	for _, occ := range in.Occurrences {
		if occ.KmerID < 0 || occ.KmerID >= in.NumKmers || !keepKmer[occ.KmerID] {
			continue
		}
		triplesA = append(triplesA, sparse.Triple[overlap.Pos]{
			Row:   occ.ReadID,
			Col:   occ.KmerID,
			Value: occ.Pos,
		})
	}

	a, err := sparse.NewFromTriples(in.NumReads, in.NumKmers, triplesA, keepFirstPos)
	if err != nil {
		return thresholds, errors.E(err, "driver: constructing A")
	}
	a = a.Sorted()

	at, err := sparse.Transpose(a, keepFirstPos)
	if err != nil {
		return thresholds, errors.E(err, "driver: transposing A")
	}
	at = at.Sorted()

	log.Printf("driver: %s", StateEstimate)
	freeBytes := probeMemory(cfg, in.MemProber)

	flop := sparse.EstimateFLOP(a, at)
	nnz := sparse.EstimateNNZ(a, at, flop)
	colptrC := estimateColptr(at.Cols, nnz, nthreads)

	log.Printf("driver: %s (nnz(C)=%d, freeBytes=%d)", StatePlanned, colptrC[len(colptrC)-1], freeBytes)
	stageBounds := sparse.PlanStages(colptrC, freeBytes, entrySize, safetyFactor)

	for b := 0; b < len(stageBounds)-1; b++ {
		start, end := stageBounds[b], stageBounds[b+1]
		if start == end {
			continue
		}
		log.Printf("driver: %s(%d) columns [%d, %d)", StateStage, b, start, end)
		if err := runStage(ctx, start, end, a, at, colptrC, cfg, in, w, nthreads); err != nil {
			return thresholds, errors.E(err, "driver: stage", b)
		}
	}
	log.Printf("driver: %s", StateDone)
	return thresholds, nil
}

// probeMemory resolves the free-memory budget per spec.md §4.10/§7: a
// user-supplied default wins if UserDefMem is set; otherwise the probe
// is consulted and a 0 result (probe failure) falls back to the default.
func probeMemory(cfg Config, prober memprobe.Prober) uint64 {
	fallback := memprobe.Static(cfg.TotalMemory).QueryFreeBytes()
	if cfg.UserDefMem || prober == nil {
		return fallback
	}
	if free := prober.QueryFreeBytes(); free > 0 {
		return free
	}
	return fallback
}

// estimateColptr converts a per-column nnz estimate into column
// pointers via the prefix-sum component (spec.md §4.4). A nil nnz
// (empty-matrix sentinel) yields an all-zero CSC of the right shape.
func estimateColptr(cols int, nnz []int, nthreads int) []int {
	if nnz == nil {
		return make([]int, cols+1)
	}
	return sparse.PrefixSum(nnz, nthreads)
}

// keepFirstPos is A's (and Aᵀ's) duplicate-merge reducer: per spec.md
// §3, "positions within a single (read_id, kmer_id) may collapse after
// duplicate merging" — the first position observed is kept, matching
// overlap.Add's own first-observed-seed policy for the product.
func keepFirstPos(existing, incoming overlap.Pos) overlap.Pos {
	return existing
}

// runStage computes one stage's slice of C via the hash-accumulator
// SpGEMM, builds candidate pairs from the stage-local nonzeros, and
// dispatches them for alignment, then lets the stage buffers go out of
// scope (spec.md §5's stage-scoped resource policy).
func runStage(ctx context.Context, start, end int, a, at *sparse.Matrix[overlap.Pos], colptrC []int, cfg Config, in Inputs, w *resultio.Writer, nthreads int) error {
	base := colptrC[start]
	stageNnz := colptrC[end] - base
	rowids := make([]int, stageNnz)
	values := make([]overlap.Value, stageNnz)

	// HashSpGEMM hands multop A's value (the position in row read i) first
	// and Aᵀ's value (the position in column read j) second; Seed.PosA is
	// the column read's position, so the operands are swapped here.
	multop := func(rowPos, colPos overlap.Pos) overlap.Value { return overlap.Multiply(colPos, rowPos) }
	sparse.HashSpGEMM(start, end, a, at, multop, overlap.Add, colptrC, false, rowids, values)

	candidates := make([]overlap.Candidate, 0, stageNnz)
	for c := start; c < end; c++ {
		lo, hi := colptrC[c]-base, colptrC[c+1]-base
		for k := lo; k < hi; k++ {
			row := rowids[k]
			if row == c {
				continue // diagonal: a read trivially "overlaps" itself.
			}
			candidates = append(candidates, overlap.Candidate{RowID: row, ColID: c, Value: values[k]})
		}
	}

	return dispatch.Run(candidates, in.ReadProvider, in.Aligner, cfg.Dispatch, w, nthreads)
}
