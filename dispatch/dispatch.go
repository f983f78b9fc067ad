// Package dispatch implements the pairwise alignment dispatcher
// (spec.md §4.8): for every candidate pair surfaced by the sparse
// engine, it chooses single- or two-seed extension, decides whether to
// accept the resulting alignment under one of two acceptance policies,
// optionally applies an end-proximity filter, and streams accepted
// (or, in skip-alignment mode, unaligned) records to a resultio.Writer.
//
// Grounded on original_source/mtspgemm2017/overlapping.h's
// RunPairWiseAlignments/PostAlignDecision, parallelized across
// candidates with grailbio-bio's traverse.Each rather than the
// original's OpenMP pragma.
package dispatch

import (
	"sync/atomic"

	"github.com/grailbio/base/traverse"

	"github.com/grailbio/bella/overlap"
	"github.com/grailbio/bella/resultio"
)

// Config collects the alignment dispatcher's tunables, named after
// spec.md §6's configuration table.
type Config struct {
	SkipAlignment bool
	AdaptiveThr   bool
	AlignEnd      bool
	RelaxMargin   int     // epsilon for the end-proximity filter; default 300.
	DeltaChernoff float64 // delta for the adaptive threshold; default 0.1.
	DefaultThr    int     // fixed-mode acceptance threshold.
	Phi           float64 // expected score density per overlap base.
}

// DefaultConfig mirrors spec.md §6's stated defaults.
func DefaultConfig() Config {
	return Config{
		RelaxMargin:   300,
		DeltaChernoff: 0.1,
	}
}

// Run dispatches every candidate to aligner (unless cfg.SkipAlignment),
// applies acceptance and the optional end filter, and writes accepted
// records to w. Candidates are processed across nthreads workers with
// dynamic assignment (each worker claims the next unclaimed candidate);
// order of writes into w is not deterministic, matching spec.md §5's
// ordering guarantees.
func Run(candidates []overlap.Candidate, reads overlap.ReadProvider, aligner overlap.Aligner, cfg Config, w *resultio.Writer, nthreads int) error {
	if nthreads < 1 {
		nthreads = 1
	}
	var next int64
	return traverse.Each(nthreads, func(int) error {
		batch := w.NewBatch()
		for {
			idx := int(atomic.AddInt64(&next, 1) - 1)
			if idx >= len(candidates) {
				break
			}
			dispatchOne(candidates[idx], reads, aligner, cfg, batch)
		}
		batch.Flush()
		return nil
	})
}

func dispatchOne(c overlap.Candidate, reads overlap.ReadProvider, aligner overlap.Aligner, cfg Config, batch *resultio.Batch) {
	// j is the column ("query"/V read), i is the row ("target"/H read),
	// per spec.md §4.8 and the output record's V/H convention.
	j, i := c.ColID, c.RowID
	nameJ, nameI := reads.Name(j), reads.Name(i)
	lenJ, lenI := reads.Length(j), reads.Length(i)

	if cfg.SkipAlignment {
		batch.AddSkip(resultio.SkipRecord{
			NameJ: nameJ,
			NameI: nameI,
			Count: int(c.Value.Count),
			LenJ:  lenJ,
			LenI:  lenI,
		})
		return
	}

	query, target := reads.Sequence(j), reads.Sequence(i)
	var result overlap.AlignResult
	if c.Value.Count == 1 {
		result = aligner.AlignOne(query, target, c.Value.Seeds[0])
	} else {
		result = aligner.AlignTwo(query, target, c.Value.Seeds[0], c.Value.Seeds[1])
	}

	if !accept(result, lenJ, lenI, cfg) {
		return
	}
	if cfg.AlignEnd && !withinEnd(result, lenJ, lenI, cfg.RelaxMargin) {
		return
	}

	batch.AddOverlap(resultio.OverlapRecord{
		NameJ:  nameJ,
		NameI:  nameI,
		Count:  int(c.Value.Count),
		Score:  result.Score,
		Strand: result.Strand,
		BegV:   result.BegV,
		EndV:   result.EndV,
		LenJ:   lenJ,
		BegH:   result.BegH,
		EndH:   result.EndH,
		LenI:   lenI,
	})
}

// overlapEstimate computes spec.md §4.8's ov, used by the adaptive
// threshold: the alignment's distance to the nearer read edge at its
// start, plus the same at its end, plus its mean aligned length on the
// two reads.
func overlapEstimate(r overlap.AlignResult, lenJ, lenI int) float64 {
	begMin := min(r.BegV, r.BegH)
	endMin := min(lenJ-r.EndV, lenI-r.EndH)
	diffV := r.EndV - r.BegV
	diffH := r.EndH - r.BegH
	return float64(begMin) + float64(endMin) + float64(diffV+diffH)/2
}

// accept applies whichever acceptance policy cfg selects. Acceptance is
// decided purely from the score and the policy's threshold; alignEnd is
// an independent, later gate and never participates here.
func accept(r overlap.AlignResult, lenJ, lenI int, cfg Config) bool {
	if cfg.AdaptiveThr {
		ov := overlapEstimate(r, lenJ, lenI)
		return float64(r.Score) > (1-cfg.DeltaChernoff)*cfg.Phi*ov
	}
	return r.Score > cfg.DefaultThr
}

// withinEnd implements the end-proximity filter: the alignment must
// reach within margin of an edge on both the start and the end side.
func withinEnd(r overlap.AlignResult, lenJ, lenI, margin int) bool {
	begMin := min(r.BegV, r.BegH)
	endMin := min(lenJ-r.EndV, lenI-r.EndH)
	return begMin <= margin && endMin <= margin
}
