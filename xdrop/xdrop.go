// Package xdrop provides a default, swappable overlap.Aligner: a
// diagonal (indel-free) x-drop extension from one or two shared-kmer
// seeds. spec.md §1 names the banded-extension alignment kernel an
// external collaborator whose internal algorithm the core's correctness
// never depends on; this package is that collaborator's concrete,
// runnable stand-in, not a claim of state-of-the-art aligner quality.
//
// Grounded on the "scan a window, extend greedily, stop on a score
// drop" shape of ndaniels-MICA/compress/align.go's alignUngapped, and
// on spec.md §4.8/§GLOSSARY's x-drop definition: extend from a seed
// until the running score falls more than x below its running maximum.
package xdrop

import (
	"github.com/grailbio/bella/overlap"
)

// Config bundles the extension's scoring scheme. Match/Mismatch are
// per-base scores (Mismatch is typically negative); XDrop is the
// maximum tolerated drop below the running best score before extension
// stops in one direction, matching spec.md's "xdrop" CLI parameter.
type Config struct {
	Match    int
	Mismatch int
	XDrop    int
}

// DefaultConfig is a plain match/mismatch scheme with a modest x-drop
// tolerance, adequate for noisy long reads at typical identity (85-95%).
func DefaultConfig() Config {
	return Config{Match: 1, Mismatch: -1, XDrop: 15}
}

// Aligner implements overlap.Aligner with diagonal x-drop extension.
type Aligner struct {
	cfg Config
}

// New returns an Aligner using cfg.
func New(cfg Config) *Aligner {
	return &Aligner{cfg: cfg}
}

// extend walks query/target in lockstep from (i,j), moving by step (+1
// forward, -1 backward), tracking the running score and the position of
// its running maximum. It stops at a sequence boundary or once the
// score has fallen more than XDrop below that maximum. It returns the
// best score reached and how many bases were consumed to reach it
// (which may be less than the total bases scanned, since scanning
// continues past the peak looking for a higher one until x-drop fires).
func (a *Aligner) extend(query, target string, i, j, step int) (score, steps int) {
	cur := 0
	best := 0
	bestSteps := 0
	n := 0
	for {
		qi, tj := i+n*step, j+n*step
		if qi < 0 || qi >= len(query) || tj < 0 || tj >= len(target) {
			break
		}
		if query[qi] == target[tj] {
			cur += a.cfg.Match
		} else {
			cur += a.cfg.Mismatch
		}
		n++
		if cur > best {
			best = cur
			bestSteps = n
		}
		if best-cur > a.cfg.XDrop {
			break
		}
	}
	return best, bestSteps
}

// diagonalScore sums the match/mismatch score for the diagonal segment
// from the left seed anchor (i0, j0) up to, but not including, query
// position i1 (the right anchor), without x-drop termination: both
// anchors are already-verified exact k-mer matches, so the segment
// between them is scored in full rather than abandoned early.
func (a *Aligner) diagonalScore(query, target string, i0, j0, i1 int) int {
	score := 0
	for n := 0; i0+n < i1; n++ {
		qi, tj := i0+n, j0+n
		if qi < 0 || qi >= len(query) || tj < 0 || tj >= len(target) {
			break
		}
		if query[qi] == target[tj] {
			score += a.cfg.Match
		} else {
			score += a.cfg.Mismatch
		}
	}
	return score
}

// AlignOne extends in both directions from a single seed.
func (a *Aligner) AlignOne(query, target string, seed overlap.Seed) overlap.AlignResult {
	i0, j0 := int(seed.PosA), int(seed.PosB)
	fwdScore, fwdSteps := a.extend(query, target, i0+1, j0+1, +1)
	backScore, backSteps := a.extend(query, target, i0-1, j0-1, -1)

	return overlap.AlignResult{
		Score:  fwdScore + backScore + a.cfg.Match,
		Strand: overlap.Forward,
		BegV:   i0 - backSteps,
		EndV:   i0 + fwdSteps + 1,
		BegH:   j0 - backSteps,
		EndH:   j0 + fwdSteps + 1,
	}
}

// AlignTwo extends outward from the two seeds furthest apart and scores
// the diagonal segment between them directly.
func (a *Aligner) AlignTwo(query, target string, first, second overlap.Seed) overlap.AlignResult {
	left, right := first, second
	if right.PosA < left.PosA {
		left, right = right, left
	}

	li, lj := int(left.PosA), int(left.PosB)
	ri, rj := int(right.PosA), int(right.PosB)

	backScore, backSteps := a.extend(query, target, li-1, lj-1, -1)
	fwdScore, fwdSteps := a.extend(query, target, ri+1, rj+1, +1)
	// between covers [li, ri) inclusive of li; only ri itself still needs
	// its confirmed-match contribution added separately.
	between := a.diagonalScore(query, target, li, lj, ri)

	return overlap.AlignResult{
		Score:  backScore + between + fwdScore + a.cfg.Match,
		Strand: overlap.Forward,
		BegV:   li - backSteps,
		EndV:   ri + fwdSteps + 1,
		BegH:   lj - backSteps,
		EndH:   rj + fwdSteps + 1,
	}
}
