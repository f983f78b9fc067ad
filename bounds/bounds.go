// Package bounds computes the lower and upper k-mer multiplicity cutoffs
// used to decide which k-mers are reliable enough to seed an overlap
// search. Given sequencing depth, a per-base error rate, and a k-mer
// length, a correct k-mer is expected to recur across reads according to
// a binomial model; bounds.Compute finds the smallest interval of
// multiplicities that captures minProbability of that distribution's
// mass, symmetrically from the low and high tails.
package bounds

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"
)

// Params bundles the inputs to the bounds model. Depth is expected
// sequencing coverage, ErrorRate is the per-base sequencing error rate,
// K is the k-mer length, and MinProbability is the tail mass each cutoff
// must capture.
type Params struct {
	Depth          int
	ErrorRate      float64
	K              int
	MinProbability float64
}

// validate rejects parameter combinations the binomial model is not
// defined for.
func (p Params) validate() error {
	if p.Depth < 2 {
		return errors.Errorf("bounds: depth must be >= 2, got %d", p.Depth)
	}
	if !(p.ErrorRate > 0 && p.ErrorRate < 1) {
		return errors.Errorf("bounds: error rate must be in (0,1), got %v", p.ErrorRate)
	}
	if p.K < 1 {
		return errors.Errorf("bounds: k must be >= 1, got %d", p.K)
	}
	if !(p.MinProbability > 0 && p.MinProbability <= 1) {
		return errors.Errorf("bounds: minProbability must be in (0,1], got %v", p.MinProbability)
	}
	return nil
}

// binomial returns the binomial distribution governing the number of
// times, out of Depth trials, a correct k-mer is observed, where each
// trial succeeds with probability q = (1-errorRate)^k (the probability
// that all k bases of the k-mer were sequenced without error).
func (p Params) binomial() distuv.Binomial {
	q := math.Pow(1-p.ErrorRate, float64(p.K))
	return distuv.Binomial{N: float64(p.Depth), P: q}
}

// ComputeUpper returns the first rejected multiplicity above the last
// accepted one when scanning downward from m=depth, accumulating
// P(m) = Binomial(depth, q).Prob(m) until the running sum reaches
// minProbability (or stalls — stops changing across an iteration).
func ComputeUpper(p Params) (int, error) {
	if err := p.validate(); err != nil {
		return 0, err
	}
	dist := p.binomial()
	sum := 0.0
	prev := -1.0
	m := p.Depth
	for sum < p.MinProbability {
		sum += dist.Prob(float64(m))
		if sum == prev {
			break
		}
		prev = sum
		m--
		if m < 0 {
			break
		}
	}
	return m + 1, nil
}

// ComputeLower is the symmetric counterpart of ComputeUpper: it scans
// upward from m=2, and never returns less than 2.
func ComputeLower(p Params) (int, error) {
	if err := p.validate(); err != nil {
		return 0, err
	}
	dist := p.binomial()
	const mymin = 2
	sum := 0.0
	prev := -1.0
	m := mymin
	for sum < p.MinProbability {
		sum += dist.Prob(float64(m))
		if sum == prev {
			break
		}
		prev = sum
		m++
		if m > p.Depth {
			break
		}
	}
	m--
	if m < mymin {
		m = mymin
	}
	return m, nil
}

// Thresholds is the (lowerMult, upperMult) pair derived from Params.
type Thresholds struct {
	Lower int
	Upper int
}

// Compute derives both cutoffs in one call; Thresholds.Lower is
// guaranteed to be <= Thresholds.Upper and >= 2.
func Compute(p Params) (Thresholds, error) {
	lower, err := ComputeLower(p)
	if err != nil {
		return Thresholds{}, err
	}
	upper, err := ComputeUpper(p)
	if err != nil {
		return Thresholds{}, err
	}
	if lower > upper {
		// The two tails crossed (can happen at very low depth with a
		// demanding minProbability); widen the upper bound rather than
		// emit an empty acceptance interval.
		upper = lower
	}
	return Thresholds{Lower: lower, Upper: upper}, nil
}
