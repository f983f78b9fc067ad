package sparse

import "github.com/grailbio/base/traverse"

// PrefixSum computes the exclusive prefix sum of in, returning a slice
// of length len(in)+1 with out[0]=0 and out[len(in)]=sum(in). It uses
// nthreads worker chunks: each computes a local running sum over its
// static chunk, a serial pass reduces the per-chunk totals into offsets,
// then each chunk's local sums are shifted by its offset. This produces
// bit-exact results for integer input regardless of nthreads, matching
// sequential summation.
func PrefixSum(in []int, nthreads int) []int {
	n := len(in)
	out := make([]int, n+1)
	if n == 0 {
		return out
	}
	if nthreads < 1 {
		nthreads = 1
	}
	if nthreads > n {
		nthreads = n
	}

	chunkTotal := make([]int, nthreads)
	chunkStart := func(w int) int { return (w * n) / nthreads }

	_ = traverse.Each(nthreads, func(w int) error {
		lo, hi := chunkStart(w), chunkStart(w+1)
		sum := 0
		for i := lo; i < hi; i++ {
			sum += in[i]
			out[i+1] = sum
		}
		chunkTotal[w] = sum
		return nil
	})

	offsets := make([]int, nthreads)
	running := 0
	for w := 0; w < nthreads; w++ {
		offsets[w] = running
		running += chunkTotal[w]
	}

	_ = traverse.Each(nthreads, func(w int) error {
		if offsets[w] == 0 {
			return nil
		}
		lo, hi := chunkStart(w), chunkStart(w+1)
		for i := lo; i < hi; i++ {
			out[i+1] += offsets[w]
		}
		return nil
	})

	return out
}
