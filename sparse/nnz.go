package sparse

import "github.com/grailbio/base/traverse"

const (
	minHashTableSize = 16
	hashScale        = 107
)

// nextPow2AtLeast returns the smallest power of two that is >= n and
// >= minHashTableSize.
func nextPow2AtLeast(n int) int {
	size := minHashTableSize
	for size < n {
		size <<= 1
	}
	return size
}

// EstimateNNZ returns, for each column c of B, the exact number of
// distinct row indices that will appear in C.col[c] = sum over r in
// B.col[c] of A.col[r]'s row pattern. It is computed (not sampled) via a
// column-private open-addressing hash table sized to the next power of
// two above flop[c] (floor 16), probed with hash(key) = (key*107) &
// (size-1) and linear collision resolution — the same scheme
// sparse.HashSpGEMM uses to build C itself, so the estimate is always
// exact, never approximate.
//
// flop may be nil (the empty-matrix sentinel from EstimateFLOP), in
// which case EstimateNNZ also returns nil.
func EstimateNNZ[TA, TB any](a *Matrix[TA], b *Matrix[TB], flop []int) []int {
	if flop == nil || a.IsEmpty() || b.IsEmpty() {
		return nil
	}
	nnz := make([]int, b.Cols)
	_ = traverse.Each(b.Cols, func(c int) error {
		htSize := nextPow2AtLeast(flop[c])
		keys := make([]int, htSize)
		for i := range keys {
			keys[i] = -1
		}
		mask := htSize - 1
		count := 0
		rowids, _ := b.Col(c)
		for _, r := range rowids {
			arowids, _ := a.Col(r)
			for _, key := range arowids {
				h := (key * hashScale) & mask
				for {
					if keys[h] == key {
						break
					}
					if keys[h] == -1 {
						keys[h] = key
						count++
						break
					}
					h = (h + 1) & mask
				}
			}
		}
		nnz[c] = count
		return nil
	})
	return nnz
}
