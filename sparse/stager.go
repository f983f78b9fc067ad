package sparse

import "sort"

// PlanStages splits the cols columns addressed by colptrC into
// contiguous ranges ("stages"). The per-stage quota is
// freeBytes/(safety*entrySize) nonzeros, the stage count is one more
// than the integer part of safety*nnz*entrySize/freeBytes, and the i-th
// interior boundary is the first column c whose colptrC[c] exceeds i
// times the quota. The boundaries sit at fixed multiples of the quota and
// the column that crosses a multiple stays in the stage ending there, so
// a stage's nonzero count can exceed the quota: stages are not
// guaranteed to fit within freeBytes. entrySize is
// sizeof(value)+sizeof(index) for the product matrix's storage. The
// returned boundaries are monotonic, start at 0, and always end at cols;
// a stage may be empty only when colptrC's total nnz is 0.
func PlanStages(colptrC []int, freeBytes uint64, entrySize int, safety float64) []int {
	cols := len(colptrC) - 1
	if cols <= 0 {
		return []int{0}
	}
	nnz := colptrC[cols]
	if nnz == 0 || freeBytes == 0 {
		return []int{0, cols}
	}

	quota := float64(freeBytes) / (safety * float64(entrySize))
	if quota < 1 {
		quota = 1
	}
	stages := int((safety*float64(nnz)*float64(entrySize))/float64(freeBytes)) + 1
	if stages < 1 {
		stages = 1
	}

	bounds := make([]int, 0, stages+1)
	bounds = append(bounds, 0)
	for i := 1; i < stages; i++ {
		threshold := float64(i) * quota
		// First column index c such that colptrC[c] > threshold.
		c := sort.Search(cols+1, func(c int) bool {
			return float64(colptrC[c]) > threshold
		})
		if c > cols {
			c = cols
		}
		if c <= bounds[len(bounds)-1] {
			continue
		}
		bounds = append(bounds, c)
	}
	if bounds[len(bounds)-1] != cols {
		bounds = append(bounds, cols)
	}
	return bounds
}
