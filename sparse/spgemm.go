package sparse

import (
	"sort"

	"github.com/grailbio/base/traverse"
)

// HashSpGEMM computes C[:, start:end] = A * B restricted to that column
// range of B, using a column-private open-addressing hash accumulator.
// colptrC must already hold the (global) column pointers for the full
// product C, as produced by running PrefixSum over an EstimateNNZ
// result; only colptrC[start:end+1] is consulted.
//
// multop(a, b) combines a nonzero A[k,r] (a) with a nonzero B[r,c] (b)
// sharing the contraction index r; addop(existing, incoming) folds a
// newly multiplied value into whatever is already accumulated at that
// output row — existing is passed first so that a semiring whose addop
// favors one operand (as overlap.Add does, to keep the first-observed
// seed) behaves as the data model specifies.
//
// Results are written into rowidsOut/valuesOut at the stage-local offset
// i-start, not the global index i — callers size those buffers to
// colptrC[end]-colptrC[start]. (The reference C++ implementation this is
// ported from indexes by the global i here, which overruns any
// stage-local buffer; see DESIGN.md Open Question 1.)
//
// When sortRows is true, each column's output rows are sorted ascending;
// otherwise they retain hash-table emission order. Downstream consumers
// must tolerate either policy, or request sortRows.
func HashSpGEMM[NT, FT any](start, end int, a, b *Matrix[NT], multop func(NT, NT) FT, addop func(existing, incoming FT) FT, colptrC []int, sortRows bool, rowidsOut []int, valuesOut []FT) {
	base := colptrC[start]
	_ = traverse.Each(end-start, func(i int) error {
		c := start + i
		nnzC := colptrC[c+1] - colptrC[c]
		htSize := nextPow2AtLeast(nnzC)
		mask := htSize - 1
		keys := make([]int, htSize)
		vals := make([]FT, htSize)
		for j := range keys {
			keys[j] = -1
		}

		rowidsB, valuesB := b.Col(c)
		for j, r := range rowidsB {
			vB := valuesB[j]
			rowidsA, valuesA := a.Col(r)
			for k, key := range rowidsA {
				t := multop(valuesA[k], vB)
				h := (key * hashScale) & mask
				for {
					if keys[h] == key {
						vals[h] = addop(vals[h], t)
						break
					}
					if keys[h] == -1 {
						keys[h] = key
						vals[h] = t
						break
					}
					h = (h + 1) & mask
				}
			}
		}

		// Compact, in hash-table order.
		outLo := colptrC[c] - base
		outHi := colptrC[c+1] - base
		idx := outLo
		for j := 0; j < htSize && idx < outHi; j++ {
			if keys[j] != -1 {
				rowidsOut[idx] = keys[j]
				valuesOut[idx] = vals[j]
				idx++
			}
		}
		if sortRows {
			sort.Sort(&colSorter[FT]{rowids: rowidsOut[outLo:outHi], values: valuesOut[outLo:outHi]})
		}
		return nil
	})
}
