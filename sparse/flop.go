package sparse

import "github.com/grailbio/base/traverse"

// EstimateFLOP returns, for each column c of B, the number of scalar
// multiplications that would be performed computing C[:,c] = sum over
// r in B.col[c] of A[:,r] * B[r,c] — i.e. the sum of nnz(A.col[r]) over
// every nonzero row r of B's column c. A nil result means "zero flop",
// which callers must treat as the empty-matrix case (A or B has no
// nonzeros at all).
func EstimateFLOP[TA, TB any](a *Matrix[TA], b *Matrix[TB]) []int {
	if a.IsEmpty() || b.IsEmpty() {
		return nil
	}
	flop := make([]int, b.Cols)
	_ = traverse.Each(b.Cols, func(c int) error {
		rowids, _ := b.Col(c)
		total := 0
		for _, r := range rowids {
			total += a.ColNnz(r)
		}
		flop[c] = total
		return nil
	})
	return flop
}
