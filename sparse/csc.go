// Package sparse implements the compressed-sparse-column matrix and the
// hash-accumulator SpGEMM machinery that the overlap engine is built on:
// construction from (row, col, value) triples with duplicate merging,
// column-sorted form, FLOP/NNZ estimation, a multithreaded prefix-sum,
// the local hash-accumulator multiply, and stage planning.
//
// The value type is a Go generic parameter rather than a C++ template
// parameter: Matrix[T] plays the role of CSC<IT,NT> in the reference
// implementation, with IT fixed to int.
package sparse

import (
	"sort"

	"github.com/pkg/errors"
)

// Triple is one (row, col, value) input cell.
type Triple[T any] struct {
	Row, Col int
	Value    T
}

// Matrix is a compressed-sparse-column matrix. Colptr has length Cols+1;
// for column c, the nonzeros live in Rowids[Colptr[c]:Colptr[c+1]] with
// parallel entries in Values. An empty matrix (Nnz()==0) is valid and all
// operations below are defined for it.
type Matrix[T any] struct {
	Rows, Cols int
	Colptr     []int
	Rowids     []int
	Values     []T

	sorted bool
}

// Nnz returns the total number of stored nonzeros.
func (m *Matrix[T]) Nnz() int {
	if m == nil || len(m.Colptr) == 0 {
		return 0
	}
	return m.Colptr[len(m.Colptr)-1]
}

// IsEmpty reports whether the matrix has zero nonzeros. Callers of
// estimators and SpGEMM must treat a nil/empty matrix as carrying no
// work rather than erroring.
func (m *Matrix[T]) IsEmpty() bool {
	return m.Nnz() == 0
}

// Col returns the rowids and values slices for column c.
func (m *Matrix[T]) Col(c int) ([]int, []T) {
	lo, hi := m.Colptr[c], m.Colptr[c+1]
	return m.Rowids[lo:hi], m.Values[lo:hi]
}

// ColNnz returns the number of nonzeros in column c.
func (m *Matrix[T]) ColNnz(c int) int {
	return m.Colptr[c+1] - m.Colptr[c]
}

// NewFromTriples builds a CSC matrix from an unordered list of triples,
// merging colliding (row, col) cells with reduce(existing, incoming).
// reduce must be associative in practice; it need not be commutative as
// long as the caller tolerates a deterministic-but-arbitrary collision
// order (construction groups triples by column, then folds in input
// order within a column).
//
// Triples with out-of-range Row/Col are rejected.
func NewFromTriples[T any](rows, cols int, triples []Triple[T], reduce func(existing, incoming T) T) (*Matrix[T], error) {
	if rows < 0 || cols < 0 {
		return nil, errors.Errorf("sparse: invalid dimensions %dx%d", rows, cols)
	}
	counts := make([]int, cols+1)
	for _, t := range triples {
		if t.Row < 0 || t.Row >= rows || t.Col < 0 || t.Col >= cols {
			return nil, errors.Errorf("sparse: triple (%d,%d) out of range for %dx%d matrix", t.Row, t.Col, rows, cols)
		}
		counts[t.Col+1]++
	}
	for c := 0; c < cols; c++ {
		counts[c+1] += counts[c]
	}
	colptr := counts

	// Bucket triples by column, preserving input order within a column,
	// then fold duplicates with reduce while keeping bucket order
	// (first occurrence wins the slot; later occurrences merge into it).
	cursor := make([]int, cols)
	copy(cursor, colptr[:cols])
	bucketRow := make([]int, len(triples))
	bucketVal := make([]T, len(triples))
	for _, t := range triples {
		idx := cursor[t.Col]
		bucketRow[idx] = t.Row
		bucketVal[idx] = t.Value
		cursor[t.Col]++
	}

	rowids := make([]int, 0, len(triples))
	values := make([]T, 0, len(triples))
	finalColptr := make([]int, cols+1)
	for c := 0; c < cols; c++ {
		lo, hi := colptr[c], colptr[c+1]
		seen := make(map[int]int, hi-lo) // row -> index in rowids/values
		for i := lo; i < hi; i++ {
			r := bucketRow[i]
			if j, ok := seen[r]; ok {
				values[j] = reduce(values[j], bucketVal[i])
				continue
			}
			seen[r] = len(rowids)
			rowids = append(rowids, r)
			values = append(values, bucketVal[i])
		}
		finalColptr[c+1] = len(rowids)
	}

	return &Matrix[T]{
		Rows:   rows,
		Cols:   cols,
		Colptr: finalColptr,
		Rowids: rowids,
		Values: values,
	}, nil
}

// Sorted sorts every column of m in place so that row indices strictly
// increase within it, and returns m itself so callers can write
// `a = a.Sorted()`. A matrix already sorted by an earlier call is
// returned unchanged.
func (m *Matrix[T]) Sorted() *Matrix[T] {
	if m.sorted {
		return m
	}
	for c := 0; c < m.Cols; c++ {
		lo, hi := m.Colptr[c], m.Colptr[c+1]
		rowids := m.Rowids[lo:hi]
		values := m.Values[lo:hi]
		sort.Sort(&colSorter[T]{rowids: rowids, values: values})
	}
	m.sorted = true
	return m
}

type colSorter[T any] struct {
	rowids []int
	values []T
}

func (s *colSorter[T]) Len() int           { return len(s.rowids) }
func (s *colSorter[T]) Less(i, j int) bool { return s.rowids[i] < s.rowids[j] }
func (s *colSorter[T]) Swap(i, j int) {
	s.rowids[i], s.rowids[j] = s.rowids[j], s.rowids[i]
	s.values[i], s.values[j] = s.values[j], s.values[i]
}

// Transpose builds the transpose of m, applying reduce to any duplicate
// cells that arise (none will, if m is already column-unique, which
// NewFromTriples guarantees).
func Transpose[T any](m *Matrix[T], reduce func(existing, incoming T) T) (*Matrix[T], error) {
	triples := make([]Triple[T], 0, m.Nnz())
	for c := 0; c < m.Cols; c++ {
		rowids, values := m.Col(c)
		for i, r := range rowids {
			triples = append(triples, Triple[T]{Row: c, Col: r, Value: values[i]})
		}
	}
	return NewFromTriples(m.Cols, m.Rows, triples, reduce)
}
