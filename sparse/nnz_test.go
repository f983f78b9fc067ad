package sparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bruteForceNNZ(a, b *Matrix[int]) []int {
	nnz := make([]int, b.Cols)
	for c := 0; c < b.Cols; c++ {
		seen := map[int]bool{}
		rowids, _ := b.Col(c)
		for _, r := range rowids {
			arowids, _ := a.Col(r)
			for _, k := range arowids {
				seen[k] = true
			}
		}
		nnz[c] = len(seen)
	}
	return nnz
}

func TestEstimateNNZExact(t *testing.T) {
	a, b := buildAB(t)
	flop := EstimateFLOP(a, b)
	got := EstimateNNZ(a, b, flop)
	want := bruteForceNNZ(a, b)
	assert.Equal(t, want, got)
}

func TestEstimateNNZLargerColumn(t *testing.T) {
	// Build A with many reads sharing a single kmer column, to exercise
	// a hash table that must grow past the floor of 16 via probing.
	var triples []Triple[int]
	for r := 0; r < 40; r++ {
		triples = append(triples, Triple[int]{Row: r, Col: 0, Value: r})
	}
	a, err := NewFromTriples(40, 1, triples, firstReduce)
	require.NoError(t, err)
	a = a.Sorted()

	bTriples := []Triple[int]{{Row: 0, Col: 0, Value: 0}}
	b, err := NewFromTriples(1, 1, bTriples, firstReduce)
	require.NoError(t, err)
	b = b.Sorted()

	flop := EstimateFLOP(a, b)
	got := EstimateNNZ(a, b, flop)
	want := bruteForceNNZ(a, b)
	assert.Equal(t, want, got)
	assert.Equal(t, 40, got[0])
}

func TestEstimateNNZEmpty(t *testing.T) {
	empty, err := NewFromTriples[int](0, 0, nil, firstReduce)
	require.NoError(t, err)
	assert.Nil(t, EstimateNNZ(empty, empty, nil))
}
