package xdrop

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/bella/overlap"
)

func TestAlignOneExtendsAcrossAnIdenticalRegion(t *testing.T) {
	seq := strings.Repeat("ACGTACGTAC", 10) // 100 identical bases
	a := New(DefaultConfig())

	result := a.AlignOne(seq, seq, overlap.Seed{PosA: 50, PosB: 50})
	assert.Equal(t, 0, result.BegV)
	assert.Equal(t, len(seq), result.EndV)
	assert.Equal(t, 0, result.BegH)
	assert.Equal(t, len(seq), result.EndH)
	assert.Equal(t, len(seq), result.Score)
}

func TestAlignOneStopsAtAMismatchRun(t *testing.T) {
	query := strings.Repeat("A", 40) + strings.Repeat("T", 40)
	target := strings.Repeat("A", 40) + strings.Repeat("C", 40)
	a := New(Config{Match: 1, Mismatch: -1, XDrop: 3})

	result := a.AlignOne(query, target, overlap.Seed{PosA: 20, PosB: 20})
	require.LessOrEqual(t, result.EndV, 44, "extension must stop shortly after the mismatch run begins")
	assert.Greater(t, result.Score, 0)
}

func TestAlignTwoScoresTheSpanBetweenBothSeeds(t *testing.T) {
	seq := strings.Repeat("ACGTACGTAC", 10)
	a := New(DefaultConfig())

	result := a.AlignTwo(seq, seq, overlap.Seed{PosA: 10, PosB: 10}, overlap.Seed{PosA: 80, PosB: 80})
	assert.Equal(t, 0, result.BegV)
	assert.Equal(t, len(seq), result.EndV)
	assert.Equal(t, len(seq), result.Score)
}

func TestAlignTwoOrdersSeedsRegardlessOfInputOrder(t *testing.T) {
	seq := strings.Repeat("ACGTACGTAC", 10)
	a := New(DefaultConfig())

	forward := a.AlignTwo(seq, seq, overlap.Seed{PosA: 10, PosB: 10}, overlap.Seed{PosA: 80, PosB: 80})
	reversed := a.AlignTwo(seq, seq, overlap.Seed{PosA: 80, PosB: 80}, overlap.Seed{PosA: 10, PosB: 10})
	assert.Equal(t, forward, reversed)
}
