package dispatch

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/bella/overlap"
	"github.com/grailbio/bella/resultio"
)

func linesOf(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if sc.Text() != "" {
			lines = append(lines, sc.Text())
		}
	}
	require.NoError(t, sc.Err())
	return lines
}

type fakeReads struct {
	names []string
	seqs  []string
}

func (r fakeReads) Name(id int) string     { return r.names[id] }
func (r fakeReads) Sequence(id int) string { return r.seqs[id] }
func (r fakeReads) Length(id int) int      { return len(r.seqs[id]) }

// fakeAligner returns a fixed result regardless of the seed(s) supplied,
// recording how it was called so tests can assert single- vs two-seed
// selection.
type fakeAligner struct {
	calls  []string
	result overlap.AlignResult
}

func (a *fakeAligner) AlignOne(query, target string, seed overlap.Seed) overlap.AlignResult {
	a.calls = append(a.calls, "one")
	return a.result
}

func (a *fakeAligner) AlignTwo(query, target string, first, second overlap.Seed) overlap.AlignResult {
	a.calls = append(a.calls, "two")
	return a.result
}

func TestSingleSeedCandidateInvokesAlignOne(t *testing.T) {
	reads := fakeReads{names: []string{"r0", "r1"}, seqs: []string{"ACGTACGTAC", "ACGTACGTAC"}}
	aligner := &fakeAligner{result: overlap.AlignResult{Score: 1000}}
	cand := overlap.Candidate{RowID: 1, ColID: 0, Value: overlap.Multiply(2, 3)}

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.tsv")
	w, err := resultio.NewWriter(ctx, path)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.DefaultThr = 0
	require.NoError(t, Run([]overlap.Candidate{cand}, reads, aligner, cfg, w, 4))
	require.NoError(t, w.Close(ctx))

	require.Len(t, aligner.calls, 1)
	assert.Equal(t, "one", aligner.calls[0])
}

func TestTwoSeedCandidateInvokesAlignTwo(t *testing.T) {
	reads := fakeReads{names: []string{"r0", "r1"}, seqs: []string{"ACGTACGTAC", "ACGTACGTAC"}}
	aligner := &fakeAligner{result: overlap.AlignResult{Score: 1000}}
	cand := overlap.Candidate{RowID: 1, ColID: 0, Value: overlap.Add(overlap.Multiply(1, 1), overlap.Multiply(5, 5))}

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.tsv")
	w, err := resultio.NewWriter(ctx, path)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.DefaultThr = 0
	require.NoError(t, Run([]overlap.Candidate{cand}, reads, aligner, cfg, w, 1))
	require.NoError(t, w.Close(ctx))

	require.Len(t, aligner.calls, 1)
	assert.Equal(t, "two", aligner.calls[0])
}

func TestFixedThresholdRejectsLowScore(t *testing.T) {
	reads := fakeReads{names: []string{"r0", "r1"}, seqs: []string{"ACGT", "ACGT"}}
	aligner := &fakeAligner{result: overlap.AlignResult{Score: 5}}
	cand := overlap.Candidate{RowID: 1, ColID: 0, Value: overlap.Multiply(0, 0)}

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.tsv")
	w, err := resultio.NewWriter(ctx, path)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.DefaultThr = 100
	require.NoError(t, Run([]overlap.Candidate{cand}, reads, aligner, cfg, w, 1))
	require.NoError(t, w.Close(ctx))

	assert.Empty(t, linesOf(t, path))
}

func TestSkipAlignmentNeverInvokesAligner(t *testing.T) {
	reads := fakeReads{names: []string{"r0", "r1"}, seqs: []string{"ACGT", "ACGT"}}
	aligner := &fakeAligner{}
	cand := overlap.Candidate{RowID: 1, ColID: 0, Value: overlap.Multiply(0, 0)}

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.tsv")
	w, err := resultio.NewWriter(ctx, path)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.SkipAlignment = true
	require.NoError(t, Run([]overlap.Candidate{cand}, reads, aligner, cfg, w, 1))
	require.NoError(t, w.Close(ctx))

	assert.Empty(t, aligner.calls)
	lines := linesOf(t, path)
	require.Len(t, lines, 1)
	assert.Equal(t, "r0\tr1\t1\t4\t4", lines[0])
}

func TestAdaptiveThresholdLimitingBehavior(t *testing.T) {
	lenJ, lenI := 1000, 1000
	result := overlap.AlignResult{Score: 500, BegV: 100, EndV: 900, BegH: 100, EndH: 900}
	phi := 0.6

	// As delta -> 0, acceptance approaches score > phi*ov.
	ov := overlapEstimate(result, lenJ, lenI)
	nearZero := Config{AdaptiveThr: true, DeltaChernoff: 1e-9, Phi: phi}
	assert.Equal(t, float64(result.Score) > phi*ov, accept(result, lenJ, lenI, nearZero))

	// As delta -> 1, all positive scores are accepted.
	nearOne := Config{AdaptiveThr: true, DeltaChernoff: 1 - 1e-9, Phi: phi}
	assert.True(t, accept(result, lenJ, lenI, nearOne))
}

func TestEndProximityFilterRejectsInteriorAlignment(t *testing.T) {
	result := overlap.AlignResult{Score: 1000, BegV: 500, EndV: 600, BegH: 500, EndH: 600}
	assert.False(t, withinEnd(result, 2000, 2000, 300))
}

func TestEndProximityFilterAcceptsEdgeAlignment(t *testing.T) {
	result := overlap.AlignResult{Score: 1000, BegV: 0, EndV: 900, BegH: 0, EndH: 900}
	assert.True(t, withinEnd(result, 1000, 1000, 300))
}
