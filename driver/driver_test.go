package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/bella/bounds"
	"github.com/grailbio/bella/dispatch"
	"github.com/grailbio/bella/overlap"
	"github.com/grailbio/bella/resultio"
)

type fakeReads struct {
	names []string
	seqs  []string
}

func (r fakeReads) Name(id int) string     { return r.names[id] }
func (r fakeReads) Sequence(id int) string { return r.seqs[id] }
func (r fakeReads) Length(id int) int      { return len(r.seqs[id]) }

// fakeAligner records whether it was invoked with one or two seeds and
// always returns a fixed, acceptable score.
type fakeAligner struct {
	calls []string
}

func (a *fakeAligner) AlignOne(query, target string, seed overlap.Seed) overlap.AlignResult {
	a.calls = append(a.calls, "one")
	return overlap.AlignResult{Score: 1000, BegV: 0, EndV: 100, BegH: 0, EndH: 100}
}

func (a *fakeAligner) AlignTwo(query, target string, first, second overlap.Seed) overlap.AlignResult {
	a.calls = append(a.calls, "two")
	return overlap.AlignResult{Score: 1000, BegV: 0, EndV: 100, BegH: 0, EndH: 100}
}

func writeLines(t *testing.T, path string) []string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var lines []string
	for _, l := range splitNonEmpty(string(b)) {
		lines = append(lines, l)
	}
	return lines
}

func splitNonEmpty(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

func baseConfig() Config {
	return Config{
		Bounds: bounds.Params{Depth: 30, ErrorRate: 0.15, K: 17, MinProbability: 0.97},
		Dispatch: dispatch.Config{
			DefaultThr: 10,
		},
		UserDefMem: true,
		TotalMemory: 8000,
		NumThreads:  2,
	}
}

// TestSingleSharedKmerProducesCandidate covers spec.md §8 scenario 2:
// two reads sharing exactly one k-mer yield a single-seed candidate.
func TestSingleSharedKmerProducesCandidate(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.tsv")
	w, err := resultio.NewWriter(ctx, path)
	require.NoError(t, err)

	in := Inputs{
		Occurrences: []overlap.Occurrence{
			{ReadID: 0, KmerID: 0, Pos: 10},
			{ReadID: 1, KmerID: 0, Pos: 20},
		},
		NumReads:       2,
		NumKmers:       1,
		KmerReadCounts: []int{2},
		ReadProvider:   fakeReads{names: []string{"r0", "r1"}, seqs: []string{string(make([]byte, 500)), string(make([]byte, 500))}},
		Aligner:        &fakeAligner{},
	}

	cfg := baseConfig()
	// Bypass the bounds filter: lower threshold of 2 matches our single
	// shared kmer's read count exactly.
	_, err = Run(ctx, cfg, in, w)
	require.NoError(t, err)
	require.NoError(t, w.Close(ctx))

	lines := writeLines(t, path)
	// C = A * Aᵀ is symmetric and not restricted to a triangle, so the
	// (0,1) pair surfaces once per direction: as column 0's row-1 entry
	// and as column 1's row-0 entry.
	require.Len(t, lines, 2, "a symmetric pair of reads produces one overlap record per direction")
}

// TestEmptyInputsProduceNoOutput covers spec.md §8 scenario 1.
func TestEmptyInputsProduceNoOutput(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.tsv")
	w, err := resultio.NewWriter(ctx, path)
	require.NoError(t, err)

	in := Inputs{
		NumReads:     0,
		NumKmers:     0,
		ReadProvider: fakeReads{},
		Aligner:      &fakeAligner{},
	}
	cfg := baseConfig()
	_, err = Run(ctx, cfg, in, w)
	require.NoError(t, err)
	require.NoError(t, w.Close(ctx))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

// TestBoundsFilterDropsOutOfRangeKmers verifies that a kmer whose read
// count falls outside [lowerMult, upperMult] never reaches the product
// (spec.md §8 scenario 4).
func TestBoundsFilterDropsOutOfRangeKmers(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.tsv")
	w, err := resultio.NewWriter(ctx, path)
	require.NoError(t, err)

	in := Inputs{
		Occurrences: []overlap.Occurrence{
			{ReadID: 0, KmerID: 0, Pos: 1},
			{ReadID: 1, KmerID: 0, Pos: 2},
		},
		NumReads: 2,
		NumKmers: 1,
		// A read count of 1 is below any sane lowerMult (>=2).
		KmerReadCounts: []int{1},
		ReadProvider:   fakeReads{names: []string{"r0", "r1"}, seqs: []string{"ACGT", "ACGT"}},
		Aligner:        &fakeAligner{},
	}
	cfg := baseConfig()
	th, err := Run(ctx, cfg, in, w)
	require.NoError(t, err)
	require.NoError(t, w.Close(ctx))
	assert.GreaterOrEqual(t, th.Lower, 2)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size(), "kmer below lowerMult must be excluded from the product")
}
