// Package resultio implements the overlap core's line-oriented,
// tab-separated result stream (spec.md §4.9): append-only, thread-safe
// by per-thread batching plus a single critical region around the
// append, with no per-record locking.
//
// Grounded on grailbio-bio/cmd/bio-fusion/main.go's writeGeneList
// (file.Create + bufio.Writer + errors.Once to aggregate write/flush/
// close errors) and generalized from a single writer goroutine to many
// dispatch workers sharing one underlying stream.
package resultio

import (
	"bufio"
	"context"
	"strconv"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"

	"github.com/grailbio/bella/overlap"
)

// OverlapRecord is one accepted alignment, matching spec.md §6's
// overlap record column order exactly:
// nameJ, nameI, count, score, strand, begV, endV, lenJ, begH, endH, lenI.
type OverlapRecord struct {
	NameJ, NameI string
	Count        int
	Score        int
	Strand       overlap.Strand
	BegV, EndV   int
	LenJ         int
	BegH, EndH   int
	LenI         int
}

// SkipRecord is emitted in place of an OverlapRecord when
// Config.SkipAlignment is set: the pair is reported without ever
// invoking the alignment kernel.
type SkipRecord struct {
	NameJ, NameI string
	Count        int
	LenJ, LenI   int
}

const batchSize = 256

// Writer batches records per call to NewBatch and flushes each batch
// under a single mutex, keeping lock contention low across many
// concurrent dispatch workers.
type Writer struct {
	mu  sync.Mutex
	w   *bufio.Writer
	out file.File
	err errors.Once
}

// NewWriter opens path and returns a Writer appending tab-separated
// lines to it.
func NewWriter(ctx context.Context, path string) (*Writer, error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return nil, errors.E(err, "resultio: create", path)
	}
	return &Writer{w: bufio.NewWriter(out.Writer(ctx)), out: out}, nil
}

// Batch buffers lines from one dispatch worker and flushes them into
// the shared Writer's critical region a batchSize at a time, so a
// worker that accepts few candidates does not hold the lock per line.
type Batch struct {
	w     *Writer
	lines []string
}

// NewBatch returns a per-worker batch buffer bound to w.
func (w *Writer) NewBatch() *Batch {
	return &Batch{w: w, lines: make([]string, 0, batchSize)}
}

func strand(s overlap.Strand) string {
	if s == overlap.Reverse {
		return "-"
	}
	return "+"
}

// WriteOverlap appends an overlap record, per spec.md §6's 11-column
// format.
func (w *Writer) WriteOverlap(r OverlapRecord) {
	b := w.NewBatch()
	b.AddOverlap(r)
	b.Flush()
}

// WriteSkip appends a skip-alignment record, per spec.md §6's 5-column
// format.
func (w *Writer) WriteSkip(r SkipRecord) {
	b := w.NewBatch()
	b.AddSkip(r)
	b.Flush()
}

// AddOverlap buffers an overlap-record line into the batch.
func (b *Batch) AddOverlap(r OverlapRecord) {
	line := tsv(
		r.NameJ, r.NameI,
		strconv.Itoa(r.Count),
		strconv.Itoa(r.Score),
		strand(r.Strand),
		strconv.Itoa(r.BegV), strconv.Itoa(r.EndV), strconv.Itoa(r.LenJ),
		strconv.Itoa(r.BegH), strconv.Itoa(r.EndH), strconv.Itoa(r.LenI),
	)
	b.lines = append(b.lines, line)
	if len(b.lines) >= batchSize {
		b.Flush()
	}
}

// AddSkip buffers a skip-alignment-record line into the batch.
func (b *Batch) AddSkip(r SkipRecord) {
	line := tsv(
		r.NameJ, r.NameI,
		strconv.Itoa(r.Count),
		strconv.Itoa(r.LenJ), strconv.Itoa(r.LenI),
	)
	b.lines = append(b.lines, line)
	if len(b.lines) >= batchSize {
		b.Flush()
	}
}

// Flush appends the batch's buffered lines to the shared stream under
// the Writer's single critical region, then clears the batch.
func (b *Batch) Flush() {
	if len(b.lines) == 0 {
		return
	}
	b.w.mu.Lock()
	for _, line := range b.lines {
		_, err := b.w.w.WriteString(line)
		b.w.err.Set(err)
		b.w.err.Set(b.w.w.WriteByte('\n'))
	}
	b.w.mu.Unlock()
	b.lines = b.lines[:0]
}

func tsv(fields ...string) string {
	out := fields[0]
	for _, f := range fields[1:] {
		out += "\t" + f
	}
	return out
}

// Close flushes buffered bytes and closes the underlying file,
// returning the first error encountered across the Writer's lifetime.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	w.err.Set(w.w.Flush())
	w.mu.Unlock()
	w.err.Set(w.out.Close(ctx))
	return w.err.Err()
}
