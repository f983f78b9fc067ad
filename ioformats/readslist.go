package ioformats

import (
	"bufio"
	"context"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
)

// DefaultBlockBytes is the default raw-byte budget per FASTQ parse block
// (spec.md §6's "upperlimit", ~10 MB), matching
// original_source/occurrence-matrix.cpp's `upperlimit = 10000000`.
const DefaultBlockBytes = 10 * 1000 * 1000

// ReadsListFile is one line of the reads-list file (spec.md §6, CLI arg
// 3): the path to a FASTQ file to ingest.
type ReadsListFile struct {
	Path string
}

// ReadReadsList reads path, a text file listing FASTQ paths one per
// line, and returns them in file order. Blank lines are skipped.
func ReadReadsList(ctx context.Context, path string) ([]ReadsListFile, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "ioformats: open reads-list", path)
	}
	defer f.Close(ctx) // nolint:errcheck

	var files []ReadsListFile
	sc := bufio.NewScanner(f.Reader(ctx))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		files = append(files, ReadsListFile{Path: line})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.E(err, "ioformats: scanning reads-list", path)
	}
	return files, nil
}

// FastqRead is a single-end FASTQ record: an ID and a nucleotide
// sequence. Quality and the "+" line are discarded — the overlap core
// never scores base quality, only exact k-mer identity.
//
// Adapted from grailbio/bio's encoding/fastq.Scanner, trimmed to a
// single-end record (no R1/R2 pairing or UMI extraction, which are
// fusion-calling concerns this module does not have).
type FastqRead struct {
	ID  string
	Seq string
}

// FastqBlockScanner reads one FASTQ file in bounded-size blocks of
// complete records; a block stops taking records once their sequence
// payload reaches maxBlockBytes, so its last record can carry it past
// that budget. Mirrors original_source's ParallelFASTQ::fill_block. This
// lets the ingestion driver parallelize parsing across blocks the same
// way the original parallelizes across omp threads pulling blocks from
// one file.
type FastqBlockScanner struct {
	sc           *bufio.Scanner
	maxBlockSize int
	err          error
	closeFn      func() error
}

// OpenFastqBlocks opens path (transparently gunzipping a ".gz" suffix)
// for block-wise scanning.
func OpenFastqBlocks(ctx context.Context, path string, maxBlockBytes int) (*FastqBlockScanner, error) {
	if maxBlockBytes <= 0 {
		maxBlockBytes = DefaultBlockBytes
	}
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "ioformats: open fastq", path)
	}
	r, closeGzip, err := maybeGunzip(path, f)
	if err != nil {
		f.Close(ctx) // nolint:errcheck
		return nil, err
	}
	return &FastqBlockScanner{
		sc:           bufio.NewScanner(r),
		maxBlockSize: maxBlockBytes,
		closeFn: func() error {
			closeGzip()
			return f.Close(ctx)
		},
	}, nil
}

// NextBlock returns the next batch of complete FASTQ records. Records
// are added while the batch's total sequence length is below the
// scanner's block budget, so a batch holds at least one record and its
// last record may take the total past the budget.
// It returns ok=false once the file is exhausted; callers must then
// check Err.
func (s *FastqBlockScanner) NextBlock() (reads []FastqRead, ok bool) {
	if s.err != nil {
		return nil, false
	}
	size := 0
	for size < s.maxBlockSize {
		id, seq, fetched := s.scanOne()
		if !fetched {
			break
		}
		reads = append(reads, FastqRead{ID: id, Seq: seq})
		size += len(seq)
	}
	return reads, len(reads) > 0
}

func (s *FastqBlockScanner) scanOne() (id, seq string, ok bool) {
	if !s.sc.Scan() {
		s.err = s.sc.Err()
		return "", "", false
	}
	idLine := s.sc.Text()
	if len(idLine) == 0 || idLine[0] != '@' {
		s.err = errors.E("ioformats: malformed fastq record, expected '@' id line, got", idLine)
		return "", "", false
	}
	if !s.sc.Scan() {
		s.err = errors.E("ioformats: truncated fastq record after id", idLine)
		return "", "", false
	}
	seqLine := s.sc.Text()
	if !s.sc.Scan() {
		s.err = errors.E("ioformats: truncated fastq record, missing '+' line", idLine)
		return "", "", false
	}
	plusLine := s.sc.Text()
	if len(plusLine) == 0 || plusLine[0] != '+' {
		s.err = errors.E("ioformats: malformed fastq record, expected '+' line, got", plusLine)
		return "", "", false
	}
	if !s.sc.Scan() {
		s.err = errors.E("ioformats: truncated fastq record, missing quality line", idLine)
		return "", "", false
	}
	// Quality line is read (to keep the scanner aligned) and discarded.
	return idLine[1:], seqLine, true
}

// Err returns the first error encountered during scanning, nil if the
// file was exhausted cleanly.
func (s *FastqBlockScanner) Err() error {
	return s.err
}

// Close releases the underlying file (and gzip reader, if any).
func (s *FastqBlockScanner) Close() error {
	return s.closeFn()
}
