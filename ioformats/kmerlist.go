// Package ioformats implements the concrete readers for the overlap
// core's two text input formats (spec.md §6): the k-mers list (repeating
// ">tag\n<KMER>\n" pairs) and the reads list (a file of FASTQ paths, one
// per line, each parsed in bounded-size blocks).
//
// Grounded on original_source/occurrence-matrix.cpp's dictionaryCreation
// (k-mer tag file) and GetFiles/ParallelFASTQ::fill_block (reads list),
// adapted to grailbio/bio's encoding/fastq.Scanner and
// github.com/grailbio/base/file for path-agnostic opening.
package ioformats

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/klauspost/compress/gzip"

	"github.com/grailbio/bella/kmer"
)

// KmerEntry is one tagged k-mer from the k-mers list file: Tag is the
// integer parsed from its ">N" line (kept for diagnostics; the k-mer's
// ID is its file-order position, see CanonicalDictionary) and Literal is
// the k-mer text.
type KmerEntry struct {
	Tag     int
	Literal string
}

// ReadKmerList reads path, a file of repeating ">N\n<KMER>\n" line pairs,
// and returns the decoded entries in file order. A blank line (such as
// the trailing one some k-mer list generators emit) ends the stream
// early, and entries after it are not read, mirroring original_source/occurrence-matrix.cpp's
// `if (line.length() == 0) break;`. A ".gz" suffix on path is
// transparently decompressed.
func ReadKmerList(ctx context.Context, path string) ([]KmerEntry, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "ioformats: open kmers-list", path)
	}
	defer f.Close(ctx) // nolint:errcheck

	r, closeGzip, err := maybeGunzip(path, f)
	if err != nil {
		return nil, err
	}
	defer closeGzip()

	var entries []KmerEntry
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		tagLine := sc.Text()
		if len(tagLine) == 0 {
			break
		}
		if tagLine[0] != '>' {
			return nil, errors.E(fmt.Sprintf("ioformats: malformed kmers-list %s: expected '>' tag line, got %q", path, tagLine))
		}
		tag, err := strconv.Atoi(tagLine[1:])
		if err != nil {
			return nil, errors.E(err, "ioformats: malformed tag in kmers-list", path, tagLine)
		}
		if !sc.Scan() {
			return nil, errors.E(fmt.Sprintf("ioformats: kmers-list %s ends after tag %q with no k-mer line", path, tagLine))
		}
		entries = append(entries, KmerEntry{Tag: tag, Literal: sc.Text()})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.E(err, "ioformats: scanning kmers-list", path)
	}
	return entries, nil
}

// maybeGunzip wraps f's reader in a gzip.Reader when path looks
// gzip-compressed; the returned close func must always be called.
func maybeGunzip(path string, f file.File) (r *bufio.Reader, closeFn func(), err error) {
	ctx := context.Background()
	raw := f.Reader(ctx)
	if !strings.HasSuffix(path, ".gz") {
		return bufio.NewReader(raw), func() {}, nil
	}
	gz, err := gzip.NewReader(raw)
	if err != nil {
		return nil, nil, errors.E(err, "ioformats: gzip", path)
	}
	return bufio.NewReader(gz), func() { gz.Close() }, nil // nolint:errcheck
}

// CanonicalDictionary builds the canonical-kmer -> dictionary-index
// lookup that ingestion uses to recognize a k-mer literal found in a
// read, mirroring original_source's dictionaryCreation: despite parsing
// a Tag off every entry's ">N" line, dictionaryCreation keys its map by
// the k-mer vector's file-order position (`kmerdict.insert(make_pair(
// kmervect[i].rep(), i))`), not by the tag. A kmers-list whose tags
// aren't already a dense 0-indexed sequence would otherwise alias two
// literals to the same column or have occurrences silently dropped by
// the driver's NumKmers bounds filter. Tag survives on KmerEntry only
// for diagnostics; it never drives indexing.
//
// A literal repeated at more than one position keeps the index of its
// first occurrence, matching std::unordered_map::insert's no-overwrite
// semantics in the original.
func CanonicalDictionary(entries []KmerEntry) (*kmer.Dict, error) {
	dict := kmer.NewDict(len(entries))
	for i, e := range entries {
		canon, ok := kmer.Canonical(e.Literal)
		if !ok {
			return nil, errors.E(fmt.Sprintf("ioformats: invalid k-mer literal %q (tag %d)", e.Literal, e.Tag))
		}
		if _, exists := dict.Lookup(canon); !exists {
			dict.Insert(canon, i)
		}
	}
	return dict, nil
}
