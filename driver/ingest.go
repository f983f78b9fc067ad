package driver

import (
	"context"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"

	"github.com/grailbio/bella/ioformats"
	"github.com/grailbio/bella/kmer"
	"github.com/grailbio/bella/overlap"
)

// MemReadProvider serves read names and sequences from in-memory
// slices indexed by the read's interned ID, satisfying
// overlap.ReadProvider. Built once during ingestion and held for the
// entire run, per spec.md §3's ingest-once lifecycle.
type MemReadProvider struct {
	Names []string
	Seqs  []string
}

func (p *MemReadProvider) Name(id int) string     { return p.Names[id] }
func (p *MemReadProvider) Sequence(id int) string { return p.Seqs[id] }
func (p *MemReadProvider) Length(id int) int      { return len(p.Seqs[id]) }

// Ingest reads the k-mers-list file at kmersPath and the reads-list file
// at readsPath, then scans every read for occurrences of a dictionary
// k-mer, producing the Occurrence triples the driver needs plus a
// populated MemReadProvider. Mirrors
// original_source/occurrence-matrix.cpp's main ingestion loop
// (dictionaryCreation, then a per-read sliding-window scan against the
// dictionary), adapted to ioformats' block scanner instead of
// ParallelFASTQ.
func Ingest(ctx context.Context, kmersPath, readsPath string, k int) ([]overlap.Occurrence, *MemReadProvider, []int, error) {
	entries, err := ioformats.ReadKmerList(ctx, kmersPath)
	if err != nil {
		return nil, nil, nil, errors.E(err, "driver: ingest: reading kmers-list")
	}
	dict, err := ioformats.CanonicalDictionary(entries)
	if err != nil {
		return nil, nil, nil, errors.E(err, "driver: ingest: building kmer dictionary")
	}
	log.Printf("driver: ingest: %d distinct k-mers in dictionary", dict.Len())

	files, err := ioformats.ReadReadsList(ctx, readsPath)
	if err != nil {
		return nil, nil, nil, errors.E(err, "driver: ingest: reading reads-list")
	}

	reads := &MemReadProvider{}
	interner := kmer.NewInterner()
	var occurrences []overlap.Occurrence
	// lastSeenRead[tag] tracks the most recent read ID that contributed
	// an occurrence for that k-mer, so KmerReadCounts counts distinct
	// reads rather than raw occurrence volume.
	lastSeenRead := make(map[int]int)
	kmerReadCounts := make([]int, len(entries))

	for _, rf := range files {
		if err := ingestOneFile(ctx, rf.Path, k, dict, reads, interner, &occurrences, lastSeenRead, kmerReadCounts); err != nil {
			return nil, nil, nil, errors.E(err, "driver: ingest: file", rf.Path)
		}
	}
	log.Printf("driver: ingest: %d reads, %d occurrences", len(reads.Names), len(occurrences))
	return occurrences, reads, kmerReadCounts, nil
}

func ingestOneFile(ctx context.Context, path string, k int, dict *kmer.Dict, reads *MemReadProvider, interner *kmer.Interner, occurrences *[]overlap.Occurrence, lastSeenRead map[int]int, kmerReadCounts []int) error {
	sc, err := ioformats.OpenFastqBlocks(ctx, path, ioformats.DefaultBlockBytes)
	if err != nil {
		return err
	}
	defer sc.Close() // nolint:errcheck

	for {
		block, ok := sc.NextBlock()
		for _, r := range block {
			// Intern gives a read its stable ID by name rather than by
			// append order, so the same read name seen again (e.g.
			// across two reads-list files) reuses its first ID instead
			// of double-counting. A repeat name is treated as the same
			// logical read: only its first sequence is ever stored or
			// scanned, so a later record under the same name can't leave
			// occurrences whose Pos offsets were computed against a
			// sequence MemReadProvider no longer serves for that ID.
			readID := int(interner.Intern(r.ID))
			if readID == len(reads.Names) {
				reads.Names = append(reads.Names, r.ID)
				reads.Seqs = append(reads.Seqs, r.Seq)
				scanReadForKmers(readID, r.Seq, k, dict, occurrences, lastSeenRead, kmerReadCounts)
			}
		}
		if !ok {
			break
		}
	}
	return sc.Err()
}

// scanReadForKmers slides a length-k window across seq, looking up each
// window's canonical form in dict and recording an Occurrence on a hit.
func scanReadForKmers(readID int, seq string, k int, dict *kmer.Dict, occurrences *[]overlap.Occurrence, lastSeenRead map[int]int, kmerReadCounts []int) {
	if len(seq) < k {
		return
	}
	for j := 0; j+k <= len(seq); j++ {
		canon, ok := kmer.Canonical(seq[j : j+k])
		if !ok {
			continue
		}
		tag, ok := dict.Lookup(canon)
		if !ok {
			continue
		}
		*occurrences = append(*occurrences, overlap.Occurrence{ReadID: readID, KmerID: tag, Pos: overlap.Pos(j)})
		if lastSeenRead[tag] != readID+1 { // +1 so the zero value never collides with read 0
			lastSeenRead[tag] = readID + 1
			if tag >= 0 && tag < len(kmerReadCounts) {
				kmerReadCounts[tag]++
			}
		}
	}
}
