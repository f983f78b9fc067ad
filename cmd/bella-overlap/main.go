// bella-overlap is the command-line entrypoint for the overlap core:
// it ingests a k-mers list and a reads list, computes the bounds
// thresholds, runs the staged sparse x sparse-transpose product, and
// dispatches every surfaced candidate pair for alignment, writing
// accepted records to an output file (spec.md §6).
//
// Grounded on cmd/bio-fusion/main.go's flag-registration style and
// grail.Init()/vcontext.Background() bootstrap.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/grailbio/bella/bounds"
	"github.com/grailbio/bella/dispatch"
	"github.com/grailbio/bella/driver"
	"github.com/grailbio/bella/memprobe"
	"github.com/grailbio/bella/resultio"
	"github.com/grailbio/bella/xdrop"
)

func usage() {
	fmt.Fprintln(os.Stderr, `
bella-overlap computes pairwise overlaps among a set of long reads from
their shared k-mers.

Usage:
  bella-overlap [flags] <kmers-list> <reference-fasta> <reads-list> <output>

  Required Positional Arguments:
    kmers-list       Text file of repeating ">tag\n<KMER>\n" pairs (spec.md §6).
    reference-fasta  Optional collaborator input; unused by the core, pass "-" if absent.
    reads-list       Text file listing FASTQ paths, one per line.
    output           Path to write tab-separated overlap/skip records to.
`)
	os.Exit(2)
}

func main() {
	flag.Usage = usage

	var (
		depth          = flag.Int("depth", 30, "expected per-base sequencing depth")
		errorRate      = flag.Float64("error-rate", 0.15, "expected per-base error rate")
		kmerLength     = flag.Int("kmerLength", 17, "k-mer length; must match the kmers-list file")
		minProbability = flag.Float64("min-probability", 0.97, "minimum probability mass the bounds must capture")

		totalMemory = flag.Int("totalMemory", 8000, "memory budget in MB, consulted when userDefMem is set or the platform probe fails")
		userDefMem  = flag.Bool("userDefMem", false, "use totalMemory directly instead of probing free system memory")

		skipAlignment = flag.Bool("skipAlignment", false, "emit (nameJ, nameI, count, lenJ, lenI) without aligning")
		adapThr       = flag.Bool("adapThr", false, "enable adaptive (Chernoff-style) acceptance")
		alignEnd      = flag.Bool("alignEnd", false, "enable the end-proximity filter")
		relaxMargin   = flag.Int("relaxMargin", 300, "epsilon for the end-proximity filter")
		deltaChernoff = flag.Float64("deltaChernoff", 0.1, "delta for the adaptive acceptance threshold")
		phi           = flag.Float64("phi", 1.0, "expected score density per overlap base, used by adaptive acceptance")
		defaultThr    = flag.Int("defaultThr", 10, "fixed-mode acceptance score threshold")

		xdropLimit = flag.Int("xdrop", 15, "x-drop tolerance for the alignment kernel")
		numThreads = flag.Int("numThreads", runtime.NumCPU(), "worker count for estimation, SpGEMM, and dispatch")
	)
	flag.Parse()

	if flag.NArg() != 4 {
		usage()
	}
	kmersPath := flag.Arg(0)
	// flag.Arg(1) is the reference FASTA, an unused external collaborator
	// per spec.md §6; accepted for CLI compatibility only.
	readsPath := flag.Arg(2)
	outputPath := flag.Arg(3)

	cleanup := grail.Init()
	defer cleanup()
	ctx := vcontext.Background()

	occurrences, reads, kmerReadCounts, err := driver.Ingest(ctx, kmersPath, readsPath, *kmerLength)
	if err != nil {
		log.Panicf("bella-overlap: ingest: %v", err)
	}

	w, err := resultio.NewWriter(ctx, outputPath)
	if err != nil {
		log.Panicf("bella-overlap: opening output %s: %v", outputPath, err)
	}

	cfg := driver.Config{
		Bounds: bounds.Params{
			Depth:          *depth,
			ErrorRate:      *errorRate,
			K:              *kmerLength,
			MinProbability: *minProbability,
		},
		Dispatch: dispatch.Config{
			SkipAlignment: *skipAlignment,
			AdaptiveThr:   *adapThr,
			AlignEnd:      *alignEnd,
			RelaxMargin:   *relaxMargin,
			DeltaChernoff: *deltaChernoff,
			Phi:           *phi,
			DefaultThr:    *defaultThr,
		},
		TotalMemory: *totalMemory,
		UserDefMem:  *userDefMem,
		NumThreads:  *numThreads,
	}

	in := driver.Inputs{
		Occurrences:    occurrences,
		NumReads:       len(reads.Names),
		NumKmers:       len(kmerReadCounts),
		KmerReadCounts: kmerReadCounts,
		ReadProvider:   reads,
		Aligner:        xdrop.New(xdrop.Config{Match: 1, Mismatch: -1, XDrop: *xdropLimit}),
		MemProber:      memprobe.System,
	}

	thresholds, err := driver.Run(ctx, cfg, in, w)
	if err != nil {
		log.Panicf("bella-overlap: driver: %v", err)
	}
	if err := w.Close(ctx); err != nil {
		log.Panicf("bella-overlap: closing output: %v", err)
	}
	log.Printf("bella-overlap: done; kmer multiplicity bounds [%d, %d]", thresholds.Lower, thresholds.Upper)
}
