package kmer

import (
	"sync"

	"blainsmith.com/go/seahash"
)

// nShards mirrors fusion/kmer_index.go's 256-way sharded layout: each
// shard owns an independent lock and map, so concurrent ingestion
// workers populating distinct (read-name or k-mer-tag) strings rarely
// contend with each other.
const nShards = 256

// Interner assigns a stable, densely-packed int32 ID to each distinct
// string it sees (a read name or a k-mer tag from the input files),
// first-come-first-served. It is safe for concurrent use by multiple
// ingestion workers.
type Interner struct {
	shards [nShards]shard
	next   int32
	mu     sync.Mutex // guards next and cross-shard ID assignment
}

type shard struct {
	mu  sync.Mutex
	ids map[string]int32
}

// NewInterner returns an empty Interner.
func NewInterner() *Interner {
	in := &Interner{}
	for i := range in.shards {
		in.shards[i].ids = make(map[string]int32)
	}
	return in
}

func shardFor(name string) int {
	return int(seahash.Sum64([]byte(name)) & (nShards - 1))
}

// Intern returns name's ID, assigning a new one if name hasn't been seen
// before.
func (in *Interner) Intern(name string) int32 {
	s := &in.shards[shardFor(name)]
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.ids[name]; ok {
		return id
	}

	// The ID is drawn while the shard lock is held and only once name is
	// known to be new, so concurrent callers never skip an ID.
	in.mu.Lock()
	id := in.next
	in.next++
	in.mu.Unlock()

	s.ids[name] = id
	return id
}

// Len returns the number of distinct strings interned so far.
func (in *Interner) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return int(in.next)
}
