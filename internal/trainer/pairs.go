package trainer

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// PairTable maps an adjacent symbol pair to its aggregated frequency.
// A table belongs to the iteration that produced it.
type PairTable map[Pair]int64

// shard is a half-open range of vocabulary entries.
type shard struct{ lo, hi int }

// minShard keeps small vocabularies on a single goroutine
var minShard = 512

func shards(n, workers int) []shard {
	if workers < 1 {
		workers = 1
	}
	if limit := (n + minShard - 1) / minShard; workers > limit {
		workers = limit
	}
	if workers <= 1 {
		return []shard{{0, n}}
	}

	out := make([]shard, 0, workers)
	size := (n + workers - 1) / workers
	for lo := 0; lo < n; lo += size {
		out = append(out, shard{lo, min(lo+size, n)})
	}
	return out
}

// countRange adds the pairs of entries[lo:hi] into table.
func countRange(table PairTable, entries []entry) {
	for _, e := range entries {
		for i := 0; i+1 < len(e.symbols); i++ {
			table[Pair{e.symbols[i], e.symbols[i+1]}] += e.freq
		}
	}
}

// CountPairs computes the frequency of every adjacent pair in v. The vocabulary is split into
// contiguous shards counted by up to workers goroutines and the partial tables are summed.
func CountPairs(ctx context.Context, v *Vocabulary, workers int) (PairTable, error) {
	parts := shards(v.Len(), workers)
	if len(parts) == 1 {
		table := make(PairTable)
		countRange(table, v.entries)
		return table, nil
	}

	partial := make([]PairTable, len(parts))
	g, ctx := errgroup.WithContext(ctx)
	for i, s := range parts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			table := make(PairTable)
			countRange(table, v.entries[s.lo:s.hi])
			partial[i] = table
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// reduce into the largest partial to save a copy
	largest := 0
	for i := range partial {
		if len(partial[i]) > len(partial[largest]) {
			largest = i
		}
	}
	table := partial[largest]
	for i, p := range partial {
		if i == largest {
			continue
		}
		for pair, n := range p {
			table[pair] += n
		}
	}
	return table, nil
}
