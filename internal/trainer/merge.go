package trainer

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// mergeSymbols replaces every non-overlapping (a, b), scanning left to right, with a+b.
// It returns symbols itself, not a copy, when the pair does not occur.
func mergeSymbols(symbols []Symbol, pair Pair, merged Symbol) []Symbol {
	found := false
	for i := 0; i+1 < len(symbols); i++ {
		if symbols[i] == pair.Left && symbols[i+1] == pair.Right {
			found = true
			break
		}
	}
	if !found {
		return symbols
	}

	out := make([]Symbol, 0, len(symbols)-1)
	for i := 0; i < len(symbols); {
		if i+1 < len(symbols) && symbols[i] == pair.Left && symbols[i+1] == pair.Right {
			out = append(out, merged)
			i += 2
		} else {
			out = append(out, symbols[i])
			i++
		}
	}
	return out
}

// Merge rewrites every sequence of v, collapsing pair into a single symbol, and returns the
// new vocabulary. Sequences that become identical have their frequencies summed. v is not modified.
func Merge(ctx context.Context, v *Vocabulary, pair Pair, workers int) (*Vocabulary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	merged := pair.Merged()
	parts := shards(v.Len(), workers)

	rewritten := make([][][]Symbol, len(parts))
	rewrite := func(i int, s shard) {
		out := make([][]Symbol, 0, s.hi-s.lo)
		for _, e := range v.entries[s.lo:s.hi] {
			out = append(out, mergeSymbols(e.symbols, pair, merged))
		}
		rewritten[i] = out
	}

	if len(parts) == 1 {
		rewrite(0, parts[0])
	} else {
		g, ctx := errgroup.WithContext(ctx)
		for i, s := range parts {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				rewrite(i, s)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	// reduce in shard order so entry order stays deterministic
	out := newVocabulary(v.marker, v.Len())
	for i, s := range parts {
		for j, symbols := range rewritten[i] {
			e := v.entries[s.lo+j]
			if len(symbols) == len(e.symbols) {
				// untouched, reuse the key
				out.addEntry(e)
				continue
			}
			out.add(symbols, e.freq)
		}
	}
	return out, nil
}

// Replay applies merges to v in order, as a downstream tokenizer would, and returns the result.
func Replay(ctx context.Context, v *Vocabulary, merges []Pair, workers int) (*Vocabulary, error) {
	for _, pair := range merges {
		next, err := Merge(ctx, v, pair, workers)
		if err != nil {
			return nil, err
		}
		v = next
	}
	return v, nil
}
