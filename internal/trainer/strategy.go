package trainer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bpetrain/internal/utils"
)

// Strategy selects how pair frequencies are maintained between iterations.
type Strategy string

const (
	// Recount rebuilds the pair table from the whole vocabulary every iteration.
	Recount Strategy = "recount"
	// Incremental keeps the pair table across iterations and only revisits words that
	// contained the merged pair.
	Incremental Strategy = "incremental"
)

var ErrInvalidStrategy = errors.New("unknown training strategy")

// ParseStrategy maps a name to a Strategy. The empty string selects Incremental.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", Incremental:
		return Incremental, nil
	case Recount:
		return Recount, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStrategy, s)
}

// engine is the part of the loop that differs between strategies.
type engine interface {
	// best returns the next pair to merge, or false when no pair is left.
	best(ctx context.Context) (Pair, int64, bool, error)
	// apply collapses pair everywhere.
	apply(ctx context.Context, pair Pair) error
	// vocabulary returns the current state.
	vocabulary() *Vocabulary
}

type recountEngine struct {
	vocab   *Vocabulary
	workers int
}

func (e *recountEngine) best(ctx context.Context) (Pair, int64, bool, error) {
	table, err := CountPairs(ctx, e.vocab, e.workers)
	if err != nil {
		return Pair{}, 0, false, err
	}
	p, n, ok := SelectBest(table)
	return p, n, ok, nil
}

func (e *recountEngine) apply(ctx context.Context, pair Pair) error {
	next, err := Merge(ctx, e.vocab, pair, e.workers)
	if err != nil {
		return err
	}
	e.vocab = next
	return nil
}

func (e *recountEngine) vocabulary() *Vocabulary { return e.vocab }

// incrementalEngine keeps one working segmentation per initial entry. Entries that converge
// are only collapsed when a Vocabulary snapshot is taken.
//
// Invariants we maintain:
//   - counts[p] is the exact frequency of p across words, and has no entries <= 0.
//   - every pair in counts has at least one queued candidate whose Count >= counts[p].
//   - where[p] holds every word index that contains p (it may also hold stale indices).
type incrementalEngine struct {
	marker string
	words  [][]Symbol
	freqs  []int64

	counts map[Pair]int64
	where  map[Pair]map[int]struct{}
	queue  *utils.MergeHeap

	snapshot *Vocabulary // nil once a merge has been applied since the last snapshot
}

func newIncrementalEngine(ctx context.Context, v *Vocabulary, workers int) (*incrementalEngine, error) {
	counts, err := CountPairs(ctx, v, workers)
	if err != nil {
		return nil, err
	}

	e := &incrementalEngine{
		marker:   v.marker,
		words:    make([][]Symbol, v.Len()),
		freqs:    make([]int64, v.Len()),
		counts:   counts,
		where:    make(map[Pair]map[int]struct{}, len(counts)),
		queue:    utils.NewMergeHeap(),
		snapshot: v,
	}

	for i, en := range v.entries {
		e.words[i] = en.symbols
		e.freqs[i] = en.freq
		for j := 0; j+1 < len(en.symbols); j++ {
			e.indexPair(Pair{en.symbols[j], en.symbols[j+1]}, i)
		}
	}

	seed := utils.Candidates(len(counts))
	for p, n := range counts {
		seed = append(seed, utils.MergeCand{Left: p.Left, Right: p.Right, Count: n})
	}
	e.queue.PushAll(seed)
	slog.Debug("seeded merge queue", "candidates", e.queue.Len(), "words", len(e.words))
	return e, nil
}

func (e *incrementalEngine) indexPair(p Pair, word int) {
	set, ok := e.where[p]
	if !ok {
		set = make(map[int]struct{})
		e.where[p] = set
	}
	set[word] = struct{}{}
}

func (e *incrementalEngine) best(_ context.Context) (Pair, int64, bool, error) {
	for {
		c, ok := e.queue.Pop()
		if !ok {
			return Pair{}, 0, false, nil
		}

		p := Pair{c.Left, c.Right}
		current := e.counts[p]
		switch {
		case current <= 0:
			continue
		case current != c.Count:
			// stale snapshot, requeue with the real value
			e.queue.Push(utils.MergeCand{Left: p.Left, Right: p.Right, Count: current})
			continue
		}
		return p, current, true, nil
	}
}

// apply never fails; best already popped the candidate for pair.
func (e *incrementalEngine) apply(_ context.Context, pair Pair) error {
	merged := pair.Merged()
	deltas := make(map[Pair]int64)

	for w := range e.where[pair] {
		old := e.words[w]
		next := mergeSymbols(old, pair, merged)
		if len(next) == len(old) {
			// stale index entry
			continue
		}

		f := e.freqs[w]
		for j := 0; j+1 < len(old); j++ {
			deltas[Pair{old[j], old[j+1]}] -= f
		}
		for j := 0; j+1 < len(next); j++ {
			p := Pair{next[j], next[j+1]}
			deltas[p] += f
			e.indexPair(p, w)
		}
		e.words[w] = next
	}
	delete(e.where, pair)

	for p, d := range deltas {
		if d == 0 {
			continue
		}
		n := e.counts[p] + d
		if n <= 0 {
			delete(e.counts, p)
			continue
		}
		e.counts[p] = n
		if d > 0 {
			e.queue.Push(utils.MergeCand{Left: p.Left, Right: p.Right, Count: n})
		}
	}

	e.snapshot = nil
	return nil
}

func (e *incrementalEngine) vocabulary() *Vocabulary {
	if e.snapshot != nil {
		return e.snapshot
	}

	v := newVocabulary(e.marker, len(e.words))
	for i, symbols := range e.words {
		v.add(symbols, e.freqs[i])
	}
	e.snapshot = v
	return v
}
