package trainer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bpetrain/internal/logutil"
)

// DefaultProgressEvery is how many merges pass between progress observations.
const DefaultProgressEvery = 1000

// State is the trainer's position in its lifecycle.
type State int

const (
	Ready State = iota
	Iterating
	Done
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Iterating:
		return "iterating"
	case Done:
		return "done"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// StopReason says why a trainer reached Done.
type StopReason int

const (
	NotStopped StopReason = iota
	// BudgetReached means the requested number of merges was learned.
	BudgetReached
	// Exhausted means no adjacent pair was left before the budget was reached.
	Exhausted
)

func (r StopReason) String() string {
	switch r {
	case NotStopped:
		return "not stopped"
	case BudgetReached:
		return "budget reached"
	case Exhausted:
		return "exhausted"
	}
	return fmt.Sprintf("StopReason(%d)", int(r))
}

// Progress is delivered to the observer every ProgressEvery merges.
type Progress struct {
	Merges int   // merges learned so far
	Budget int   // requested merges
	Last   Pair  // most recent rule
	Freq   int64 // frequency of Last when it was chosen
}

// Observer receives progress observations. It must not block for long; it runs on the training goroutine.
type Observer func(Progress)

// Options configure a Trainer.
type Options struct {
	// Merges is the merge budget. Non-positive values learn nothing.
	Merges int
	// Workers bounds the goroutines used to count and rewrite one iteration. Values below 1 mean 1.
	Workers int
	// Strategy chooses how pair frequencies are kept. Empty means Incremental.
	Strategy Strategy
	// ProgressEvery sets the observation interval. Zero means DefaultProgressEvery, negative disables it.
	ProgressEvery int
	Observer      Observer
}

// Trainer learns merge rules from a vocabulary. It is not safe for concurrent use.
type Trainer struct {
	opts    Options
	initial *Vocabulary

	state  State
	reason StopReason
	engine engine
	merges []Pair
}

// New returns a trainer in the Ready state.
func New(v *Vocabulary, opts Options) (*Trainer, error) {
	strategy, err := ParseStrategy(string(opts.Strategy))
	if err != nil {
		return nil, err
	}
	opts.Strategy = strategy

	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.ProgressEvery == 0 {
		opts.ProgressEvery = DefaultProgressEvery
	}

	return &Trainer{opts: opts, initial: v, state: Ready}, nil
}

func (t *Trainer) State() State           { return t.state }
func (t *Trainer) StopReason() StopReason { return t.reason }

// Merges returns the rules learned so far, in creation order. The slice must not be modified.
func (t *Trainer) Merges() []Pair { return t.merges }

// Vocabulary returns the current vocabulary.
func (t *Trainer) Vocabulary() *Vocabulary {
	if t.engine == nil {
		return t.initial
	}
	return t.engine.vocabulary()
}

func (t *Trainer) start(ctx context.Context) error {
	if t.opts.Merges <= 0 {
		t.finish(BudgetReached)
		return nil
	}

	switch t.opts.Strategy {
	case Recount:
		t.engine = &recountEngine{vocab: t.initial, workers: t.opts.Workers}
	default:
		e, err := newIncrementalEngine(ctx, t.initial, t.opts.Workers)
		if err != nil {
			return err
		}
		t.engine = e
	}

	t.merges = make([]Pair, 0, min(t.opts.Merges, 1<<16))
	t.state = Iterating
	slog.Debug("training started", "strategy", t.opts.Strategy, "workers", t.opts.Workers,
		"budget", t.opts.Merges, "sequences", t.initial.Len(), "occurrences", t.initial.Total())
	return nil
}

func (t *Trainer) finish(reason StopReason) {
	t.state = Done
	t.reason = reason
}

// Step runs one iteration. It returns false once the trainer is Done.
// An error leaves the trainer in the state it had before the failing iteration.
func (t *Trainer) Step(ctx context.Context) (bool, error) {
	if t.state == Ready {
		if err := t.start(ctx); err != nil {
			return false, err
		}
	}
	if t.state == Done {
		return false, nil
	}

	pair, freq, ok, err := t.engine.best(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		t.finish(Exhausted)
		return false, nil
	}

	if err := t.engine.apply(ctx, pair); err != nil {
		return false, err
	}
	t.merges = append(t.merges, pair)
	logutil.Trace("merge", "rank", len(t.merges)-1, "left", pair.Left, "right", pair.Right, "freq", freq)

	n := len(t.merges)
	if t.opts.Observer != nil && t.opts.ProgressEvery > 0 && n%t.opts.ProgressEvery == 0 {
		t.opts.Observer(Progress{Merges: n, Budget: t.opts.Merges, Last: pair, Freq: freq})
	}

	if n >= t.opts.Merges {
		t.finish(BudgetReached)
		return false, nil
	}
	return true, nil
}

// Run steps until Done. The context is checked between iterations; when it is cancelled Run
// returns its error and the rules learned so far stay available through Merges.
func (t *Trainer) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("training stopped after %d merges: %w", len(t.merges), err)
		}
		more, err := t.Step(ctx)
		if err != nil {
			return fmt.Errorf("training stopped after %d merges: %w", len(t.merges), err)
		}
		if !more {
			return nil
		}
	}
}
