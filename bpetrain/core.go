package bpetrain

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bpetrain/internal/corpus"
	"github.com/bpetrain/internal/model"
	"github.com/bpetrain/internal/trainer"
)

// Config describes one training run.
type Config struct {
	InputPath     string
	MergesPath    string
	VocabPath     string
	VocabJSONPath string // optional

	MergesCount   int
	Workers       int
	Strategy      string
	EndOfWord     string
	ProgressEvery int

	// RunID tags the report. A nil id is replaced by a fresh one.
	RunID uuid.UUID
}

// Report summarises a finished training run.
type Report struct {
	RunID       uuid.UUID
	Strategy    trainer.Strategy
	Words       int64 // word occurrences in the corpus
	Distinct    int   // distinct words
	Symbols     int64 // symbol occurrences before the first merge
	Budget      int
	Merges      int
	Tokens      int
	StopReason  trainer.StopReason
	Elapsed     time.Duration
	MergeRules  []trainer.Pair
	TokenValues []string
}

// InputError means the corpus could not be read. Nothing was trained.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("cannot read corpus %s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// OutputError means training finished but an artifact could not be written.
// Report describes the training that was lost.
type OutputError struct {
	Path   string
	Err    error
	Report *Report
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("trained %d merges but cannot write %s: %v", e.Report.Merges, e.Path, e.Err)
}

func (e *OutputError) Unwrap() error { return e.Err }

// Train reads the corpus and learns merges without writing anything.
func Train(ctx context.Context, cfg Config, observer trainer.Observer) (*Report, error) {
	strategy, err := trainer.ParseStrategy(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	marker := cfg.EndOfWord
	if marker == "" {
		marker = trainer.DefaultEndOfWord
	}
	if err := trainer.ValidateMarker(marker); err != nil {
		return nil, err
	}
	if cfg.RunID == uuid.Nil {
		cfg.RunID = uuid.New()
	}

	started := time.Now()
	counts, err := corpus.ReadFile(ctx, cfg.InputPath)
	if err != nil {
		return nil, &InputError{Path: cfg.InputPath, Err: err}
	}

	vocab, err := trainer.NewVocabulary(counts, marker)
	if err != nil {
		return nil, err
	}
	slog.Info("corpus loaded", "path", cfg.InputPath, "words", counts.Total(), "distinct", len(counts))

	t, err := trainer.New(vocab, trainer.Options{
		Merges:        cfg.MergesCount,
		Workers:       cfg.Workers,
		Strategy:      strategy,
		ProgressEvery: cfg.ProgressEvery,
		Observer:      observer,
	})
	if err != nil {
		return nil, err
	}
	if err := t.Run(ctx); err != nil {
		return nil, err
	}

	tokens := trainer.ExtractTokens(t.Vocabulary()).Sorted()
	report := &Report{
		RunID:       cfg.RunID,
		Strategy:    strategy,
		Words:       counts.Total(),
		Distinct:    len(counts),
		Symbols:     symbolCount(vocab),
		Budget:      cfg.MergesCount,
		Merges:      len(t.Merges()),
		Tokens:      len(tokens),
		StopReason:  t.StopReason(),
		Elapsed:     time.Since(started),
		MergeRules:  t.Merges(),
		TokenValues: tokens,
	}

	if report.StopReason == trainer.Exhausted {
		slog.Info("no pairs left to merge", "merges", report.Merges, "budget", report.Budget)
	}
	slog.Info("training finished", "merges", report.Merges, "tokens", report.Tokens,
		"stop", report.StopReason.String(), "elapsed", report.Elapsed.Round(time.Millisecond))
	return report, nil
}

// Run trains and writes the merges, vocab and optional vocab.json files.
func Run(ctx context.Context, cfg Config, observer trainer.Observer) (*Report, error) {
	report, err := Train(ctx, cfg, observer)
	if err != nil {
		return nil, err
	}

	m, err := model.New(report.MergeRules, report.TokenValues)
	if err != nil {
		return report, err
	}

	if err := m.Save(cfg.MergesPath, cfg.VocabPath, cfg.VocabJSONPath); err != nil {
		path := cfg.MergesPath
		var pe *fs.PathError
		if errors.As(err, &pe) {
			path = pe.Path
		}
		return report, &OutputError{Path: path, Err: err, Report: report}
	}

	slog.Debug("artifacts written", "merges", cfg.MergesPath, "vocab", cfg.VocabPath, "vocab_json", cfg.VocabJSONPath)
	return report, nil
}

func symbolCount(v *trainer.Vocabulary) int64 {
	var n int64
	v.Each(func(_ trainer.SymbolSequence, symbols []trainer.Symbol, freq int64) {
		n += int64(len(symbols)) * freq
	})
	return n
}
