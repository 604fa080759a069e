package bpetrain

import (
	"context"
	"fmt"

	"github.com/bpetrain/internal/corpus"
	"github.com/bpetrain/internal/model"
	"github.com/bpetrain/internal/trainer"
)

// Mismatch lists the tokens that differ between a vocab file and the one rebuilt from the corpus.
type Mismatch struct {
	Missing []string // rebuilt but not in the vocab file
	Extra   []string // in the vocab file but not rebuilt
}

func (m *Mismatch) Error() string {
	return fmt.Sprintf("vocab does not match corpus: %d missing, %d extra", len(m.Missing), len(m.Extra))
}

// Verify replays the merges file over the corpus and checks the result against the vocab file.
// It returns a *Mismatch when the token sets differ.
func Verify(ctx context.Context, inputPath, mergesPath, vocabPath, marker string, workers int) (*model.Model, error) {
	if marker == "" {
		marker = trainer.DefaultEndOfWord
	}

	m, err := model.LoadFromFiles(mergesPath, vocabPath)
	if err != nil {
		return nil, err
	}
	if err := m.Check(marker); err != nil {
		return m, err
	}

	counts, err := corpus.ReadFile(ctx, inputPath)
	if err != nil {
		return m, &InputError{Path: inputPath, Err: err}
	}
	initial, err := trainer.NewVocabulary(counts, marker)
	if err != nil {
		return m, err
	}
	if err := m.Table.Validate(model.SymbolSet(baseSymbols(initial))); err != nil {
		return m, fmt.Errorf("merges do not fit %s: %w", inputPath, err)
	}
	final, err := trainer.Replay(ctx, initial, m.Merges, workers)
	if err != nil {
		return m, err
	}

	rebuilt := trainer.ExtractTokens(final)
	if mm := diffTokens(rebuilt, m.Tokens); mm != nil {
		return m, mm
	}
	return m, nil
}

// baseSymbols collects the symbols present before any merge is applied.
func baseSymbols(v *trainer.Vocabulary) map[string]struct{} {
	symbols := make(map[string]struct{})
	v.Each(func(_ trainer.SymbolSequence, seq []trainer.Symbol, _ int64) {
		for _, s := range seq {
			symbols[s] = struct{}{}
		}
	})
	return symbols
}

func diffTokens(rebuilt *trainer.TokenSet, tokens []string) *Mismatch {
	var mm Mismatch
	listed := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		listed[tok] = struct{}{}
		if !rebuilt.Contains(tok) {
			mm.Extra = append(mm.Extra, tok)
		}
	}
	for _, tok := range rebuilt.Sorted() {
		if _, ok := listed[tok]; !ok {
			mm.Missing = append(mm.Missing, tok)
		}
	}

	if len(mm.Missing) == 0 && len(mm.Extra) == 0 {
		return nil
	}
	return &mm
}
