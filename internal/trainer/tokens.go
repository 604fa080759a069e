package trainer

import (
	"github.com/emirpasic/gods/v2/sets/treeset"
)

// TokenSet is the flat set of distinct symbols in a vocabulary, end-of-word marker removed.
type TokenSet struct {
	set *treeset.Set[string]
}

// ExtractTokens collects every symbol of every sequence in v.
func ExtractTokens(v *Vocabulary) *TokenSet {
	ts := &TokenSet{set: treeset.New[string]()}
	v.Each(func(_ SymbolSequence, symbols []Symbol, _ int64) {
		for _, s := range symbols {
			ts.set.Add(StripMarker(s, v.marker))
		}
	})
	return ts
}

func (ts *TokenSet) Len() int { return ts.set.Size() }

func (ts *TokenSet) Contains(tok string) bool { return ts.set.Contains(tok) }

// Sorted returns the members in lexicographic order.
func (ts *TokenSet) Sorted() []string { return ts.set.Values() }
