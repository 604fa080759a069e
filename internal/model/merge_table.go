package model

import (
	"fmt"
	"unicode/utf8"

	"github.com/bpetrain/internal/trainer"
)

// MergeTable indexes an ordered merge list by pair.
//
// Invariants we maintain:
//   - ranks[p] is the index of the first rule equal to p.
//   - produced[s] is the index of the first rule whose output is s.
type MergeTable struct {
	merges   []trainer.Pair
	ranks    map[trainer.Pair]int
	produced map[string]int
}

// NewMergeTable builds the lookup structure. Later duplicates of a pair keep the first rank.
func NewMergeTable(merges []trainer.Pair) *MergeTable {
	mt := &MergeTable{
		merges:   merges,
		ranks:    make(map[trainer.Pair]int, len(merges)),
		produced: make(map[string]int, len(merges)),
	}

	for rank, p := range merges {
		if _, ok := mt.ranks[p]; !ok {
			mt.ranks[p] = rank
		}
		if _, ok := mt.produced[p.Merged()]; !ok {
			mt.produced[p.Merged()] = rank
		}
	}
	return mt
}

// Produced returns the rank of the first rule that outputs s.
func (mt *MergeTable) Produced(s string) (int, bool) {
	rank, ok := mt.produced[s]
	return rank, ok
}

func (mt *MergeTable) Len() int { return len(mt.merges) }

// Rank returns the position of the first rule for (a, b) and whether there is one.
func (mt *MergeTable) Rank(a, b string) (int, bool) {
	rank, ok := mt.ranks[trainer.Pair{Left: a, Right: b}]
	return rank, ok
}

// Duplicates returns how many rules repeat an earlier pair.
func (mt *MergeTable) Duplicates() int {
	return len(mt.merges) - len(mt.ranks)
}

// Validate checks that every rule only refers to symbols that exist by the time it is applied:
// a base symbol, as reported by isBase, or the output of an earlier rule.
func (mt *MergeTable) Validate(isBase func(string) bool) error {
	known := make(map[string]struct{}, len(mt.merges))
	for rank, p := range mt.merges {
		for _, s := range [...]string{p.Left, p.Right} {
			if _, ok := known[s]; ok || isBase(s) {
				continue
			}
			return fmt.Errorf("merge %d (%s) uses symbol %q before it is produced", rank, p, s)
		}
		known[p.Merged()] = struct{}{}
	}
	return nil
}

// CharacterSymbol reports whether s is a single character, optionally followed by marker,
// which is the form every symbol has before the first merge.
func CharacterSymbol(marker string) func(string) bool {
	return func(s string) bool {
		if len(s) > len(marker) && s[len(s)-len(marker):] == marker {
			s = s[:len(s)-len(marker)]
		}
		if s == "" {
			return false
		}
		_, size := utf8.DecodeRuneInString(s)
		return size == len(s)
	}
}

// SymbolSet reports membership in the given symbols.
func SymbolSet(symbols map[string]struct{}) func(string) bool {
	return func(s string) bool {
		_, ok := symbols[s]
		return ok
	}
}
