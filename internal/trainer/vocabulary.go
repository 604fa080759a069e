package trainer

import (
	"sort"
	"strings"

	"github.com/bpetrain/internal/corpus"
)

// SymbolSequence is the key form of one word's segmentation: its symbols joined by a single space.
// Two sequences are equal iff their symbols are identical.
type SymbolSequence string

// NewSymbolSequence builds the key for symbols.
func NewSymbolSequence(symbols []Symbol) SymbolSequence {
	return SymbolSequence(strings.Join(symbols, sequenceSeparator))
}

// Symbols splits the sequence back into its symbols.
func (s SymbolSequence) Symbols() []Symbol {
	if s == "" {
		return nil
	}
	return strings.Split(string(s), sequenceSeparator)
}

type entry struct {
	seq     SymbolSequence
	symbols []Symbol // shared, read-only
	freq    int64
}

// Vocabulary maps each distinct segmentation to its aggregate frequency.
// A Vocabulary is never modified once built; Merge returns a new one.
//
// Invariants we maintain:
//   - index[entries[i].seq] == i for every i.
//   - total is the sum of every entry's freq.
type Vocabulary struct {
	marker  string
	entries []entry
	index   map[SymbolSequence]int
	total   int64
}

func newVocabulary(marker string, capacity int) *Vocabulary {
	return &Vocabulary{
		marker:  marker,
		entries: make([]entry, 0, capacity),
		index:   make(map[SymbolSequence]int, capacity),
	}
}

// add inserts symbols with freq, summing into an existing entry when the sequence is already present.
// Only used while a vocabulary is being built.
func (v *Vocabulary) add(symbols []Symbol, freq int64) {
	v.addEntry(entry{seq: NewSymbolSequence(symbols), symbols: symbols, freq: freq})
}

func (v *Vocabulary) addEntry(e entry) {
	v.total += e.freq
	if i, ok := v.index[e.seq]; ok {
		v.entries[i].freq += e.freq
		return
	}
	v.index[e.seq] = len(v.entries)
	v.entries = append(v.entries, e)
}

// NewVocabulary splits every word into characters, attaches marker to the last one and
// records the word's count. Words are visited in sorted order so entry order is deterministic.
func NewVocabulary(counts corpus.WordCounts, marker string) (*Vocabulary, error) {
	if err := ValidateMarker(marker); err != nil {
		return nil, err
	}

	v := newVocabulary(marker, len(counts))
	for _, word := range counts.Words() {
		if symbols := SplitWord(word, marker); len(symbols) > 0 {
			v.add(symbols, counts[word])
		}
	}
	return v, nil
}

// Len returns the number of distinct sequences.
func (v *Vocabulary) Len() int { return len(v.entries) }

// Total returns the sum of all frequencies.
func (v *Vocabulary) Total() int64 { return v.total }

// Marker returns the end-of-word marker the sequences carry.
func (v *Vocabulary) Marker() string { return v.marker }

// Freq returns the frequency of seq and whether it is present.
func (v *Vocabulary) Freq(seq SymbolSequence) (int64, bool) {
	i, ok := v.index[seq]
	if !ok {
		return 0, false
	}
	return v.entries[i].freq, true
}

// Each calls fn for every entry in vocabulary order. The symbols slice must be treated as read-only.
func (v *Vocabulary) Each(fn func(seq SymbolSequence, symbols []Symbol, freq int64)) {
	for _, e := range v.entries {
		fn(e.seq, e.symbols, e.freq)
	}
}

// Sequences returns every key in lexicographic order.
func (v *Vocabulary) Sequences() []SymbolSequence {
	out := make([]SymbolSequence, len(v.entries))
	for i, e := range v.entries {
		out[i] = e.seq
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Map returns a copy of the vocabulary as a plain map.
func (v *Vocabulary) Map() map[SymbolSequence]int64 {
	out := make(map[SymbolSequence]int64, len(v.entries))
	for _, e := range v.entries {
		out[e.seq] = e.freq
	}
	return out
}

// Equal reports whether both vocabularies hold the same sequences with the same frequencies.
// Entry order is ignored.
func (v *Vocabulary) Equal(o *Vocabulary) bool {
	if v.Len() != o.Len() || v.total != o.total {
		return false
	}
	for _, e := range v.entries {
		if f, ok := o.Freq(e.seq); !ok || f != e.freq {
			return false
		}
	}
	return true
}
