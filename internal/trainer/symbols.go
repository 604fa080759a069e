package trainer

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultEndOfWord is appended to the last symbol of every word so merges never span a word boundary.
const DefaultEndOfWord = "</w>"

// symbols never contain whitespace, so a single space can join them into a comparable key
const sequenceSeparator = " "

var ErrInvalidMarker = errors.New("end-of-word marker must be non-empty and contain no whitespace")

// Symbol is one unit of a word's current segmentation.
type Symbol = string

// Pair is an ordered pair of adjacent symbols. A learned merge rule is a Pair.
type Pair struct {
	Left  Symbol
	Right Symbol
}

// Less orders pairs by left symbol, then right symbol.
func (p Pair) Less(o Pair) bool {
	if p.Left != o.Left {
		return p.Left < o.Left
	}
	return p.Right < o.Right
}

// Merged is the symbol produced by collapsing the pair.
func (p Pair) Merged() Symbol {
	return p.Left + p.Right
}

func (p Pair) String() string {
	return p.Left + sequenceSeparator + p.Right
}

// ValidateMarker reports whether m can be used as an end-of-word marker.
func ValidateMarker(m string) error {
	if m == "" || strings.IndexFunc(m, unicode.IsSpace) >= 0 {
		return ErrInvalidMarker
	}
	return nil
}

// SplitWord breaks word into one symbol per character and attaches marker to the last one.
// Bytes that are not valid UTF-8 become single-byte symbols so nothing is lost.
func SplitWord(word, marker string) []Symbol {
	if word == "" {
		return nil
	}

	symbols := make([]Symbol, 0, utf8.RuneCountInString(word))
	for i := 0; i < len(word); {
		_, size := utf8.DecodeRuneInString(word[i:])
		symbols = append(symbols, word[i:i+size])
		i += size
	}

	symbols[len(symbols)-1] += marker
	return symbols
}

// StripMarker removes one trailing marker from s, if present.
func StripMarker(s Symbol, marker string) Symbol {
	return strings.TrimSuffix(s, marker)
}
