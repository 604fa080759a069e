package corpus

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// WordCounts maps a whitespace-delimited word to the number of times it occurs in the corpus.
// It is built once and treated as read-only afterwards.
type WordCounts map[string]int64

// Total returns the number of word occurrences in the corpus.
func (wc WordCounts) Total() int64 {
	var n int64
	for _, c := range wc {
		n += c
	}
	return n
}

// Words returns the distinct words in lexicographic order.
func (wc WordCounts) Words() []string {
	words := make([]string, 0, len(wc))
	for w := range wc {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// Read streams r line by line and folds every whitespace-delimited word into the table.
// Lines are not length limited. The context is checked between lines.
func Read(ctx context.Context, r io.Reader) (WordCounts, error) {
	counts := make(WordCounts)
	br := bufio.NewReaderSize(r, 64<<10)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line, err := br.ReadString('\n')
		for _, word := range strings.Fields(line) {
			counts[word]++
		}

		if errors.Is(err, io.EOF) {
			return counts, nil
		}
		if err != nil {
			return nil, fmt.Errorf("error while reading corpus : %w", err)
		}
	}
}

// ReadFile opens path and reads it with Read.
func ReadFile(ctx context.Context, path string) (WordCounts, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Read(ctx, f)
}
