package model

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/bpetrain/internal/trainer"
)

// WriteMerges writes one "left right" line per rule, in rank order.
func WriteMerges(w io.Writer, merges []trainer.Pair) error {
	bw := bufio.NewWriter(w)
	for _, m := range merges {
		if _, err := fmt.Fprintf(bw, "%s %s\n", m.Left, m.Right); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadMerges parses a merges file. Every line must hold exactly two non-empty symbols
// separated by a single space.
func ReadMerges(r io.Reader) ([]trainer.Pair, error) {
	var merges []trainer.Pair
	err := readLines(r, func(n int, line string) error {
		left, right, ok := strings.Cut(line, " ")
		if !ok || left == "" || right == "" || strings.Contains(right, " ") {
			return fmt.Errorf("malformed merge on line %d: %q", n, line)
		}
		merges = append(merges, trainer.Pair{Left: left, Right: right})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return merges, nil
}
