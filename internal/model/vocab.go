package model

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var ErrUnsortedVocab = errors.New("vocab is not sorted and unique")

// WriteVocab writes one token per line. tokens must already be sorted.
func WriteVocab(w io.Writer, tokens []string) error {
	bw := bufio.NewWriter(w)
	for _, tok := range tokens {
		if _, err := bw.WriteString(tok); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadVocab reads a vocab file written by WriteVocab and checks that it is sorted and unique.
func ReadVocab(r io.Reader) ([]string, error) {
	var tokens []string
	err := readLines(r, func(n int, line string) error {
		if k := len(tokens); k > 0 && tokens[k-1] >= line {
			return fmt.Errorf("line %d %q: %w", n, line, ErrUnsortedVocab)
		}
		tokens = append(tokens, line)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// WriteVocabJSON writes the tokens as a {"token": id} object with dense ids in slice order,
// the shape BPE tokenizers load as vocab.json.
func WriteVocabJSON(w io.Writer, tokens []string) error {
	vocab := make(map[string]int, len(tokens))
	for id, tok := range tokens {
		vocab[tok] = id
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(vocab)
}

// LoadVocabJSON reads a vocab.json file and checks that ids are dense, 0..len-1.
func LoadVocabJSON(path string) (map[string]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error while reading vocab file : %w", err)
	}

	var vocab map[string]int
	if err := json.Unmarshal(data, &vocab); err != nil {
		return nil, fmt.Errorf("error while unmarshalling vocab: %w", err)
	}

	maxID := -1
	seen := make(map[int]bool, len(vocab))
	for tok, id := range vocab {
		if id < 0 {
			return nil, fmt.Errorf("token id out of range : %d for %q", id, tok)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate token id %d", id)
		}
		seen[id] = true
		if id > maxID {
			maxID = id
		}
	}

	for i := 0; i <= maxID; i++ {
		if !seen[i] {
			return nil, fmt.Errorf("vocab not dense and missing %d", i)
		}
	}
	return vocab, nil
}

// readLines calls fn for every line of r without its line terminator. Line numbers start at 1.
// A final line without a newline is still delivered.
func readLines(r io.Reader, fn func(n int, line string) error) error {
	br := bufio.NewReader(r)
	for n := 1; ; n++ {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimSuffix(line, "\n")
			line = strings.TrimSuffix(line, "\r")
			if ferr := fn(n, line); ferr != nil {
				return ferr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
