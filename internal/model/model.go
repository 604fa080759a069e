package model

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/bpetrain/internal/trainer"
)

// Model holds a trained merge list together with its exported vocabulary.
// Invariants we maintain:
//   - Tokens is sorted and unique.
//   - Table indexes exactly Merges.
type Model struct {
	Merges []trainer.Pair
	Tokens []string
	Table  *MergeTable
}

// New builds a model from in-memory results.
func New(merges []trainer.Pair, tokens []string) (*Model, error) {
	if !slices.IsSorted(tokens) || len(slices.Compact(slices.Clone(tokens))) != len(tokens) {
		return nil, ErrUnsortedVocab
	}
	return &Model{Merges: merges, Tokens: tokens, Table: NewMergeTable(merges)}, nil
}

// LoadFromFiles builds a model from a merges file and a vocab file.
// vocabPath and mergesPath are raw file paths
func LoadFromFiles(mergesPath, vocabPath string) (*Model, error) {
	mf, err := os.Open(mergesPath)
	if err != nil {
		return nil, fmt.Errorf("error while reading merges file : %w", err)
	}
	defer mf.Close()

	merges, err := ReadMerges(mf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", mergesPath, err)
	}

	vf, err := os.Open(vocabPath)
	if err != nil {
		return nil, fmt.Errorf("error while reading vocab file : %w", err)
	}
	defer vf.Close()

	tokens, err := ReadVocab(vf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", vocabPath, err)
	}

	slog.Debug("model loaded", "merges", len(merges), "tokens", len(tokens))
	return &Model{Merges: merges, Tokens: tokens, Table: NewMergeTable(merges)}, nil
}

type artifact struct {
	path  string
	write func(io.Writer) error
}

// Save writes the merges file, the vocab file and, when jsonPath is not empty, the vocab.json file.
// Every file is staged next to its destination and only renamed into place once all of them
// were written, so a failure leaves no partial or mismatched artifacts behind.
// Errors are *fs.PathError naming the destination.
func (m *Model) Save(mergesPath, vocabPath, jsonPath string) error {
	writes := []artifact{
		{mergesPath, func(w io.Writer) error { return WriteMerges(w, m.Merges) }},
		{vocabPath, func(w io.Writer) error { return WriteVocab(w, m.Tokens) }},
	}
	if jsonPath != "" {
		writes = append(writes, artifact{jsonPath, func(w io.Writer) error { return WriteVocabJSON(w, m.Tokens) }})
	}

	staged := make([]string, 0, len(writes))
	cleanup := func() {
		for _, tmp := range staged {
			os.Remove(tmp)
		}
	}

	for _, w := range writes {
		tmp, err := stageFile(w.path, w.write)
		if err != nil {
			cleanup()
			return err
		}
		staged = append(staged, tmp)
	}

	for i, tmp := range staged {
		if err := os.Rename(tmp, writes[i].path); err != nil {
			staged = staged[i:]
			cleanup()
			return &fs.PathError{Op: "rename", Path: writes[i].path, Err: unwrapPathError(err)}
		}
	}
	return nil
}

// Check validates that every merge is reachable from single-character symbols.
func (m *Model) Check(marker string) error {
	return m.Table.Validate(CharacterSymbol(marker))
}

// Summary is a compact description of a model for display.
type Summary struct {
	Merges     int
	Duplicates int
	Tokens     int
	Base       int
	Longest    string
}

func (m *Model) Summarize(marker string) Summary {
	isBase := CharacterSymbol(marker)
	s := Summary{Merges: len(m.Merges), Duplicates: m.Table.Duplicates(), Tokens: len(m.Tokens)}
	for _, tok := range m.Tokens {
		if isBase(tok) {
			s.Base++
		}
		if len(tok) > len(s.Longest) {
			s.Longest = tok
		}
	}
	return s
}

// stageFile writes a temporary file in the directory of path and returns its name.
func stageFile(path string, write func(io.Writer) error) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", &fs.PathError{Op: "create", Path: path, Err: unwrapPathError(err)}
	}

	err = write(f)
	if err == nil {
		err = f.Chmod(0o644)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(f.Name())
		return "", &fs.PathError{Op: "write", Path: path, Err: unwrapPathError(err)}
	}
	return f.Name(), nil
}

func unwrapPathError(err error) error {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return pe.Err
	}
	var le *os.LinkError
	if errors.As(err, &le) {
		return le.Err
	}
	return err
}
