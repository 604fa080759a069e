package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bpetrain/internal/envconfig"
	"github.com/bpetrain/internal/model"
)

func NewInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [token | \"left right\"]...",
		Short: "Validate and summarise trained merges and vocabulary",
		Long: `Validate and summarise trained merges and vocabulary.

Each argument is looked up in the merge rules: a pair "left right" reports its rank,
a single token reports the rank of the rule that produces it.`,
		RunE: inspectHandler,
	}

	cmd.Flags().StringP("merges", "m", "", "Path to the merge rules")
	cmd.Flags().StringP("vocab", "v", "", "Path to the vocabulary")
	cmd.Flags().String("vocab-json", "", "Optional vocab.json to check against the vocabulary")
	cmd.Flags().String("end-of-word", envconfig.DefaultEndOfWord, "End-of-word marker used during training")
	cmd.Flags().String("config", "", "Path to a TOML configuration file")
	for _, name := range []string{"merges", "vocab"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}
	return cmd
}

func inspectHandler(cmd *cobra.Command, args []string) error {
	settings, err := resolveSettings(cmd.Flags())
	if err != nil {
		return err
	}
	setupLogging(cmd.ErrOrStderr(), settings.Debug, false)

	mergesPath, _ := cmd.Flags().GetString("merges")
	vocabPath, _ := cmd.Flags().GetString("vocab")
	jsonPath, _ := cmd.Flags().GetString("vocab-json")
	marker := settings.EndOfWord

	m, err := model.LoadFromFiles(mergesPath, vocabPath)
	if err != nil {
		return err
	}

	s := m.Summarize(marker)
	data := [][]string{
		{"Merges:", strconv.Itoa(s.Merges)},
		{"Duplicate rules:", strconv.Itoa(s.Duplicates)},
		{"Tokens:", strconv.Itoa(s.Tokens)},
		{"Single characters:", strconv.Itoa(s.Base)},
		{"Longest token:", strconv.Quote(s.Longest)},
	}

	checkErr := m.Check(marker)
	if checkErr != nil {
		data = append(data, []string{"Merges valid:", "no"})
	} else {
		data = append(data, []string{"Merges valid:", "yes"})
	}

	if jsonPath != "" {
		vocab, err := model.LoadVocabJSON(jsonPath)
		if err != nil {
			return err
		}
		data = append(data, []string{"vocab.json ids:", strconv.Itoa(len(vocab))})
		if err := matchJSON(vocab, m.Tokens); err != nil {
			return err
		}
	}

	for _, arg := range args {
		data = append(data, lookup(m.Table, arg))
	}

	table := newTable(cmd.OutOrStdout())
	table.AppendBulk(data)
	table.Render()

	return checkErr
}

// lookup reports the rank of a "left right" pair, or of the rule producing a single token.
func lookup(table *model.MergeTable, arg string) []string {
	if left, right, ok := strings.Cut(arg, " "); ok {
		if rank, ok := table.Rank(left, right); ok {
			return []string{fmt.Sprintf("Rule %q:", arg), "rank " + strconv.Itoa(rank)}
		}
		return []string{fmt.Sprintf("Rule %q:", arg), "not found"}
	}
	if rank, ok := table.Produced(arg); ok {
		return []string{fmt.Sprintf("Token %q:", arg), "produced at rank " + strconv.Itoa(rank)}
	}
	return []string{fmt.Sprintf("Token %q:", arg), "not produced"}
}

func matchJSON(vocab map[string]int, tokens []string) error {
	if len(vocab) != len(tokens) {
		return fmt.Errorf("vocab length mismatch. expected %d, received. %d", len(tokens), len(vocab))
	}
	for id, tok := range tokens {
		if got, ok := vocab[tok]; !ok || got != id {
			return fmt.Errorf("vocab.json id for %q is %d, want %d", tok, got, id)
		}
	}
	return nil
}
