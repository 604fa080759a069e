package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bpetrain/bpetrain"
	"github.com/bpetrain/internal/envconfig"
)

const maxListed = 10

func NewVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that replaying the merges over a corpus reproduces the vocabulary",
		Args:  cobra.NoArgs,
		RunE:  verifyHandler,
	}

	cmd.Flags().StringP("input", "i", "", "Path to the training corpus")
	cmd.Flags().StringP("merges", "m", "", "Path to the merge rules")
	cmd.Flags().StringP("vocab", "v", "", "Path to the vocabulary")
	cmd.Flags().String("end-of-word", envconfig.DefaultEndOfWord, "End-of-word marker used during training")
	cmd.Flags().Int("workers", 0, "Goroutines used to replay merges (default number of CPUs)")
	cmd.Flags().String("config", "", "Path to a TOML configuration file")
	for _, name := range []string{"input", "merges", "vocab"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}
	return cmd
}

func verifyHandler(cmd *cobra.Command, args []string) error {
	settings, err := resolveSettings(cmd.Flags())
	if err != nil {
		return err
	}
	setupLogging(cmd.ErrOrStderr(), settings.Debug, false)

	input, _ := cmd.Flags().GetString("input")
	mergesPath, _ := cmd.Flags().GetString("merges")
	vocabPath, _ := cmd.Flags().GetString("vocab")

	m, err := bpetrain.Verify(cmd.Context(), input, mergesPath, vocabPath, settings.EndOfWord, max(settings.Workers, 1))
	var mm *bpetrain.Mismatch
	if errors.As(err, &mm) {
		out := cmd.OutOrStdout()
		if len(mm.Missing) > 0 {
			fmt.Fprintf(out, "missing from vocab: %s\n", listTokens(mm.Missing))
		}
		if len(mm.Extra) > 0 {
			fmt.Fprintf(out, "not produced by merges: %s\n", listTokens(mm.Extra))
		}
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "ok: %d merges reproduce %d tokens\n", len(m.Merges), len(m.Tokens))
	return nil
}

func listTokens(tokens []string) string {
	quoted := make([]string, 0, min(len(tokens), maxListed))
	for _, tok := range tokens[:min(len(tokens), maxListed)] {
		quoted = append(quoted, fmt.Sprintf("%q", tok))
	}
	s := strings.Join(quoted, " ")
	if len(tokens) > maxListed {
		s += fmt.Sprintf(" (and %d more)", len(tokens)-maxListed)
	}
	return s
}
