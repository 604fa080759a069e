package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bpetrain/bpetrain"
	"github.com/bpetrain/internal/envconfig"
	"github.com/bpetrain/internal/progress"
	"github.com/bpetrain/internal/trainer"
)

// resolveSettings layers the command-line flags that were set explicitly over the
// defaults, the config file and the environment.
func resolveSettings(flags *pflag.FlagSet) (envconfig.Settings, error) {
	configPath, _ := flags.GetString("config")
	s, err := envconfig.Resolve(configPath)
	if err != nil {
		return s, err
	}

	if flags.Changed("merges_count") {
		s.MergesCount, _ = flags.GetInt("merges_count")
	}
	if flags.Changed("workers") {
		s.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("strategy") {
		s.Strategy, _ = flags.GetString("strategy")
	}
	if flags.Changed("end-of-word") {
		s.EndOfWord, _ = flags.GetString("end-of-word")
	}
	if flags.Changed("progress-every") {
		s.ProgressEvery, _ = flags.GetInt("progress-every")
	}
	return s, nil
}

func trainHandler(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	settings, err := resolveSettings(flags)
	if err != nil {
		return err
	}

	quiet, _ := flags.GetBool("quiet")
	runID := uuid.New()
	setupLogging(cmd.ErrOrStderr(), settings.Debug, quiet, "run", runID.String())

	cfg := bpetrain.Config{
		MergesCount:   settings.MergesCount,
		Workers:       settings.Workers,
		Strategy:      settings.Strategy,
		EndOfWord:     settings.EndOfWord,
		ProgressEvery: settings.ProgressEvery,
		RunID:         runID,
	}
	cfg.InputPath, _ = flags.GetString("input")
	cfg.MergesPath, _ = flags.GetString("merges")
	cfg.VocabPath, _ = flags.GetString("vocab")
	cfg.VocabJSONPath, _ = flags.GetString("vocab-json")

	var observer trainer.Observer
	var line *progress.Line
	if !quiet {
		line = progress.NewLine(os.Stderr, int(os.Stderr.Fd()))
		observer = line.Observe
	}

	report, err := bpetrain.Run(cmd.Context(), cfg, observer)
	if line != nil {
		line.Stop()
	}
	if err != nil {
		return err
	}

	if !quiet {
		printReport(cmd.OutOrStdout(), report)
	}
	return nil
}

func printReport(w io.Writer, r *bpetrain.Report) {
	table := newTable(w)
	table.AppendBulk([][]string{
		{"Run:", r.RunID.String()},
		{"Strategy:", string(r.Strategy)},
		{"Words:", strconv.FormatInt(r.Words, 10)},
		{"Distinct words:", strconv.Itoa(r.Distinct)},
		{"Symbols:", strconv.FormatInt(r.Symbols, 10)},
		{"Merges:", fmt.Sprintf("%d/%d", r.Merges, max(r.Budget, 0))},
		{"Tokens:", strconv.Itoa(r.Tokens)},
		{"Stopped:", stopDescription(r.StopReason)},
		{"Elapsed:", r.Elapsed.Round(time.Millisecond).String()},
	})
	table.Render()
}

func stopDescription(r trainer.StopReason) string {
	switch r {
	case trainer.BudgetReached:
		return "merge budget reached"
	case trainer.Exhausted:
		return "no pairs left to merge"
	}
	return r.String()
}
