package main

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/bpetrain/internal/envconfig"
	"github.com/bpetrain/internal/logutil"
)

func NewCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bpetrain",
		Short: "Learn byte-pair-encoding merge rules from a text corpus",
		Long: "Learn byte-pair-encoding merge rules from a whitespace-separated text corpus.\n" +
			"Writes the merge rules in creation order and the sorted token vocabulary.",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Disable usage printing on errors
			cmd.SilenceUsage = true
		},
		RunE: trainHandler,
	}

	flags := rootCmd.Flags()
	flags.StringP("input", "i", "", "Path to the training corpus")
	flags.StringP("merges", "m", "", "Path to write the merge rules")
	flags.StringP("vocab", "v", "", "Path to write the vocabulary")
	flags.IntP("merges_count", "n", envconfig.DefaultMergesCount, "Number of merge rules to learn")
	flags.String("config", "", "Path to a TOML configuration file")
	flags.Int("workers", 0, "Goroutines used to count and merge pairs (default number of CPUs)")
	flags.String("strategy", envconfig.DefaultStrategy, "Training strategy: recount or incremental")
	flags.String("end-of-word", envconfig.DefaultEndOfWord, "End-of-word marker appended to the last symbol of each word")
	flags.Int("progress-every", envconfig.DefaultProgressEvery, "Report progress every N merges, negative disables")
	flags.String("vocab-json", "", "Also write the vocabulary as a {\"token\": id} JSON object")
	flags.BoolP("quiet", "q", false, "Only print warnings and errors")
	for _, name := range []string{"input", "merges", "vocab"} {
		if err := rootCmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}

	cobra.EnableCommandSorting = false

	rootCmd.AddCommand(
		NewInspectCmd(),
		NewVerifyCmd(),
		NewConfigCmd(),
	)
	rootCmd.SetUsageTemplate(rootCmd.UsageTemplate() + envUsage())

	return rootCmd
}

func NewConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print an example configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), envconfig.GenerateExampleConfig())
			return err
		},
	}
}

// setupLogging installs the default logger for a command.
func setupLogging(w io.Writer, verbosity int, quiet bool, args ...any) {
	level := logutil.Level(verbosity)
	if quiet && verbosity == 0 {
		level = slog.LevelWarn
	}
	slog.SetDefault(logutil.NewLogger(w, level).With(args...))
}

func envUsage() string {
	vars := envconfig.AsMap()
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var sb strings.Builder
	sb.WriteString("\nEnvironment Variables:\n")
	for _, k := range keys {
		fmt.Fprintf(&sb, "      %-25s %s\n", vars[k].Name, vars[k].Description)
	}
	return sb.String()
}

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.SetAutoWrapText(false)
	return table
}
