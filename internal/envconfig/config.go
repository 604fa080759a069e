package envconfig

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
)

var (
	// Set via BPETRAIN_DEBUG in the environment. 1 is debug, 2 is trace.
	Debug int
	// Set via BPETRAIN_WORKERS in the environment
	Workers int
	// Set via BPETRAIN_STRATEGY in the environment
	Strategy string
	// Set via BPETRAIN_PROGRESS_EVERY in the environment
	ProgressEvery int
	// Set via BPETRAIN_END_OF_WORD in the environment
	EndOfWord string
	// Set via BPETRAIN_CONFIG in the environment
	ConfigFile string
)

const (
	DefaultMergesCount   = 10000
	DefaultStrategy      = "incremental"
	DefaultEndOfWord     = "</w>"
	DefaultProgressEvery = 1000
)

type EnvVar struct {
	Name        string
	Value       any
	Description string
}

func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"BPETRAIN_DEBUG":          {"BPETRAIN_DEBUG", Debug, "Show additional debug information (1 debug, 2 trace)"},
		"BPETRAIN_WORKERS":        {"BPETRAIN_WORKERS", Workers, "Goroutines used to count and merge pairs (default number of CPUs)"},
		"BPETRAIN_STRATEGY":       {"BPETRAIN_STRATEGY", Strategy, "Training strategy, recount or incremental (default \"incremental\")"},
		"BPETRAIN_PROGRESS_EVERY": {"BPETRAIN_PROGRESS_EVERY", ProgressEvery, "Report progress every N merges, negative disables (default 1000)"},
		"BPETRAIN_END_OF_WORD":    {"BPETRAIN_END_OF_WORD", EndOfWord, "End-of-word marker appended to the last symbol (default \"</w>\")"},
		"BPETRAIN_CONFIG":         {"BPETRAIN_CONFIG", ConfigFile, "Path to a TOML configuration file"},
	}
}

func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}

// Clean quotes and spaces from the value
func clean(key string) string {
	return strings.Trim(os.Getenv(key), "\"' ")
}

func init() {
	LoadConfig()
}

// LoadConfig reads the environment. Variables that are unset or invalid leave the zero value,
// which Resolve treats as "not set here".
func LoadConfig() {
	Debug = 0
	if debug := clean("BPETRAIN_DEBUG"); debug != "" {
		if n, err := strconv.Atoi(debug); err == nil {
			Debug = max(n, 0)
		} else if b, err := strconv.ParseBool(debug); err == nil {
			if b {
				Debug = 1
			}
		} else {
			Debug = 1
		}
	}

	Workers = 0
	if w := clean("BPETRAIN_WORKERS"); w != "" {
		val, err := strconv.Atoi(w)
		if err != nil || val <= 0 {
			slog.Error("invalid setting must be greater than zero", "BPETRAIN_WORKERS", w, "error", err)
		} else {
			Workers = val
		}
	}

	ProgressEvery = 0
	if pe := clean("BPETRAIN_PROGRESS_EVERY"); pe != "" {
		val, err := strconv.Atoi(pe)
		if err != nil {
			slog.Error("invalid setting", "BPETRAIN_PROGRESS_EVERY", pe, "error", err)
		} else {
			ProgressEvery = val
		}
	}

	Strategy = clean("BPETRAIN_STRATEGY")
	EndOfWord = clean("BPETRAIN_END_OF_WORD")
	ConfigFile = clean("BPETRAIN_CONFIG")
}

// Settings is the resolved training configuration.
type Settings struct {
	MergesCount   int
	Workers       int
	Strategy      string
	EndOfWord     string
	ProgressEvery int
	Debug         int
}

func Defaults() Settings {
	return Settings{
		MergesCount:   DefaultMergesCount,
		Workers:       runtime.NumCPU(),
		Strategy:      DefaultStrategy,
		EndOfWord:     DefaultEndOfWord,
		ProgressEvery: DefaultProgressEvery,
	}
}

// Resolve layers the defaults, the TOML file at path (or BPETRAIN_CONFIG when path is empty)
// and the environment, in that order. Command-line flags are applied by the caller.
func Resolve(path string) (Settings, error) {
	s := Defaults()

	if path == "" {
		path = ConfigFile
	}
	if path != "" {
		fc, err := LoadFile(path)
		if err != nil {
			return s, err
		}
		fc.apply(&s)
		slog.Debug("loaded config file", "path", path)
	}

	if Debug > 0 {
		s.Debug = Debug
	}
	if Workers > 0 {
		s.Workers = Workers
	}
	if Strategy != "" {
		s.Strategy = Strategy
	}
	if EndOfWord != "" {
		s.EndOfWord = EndOfWord
	}
	if ProgressEvery != 0 {
		s.ProgressEvery = ProgressEvery
	}
	return s, nil
}
