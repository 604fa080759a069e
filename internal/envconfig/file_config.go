package envconfig

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration structure
type FileConfig struct {
	Train struct {
		MergesCount   *int   `toml:"merges_count"`
		Workers       int    `toml:"workers"`
		Strategy      string `toml:"strategy"`
		EndOfWord     string `toml:"end_of_word"`
		ProgressEvery int    `toml:"progress_every"`
	} `toml:"train"`

	Logging struct {
		Debug bool `toml:"debug"`
	} `toml:"logging"`
}

// LoadFile parses a TOML configuration file. Unknown keys are rejected.
func LoadFile(path string) (*FileConfig, error) {
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("error parsing config file %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("error parsing config file %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return &cfg, nil
}

func (fc *FileConfig) apply(s *Settings) {
	if fc.Train.MergesCount != nil {
		s.MergesCount = *fc.Train.MergesCount
	}
	if fc.Train.Workers > 0 {
		s.Workers = fc.Train.Workers
	}
	if fc.Train.Strategy != "" {
		s.Strategy = fc.Train.Strategy
	}
	if fc.Train.EndOfWord != "" {
		s.EndOfWord = fc.Train.EndOfWord
	}
	if fc.Train.ProgressEvery != 0 {
		s.ProgressEvery = fc.Train.ProgressEvery
	}
	if fc.Logging.Debug {
		s.Debug = 1
	}
}

// GenerateExampleConfig returns a commented example TOML configuration
func GenerateExampleConfig() string {
	return `# bpetrain configuration file

[train]
# Number of merge rules to learn (default: 10000)
merges_count = 10000
# Goroutines used to count and merge pairs (default: number of CPUs)
workers = 4
# "recount" or "incremental" (default: "incremental")
strategy = "incremental"
# End-of-word marker (default: "</w>")
end_of_word = "</w>"
# Report progress every N merges, negative disables (default: 1000)
progress_every = 1000

[logging]
# Enable debug logging (default: false)
debug = false
`
}
