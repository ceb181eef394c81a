package mpymk

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"git.fractalqb.de/fractalqb/mpymk/mkfs"
)

// DefaultConfigFile is picked up from the working directory when no config
// file is given explicitly.
const DefaultConfigFile = "mpymk.yaml"

// Config is the optional per-project file configuration. Zero values leave
// the respective [Batch] defaults in place.
type Config struct {
	// Compiler is the byte-compiler executable.
	Compiler string `yaml:"compiler"`

	// Optimize is the optimization level. Absent and empty are different:
	// an empty level is rejected, see ErrEmptyOptLevel.
	Optimize *string `yaml:"optimize"`

	// Dest is the collection directory.
	Dest string `yaml:"dest"`

	// Sources and Outputs are filepath.Match patterns.
	Sources string `yaml:"sources"`
	Outputs string `yaml:"outputs"`

	// Exclude lists output names to delete instead of collecting.
	Exclude []string `yaml:"exclude"`
}

// LoadConfig reads a [Config] from the YAML file at path. Unknown keys are
// an error, an empty file is an empty config.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// Batch creates a batch for working directory dir with the configured
// settings filled in.
func (c *Config) Batch(dir string) *Batch {
	b := &Batch{Dir: dir, Dest: c.Dest}
	b.Compiler.Exe = c.Compiler
	b.Compiler.OptLevel = c.Optimize
	if c.Sources != "" {
		b.Sources = mkfs.NameMatch(c.Sources)
	}
	if c.Outputs != "" {
		b.Outputs = mkfs.NameMatch(c.Outputs)
	}
	if len(c.Exclude) > 0 {
		b.Exclude = ExcludeNames(c.Exclude...)
	}
	return b
}

// OutputsFilter returns the configured outputs pattern as a filter, nil
// when unset.
func (c *Config) OutputsFilter() mkfs.Filter {
	if c.Outputs == "" {
		return nil
	}
	return mkfs.NameMatch(c.Outputs)
}
