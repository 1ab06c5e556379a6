// Package config holds the driver settings loaded from an optional YAML
// file and overridden by command-line flags.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config drives a benchmark session.
type Config struct {
	// Results is the persisted results table used to resume sessions.
	Results string `yaml:"results"`
	// ReportDir and ReportPrefix locate the exported TSV files.
	ReportDir    string `yaml:"report_dir"`
	ReportPrefix string `yaml:"report_prefix"`
	// Size is the payload each run transfers, in bytes.
	Size int64 `yaml:"size"`
	// Write selects the write pass; false runs the read pass.
	Write bool `yaml:"write"`
	// BinDir resolves workload binaries from a directory instead of nix.
	BinDir string `yaml:"bin_dir"`
	// NixFile is the nix expression holding the build targets.
	NixFile string `yaml:"nix_file"`
	// NativeRoot is the parent of native scratch directories.
	NativeRoot string `yaml:"native_root"`
	// Mounts overrides the mount point per storage kind.
	Mounts map[string]string `yaml:"mounts"`
	// Env adds variables per backend name, taking precedence over
	// everything else.
	Env map[string]map[string]string `yaml:"env"`
}

// Defaults returns the settings used when no file or flag overrides them.
func Defaults() Config {
	return Config{
		Results:      "simpleio-stats.tsv",
		ReportDir:    ".",
		ReportPrefix: "simpleio",
		Size:         40 * 1024 * 1024 * 1024,
		Write:        true,
		NixFile:      ".",
	}
}

// Load reads path over Defaults. An empty path returns Defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate ensures the config is usable.
func (c Config) Validate() error {
	if c.Results == "" {
		return fmt.Errorf("results path required")
	}
	if c.ReportPrefix == "" {
		return fmt.Errorf("report prefix required")
	}
	if c.Size <= 0 {
		return fmt.Errorf("size must be > 0")
	}
	for kind := range c.Mounts {
		switch kind {
		case "native", "spdk", "lkl":
		default:
			return fmt.Errorf("unknown storage kind %q in mounts", kind)
		}
	}
	return nil
}
