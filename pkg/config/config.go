// Package config handles studiolink's startup configuration: CLI flags and
// an optional YAML file for settings that are awkward to pass as flags
// every invocation (log level, default port), live-reloaded via fsnotify.
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultPort is the well-known loopback port studiolink tries to bind
// first, matching the original StudioLink server's default.
const DefaultPort = 34872

// Config is the fully resolved startup configuration: flags override the
// optional YAML file, which overrides these built-in defaults.
type Config struct {
	Port     int    `yaml:"port"`
	Verbose  bool   `yaml:"verbose"`
	LogLevel string `yaml:"log_level"`
}

// FileConfig is the shape of the optional YAML config file. Every field is
// optional; only log_level is expected to be hand-edited while the broker
// is already running (see Watch).
type FileConfig struct {
	Port     *int    `yaml:"port"`
	LogLevel *string `yaml:"log_level"`
}

// Defaults returns the built-in configuration before flags or a file are
// applied.
func Defaults() Config {
	return Config{Port: DefaultPort, LogLevel: "info"}
}

// ParseFlags parses studiolink's CLI flags, applying them on top of base.
// version is printed and the process exits when --version is passed,
// matching the teacher's cmd/astonish/studio.go flag.NewFlagSet pattern.
func ParseFlags(args []string, base Config, version string) (Config, error) {
	fs := flag.NewFlagSet("studiolink", flag.ContinueOnError)

	port := fs.Int("port", base.Port, "HTTP port for Studio plugin communication")
	verbose := fs.Bool("verbose", base.Verbose, "enable verbose (debug) logging")
	fs.BoolVar(verbose, "v", base.Verbose, "enable verbose (debug) logging (shorthand)")
	showVersion := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *showVersion {
		fmt.Println("studiolink", version)
		os.Exit(0)
	}

	cfg := base
	cfg.Port = *port
	cfg.Verbose = *verbose
	if cfg.Verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// ConfigDir returns the platform-appropriate directory studiolink's
// optional config file lives in.
func ConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "studiolink"), nil
}

// ConfigPath returns the path to the optional YAML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LoadFile reads the optional YAML config file and merges it into cfg. A
// missing file is not an error — it just means every setting comes from
// flags and defaults.
func LoadFile(cfg Config) (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}

	if fc.Port != nil {
		cfg.Port = *fc.Port
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
	return cfg, nil
}
