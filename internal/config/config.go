// Package config loads jsrepl configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"jsrepl/internal/inspect"
)

// Config holds all jsrepl configuration.
type Config struct {
	Endpoint EndpointConfig `yaml:"endpoint"`
	Display  DisplayConfig  `yaml:"display"`
	History  HistoryConfig  `yaml:"history"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// EndpointConfig describes the remote inspector endpoint.
type EndpointConfig struct {
	// URL is a ws(s):// inspector endpoint, or an http(s):// debug port to
	// resolve through its target list.
	URL string `yaml:"url"`

	// Launch spawns a local headless target when no URL is configured.
	Launch bool `yaml:"launch"`
}

// DisplayConfig controls value rendering.
type DisplayConfig struct {
	Colors      string `yaml:"colors"` // auto, always, never
	Depth       int    `yaml:"depth"`
	Sorted      bool   `yaml:"sorted"`
	ShowProxies bool   `yaml:"show_proxies"`
}

// HistoryConfig controls REPL history persistence.
type HistoryConfig struct {
	Path  string `yaml:"path"`
	Limit int    `yaml:"limit"`
}

// LoggingConfig controls diagnostic logging.
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Display: DisplayConfig{Colors: "auto", Depth: inspect.DefaultDepth},
		History: HistoryConfig{Path: defaultHistoryPath(), Limit: 1000},
		Logging: LoggingConfig{Level: "warn"},
	}
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".jsrepl_history")
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "jsrepl", "config.yaml")
}

// Load reads the config file at path, falling back to defaults when the file
// does not exist, then applies JSREPL_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Defaults.
	default:
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides file values from the environment. Every key mirrors a
// YAML field: JSREPL_URL, JSREPL_COLORS, JSREPL_DEPTH, JSREPL_HISTORY,
// JSREPL_LOG_LEVEL.
func (c *Config) applyEnv() {
	if v := os.Getenv("JSREPL_URL"); v != "" {
		c.Endpoint.URL = v
	}
	if v := os.Getenv("JSREPL_COLORS"); v != "" {
		c.Display.Colors = v
	}
	if v := os.Getenv("JSREPL_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Display.Depth = n
		}
	}
	if v := os.Getenv("JSREPL_HISTORY"); v != "" {
		c.History.Path = v
	}
	if v := os.Getenv("JSREPL_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// DisplayOptions resolves the display configuration into renderer options.
// "auto" colors follow terminal capability on stdout.
func (c Config) DisplayOptions() inspect.Options {
	colors := false
	switch c.Display.Colors {
	case "always":
		colors = true
	case "never":
		colors = false
	default:
		colors = term.IsTerminal(int(os.Stdout.Fd()))
	}
	return inspect.Options{
		Colors:      colors,
		Depth:       c.Display.Depth,
		Sorted:      c.Display.Sorted,
		ShowProxies: c.Display.ShowProxies,
	}
}
