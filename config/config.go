// Package config loads vtcore's on-disk JSON configuration (shell
// selection) and its YAML input-method dictionary, adapted from
// RavenTerminal's config/config.go.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"

	"github.com/javanhut/vtcore/ime"
)

// ShellConfig controls how ptyio.NewSession launches the shell.
type ShellConfig struct {
	Path          string            `json:"path"`
	SourceRC      bool              `json:"source_rc"`
	AdditionalEnv map[string]string `json:"additional_env"`
}

// Config holds vtcore's configuration.
type Config struct {
	Shell          ShellConfig `json:"shell"`
	DictionaryPath string      `json:"dictionary_path"`
}

// DefaultConfig returns the configuration used when no file exists yet.
func DefaultConfig() *Config {
	return &Config{
		Shell: ShellConfig{
			AdditionalEnv: make(map[string]string),
		},
	}
}

// GetConfigPath returns the path to the config file.
func GetConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".vtcore.json"
	}
	configDir := filepath.Join(homeDir, ".config", "vtcore")
	os.MkdirAll(configDir, 0755)
	return filepath.Join(configDir, "config.json")
}

// Load reads the configuration from disk, falling back to defaults if no
// file exists yet.
func Load() (*Config, error) {
	configPath := GetConfigPath()
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrap(err, "config: read config file")
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "config: parse config file")
	}
	return cfg, nil
}

// Save writes the configuration to disk.
func (c *Config) Save() error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "config: marshal config")
	}
	return errors.Wrap(os.WriteFile(GetConfigPath(), data, 0644), "config: write config file")
}

// GetAvailableShells returns a list of shells found on the system.
func GetAvailableShells() []string {
	shells := []string{}
	possibleShells := []string{
		"/bin/bash", "/usr/bin/bash",
		"/bin/zsh", "/usr/bin/zsh",
		"/bin/fish", "/usr/bin/fish",
		"/bin/sh", "/usr/bin/sh",
		"/bin/dash", "/usr/bin/dash",
		"/bin/tcsh", "/usr/bin/tcsh",
		"/bin/ksh", "/usr/bin/ksh",
	}

	seen := make(map[string]bool)
	for _, shell := range possibleShells {
		if _, err := os.Stat(shell); err == nil {
			base := filepath.Base(shell)
			if !seen[base] {
				seen[base] = true
				shells = append(shells, shell)
			}
		}
	}
	return shells
}

// dictionaryEntry is one row of the on-disk YAML dictionary file.
type dictionaryEntry struct {
	Key        string `yaml:"key"`
	Candidates string `yaml:"candidates"`
}

// LoadDictionary reads the configured YAML dictionary file and returns it
// as an ime.Loader, the callback contract ime.New expects. A missing or
// unset path yields an empty dictionary rather than an error, since the
// IME is optional.
func (c *Config) LoadDictionary() ime.Loader {
	path := c.DictionaryPath
	return func() []ime.Entry {
		if path == "" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		var raw []dictionaryEntry
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil
		}
		entries := make([]ime.Entry, 0, len(raw))
		for _, r := range raw {
			entries = append(entries, ime.Entry{
				Key:        r.Key,
				Candidates: []rune(r.Candidates),
			})
		}
		return entries
	}
}
