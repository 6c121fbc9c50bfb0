package skim

import (
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

// Config holds the settings the rc file can provide. Command-line flags and
// SKIM_DEFAULT_OPTIONS always win over it.
type Config struct {
	Prompt        string   `yaml:"prompt"`
	CmdPrompt     string   `yaml:"cmd_prompt"`
	Layout        string   `yaml:"layout"`
	Color         string   `yaml:"color"`
	Tabstop       int      `yaml:"tabstop"`
	Bind          []string `yaml:"bind"`
	History       string   `yaml:"history"`
	CmdHistory    string   `yaml:"cmd_history"`
	Preview       string   `yaml:"preview"`
	PreviewWindow string   `yaml:"preview_window"`
}

// configPath resolves $SKIM_RC, falling back to the XDG location
func configPath() string {
	if path := os.Getenv("SKIM_RC"); len(path) > 0 {
		return path
	}
	base := os.Getenv("XDG_CONFIG_HOME")
	if len(base) == 0 {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "sk", "config.yaml")
}

// loadConfig reads the rc file; a missing file is not an error, a malformed
// one is reported and skipped
func loadConfig() *Config {
	path := configPath()
	if len(path) == 0 {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		warn("invalid config file %s ignored: %s", path, err)
		return nil
	}
	return &cfg
}

// applyConfig lowers the config values into the flag defaults
func applyConfig(raw *cliOptions, cfg *Config) {
	if cfg == nil {
		return
	}
	if len(cfg.Prompt) > 0 {
		raw.Prompt = cfg.Prompt
	}
	if len(cfg.CmdPrompt) > 0 {
		raw.CmdPrompt = cfg.CmdPrompt
	}
	if len(cfg.Layout) > 0 {
		raw.Layout = cfg.Layout
	}
	if len(cfg.Color) > 0 {
		raw.Color = cfg.Color
	}
	if cfg.Tabstop > 0 {
		raw.Tabstop = cfg.Tabstop
	}
	if len(cfg.Bind) > 0 {
		raw.Bind = append(cfg.Bind, raw.Bind...)
	}
	if len(cfg.History) > 0 {
		raw.History = cfg.History
	}
	if len(cfg.CmdHistory) > 0 {
		raw.CmdHistory = cfg.CmdHistory
	}
	if len(cfg.Preview) > 0 {
		raw.Preview = cfg.Preview
	}
	if len(cfg.PreviewWindow) > 0 {
		raw.PreviewWindow = cfg.PreviewWindow
	}
}
