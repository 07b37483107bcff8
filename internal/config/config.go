// Package config loads repochat settings from an optional TOML file.
// Values resolve in three layers: built-in defaults, then the config file,
// then command-line flags (applied by the cmd package).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Defaults for a local Ollama setup.
const (
	DefaultOllamaURL  = "http://localhost:11434"
	DefaultEmbedModel = "nomic-embed-text"
	DefaultChatModel  = "qwen3:8b"
	DefaultTopK       = 3
)

// Config holds the resolved settings.
type Config struct {
	// DBPath is the sqlite database path. Empty means <DataDir>/index.db.
	DBPath string `toml:"db_path"`
	// DataDir holds the database and materialized repositories.
	// Empty means ~/.repochat.
	DataDir string `toml:"data_dir"`
	// OllamaURL is the base URL of the Ollama instance.
	OllamaURL string `toml:"ollama_url"`
	// EmbedModel is the embedding model name.
	EmbedModel string `toml:"embed_model"`
	// ChatModel is the generative model name.
	ChatModel string `toml:"chat_model"`
	// TopK is the number of snippets retrieved per question.
	TopK int `toml:"top_k"`
	// TestFile is where generated unit tests are written.
	// Empty means generated_test.py in the working directory.
	TestFile string `toml:"test_file"`
	// TestCommand runs generated tests (default "pytest").
	TestCommand string `toml:"test_command"`
	// Extensions overrides the collected file extensions.
	Extensions []string `toml:"extensions"`
}

// Default returns a Config with built-in defaults applied.
func Default() Config {
	return Config{
		OllamaURL:  DefaultOllamaURL,
		EmbedModel: DefaultEmbedModel,
		ChatModel:  DefaultChatModel,
		TopK:       DefaultTopK,
	}
}

// DefaultPath returns the standard config file location,
// ~/.config/repochat/config.toml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "repochat", "config.toml")
}

// Load reads the TOML file at path and merges it over the defaults.
// A missing file is not an error; the defaults are returned unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	var file Config
	if err := toml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.merge(file)
	return cfg, nil
}

// ResolveDataDir returns the data directory, creating it if needed.
func (c *Config) ResolveDataDir() (string, error) {
	dir := c.DataDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".repochat")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return dir, nil
}

// merge overlays non-zero values from other.
func (c *Config) merge(other Config) {
	if other.DBPath != "" {
		c.DBPath = other.DBPath
	}
	if other.DataDir != "" {
		c.DataDir = other.DataDir
	}
	if other.OllamaURL != "" {
		c.OllamaURL = other.OllamaURL
	}
	if other.EmbedModel != "" {
		c.EmbedModel = other.EmbedModel
	}
	if other.ChatModel != "" {
		c.ChatModel = other.ChatModel
	}
	if other.TopK > 0 {
		c.TopK = other.TopK
	}
	if other.TestFile != "" {
		c.TestFile = other.TestFile
	}
	if other.TestCommand != "" {
		c.TestCommand = other.TestCommand
	}
	if len(other.Extensions) > 0 {
		c.Extensions = other.Extensions
	}
}
