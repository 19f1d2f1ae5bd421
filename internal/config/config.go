// Package config provides hierarchical configuration for changekit using
// koanf. Values are loaded with priority: environment variables
// (CHANGEKIT_ prefix) > project config (.changekit.yml) > user config
// (~/.config/changekit/config.yml) > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Configuration holds the changekit settings.
type Configuration struct {
	// APIURL is the base URL of the AI endpoint.
	APIURL string `koanf:"api_url"`
	// Model is the AI model identifier.
	Model string `koanf:"model"`
	// RequestTimeout bounds the AI request, in seconds.
	RequestTimeout int `koanf:"request_timeout"`
	// DiffTimeout bounds the staged-diff retrieval, in seconds.
	DiffTimeout int `koanf:"diff_timeout"`
	// MaxDiffBytes caps the staged diff size fed to the AI.
	MaxDiffBytes int64 `koanf:"max_diff_bytes"`
	// MaxManifests caps how many manifests discovery will process.
	MaxManifests int `koanf:"max_manifests"`
	// ChangesetDir is the changeset directory name under the workspace root.
	ChangesetDir string `koanf:"changeset_dir"`
	// SkipConfirmations skips confirmation prompts (also CHANGEKIT_YES).
	SkipConfirmations bool `koanf:"skip_confirmations"`
}

// ProjectConfigName is the per-workspace config file name.
const ProjectConfigName = ".changekit.yml"

// Load loads configuration for the workspace rooted at rootPath.
// projectPath, when non-empty, overrides the project config location.
func Load(rootPath, projectPath string) (*Configuration, error) {
	k := koanf.New(".")

	for key, value := range Defaults() {
		_ = k.Set(key, value)
	}

	if userPath, err := UserConfigPath(); err == nil {
		if err := loadFileIfExists(k, userPath, "user"); err != nil {
			return nil, err
		}
	}

	if projectPath == "" && rootPath != "" {
		projectPath = filepath.Join(rootPath, ProjectConfigName)
	}
	if projectPath != "" {
		if err := loadFileIfExists(k, projectPath, "project"); err != nil {
			return nil, err
		}
	}

	if err := k.Load(env.Provider("CHANGEKIT_", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment config: %w", err)
	}

	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	if os.Getenv("CHANGEKIT_YES") != "" {
		cfg.SkipConfirmations = true
	}
	return &cfg, nil
}

// UserConfigPath returns the XDG-compliant user config file location.
func UserConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving user config directory: %w", err)
	}
	return filepath.Join(configDir, "changekit", "config.yml"), nil
}

func loadFileIfExists(k *koanf.Koanf, path, kind string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("loading %s config %s: %w", kind, path, err)
	}
	return nil
}

// envTransform maps CHANGEKIT_MAX_DIFF_BYTES to max_diff_bytes.
// The credential env var belongs to the keystore, not the config tree.
func envTransform(s string) string {
	s = strings.TrimPrefix(s, "CHANGEKIT_")
	if s == "API_KEY" || s == "YES" {
		return ""
	}
	return strings.ToLower(s)
}

// Validate rejects out-of-range values before they reach the workflow.
func Validate(cfg *Configuration) error {
	if cfg.APIURL == "" {
		return fmt.Errorf("api_url cannot be empty")
	}
	if !strings.HasPrefix(cfg.APIURL, "https://") && !strings.HasPrefix(cfg.APIURL, "http://localhost") && !strings.HasPrefix(cfg.APIURL, "http://127.0.0.1") {
		return fmt.Errorf("api_url must use https (got %q)", cfg.APIURL)
	}
	if cfg.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if cfg.RequestTimeout <= 0 || cfg.RequestTimeout > 600 {
		return fmt.Errorf("request_timeout must be 1-600 seconds (got %d)", cfg.RequestTimeout)
	}
	if cfg.DiffTimeout <= 0 || cfg.DiffTimeout > 300 {
		return fmt.Errorf("diff_timeout must be 1-300 seconds (got %d)", cfg.DiffTimeout)
	}
	if cfg.MaxDiffBytes <= 0 {
		return fmt.Errorf("max_diff_bytes must be positive (got %d)", cfg.MaxDiffBytes)
	}
	if cfg.MaxManifests <= 0 {
		return fmt.Errorf("max_manifests must be positive (got %d)", cfg.MaxManifests)
	}
	if cfg.ChangesetDir == "" || strings.ContainsAny(cfg.ChangesetDir, "/\\") || strings.Contains(cfg.ChangesetDir, "..") {
		return fmt.Errorf("changeset_dir must be a bare directory name (got %q)", cfg.ChangesetDir)
	}
	return nil
}
