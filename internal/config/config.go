package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates the daemon-side configuration for Easel. Runtime
// slideshow settings are not part of this struct; they flow through the
// Resolver and the settings store so they can change without a restart.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Logging Logging `toml:"logging"`
}

// SearchPaths returns the candidate configuration file locations in fixed
// priority order: system-wide, working directory, user home, bundled default.
func SearchPaths() []string {
	paths := []string{"/etc/easel/config.toml"}
	if cwd, err := filepath.Abs("easel.toml"); err == nil {
		paths = append(paths, cwd)
	}
	if home, err := expandPath("~/.config/easel/config.toml"); err == nil {
		paths = append(paths, home)
	}
	paths = append(paths, "/usr/share/easel/config.toml")
	return paths
}

// DefaultConfigPath returns the location `easel config init` writes to.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/easel/config.toml")
}

// Load locates, parses, and validates a configuration file. When path is
// empty the standard search order is used and a missing file falls back to
// defaults. Candidate files that fail to parse are skipped with a recorded
// warning so one malformed file cannot take the daemon down; an explicitly
// requested path is parsed strictly.
func Load(path string) (*Config, string, []string, error) {
	cfg := Default()
	var warnings []string

	if strings.TrimSpace(path) != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return nil, "", nil, err
		}
		if err := decodeFile(expanded, &cfg); err != nil {
			return nil, "", nil, err
		}
		if err := cfg.normalize(); err != nil {
			return nil, "", nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, "", nil, err
		}
		return &cfg, expanded, nil, nil
	}

	resolved := ""
	for _, candidate := range SearchPaths() {
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		if err := decodeFile(candidate, &cfg); err != nil {
			warnings = append(warnings, fmt.Sprintf("skipping %s: %v", candidate, err))
			cfg = Default()
			continue
		}
		resolved = candidate
		break
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", warnings, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", warnings, err
	}
	return &cfg, resolved, warnings, nil
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file not found: %s", path)
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set")
	}
	if c.Paths.APIBind == "" {
		return errors.New("paths.api_bind must be set")
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

// DatabasePath returns the settings database location under the state dir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "settings.db")
}

// LockPath returns the daemon lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "easeld.lock")
}

// EnsureDirectories creates the directories the daemon needs at runtime.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
