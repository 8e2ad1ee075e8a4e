// internal/config/config.go
//
// This package handles configuration and the .xaicompare state directory.
// A project is any directory holding run folders; xaicompare.yaml at its root
// is optional and every value has a default.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigFile is the project configuration file name.
	ConfigFile = "xaicompare.yaml"
	// StateDir is the name of the directory we create in each project.
	StateDir = ".xaicompare"

	// Environment overrides.
	EnvRunsDir    = "XAICOMPARE_RUNS_DIR"
	EnvPluginsDir = "XAICOMPARE_PLUGINS_DIR"
	EnvQuery      = "XAICOMPARE_QUERY"

	defaultRunsDir    = "runs"
	defaultPluginsDir = "plugins"
	defaultHost       = "127.0.0.1"
	defaultPort       = 8501
	defaultLogLevel   = "info"
	defaultLogFormat  = "text"
)

const defaultProjectConfigYAML = `# xaicompare project configuration
version: 1

# Directory whose immediate children are run folders (each with meta.json).
runs_dir: runs

# Adapter definitions (*.yaml) and script adapters (*.go) discovered on first use.
plugins_dir: plugins

server:
  host: 127.0.0.1
  port: 8501

log:
  level: info   # debug, info, warn, error
  format: text  # text or json
`

// ServerConfig configures the HTTP dashboard.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ProjectConfig models xaicompare.yaml.
type ProjectConfig struct {
	Version    int          `yaml:"version"`
	RunsDir    string       `yaml:"runs_dir"`
	PluginsDir string       `yaml:"plugins_dir"`
	Server     ServerConfig `yaml:"server"`
	Log        LogConfig    `yaml:"log"`
}

// Config holds the runtime configuration.
type Config struct {
	// ProjectDir is the directory xaicompare was pointed at.
	ProjectDir string

	// StateProjectDir is ProjectDir/.xaicompare
	StateProjectDir string

	Project ProjectConfig
}

// InitProject creates the state directory, the default runs and plugins
// directories, and a commented xaicompare.yaml when none exists.
//
// Structure created:
// xaicompare.yaml
// .xaicompare/
// └── logs/      <- process log and session journal
// runs/          <- one folder per run
// plugins/       <- adapter definitions and scripts
func InitProject(projectDir string) error {
	dirs := []string{
		filepath.Join(projectDir, StateDir, "logs"),
		filepath.Join(projectDir, defaultRunsDir),
		filepath.Join(projectDir, defaultPluginsDir),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: ensure %s: %w", dir, err)
		}
	}
	return ensureProjectConfig(filepath.Join(projectDir, ConfigFile))
}

// NewConfig loads xaicompare.yaml from projectDir, applies environment
// overrides, and validates the result.
func NewConfig(projectDir string) (*Config, error) {
	if strings.TrimSpace(projectDir) == "" {
		projectDir = "."
	}
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("config: resolve project dir: %w", err)
	}
	cfg := &Config{
		ProjectDir:      abs,
		StateProjectDir: filepath.Join(abs, StateDir),
		Project:         defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	if err := cfg.Project.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// ConfigPath returns the on-disk location for the project config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.ProjectDir, ConfigFile)
}

// RunsDir returns the absolute run-collection directory.
func (c *Config) RunsDir() string {
	return resolvePath(c.ProjectDir, c.Project.RunsDir)
}

// PluginsDir returns the absolute plugin directory.
func (c *Config) PluginsDir() string {
	return resolvePath(c.ProjectDir, c.Project.PluginsDir)
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.StateProjectDir, "logs")
}

// JournalPath returns the session journal file.
func (c *Config) JournalPath() string {
	return filepath.Join(c.LogsDir(), "sessions.log")
}

// ServerAddr returns host:port for the HTTP dashboard.
func (c *Config) ServerAddr() string {
	return net.JoinHostPort(c.Project.Server.Host, strconv.Itoa(c.Project.Server.Port))
}

// Query returns the raw query string supplied through the environment.
func (c *Config) Query() string {
	return strings.TrimSpace(os.Getenv(EnvQuery))
}

func (c *Config) loadProjectConfig() error {
	path := c.ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvRunsDir)); v != "" {
		c.Project.RunsDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPluginsDir)); v != "" {
		c.Project.PluginsDir = v
	}
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version:    1,
		RunsDir:    defaultRunsDir,
		PluginsDir: defaultPluginsDir,
		Server:     ServerConfig{Host: defaultHost, Port: defaultPort},
		Log:        LogConfig{Level: defaultLogLevel, Format: defaultLogFormat},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	def := defaultProjectConfig()
	if pc.Version == 0 {
		pc.Version = def.Version
	}
	if strings.TrimSpace(pc.RunsDir) == "" {
		pc.RunsDir = def.RunsDir
	}
	if strings.TrimSpace(pc.PluginsDir) == "" {
		pc.PluginsDir = def.PluginsDir
	}
	if strings.TrimSpace(pc.Server.Host) == "" {
		pc.Server.Host = def.Server.Host
	}
	if pc.Server.Port == 0 {
		pc.Server.Port = def.Server.Port
	}
	if strings.TrimSpace(pc.Log.Level) == "" {
		pc.Log.Level = def.Log.Level
	}
	if strings.TrimSpace(pc.Log.Format) == "" {
		pc.Log.Format = def.Log.Format
	}
}

func (pc *ProjectConfig) normalize() {
	pc.RunsDir = strings.TrimSpace(pc.RunsDir)
	pc.PluginsDir = strings.TrimSpace(pc.PluginsDir)
	pc.Server.Host = strings.TrimSpace(pc.Server.Host)
	pc.Log.Level = strings.ToLower(strings.TrimSpace(pc.Log.Level))
	pc.Log.Format = strings.ToLower(strings.TrimSpace(pc.Log.Format))
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if pc.Server.Port < 1 || pc.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	switch pc.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	switch pc.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be 'text' or 'json'")
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}
