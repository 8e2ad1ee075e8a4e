package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/xaicompare/internal/adapter"
	"github.com/kingrea/xaicompare/internal/config"
	"github.com/kingrea/xaicompare/internal/logging"
	"github.com/kingrea/xaicompare/plugins"
)

// loadConfig reads the project configuration and applies the logging flags.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.NewConfig(opts.project)
	if err != nil {
		return nil, &ExitError{Code: 2, Message: err.Error()}
	}
	if v := strings.TrimSpace(opts.logLevel); v != "" {
		cfg.Project.Log.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(opts.logFormat); v != "" {
		cfg.Project.Log.Format = strings.ToLower(v)
	}
	return cfg, nil
}

// initLogging installs the process logger writing to w.
func initLogging(cfg *config.Config, w io.Writer, noColor bool) (*slog.Logger, error) {
	logger, err := logging.Init(logging.Options{
		Level:   cfg.Project.Log.Level,
		Format:  cfg.Project.Log.Format,
		Writer:  w,
		NoColor: noColor,
	})
	if err != nil {
		return nil, usageError("%v", err)
	}
	return logger, nil
}

func newDiscoverer(cfg *config.Config) *plugins.Discoverer {
	return plugins.NewDiscoverer(adapter.NewRegistry(),
		plugins.WithSources(plugins.DefaultSources(cfg.PluginsDir())...),
		plugins.WithLogger(logging.New("plugins")),
	)
}

// readParams loads adapter parameters from a YAML mapping file.
func readParams(path string) (adapter.Config, error) {
	if strings.TrimSpace(path) == "" {
		return adapter.Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read params: %w", err)
	}
	var params map[string]any
	if err := yaml.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("parse params %s: %w", path, err)
	}
	if params == nil {
		params = map[string]any{}
	}
	return adapter.Config(params), nil
}

// launchArgs builds the argument list the dashboard sees, placing the
// positional run behind the separator the way a launched dashboard script
// receives it.
func launchArgs(run string, extra []string) []string {
	out := []string{"xaicompare"}
	if run == "" && len(extra) == 0 {
		return out
	}
	out = append(out, "--")
	if run != "" {
		out = append(out, "--run", run)
	}
	return append(out, extra...)
}
