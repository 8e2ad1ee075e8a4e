package plugins

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/kingrea/xaicompare/internal/adapter"
	"github.com/kingrea/xaicompare/internal/adapters"
)

// Registration installs one plugin's adapters into a registry.
type Registration func(*adapter.Registry) error

// Plugin is one loadable unit found by a Source. Load does the expensive or
// fallible work (parsing, interpreting) and returns the registration to run.
type Plugin struct {
	Name string
	Load func() (Registration, error)
}

// Source enumerates plugins from one place.
type Source interface {
	Name() string
	Scan() ([]Plugin, error)
}

type staticSource struct {
	name    string
	plugins []Plugin
}

func (s staticSource) Name() string            { return s.name }
func (s staticSource) Scan() ([]Plugin, error) { return s.plugins, nil }

// StaticSource serves a fixed plugin list.
func StaticSource(name string, plugins ...Plugin) Source {
	return staticSource{name: name, plugins: plugins}
}

// BuiltinSource exposes the compiled-in adapter families.
func BuiltinSource(builtins []adapters.Builtin) Source {
	plugins := make([]Plugin, 0, len(builtins))
	for _, b := range builtins {
		register := b.Register
		plugins = append(plugins, Plugin{
			Name: "builtin:" + b.Name,
			Load: func() (Registration, error) { return register, nil },
		})
	}
	return StaticSource("builtin", plugins...)
}

type dirSource struct {
	kind  string
	dir   string
	match func(string) bool
	load  func(path string) (Registration, error)
}

func (s dirSource) Name() string { return s.kind + ":" + s.dir }

func (s dirSource) Scan() ([]Plugin, error) {
	paths, err := listFiles(s.dir, s.match)
	if err != nil {
		return nil, err
	}
	plugins := make([]Plugin, 0, len(paths))
	for _, path := range paths {
		plugins = append(plugins, Plugin{
			Name: s.kind + ":" + path,
			Load: func() (Registration, error) { return s.load(path) },
		})
	}
	return plugins, nil
}

// DefinitionSource loads every *.yaml / *.yml adapter definition in dir.
func DefinitionSource(dir string) Source {
	return dirSource{
		kind:  "definition",
		dir:   dir,
		match: isYAMLFile,
		load: func(path string) (Registration, error) {
			file, err := LoadDefinitionFile(path)
			if err != nil {
				return nil, err
			}
			return file.Definition.Registration(), nil
		},
	}
}

// ScriptSource interprets every *.go script adapter in dir.
func ScriptSource(dir string) Source {
	return dirSource{
		kind:  "script",
		dir:   dir,
		match: isGoFile,
		load: func(path string) (Registration, error) {
			sa, err := LoadScriptAdapter(path)
			if err != nil {
				return nil, err
			}
			return sa.Registration(), nil
		},
	}
}

// DefaultSources returns the built-in adapters followed by the definitions
// and scripts found in pluginsDir.
func DefaultSources(pluginsDir string) []Source {
	return []Source{
		BuiltinSource(adapters.Builtins()),
		DefinitionSource(pluginsDir),
		ScriptSource(pluginsDir),
	}
}

// Failure records a plugin that could not be loaded or registered.
type Failure struct {
	Plugin string
	Err    error
}

// Report summarises the discovery pass.
type Report struct {
	Loaded []string
	Failed []Failure
}

// Option customises a Discoverer.
type Option func(*Discoverer)

// WithSources sets the plugin sources scanned during discovery.
func WithSources(sources ...Source) Option {
	return func(d *Discoverer) {
		d.sources = append([]Source{}, sources...)
	}
}

// WithLogger attaches a logger for discovery progress and failures.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Discoverer) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Discoverer populates a registry from its sources exactly once. Concurrent
// first callers block until the single pass completes; later calls return
// immediately. Failures of individual plugins are logged and skipped, and
// never retried.
type Discoverer struct {
	registry *adapter.Registry
	sources  []Source
	logger   *slog.Logger

	once   sync.Once
	passes atomic.Int32
	report Report
}

// NewDiscoverer builds a discoverer for reg. A nil registry gets a fresh one.
func NewDiscoverer(reg *adapter.Registry, opts ...Option) *Discoverer {
	if reg == nil {
		reg = adapter.NewRegistry()
	}
	d := &Discoverer{
		registry: reg,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// EnsureDiscovered runs the discovery pass if it has not run yet.
func (d *Discoverer) EnsureDiscovered() {
	d.once.Do(d.discover)
}

// Passes reports how many discovery passes ran. It is 0 or 1.
func (d *Discoverer) Passes() int {
	return int(d.passes.Load())
}

// Report returns the outcome of the discovery pass, running it if needed.
func (d *Discoverer) Report() Report {
	d.EnsureDiscovered()
	return Report{
		Loaded: append([]string{}, d.report.Loaded...),
		Failed: append([]Failure{}, d.report.Failed...),
	}
}

// Registry returns the populated registry.
func (d *Discoverer) Registry() *adapter.Registry {
	d.EnsureDiscovered()
	return d.registry
}

// Resolve returns the factory for key after discovery.
func (d *Discoverer) Resolve(key string) (adapter.Factory, error) {
	d.EnsureDiscovered()
	return d.registry.Resolve(key)
}

// Adapter constructs the adapter registered under key.
func (d *Discoverer) Adapter(key string, cfg adapter.Config) (adapter.Adapter, error) {
	d.EnsureDiscovered()
	return d.registry.New(key, cfg)
}

// Keys returns every registered key after discovery.
func (d *Discoverer) Keys() []string {
	d.EnsureDiscovered()
	return d.registry.Keys()
}

func (d *Discoverer) discover() {
	d.passes.Add(1)
	for _, source := range d.sources {
		plugins, err := source.Scan()
		if err != nil {
			d.fail(source.Name(), err)
			continue
		}
		for _, plugin := range plugins {
			if err := d.install(plugin); err != nil {
				d.fail(plugin.Name, err)
				continue
			}
			d.report.Loaded = append(d.report.Loaded, plugin.Name)
			d.logger.Debug("plugin loaded", "plugin", plugin.Name)
		}
	}
	d.logger.Info("adapter discovery complete",
		"loaded", len(d.report.Loaded),
		"failed", len(d.report.Failed),
		"adapters", d.registry.Len(),
	)
}

func (d *Discoverer) install(plugin Plugin) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("plugin: %s panicked: %v", plugin.Name, r)
		}
	}()
	if plugin.Load == nil {
		return fmt.Errorf("plugin: %s has no loader", plugin.Name)
	}
	register, err := plugin.Load()
	if err != nil {
		return err
	}
	if register == nil {
		return fmt.Errorf("plugin: %s returned no registration", plugin.Name)
	}
	return register(d.registry)
}

func (d *Discoverer) fail(name string, err error) {
	d.report.Failed = append(d.report.Failed, Failure{Plugin: name, Err: err})
	d.logger.Warn("plugin skipped", "plugin", name, "err", err)
}
