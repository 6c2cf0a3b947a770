package plugstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/randalmurphal/plugstore/pkg/plugstore/observability"
)

// State is the lifecycle phase of a Repository.
type State int

const (
	// StateNotStarted is the phase before Start.
	StateNotStarted State = iota

	// StateStarted is the phase after a successful Start.
	StateStarted

	// StateStopped is the terminal phase after Stop. A stopped
	// repository cannot be restarted; construct a fresh one.
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not started"
	case StateStarted:
		return "started"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Repository orchestrates the installation and loading of plugins and
// tracks them by key while they are live.
//
// Repository assumes single-writer access: Start and Stop are expected
// to be invoked once each by the owning process's initialization and
// shutdown sequence, not concurrently with lookups or with each other.
// No internal locking is provided.
type Repository struct {
	installer Installer
	loader    Loader

	state     State
	infos     map[string]*PluginInfo
	instances map[string]Plugin

	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
}

// NewRepository creates a repository wired to the given installer and
// loader. The repository starts in StateNotStarted.
func NewRepository(installer Installer, loader Loader, opts ...RepositoryOption) *Repository {
	r := &Repository{
		installer: installer,
		loader:    loader,
		metrics:   observability.NoopMetrics{},
		spans:     observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start installs plugin metadata via the Installer, loads live instances
// via the Loader, and transitions to StateStarted. It must be called at
// most once; a second call returns a StateError.
//
// A failed Start leaves the repository in StateNotStarted with no
// plugins registered.
func (r *Repository) Start(ctx context.Context) (err error) {
	if r.state != StateNotStarted {
		return &StateError{Op: "start", State: r.state}
	}

	ctx, span := r.spans.StartLifecycleSpan(ctx, "start")
	start := time.Now()
	defer func() {
		r.spans.EndSpanWithError(span, err)
	}()

	infos, err := r.installer.Install(ctx)
	if err != nil {
		return fmt.Errorf("install plugins: %w", err)
	}

	instances, err := r.loader.Load(ctx, infos)
	if err != nil {
		return fmt.Errorf("load plugins: %w", err)
	}

	r.infos = make(map[string]*PluginInfo, len(infos))
	for key, info := range infos {
		r.infos[key] = info
	}
	r.instances = make(map[string]Plugin, len(instances))
	for key, instance := range instances {
		r.instances[key] = instance
	}
	r.state = StateStarted

	for _, info := range r.infos {
		observability.LogPluginLoaded(r.logger, info.Key, info.Name, info.Version)
	}
	observability.LogRepositoryStart(r.logger, len(r.infos), float64(time.Since(start).Milliseconds()))
	r.metrics.RecordStart(ctx, len(r.infos), time.Since(start))

	return nil
}

// Stop unloads every live instance and clears both maps. After Stop,
// lookups behave as if no plugins exist. Stop on an already stopped
// repository is a no-op; Stop before Start returns a StateError.
//
// The maps are cleared and the repository marked stopped even when
// Unload fails, so teardown stays idempotent; the Unload error is still
// propagated unmasked.
func (r *Repository) Stop(ctx context.Context) (err error) {
	switch r.state {
	case StateStopped:
		return nil
	case StateNotStarted:
		return &StateError{Op: "stop", State: r.state}
	}

	ctx, span := r.spans.StartLifecycleSpan(ctx, "stop")
	defer func() {
		r.spans.EndSpanWithError(span, err)
	}()

	plugins := make([]Plugin, 0, len(r.instances))
	for _, instance := range r.instances {
		plugins = append(plugins, instance)
	}

	unloadErr := r.loader.Unload(ctx, plugins)

	count := len(r.instances)
	r.infos = nil
	r.instances = nil
	r.state = StateStopped
	observability.LogRepositoryStop(r.logger, count)

	if unloadErr != nil {
		return fmt.Errorf("unload plugins: %w", unloadErr)
	}
	return nil
}

// CurrentState returns the current lifecycle phase.
func (r *Repository) CurrentState() State {
	return r.state
}

// Info returns the metadata for key. Valid only while started; a
// missing key yields an UnknownPluginError.
func (r *Repository) Info(key string) (*PluginInfo, error) {
	if r.state != StateStarted {
		return nil, &StateError{Op: "get plugin info", State: r.state}
	}
	info, ok := r.infos[key]
	if !ok {
		return nil, &UnknownPluginError{Key: key}
	}
	return info, nil
}

// Instance returns the live instance for key. Valid only while started;
// a missing key yields an UnknownPluginError.
func (r *Repository) Instance(key string) (Plugin, error) {
	if r.state != StateStarted {
		return nil, &StateError{Op: "get plugin instance", State: r.state}
	}
	instance, ok := r.instances[key]
	if !ok {
		return nil, &UnknownPluginError{Key: key}
	}
	return instance, nil
}

// Has reports whether a plugin with the key is registered. It never
// errors; in any state other than started it reports false.
func (r *Repository) Has(key string) bool {
	_, ok := r.infos[key]
	return ok
}

// Infos returns the metadata for all registered plugins, in no
// particular order. Empty outside the started state.
func (r *Repository) Infos() []*PluginInfo {
	infos := make([]*PluginInfo, 0, len(r.infos))
	for _, info := range r.infos {
		infos = append(infos, info)
	}
	return infos
}
