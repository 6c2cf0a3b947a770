// Package plugstore manages the lifecycle of locally installed analyzer
// plugins: installing artifact metadata, loading live instances, and
// tearing both down again. The filesystem side of the store lives in the
// fsops, cache, and index subpackages.
package plugstore

import "context"

// PluginInfo is the immutable descriptive metadata for one installed
// plugin, addressed by key. It is created during the install phase and
// read-only afterward.
type PluginInfo struct {
	// Key is the stable plugin key (e.g. "lang-js").
	Key string
	// Name is the human-readable plugin name.
	Name string
	// Version is the plugin version string.
	Version string
	// Hash is the opaque content hash of the plugin artifact.
	Hash string
	// Filename is the artifact's file name inside the cache.
	Filename string
}

// Plugin is the live, activated form of an installed plugin. Concrete
// types are owned by the Loader that produced them.
type Plugin interface {
	// Extensions returns the extension points contributed by the plugin.
	Extensions() []any
}

// Installer materializes plugin artifacts locally and returns their
// metadata by key. Any failure must be signaled by returning an error,
// not by partial results.
type Installer interface {
	Install(ctx context.Context) (map[string]*PluginInfo, error)
}

// InstallerFunc adapts a function to the Installer interface.
type InstallerFunc func(ctx context.Context) (map[string]*PluginInfo, error)

// Install implements Installer.
func (f InstallerFunc) Install(ctx context.Context) (map[string]*PluginInfo, error) {
	return f(ctx)
}

// Loader turns installed metadata into live plugin instances and tears
// them down again. Load and Unload errors are propagated to the caller
// unmasked.
type Loader interface {
	// Load activates a plugin instance for every info in the mapping.
	Load(ctx context.Context, infos map[string]*PluginInfo) (map[string]Plugin, error)

	// Unload deactivates the given instances.
	Unload(ctx context.Context, plugins []Plugin) error
}
