package pluginhost

// Host is the single coordinator embedders talk to: it composes a
// Registry, its Resolver, and a Controller behind the API surface of
// spec.md §6. A Host is safe for concurrent use; the Registry's single
// mutex serializes every operation that touches plugin state.
type Host struct {
	registry   *Registry
	controller *Controller
}

// New returns a Host backed by the operating system's dynamic linker.
// Embedders that need to test host logic without real shared libraries
// should use NewWithLoader with a fake Loader instead.
func New() *Host {
	return NewWithLoader(NewOSLoader())
}

// NewWithLoader returns a Host backed by the given Loader.
func NewWithLoader(loader Loader) *Host {
	registry := NewRegistry(loader)
	controller := NewController(registry)
	host := &Host{
		registry:   registry,
		controller: controller,
	}
	controller.setHost(host)
	return host
}

// SetPluginDirectory sets the directory LoadAllPlugins scans.
func (h *Host) SetPluginDirectory(path string) {
	h.controller.SetPluginDirectory(path)
}

// PluginDirectory returns the directory set by SetPluginDirectory.
func (h *Host) PluginDirectory() string {
	return h.controller.PluginDirectory()
}

// LoadPlugin opens, registers, and constructs the plugin at path. It
// does not run dependency resolution or initialization; call
// ResolveDependencies (directly, or via LoadAllPlugins) afterward.
func (h *Host) LoadPlugin(path string) error {
	return h.registry.Load(path)
}

// LoadAllPlugins scans the configured plugin directory, loads every
// candidate library, and resolves + initializes dependencies. It
// returns the count of libraries successfully loaded.
func (h *Host) LoadAllPlugins() (int, error) {
	return h.controller.LoadAll()
}

// UnloadPlugin removes name, refusing if another registered plugin
// requires it.
func (h *Host) UnloadPlugin(name string) error {
	return h.registry.Unload(name)
}

// UnloadAllPlugins tears down every registered plugin, in reverse load
// order when available, or arbitrary order on a cycle.
func (h *Host) UnloadAllPlugins() {
	h.registry.UnloadAll()
}

// GetPlugin returns a strong reference to name's instance.
func (h *Host) GetPlugin(name string) (PluginRef, bool) {
	return h.registry.Get(name)
}

// GetPluginWeak returns a weak reference to name's instance.
func (h *Host) GetPluginWeak(name string) (WeakPluginRef, bool) {
	return h.registry.GetWeak(name)
}

// LoadedPluginNames returns the currently registered plugin names.
func (h *Host) LoadedPluginNames() []string {
	return h.registry.LoadedNames()
}

// IsPluginLoaded reports whether name is currently registered.
func (h *Host) IsPluginLoaded(name string) bool {
	return h.registry.IsLoaded(name)
}

// HotReloadPlugin replaces name's library and instance in place while
// preserving its serialized state and cascading through its dependents.
func (h *Host) HotReloadPlugin(name string) error {
	return h.controller.HotReload(name)
}

// ResolveDependencies computes a total load order over the currently
// registered plugins and initializes each in that order.
func (h *Host) ResolveDependencies() ([]string, error) {
	return h.controller.ResolveDependencies()
}

// GetLoadOrder returns the order computed by the most recent successful
// ResolveDependencies call, or false if none has run yet.
func (h *Host) GetLoadOrder() ([]string, bool) {
	return h.registry.LoadOrder()
}

// RegisterLifecycleCallback appends fn to the list invoked after each
// loaded/unloaded/reloaded/initialized transition.
func (h *Host) RegisterLifecycleCallback(fn LifecycleCallback) {
	h.registry.RegisterLifecycleCallback(fn)
}

// LastError returns the message of the most recent failure, or "" if
// none has occurred since the last success.
func (h *Host) LastError() string {
	return h.registry.LastError()
}

// SetLoggingEnabled toggles the registry's own log lines (load, unload,
// the UnloadAllPlugins cycle fallback, callback panics). Log lines written
// by LoadAllPlugins and HotReloadPlugin do not depend on this setting.
func (h *Host) SetLoggingEnabled(enabled bool) {
	h.registry.SetLoggingEnabled(enabled)
}
