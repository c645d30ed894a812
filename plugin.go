package pluginhost

// Dependency declares a required or optional edge from one plugin to
// another by name and minimum version, per spec.md §3. When computing a
// load order, an edge whose target is not among the registered plugins
// is left out, whether required or optional; the dependent is still
// ordered, and the edge stays recorded in the resolver.
type Dependency struct {
	Name       string
	MinVersion Version
	Optional   bool
}

// PluginInfo is the immutable metadata a plugin exposes through its
// GetPluginInfo symbol. Name is the registry's unique key; Dependencies
// are recorded in the plugin's own declared order, but the resolver
// visits a plugin's dependencies in the order of the names it is given
// to order, not in this declared order.
type PluginInfo struct {
	Name        string
	DisplayName string
	Description string
	Version     Version
	Author      string
	Dependencies []Dependency
}

// HostContext is passed into Initialize so a plugin can call back into
// the host to look up another loaded plugin (GetPlugin is its only
// method) without keeping a process-wide "current instance" pointer — the
// anti-pattern spec.md §9 calls out in the teacher's sample plugins.
type HostContext struct {
	host *Host
}

// GetPlugin looks up another loaded plugin by name, the replacement
// spec.md §9 prescribes for a library-static "current instance"
// pointer: a plugin reaches other plugins through the token it was
// handed, not through process-wide state.
func (c *HostContext) GetPlugin(name string) (PluginRef, bool) {
	if c.host == nil {
		return PluginRef{}, false
	}
	return c.host.GetPlugin(name)
}

// Plugin is the lifecycle and state-preservation contract every plugin
// instance implements, per spec.md §3's "plugin capability set". Methods
// return error rather than the abstract spec's bare bool: a non-nil
// error is that bool's "false" case, in keeping with idiomatic Go error
// handling.
type Plugin interface {
	// Info returns this instance's metadata. It must be side-effect-free
	// and must equal what the library's GetPluginInfo symbol reports.
	Info() PluginInfo

	// Initialize prepares the plugin for use. A non-nil error aborts the
	// current initialization pass; plugins initialized earlier in the
	// pass remain initialized.
	Initialize(ctx *HostContext) error

	// Shutdown releases resources. It is called at most once per
	// instance, after at most one successful Initialize.
	Shutdown()

	// Serialize captures externally observable state as an opaque blob,
	// for hot reload. The blob is owned by the caller.
	Serialize() ([]byte, error)

	// Deserialize restores state captured by a prior Serialize call on a
	// (possibly different) instance of the same plugin.
	Deserialize(data []byte) error

	// PrepareHotReload is called before any teardown begins. A non-nil
	// error aborts the reload before anything is torn down.
	PrepareHotReload() error

	// CompleteHotReload is called after the reloaded instance has been
	// deserialized and is about to rejoin the live set.
	CompleteHotReload() error
}

// CreatePluginFunc is the signature of the required "CreatePlugin" ABI
// symbol: it allocates a new plugin instance and transfers ownership to
// the host.
type CreatePluginFunc func() Plugin

// GetPluginInfoFunc is the signature of the required "GetPluginInfo" ABI
// symbol: it must be side-effect-free and callable before CreatePlugin.
type GetPluginInfoFunc func() *PluginInfo

const (
	// symbolCreatePlugin and symbolGetPluginInfo are the two symbol names
	// every plugin library must export, per spec.md §6.
	symbolCreatePlugin  = "CreatePlugin"
	symbolGetPluginInfo = "GetPluginInfo"
)
