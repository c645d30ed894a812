package pluginhost

import "sync/atomic"

// instanceHandle is the shared-ownership wrapper spec.md §5 describes:
// Get returns a reference that stays valid even after Unload removes the
// registry entry, while the library handle still closes on schedule
// because closure is tied to the registry entry, not to any outstanding
// strong reference.
//
// alive is neither a reference count nor a destructor trigger (Go has no
// deterministic destructors) — it only gates WeakPluginRef.Valid(), per spec.md §9's requirement
// that external holders be "advised" the plugin is gone rather than
// silently kept alive forever by a cyclic strong reference.
type instanceHandle struct {
	name  string
	alive int32 // 1 while registered, 0 once released
	inst  Plugin
}

func newInstanceHandle(name string, inst Plugin) *instanceHandle {
	return &instanceHandle{name: name, alive: 1, inst: inst}
}

func (h *instanceHandle) release() {
	atomic.StoreInt32(&h.alive, 0)
}

// PluginRef is a strong, shared reference to a loaded plugin instance.
// Holding one keeps the Go value reachable even across an Unload call,
// matching spec.md §5's shared-ownership requirement; it does not keep
// the underlying library handle open past its scheduled close.
type PluginRef struct {
	handle *instanceHandle
}

// Instance returns the underlying plugin instance.
func (r PluginRef) Instance() Plugin { return r.handle.inst }

// Name returns the plugin's registered name.
func (r PluginRef) Name() string { return r.handle.name }

// Weak returns a WeakPluginRef derived from this strong reference.
func (r PluginRef) Weak() WeakPluginRef { return WeakPluginRef{handle: r.handle} }

// WeakPluginRef observes a loaded plugin's lifetime without extending
// it, addressing spec.md §9's note on cyclic references between the
// registry and external holders (e.g. a script engine).
type WeakPluginRef struct {
	handle *instanceHandle
}

// Valid reports whether the plugin is still registered.
func (r WeakPluginRef) Valid() bool {
	if r.handle == nil {
		return false
	}
	return atomic.LoadInt32(&r.handle.alive) == 1
}

// Upgrade returns a strong PluginRef and true if the plugin is still
// registered, or the zero PluginRef and false otherwise.
func (r WeakPluginRef) Upgrade() (PluginRef, bool) {
	if !r.Valid() {
		return PluginRef{}, false
	}
	return PluginRef{handle: r.handle}, true
}
