package pluginhost

import (
	"sort"
	"sync"

	"github.com/streamspace-dev/pluginhost/logging"
)

// libraryEntry is the Registry's internal record for one loaded plugin,
// per spec.md §3's LibraryEntry: it exclusively owns the instance and
// the library handle, and destruction releases the instance strictly
// before closing the handle (invariant 5).
type libraryEntry struct {
	lib         Library
	createFn    CreatePluginFunc
	infoFn      GetPluginInfoFunc
	instance    Plugin
	info        PluginInfo
	path        string
	handle      *instanceHandle
	initialized bool
}

// Registry owns library entries, provides concurrent lookup, and
// enforces the ownership-destruction order spec.md §4.3 describes. All
// public operations are serialized on a single mutex, per spec.md §5.
type Registry struct {
	mu        sync.Mutex
	loader    Loader
	resolver  *Resolver
	entries   map[string]*libraryEntry
	callbacks []LifecycleCallback
	lastErr   string
	logging   bool
	lastOrder []string
	hasOrder  bool
}

// NewRegistry returns an empty Registry backed by loader. Pass
// NewOSLoader() in production; tests may inject a fake Loader.
func NewRegistry(loader Loader) *Registry {
	return &Registry{
		loader:   loader,
		resolver: NewResolver(),
		entries:  make(map[string]*libraryEntry),
	}
}

// Resolver returns the dependency resolver the registry feeds on Load.
func (r *Registry) Resolver() *Resolver { return r.resolver }

// SetLoggingEnabled toggles whether the registry logs its own
// operations (load/unload/callback-panic) through the logging package.
func (r *Registry) SetLoggingEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logging = enabled
}

// LastError returns the message of the most recent failure, or "" if
// none has occurred (or it was cleared by a subsequent success).
func (r *Registry) LastError() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

func (r *Registry) setLastErrLocked(err error) {
	if err == nil {
		r.lastErr = ""
		return
	}
	r.lastErr = err.Error()
}

func (r *Registry) logf(event string, fields map[string]any) {
	if !r.logging {
		return
	}
	l := logging.Host()
	ev := l.Debug()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(event)
}

// Load opens the library at path, resolves both required symbols, reads
// the plugin's name and dependencies, and stores the entry. It fails
// (cleaning up any partial state — the handle closed, no dependency
// edges added) if the file is missing, a symbol is missing, the name is
// already registered, or CreatePlugin returns nil.
func (r *Registry) Load(path string) error {
	r.mu.Lock()
	entry, err := r.loadLocked(path)
	r.mu.Unlock()
	if err != nil {
		return err
	}
	r.dispatch(EventLoaded, entry.info.Name, "")
	return nil
}

// loadLocked performs the body of Load assuming r.mu is already held. It
// is also used by the hot-reload procedure in lifecycle.go, which takes
// the lock around each reload step itself. It does not dispatch lifecycle callbacks — callers decide when it is
// safe to unlock and do so.
func (r *Registry) loadLocked(path string) (*libraryEntry, error) {
	lib, err := r.loader.Open(path)
	if err != nil {
		r.setLastErrLocked(err)
		return nil, err
	}

	infoFn, err := resolveInfo(lib)
	if err != nil {
		lib.Close()
		r.setLastErrLocked(err)
		return nil, err
	}
	createFn, err := resolveCreate(lib)
	if err != nil {
		lib.Close()
		r.setLastErrLocked(err)
		return nil, err
	}

	info := infoFn()
	if info == nil {
		lib.Close()
		err = newErr(ErrKindNullInstance, path)
		r.setLastErrLocked(err)
		return nil, err
	}

	if _, exists := r.entries[info.Name]; exists {
		lib.Close()
		err = newErr(ErrKindDuplicateName, info.Name)
		r.setLastErrLocked(err)
		return nil, err
	}

	instance := createFn()
	if instance == nil {
		lib.Close()
		err = newErr(ErrKindNullInstance, info.Name)
		r.setLastErrLocked(err)
		return nil, err
	}

	entry := &libraryEntry{
		lib:      lib,
		createFn: createFn,
		infoFn:   infoFn,
		instance: instance,
		info:     *info,
		path:     path,
		handle:   newInstanceHandle(info.Name, instance),
	}
	r.entries[info.Name] = entry

	for _, dep := range info.Dependencies {
		r.resolver.AddDependency(info.Name, dep.Name, dep.Optional)
	}

	r.setLastErrLocked(nil)
	r.logf("loaded", map[string]any{"plugin": info.Name, "path": path})
	return entry, nil
}

// Unload rejects removal if any other registered plugin declares name as
// a required (non-optional) dependency. Otherwise it shuts down the
// instance, releases it, closes the handle, and removes the entry.
func (r *Registry) Unload(name string) error {
	r.mu.Lock()
	entry, ok := r.entries[name]
	if !ok {
		err := newErr(ErrKindNotRegistered, name)
		r.setLastErrLocked(err)
		r.mu.Unlock()
		return err
	}

	for other := range r.entries {
		if other == name {
			continue
		}
		for _, dep := range r.resolver.DependenciesOf(other) {
			if dep == name {
				err := &HostError{Kind: ErrKindBlockedByDependent, Name: name, Dependent: other}
				r.setLastErrLocked(err)
				r.mu.Unlock()
				return err
			}
		}
	}

	r.teardownLocked(entry)
	delete(r.entries, name)
	r.setLastErrLocked(nil)
	r.logf("unloaded", map[string]any{"plugin": name})
	r.mu.Unlock()

	r.dispatch(EventUnloaded, name, "")
	return nil
}

// teardownLocked shuts down and releases entry's instance, then closes
// its handle — invariant 5's ordering, instance release strictly before
// handle close. Caller must hold r.mu.
func (r *Registry) teardownLocked(entry *libraryEntry) {
	if entry.initialized {
		entry.instance.Shutdown()
		entry.initialized = false
	}
	entry.handle.release()
	entry.lib.Close()
}

// UnloadAll computes a reverse load order over the currently registered
// set and shuts each plugin down in that order. If the resolver reports
// a cycle, it falls back to an arbitrary (map iteration) order and logs
// a warning — per spec.md §9's resolved open question, destruction must
// always succeed regardless of ordering.
func (r *Registry) UnloadAll() {
	r.mu.Lock()
	names := r.registeredNamesLocked()
	order, err := r.resolver.ResolveLoadOrder(names)
	if err != nil {
		if r.logging {
			logging.Host().Warn().Str("reason", err.Error()).Msg("unload_all_fallback_arbitrary_order")
		}
		order = names
	}

	for i := len(order) - 1; i >= 0; i-- {
		name := order[i]
		entry, ok := r.entries[name]
		if !ok {
			continue
		}
		r.teardownLocked(entry)
		delete(r.entries, name)
	}
	r.setLastErrLocked(nil)
	r.mu.Unlock()

	for i := len(order) - 1; i >= 0; i-- {
		r.dispatch(EventUnloaded, order[i], "")
	}
}

func (r *Registry) registeredNamesLocked() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}

// Get returns a strong reference to the named plugin's instance, or
// false if it is not registered.
func (r *Registry) Get(name string) (PluginRef, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[name]
	if !ok {
		return PluginRef{}, false
	}
	return PluginRef{handle: entry.handle}, true
}

// GetWeak returns a weak reference to the named plugin, or false if it
// is not registered.
func (r *Registry) GetWeak(name string) (WeakPluginRef, bool) {
	ref, ok := r.Get(name)
	if !ok {
		return WeakPluginRef{}, false
	}
	return ref.Weak(), true
}

// LoadedNames returns the currently registered plugin names.
func (r *Registry) LoadedNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registeredNamesLocked()
}

// IsLoaded reports whether name is currently registered.
func (r *Registry) IsLoaded(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[name]
	return ok
}

// LoadOrder returns the order computed by the most recent successful
// ResolveDependencies call, or false if none has run yet.
func (r *Registry) LoadOrder() ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.hasOrder {
		return nil, false
	}
	return append([]string(nil), r.lastOrder...), true
}

func (r *Registry) setLoadOrderLocked(order []string) {
	r.lastOrder = append([]string(nil), order...)
	r.hasOrder = true
}

// DependentsOf returns the names of every registered plugin whose
// required dependencies include name, in a stable (sorted) order.
func (r *Registry) DependentsOf(name string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dependentsOfLocked(name)
}

func (r *Registry) dependentsOfLocked(name string) []string {
	var out []string
	for other := range r.entries {
		if other == name {
			continue
		}
		for _, dep := range r.resolver.DependenciesOf(other) {
			if dep == name {
				out = append(out, other)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// RegisterLifecycleCallback appends fn to the list invoked after each
// loaded/unloaded/reloaded transition. Callbacks run with the registry
// lock not held; a panicking callback is recovered and logged, other
// callbacks still run.
func (r *Registry) RegisterLifecycleCallback(fn LifecycleCallback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks = append(r.callbacks, fn)
}

// dispatch invokes the current callback list for an event. The registry
// lock must NOT be held by the caller.
func (r *Registry) dispatch(eventType, name, reloadID string) {
	r.mu.Lock()
	callbacks := append([]LifecycleCallback(nil), r.callbacks...)
	r.mu.Unlock()
	r.invokeCallbacks(callbacks, eventType, name, reloadID)
}

func (r *Registry) invokeCallbacks(callbacks []LifecycleCallback, eventType, name, reloadID string) {
	event := newLifecycleEvent(eventType, name, reloadID)
	for _, cb := range callbacks {
		r.safeInvoke(cb, event)
	}
}

func (r *Registry) safeInvoke(cb LifecycleCallback, event LifecycleEvent) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logf("lifecycle_callback_panic", map[string]any{"recovered": rec, "plugin": event.Plugin})
		}
	}()
	cb(event)
}
