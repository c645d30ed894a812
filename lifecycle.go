package pluginhost

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/streamspace-dev/pluginhost/logging"
)

// Controller composes a Registry and its Resolver into the bulk-load,
// dependency-resolution, and hot-reload flows of spec.md §4.4. It owns
// the configured plugin directory; the Registry owns everything else.
type Controller struct {
	registry *Registry
	host     *Host

	dirMu sync.Mutex
	dir   string
}

// NewController returns a Controller driving registry. The Host
// reference passed to plugin Initialize calls is wired in by setHost
// once the owning Host finishes constructing itself.
func NewController(registry *Registry) *Controller {
	return &Controller{registry: registry}
}

func (c *Controller) setHost(host *Host) {
	c.host = host
}

// SetPluginDirectory sets the directory LoadAll scans.
func (c *Controller) SetPluginDirectory(path string) {
	c.dirMu.Lock()
	defer c.dirMu.Unlock()
	c.dir = path
}

// PluginDirectory returns the directory set by SetPluginDirectory.
func (c *Controller) PluginDirectory() string {
	c.dirMu.Lock()
	defer c.dirMu.Unlock()
	return c.dir
}

// LoadAll scans the configured directory non-recursively for files whose
// extension matches the host platform's shared-library convention,
// loads each through the Registry, and then runs ResolveDependencies. It
// returns the number of libraries successfully loaded; a load failure
// for one candidate does not stop the scan of the rest.
func (c *Controller) LoadAll() (int, error) {
	dir := c.PluginDirectory()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, newErrCause(ErrKindPathNotFound, dir, err)
	}

	ext := PlatformExtension()
	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := c.registry.Load(path); err != nil {
			logging.Host().Warn().Str("path", path).Err(err).Msg("load_all_candidate_failed")
			continue
		}
		loaded++
	}

	if _, err := c.ResolveDependencies(); err != nil {
		return loaded, err
	}
	return loaded, nil
}

// ResolveDependencies computes a total load order over the currently
// registered plugins and calls Initialize on each in that order. The
// first failure aborts the pass; plugins initialized earlier in the
// call remain initialized, per spec.md §4.4.2.
func (c *Controller) ResolveDependencies() ([]string, error) {
	names := c.registry.LoadedNames()

	order, err := c.registry.resolver.ResolveLoadOrder(names)
	if err != nil {
		return nil, err
	}

	for _, name := range order {
		c.registry.mu.Lock()
		entry, ok := c.registry.entries[name]
		if !ok {
			c.registry.mu.Unlock()
			continue
		}
		if entry.initialized {
			c.registry.mu.Unlock()
			continue
		}
		ctx := &HostContext{host: c.host}
		c.registry.mu.Unlock()

		if err := entry.instance.Initialize(ctx); err != nil {
			wrapped := newErrCause(ErrKindInitializeFailed, name, err)
			c.registry.mu.Lock()
			c.registry.setLastErrLocked(wrapped)
			c.registry.mu.Unlock()
			return nil, wrapped
		}

		c.registry.mu.Lock()
		entry.initialized = true
		c.registry.mu.Unlock()
		c.registry.dispatch(EventInitialized, name, "")
	}

	c.registry.mu.Lock()
	c.registry.setLoadOrderLocked(order)
	c.registry.setLastErrLocked(nil)
	c.registry.mu.Unlock()

	return order, nil
}

// HotReload replaces name's library and instance in place, preserving
// its serialized state and cascading through its dependents per the
// state machine of spec.md §4.4.3:
//
//	LIVE -> PREPARED -> SUSPENDED -> ABSENT -> LOADED -> RESTORED -> LIVE
//
// Dependents are suspended before name is torn down and restored after
// name is live again, so no dependent ever observes a torn-down target.
func (c *Controller) HotReload(name string) error {
	reloadID := uuid.NewString()
	rlog := logging.Reload(reloadID)

	c.registry.mu.Lock()
	if _, ok := c.registry.entries[name]; !ok {
		c.registry.mu.Unlock()
		err := newErr(ErrKindNotRegistered, name)
		return err
	}
	dependents := c.registry.dependentsOfLocked(name)
	c.registry.mu.Unlock()

	// Step 3: prepare every dependent, then the target. Any failure
	// aborts before anything is torn down.
	if err := c.prepareAll(dependents, name); err != nil {
		rlog.Warn().Str("plugin", name).Err(err).Msg("hot_reload_prepare_failed")
		return newErrCause(ErrKindHotReloadAborted, name, err)
	}

	// Step 4: serialize every dependent, then the target.
	blobs := make(map[string][]byte, len(dependents)+1)
	paths := make(map[string]string, len(dependents)+1)
	if err := c.serializeAll(dependents, name, blobs, paths); err != nil {
		rlog.Warn().Str("plugin", name).Err(err).Msg("hot_reload_serialize_failed")
		return newErrCause(ErrKindHotReloadAborted, name, err)
	}

	// Step 5: shut down and release each dependent, then the target;
	// close handles. All entries are now ABSENT.
	c.registry.mu.Lock()
	for _, dn := range dependents {
		c.teardownAndRemoveLocked(dn)
		rlog.Debug().Str("plugin", dn).Msg("shutdown")
	}
	c.teardownAndRemoveLocked(name)
	rlog.Debug().Str("plugin", name).Msg("shutdown")
	c.registry.mu.Unlock()

	// Step 6-7: reload the target, deserialize, complete.
	c.registry.mu.Lock()
	targetEntry, err := c.registry.loadLocked(paths[name])
	c.registry.mu.Unlock()
	if err != nil {
		rlog.Error().Str("plugin", name).Err(err).Msg("hot_reload_target_reload_failed")
		return newErrCause(ErrKindHotReloadAborted, name, err)
	}
	rlog.Debug().Str("plugin", name).Msg("load")
	if err := targetEntry.instance.Deserialize(blobs[name]); err != nil {
		rlog.Error().Str("plugin", name).Err(err).Msg("hot_reload_target_deserialize_failed")
		return newErrCause(ErrKindHotReloadAborted, name, err)
	}
	if err := targetEntry.instance.CompleteHotReload(); err != nil {
		rlog.Error().Str("plugin", name).Err(err).Msg("hot_reload_target_complete_failed")
		return newErrCause(ErrKindHotReloadAborted, name, err)
	}
	rlog.Debug().Str("plugin", name).Msg("complete")

	// Step 8: reload each dependent; per-dependent failures are
	// recorded but do not abort the remaining dependents.
	var failed []string
	for _, dn := range dependents {
		if err := c.restoreDependent(dn, paths[dn], blobs[dn]); err != nil {
			rlog.Warn().Str("plugin", dn).Err(err).Msg("hot_reload_dependent_restore_failed")
			failed = append(failed, dn)
		}
	}

	// Step 9: re-run initialization in dependency order.
	if _, err := c.ResolveDependencies(); err != nil {
		rlog.Warn().Str("plugin", name).Err(err).Msg("hot_reload_reinitialize_failed")
	}

	c.registry.dispatch(EventReloaded, name, reloadID)

	if len(failed) > 0 {
		sort.Strings(failed)
		return &HostError{Kind: ErrKindHotReloadPartial, Name: name, Failed: failed}
	}
	return nil
}

func (c *Controller) prepareAll(dependents []string, target string) error {
	c.registry.mu.Lock()
	defer c.registry.mu.Unlock()

	for _, dn := range dependents {
		if err := c.registry.entries[dn].instance.PrepareHotReload(); err != nil {
			return err
		}
	}
	return c.registry.entries[target].instance.PrepareHotReload()
}

func (c *Controller) serializeAll(dependents []string, target string, blobs map[string][]byte, paths map[string]string) error {
	c.registry.mu.Lock()
	defer c.registry.mu.Unlock()

	for _, dn := range dependents {
		entry := c.registry.entries[dn]
		data, err := entry.instance.Serialize()
		if err != nil {
			return err
		}
		blobs[dn] = data
		paths[dn] = entry.path
	}
	entry := c.registry.entries[target]
	data, err := entry.instance.Serialize()
	if err != nil {
		return err
	}
	blobs[target] = data
	paths[target] = entry.path
	return nil
}

// teardownAndRemoveLocked tears down and deletes the named entry. Caller
// must hold c.registry.mu.
func (c *Controller) teardownAndRemoveLocked(name string) {
	entry, ok := c.registry.entries[name]
	if !ok {
		return
	}
	c.registry.teardownLocked(entry)
	delete(c.registry.entries, name)
}

func (c *Controller) restoreDependent(name, path string, blob []byte) error {
	c.registry.mu.Lock()
	entry, err := c.registry.loadLocked(path)
	c.registry.mu.Unlock()
	if err != nil {
		return err
	}
	if err := entry.instance.Deserialize(blob); err != nil {
		return err
	}
	return entry.instance.CompleteHotReload()
}
