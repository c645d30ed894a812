package pluginhost

import (
	"errors"
	"os"
	"plugin"
	"runtime"
)

// PlatformExtension returns the shared-library extension this process's
// platform expects, per spec.md §6's extension table.
func PlatformExtension() string {
	switch runtime.GOOS {
	case "windows":
		return ".dll"
	case "darwin":
		return ".dylib"
	default:
		return ".so"
	}
}

// Library abstracts a single loaded shared library down to symbol
// resolution and best-effort close, so the Loader below can be backed by
// Go's standard library plugin package in production and by a fake in
// tests that never touch a real .so file.
//
// Close is best-effort and idempotent: Go's plugin package has no
// operation to actually unmap a shared object (a well-documented
// limitation — see the teacher's own callout in
// api/internal/plugins/discovery.go: "No unload: Once loaded, plugins
// can't be unloaded"). Close here only marks the library closed, so a
// second Close is a no-op; it does not call dlclose and the shared
// object stays mapped.
type Library interface {
	Lookup(symbolName string) (interface{}, error)
	Close() error
}

// Loader is the single point of OS-specific symbol resolution described
// in spec.md §4.1. Implementations must treat the path as already
// resolved — the loader does not search the filesystem for it.
type Loader interface {
	Open(path string) (Library, error)
}

// osLoader is the production Loader, backed by the standard library
// plugin package (the OS dynamic linker Go exposes).
type osLoader struct{}

// NewOSLoader returns the Loader that actually calls into the Go
// runtime's dynamic linker. Embedders normally don't need to call this
// directly — New already uses it.
func NewOSLoader() Loader { return osLoader{} }

func (osLoader) Open(path string) (Library, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, newErr(ErrKindPathNotFound, path)
		}
		return nil, newErrCause(ErrKindLoadFailed, path, err)
	}

	p, err := plugin.Open(path)
	if err != nil {
		return nil, newErrCause(ErrKindLoadFailed, path, err)
	}
	return &realLibrary{path: path, plugin: p}, nil
}

type realLibrary struct {
	path   string
	plugin *plugin.Plugin
	closed bool
}

func (l *realLibrary) Lookup(symbolName string) (interface{}, error) {
	sym, err := l.plugin.Lookup(symbolName)
	if err != nil {
		return nil, newErr(ErrKindSymbolMissing, symbolName)
	}
	return sym, nil
}

func (l *realLibrary) Close() error {
	// Idempotent, best-effort: see the Library doc comment above.
	l.closed = true
	return nil
}

// resolveCreate and resolveInfo look up and type-assert the two required
// ABI symbols from an opened Library.
func resolveCreate(lib Library) (CreatePluginFunc, error) {
	sym, err := lib.Lookup(symbolCreatePlugin)
	if err != nil {
		return nil, err
	}
	fn, ok := sym.(func() Plugin)
	if !ok {
		if fnp, okp := sym.(*func() Plugin); okp {
			return *fnp, nil
		}
		return nil, newErr(ErrKindSymbolMissing, symbolCreatePlugin)
	}
	return fn, nil
}

func resolveInfo(lib Library) (GetPluginInfoFunc, error) {
	sym, err := lib.Lookup(symbolGetPluginInfo)
	if err != nil {
		return nil, err
	}
	fn, ok := sym.(func() *PluginInfo)
	if !ok {
		if fnp, okp := sym.(*func() *PluginInfo); okp {
			return *fnp, nil
		}
		return nil, newErr(ErrKindSymbolMissing, symbolGetPluginInfo)
	}
	return fn, nil
}
