package pluginhost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Load_Success(t *testing.T) {
	loader := newFakeLoader()
	path := registerFakePlugin(loader, PluginInfo{Name: "A", Version: Version{1, 0, 0}}, nil, "")

	reg := NewRegistry(loader)
	require.NoError(t, reg.Load(path))

	assert.True(t, reg.IsLoaded("A"))
	assert.Equal(t, []string{"A"}, reg.LoadedNames())
}

func TestRegistry_Load_DuplicateName(t *testing.T) {
	loader := newFakeLoader()
	path := registerFakePlugin(loader, PluginInfo{Name: "A"}, nil, "")

	reg := NewRegistry(loader)
	require.NoError(t, reg.Load(path))

	err := reg.Load(path)
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrKindDuplicateName, kind)
	assert.Len(t, reg.LoadedNames(), 1)
}

func TestRegistry_Load_PathNotFound(t *testing.T) {
	loader := newFakeLoader()
	reg := NewRegistry(loader)

	err := reg.Load("/nowhere.so")
	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, ErrKindPathNotFound, kind)
}

func TestRegistry_Load_MissingSymbol(t *testing.T) {
	loader := newFakeLoader()
	loader.register("/plugins/bad.so", &fakeLibrarySpec{missingCrt: true})

	reg := NewRegistry(loader)
	err := reg.Load("/plugins/bad.so")
	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, ErrKindSymbolMissing, kind)
}

func TestRegistry_Unload_BlockedByRequiredDependent(t *testing.T) {
	loader := newFakeLoader()
	pathA := registerFakePlugin(loader, PluginInfo{Name: "A"}, nil, "")
	pathB := registerFakePlugin(loader, PluginInfo{
		Name:         "B",
		Dependencies: []Dependency{{Name: "A"}},
	}, nil, "")

	reg := NewRegistry(loader)
	require.NoError(t, reg.Load(pathA))
	require.NoError(t, reg.Load(pathB))

	err := reg.Unload("A")
	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, ErrKindBlockedByDependent, kind)
	assert.True(t, reg.IsLoaded("A"))
}

func TestRegistry_Unload_OptionalDependentDoesNotBlock(t *testing.T) {
	loader := newFakeLoader()
	pathA := registerFakePlugin(loader, PluginInfo{Name: "A"}, nil, "")
	pathB := registerFakePlugin(loader, PluginInfo{
		Name:         "B",
		Dependencies: []Dependency{{Name: "A", Optional: true}},
	}, nil, "")

	reg := NewRegistry(loader)
	require.NoError(t, reg.Load(pathA))
	require.NoError(t, reg.Load(pathB))

	require.NoError(t, reg.Unload("A"))
	assert.False(t, reg.IsLoaded("A"))
}

func TestRegistry_UnloadAll_ReverseOrder(t *testing.T) {
	loader := newFakeLoader()
	var trace []string
	pathA := registerFakePlugin(loader, PluginInfo{Name: "A"}, &trace, "")
	pathB := registerFakePlugin(loader, PluginInfo{Name: "B", Dependencies: []Dependency{{Name: "A"}}}, &trace, "")
	pathC := registerFakePlugin(loader, PluginInfo{Name: "C", Dependencies: []Dependency{{Name: "B"}}}, &trace, "")

	reg := NewRegistry(loader)
	require.NoError(t, reg.Load(pathA))
	require.NoError(t, reg.Load(pathB))
	require.NoError(t, reg.Load(pathC))

	ctl := NewController(reg)
	_, err := ctl.ResolveDependencies()
	require.NoError(t, err)

	trace = nil
	reg.UnloadAll()

	assert.Equal(t, []string{"shutdown(C)", "shutdown(B)", "shutdown(A)"}, trace)
	assert.Empty(t, reg.LoadedNames())
}

func TestRegistry_GetAndWeak(t *testing.T) {
	loader := newFakeLoader()
	path := registerFakePlugin(loader, PluginInfo{Name: "A"}, nil, "")

	reg := NewRegistry(loader)
	require.NoError(t, reg.Load(path))

	ref, ok := reg.Get("A")
	require.True(t, ok)
	assert.Equal(t, "A", ref.Name())

	weak := ref.Weak()
	assert.True(t, weak.Valid())

	require.NoError(t, reg.Unload("A"))
	assert.False(t, weak.Valid())
	_, ok = weak.Upgrade()
	assert.False(t, ok)

	_, ok = reg.GetWeak("A")
	assert.False(t, ok)
}

func TestRegistry_LifecycleCallback_PanicRecovered(t *testing.T) {
	loader := newFakeLoader()
	path := registerFakePlugin(loader, PluginInfo{Name: "A"}, nil, "")

	reg := NewRegistry(loader)
	var seen []string
	reg.RegisterLifecycleCallback(func(e LifecycleEvent) {
		panic("boom")
	})
	reg.RegisterLifecycleCallback(func(e LifecycleEvent) {
		seen = append(seen, e.Type+":"+e.Plugin)
	})

	require.NoError(t, reg.Load(path))
	assert.Equal(t, []string{"loaded:A"}, seen)
}
