package pluginhost

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_ResolveDependencies_InitializesInOrder(t *testing.T) {
	loader := newFakeLoader()
	var trace []string
	pathA := registerFakePlugin(loader, PluginInfo{Name: "A"}, &trace, "")
	pathB := registerFakePlugin(loader, PluginInfo{Name: "B", Dependencies: []Dependency{{Name: "A"}}}, &trace, "")

	reg := NewRegistry(loader)
	require.NoError(t, reg.Load(pathA))
	require.NoError(t, reg.Load(pathB))

	ctl := NewController(reg)
	order, err := ctl.ResolveDependencies()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, order)
	assert.Equal(t, []string{"initialize(A)", "initialize(B)"}, trace)

	cached, ok := reg.LoadOrder()
	require.True(t, ok)
	assert.Equal(t, order, cached)
}

func TestController_ResolveDependencies_AbortsOnFirstFailure(t *testing.T) {
	loader := newFakeLoader()
	pathA := registerFakePlugin(loader, PluginInfo{Name: "A"}, nil, "")
	pathB := registerFakePlugin(loader, PluginInfo{Name: "B", Dependencies: []Dependency{{Name: "A"}}}, nil, "")

	reg := NewRegistry(loader)
	require.NoError(t, reg.Load(pathA))
	require.NoError(t, reg.Load(pathB))

	// Break B's initialize after load, by swapping its instance's error.
	refB, ok := reg.Get("B")
	require.True(t, ok)
	refB.Instance().(*fakePlugin).initErr = errors.New("boom")

	ctl := NewController(reg)
	_, err := ctl.ResolveDependencies()
	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, ErrKindInitializeFailed, kind)

	refA, ok := reg.Get("A")
	require.True(t, ok)
	// A was initialized before B failed and remains so (no rollback).
	assert.NotNil(t, refA.Instance())
	assert.True(t, reg.entries["A"].initialized)
}

func TestController_ResolveDependencies_CycleSurfaces(t *testing.T) {
	loader := newFakeLoader()
	pathA := registerFakePlugin(loader, PluginInfo{Name: "A", Dependencies: []Dependency{{Name: "B"}}}, nil, "")
	pathB := registerFakePlugin(loader, PluginInfo{Name: "B", Dependencies: []Dependency{{Name: "A"}}}, nil, "")

	reg := NewRegistry(loader)
	require.NoError(t, reg.Load(pathA))
	require.NoError(t, reg.Load(pathB))

	ctl := NewController(reg)
	_, err := ctl.ResolveDependencies()
	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, ErrKindCycle, kind)
}

func TestController_HotReload_WithDependent(t *testing.T) {
	loader := newFakeLoader()
	var trace []string
	pathQ := registerFakePlugin(loader, PluginInfo{Name: "Q"}, &trace, "q0")
	pathP := registerFakePlugin(loader, PluginInfo{Name: "P", Dependencies: []Dependency{{Name: "Q"}}}, &trace, "p0")

	reg := NewRegistry(loader)
	require.NoError(t, reg.Load(pathQ))
	require.NoError(t, reg.Load(pathP))

	ctl := NewController(reg)
	_, err := ctl.ResolveDependencies()
	require.NoError(t, err)

	oldP, _ := reg.Get("P")
	oldPInstance := oldP.Instance()

	trace = nil
	err = ctl.HotReload("Q")
	require.NoError(t, err)

	assert.Less(t, indexOf(trace, "prepare(P)"), indexOf(trace, "prepare(Q)"))
	assert.Less(t, indexOf(trace, "prepare(Q)"), indexOf(trace, "shutdown(P)"))
	assert.Less(t, indexOf(trace, "shutdown(P)"), indexOf(trace, "shutdown(Q)"))
	assert.Less(t, indexOf(trace, "shutdown(Q)"), indexOf(trace, "deserialize(Q,q0)"))
	assert.Less(t, indexOf(trace, "deserialize(Q,q0)"), indexOf(trace, "complete(Q)"))
	assert.Less(t, indexOf(trace, "complete(Q)"), indexOf(trace, "deserialize(P,p0)"))
	assert.Less(t, indexOf(trace, "deserialize(P,p0)"), indexOf(trace, "complete(P)"))
	assert.Less(t, indexOf(trace, "complete(P)"), indexOf(trace, "initialize(Q)"))
	assert.Less(t, indexOf(trace, "initialize(Q)"), indexOf(trace, "initialize(P)"))

	newP, ok := reg.Get("P")
	require.True(t, ok)
	assert.NotSame(t, oldPInstance, newP.Instance())

	newQ, ok := reg.Get("Q")
	require.True(t, ok)
	assert.Equal(t, "q0", newQ.Instance().(*fakePlugin).state)
	assert.Equal(t, "p0", newP.Instance().(*fakePlugin).state)
}

func TestController_HotReload_AbortsOnPrepareFailure(t *testing.T) {
	loader := newFakeLoader()
	path := registerFakePlugin(loader, PluginInfo{Name: "A"}, nil, "")

	reg := NewRegistry(loader)
	require.NoError(t, reg.Load(path))

	ref, _ := reg.Get("A")
	ref.Instance().(*fakePlugin).prepareErr = errors.New("cannot prepare")

	ctl := NewController(reg)
	err := ctl.HotReload("A")
	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, ErrKindHotReloadAborted, kind)

	assert.True(t, reg.IsLoaded("A"))
}

func TestController_HotReload_NotRegistered(t *testing.T) {
	loader := newFakeLoader()
	reg := NewRegistry(loader)
	ctl := NewController(reg)

	err := ctl.HotReload("ghost")
	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, ErrKindNotRegistered, kind)
}
