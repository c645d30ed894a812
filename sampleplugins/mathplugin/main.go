// Package main builds a math plugin: a small illustrative collaborator
// that exercises the host's ABI with no dependencies of its own. It is
// not part of the host's core engineering and is deliberately kept
// small.
package main

import (
	"fmt"
	"sync"

	"github.com/streamspace-dev/pluginhost"
)

// MathPlugin accumulates a running total across Add calls and preserves
// it across a hot reload via Serialize/Deserialize.
type MathPlugin struct {
	mu    sync.Mutex
	total int64
}

func (p *MathPlugin) Info() pluginhost.PluginInfo {
	return pluginhost.PluginInfo{
		Name:        "math",
		DisplayName: "Math",
		Description: "accumulates a running total",
		Version:     pluginhost.Version{Major: 1, Minor: 0, Patch: 0},
		Author:      "pluginhost samples",
	}
}

func (p *MathPlugin) Initialize(ctx *pluginhost.HostContext) error { return nil }

func (p *MathPlugin) Shutdown() {}

// Add adds delta to the running total and returns the new total.
func (p *MathPlugin) Add(delta int64) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total += delta
	return p.total
}

func (p *MathPlugin) Serialize() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return []byte(fmt.Sprintf("%d", p.total)), nil
}

func (p *MathPlugin) Deserialize(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var total int64
	if _, err := fmt.Sscanf(string(data), "%d", &total); err != nil {
		return err
	}
	p.total = total
	return nil
}

func (p *MathPlugin) PrepareHotReload() error  { return nil }
func (p *MathPlugin) CompleteHotReload() error { return nil }

// CreatePlugin is the host's required allocation symbol.
func CreatePlugin() pluginhost.Plugin {
	return &MathPlugin{}
}

var mathInfo = pluginhost.PluginInfo{
	Name:        "math",
	DisplayName: "Math",
	Description: "accumulates a running total",
	Version:     pluginhost.Version{Major: 1, Minor: 0, Patch: 0},
	Author:      "pluginhost samples",
}

// GetPluginInfo is the host's required metadata symbol. It must not
// allocate an instance and must be callable before CreatePlugin.
func GetPluginInfo() *pluginhost.PluginInfo {
	return &mathInfo
}

func main() {}
