// Package main builds a logging plugin: an illustrative collaborator
// that requires the math plugin to be loaded first, so a host scanning
// a directory containing both exercises the dependency resolver end to
// end. Like mathplugin, it carries none of the host's core engineering.
package main

import (
	"fmt"
	"sync"

	"github.com/streamspace-dev/pluginhost"
)

// LogPlugin records lines in memory and looks up the math plugin during
// Initialize to demonstrate HostContext.GetPlugin as the replacement for
// a library-static "current instance" pointer.
type LogPlugin struct {
	mu    sync.Mutex
	lines []string
	math  pluginhost.PluginRef
}

func (p *LogPlugin) Info() pluginhost.PluginInfo {
	return pluginhost.PluginInfo{
		Name:        "log",
		DisplayName: "Log",
		Description: "records lines in memory",
		Version:     pluginhost.Version{Major: 1, Minor: 0, Patch: 0},
		Author:      "pluginhost samples",
		Dependencies: []pluginhost.Dependency{
			{Name: "math", MinVersion: pluginhost.Version{Major: 1}},
		},
	}
}

func (p *LogPlugin) Initialize(ctx *pluginhost.HostContext) error {
	ref, ok := ctx.GetPlugin("math")
	if !ok {
		return fmt.Errorf("logplugin: math plugin not available")
	}
	p.mu.Lock()
	p.math = ref
	p.mu.Unlock()
	return nil
}

func (p *LogPlugin) Shutdown() {}

// Write appends line as given; it does not consult the math plugin or
// tag the line with its total.
func (p *LogPlugin) Write(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines = append(p.lines, line)
}

func (p *LogPlugin) Serialize() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	joined := ""
	for i, l := range p.lines {
		if i > 0 {
			joined += "\n"
		}
		joined += l
	}
	return []byte(joined), nil
}

func (p *LogPlugin) Deserialize(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(data) == 0 {
		p.lines = nil
		return nil
	}
	p.lines = splitLines(string(data))
	return nil
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func (p *LogPlugin) PrepareHotReload() error  { return nil }
func (p *LogPlugin) CompleteHotReload() error { return nil }

// CreatePlugin is the host's required allocation symbol.
func CreatePlugin() pluginhost.Plugin {
	return &LogPlugin{}
}

var logInfo = pluginhost.PluginInfo{
	Name:        "log",
	DisplayName: "Log",
	Description: "records lines in memory",
	Version:     pluginhost.Version{Major: 1, Minor: 0, Patch: 0},
	Author:      "pluginhost samples",
	Dependencies: []pluginhost.Dependency{
		{Name: "math", MinVersion: pluginhost.Version{Major: 1}},
	},
}

// GetPluginInfo is the host's required metadata symbol.
func GetPluginInfo() *pluginhost.PluginInfo {
	return &logInfo
}

func main() {}
