package pluginhost

import "github.com/google/uuid"

// Lifecycle event names published to callbacks, per spec.md §6.
// EventShutdown is defined but not dispatched by this package.
const (
	EventLoaded      = "loaded"
	EventUnloaded    = "unloaded"
	EventReloaded    = "reloaded"
	EventInitialized = "initialized"
	EventShutdown    = "shutdown"
)

// LifecycleEvent describes one load/unload/reload transition. ID is a
// fresh UUID per event (grounded in the teacher's pervasive use of
// google/uuid for correlating log lines); ReloadID is set only on the
// "reloaded" event a HotReload call emits, and is the same ID that tags
// that reload's log lines, mirroring the rationale in the teacher's
// structured-logging design (api/internal/plugins/logger.go's "Log
// Aggregation Benefits"). Every other event, including the "initialized"
// events of the re-initialization pass inside a reload, has an empty
// ReloadID.
type LifecycleEvent struct {
	ID       string
	Type     string
	Plugin   string
	ReloadID string
}

// LifecycleCallback is invoked after each loaded/unloaded/reloaded
// transition, with the registry lock not held. A callback that panics is
// recovered and logged; other callbacks still run.
type LifecycleCallback func(LifecycleEvent)

func newLifecycleEvent(eventType, pluginName, reloadID string) LifecycleEvent {
	return LifecycleEvent{
		ID:       uuid.NewString(),
		Type:     eventType,
		Plugin:   pluginName,
		ReloadID: reloadID,
	}
}
