package pluginhost

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes host failures, matching spec.md §7's error kinds.
// Grounded in the teacher's ErrorCode enum pattern (go-lynx/lynx/plugins/errors.go),
// adapted to the exact kind set spec.md calls for.
type ErrorKind string

const (
	ErrKindPathNotFound       ErrorKind = "PATH_NOT_FOUND"
	ErrKindLoadFailed         ErrorKind = "LOAD_FAILED"
	ErrKindSymbolMissing      ErrorKind = "SYMBOL_MISSING"
	ErrKindDuplicateName      ErrorKind = "DUPLICATE_NAME"
	ErrKindNullInstance       ErrorKind = "NULL_INSTANCE"
	ErrKindNotRegistered      ErrorKind = "NOT_REGISTERED"
	ErrKindBlockedByDependent ErrorKind = "BLOCKED_BY_DEPENDENT"
	ErrKindCycle              ErrorKind = "CYCLE"
	ErrKindInitializeFailed   ErrorKind = "INITIALIZE_FAILED"
	ErrKindHotReloadAborted   ErrorKind = "HOT_RELOAD_ABORTED"
	ErrKindHotReloadPartial   ErrorKind = "HOT_RELOAD_PARTIAL"
)

// HostError is the single error type returned by the Host, Registry,
// Controller and Resolver operations (ParseVersion, which returns a plain
// error, is the exception). Name identifies the plugin the error concerns (empty when
// not applicable); Dependent and Failed carry the extra payload some
// kinds need (BlockedByDependent, HotReloadPartial); Cause wraps an
// underlying error (e.g. the OS's reason for LoadFailed).
type HostError struct {
	Kind      ErrorKind
	Name      string
	Dependent string
	Failed    []string
	Cause     error
}

func (e *HostError) Error() string {
	switch e.Kind {
	case ErrKindPathNotFound:
		return fmt.Sprintf("pluginhost: path not found: %s", e.Name)
	case ErrKindLoadFailed:
		if e.Cause != nil {
			return fmt.Sprintf("pluginhost: failed to load %s: %v", e.Name, e.Cause)
		}
		return fmt.Sprintf("pluginhost: failed to load %s", e.Name)
	case ErrKindSymbolMissing:
		return fmt.Sprintf("pluginhost: symbol missing: %s", e.Name)
	case ErrKindDuplicateName:
		return fmt.Sprintf("pluginhost: duplicate plugin name: %s", e.Name)
	case ErrKindNullInstance:
		return fmt.Sprintf("pluginhost: CreatePlugin returned nil for %s", e.Name)
	case ErrKindNotRegistered:
		return fmt.Sprintf("pluginhost: plugin not registered: %s", e.Name)
	case ErrKindBlockedByDependent:
		return fmt.Sprintf("pluginhost: cannot unload %s: required by %s", e.Name, e.Dependent)
	case ErrKindCycle:
		return fmt.Sprintf("pluginhost: dependency cycle detected at %s", e.Name)
	case ErrKindInitializeFailed:
		return fmt.Sprintf("pluginhost: initialize failed for %s", e.Name)
	case ErrKindHotReloadAborted:
		return fmt.Sprintf("pluginhost: hot reload aborted for %s", e.Name)
	case ErrKindHotReloadPartial:
		return fmt.Sprintf("pluginhost: hot reload of %s restored with failed dependents: %v", e.Name, e.Failed)
	default:
		return fmt.Sprintf("pluginhost: error (%s): %s", e.Kind, e.Name)
	}
}

func (e *HostError) Unwrap() error { return e.Cause }

// Is supports errors.Is comparisons against a *HostError target: a target
// with only Kind set matches by kind alone; otherwise Kind and Name must
// both match.
func (e *HostError) Is(target error) bool {
	other, ok := target.(*HostError)
	if !ok {
		return false
	}
	if other.Name == "" && other.Dependent == "" && len(other.Failed) == 0 {
		return e.Kind == other.Kind
	}
	return e.Kind == other.Kind && e.Name == other.Name
}

func newErr(kind ErrorKind, name string) *HostError {
	return &HostError{Kind: kind, Name: name}
}

func newErrCause(kind ErrorKind, name string, cause error) *HostError {
	return &HostError{Kind: kind, Name: name, Cause: cause}
}

// KindOf extracts the ErrorKind from err if it (or something it wraps) is
// a *HostError, for callers that want to branch on failure category.
func KindOf(err error) (ErrorKind, bool) {
	var he *HostError
	if !errors.As(err, &he) {
		return "", false
	}
	return he.Kind, true
}
