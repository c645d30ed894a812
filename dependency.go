package pluginhost

import "sync"

// Resolver stores (plugin -> required/optional) name edges and produces
// a total load order compatible with the required edges, or reports a
// cycle. It is the Dependency Resolver of spec.md §4.2.
//
// Shape grounded in go-lynx/lynx/plugins/version_manager.go and
// conflict_resolver.go for "a manager that stores edges and produces an
// order"; the DFS three-color algorithm itself is taken directly from
// spec.md §4.2 since that section specifies it precisely enough to
// implement without a reference example.
type Resolver struct {
	mu       sync.Mutex
	required map[string][]string
	optional map[string][]string
	nodeSeen map[string]bool
	nodeOrder []string
}

// NewResolver returns an empty Resolver.
func NewResolver() *Resolver {
	return &Resolver{
		required: make(map[string][]string),
		optional: make(map[string][]string),
		nodeSeen: make(map[string]bool),
	}
}

// AddDependency records an edge from plugin to dependency. It is
// idempotent on identical (plugin, dependency, optional) triples; the
// order in which distinct dependencies are first added for a given
// plugin is preserved.
func (r *Resolver) AddDependency(plugin, dependency string, optional bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.noteNode(plugin)
	r.noteNode(dependency)

	list := r.required
	if optional {
		list = r.optional
	}
	for _, existing := range list[plugin] {
		if existing == dependency {
			return
		}
	}
	list[plugin] = append(list[plugin], dependency)
}

func (r *Resolver) noteNode(name string) {
	if r.nodeSeen[name] {
		return
	}
	r.nodeSeen[name] = true
	r.nodeOrder = append(r.nodeOrder, name)
}

// DependenciesOf returns a copy of plugin's required dependencies, in
// insertion order. It returns nil when plugin has no recorded required
// dependencies.
func (r *Resolver) DependenciesOf(plugin string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.required[plugin]...)
}

// OptionalDependenciesOf returns a copy of plugin's optional
// dependencies, in insertion order.
func (r *Resolver) OptionalDependenciesOf(plugin string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.optional[plugin]...)
}

// Clear removes all recorded edges and nodes.
func (r *Resolver) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.required = make(map[string][]string)
	r.optional = make(map[string][]string)
	r.nodeSeen = make(map[string]bool)
	r.nodeOrder = nil
}

// color marks used by the three-color DFS.
const (
	colorUnseen = iota
	colorOnStack
	colorFinished
)

// ResolveLoadOrder computes a total order over available such that every
// required edge's dependency precedes its dependent, using DFS with
// three-color marking as specified by spec.md §4.2. Nodes are visited as
// roots in available's own order; when a node has more than one
// candidate neighbor, the neighbors are visited in the relative order
// they appear in available (required neighbors before optional ones) —
// this is what makes the load order change when the very same graph is
// queried with available supplied in a different order, and is the
// mechanism that produces spec.md §8 scenario 2's two distinct diamond
// orderings from one fixed set of edges.
//
// An optional edge whose target is not in available is silently dropped.
// A required edge whose target is not in available is also dropped at
// ordering time; the missing target only surfaces later, as an
// initialization failure when the dependent actually runs.
func (r *Resolver) ResolveLoadOrder(available []string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	availIndex := make(map[string]int, len(available))
	for i, name := range available {
		if _, ok := availIndex[name]; !ok {
			availIndex[name] = i
		}
	}

	color := make(map[string]int, len(available))
	output := make([]string, 0, len(available))

	var dfs func(name string) error
	dfs = func(name string) error {
		color[name] = colorOnStack

		for _, dep := range r.neighborsInAvailableOrder(name, r.required, available, availIndex) {
			if color[dep] == colorOnStack {
				return newErr(ErrKindCycle, dep)
			}
			if color[dep] == colorUnseen {
				if err := dfs(dep); err != nil {
					return err
				}
			}
		}
		for _, dep := range r.neighborsInAvailableOrder(name, r.optional, available, availIndex) {
			if color[dep] == colorOnStack {
				return newErr(ErrKindCycle, dep)
			}
			if color[dep] == colorUnseen {
				if err := dfs(dep); err != nil {
					return err
				}
			}
		}

		color[name] = colorFinished
		output = append(output, name)
		return nil
	}

	for _, name := range available {
		if color[name] != colorUnseen {
			continue
		}
		if err := dfs(name); err != nil {
			return nil, err
		}
	}

	return output, nil
}

// neighborsInAvailableOrder returns name's dependency list (from edges,
// either required or optional), filtered to targets present in available
// and ordered by their position in available.
func (r *Resolver) neighborsInAvailableOrder(name string, edges map[string][]string, available []string, availIndex map[string]int) []string {
	want := make(map[string]bool, len(edges[name]))
	for _, dep := range edges[name] {
		want[dep] = true
	}
	if len(want) == 0 {
		return nil
	}
	out := make([]string, 0, len(want))
	for _, candidate := range available {
		if want[candidate] {
			out = append(out, candidate)
		}
	}
	_ = availIndex // positions are implicit in the available iteration above
	return out
}

// HasCycles reports whether the dependency graph contains a cycle,
// considering every known node including ones that appear only as
// dependency targets.
func (r *Resolver) HasCycles() bool {
	r.mu.Lock()
	all := append([]string(nil), r.nodeOrder...)
	r.mu.Unlock()

	_, err := r.ResolveLoadOrder(all)
	if err == nil {
		return false
	}
	_, isCycle := KindOf(err)
	return isCycle && err.(*HostError).Kind == ErrKindCycle
}
