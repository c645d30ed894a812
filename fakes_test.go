package pluginhost

// Test doubles for Loader/Library, so Registry/Controller/Host logic can
// be exercised without a real .so file — the host never builds one in
// this test suite. Grounded in the teacher's dependency-injected test
// style (api/internal/middleware/orgcontext_test.go constructs its
// collaborators directly rather than mocking a framework).

type fakeLibrarySpec struct {
	info        PluginInfo
	newInstance func() Plugin
	missingInfo bool
	missingCrt  bool
}

type fakeLoader struct {
	specs map[string]*fakeLibrarySpec
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{specs: make(map[string]*fakeLibrarySpec)}
}

func (l *fakeLoader) register(path string, spec *fakeLibrarySpec) {
	l.specs[path] = spec
}

func (l *fakeLoader) Open(path string) (Library, error) {
	spec, ok := l.specs[path]
	if !ok {
		return nil, newErr(ErrKindPathNotFound, path)
	}
	return &fakeLibrary{spec: spec}, nil
}

type fakeLibrary struct {
	spec   *fakeLibrarySpec
	closed bool
}

func (l *fakeLibrary) Lookup(symbolName string) (interface{}, error) {
	switch symbolName {
	case symbolGetPluginInfo:
		if l.spec.missingInfo {
			return nil, newErr(ErrKindSymbolMissing, symbolName)
		}
		info := l.spec.info
		fn := func() *PluginInfo { return &info }
		return fn, nil
	case symbolCreatePlugin:
		if l.spec.missingCrt {
			return nil, newErr(ErrKindSymbolMissing, symbolName)
		}
		return l.spec.newInstance, nil
	default:
		return nil, newErr(ErrKindSymbolMissing, symbolName)
	}
}

func (l *fakeLibrary) Close() error {
	l.closed = true
	return nil
}

// fakePlugin is a minimal, behavior-configurable Plugin used across the
// test suite. trace, when non-nil, receives one entry per lifecycle
// call so tests can assert ordering.
type fakePlugin struct {
	info  PluginInfo
	trace *[]string
	state string

	initErr        error
	prepareErr     error
	serializeErr   error
	deserializeErr error
	completeErr    error
}

func (p *fakePlugin) record(event string) {
	if p.trace != nil {
		*p.trace = append(*p.trace, event)
	}
}

func (p *fakePlugin) Info() PluginInfo { return p.info }

func (p *fakePlugin) Initialize(ctx *HostContext) error {
	p.record("initialize(" + p.info.Name + ")")
	return p.initErr
}

func (p *fakePlugin) Shutdown() {
	p.record("shutdown(" + p.info.Name + ")")
}

func (p *fakePlugin) Serialize() ([]byte, error) {
	p.record("serialize(" + p.info.Name + ")")
	if p.serializeErr != nil {
		return nil, p.serializeErr
	}
	return []byte(p.state), nil
}

func (p *fakePlugin) Deserialize(data []byte) error {
	p.record("deserialize(" + p.info.Name + "," + string(data) + ")")
	if p.deserializeErr != nil {
		return p.deserializeErr
	}
	p.state = string(data)
	return nil
}

func (p *fakePlugin) PrepareHotReload() error {
	p.record("prepare(" + p.info.Name + ")")
	return p.prepareErr
}

func (p *fakePlugin) CompleteHotReload() error {
	p.record("complete(" + p.info.Name + ")")
	return p.completeErr
}

// registerFakePlugin wires a named plugin into loader at a synthetic
// path ("<name>.so"-shaped via PlatformExtension so LoadAll's extension
// filter matches it) and returns the path used.
func registerFakePlugin(loader *fakeLoader, info PluginInfo, trace *[]string, initialState string) string {
	path := "/plugins/" + info.Name + PlatformExtension()
	loader.register(path, &fakeLibrarySpec{
		info: info,
		newInstance: func() Plugin {
			return &fakePlugin{info: info, trace: trace, state: initialState}
		},
	})
	return path
}

func indexOf(events []string, needle string) int {
	for i, e := range events {
		if e == needle {
			return i
		}
	}
	return -1
}
