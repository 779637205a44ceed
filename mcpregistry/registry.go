package mcpregistry

import (
	"reflect"
	"sync"
)

// table holds one kind's (tool/resource/prompt) registrations for a single
// owner type, preserving registration order for list reads.
type table struct {
	order []string
	byName map[string]*Meta
}

func newTable() *table {
	return &table{byName: make(map[string]*Meta)}
}

// put overwrites an existing entry in place (last-writer-wins, order kept)
// or appends a new one.
func (t *table) put(meta *Meta) {
	if _, ok := t.byName[meta.Name]; !ok {
		t.order = append(t.order, meta.Name)
	}
	t.byName[meta.Name] = meta
}

func (t *table) list() []*Meta {
	ret := make([]*Meta, 0, len(t.order))
	for _, name := range t.order {
		ret = append(ret, t.byName[name])
	}
	return ret
}

// Registry is a process-wide, type-keyed table of tool/resource/prompt
// metadata. Lookup is keyed on the implementation type of the server
// object that owns the registration, matching the "stable per-type
// identifier" the runtime's registration hooks produce.
type Registry struct {
	mux       sync.Mutex
	tools     map[reflect.Type]*table
	resources map[reflect.Type]*table
	prompts   map[reflect.Type]*table
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		tools:     make(map[reflect.Type]*table),
		resources: make(map[reflect.Type]*table),
		prompts:   make(map[reflect.Type]*table),
	}
}

// Default is the process-wide registry used by callers that do not need an
// isolated instance (e.g. a single binary exposing one server type).
var Default = New()

func (r *Registry) tableFor(m map[reflect.Type]*table, owner reflect.Type) *table {
	t, ok := m[owner]
	if !ok {
		t = newTable()
		m[owner] = t
	}
	return t
}

// RegisterTool registers meta under owner's type. Name collision within the
// same owner type is last-writer-wins; registration order is preserved.
func (r *Registry) RegisterTool(owner interface{}, meta *Meta) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.tableFor(r.tools, reflect.TypeOf(owner)).put(meta)
}

func (r *Registry) RegisterResource(owner interface{}, meta *Meta) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.tableFor(r.resources, reflect.TypeOf(owner)).put(meta)
}

func (r *Registry) RegisterPrompt(owner interface{}, meta *Meta) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.tableFor(r.prompts, reflect.TypeOf(owner)).put(meta)
}

// ListTools returns owner's registered tools in registration order.
func (r *Registry) ListTools(owner interface{}) []*Meta {
	r.mux.Lock()
	defer r.mux.Unlock()
	t, ok := r.tools[reflect.TypeOf(owner)]
	if !ok {
		return nil
	}
	return t.list()
}

func (r *Registry) ListResources(owner interface{}) []*Meta {
	r.mux.Lock()
	defer r.mux.Unlock()
	t, ok := r.resources[reflect.TypeOf(owner)]
	if !ok {
		return nil
	}
	return t.list()
}

func (r *Registry) ListPrompts(owner interface{}) []*Meta {
	r.mux.Lock()
	defer r.mux.Unlock()
	t, ok := r.prompts[reflect.TypeOf(owner)]
	if !ok {
		return nil
	}
	return t.list()
}

// Tool returns the named tool registered for owner, if any.
func (r *Registry) Tool(owner interface{}, name string) (*Meta, bool) {
	r.mux.Lock()
	defer r.mux.Unlock()
	t, ok := r.tools[reflect.TypeOf(owner)]
	if !ok {
		return nil, false
	}
	m, ok := t.byName[name]
	return m, ok
}

func (r *Registry) Resource(owner interface{}, name string) (*Meta, bool) {
	r.mux.Lock()
	defer r.mux.Unlock()
	t, ok := r.resources[reflect.TypeOf(owner)]
	if !ok {
		return nil, false
	}
	m, ok := t.byName[name]
	return m, ok
}

func (r *Registry) Prompt(owner interface{}, name string) (*Meta, bool) {
	r.mux.Lock()
	defer r.mux.Unlock()
	t, ok := r.prompts[reflect.TypeOf(owner)]
	if !ok {
		return nil, false
	}
	m, ok := t.byName[name]
	return m, ok
}
