package receiver

import (
	"sort"
	"sync"
)

// Listener handles a dispatched event. Returning true stops the dispatch.
type Listener func(payload map[string]any) bool

// Registry groups receiver records by group, ordered by ascending priority.
// It implements Loader so generated loaders can publish into it directly.
type Registry struct {
	mu        sync.RWMutex
	groups    map[string][]Data
	listeners map[string]Listener
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		groups:    make(map[string][]Data),
		listeners: make(map[string]Listener),
	}
}

// Load adds records to their groups, keeping each group priority ordered.
// Records of equal priority keep their load order.
func (r *Registry) Load(data []Data) {
	r.mu.Lock()
	defer r.mu.Unlock()

	touched := make(map[string]struct{})
	for _, d := range data {
		r.groups[d.Group] = append(r.groups[d.Group], d)
		touched[d.Group] = struct{}{}
	}
	for group := range touched {
		list := r.groups[group]
		sort.SliceStable(list, func(i, j int) bool { return list[i].Priority < list[j].Priority })
	}
}

// Bind attaches the listener implementing the receiver class className.
func (r *Registry) Bind(className string, l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners[className] = l
}

// Groups returns the registered group names, sorted.
func (r *Registry) Groups() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.groups))
	for g := range r.groups {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// Receivers returns the records of group in dispatch order. AllFlag selects
// every record; any other flag selects records with exactly that flag.
func (r *Registry) Receivers(group string, flag int) []Data {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Data
	for _, d := range r.groups[group] {
		if flag == AllFlag || d.Flag == flag {
			out = append(out, d)
		}
	}
	return out
}

// Dispatch delivers payload to the bound listeners of the selected receivers
// in priority order, stopping after the first listener that returns true.
// Receivers without a bound listener are skipped. It returns how many
// listeners were called.
func (r *Registry) Dispatch(group string, flag int, payload map[string]any) int {
	receivers := r.Receivers(group, flag)

	r.mu.RLock()
	listeners := make([]Listener, 0, len(receivers))
	for _, d := range receivers {
		if l, ok := r.listeners[d.ClassQualifiedName]; ok && l != nil {
			listeners = append(listeners, l)
		}
	}
	r.mu.RUnlock()

	if payload == nil {
		payload = map[string]any{}
	}

	called := 0
	for _, l := range listeners {
		called++
		if l(payload) {
			break
		}
	}
	return called
}
