package suite

import (
	"javelin/bytecode"
	"javelin/cases"
)

// Registry holds a suite's cases keyed by method, preserving the order
// the case files declared them in.
type Registry struct {
	all      []cases.Case
	byMethod map[string][]int
}

// NewRegistry builds a registry from cases in declaration order.
func NewRegistry(cs []cases.Case) *Registry {
	r := &Registry{byMethod: make(map[string][]int)}
	for _, c := range cs {
		r.Add(c)
	}
	return r
}

// Add appends one case.
func (r *Registry) Add(c cases.Case) {
	key := c.Method.Key()
	r.byMethod[key] = append(r.byMethod[key], len(r.all))
	r.all = append(r.all, c)
}

// Len returns the number of registered cases.
func (r *Registry) Len() int { return len(r.all) }

// All returns every case in declaration order. The slice is shared; do
// not mutate it.
func (r *Registry) All() []cases.Case { return r.all }

// ForMethod returns the cases registered for one method, in order.
func (r *Registry) ForMethod(id bytecode.MethodID) []cases.Case {
	idxs := r.byMethod[id.Key()]
	out := make([]cases.Case, len(idxs))
	for i, idx := range idxs {
		out[i] = r.all[idx]
	}
	return out
}

// Methods returns the method IDs with at least one case, in first-seen
// order.
func (r *Registry) Methods() []bytecode.MethodID {
	seen := make(map[string]bool, len(r.byMethod))
	var out []bytecode.MethodID
	for _, c := range r.all {
		if key := c.Method.Key(); !seen[key] {
			seen[key] = true
			out = append(out, c.Method)
		}
	}
	return out
}
