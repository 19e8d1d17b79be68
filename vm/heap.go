package vm

import (
	"javelin/bytecode"
)

// Heap is a per-run arena. Objects are appended and never freed; a Handle
// is the 1-based index into the arena, so handle identity doubles as
// reference identity and runs stay deterministic.
type Heap struct {
	objects []*Object
	interns map[string]Handle
}

// NewHeap makes an empty heap.
func NewHeap() *Heap {
	return &Heap{interns: map[string]Handle{}}
}

// Reset drops every object and the intern table. The heap is ready for the
// next run without reallocating the arena backbone.
func (h *Heap) Reset() {
	h.objects = h.objects[:0]
	clear(h.interns)
}

// Alloc places an object on the heap and returns its handle.
func (h *Heap) Alloc(o *Object) Handle {
	h.objects = append(h.objects, o)
	return Handle(len(h.objects))
}

// Get resolves a handle. Null and out-of-range handles resolve to nil.
func (h *Heap) Get(ref Handle) *Object {
	if ref == 0 || int(ref) > len(h.objects) {
		return nil
	}
	return h.objects[ref-1]
}

// Size is the number of live objects.
func (h *Heap) Size() int { return len(h.objects) }

// Intern returns the canonical string object for a literal, allocating it
// on first use. Every push of the same literal within one run yields the
// same handle, so identity comparison of literals holds.
func (h *Heap) Intern(s string) Handle {
	if ref, ok := h.interns[s]; ok {
		return ref
	}
	ref := h.Alloc(NewStringObject(s, true))
	h.interns[s] = ref
	return ref
}

// AllocString places a fresh, non-interned string object. Two calls with
// equal content yield distinct identities.
func (h *Heap) AllocString(s string) Handle {
	return h.Alloc(NewStringObject(s, false))
}

// AllocArray places a zero-filled array.
func (h *Heap) AllocArray(elem bytecode.TypeKind, n int32) Handle {
	return h.Alloc(NewArrayObject(elem, n))
}

// AllocInstance places an empty instance of the named class.
func (h *Heap) AllocInstance(class string) Handle {
	return h.Alloc(NewInstanceObject(class))
}
