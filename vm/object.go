package vm

import (
	"unicode/utf16"

	"javelin/bytecode"
)

// ObjectKind tags a heap object.
type ObjectKind uint8

const (
	// ObjString is a java/lang/String: a sequence of UTF-16 code units.
	ObjString ObjectKind = iota
	// ObjArray is a primitive array with a fixed element type and length.
	ObjArray
	// ObjInstance is an instance of any other class, a bag of named fields.
	ObjInstance
)

func (k ObjectKind) String() string {
	switch k {
	case ObjString:
		return "string"
	case ObjArray:
		return "array"
	case ObjInstance:
		return "instance"
	}
	return "object"
}

// Object is a heap cell. Exactly one of the three field groups is live,
// selected by Kind.
type Object struct {
	Kind ObjectKind

	// ObjString
	Units    []uint16
	Interned bool

	// ObjArray
	Elem  bytecode.TypeKind
	Elems []Value

	// ObjInstance
	Class  string
	Fields map[string]Value
}

// NewStringObject builds a string object from a Go string. Interned marks
// objects that came out of the literal pool; everything else is a fresh
// identity.
func NewStringObject(s string, interned bool) *Object {
	return &Object{Kind: ObjString, Units: utf16.Encode([]rune(s)), Interned: interned}
}

// NewArrayObject builds a zero-filled array of n elements. Integer element
// kinds zero to Int32(0), reference kinds to null.
func NewArrayObject(elem bytecode.TypeKind, n int32) *Object {
	elems := make([]Value, n)
	zero := IntValue(0)
	if elem == bytecode.TypeObject || elem == bytecode.TypeArray {
		zero = NullValue()
	}
	for i := range elems {
		elems[i] = zero
	}
	return &Object{Kind: ObjArray, Elem: elem, Elems: elems}
}

// NewInstanceObject builds an instance with no fields set.
func NewInstanceObject(class string) *Object {
	return &Object{Kind: ObjInstance, Class: class, Fields: map[string]Value{}}
}

// Text decodes the string object's UTF-16 units back to a Go string.
// Only meaningful for ObjString.
func (o *Object) Text() string {
	return string(utf16.Decode(o.Units))
}

// Len is the string length in UTF-16 units or the array length.
func (o *Object) Len() int32 {
	switch o.Kind {
	case ObjString:
		return int32(len(o.Units))
	case ObjArray:
		return int32(len(o.Elems))
	}
	return 0
}

// SetField writes an instance field, creating it if absent.
func (o *Object) SetField(name string, v Value) {
	if o.Fields == nil {
		o.Fields = map[string]Value{}
	}
	o.Fields[name] = v
}

// Field reads an instance field. Unset fields read as Int32(0); instances
// in this subset only ever hold defaulted primitive state.
func (o *Object) Field(name string) Value {
	if v, ok := o.Fields[name]; ok {
		return v
	}
	return IntValue(0)
}
