package vm

import (
	"javelin/bytecode"
)

// Statics binds static fields for a run. Keys are bytecode.FieldRef keys.
type Statics map[string]Value

// DefaultStatics binds the fields the compiled programs expect: every
// class in the program gets $assertionsDisabled = 0, so assertions stay
// enabled and assert failures surface as thrown AssertionErrors.
func DefaultStatics(prog *bytecode.Program) Statics {
	s := Statics{}
	for _, class := range prog.Classes() {
		ref := bytecode.FieldRef{
			Class: class,
			Name:  "$assertionsDisabled",
			Type:  bytecode.TypeDesc{Kind: bytecode.TypeBoolean},
		}
		s[ref.Key()] = IntValue(0)
	}
	return s
}

// Bind sets one static field.
func (s Statics) Bind(ref bytecode.FieldRef, v Value) {
	s[ref.Key()] = v
}

// Lookup reads one static field.
func (s Statics) Lookup(ref bytecode.FieldRef) (Value, bool) {
	v, ok := s[ref.Key()]
	return v, ok
}
