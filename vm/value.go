package vm

import (
	"fmt"
)

// Handle identifies a heap object within one run. Handle 0 is the null
// reference; valid handles start at 1 and are never reused during a run.
type Handle uint32

// ValueKind tags a Value.
type ValueKind uint8

const (
	// KindInvalid is the zero Value. It marks local slots that were never
	// written; loading one is an internal fault, not an outcome.
	KindInvalid ValueKind = iota
	KindInt
	KindRef
)

func (k ValueKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindRef:
		return "ref"
	case KindInvalid:
		return "invalid"
	}
	return fmt.Sprintf("ValueKind(%d)", uint8(k))
}

// Value is the tagged union the operand stack and locals hold: a 32-bit
// two's-complement integer or a heap reference. Booleans travel as 0/1,
// chars as their UTF-16 code unit.
type Value struct {
	Kind ValueKind
	Int  int32
	Ref  Handle
}

// IntValue makes an integer value.
func IntValue(v int32) Value { return Value{Kind: KindInt, Int: v} }

// BoolValue makes an integer value from a boolean.
func BoolValue(b bool) Value {
	if b {
		return IntValue(1)
	}
	return IntValue(0)
}

// RefValue makes a reference value.
func RefValue(h Handle) Value { return Value{Kind: KindRef, Ref: h} }

// NullValue makes the null reference.
func NullValue() Value { return Value{Kind: KindRef} }

// IsInt reports whether the value is an integer.
func (v Value) IsInt() bool { return v.Kind == KindInt }

// IsRef reports whether the value is a reference, null included.
func (v Value) IsRef() bool { return v.Kind == KindRef }

// IsNull reports whether the value is the null reference.
func (v Value) IsNull() bool { return v.Kind == KindRef && v.Ref == 0 }

// Identical implements reference identity: two references are identical
// when they hold the same handle (null equals null). Values of different
// kinds are never identical.
func (v Value) Identical(o Value) bool {
	return v.Kind == o.Kind && v.Int == o.Int && v.Ref == o.Ref
}

func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return fmt.Sprintf("int %d", v.Int)
	case KindRef:
		if v.Ref == 0 {
			return "null"
		}
		return fmt.Sprintf("ref @%d", v.Ref)
	}
	return "invalid"
}
