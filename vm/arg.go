package vm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	"javelin/bytecode"
)

// ArgKind tags an entry argument.
type ArgKind uint8

const (
	ArgInt ArgKind = iota
	ArgBool
	ArgChar
	ArgString
	ArgNull
	ArgIntArray
	ArgCharArray
)

func (k ArgKind) String() string {
	switch k {
	case ArgInt:
		return "int"
	case ArgBool:
		return "boolean"
	case ArgChar:
		return "char"
	case ArgString:
		return "string"
	case ArgNull:
		return "null"
	case ArgIntArray:
		return "int[]"
	case ArgCharArray:
		return "char[]"
	}
	return fmt.Sprintf("ArgKind(%d)", uint8(k))
}

// Arg is one input to an entry method, held outside the machine so a set
// of arguments can be bound into any number of runs. Strings and arrays
// materialize as fresh heap objects at bind time, so two runs never share
// state and two equal-content string arguments are distinct identities.
type Arg struct {
	Kind ArgKind
	Int  int32
	Str  string
	Ints []int32
}

// IntArg makes an integer argument.
func IntArg(v int32) Arg { return Arg{Kind: ArgInt, Int: v} }

// BoolArg makes a boolean argument.
func BoolArg(b bool) Arg {
	a := Arg{Kind: ArgBool}
	if b {
		a.Int = 1
	}
	return a
}

// CharArg makes a char argument from a UTF-16 code unit.
func CharArg(c uint16) Arg { return Arg{Kind: ArgChar, Int: int32(c)} }

// StringArg makes a string argument.
func StringArg(s string) Arg { return Arg{Kind: ArgString, Str: s} }

// NullArg makes a null reference argument.
func NullArg() Arg { return Arg{Kind: ArgNull} }

// IntArrayArg makes an int[] argument.
func IntArrayArg(vs ...int32) Arg { return Arg{Kind: ArgIntArray, Ints: vs} }

// CharArrayArg makes a char[] argument.
func CharArrayArg(s string) Arg {
	units := utf16.Encode([]rune(s))
	vs := make([]int32, len(units))
	for i, u := range units {
		vs[i] = int32(u)
	}
	return Arg{Kind: ArgCharArray, Ints: vs}
}

// String renders the argument in the textual input form the case files
// use. Strings and chars quote with Go escaping, which covers the
// backslash and quote escapes the format requires.
func (a Arg) String() string {
	switch a.Kind {
	case ArgInt:
		return strconv.FormatInt(int64(a.Int), 10)
	case ArgBool:
		if a.Int != 0 {
			return "true"
		}
		return "false"
	case ArgChar:
		return strconv.QuoteRune(rune(uint16(a.Int)))
	case ArgString:
		return strconv.Quote(a.Str)
	case ArgNull:
		return "null"
	case ArgIntArray:
		parts := make([]string, len(a.Ints))
		for i, v := range a.Ints {
			parts[i] = strconv.FormatInt(int64(v), 10)
		}
		return "[I:" + strings.Join(parts, ",") + "]"
	case ArgCharArray:
		parts := make([]string, len(a.Ints))
		for i, v := range a.Ints {
			parts[i] = strconv.QuoteRune(rune(uint16(v)))
		}
		return "[C:" + strings.Join(parts, ",") + "]"
	}
	return "?"
}

// matches reports whether the argument can bind a parameter of the given
// type. Null binds any reference parameter; primitives bind their exact
// storage type.
func (a Arg) matches(t bytecode.TypeDesc) bool {
	switch a.Kind {
	case ArgInt:
		return t.Kind == bytecode.TypeInt || t.Kind == bytecode.TypeByte || t.Kind == bytecode.TypeShort
	case ArgBool:
		return t.Kind == bytecode.TypeBoolean || t.Kind == bytecode.TypeInt
	case ArgChar:
		return t.Kind == bytecode.TypeChar || t.Kind == bytecode.TypeInt
	case ArgString:
		return t.Kind == bytecode.TypeObject
	case ArgNull:
		return t.IsReference()
	case ArgIntArray:
		return t.Kind == bytecode.TypeArray && t.Elem != nil && t.Elem.Kind == bytecode.TypeInt
	case ArgCharArray:
		return t.Kind == bytecode.TypeArray && t.Elem != nil && t.Elem.Kind == bytecode.TypeChar
	}
	return false
}

// bind materializes the argument as a Value on the given heap.
func (a Arg) bind(h *Heap) Value {
	switch a.Kind {
	case ArgInt, ArgBool, ArgChar:
		return IntValue(a.Int)
	case ArgString:
		return RefValue(h.AllocString(a.Str))
	case ArgNull:
		return NullValue()
	case ArgIntArray:
		ref := h.AllocArray(bytecode.TypeInt, int32(len(a.Ints)))
		arr := h.Get(ref)
		for i, v := range a.Ints {
			arr.Elems[i] = IntValue(v)
		}
		return RefValue(ref)
	case ArgCharArray:
		ref := h.AllocArray(bytecode.TypeChar, int32(len(a.Ints)))
		arr := h.Get(ref)
		for i, v := range a.Ints {
			arr.Elems[i] = IntValue(v)
		}
		return RefValue(ref)
	}
	return Value{}
}

// bindArgs checks the argument list against the method signature and
// materializes it on the heap.
func bindArgs(h *Heap, m *bytecode.Method, args []Arg) ([]Value, error) {
	if len(args) != len(m.Sig.Params) {
		return nil, &Fault{
			Code:   FaultBadArguments,
			Method: m.ID.String(),
			Msg:    fmt.Sprintf("want %d arguments, got %d", len(m.Sig.Params), len(args)),
		}
	}
	vals := make([]Value, len(args))
	for i, a := range args {
		if !a.matches(m.Sig.Params[i]) {
			return nil, &Fault{
				Code:   FaultBadArguments,
				Method: m.ID.String(),
				Msg:    fmt.Sprintf("argument %d: %s does not fit %s", i, a.Kind, m.Sig.Params[i].Name()),
			}
		}
		vals[i] = a.bind(h)
	}
	return vals, nil
}
