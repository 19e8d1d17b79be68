package bytecode

import (
	"fmt"
	"strings"
)

// TypeKind enumerates the value types the covered subset can mention in
// descriptors. Long, float and double do not occur in the corpus and are
// rejected at parse time.
type TypeKind uint8

const (
	TypeVoid TypeKind = iota
	TypeInt
	TypeBoolean
	TypeChar
	TypeByte
	TypeShort
	TypeObject
	TypeArray
)

func (t TypeKind) String() string {
	switch t {
	case TypeVoid:
		return "void"
	case TypeInt:
		return "int"
	case TypeBoolean:
		return "boolean"
	case TypeChar:
		return "char"
	case TypeByte:
		return "byte"
	case TypeShort:
		return "short"
	case TypeObject:
		return "object"
	case TypeArray:
		return "array"
	}
	return fmt.Sprintf("TypeKind(%d)", uint8(t))
}

// TypeDesc is a parsed type descriptor.
type TypeDesc struct {
	Kind  TypeKind
	Class string    // TypeObject: slash-form class name
	Elem  *TypeDesc // TypeArray: element type
}

// IsReference reports whether values of this type travel as references.
func (t TypeDesc) IsReference() bool {
	return t.Kind == TypeObject || t.Kind == TypeArray
}

// String renders the JVM descriptor form, e.g. "[I" or "Ljava/lang/String;".
func (t TypeDesc) String() string {
	switch t.Kind {
	case TypeVoid:
		return "V"
	case TypeInt:
		return "I"
	case TypeBoolean:
		return "Z"
	case TypeChar:
		return "C"
	case TypeByte:
		return "B"
	case TypeShort:
		return "S"
	case TypeObject:
		return "L" + t.Class + ";"
	case TypeArray:
		return "[" + t.Elem.String()
	}
	return "?"
}

// Name renders the human-readable type name used by the JSON codec, e.g.
// "int", "ref", "char[]".
func (t TypeDesc) Name() string {
	switch t.Kind {
	case TypeVoid:
		return "void"
	case TypeInt:
		return "int"
	case TypeBoolean:
		return "boolean"
	case TypeChar:
		return "char"
	case TypeByte:
		return "byte"
	case TypeShort:
		return "short"
	case TypeObject:
		return t.Class
	case TypeArray:
		return t.Elem.Name() + "[]"
	}
	return "?"
}

// Signature is a parsed method descriptor.
type Signature struct {
	Params []TypeDesc
	Ret    TypeDesc
}

// ArgSlots returns the number of local slots the parameters occupy. Every
// type in scope is single-slot, so this equals the parameter count.
func (s Signature) ArgSlots() int {
	return len(s.Params)
}

// String renders the descriptor form, e.g. "(Ljava/lang/String;I)V".
func (s Signature) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for _, p := range s.Params {
		b.WriteString(p.String())
	}
	b.WriteByte(')')
	b.WriteString(s.Ret.String())
	return b.String()
}

// ParseSignature parses a JVM method descriptor.
func ParseSignature(desc string) (Signature, error) {
	if len(desc) == 0 || desc[0] != '(' {
		return Signature{}, fmt.Errorf("descriptor %q: missing parameter list", desc)
	}
	rest := desc[1:]
	var sig Signature
	for len(rest) > 0 && rest[0] != ')' {
		t, tail, err := parseType(rest)
		if err != nil {
			return Signature{}, fmt.Errorf("descriptor %q: %w", desc, err)
		}
		sig.Params = append(sig.Params, t)
		rest = tail
	}
	if len(rest) == 0 {
		return Signature{}, fmt.Errorf("descriptor %q: unterminated parameter list", desc)
	}
	rest = rest[1:] // ')'
	ret, tail, err := parseReturnType(rest)
	if err != nil {
		return Signature{}, fmt.Errorf("descriptor %q: %w", desc, err)
	}
	if tail != "" {
		return Signature{}, fmt.Errorf("descriptor %q: trailing %q", desc, tail)
	}
	sig.Ret = ret
	return sig, nil
}

func parseReturnType(s string) (TypeDesc, string, error) {
	if len(s) > 0 && s[0] == 'V' {
		return TypeDesc{Kind: TypeVoid}, s[1:], nil
	}
	return parseType(s)
}

func parseType(s string) (TypeDesc, string, error) {
	if len(s) == 0 {
		return TypeDesc{}, "", fmt.Errorf("unexpected end of descriptor")
	}
	switch s[0] {
	case 'I':
		return TypeDesc{Kind: TypeInt}, s[1:], nil
	case 'Z':
		return TypeDesc{Kind: TypeBoolean}, s[1:], nil
	case 'C':
		return TypeDesc{Kind: TypeChar}, s[1:], nil
	case 'B':
		return TypeDesc{Kind: TypeByte}, s[1:], nil
	case 'S':
		return TypeDesc{Kind: TypeShort}, s[1:], nil
	case 'L':
		end := strings.IndexByte(s, ';')
		if end < 0 {
			return TypeDesc{}, "", fmt.Errorf("unterminated class type %q", s)
		}
		if end == 1 {
			return TypeDesc{}, "", fmt.Errorf("empty class name in %q", s)
		}
		return TypeDesc{Kind: TypeObject, Class: s[1:end]}, s[end+1:], nil
	case '[':
		elem, tail, err := parseType(s[1:])
		if err != nil {
			return TypeDesc{}, "", err
		}
		return TypeDesc{Kind: TypeArray, Elem: &elem}, tail, nil
	default:
		return TypeDesc{}, "", fmt.Errorf("unsupported type descriptor %q", s[:1])
	}
}

// TypeByName maps a JSON type name ("int", "char", "ref", ...) onto the
// storage family load/store/return instructions distinguish: everything
// integral travels as TypeInt, references as TypeObject.
func TypeByName(name string) (TypeKind, bool) {
	switch name {
	case "int", "integer", "boolean", "byte", "short", "char":
		return TypeInt, true
	case "ref", "reference":
		return TypeObject, true
	case "", "void":
		return TypeVoid, true
	}
	return 0, false
}

// ElemTypeByName maps a JSON type name onto an array element kind, which
// keeps the integral kinds distinct because stores narrow per element width.
func ElemTypeByName(name string) (TypeKind, bool) {
	switch name {
	case "int", "integer":
		return TypeInt, true
	case "char":
		return TypeChar, true
	case "boolean":
		return TypeBoolean, true
	case "byte":
		return TypeByte, true
	case "short":
		return TypeShort, true
	}
	return 0, false
}
