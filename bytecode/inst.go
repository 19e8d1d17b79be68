package bytecode

import (
	"fmt"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Operand payloads
// ---------------------------------------------------------------------------

// LitKind tags a pushed literal.
type LitKind uint8

const (
	LitInt    LitKind = iota // Int32 immediate (covers boolean and char consts)
	LitString                // interned string literal
	LitNull                  // the null reference
)

// Literal is the operand of OpPush.
type Literal struct {
	Kind LitKind
	Int  int32
	Str  string
}

// IntLit builds an integer literal.
func IntLit(v int32) Literal { return Literal{Kind: LitInt, Int: v} }

// StringLit builds a string literal.
func StringLit(s string) Literal { return Literal{Kind: LitString, Str: s} }

// NullLit builds the null literal.
func NullLit() Literal { return Literal{Kind: LitNull} }

func (l Literal) String() string {
	switch l.Kind {
	case LitInt:
		return strconv.FormatInt(int64(l.Int), 10)
	case LitString:
		return strconv.Quote(l.Str)
	case LitNull:
		return "null"
	}
	return "?"
}

// FieldRef names a static field.
type FieldRef struct {
	Class string // slash form
	Name  string
	Type  TypeDesc
}

// Key returns the statics-table key for the field.
func (f FieldRef) Key() string {
	return f.Class + "." + f.Name + ":" + f.Type.String()
}

func (f FieldRef) String() string { return f.Key() }

// MethodRef names an invocation target. The signature is parsed from the
// descriptor at load time so the interpreter never re-parses per call.
type MethodRef struct {
	Class string // slash form
	Name  string
	Sig   Signature
}

// Key returns the canonical resolution key, e.g.
// "java/lang/String.length:()I".
func (m MethodRef) Key() string {
	return m.Class + "." + m.Name + ":" + m.Sig.String()
}

func (m MethodRef) String() string { return m.Key() }

// ParseMethodRef parses "class.name:descriptor". The class part accepts
// both slash and dot separators; it is stored in slash form.
func ParseMethodRef(text string) (MethodRef, error) {
	head, desc, ok := strings.Cut(text, ":")
	if !ok {
		return MethodRef{}, fmt.Errorf("method ref %q: missing descriptor", text)
	}
	class, name, err := splitQualifiedName(head)
	if err != nil {
		return MethodRef{}, fmt.Errorf("method ref %q: %w", text, err)
	}
	sig, err := ParseSignature(desc)
	if err != nil {
		return MethodRef{}, fmt.Errorf("method ref %q: %w", text, err)
	}
	return MethodRef{Class: class, Name: name, Sig: sig}, nil
}

// splitQualifiedName splits "pkg.Class.member" or "pkg/Class.member" into
// a slash-form class and a member name. The member is everything after the
// last separator, except that "<init>"-style names keep their brackets.
func splitQualifiedName(head string) (class, name string, err error) {
	idx := strings.LastIndexAny(head, "./")
	if idx <= 0 || idx == len(head)-1 {
		return "", "", fmt.Errorf("expected class.member, got %q", head)
	}
	class = strings.ReplaceAll(head[:idx], ".", "/")
	name = head[idx+1:]
	return class, name, nil
}

// ---------------------------------------------------------------------------
// Decoded instruction
// ---------------------------------------------------------------------------

// Inst is one decoded instruction. Which operand fields are meaningful
// depends on Op; unused fields are zero.
type Inst struct {
	Op     Op
	T      TypeKind  // load/store/return storage kind, array element kind
	To     TypeKind  // cast target (TypeShort, TypeByte or TypeChar)
	Index  int32     // local slot for OpLoad/OpStore/OpIncr
	Amount int32     // OpIncr delta
	BinOp  BinOp     // OpBinary operator
	Cond   Cond      // OpIfz/OpIf condition
	Target int32     // branch target as an instruction index
	Lit    Literal   // OpPush operand
	Class  string    // OpNew class, slash form
	Field  FieldRef  // OpGetStatic operand
	Invoke Invoke    // OpInvoke resolution mode
	Method MethodRef // OpInvoke target
}

// String renders one instruction in disassembly form.
func (in Inst) String() string {
	switch in.Op {
	case OpPush:
		return "push " + in.Lit.String()
	case OpLoad:
		return fmt.Sprintf("load %s %d", typeShort(in.T), in.Index)
	case OpStore:
		return fmt.Sprintf("store %s %d", typeShort(in.T), in.Index)
	case OpIncr:
		return fmt.Sprintf("incr %d %+d", in.Index, in.Amount)
	case OpBinary:
		return "binary " + in.BinOp.String()
	case OpCast:
		return "cast int->" + typeShort(in.To)
	case OpIfz:
		return fmt.Sprintf("ifz %s -> %d", in.Cond, in.Target)
	case OpIf:
		return fmt.Sprintf("if %s -> %d", in.Cond, in.Target)
	case OpGoto:
		return fmt.Sprintf("goto -> %d", in.Target)
	case OpGetStatic:
		return "getstatic " + in.Field.Key()
	case OpNew:
		return "new " + in.Class
	case OpNewArray:
		return "newarray " + typeShort(in.T)
	case OpArrayLoad:
		return "array_load " + typeShort(in.T)
	case OpArrayStore:
		return "array_store " + typeShort(in.T)
	case OpReturn:
		if in.T == TypeVoid {
			return "return"
		}
		return "return " + typeShort(in.T)
	case OpInvoke:
		return fmt.Sprintf("invoke %s %s", in.Invoke, in.Method.Key())
	case OpDup, OpPop, OpArrayLength, OpThrow:
		return in.Op.String()
	}
	return in.Op.String()
}

func typeShort(t TypeKind) string {
	switch t {
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
	case TypeObject, TypeArray:
		return "ref"
	case TypeVoid:
		return "void"
	}
	return "?"
}

// ---------------------------------------------------------------------------
// Instruction constructors
//
// These are the vocabulary the builder and tests compose with.
// ---------------------------------------------------------------------------

// Push builds a push of the given literal.
func Push(l Literal) Inst { return Inst{Op: OpPush, Lit: l} }

// PushInt builds a push of an Int32 immediate.
func PushInt(v int32) Inst { return Push(IntLit(v)) }

// PushString builds a push of an interned string literal.
func PushString(s string) Inst { return Push(StringLit(s)) }

// PushNull builds a push of the null reference.
func PushNull() Inst { return Push(NullLit()) }

// Load builds a local load. The kind is TypeInt or TypeObject.
func Load(t TypeKind, index int32) Inst { return Inst{Op: OpLoad, T: t, Index: index} }

// Store builds a local store.
func Store(t TypeKind, index int32) Inst { return Inst{Op: OpStore, T: t, Index: index} }

// Incr builds an in-place local increment.
func Incr(index, amount int32) Inst { return Inst{Op: OpIncr, Index: index, Amount: amount} }

// Dup duplicates the top of stack.
func Dup() Inst { return Inst{Op: OpDup} }

// Pop discards the top of stack.
func Pop() Inst { return Inst{Op: OpPop} }

// Binary builds an integer arithmetic instruction.
func Binary(op BinOp) Inst { return Inst{Op: OpBinary, BinOp: op} }

// Cast builds a narrowing cast (to TypeShort, TypeByte or TypeChar).
func Cast(to TypeKind) Inst { return Inst{Op: OpCast, To: to} }

// Ifz builds a compare-against-zero (or null) branch.
func Ifz(c Cond, target int32) Inst { return Inst{Op: OpIfz, Cond: c, Target: target} }

// If builds a pairwise-compare branch.
func If(c Cond, target int32) Inst { return Inst{Op: OpIf, Cond: c, Target: target} }

// Goto builds an unconditional branch.
func Goto(target int32) Inst { return Inst{Op: OpGoto, Target: target} }

// GetStatic builds a statics-table read.
func GetStatic(f FieldRef) Inst { return Inst{Op: OpGetStatic, Field: f} }

// New builds an instance allocation.
func New(class string) Inst { return Inst{Op: OpNew, Class: class} }

// NewArray builds an array allocation of the given element kind.
func NewArray(elem TypeKind) Inst { return Inst{Op: OpNewArray, T: elem} }

// ArrayLoad builds an array element read.
func ArrayLoad(elem TypeKind) Inst { return Inst{Op: OpArrayLoad, T: elem} }

// ArrayStore builds an array element write.
func ArrayStore(elem TypeKind) Inst { return Inst{Op: OpArrayStore, T: elem} }

// ArrayLength builds an array length read.
func ArrayLength() Inst { return Inst{Op: OpArrayLength} }

// InvokeInst builds an invocation of the given target.
func InvokeInst(kind Invoke, ref MethodRef) Inst {
	return Inst{Op: OpInvoke, Invoke: kind, Method: ref}
}

// Return builds a frame return. TypeVoid returns nothing; TypeInt and
// TypeObject pop the value to hand back to the caller.
func Return(t TypeKind) Inst { return Inst{Op: OpReturn, T: t} }

// Throw builds an athrow.
func Throw() Inst { return Inst{Op: OpThrow} }
