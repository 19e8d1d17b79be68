package bytecode

import (
	"fmt"
)

// Builder assembles a method body instruction by instruction. Branches may
// name labels that are marked later; Build patches every forward reference
// and fails on labels that were never marked.
//
// Typical use:
//
//	b := NewBuilder("demo.Loop.spin:()V")
//	b.Mark("top")
//	b.Goto("top")
//	m, err := b.Build()
type Builder struct {
	id     MethodID
	static bool
	locals int
	code   []Inst
	marks  map[string]int32
	fixups []fixup
	err    error
}

type fixup struct {
	pc    int
	label string
}

// NewBuilder starts a static method with the given absolute id. An invalid
// id is reported by Build.
func NewBuilder(idText string) *Builder {
	b := &Builder{marks: make(map[string]int32), static: true}
	id, err := ParseMethodID(idText)
	if err != nil {
		b.err = err
		return b
	}
	b.id = id
	return b
}

// Instance marks the method as an instance method (slot 0 = receiver).
func (b *Builder) Instance() *Builder {
	b.static = false
	return b
}

// MaxLocals declares the local slot count.
func (b *Builder) MaxLocals(n int) *Builder {
	b.locals = n
	return b
}

// Emit appends an already-formed instruction.
func (b *Builder) Emit(in Inst) *Builder {
	b.code = append(b.code, in)
	return b
}

// Mark binds a label to the next instruction index.
func (b *Builder) Mark(label string) *Builder {
	if _, dup := b.marks[label]; dup {
		b.fail(fmt.Errorf("label %q marked twice", label))
		return b
	}
	b.marks[label] = int32(len(b.code))
	return b
}

func (b *Builder) branch(in Inst, label string) *Builder {
	b.fixups = append(b.fixups, fixup{pc: len(b.code), label: label})
	b.code = append(b.code, in)
	return b
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// PushInt, PushString, PushNull append push instructions.
func (b *Builder) PushInt(v int32) *Builder    { return b.Emit(PushInt(v)) }
func (b *Builder) PushString(s string) *Builder { return b.Emit(PushString(s)) }
func (b *Builder) PushNull() *Builder          { return b.Emit(PushNull()) }

// LoadInt and LoadRef append local loads.
func (b *Builder) LoadInt(slot int32) *Builder { return b.Emit(Load(TypeInt, slot)) }
func (b *Builder) LoadRef(slot int32) *Builder { return b.Emit(Load(TypeObject, slot)) }

// StoreInt and StoreRef append local stores.
func (b *Builder) StoreInt(slot int32) *Builder { return b.Emit(Store(TypeInt, slot)) }
func (b *Builder) StoreRef(slot int32) *Builder { return b.Emit(Store(TypeObject, slot)) }

// Incr appends an in-place local increment.
func (b *Builder) Incr(slot, amount int32) *Builder { return b.Emit(Incr(slot, amount)) }

// Dup and Pop append stack shuffles.
func (b *Builder) Dup() *Builder { return b.Emit(Dup()) }
func (b *Builder) Pop() *Builder { return b.Emit(Pop()) }

// Add, Sub, Mul, Div, Rem append arithmetic.
func (b *Builder) Add() *Builder { return b.Emit(Binary(AddOp)) }
func (b *Builder) Sub() *Builder { return b.Emit(Binary(SubOp)) }
func (b *Builder) Mul() *Builder { return b.Emit(Binary(MulOp)) }
func (b *Builder) Div() *Builder { return b.Emit(Binary(DivOp)) }
func (b *Builder) Rem() *Builder { return b.Emit(Binary(RemOp)) }

// CastShort, CastByte, CastChar append narrowing casts.
func (b *Builder) CastShort() *Builder { return b.Emit(Cast(TypeShort)) }
func (b *Builder) CastByte() *Builder  { return b.Emit(Cast(TypeByte)) }
func (b *Builder) CastChar() *Builder  { return b.Emit(Cast(TypeChar)) }

// Ifz appends a compare-with-zero branch to a label.
func (b *Builder) Ifz(c Cond, label string) *Builder {
	return b.branch(Ifz(c, 0), label)
}

// If appends a pairwise-compare branch to a label.
func (b *Builder) If(c Cond, label string) *Builder {
	return b.branch(If(c, 0), label)
}

// Goto appends an unconditional branch to a label.
func (b *Builder) Goto(label string) *Builder {
	return b.branch(Goto(0), label)
}

// GetStatic appends a statics read. The descriptor must parse.
func (b *Builder) GetStatic(class, name, desc string) *Builder {
	t, rest, err := parseType(desc)
	if err != nil || rest != "" {
		b.fail(fmt.Errorf("field %s.%s: bad descriptor %q", class, name, desc))
		return b
	}
	return b.Emit(GetStatic(FieldRef{Class: class, Name: name, Type: t}))
}

// New appends an instance allocation.
func (b *Builder) New(class string) *Builder { return b.Emit(New(class)) }

// NewArray, ArrayLoad, ArrayStore, ArrayLength append array instructions.
func (b *Builder) NewArray(elem TypeKind) *Builder   { return b.Emit(NewArray(elem)) }
func (b *Builder) ArrayLoad(elem TypeKind) *Builder  { return b.Emit(ArrayLoad(elem)) }
func (b *Builder) ArrayStore(elem TypeKind) *Builder { return b.Emit(ArrayStore(elem)) }
func (b *Builder) ArrayLength() *Builder             { return b.Emit(ArrayLength()) }

// Invoke appends an invocation of "class.name:descriptor".
func (b *Builder) Invoke(kind Invoke, refText string) *Builder {
	ref, err := ParseMethodRef(refText)
	if err != nil {
		b.fail(err)
		return b
	}
	return b.Emit(InvokeInst(kind, ref))
}

// ReturnVoid, ReturnInt, ReturnRef append returns.
func (b *Builder) ReturnVoid() *Builder { return b.Emit(Return(TypeVoid)) }
func (b *Builder) ReturnInt() *Builder  { return b.Emit(Return(TypeInt)) }
func (b *Builder) ReturnRef() *Builder  { return b.Emit(Return(TypeObject)) }

// Throw appends an athrow.
func (b *Builder) Throw() *Builder { return b.Emit(Throw()) }

// AssertionFailure appends the allocate-and-throw sequence javac emits for
// a failed assert: new AssertionError, dup, invokespecial <init>, athrow.
func (b *Builder) AssertionFailure() *Builder {
	b.New("java/lang/AssertionError")
	b.Dup()
	b.Invoke(InvokeSpecial, "java/lang/AssertionError.<init>:()V")
	return b.Throw()
}

// Build patches label references and returns the finished method.
func (b *Builder) Build() (*Method, error) {
	if b.err != nil {
		return nil, b.err
	}
	for _, f := range b.fixups {
		target, ok := b.marks[f.label]
		if !ok {
			return nil, fmt.Errorf("%s: unmarked label %q", b.id, f.label)
		}
		b.code[f.pc].Target = target
	}
	return NewMethod(b.id, b.static, b.locals, b.code)
}

// MustBuild is Build for fixtures that are known good.
func (b *Builder) MustBuild() *Method {
	m, err := b.Build()
	if err != nil {
		panic(err)
	}
	return m
}
