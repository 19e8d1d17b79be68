// Package bytecode models decoded JVM-subset methods: the instruction
// forms the interpreter executes, method signatures, the immutable
// program table, a builder for constructing bodies in code, and the
// JSON codec for decoded class files.
//
// Instructions are fully decoded: operands are struct fields rather than
// byte sequences, and branch targets are instruction indexes rather than
// byte offsets. One decoded form usually covers several raw opcodes
// (OpPush covers iconst_*, bipush, sipush, ldc and aconst_null).
package bytecode

import "fmt"

// Op identifies a decoded instruction form.
type Op uint8

const (
	OpInvalid Op = iota

	// ========================================================================
	// Constants and locals
	// ========================================================================

	OpPush  // Push a literal: Int32 immediate, interned string, or null
	OpLoad  // Push local slot Index
	OpStore // Pop into local slot Index
	OpIncr  // locals[Index] += Amount, 32-bit wraparound

	// ========================================================================
	// Operand stack
	// ========================================================================

	OpDup // Duplicate top of stack
	OpPop // Discard top of stack

	// ========================================================================
	// Integer arithmetic and casts
	// ========================================================================

	OpBinary // Pop two ints, push result of BinOp
	OpCast   // Narrow the top int to To, sign/zero-extend back

	// ========================================================================
	// Control flow
	// ========================================================================

	OpIfz  // Pop one value, compare against zero or null, branch to Target
	OpIf   // Pop two values, compare them, branch to Target
	OpGoto // Branch to Target unconditionally

	// ========================================================================
	// Fields and allocation
	// ========================================================================

	OpGetStatic // Push the value bound to Field in the statics table
	OpNew       // Allocate an instance of Class, push the reference
	OpNewArray  // Pop count, allocate a zeroed array of T

	// ========================================================================
	// Arrays
	// ========================================================================

	OpArrayLoad   // Pop index and array ref, push element
	OpArrayStore  // Pop value, index and array ref, store element
	OpArrayLength // Pop array ref, push its length

	// ========================================================================
	// Invocation and termination
	// ========================================================================

	OpInvoke // Call Method per Invoke kind
	OpReturn // Return from the current frame (value kind per T)
	OpThrow  // Pop a reference and unwind
)

// OpInfo describes one decoded instruction form.
type OpInfo struct {
	Name     string // mnemonic used by the JSON codec and the disassembler
	Branches bool   // instruction carries a Target operand
}

var opTable = map[Op]OpInfo{
	OpPush:        {Name: "push"},
	OpLoad:        {Name: "load"},
	OpStore:       {Name: "store"},
	OpIncr:        {Name: "incr"},
	OpDup:         {Name: "dup"},
	OpPop:         {Name: "pop"},
	OpBinary:      {Name: "binary"},
	OpCast:        {Name: "cast"},
	OpIfz:         {Name: "ifz", Branches: true},
	OpIf:          {Name: "if", Branches: true},
	OpGoto:        {Name: "goto", Branches: true},
	OpGetStatic:   {Name: "get"},
	OpNew:         {Name: "new"},
	OpNewArray:    {Name: "newarray"},
	OpArrayLoad:   {Name: "array_load"},
	OpArrayStore:  {Name: "array_store"},
	OpArrayLength: {Name: "arraylength"},
	OpInvoke:      {Name: "invoke"},
	OpReturn:      {Name: "return"},
	OpThrow:       {Name: "throw"},
}

// Info returns the metadata for an instruction form.
func (op Op) Info() (OpInfo, bool) {
	info, ok := opTable[op]
	return info, ok
}

// String returns the mnemonic.
func (op Op) String() string {
	if info, ok := opTable[op]; ok {
		return info.Name
	}
	return fmt.Sprintf("Op(%d)", uint8(op))
}

// opByName is the inverse of opTable, built once at init.
var opByName = func() map[string]Op {
	m := make(map[string]Op, len(opTable))
	for op, info := range opTable {
		m[info.Name] = op
	}
	return m
}()

// OpByName resolves a mnemonic to its instruction form.
func OpByName(name string) (Op, bool) {
	op, ok := opByName[name]
	return op, ok
}

// ---------------------------------------------------------------------------
// Operand enums
// ---------------------------------------------------------------------------

// BinOp is an integer arithmetic operator for OpBinary.
type BinOp uint8

const (
	AddOp BinOp = iota
	SubOp
	MulOp
	DivOp // zero divisor terminates the run with a divide-by-zero outcome
	RemOp // same zero-divisor rule as DivOp
)

var binOpNames = [...]string{"add", "sub", "mul", "div", "rem"}

func (b BinOp) String() string {
	if int(b) < len(binOpNames) {
		return binOpNames[b]
	}
	return fmt.Sprintf("BinOp(%d)", uint8(b))
}

// BinOpByName resolves an operator name used by the JSON codec.
func BinOpByName(name string) (BinOp, bool) {
	for i, n := range binOpNames {
		if n == name {
			return BinOp(i), true
		}
	}
	return 0, false
}

// Cond is a comparison condition for OpIfz and OpIf.
//
// The integer conditions compare against zero (OpIfz) or pairwise (OpIf).
// CondIs and CondIsNot compare references by identity; on OpIfz they test
// against null (the ifnull/ifnonnull raw forms).
type Cond uint8

const (
	CondEq Cond = iota
	CondNe
	CondLt
	CondLe
	CondGt
	CondGe
	CondIs
	CondIsNot
)

var condNames = [...]string{"eq", "ne", "lt", "le", "gt", "ge", "is", "isnot"}

func (c Cond) String() string {
	if int(c) < len(condNames) {
		return condNames[c]
	}
	return fmt.Sprintf("Cond(%d)", uint8(c))
}

// CondByName resolves a condition name used by the JSON codec.
func CondByName(name string) (Cond, bool) {
	for i, n := range condNames {
		if n == name {
			return Cond(i), true
		}
	}
	return 0, false
}

// Invoke distinguishes the three call-resolution modes.
type Invoke uint8

const (
	InvokeVirtual Invoke = iota // dispatch on the receiver's runtime kind
	InvokeSpecial               // exact method: constructors, private calls
	InvokeStatic                // structural resolution by signature
)

var invokeNames = [...]string{"virtual", "special", "static"}

func (k Invoke) String() string {
	if int(k) < len(invokeNames) {
		return invokeNames[k]
	}
	return fmt.Sprintf("Invoke(%d)", uint8(k))
}

// InvokeByName resolves an invocation mode name used by the JSON codec.
func InvokeByName(name string) (Invoke, bool) {
	for i, n := range invokeNames {
		if n == name {
			return Invoke(i), true
		}
	}
	return 0, false
}
