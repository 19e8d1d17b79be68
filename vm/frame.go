package vm

import (
	"javelin/bytecode"
)

// maxLocals bounds how far a store may grow a frame's local table.
const maxLocals = 65536

// frame is one method activation: its operand stack, local variable table
// and program counter. The caller's pc stays on the invoke instruction
// until the callee returns.
type frame struct {
	method *bytecode.Method
	stack  []Value
	locals []Value
	pc     int
}

func newFrame(m *bytecode.Method, args []Value) *frame {
	n := m.MaxLocals
	if n < len(args) {
		n = len(args)
	}
	f := &frame{
		method: m,
		stack:  make([]Value, 0, 8),
		locals: make([]Value, n),
	}
	copy(f.locals, args)
	return f
}

func (f *frame) push(v Value) {
	f.stack = append(f.stack, v)
}

func (f *frame) pop() (Value, bool) {
	if len(f.stack) == 0 {
		return Value{}, false
	}
	v := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return v, true
}

func (f *frame) peek() (Value, bool) {
	if len(f.stack) == 0 {
		return Value{}, false
	}
	return f.stack[len(f.stack)-1], true
}

// load reads a local slot. Slots outside the table, or never stored, read
// as invalid.
func (f *frame) load(i int32) Value {
	if i < 0 || int(i) >= len(f.locals) {
		return Value{}
	}
	return f.locals[i]
}

// store writes a local slot, growing the table on demand.
func (f *frame) store(i int32, v Value) bool {
	if i < 0 || i >= maxLocals {
		return false
	}
	for int(i) >= len(f.locals) {
		f.locals = append(f.locals, Value{})
	}
	f.locals[i] = v
	return true
}

func (f *frame) inst() bytecode.Inst {
	return f.method.Code[f.pc]
}

func (f *frame) branch(taken bool, target int32) {
	if taken {
		f.pc = int(target)
	} else {
		f.pc++
	}
}

// atEnd reports whether pc ran off the code. Well-formed methods end in a
// return or throw, so reaching the end is a fault.
func (f *frame) atEnd() bool {
	return f.pc < 0 || f.pc >= len(f.method.Code)
}
