package vm

import (
	"javelin/bytecode"
)

// Tracer observes a run. The machine calls it synchronously from the
// dispatch loop; implementations must not retain the method pointer past
// the call. A nil tracer is valid and costs nothing.
type Tracer interface {
	// Step fires before each instruction executes.
	Step(m *bytecode.Method, pc int, in bytecode.Inst)
	// IntCompare fires on each two-operand integer comparison with the
	// values compared.
	IntCompare(m *bytecode.Method, pc int, a, b int32)
	// StringCompare fires on each String equals comparison. fold is true
	// for case-insensitive comparisons.
	StringCompare(m *bytecode.Method, pc int, recv, arg string, fold bool)
}

func (m *Machine) traceStep(meth *bytecode.Method, pc int, in bytecode.Inst) {
	if m.tracer != nil {
		m.tracer.Step(meth, pc, in)
	}
}

func (m *Machine) traceIntCompare(a, b int32) {
	if m.tracer == nil {
		return
	}
	if fr := m.top(); fr != nil {
		m.tracer.IntCompare(fr.method, fr.pc, a, b)
	}
}

func (m *Machine) traceStringCompare(recv, arg string, fold bool) {
	if m.tracer == nil {
		return
	}
	if fr := m.top(); fr != nil {
		m.tracer.StringCompare(fr.method, fr.pc, recv, arg, fold)
	}
}
