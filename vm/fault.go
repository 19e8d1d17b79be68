package vm

import (
	"errors"
	"fmt"

	"javelin/bytecode"
)

// FaultCode names a class of internal fault.
type FaultCode uint8

const (
	FaultUnknown FaultCode = iota
	FaultStackUnderflow
	FaultUnboundLocal
	FaultBadOperand
	FaultUnresolvedMethod
	FaultUnresolvedField
	FaultUnsupported
	FaultBadArguments
)

func (c FaultCode) String() string {
	switch c {
	case FaultStackUnderflow:
		return "stack underflow"
	case FaultUnboundLocal:
		return "unbound local"
	case FaultBadOperand:
		return "bad operand"
	case FaultUnresolvedMethod:
		return "unresolved method"
	case FaultUnresolvedField:
		return "unresolved field"
	case FaultUnsupported:
		return "unsupported instruction"
	case FaultBadArguments:
		return "bad arguments"
	}
	return "fault"
}

// Fault reports a defect in the program image or the machine itself: a
// malformed stack, an unresolvable reference, an operand of the wrong
// kind. Faults are Go errors, never run outcomes; a program that merely
// throws or divides by zero produces an Outcome instead.
type Fault struct {
	Code   FaultCode
	Method string
	PC     int
	Msg    string
}

func (f *Fault) Error() string {
	if f.Method == "" {
		return fmt.Sprintf("%s: %s", f.Code, f.Msg)
	}
	return fmt.Sprintf("%s at %s pc %d: %s", f.Code, f.Method, f.PC, f.Msg)
}

// IsFault reports whether err is or wraps a machine fault.
func IsFault(err error) bool {
	var f *Fault
	return errors.As(err, &f)
}

func (m *Machine) faultf(code FaultCode, format string, args ...any) *Fault {
	f := &Fault{Code: code, Msg: fmt.Sprintf(format, args...)}
	if fr := m.top(); fr != nil {
		f.Method = fr.method.ID.String()
		f.PC = fr.pc
	}
	return f
}

func (m *Machine) faultUnderflow(in bytecode.Inst) *Fault {
	return m.faultf(FaultStackUnderflow, "%s needs more operands", in.Op)
}

func (m *Machine) faultOperand(in bytecode.Inst, want string, got Value) *Fault {
	return m.faultf(FaultBadOperand, "%s wants %s, got %s", in.Op, want, got)
}
