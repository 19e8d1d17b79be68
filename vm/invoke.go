package vm

import (
	"javelin/bytecode"
)

// execInvoke routes an invocation by its resolution mode. Static calls
// resolve structurally in the program; special calls resolve exactly,
// with constructor intrinsics for the runtime classes; virtual calls
// dispatch on the receiver's class after the String intrinsics get their
// chance.
func (m *Machine) execInvoke(fr *frame, in bytecode.Inst) (*Outcome, error) {
	switch in.Invoke {
	case bytecode.InvokeStatic:
		return m.invokeStatic(fr, in)
	case bytecode.InvokeSpecial:
		return m.invokeSpecial(fr, in)
	case bytecode.InvokeVirtual:
		return m.invokeVirtual(fr, in)
	}
	return nil, m.faultf(FaultUnsupported, "invoke %s", in.Invoke)
}

func (m *Machine) invokeStatic(fr *frame, in bytecode.Inst) (*Outcome, error) {
	meth, ok := m.prog.Resolve(in.Method.Class, in.Method.Name, in.Method.Sig.String())
	if !ok {
		return nil, m.faultf(FaultUnresolvedMethod, "static %s", in.Method)
	}
	if !meth.Static {
		return nil, m.faultf(FaultUnresolvedMethod, "%s is not static", in.Method)
	}
	args, err := m.popArgs(fr, in)
	if err != nil {
		return nil, err
	}
	m.frames = append(m.frames, newFrame(meth, args))
	return nil, nil
}

func (m *Machine) invokeSpecial(fr *frame, in bytecode.Inst) (*Outcome, error) {
	if in.Method.Class == stringClass && in.Method.Name == ctorName {
		return m.stringInit(fr, in)
	}
	if meth, ok := m.prog.Resolve(in.Method.Class, in.Method.Name, in.Method.Sig.String()); ok {
		return m.callInstance(fr, in, meth)
	}
	if in.Method.Name == ctorName {
		return m.defaultInit(fr, in)
	}
	return nil, m.faultf(FaultUnresolvedMethod, "special %s", in.Method)
}

func (m *Machine) invokeVirtual(fr *frame, in bytecode.Inst) (*Outcome, error) {
	if in.Method.Class == stringClass {
		return m.stringVirtual(fr, in)
	}
	args, err := m.popArgs(fr, in)
	if err != nil {
		return nil, err
	}
	recv, err := m.popRef(fr, in)
	if err != nil {
		return nil, err
	}
	if recv.IsNull() {
		return terminated(OutcomeNullPointer), nil
	}
	obj := m.heap.Get(recv.Ref)
	if obj == nil || obj.Kind != ObjInstance {
		return nil, m.faultOperand(in, "instance", recv)
	}
	meth, ok := m.prog.Resolve(obj.Class, in.Method.Name, in.Method.Sig.String())
	if !ok {
		return nil, m.faultf(FaultUnresolvedMethod, "virtual %s on %s", in.Method, obj.Class)
	}
	if meth.Static {
		return nil, m.faultf(FaultUnresolvedMethod, "%s resolved to a static method", in.Method)
	}
	m.frames = append(m.frames, newFrame(meth, append([]Value{recv}, args...)))
	return nil, nil
}

// callInstance pushes a frame for a resolved instance method: receiver in
// slot 0, declared parameters after it.
func (m *Machine) callInstance(fr *frame, in bytecode.Inst, meth *bytecode.Method) (*Outcome, error) {
	if meth.Static {
		return nil, m.faultf(FaultUnresolvedMethod, "%s resolved to a static method", in.Method)
	}
	args, err := m.popArgs(fr, in)
	if err != nil {
		return nil, err
	}
	recv, err := m.popRef(fr, in)
	if err != nil {
		return nil, err
	}
	if recv.IsNull() {
		return terminated(OutcomeNullPointer), nil
	}
	m.frames = append(m.frames, newFrame(meth, append([]Value{recv}, args...)))
	return nil, nil
}

// popArgs pops the declared parameters off the caller stack, last pushed
// first, and returns them in declaration order.
func (m *Machine) popArgs(fr *frame, in bytecode.Inst) ([]Value, error) {
	n := in.Method.Sig.ArgSlots()
	args := make([]Value, n)
	for i := n - 1; i >= 0; i-- {
		v, ok := fr.pop()
		if !ok {
			return nil, m.faultUnderflow(in)
		}
		args[i] = v
	}
	return args, nil
}
