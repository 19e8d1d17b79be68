package vm

import (
	"slices"
	"strings"
	"unicode/utf16"

	"javelin/bytecode"
)

const (
	stringClass = "java/lang/String"
	ctorName    = "<init>"
)

// stringInit implements the java/lang/String constructors the compiled
// programs reach through new/dup/invokespecial. The receiver is the blank
// string the allocation pushed; construction fills its code units.
func (m *Machine) stringInit(fr *frame, in bytecode.Inst) (*Outcome, error) {
	switch in.Method.Sig.String() {
	case "()V":
		recv, err := m.popString(fr, in)
		if err != nil {
			return nil, err
		}
		if recv == nil {
			return terminated(OutcomeNullPointer), nil
		}
		recv.Units = recv.Units[:0]

	case "(Ljava/lang/String;)V":
		arg, err := m.popRef(fr, in)
		if err != nil {
			return nil, err
		}
		recv, err := m.popString(fr, in)
		if err != nil {
			return nil, err
		}
		if recv == nil || arg.IsNull() {
			return terminated(OutcomeNullPointer), nil
		}
		src := m.heap.Get(arg.Ref)
		if src == nil || src.Kind != ObjString {
			return nil, m.faultOperand(in, "string", arg)
		}
		recv.Units = append(recv.Units[:0], src.Units...)

	case "([C)V":
		arg, err := m.popRef(fr, in)
		if err != nil {
			return nil, err
		}
		recv, err := m.popString(fr, in)
		if err != nil {
			return nil, err
		}
		if recv == nil || arg.IsNull() {
			return terminated(OutcomeNullPointer), nil
		}
		src := m.heap.Get(arg.Ref)
		if src == nil || src.Kind != ObjArray || src.Elem != bytecode.TypeChar {
			return nil, m.faultOperand(in, "char array", arg)
		}
		recv.Units = recv.Units[:0]
		for _, el := range src.Elems {
			recv.Units = append(recv.Units, uint16(el.Int))
		}

	default:
		return nil, m.faultf(FaultUnresolvedMethod, "string constructor %s", in.Method.Sig)
	}
	fr.pc++
	return nil, nil
}

// defaultInit implements constructors of classes outside the program,
// which in practice are the java.lang throwables. A single argument is
// kept on the receiver as its message.
func (m *Machine) defaultInit(fr *frame, in bytecode.Inst) (*Outcome, error) {
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
	if len(args) == 1 {
		obj.SetField("message", args[0])
	}
	fr.pc++
	return nil, nil
}

// stringVirtual implements the java/lang/String methods in scope. Every
// one checks the receiver for null before anything else; index checks
// come after, working in UTF-16 code units.
func (m *Machine) stringVirtual(fr *frame, in bytecode.Inst) (*Outcome, error) {
	name := in.Method.Name
	desc := in.Method.Sig.String()
	switch {
	case name == "length" && desc == "()I":
		recv, err := m.popString(fr, in)
		if err != nil {
			return nil, err
		}
		if recv == nil {
			return terminated(OutcomeNullPointer), nil
		}
		fr.push(IntValue(recv.Len()))

	case name == "charAt" && desc == "(I)C":
		i, err := m.popInt(fr, in)
		if err != nil {
			return nil, err
		}
		recv, err := m.popString(fr, in)
		if err != nil {
			return nil, err
		}
		if recv == nil {
			return terminated(OutcomeNullPointer), nil
		}
		if i < 0 || i >= recv.Len() {
			return terminated(OutcomeOutOfBounds), nil
		}
		fr.push(IntValue(int32(recv.Units[i])))

	case name == "substring" && desc == "(I)Ljava/lang/String;":
		i, err := m.popInt(fr, in)
		if err != nil {
			return nil, err
		}
		recv, err := m.popString(fr, in)
		if err != nil {
			return nil, err
		}
		if recv == nil {
			return terminated(OutcomeNullPointer), nil
		}
		if i < 0 || i > recv.Len() {
			return terminated(OutcomeOutOfBounds), nil
		}
		units := append([]uint16(nil), recv.Units[i:]...)
		fr.push(RefValue(m.heap.Alloc(&Object{Kind: ObjString, Units: units})))

	case name == "substring" && desc == "(II)Ljava/lang/String;":
		j, err := m.popInt(fr, in)
		if err != nil {
			return nil, err
		}
		i, err := m.popInt(fr, in)
		if err != nil {
			return nil, err
		}
		recv, err := m.popString(fr, in)
		if err != nil {
			return nil, err
		}
		if recv == nil {
			return terminated(OutcomeNullPointer), nil
		}
		if i < 0 || j < i || j > recv.Len() {
			return terminated(OutcomeOutOfBounds), nil
		}
		units := append([]uint16(nil), recv.Units[i:j]...)
		fr.push(RefValue(m.heap.Alloc(&Object{Kind: ObjString, Units: units})))

	case name == "concat" && desc == "(Ljava/lang/String;)Ljava/lang/String;":
		arg, err := m.popRef(fr, in)
		if err != nil {
			return nil, err
		}
		recv, err := m.popString(fr, in)
		if err != nil {
			return nil, err
		}
		if recv == nil {
			return terminated(OutcomeNullPointer), nil
		}
		var tail []uint16
		if arg.IsNull() {
			// A null argument concatenates as the text "null".
			tail = utf16.Encode([]rune("null"))
		} else {
			src := m.heap.Get(arg.Ref)
			if src == nil || src.Kind != ObjString {
				return nil, m.faultOperand(in, "string", arg)
			}
			tail = src.Units
		}
		units := make([]uint16, 0, len(recv.Units)+len(tail))
		units = append(units, recv.Units...)
		units = append(units, tail...)
		fr.push(RefValue(m.heap.Alloc(&Object{Kind: ObjString, Units: units})))

	case name == "equals" && desc == "(Ljava/lang/Object;)Z":
		arg, err := m.popRef(fr, in)
		if err != nil {
			return nil, err
		}
		recv, err := m.popString(fr, in)
		if err != nil {
			return nil, err
		}
		if recv == nil {
			return terminated(OutcomeNullPointer), nil
		}
		eq := false
		if !arg.IsNull() {
			if other := m.heap.Get(arg.Ref); other != nil && other.Kind == ObjString {
				m.traceStringCompare(recv.Text(), other.Text(), false)
				eq = slices.Equal(recv.Units, other.Units)
			}
		}
		fr.push(BoolValue(eq))

	case name == "equalsIgnoreCase" && desc == "(Ljava/lang/String;)Z":
		arg, err := m.popRef(fr, in)
		if err != nil {
			return nil, err
		}
		recv, err := m.popString(fr, in)
		if err != nil {
			return nil, err
		}
		if recv == nil {
			return terminated(OutcomeNullPointer), nil
		}
		eq := false
		if !arg.IsNull() {
			other := m.heap.Get(arg.Ref)
			if other == nil || other.Kind != ObjString {
				return nil, m.faultOperand(in, "string", arg)
			}
			m.traceStringCompare(recv.Text(), other.Text(), true)
			eq = strings.EqualFold(recv.Text(), other.Text())
		}
		fr.push(BoolValue(eq))

	default:
		return nil, m.faultf(FaultUnresolvedMethod, "virtual %s", in.Method)
	}
	fr.pc++
	return nil, nil
}

// popString pops a reference and resolves it to a string object. Null
// resolves to nil with no error so callers can classify it; a non-string
// object is a fault.
func (m *Machine) popString(fr *frame, in bytecode.Inst) (*Object, error) {
	v, err := m.popRef(fr, in)
	if err != nil {
		return nil, err
	}
	if v.IsNull() {
		return nil, nil
	}
	obj := m.heap.Get(v.Ref)
	if obj == nil || obj.Kind != ObjString {
		return nil, m.faultOperand(in, "string", v)
	}
	return obj, nil
}
