package vm

import (
	"javelin/bytecode"
)

// DefaultMaxSteps is the step budget a Machine runs with unless Options
// says otherwise.
const DefaultMaxSteps = 1000

// Options configures a Machine.
type Options struct {
	// MaxSteps is the per-run step budget; zero or less means
	// DefaultMaxSteps. A run that executes the full budget without
	// terminating is classified as diverged.
	MaxSteps int
	// Statics overrides the static field table. Nil binds DefaultStatics
	// for the program.
	Statics Statics
	// Tracer observes the run. Nil traces nothing.
	Tracer Tracer
}

// Machine executes one method activation chain at a time against a shared
// read-only Program. A Machine is not safe for concurrent use; run one
// Machine per goroutine over the same Program instead.
type Machine struct {
	prog    *bytecode.Program
	statics Statics
	opts    Options
	tracer  Tracer

	heap   *Heap
	frames []*frame
	steps  int
}

// New builds a Machine over a program.
func New(prog *bytecode.Program, opts Options) *Machine {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	statics := opts.Statics
	if statics == nil {
		statics = DefaultStatics(prog)
	}
	return &Machine{
		prog:    prog,
		statics: statics,
		opts:    opts,
		tracer:  opts.Tracer,
		heap:    NewHeap(),
	}
}

// Run executes the entry method on the given arguments until it terminates
// or the step budget runs out, and classifies the result. The returned
// error reports machine faults only; failures of the program under test
// come back as outcomes.
func (m *Machine) Run(id bytecode.MethodID, args []Arg) (Outcome, error) {
	entry, ok := m.prog.Lookup(id)
	if !ok {
		return Outcome{}, &Fault{Code: FaultUnresolvedMethod, Msg: id.String()}
	}
	if !entry.Static {
		return Outcome{}, &Fault{Code: FaultBadArguments, Method: id.String(), Msg: "entry method is not static"}
	}

	m.heap.Reset()
	m.frames = m.frames[:0]
	m.steps = 0

	locals, err := bindArgs(m.heap, entry, args)
	if err != nil {
		return Outcome{}, err
	}
	m.frames = append(m.frames, newFrame(entry, locals))

	for m.steps < m.opts.MaxSteps {
		out, err := m.step()
		if err != nil {
			return Outcome{}, err
		}
		if out != nil {
			out.Steps = m.steps
			return *out, nil
		}
	}
	return Outcome{Kind: OutcomeDiverged, Steps: m.steps}, nil
}

func (m *Machine) top() *frame {
	if len(m.frames) == 0 {
		return nil
	}
	return m.frames[len(m.frames)-1]
}

// step executes one instruction of the top frame. A non-nil outcome means
// the run terminated on this step.
func (m *Machine) step() (*Outcome, error) {
	m.steps++
	fr := m.top()
	if fr.atEnd() {
		return nil, m.faultf(FaultUnsupported, "no instruction at pc %d", fr.pc)
	}
	in := fr.inst()
	m.traceStep(fr.method, fr.pc, in)

	switch in.Op {
	case bytecode.OpPush:
		fr.push(m.literalValue(in.Lit))
		fr.pc++

	case bytecode.OpLoad:
		v := fr.load(in.Index)
		if v.Kind == KindInvalid {
			return nil, m.faultf(FaultUnboundLocal, "load of local %d before any store", in.Index)
		}
		if err := m.checkKind(in, in.T, v); err != nil {
			return nil, err
		}
		fr.push(v)
		fr.pc++

	case bytecode.OpStore:
		v, ok := fr.pop()
		if !ok {
			return nil, m.faultUnderflow(in)
		}
		if err := m.checkKind(in, in.T, v); err != nil {
			return nil, err
		}
		if !fr.store(in.Index, v) {
			return nil, m.faultf(FaultUnboundLocal, "store to local %d outside 0..%d", in.Index, maxLocals-1)
		}
		fr.pc++

	case bytecode.OpIncr:
		v := fr.load(in.Index)
		if v.Kind == KindInvalid {
			return nil, m.faultf(FaultUnboundLocal, "incr of local %d before any store", in.Index)
		}
		if !v.IsInt() {
			return nil, m.faultOperand(in, "int", v)
		}
		fr.store(in.Index, IntValue(v.Int+in.Amount))
		fr.pc++

	case bytecode.OpDup:
		v, ok := fr.peek()
		if !ok {
			return nil, m.faultUnderflow(in)
		}
		fr.push(v)
		fr.pc++

	case bytecode.OpPop:
		if _, ok := fr.pop(); !ok {
			return nil, m.faultUnderflow(in)
		}
		fr.pc++

	case bytecode.OpBinary:
		b, err := m.popInt(fr, in)
		if err != nil {
			return nil, err
		}
		a, err := m.popInt(fr, in)
		if err != nil {
			return nil, err
		}
		var r int32
		switch in.BinOp {
		case bytecode.AddOp:
			r = a + b
		case bytecode.SubOp:
			r = a - b
		case bytecode.MulOp:
			r = a * b
		case bytecode.DivOp:
			if b == 0 {
				return terminated(OutcomeDivideByZero), nil
			}
			r = a / b
		case bytecode.RemOp:
			if b == 0 {
				return terminated(OutcomeDivideByZero), nil
			}
			r = a % b
		default:
			return nil, m.faultf(FaultUnsupported, "binary %s", in.BinOp)
		}
		fr.push(IntValue(r))
		fr.pc++

	case bytecode.OpCast:
		v, err := m.popInt(fr, in)
		if err != nil {
			return nil, err
		}
		r, ok := castInt(in.To, v)
		if !ok {
			return nil, m.faultf(FaultUnsupported, "cast to %s", in.To)
		}
		fr.push(IntValue(r))
		fr.pc++

	case bytecode.OpIfz:
		v, ok := fr.pop()
		if !ok {
			return nil, m.faultUnderflow(in)
		}
		var taken bool
		switch in.Cond {
		case bytecode.CondIs, bytecode.CondIsNot:
			if !v.IsRef() {
				return nil, m.faultOperand(in, "ref", v)
			}
			taken = v.IsNull() == (in.Cond == bytecode.CondIs)
		default:
			if !v.IsInt() {
				return nil, m.faultOperand(in, "int", v)
			}
			m.traceIntCompare(v.Int, 0)
			taken = evalIntCond(in.Cond, v.Int, 0)
		}
		fr.branch(taken, in.Target)

	case bytecode.OpIf:
		b, ok := fr.pop()
		if !ok {
			return nil, m.faultUnderflow(in)
		}
		a, ok := fr.pop()
		if !ok {
			return nil, m.faultUnderflow(in)
		}
		var taken bool
		switch in.Cond {
		case bytecode.CondIs, bytecode.CondIsNot:
			if !a.IsRef() || !b.IsRef() {
				return nil, m.faultOperand(in, "two refs", a)
			}
			taken = (a.Ref == b.Ref) == (in.Cond == bytecode.CondIs)
		default:
			if !a.IsInt() || !b.IsInt() {
				return nil, m.faultOperand(in, "two ints", a)
			}
			m.traceIntCompare(a.Int, b.Int)
			taken = evalIntCond(in.Cond, a.Int, b.Int)
		}
		fr.branch(taken, in.Target)

	case bytecode.OpGoto:
		fr.pc = int(in.Target)

	case bytecode.OpGetStatic:
		v, ok := m.statics.Lookup(in.Field)
		if !ok {
			return nil, m.faultf(FaultUnresolvedField, "%s", in.Field)
		}
		fr.push(v)
		fr.pc++

	case bytecode.OpNew:
		var ref Handle
		if in.Class == stringClass {
			ref = m.heap.AllocString("")
		} else {
			ref = m.heap.AllocInstance(in.Class)
		}
		fr.push(RefValue(ref))
		fr.pc++

	case bytecode.OpNewArray:
		n, err := m.popInt(fr, in)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return &Outcome{Kind: OutcomeOtherUncaught, Exception: "java/lang/NegativeArraySizeException"}, nil
		}
		fr.push(RefValue(m.heap.AllocArray(in.T, n)))
		fr.pc++

	case bytecode.OpArrayLoad:
		i, err := m.popInt(fr, in)
		if err != nil {
			return nil, err
		}
		arr, out, err := m.popArray(fr, in)
		if out != nil || err != nil {
			return out, err
		}
		if i < 0 || i >= arr.Len() {
			return terminated(OutcomeOutOfBounds), nil
		}
		fr.push(arr.Elems[i])
		fr.pc++

	case bytecode.OpArrayStore:
		v, ok := fr.pop()
		if !ok {
			return nil, m.faultUnderflow(in)
		}
		i, err := m.popInt(fr, in)
		if err != nil {
			return nil, err
		}
		arr, out, err := m.popArray(fr, in)
		if out != nil || err != nil {
			return out, err
		}
		if i < 0 || i >= arr.Len() {
			return terminated(OutcomeOutOfBounds), nil
		}
		if !v.IsInt() {
			return nil, m.faultOperand(in, "int element", v)
		}
		arr.Elems[i] = IntValue(narrowElem(arr.Elem, v.Int))
		fr.pc++

	case bytecode.OpArrayLength:
		arr, out, err := m.popArray(fr, in)
		if out != nil || err != nil {
			return out, err
		}
		fr.push(IntValue(arr.Len()))
		fr.pc++

	case bytecode.OpInvoke:
		return m.execInvoke(fr, in)

	case bytecode.OpReturn:
		return m.execReturn(fr, in)

	case bytecode.OpThrow:
		ref, err := m.popRef(fr, in)
		if err != nil {
			return nil, err
		}
		if ref.IsNull() {
			return terminated(OutcomeNullPointer), nil
		}
		obj := m.heap.Get(ref.Ref)
		if obj == nil || obj.Kind != ObjInstance {
			return nil, m.faultOperand(in, "throwable", ref)
		}
		out := classifyThrow(obj.Class)
		return &out, nil

	default:
		return nil, m.faultf(FaultUnsupported, "%s", in.Op)
	}
	return nil, nil
}

// execReturn pops the current frame. The entry frame's return terminates
// the run; anything deeper hands the value to the caller and resumes it
// after its invoke.
func (m *Machine) execReturn(fr *frame, in bytecode.Inst) (*Outcome, error) {
	var ret Value
	hasRet := in.T != bytecode.TypeVoid
	if hasRet {
		v, ok := fr.pop()
		if !ok {
			return nil, m.faultUnderflow(in)
		}
		if err := m.checkKind(in, in.T, v); err != nil {
			return nil, err
		}
		ret = v
	}
	m.frames = m.frames[:len(m.frames)-1]
	caller := m.top()
	if caller == nil {
		return &Outcome{Kind: OutcomeOk, Ret: ret, HasRet: hasRet}, nil
	}
	if hasRet {
		caller.push(ret)
	}
	caller.pc++
	return nil, nil
}

// ---------------------------------------------------------------------------
// Operand helpers
// ---------------------------------------------------------------------------

func (m *Machine) literalValue(l bytecode.Literal) Value {
	switch l.Kind {
	case bytecode.LitString:
		return RefValue(m.heap.Intern(l.Str))
	case bytecode.LitNull:
		return NullValue()
	}
	return IntValue(l.Int)
}

// checkKind enforces the storage kind an instruction declared against the
// value it actually met.
func (m *Machine) checkKind(in bytecode.Inst, t bytecode.TypeKind, v Value) error {
	if t == bytecode.TypeObject || t == bytecode.TypeArray {
		if !v.IsRef() {
			return m.faultOperand(in, "ref", v)
		}
		return nil
	}
	if !v.IsInt() {
		return m.faultOperand(in, "int", v)
	}
	return nil
}

func (m *Machine) popInt(fr *frame, in bytecode.Inst) (int32, error) {
	v, ok := fr.pop()
	if !ok {
		return 0, m.faultUnderflow(in)
	}
	if !v.IsInt() {
		return 0, m.faultOperand(in, "int", v)
	}
	return v.Int, nil
}

func (m *Machine) popRef(fr *frame, in bytecode.Inst) (Value, error) {
	v, ok := fr.pop()
	if !ok {
		return Value{}, m.faultUnderflow(in)
	}
	if !v.IsRef() {
		return Value{}, m.faultOperand(in, "ref", v)
	}
	return v, nil
}

// popArray pops an array reference. Null terminates the run with a null
// pointer outcome; a non-array object is a fault.
func (m *Machine) popArray(fr *frame, in bytecode.Inst) (*Object, *Outcome, error) {
	ref, err := m.popRef(fr, in)
	if err != nil {
		return nil, nil, err
	}
	if ref.IsNull() {
		return nil, terminated(OutcomeNullPointer), nil
	}
	arr := m.heap.Get(ref.Ref)
	if arr == nil || arr.Kind != ObjArray {
		return nil, nil, m.faultOperand(in, "array", ref)
	}
	return arr, nil, nil
}

func terminated(k OutcomeKind) *Outcome { return &Outcome{Kind: k} }

func evalIntCond(c bytecode.Cond, a, b int32) bool {
	switch c {
	case bytecode.CondEq:
		return a == b
	case bytecode.CondNe:
		return a != b
	case bytecode.CondLt:
		return a < b
	case bytecode.CondLe:
		return a <= b
	case bytecode.CondGt:
		return a > b
	case bytecode.CondGe:
		return a >= b
	}
	return false
}

// castInt narrows an Int32 through the named storage type and widens it
// back: short and byte sign-extend, char zero-extends.
func castInt(to bytecode.TypeKind, v int32) (int32, bool) {
	switch to {
	case bytecode.TypeByte:
		return int32(int8(v)), true
	case bytecode.TypeShort:
		return int32(int16(v)), true
	case bytecode.TypeChar:
		return int32(uint16(v)), true
	case bytecode.TypeInt:
		return v, true
	}
	return 0, false
}

// narrowElem applies the element width on array stores. Loads push the
// stored value unchanged.
func narrowElem(elem bytecode.TypeKind, v int32) int32 {
	switch elem {
	case bytecode.TypeChar:
		return int32(uint16(v))
	case bytecode.TypeByte:
		return int32(int8(v))
	case bytecode.TypeShort:
		return int32(int16(v))
	case bytecode.TypeBoolean:
		return v & 1
	}
	return v
}
