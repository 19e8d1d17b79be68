package vm

import (
	"errors"
	"math"
	"testing"

	"javelin/bytecode"
)

// Helper to assemble a program from builders that are known good.
func testProgram(t *testing.T, methods ...*bytecode.Method) *bytecode.Program {
	t.Helper()
	prog, err := bytecode.NewProgram(methods...)
	if err != nil {
		t.Fatalf("NewProgram failed: %v", err)
	}
	return prog
}

func mustID(t *testing.T, text string) bytecode.MethodID {
	t.Helper()
	id, err := bytecode.ParseMethodID(text)
	if err != nil {
		t.Fatalf("ParseMethodID(%q) failed: %v", text, err)
	}
	return id
}

// Helper to run one method and fail the test on machine faults.
func runMethod(t *testing.T, prog *bytecode.Program, id string, args ...Arg) Outcome {
	t.Helper()
	out, err := New(prog, Options{}).Run(mustID(t, id), args)
	if err != nil {
		t.Fatalf("Run(%s) failed: %v", id, err)
	}
	return out
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name  string
		a, b  int32
		op    bytecode.BinOp
		want  int32
		label string
	}{
		{"add", 2, 3, bytecode.AddOp, 5, "ok"},
		{"add wraps around", math.MaxInt32, 1, bytecode.AddOp, math.MinInt32, "ok"},
		{"sub", 2, 5, bytecode.SubOp, -3, "ok"},
		{"sub wraps around", math.MinInt32, 1, bytecode.SubOp, math.MaxInt32, "ok"},
		{"mul", -4, 6, bytecode.MulOp, -24, "ok"},
		{"mul wraps around", 1 << 20, 1 << 20, bytecode.MulOp, 0, "ok"},
		{"div", 7, 2, bytecode.DivOp, 3, "ok"},
		{"div truncates toward zero", -7, 2, bytecode.DivOp, -3, "ok"},
		{"div negative divisor", 7, -2, bytecode.DivOp, -3, "ok"},
		{"div min by minus one", math.MinInt32, -1, bytecode.DivOp, math.MinInt32, "ok"},
		{"div by zero", 1, 0, bytecode.DivOp, 0, "divide by zero"},
		{"rem", 7, 2, bytecode.RemOp, 1, "ok"},
		{"rem keeps dividend sign", -7, 2, bytecode.RemOp, -1, "ok"},
		{"rem min by minus one", math.MinInt32, -1, bytecode.RemOp, 0, "ok"},
		{"rem by zero", 1, 0, bytecode.RemOp, 0, "divide by zero"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := bytecode.NewBuilder("demo.Arith.run:()I").
				PushInt(tt.a).PushInt(tt.b).
				Emit(bytecode.Binary(tt.op)).
				ReturnInt().
				MustBuild()
			out := runMethod(t, testProgram(t, m), "demo.Arith.run:()I")
			if out.Label() != tt.label {
				t.Fatalf("label = %q, want %q", out.Label(), tt.label)
			}
			if tt.label == "ok" && out.Ret.Int != tt.want {
				t.Errorf("result = %d, want %d", out.Ret.Int, tt.want)
			}
		})
	}
}

func TestNarrowingCasts(t *testing.T) {
	tests := []struct {
		name string
		to   bytecode.TypeKind
		in   int32
		want int32
	}{
		{"short keeps small", bytecode.TypeShort, 1234, 1234},
		{"short sign extends", bytecode.TypeShort, 0x18000, -32768},
		{"short truncates", bytecode.TypeShort, 70000, 4464},
		{"byte keeps small", bytecode.TypeByte, 100, 100},
		{"byte sign extends", bytecode.TypeByte, 200, -56},
		{"byte of minus one", bytecode.TypeByte, -1, -1},
		{"char zero extends", bytecode.TypeChar, -1, 65535},
		{"char truncates high bits", bytecode.TypeChar, 0x10041, 65},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := bytecode.NewBuilder("demo.Casts.run:()I").
				PushInt(tt.in).
				Emit(bytecode.Cast(tt.to)).
				ReturnInt().
				MustBuild()
			out := runMethod(t, testProgram(t, m), "demo.Casts.run:()I")
			if out.Ret.Int != tt.want {
				t.Errorf("cast of %d = %d, want %d", tt.in, out.Ret.Int, tt.want)
			}
		})
	}
}

func TestZeroComparisons(t *testing.T) {
	// load the argument, branch on the condition, return 1 if taken.
	build := func(c bytecode.Cond) *bytecode.Method {
		return bytecode.NewBuilder("demo.Cond.check:(I)I").MaxLocals(1).
			LoadInt(0).
			Ifz(c, "taken").
			PushInt(0).ReturnInt().
			Mark("taken").
			PushInt(1).ReturnInt().
			MustBuild()
	}
	tests := []struct {
		name string
		cond bytecode.Cond
		arg  int32
		want int32
	}{
		{"eq zero", bytecode.CondEq, 0, 1},
		{"eq nonzero", bytecode.CondEq, 3, 0},
		{"ne nonzero", bytecode.CondNe, 3, 1},
		{"ne zero", bytecode.CondNe, 0, 0},
		{"lt negative", bytecode.CondLt, -2, 1},
		{"lt zero", bytecode.CondLt, 0, 0},
		{"le zero", bytecode.CondLe, 0, 1},
		{"gt positive", bytecode.CondGt, 9, 1},
		{"gt zero", bytecode.CondGt, 0, 0},
		{"ge negative", bytecode.CondGe, -1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := testProgram(t, build(tt.cond))
			out := runMethod(t, prog, "demo.Cond.check:(I)I", IntArg(tt.arg))
			if out.Ret.Int != tt.want {
				t.Errorf("check(%d) = %d, want %d", tt.arg, out.Ret.Int, tt.want)
			}
		})
	}
}

func TestPairComparisons(t *testing.T) {
	build := func(c bytecode.Cond) *bytecode.Method {
		return bytecode.NewBuilder("demo.Cond.cmp:(II)I").MaxLocals(2).
			LoadInt(0).LoadInt(1).
			If(c, "taken").
			PushInt(0).ReturnInt().
			Mark("taken").
			PushInt(1).ReturnInt().
			MustBuild()
	}
	tests := []struct {
		name string
		cond bytecode.Cond
		a, b int32
		want int32
	}{
		{"eq equal", bytecode.CondEq, 4, 4, 1},
		{"eq unequal", bytecode.CondEq, 4, 5, 0},
		{"ne", bytecode.CondNe, 4, 5, 1},
		{"lt", bytecode.CondLt, -1, 1, 1},
		{"lt equal", bytecode.CondLt, 1, 1, 0},
		{"le equal", bytecode.CondLe, 1, 1, 1},
		{"gt", bytecode.CondGt, 2, 1, 1},
		{"ge smaller", bytecode.CondGe, 0, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := testProgram(t, build(tt.cond))
			out := runMethod(t, prog, "demo.Cond.cmp:(II)I", IntArg(tt.a), IntArg(tt.b))
			if out.Ret.Int != tt.want {
				t.Errorf("cmp(%d, %d) = %d, want %d", tt.a, tt.b, out.Ret.Int, tt.want)
			}
		})
	}
}

func TestLoopWithIncrement(t *testing.T) {
	// sum = 0; for i = n; i > 0; i-- { sum += i }; return sum
	m := bytecode.NewBuilder("demo.Loop.sum:(I)I").MaxLocals(2).
		PushInt(0).StoreInt(1).
		Mark("head").
		LoadInt(0).
		Ifz(bytecode.CondLe, "done").
		LoadInt(1).LoadInt(0).Add().StoreInt(1).
		Incr(0, -1).
		Goto("head").
		Mark("done").
		LoadInt(1).ReturnInt().
		MustBuild()
	out := runMethod(t, testProgram(t, m), "demo.Loop.sum:(I)I", IntArg(5))
	if out.Label() != "ok" || out.Ret.Int != 15 {
		t.Errorf("sum(5) = %v (%s), want 15 (ok)", out.Ret.Int, out.Label())
	}
}

func TestDupAndPop(t *testing.T) {
	// push 6, dup, add -> 12; push 99, pop leaves 12.
	m := bytecode.NewBuilder("demo.Stack.run:()I").
		PushInt(6).Dup().Add().
		PushInt(99).Pop().
		ReturnInt().
		MustBuild()
	out := runMethod(t, testProgram(t, m), "demo.Stack.run:()I")
	if out.Ret.Int != 12 {
		t.Errorf("result = %d, want 12", out.Ret.Int)
	}
}

func TestDivergenceUsesWholeBudget(t *testing.T) {
	m := bytecode.NewBuilder("demo.Loop.spin:()V").
		Mark("top").
		Goto("top").
		MustBuild()
	prog := testProgram(t, m)

	mach := New(prog, Options{MaxSteps: 7})
	out, err := mach.Run(mustID(t, "demo.Loop.spin:()V"), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.Kind != OutcomeDiverged || out.Label() != "*" {
		t.Fatalf("outcome = %v, want diverged", out)
	}
	if out.Steps != 7 {
		t.Errorf("steps = %d, want 7", out.Steps)
	}
}

func TestBudgetBoundary(t *testing.T) {
	// push + return terminates on the second step.
	m := bytecode.NewBuilder("demo.Tiny.run:()I").
		PushInt(1).ReturnInt().
		MustBuild()
	prog := testProgram(t, m)
	id := mustID(t, "demo.Tiny.run:()I")

	out, err := New(prog, Options{MaxSteps: 2}).Run(id, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.Kind != OutcomeOk || out.Steps != 2 {
		t.Errorf("with budget 2: outcome = %v after %d steps, want ok after 2", out, out.Steps)
	}

	out, err = New(prog, Options{MaxSteps: 1}).Run(id, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.Kind != OutcomeDiverged {
		t.Errorf("with budget 1: outcome = %v, want diverged", out)
	}
}

func TestMachineFaults(t *testing.T) {
	tests := []struct {
		name  string
		build func() *bytecode.Method
		code  FaultCode
	}{
		{
			"binary on empty stack",
			func() *bytecode.Method {
				return bytecode.NewBuilder("demo.Bad.run:()V").
					Add().ReturnVoid().MustBuild()
			},
			FaultStackUnderflow,
		},
		{
			"pop on empty stack",
			func() *bytecode.Method {
				return bytecode.NewBuilder("demo.Bad.run:()V").
					Pop().ReturnVoid().MustBuild()
			},
			FaultStackUnderflow,
		},
		{
			"load before store",
			func() *bytecode.Method {
				return bytecode.NewBuilder("demo.Bad.run:()I").
					LoadInt(0).ReturnInt().MustBuild()
			},
			FaultUnboundLocal,
		},
		{
			"return kind mismatch",
			func() *bytecode.Method {
				return bytecode.NewBuilder("demo.Bad.run:()I").
					PushNull().ReturnInt().MustBuild()
			},
			FaultBadOperand,
		},
		{
			"null test on an int",
			func() *bytecode.Method {
				return bytecode.NewBuilder("demo.Bad.run:()V").
					PushInt(1).
					Ifz(bytecode.CondIs, "t").
					Mark("t").ReturnVoid().MustBuild()
			},
			FaultBadOperand,
		},
		{
			"unbound static field",
			func() *bytecode.Method {
				return bytecode.NewBuilder("demo.Bad.run:()I").
					GetStatic("demo/Other", "missing", "I").
					ReturnInt().MustBuild()
			},
			FaultUnresolvedField,
		},
		{
			"unresolved static call",
			func() *bytecode.Method {
				return bytecode.NewBuilder("demo.Bad.run:()V").
					Invoke(bytecode.InvokeStatic, "demo/Other.gone:()V").
					ReturnVoid().MustBuild()
			},
			FaultUnresolvedMethod,
		},
		{
			"arithmetic on a reference",
			func() *bytecode.Method {
				return bytecode.NewBuilder("demo.Bad.run:()I").
					PushInt(1).PushNull().Add().ReturnInt().MustBuild()
			},
			FaultBadOperand,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.build()
			prog := testProgram(t, m)
			_, err := New(prog, Options{}).Run(m.ID, nil)
			if err == nil {
				t.Fatal("Run succeeded, want a fault")
			}
			var f *Fault
			if !errors.As(err, &f) {
				t.Fatalf("error %v is not a Fault", err)
			}
			if f.Code != tt.code {
				t.Errorf("fault code = %v, want %v", f.Code, tt.code)
			}
			if !IsFault(err) {
				t.Error("IsFault = false, want true")
			}
		})
	}
}

func TestRunChecksEntryAndArguments(t *testing.T) {
	m := bytecode.NewBuilder("demo.Entry.run:(I)V").MaxLocals(1).
		ReturnVoid().
		MustBuild()
	prog := testProgram(t, m)
	mach := New(prog, Options{})

	if _, err := mach.Run(mustID(t, "demo.Entry.gone:()V"), nil); err == nil {
		t.Error("running a missing method succeeded, want a fault")
	}
	if _, err := mach.Run(m.ID, nil); err == nil {
		t.Error("running with a missing argument succeeded, want a fault")
	}
	if _, err := mach.Run(m.ID, []Arg{StringArg("no")}); err == nil {
		t.Error("running with a mistyped argument succeeded, want a fault")
	}
	if _, err := mach.Run(m.ID, []Arg{IntArg(3)}); err != nil {
		t.Errorf("running with a matching argument failed: %v", err)
	}
}

func TestRunsAreRepeatable(t *testing.T) {
	// Allocates per run; identical inputs must classify identically.
	m := bytecode.NewBuilder("demo.Rep.run:(I)I").MaxLocals(1).
		PushString("seed").Pop().
		LoadInt(0).PushInt(10).Div().
		ReturnInt().
		MustBuild()
	prog := testProgram(t, m)
	mach := New(prog, Options{})

	first := runOn(t, mach, "demo.Rep.run:(I)I", IntArg(42))
	for i := 0; i < 3; i++ {
		again := runOn(t, mach, "demo.Rep.run:(I)I", IntArg(42))
		if again.Label() != first.Label() || again.Ret != first.Ret || again.Steps != first.Steps {
			t.Fatalf("run %d = %+v, first run = %+v", i+2, again, first)
		}
	}
	if mach.heap.Size() != 1 {
		t.Errorf("heap holds %d objects after the last run, want the interned literal only", mach.heap.Size())
	}
}

func runOn(t *testing.T, mach *Machine, id string, args ...Arg) Outcome {
	t.Helper()
	out, err := mach.Run(mustID(t, id), args)
	if err != nil {
		t.Fatalf("Run(%s) failed: %v", id, err)
	}
	return out
}
