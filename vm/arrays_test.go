package vm

import (
	"testing"

	"javelin/bytecode"
)

func TestArrayLoad(t *testing.T) {
	m := bytecode.NewBuilder("demo.Arr.get:([II)I").MaxLocals(2).
		LoadRef(0).LoadInt(1).
		ArrayLoad(bytecode.TypeInt).
		ReturnInt().
		MustBuild()
	prog := testProgram(t, m)
	id := "demo.Arr.get:([II)I"

	tests := []struct {
		name  string
		arr   Arg
		i     int32
		want  int32
		label string
	}{
		{"first", IntArrayArg(10, 20, 30), 0, 10, "ok"},
		{"middle", IntArrayArg(10, 20, 30), 1, 20, "ok"},
		{"past the end", IntArrayArg(10, 20, 30), 3, 0, "out of bounds"},
		{"negative", IntArrayArg(10, 20, 30), -1, 0, "out of bounds"},
		{"empty array", IntArrayArg(), 0, 0, "out of bounds"},
		{"null array", NullArg(), 0, 0, "null pointer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := runMethod(t, prog, id, tt.arr, IntArg(tt.i))
			if out.Label() != tt.label {
				t.Fatalf("label = %q, want %q", out.Label(), tt.label)
			}
			if tt.label == "ok" && out.Ret.Int != tt.want {
				t.Errorf("get = %d, want %d", out.Ret.Int, tt.want)
			}
		})
	}
}

func TestArrayStoreRoundTrip(t *testing.T) {
	// a[i] = v; return a[i]
	m := bytecode.NewBuilder("demo.Arr.set:([III)I").MaxLocals(3).
		LoadRef(0).LoadInt(1).LoadInt(2).
		ArrayStore(bytecode.TypeInt).
		LoadRef(0).LoadInt(1).
		ArrayLoad(bytecode.TypeInt).
		ReturnInt().
		MustBuild()
	prog := testProgram(t, m)
	id := "demo.Arr.set:([III)I"

	out := runMethod(t, prog, id, IntArrayArg(1, 2, 3), IntArg(1), IntArg(-9))
	if out.Label() != "ok" || out.Ret.Int != -9 {
		t.Errorf("set/get = %d (%s), want -9 (ok)", out.Ret.Int, out.Label())
	}

	out = runMethod(t, prog, id, IntArrayArg(1, 2, 3), IntArg(5), IntArg(0))
	if out.Label() != "out of bounds" {
		t.Errorf("store past the end = %s, want out of bounds", out.Label())
	}
	out = runMethod(t, prog, id, NullArg(), IntArg(0), IntArg(0))
	if out.Label() != "null pointer" {
		t.Errorf("store to null = %s, want null pointer", out.Label())
	}
}

func TestCharArrayStoresNarrow(t *testing.T) {
	// a[0] = v; return a[0] for a char[] element.
	m := bytecode.NewBuilder("demo.Arr.setc:([CI)I").MaxLocals(2).
		LoadRef(0).PushInt(0).LoadInt(1).
		ArrayStore(bytecode.TypeChar).
		LoadRef(0).PushInt(0).
		ArrayLoad(bytecode.TypeChar).
		ReturnInt().
		MustBuild()
	prog := testProgram(t, m)
	id := "demo.Arr.setc:([CI)I"

	tests := []struct {
		name string
		v    int32
		want int32
	}{
		{"plain char", 'x', 'x'},
		{"wraps past 16 bits", 70000, 4464},
		{"negative zero extends", -1, 65535},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := runMethod(t, prog, id, CharArrayArg("a"), IntArg(tt.v))
			if out.Ret.Int != tt.want {
				t.Errorf("stored %d, read back %d, want %d", tt.v, out.Ret.Int, tt.want)
			}
		})
	}
}

func TestArrayLength(t *testing.T) {
	m := bytecode.NewBuilder("demo.Arr.len:([I)I").MaxLocals(1).
		LoadRef(0).
		ArrayLength().
		ReturnInt().
		MustBuild()
	prog := testProgram(t, m)
	id := "demo.Arr.len:([I)I"

	out := runMethod(t, prog, id, IntArrayArg(4, 5, 6))
	if out.Ret.Int != 3 {
		t.Errorf("length = %d, want 3", out.Ret.Int)
	}
	out = runMethod(t, prog, id, NullArg())
	if out.Label() != "null pointer" {
		t.Errorf("length of null = %s, want null pointer", out.Label())
	}
}

func TestNewArrayZeroFills(t *testing.T) {
	// return (new int[3])[2]
	m := bytecode.NewBuilder("demo.Arr.fresh:()I").
		PushInt(3).
		NewArray(bytecode.TypeInt).
		PushInt(2).
		ArrayLoad(bytecode.TypeInt).
		ReturnInt().
		MustBuild()
	out := runMethod(t, testProgram(t, m), "demo.Arr.fresh:()I")
	if out.Label() != "ok" || out.Ret.Int != 0 {
		t.Errorf("fresh element = %d (%s), want 0 (ok)", out.Ret.Int, out.Label())
	}
}

func TestNewArrayNegativeSize(t *testing.T) {
	m := bytecode.NewBuilder("demo.Arr.neg:(I)V").MaxLocals(1).
		LoadInt(0).
		NewArray(bytecode.TypeInt).
		Pop().
		ReturnVoid().
		MustBuild()
	prog := testProgram(t, m)
	id := "demo.Arr.neg:(I)V"

	out := runMethod(t, prog, id, IntArg(-1))
	if out.Kind != OutcomeOtherUncaught || out.Label() != "java/lang/NegativeArraySizeException" {
		t.Errorf("new int[-1] = %s, want java/lang/NegativeArraySizeException", out.Label())
	}
	out = runMethod(t, prog, id, IntArg(0))
	if out.Label() != "ok" {
		t.Errorf("new int[0] = %s, want ok", out.Label())
	}
}
