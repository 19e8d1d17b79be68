package bytecode

import (
	"strings"
	"testing"
)

func TestBuilderPatchesLabels(t *testing.T) {
	m, err := NewBuilder("demo.Loop.countdown:(I)V").
		MaxLocals(1).
		Mark("top").
		LoadInt(0).
		Ifz(CondLe, "done").
		Incr(0, -1).
		Goto("top").
		Mark("done").
		ReturnVoid().
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(m.Code) != 5 {
		t.Fatalf("code length = %d, want 5", len(m.Code))
	}
	if m.Code[1].Target != 4 {
		t.Errorf("ifz target = %d, want 4", m.Code[1].Target)
	}
	if m.Code[3].Target != 0 {
		t.Errorf("goto target = %d, want 0", m.Code[3].Target)
	}
	if !m.Static {
		t.Error("builder defaults to static")
	}
}

func TestBuilderUnmarkedLabel(t *testing.T) {
	_, err := NewBuilder("demo.Bad.jump:()V").Goto("nowhere").ReturnVoid().Build()
	if err == nil || !strings.Contains(err.Error(), "nowhere") {
		t.Errorf("Build error = %v, want unmarked label", err)
	}
}

func TestBuilderDuplicateLabel(t *testing.T) {
	_, err := NewBuilder("demo.Bad.dup:()V").Mark("x").Mark("x").ReturnVoid().Build()
	if err == nil {
		t.Error("Build succeeded with a duplicate label")
	}
}

func TestBuilderBadMethodID(t *testing.T) {
	_, err := NewBuilder("not a method id").ReturnVoid().Build()
	if err == nil {
		t.Error("Build succeeded with a bad method id")
	}
}

func TestBuilderAssertionFailure(t *testing.T) {
	m, err := NewBuilder("demo.Assert.always:()V").AssertionFailure().Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	ops := []Op{OpNew, OpDup, OpInvoke, OpThrow}
	if len(m.Code) != len(ops) {
		t.Fatalf("code length = %d, want %d", len(m.Code), len(ops))
	}
	for i, op := range ops {
		if m.Code[i].Op != op {
			t.Errorf("code[%d].Op = %v, want %v", i, m.Code[i].Op, op)
		}
	}
	if m.Code[0].Class != "java/lang/AssertionError" {
		t.Errorf("new class = %q", m.Code[0].Class)
	}
	if m.Code[2].Invoke != InvokeSpecial || m.Code[2].Method.Name != "<init>" {
		t.Errorf("ctor call = %+v", m.Code[2])
	}
}

func TestMethodRejectsBadTargets(t *testing.T) {
	id, err := ParseMethodID("demo.Bad.range:()V")
	if err != nil {
		t.Fatal(err)
	}
	_, err = NewMethod(id, true, 0, []Inst{Goto(9), Return(TypeVoid)})
	if err == nil {
		t.Error("NewMethod accepted an out-of-range branch target")
	}
}

func TestDisassemble(t *testing.T) {
	m := NewBuilder("demo.Simple.answer:()I").PushInt(42).ReturnInt().MustBuild()
	text := Disassemble(m)
	for _, want := range []string{"demo.Simple.answer:()I", "0: push 42", "1: return int"} {
		if !strings.Contains(text, want) {
			t.Errorf("Disassemble missing %q in:\n%s", want, text)
		}
	}
}
