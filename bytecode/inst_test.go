package bytecode

import (
	"strings"
	"testing"
)

func TestOpTableComplete(t *testing.T) {
	// Every op from OpPush through OpThrow has metadata and a unique name.
	seen := map[string]Op{}
	for op := OpPush; op <= OpThrow; op++ {
		info, ok := op.Info()
		if !ok || info.Name == "" {
			t.Errorf("op %d has no metadata", op)
			continue
		}
		if prev, dup := seen[info.Name]; dup {
			t.Errorf("ops %v and %v share the name %q", prev, op, info.Name)
		}
		seen[info.Name] = op
		back, ok := OpByName(info.Name)
		if !ok || back != op {
			t.Errorf("OpByName(%q) = %v, want %v", info.Name, back, op)
		}
	}
	if _, ok := OpInvalid.Info(); ok {
		t.Error("OpInvalid should have no metadata")
	}
}

func TestOpString(t *testing.T) {
	if got := OpPush.String(); got != "push" {
		t.Errorf("OpPush.String() = %q", got)
	}
	if got := Op(200).String(); !strings.HasPrefix(got, "Op(") {
		t.Errorf("unknown op String() = %q", got)
	}
}

func TestCondAndBinOpNames(t *testing.T) {
	for c := CondEq; c <= CondIsNot; c++ {
		back, ok := CondByName(c.String())
		if !ok || back != c {
			t.Errorf("CondByName(%q) = %v, want %v", c.String(), back, c)
		}
	}
	for b := AddOp; b <= RemOp; b++ {
		back, ok := BinOpByName(b.String())
		if !ok || back != b {
			t.Errorf("BinOpByName(%q) = %v, want %v", b.String(), back, b)
		}
	}
	if _, ok := CondByName("almost"); ok {
		t.Error("CondByName accepted garbage")
	}
}

func TestInstString(t *testing.T) {
	tests := []struct {
		in   Inst
		want string
	}{
		{PushInt(5), "push 5"},
		{PushString("hey"), `push "hey"`},
		{PushNull(), "push null"},
		{Load(TypeObject, 0), "load ref 0"},
		{Store(TypeInt, 2), "store int 2"},
		{Incr(1, -1), "incr 1 -1"},
		{Binary(DivOp), "binary div"},
		{Cast(TypeShort), "cast int->short"},
		{Ifz(CondNe, 10), "ifz ne -> 10"},
		{If(CondGe, 3), "if ge -> 3"},
		{Goto(0), "goto -> 0"},
		{New("java/lang/AssertionError"), "new java/lang/AssertionError"},
		{NewArray(TypeChar), "newarray char"},
		{ArrayLength(), "arraylength"},
		{Return(TypeVoid), "return"},
		{Return(TypeInt), "return int"},
		{Throw(), "throw"},
	}
	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestLiteralString(t *testing.T) {
	if got := IntLit(-42).String(); got != "-42" {
		t.Errorf("IntLit String = %q", got)
	}
	if got := StringLit("a\"b").String(); got != `"a\"b"` {
		t.Errorf("StringLit String = %q", got)
	}
	if got := NullLit().String(); got != "null" {
		t.Errorf("NullLit String = %q", got)
	}
}

func TestFieldRefKey(t *testing.T) {
	f := FieldRef{Class: "jpamb/cases/Simple", Name: "$assertionsDisabled", Type: TypeDesc{Kind: TypeBoolean}}
	want := "jpamb/cases/Simple.$assertionsDisabled:Z"
	if got := f.Key(); got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
}
