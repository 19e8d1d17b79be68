package vm

import (
	"testing"
)

func TestOutcomeLabels(t *testing.T) {
	tests := []struct {
		out  Outcome
		want string
	}{
		{Outcome{Kind: OutcomeOk}, "ok"},
		{Outcome{Kind: OutcomeAssertionError}, "assertion error"},
		{Outcome{Kind: OutcomeNullPointer}, "null pointer"},
		{Outcome{Kind: OutcomeOutOfBounds}, "out of bounds"},
		{Outcome{Kind: OutcomeDivideByZero}, "divide by zero"},
		{Outcome{Kind: OutcomeDiverged}, "*"},
		{Outcome{Kind: OutcomeOtherUncaught, Exception: "java/lang/RuntimeException"}, "java/lang/RuntimeException"},
	}
	for _, tt := range tests {
		if got := tt.out.Label(); got != tt.want {
			t.Errorf("Label() = %q, want %q", got, tt.want)
		}
	}
}

func TestParseLabel(t *testing.T) {
	for _, label := range []string{
		"ok", "assertion error", "null pointer", "out of bounds", "divide by zero", "*",
	} {
		out, err := ParseLabel(label)
		if err != nil {
			t.Fatalf("ParseLabel(%q) failed: %v", label, err)
		}
		if out.Label() != label {
			t.Errorf("ParseLabel(%q).Label() = %q", label, out.Label())
		}
	}

	out, err := ParseLabel("java/lang/RuntimeException")
	if err != nil {
		t.Fatalf("ParseLabel failed: %v", err)
	}
	if out.Kind != OutcomeOtherUncaught || out.Exception != "java/lang/RuntimeException" {
		t.Errorf("ParseLabel of a class name = %+v, want other uncaught", out)
	}

	if _, err := ParseLabel(""); err == nil {
		t.Error("ParseLabel(\"\") succeeded, want an error")
	}
	if _, err := ParseLabel("   "); err == nil {
		t.Error("ParseLabel of blanks succeeded, want an error")
	}
}

func TestClassifyThrow(t *testing.T) {
	tests := []struct {
		class string
		kind  OutcomeKind
	}{
		{"java/lang/AssertionError", OutcomeAssertionError},
		{"java/lang/NullPointerException", OutcomeNullPointer},
		{"java/lang/ArrayIndexOutOfBoundsException", OutcomeOutOfBounds},
		{"java/lang/IndexOutOfBoundsException", OutcomeOutOfBounds},
		{"java/lang/StringIndexOutOfBoundsException", OutcomeOutOfBounds},
		{"java/lang/ArithmeticException", OutcomeDivideByZero},
		{"java/lang/RuntimeException", OutcomeOtherUncaught},
		{"demo/HouseException", OutcomeOtherUncaught},
	}
	for _, tt := range tests {
		got := classifyThrow(tt.class)
		if got.Kind != tt.kind {
			t.Errorf("classifyThrow(%s).Kind = %v, want %v", tt.class, got.Kind, tt.kind)
		}
		if got.Exception != tt.class {
			t.Errorf("classifyThrow(%s).Exception = %q", tt.class, got.Exception)
		}
	}
}
