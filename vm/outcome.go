package vm

import (
	"fmt"
	"strings"
)

// OutcomeKind classifies how a run terminated.
type OutcomeKind uint8

const (
	// OutcomeOk is a normal return from the entry method.
	OutcomeOk OutcomeKind = iota
	// OutcomeAssertionError is an uncaught java/lang/AssertionError.
	OutcomeAssertionError
	// OutcomeNullPointer is a null dereference or an uncaught
	// java/lang/NullPointerException.
	OutcomeNullPointer
	// OutcomeOutOfBounds is an index outside an array or string, or an
	// uncaught bounds exception.
	OutcomeOutOfBounds
	// OutcomeDivideByZero is an integer division or remainder by zero, or
	// an uncaught java/lang/ArithmeticException.
	OutcomeDivideByZero
	// OutcomeOtherUncaught is any other uncaught throwable; Exception
	// carries its class.
	OutcomeOtherUncaught
	// OutcomeDiverged means the step budget ran out before termination.
	OutcomeDiverged
)

// Labels for the five named outcomes plus divergence. Any other uncaught
// exception is labelled by its class name.
const (
	LabelOk           = "ok"
	LabelAssertion    = "assertion error"
	LabelNullPointer  = "null pointer"
	LabelOutOfBounds  = "out of bounds"
	LabelDivideByZero = "divide by zero"
	LabelDiverged     = "*"
)

// Outcome is the classified result of one run. Ret carries the entry
// method's return value when it returned one.
type Outcome struct {
	Kind      OutcomeKind
	Exception string
	Ret       Value
	HasRet    bool
	Steps     int
}

// Label renders the outcome as its oracle label.
func (o Outcome) Label() string {
	switch o.Kind {
	case OutcomeOk:
		return LabelOk
	case OutcomeAssertionError:
		return LabelAssertion
	case OutcomeNullPointer:
		return LabelNullPointer
	case OutcomeOutOfBounds:
		return LabelOutOfBounds
	case OutcomeDivideByZero:
		return LabelDivideByZero
	case OutcomeOtherUncaught:
		return o.Exception
	case OutcomeDiverged:
		return LabelDiverged
	}
	return fmt.Sprintf("Outcome(%d)", uint8(o.Kind))
}

func (o Outcome) String() string { return o.Label() }

// ParseLabel maps a label string back to an outcome. The five named labels
// and "*" parse to their kinds; any other non-empty string is an
// OtherUncaught exception class.
func ParseLabel(s string) (Outcome, error) {
	switch s {
	case LabelOk:
		return Outcome{Kind: OutcomeOk}, nil
	case LabelAssertion:
		return Outcome{Kind: OutcomeAssertionError}, nil
	case LabelNullPointer:
		return Outcome{Kind: OutcomeNullPointer}, nil
	case LabelOutOfBounds:
		return Outcome{Kind: OutcomeOutOfBounds}, nil
	case LabelDivideByZero:
		return Outcome{Kind: OutcomeDivideByZero}, nil
	case LabelDiverged:
		return Outcome{Kind: OutcomeDiverged}, nil
	}
	if strings.TrimSpace(s) == "" {
		return Outcome{}, fmt.Errorf("empty outcome label")
	}
	return Outcome{Kind: OutcomeOtherUncaught, Exception: s}, nil
}

// classify maps an uncaught exception class to its outcome. The named
// java.lang classes fold into the fixed labels; everything else keeps its
// class as the label.
func classifyThrow(class string) Outcome {
	switch class {
	case "java/lang/AssertionError":
		return Outcome{Kind: OutcomeAssertionError, Exception: class}
	case "java/lang/NullPointerException":
		return Outcome{Kind: OutcomeNullPointer, Exception: class}
	case "java/lang/ArrayIndexOutOfBoundsException",
		"java/lang/IndexOutOfBoundsException",
		"java/lang/StringIndexOutOfBoundsException":
		return Outcome{Kind: OutcomeOutOfBounds, Exception: class}
	case "java/lang/ArithmeticException":
		return Outcome{Kind: OutcomeDivideByZero, Exception: class}
	}
	return Outcome{Kind: OutcomeOtherUncaught, Exception: class}
}
