package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders a method body with one instruction per line:
//
//	jpamb.cases.Simple.divideByZero:()I  static
//	   0: push 1
//	   1: push 0
//	   2: binary div
//	   3: return int
func Disassemble(m *Method) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", m.ID)
	if m.Static {
		b.WriteString("  static")
	}
	b.WriteByte('\n')
	for pc, in := range m.Code {
		fmt.Fprintf(&b, "%4d: %s\n", pc, in)
	}
	return b.String()
}
