// Package cases reads and writes the oracle annotation formats: input
// tuples, outcome labels, and "(inputs) -> label" case lines bound to
// absolute method IDs.
package cases

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"javelin/bytecode"
	"javelin/vm"
)

// Wildcard is the expectation for search-discovered cases: the method has
// more than one reachable outcome depending on input, so any single
// concrete label satisfies it.
const Wildcard = "*"

// Case pairs one input tuple with the label that running the method on it
// must produce.
type Case struct {
	Method   bytecode.MethodID
	Inputs   []vm.Arg
	Expected string
}

// IsWildcard reports whether the case accepts any concrete label.
func (c Case) IsWildcard() bool { return c.Expected == Wildcard }

// Accepts reports whether an observed label satisfies the expectation.
func (c Case) Accepts(label string) bool {
	return c.IsWildcard() || c.Expected == label
}

// String renders the case as "(inputs) -> label", the annotation form.
func (c Case) String() string {
	return FormatInputs(c.Inputs) + " -> " + c.Expected
}

// ParseCase parses an "(inputs) -> label" annotation for a known method.
func ParseCase(id bytecode.MethodID, text string) (Case, error) {
	open := strings.IndexByte(text, '(')
	if open < 0 {
		return Case{}, fmt.Errorf("case %q: missing input tuple", text)
	}
	end := strings.LastIndexByte(text, ')')
	if end < open {
		return Case{}, fmt.Errorf("case %q: unterminated input tuple", text)
	}
	args, err := ParseInputs(text[open : end+1])
	if err != nil {
		return Case{}, fmt.Errorf("case %q: %w", text, err)
	}
	rest := strings.TrimSpace(text[end+1:])
	label, ok := strings.CutPrefix(rest, "->")
	if !ok {
		return Case{}, fmt.Errorf("case %q: missing \"->\"", text)
	}
	label = strings.TrimSpace(label)
	if label != Wildcard {
		if _, err := vm.ParseLabel(label); err != nil {
			return Case{}, fmt.Errorf("case %q: %w", text, err)
		}
	}
	return Case{Method: id, Inputs: args, Expected: label}, nil
}

// ParseLine parses one line of a cases file: an absolute method ID
// followed by its annotation, "jpamb.cases.Simple.div:(II)I (1, 0) ->
// divide by zero".
func ParseLine(line string) (Case, error) {
	idText, rest, ok := strings.Cut(strings.TrimSpace(line), " ")
	if !ok {
		return Case{}, fmt.Errorf("case line %q: missing annotation", line)
	}
	id, err := bytecode.ParseMethodID(idText)
	if err != nil {
		return Case{}, err
	}
	return ParseCase(id, rest)
}

// FormatLine renders a case in the form ParseLine reads.
func (c Case) FormatLine() string {
	return c.Method.String() + " " + c.String()
}

// ReadAll parses a cases file: one case per line, blank lines and
// #-comments skipped. Declaration order is preserved.
func ReadAll(r io.Reader) ([]Case, error) {
	var out []Case
	sc := bufio.NewScanner(r)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		c, err := ParseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno, err)
		}
		out = append(out, c)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// WriteAll renders cases one per line, the inverse of ReadAll.
func WriteAll(w io.Writer, cs []Case) error {
	for _, c := range cs {
		if _, err := io.WriteString(w, c.FormatLine()+"\n"); err != nil {
			return err
		}
	}
	return nil
}
