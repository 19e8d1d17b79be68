package cases

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	"javelin/vm"
)

// ParseInputs parses a parenthesized, comma-separated input tuple:
// integers, true/false, 'c', "text", null, [I:1,2,3] or [C:'a','b'].
func ParseInputs(text string) ([]vm.Arg, error) {
	p := &parser{s: text}
	args, err := p.inputs()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.done() {
		return nil, fmt.Errorf("inputs %q: trailing %q", text, p.remainder())
	}
	return args, nil
}

// FormatInputs renders a tuple in the form ParseInputs reads.
func FormatInputs(args []vm.Arg) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

type parser struct {
	s   string
	pos int
}

func (p *parser) done() bool { return p.pos >= len(p.s) }

func (p *parser) peek() byte {
	if p.done() {
		return 0
	}
	return p.s[p.pos]
}

func (p *parser) skipSpace() {
	for !p.done() && (p.s[p.pos] == ' ' || p.s[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) remainder() string { return p.s[p.pos:] }

func (p *parser) expect(c byte) error {
	if p.peek() != c {
		return fmt.Errorf("expected %q at offset %d", string(c), p.pos)
	}
	p.pos++
	return nil
}

func (p *parser) word(w string) error {
	if !strings.HasPrefix(p.remainder(), w) {
		return fmt.Errorf("bad input at offset %d", p.pos)
	}
	p.pos += len(w)
	return nil
}

func (p *parser) inputs() ([]vm.Arg, error) {
	p.skipSpace()
	if err := p.expect('('); err != nil {
		return nil, err
	}
	args := []vm.Arg{}
	p.skipSpace()
	if p.peek() == ')' {
		p.pos++
		return args, nil
	}
	for {
		arg, err := p.value()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return args, nil
		default:
			return nil, fmt.Errorf("expected ',' or ')' at offset %d", p.pos)
		}
	}
}

func (p *parser) value() (vm.Arg, error) {
	p.skipSpace()
	switch c := p.peek(); {
	case c == 'n':
		if err := p.word("null"); err != nil {
			return vm.Arg{}, err
		}
		return vm.NullArg(), nil
	case c == 't':
		if err := p.word("true"); err != nil {
			return vm.Arg{}, err
		}
		return vm.BoolArg(true), nil
	case c == 'f':
		if err := p.word("false"); err != nil {
			return vm.Arg{}, err
		}
		return vm.BoolArg(false), nil
	case c == '-' || c >= '0' && c <= '9':
		n, err := p.intValue()
		if err != nil {
			return vm.Arg{}, err
		}
		return vm.IntArg(n), nil
	case c == '\'':
		u, err := p.charValue()
		if err != nil {
			return vm.Arg{}, err
		}
		return vm.CharArg(u), nil
	case c == '"':
		s, err := p.stringValue()
		if err != nil {
			return vm.Arg{}, err
		}
		return vm.StringArg(s), nil
	case c == '[':
		return p.arrayValue()
	}
	return vm.Arg{}, fmt.Errorf("bad input at offset %d", p.pos)
}

func (p *parser) intValue() (int32, error) {
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	for !p.done() && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
		p.pos++
	}
	text := p.s[start:p.pos]
	n, err := strconv.ParseInt(text, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("bad integer %q", text)
	}
	return int32(n), nil
}

func (p *parser) charValue() (uint16, error) {
	span, err := p.quoted('\'')
	if err != nil {
		return 0, err
	}
	s, err := strconv.Unquote(span)
	if err != nil {
		return 0, fmt.Errorf("bad char %s", span)
	}
	units := utf16.Encode([]rune(s))
	if len(units) != 1 {
		return 0, fmt.Errorf("char %s is not a single code unit", span)
	}
	return units[0], nil
}

func (p *parser) stringValue() (string, error) {
	span, err := p.quoted('"')
	if err != nil {
		return "", err
	}
	s, err := strconv.Unquote(span)
	if err != nil {
		return "", fmt.Errorf("bad string %s", span)
	}
	return s, nil
}

// quoted scans one quote-delimited span, keeping the quotes so the text
// can go straight through strconv.Unquote.
func (p *parser) quoted(q byte) (string, error) {
	start := p.pos
	p.pos++
	for !p.done() {
		switch p.s[p.pos] {
		case '\\':
			p.pos += 2
		case q:
			p.pos++
			return p.s[start:p.pos], nil
		default:
			p.pos++
		}
	}
	return "", fmt.Errorf("unterminated %s at offset %d", string(q), start)
}

func (p *parser) arrayValue() (vm.Arg, error) {
	switch {
	case strings.HasPrefix(p.remainder(), "[I:"):
		p.pos += len("[I:")
		var vals []int32
		err := p.elems(func() error {
			n, err := p.intValue()
			if err != nil {
				return err
			}
			vals = append(vals, n)
			return nil
		})
		if err != nil {
			return vm.Arg{}, err
		}
		return vm.IntArrayArg(vals...), nil

	case strings.HasPrefix(p.remainder(), "[C:"):
		p.pos += len("[C:")
		var units []uint16
		err := p.elems(func() error {
			u, err := p.charValue()
			if err != nil {
				return err
			}
			units = append(units, u)
			return nil
		})
		if err != nil {
			return vm.Arg{}, err
		}
		return vm.CharArrayArg(string(utf16.Decode(units))), nil
	}
	return vm.Arg{}, fmt.Errorf("bad array at offset %d, want [I: or [C:", p.pos)
}

func (p *parser) elems(parseOne func() error) error {
	p.skipSpace()
	if p.peek() == ']' {
		p.pos++
		return nil
	}
	for {
		if err := parseOne(); err != nil {
			return err
		}
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
			p.skipSpace()
		case ']':
			p.pos++
			return nil
		default:
			return fmt.Errorf("expected ',' or ']' at offset %d", p.pos)
		}
	}
}
