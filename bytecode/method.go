package bytecode

import (
	"fmt"
	"sort"
	"strings"
)

// MethodID is the absolute name of a method: class, member name and
// descriptor. The textual form uses dots in the class part,
// "jpamb.cases.Strings.stringLength:(Ljava/lang/String;)V", which is what
// the case files and the CLI accept; internally the class is slash form.
type MethodID struct {
	Class string // slash form
	Name  string
	Desc  string
}

// ParseMethodID parses the absolute textual form. Dots and slashes are
// both accepted as class separators.
func ParseMethodID(text string) (MethodID, error) {
	head, desc, ok := strings.Cut(text, ":")
	if !ok {
		return MethodID{}, fmt.Errorf("method id %q: missing descriptor", text)
	}
	class, name, err := splitQualifiedName(head)
	if err != nil {
		return MethodID{}, fmt.Errorf("method id %q: %w", text, err)
	}
	if _, err := ParseSignature(desc); err != nil {
		return MethodID{}, fmt.Errorf("method id %q: %w", text, err)
	}
	return MethodID{Class: class, Name: name, Desc: desc}, nil
}

// Key returns the canonical map key, slash form.
func (id MethodID) Key() string {
	return id.Class + "." + id.Name + ":" + id.Desc
}

// String returns the absolute textual form with a dotted class part.
func (id MethodID) String() string {
	return strings.ReplaceAll(id.Class, "/", ".") + "." + id.Name + ":" + id.Desc
}

// Method is one decoded method body.
type Method struct {
	ID        MethodID
	Sig       Signature // parsed from ID.Desc
	Static    bool
	MaxLocals int // 0 means unknown; frames size from the signature then
	Code      []Inst
}

// NewMethod validates the id/descriptor pair and wraps the code.
func NewMethod(id MethodID, static bool, maxLocals int, code []Inst) (*Method, error) {
	sig, err := ParseSignature(id.Desc)
	if err != nil {
		return nil, err
	}
	m := &Method{ID: id, Sig: sig, Static: static, MaxLocals: maxLocals, Code: code}
	if err := m.checkTargets(); err != nil {
		return nil, err
	}
	return m, nil
}

// checkTargets rejects branch targets outside the code range so the
// interpreter can trust decoded targets.
func (m *Method) checkTargets() error {
	n := int32(len(m.Code))
	for pc, in := range m.Code {
		info, ok := in.Op.Info()
		if !ok {
			return fmt.Errorf("%s: pc %d: invalid instruction", m.ID, pc)
		}
		if info.Branches && (in.Target < 0 || in.Target >= n) {
			return fmt.Errorf("%s: pc %d: branch target %d outside [0,%d)", m.ID, pc, in.Target, n)
		}
	}
	return nil
}

// Program is an immutable method table plus the derived literal set. It is
// built once by a loader or test fixture and shared read-only between
// concurrently executing machines.
type Program struct {
	methods  map[string]*Method // keyed by MethodID.Key()
	classes  map[string]bool
	literals []string // distinct string literals, sorted
}

// NewProgram builds a program from decoded methods. Duplicate method IDs
// are an error.
func NewProgram(methods ...*Method) (*Program, error) {
	p := &Program{
		methods: make(map[string]*Method, len(methods)),
		classes: make(map[string]bool),
	}
	lits := make(map[string]bool)
	for _, m := range methods {
		key := m.ID.Key()
		if _, dup := p.methods[key]; dup {
			return nil, fmt.Errorf("duplicate method %s", m.ID)
		}
		p.methods[key] = m
		p.classes[m.ID.Class] = true
		for _, in := range m.Code {
			if in.Op == OpPush && in.Lit.Kind == LitString {
				lits[in.Lit.Str] = true
			}
		}
	}
	p.literals = make([]string, 0, len(lits))
	for s := range lits {
		p.literals = append(p.literals, s)
	}
	sort.Strings(p.literals)
	return p, nil
}

// Lookup finds a method by its absolute id.
func (p *Program) Lookup(id MethodID) (*Method, bool) {
	m, ok := p.methods[id.Key()]
	return m, ok
}

// Resolve finds a method structurally by class, name and descriptor.
func (p *Program) Resolve(class, name, desc string) (*Method, bool) {
	m, ok := p.methods[class+"."+name+":"+desc]
	return m, ok
}

// HasClass reports whether the program declares any method on the class.
func (p *Program) HasClass(class string) bool {
	return p.classes[class]
}

// Classes returns the declared class names, sorted.
func (p *Program) Classes() []string {
	out := make([]string, 0, len(p.classes))
	for c := range p.classes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Methods returns all methods ordered by absolute id.
func (p *Program) Methods() []*Method {
	keys := make([]string, 0, len(p.methods))
	for k := range p.methods {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*Method, len(keys))
	for i, k := range keys {
		out[i] = p.methods[k]
	}
	return out
}

// StringLiterals returns the distinct string literals pushed anywhere in
// the program, sorted. Machines intern exactly these per run.
func (p *Program) StringLiterals() []string {
	return p.literals
}
