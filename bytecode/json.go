package bytecode

import (
	"encoding/json"
	"fmt"
	"unicode/utf16"

	"fortio.org/safecast"
)

// Decoded class files are JSON documents: a class name plus its methods,
// each method a list of decoded instructions discriminated by an "opr"
// field. The vocabulary matches the mnemonics in opTable; operands use the
// field names below. Branch targets are instruction indexes.
//
//	{
//	  "name": "jpamb/cases/Simple",
//	  "methods": [
//	    {
//	      "name": "divideByZero", "descriptor": "()I",
//	      "static": true, "max_locals": 0,
//	      "code": [
//	        {"opr": "push", "value": {"type": "integer", "value": 1}},
//	        {"opr": "push", "value": {"type": "integer", "value": 0}},
//	        {"opr": "binary", "type": "int", "operant": "div"},
//	        {"opr": "return", "type": "int"}
//	      ]
//	    }
//	  ]
//	}

type classJSON struct {
	Name    string       `json:"name"`
	Methods []methodJSON `json:"methods"`
}

type methodJSON struct {
	Name       string     `json:"name"`
	Descriptor string     `json:"descriptor"`
	Static     bool       `json:"static"`
	MaxLocals  int        `json:"max_locals,omitempty"`
	Code       []instJSON `json:"code"`
}

type instJSON struct {
	Opr       string          `json:"opr"`
	Type      *string         `json:"type,omitempty"`
	To        *string         `json:"to,omitempty"`
	Index     *int64          `json:"index,omitempty"`
	Amount    *int64          `json:"amount,omitempty"`
	Operant   *string         `json:"operant,omitempty"`
	Condition *string         `json:"condition,omitempty"`
	Target    *int64          `json:"target,omitempty"`
	Static    *bool           `json:"static,omitempty"`
	Field     *fieldJSON      `json:"field,omitempty"`
	Class     *string         `json:"class,omitempty"`
	Access    *string         `json:"access,omitempty"`
	Method    *string         `json:"method,omitempty"`
	Value     json.RawMessage `json:"value,omitempty"`
}

type fieldJSON struct {
	Class string `json:"class"`
	Name  string `json:"name"`
	Type  string `json:"type"`
}

type valueJSON struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// DecodeClass parses one decoded class file and returns its methods.
func DecodeClass(data []byte) ([]*Method, error) {
	var doc classJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("class file: %w", err)
	}
	if doc.Name == "" {
		return nil, fmt.Errorf("class file: missing class name")
	}
	methods := make([]*Method, 0, len(doc.Methods))
	for _, mj := range doc.Methods {
		m, err := decodeMethod(doc.Name, mj)
		if err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, nil
}

func decodeMethod(class string, mj methodJSON) (*Method, error) {
	id := MethodID{Class: class, Name: mj.Name, Desc: mj.Descriptor}
	code := make([]Inst, 0, len(mj.Code))
	for pc, ij := range mj.Code {
		in, err := decodeInst(ij)
		if err != nil {
			return nil, fmt.Errorf("%s: pc %d: %w", id, pc, err)
		}
		code = append(code, in)
	}
	m, err := NewMethod(id, mj.Static, mj.MaxLocals, code)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func decodeInst(ij instJSON) (Inst, error) {
	op, ok := OpByName(ij.Opr)
	if !ok {
		return Inst{}, fmt.Errorf("unknown opr %q", ij.Opr)
	}
	switch op {
	case OpPush:
		lit, err := decodeLiteral(ij.Value)
		if err != nil {
			return Inst{}, err
		}
		return Push(lit), nil

	case OpLoad, OpStore:
		t, err := storageType(ij.Type)
		if err != nil {
			return Inst{}, err
		}
		idx, err := index32(ij.Index, "index")
		if err != nil {
			return Inst{}, err
		}
		if op == OpLoad {
			return Load(t, idx), nil
		}
		return Store(t, idx), nil

	case OpIncr:
		idx, err := index32(ij.Index, "index")
		if err != nil {
			return Inst{}, err
		}
		amt, err := index32(ij.Amount, "amount")
		if err != nil {
			return Inst{}, err
		}
		return Incr(idx, amt), nil

	case OpDup:
		return Dup(), nil
	case OpPop:
		return Pop(), nil

	case OpBinary:
		if ij.Operant == nil {
			return Inst{}, fmt.Errorf("binary: missing operant")
		}
		bop, ok := BinOpByName(*ij.Operant)
		if !ok {
			return Inst{}, fmt.Errorf("binary: unknown operant %q", *ij.Operant)
		}
		return Binary(bop), nil

	case OpCast:
		if ij.To == nil {
			return Inst{}, fmt.Errorf("cast: missing target type")
		}
		var to TypeKind
		switch *ij.To {
		case "short":
			to = TypeShort
		case "byte":
			to = TypeByte
		case "char":
			to = TypeChar
		default:
			return Inst{}, fmt.Errorf("cast: unsupported target %q", *ij.To)
		}
		return Cast(to), nil

	case OpIfz, OpIf:
		if ij.Condition == nil {
			return Inst{}, fmt.Errorf("%s: missing condition", op)
		}
		cond, ok := CondByName(*ij.Condition)
		if !ok {
			return Inst{}, fmt.Errorf("%s: unknown condition %q", op, *ij.Condition)
		}
		tgt, err := index32(ij.Target, "target")
		if err != nil {
			return Inst{}, err
		}
		if op == OpIfz {
			return Ifz(cond, tgt), nil
		}
		return If(cond, tgt), nil

	case OpGoto:
		tgt, err := index32(ij.Target, "target")
		if err != nil {
			return Inst{}, err
		}
		return Goto(tgt), nil

	case OpGetStatic:
		if ij.Static != nil && !*ij.Static {
			return Inst{}, fmt.Errorf("get: instance fields are outside the subset")
		}
		if ij.Field == nil {
			return Inst{}, fmt.Errorf("get: missing field")
		}
		ft, err := fieldType(ij.Field.Type)
		if err != nil {
			return Inst{}, err
		}
		return GetStatic(FieldRef{Class: ij.Field.Class, Name: ij.Field.Name, Type: ft}), nil

	case OpNew:
		if ij.Class == nil || *ij.Class == "" {
			return Inst{}, fmt.Errorf("new: missing class")
		}
		return New(*ij.Class), nil

	case OpNewArray, OpArrayLoad, OpArrayStore:
		if ij.Type == nil {
			return Inst{}, fmt.Errorf("%s: missing element type", op)
		}
		elem, ok := ElemTypeByName(*ij.Type)
		if !ok {
			return Inst{}, fmt.Errorf("%s: unsupported element type %q", op, *ij.Type)
		}
		switch op {
		case OpNewArray:
			return NewArray(elem), nil
		case OpArrayLoad:
			return ArrayLoad(elem), nil
		default:
			return ArrayStore(elem), nil
		}

	case OpArrayLength:
		return ArrayLength(), nil

	case OpInvoke:
		if ij.Access == nil {
			return Inst{}, fmt.Errorf("invoke: missing access")
		}
		kind, ok := InvokeByName(*ij.Access)
		if !ok {
			return Inst{}, fmt.Errorf("invoke: unknown access %q", *ij.Access)
		}
		if ij.Method == nil {
			return Inst{}, fmt.Errorf("invoke: missing method")
		}
		ref, err := ParseMethodRef(*ij.Method)
		if err != nil {
			return Inst{}, err
		}
		return InvokeInst(kind, ref), nil

	case OpReturn:
		if ij.Type == nil {
			return Return(TypeVoid), nil
		}
		t, err := storageType(ij.Type)
		if err != nil {
			return Inst{}, err
		}
		return Return(t), nil

	case OpThrow:
		return Throw(), nil
	}
	return Inst{}, fmt.Errorf("unhandled opr %q", ij.Opr)
}

func storageType(name *string) (TypeKind, error) {
	if name == nil {
		return 0, fmt.Errorf("missing type")
	}
	t, ok := TypeByName(*name)
	if !ok || t == TypeVoid {
		return 0, fmt.Errorf("unsupported type %q", *name)
	}
	return t, nil
}

func fieldType(name string) (TypeDesc, error) {
	switch name {
	case "int", "integer":
		return TypeDesc{Kind: TypeInt}, nil
	case "boolean":
		return TypeDesc{Kind: TypeBoolean}, nil
	case "char":
		return TypeDesc{Kind: TypeChar}, nil
	}
	// Descriptor form covers reference-typed fields.
	t, rest, err := parseType(name)
	if err != nil || rest != "" {
		return TypeDesc{}, fmt.Errorf("field type %q not supported", name)
	}
	return t, nil
}

func index32(v *int64, what string) (int32, error) {
	if v == nil {
		return 0, fmt.Errorf("missing %s", what)
	}
	n, err := safecast.Conv[int32](*v)
	if err != nil {
		return 0, fmt.Errorf("%s %d out of range", what, *v)
	}
	return n, nil
}

func decodeLiteral(raw json.RawMessage) (Literal, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return NullLit(), nil
	}
	var vj valueJSON
	if err := json.Unmarshal(raw, &vj); err != nil {
		return Literal{}, fmt.Errorf("push value: %w", err)
	}
	switch vj.Type {
	case "integer", "int":
		var n int64
		if err := json.Unmarshal(vj.Value, &n); err != nil {
			return Literal{}, fmt.Errorf("push integer: %w", err)
		}
		v, err := safecast.Conv[int32](n)
		if err != nil {
			return Literal{}, fmt.Errorf("push integer %d out of range", n)
		}
		return IntLit(v), nil
	case "boolean":
		var b bool
		if err := json.Unmarshal(vj.Value, &b); err != nil {
			return Literal{}, fmt.Errorf("push boolean: %w", err)
		}
		if b {
			return IntLit(1), nil
		}
		return IntLit(0), nil
	case "char":
		var s string
		if err := json.Unmarshal(vj.Value, &s); err != nil {
			return Literal{}, fmt.Errorf("push char: %w", err)
		}
		units := utf16.Encode([]rune(s))
		if len(units) != 1 {
			return Literal{}, fmt.Errorf("push char: %q is not a single code unit", s)
		}
		return IntLit(int32(units[0])), nil
	case "string":
		var s string
		if err := json.Unmarshal(vj.Value, &s); err != nil {
			return Literal{}, fmt.Errorf("push string: %w", err)
		}
		return StringLit(s), nil
	case "ref", "class":
		if string(vj.Value) == "null" || len(vj.Value) == 0 {
			return NullLit(), nil
		}
		return Literal{}, fmt.Errorf("push ref: only null is supported")
	}
	return Literal{}, fmt.Errorf("push value type %q not supported", vj.Type)
}

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

// MarshalClass renders methods of one class back into the class-file form.
// Every method must belong to the named class.
func MarshalClass(class string, methods []*Method) ([]byte, error) {
	doc := classJSON{Name: class}
	for _, m := range methods {
		if m.ID.Class != class {
			return nil, fmt.Errorf("method %s does not belong to class %s", m.ID, class)
		}
		mj := methodJSON{
			Name:       m.ID.Name,
			Descriptor: m.ID.Desc,
			Static:     m.Static,
			MaxLocals:  m.MaxLocals,
			Code:       make([]instJSON, 0, len(m.Code)),
		}
		for _, in := range m.Code {
			ij, err := encodeInst(in)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", m.ID, err)
			}
			mj.Code = append(mj.Code, ij)
		}
		doc.Methods = append(doc.Methods, mj)
	}
	return json.MarshalIndent(doc, "", "  ")
}

func encodeInst(in Inst) (instJSON, error) {
	ij := instJSON{Opr: in.Op.String()}
	switch in.Op {
	case OpPush:
		raw, err := encodeLiteral(in.Lit)
		if err != nil {
			return instJSON{}, err
		}
		ij.Value = raw
	case OpLoad, OpStore:
		ij.Type = strptr(typeShort(in.T))
		ij.Index = i64ptr(in.Index)
	case OpIncr:
		ij.Index = i64ptr(in.Index)
		ij.Amount = i64ptr(in.Amount)
	case OpBinary:
		ij.Type = strptr("int")
		ij.Operant = strptr(in.BinOp.String())
	case OpCast:
		ij.Type = strptr("int")
		ij.To = strptr(typeShort(in.To))
	case OpIfz, OpIf:
		ij.Condition = strptr(in.Cond.String())
		ij.Target = i64ptr(in.Target)
	case OpGoto:
		ij.Target = i64ptr(in.Target)
	case OpGetStatic:
		t := true
		ij.Static = &t
		ij.Field = &fieldJSON{Class: in.Field.Class, Name: in.Field.Name, Type: in.Field.Type.Name()}
	case OpNew:
		ij.Class = strptr(in.Class)
	case OpNewArray, OpArrayLoad, OpArrayStore:
		ij.Type = strptr(typeShort(in.T))
	case OpInvoke:
		ij.Access = strptr(in.Invoke.String())
		ij.Method = strptr(in.Method.Key())
	case OpReturn:
		if in.T != TypeVoid {
			ij.Type = strptr(typeShort(in.T))
		}
	case OpDup, OpPop, OpArrayLength, OpThrow:
		// no operands
	default:
		return instJSON{}, fmt.Errorf("cannot encode %v", in.Op)
	}
	return ij, nil
}

func encodeLiteral(l Literal) (json.RawMessage, error) {
	switch l.Kind {
	case LitNull:
		return json.RawMessage("null"), nil
	case LitInt:
		return json.Marshal(valueJSON{Type: "integer", Value: mustRaw(l.Int)})
	case LitString:
		return json.Marshal(valueJSON{Type: "string", Value: mustRaw(l.Str)})
	}
	return nil, fmt.Errorf("cannot encode literal kind %d", l.Kind)
}

func mustRaw(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}

func strptr(s string) *string { return &s }

func i64ptr(v int32) *int64 {
	n := int64(v)
	return &n
}
