package bytecode

import "testing"

func TestParseSignature(t *testing.T) {
	tests := []struct {
		desc   string
		params int
		ret    TypeKind
	}{
		{"()V", 0, TypeVoid},
		{"()I", 0, TypeInt},
		{"(I)V", 1, TypeVoid},
		{"(IZ)I", 2, TypeInt},
		{"(Ljava/lang/String;)V", 1, TypeVoid},
		{"(Ljava/lang/String;I)Z", 2, TypeBoolean},
		{"([I)V", 1, TypeVoid},
		{"([C[I)V", 2, TypeVoid},
		{"(C)C", 1, TypeChar},
		{"()Ljava/lang/String;", 0, TypeObject},
	}

	for _, tt := range tests {
		sig, err := ParseSignature(tt.desc)
		if err != nil {
			t.Errorf("ParseSignature(%q) error: %v", tt.desc, err)
			continue
		}
		if len(sig.Params) != tt.params {
			t.Errorf("ParseSignature(%q) params = %d, want %d", tt.desc, len(sig.Params), tt.params)
		}
		if sig.Ret.Kind != tt.ret {
			t.Errorf("ParseSignature(%q) ret = %v, want %v", tt.desc, sig.Ret.Kind, tt.ret)
		}
		if got := sig.String(); got != tt.desc {
			t.Errorf("Signature round-trip = %q, want %q", got, tt.desc)
		}
	}
}

func TestParseSignatureErrors(t *testing.T) {
	bad := []string{
		"",
		"I",          // no parameter list
		"(I",         // unterminated
		"()",         // missing return
		"()X",        // unknown type
		"(Lfoo)V",    // unterminated class
		"(J)V",       // long is out of scope
		"()VV",       // trailing garbage
		"(L;)V",      // empty class name
	}
	for _, desc := range bad {
		if _, err := ParseSignature(desc); err == nil {
			t.Errorf("ParseSignature(%q) succeeded, want error", desc)
		}
	}
}

func TestTypeDescString(t *testing.T) {
	str := TypeDesc{Kind: TypeObject, Class: "java/lang/String"}
	if got := str.String(); got != "Ljava/lang/String;" {
		t.Errorf("String() = %q", got)
	}
	arr := TypeDesc{Kind: TypeArray, Elem: &TypeDesc{Kind: TypeChar}}
	if got := arr.String(); got != "[C" {
		t.Errorf("String() = %q", got)
	}
	if got := arr.Name(); got != "char[]" {
		t.Errorf("Name() = %q", got)
	}
	if !arr.IsReference() || !str.IsReference() {
		t.Error("arrays and objects are references")
	}
	if (TypeDesc{Kind: TypeInt}).IsReference() {
		t.Error("int is not a reference")
	}
}

func TestParseMethodID(t *testing.T) {
	id, err := ParseMethodID("jpamb.cases.Strings.stringLength:(Ljava/lang/String;)V")
	if err != nil {
		t.Fatalf("ParseMethodID: %v", err)
	}
	if id.Class != "jpamb/cases/Strings" {
		t.Errorf("Class = %q", id.Class)
	}
	if id.Name != "stringLength" {
		t.Errorf("Name = %q", id.Name)
	}
	if id.Desc != "(Ljava/lang/String;)V" {
		t.Errorf("Desc = %q", id.Desc)
	}
	if got := id.String(); got != "jpamb.cases.Strings.stringLength:(Ljava/lang/String;)V" {
		t.Errorf("String() = %q", got)
	}

	// Slash form parses to the same id.
	id2, err := ParseMethodID("jpamb/cases/Strings.stringLength:(Ljava/lang/String;)V")
	if err != nil {
		t.Fatalf("ParseMethodID slash form: %v", err)
	}
	if id2 != id {
		t.Errorf("slash form parsed to %+v, want %+v", id2, id)
	}
}

func TestParseMethodIDErrors(t *testing.T) {
	bad := []string{
		"",
		"noDescriptor",
		"lonely:()V",              // no class part
		"a.b:(Q)V",                // bad descriptor
		"jpamb.cases.Strings.:()V", // empty member name
	}
	for _, text := range bad {
		if _, err := ParseMethodID(text); err == nil {
			t.Errorf("ParseMethodID(%q) succeeded, want error", text)
		}
	}
}

func TestParseMethodRefInit(t *testing.T) {
	ref, err := ParseMethodRef("java/lang/String.<init>:(Ljava/lang/String;)V")
	if err != nil {
		t.Fatalf("ParseMethodRef: %v", err)
	}
	if ref.Class != "java/lang/String" || ref.Name != "<init>" {
		t.Errorf("ref = %+v", ref)
	}
	if len(ref.Sig.Params) != 1 {
		t.Errorf("params = %d, want 1", len(ref.Sig.Params))
	}
	if got := ref.Key(); got != "java/lang/String.<init>:(Ljava/lang/String;)V" {
		t.Errorf("Key() = %q", got)
	}
}
