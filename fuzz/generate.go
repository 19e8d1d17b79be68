package fuzz

import (
	"math/rand"

	"javelin/bytecode"
	"javelin/vm"
)

// Generation and mutation bounds.
const (
	intLo, intHi   = -100, 100
	charLo, charHi = 32, 126 // printable ASCII
	maxStringLen   = 20
	maxArrayLen    = 8
	maxMutations   = 8

	// harvestProb is the chance a string mutation substitutes a
	// comparison operand seen in an earlier run instead of editing.
	harvestProb = 0.1
)

var intDeltas = [...]int32{-10, -1, 1, 10, 42, -42}
var charDeltas = [...]int32{-1, 1, 5, -5}

// kindFor maps a parameter type to its generator kind, nil when the type
// is not fuzzable.
func kindFor(t bytecode.TypeDesc) func(*Fuzzer) vm.Arg {
	switch t.Kind {
	case bytecode.TypeInt, bytecode.TypeByte, bytecode.TypeShort:
		return (*Fuzzer).genInt
	case bytecode.TypeBoolean:
		return (*Fuzzer).genBool
	case bytecode.TypeChar:
		return (*Fuzzer).genChar
	case bytecode.TypeObject:
		if t.Class == "java/lang/String" {
			return (*Fuzzer).genString
		}
	case bytecode.TypeArray:
		if t.Elem == nil {
			return nil
		}
		switch t.Elem.Kind {
		case bytecode.TypeInt:
			return (*Fuzzer).genIntArray
		case bytecode.TypeChar:
			return (*Fuzzer).genCharArray
		}
	}
	return nil
}

// generate draws a fresh input tuple for the target signature.
func (f *Fuzzer) generate() []vm.Arg {
	args := make([]vm.Arg, len(f.method.Sig.Params))
	for i, p := range f.method.Sig.Params {
		args[i] = kindFor(p)(f)
	}
	return args
}

func (f *Fuzzer) genInt() vm.Arg {
	return vm.IntArg(int32(f.rng.Intn(intHi-intLo+1)) + intLo)
}

func (f *Fuzzer) genBool() vm.Arg {
	return vm.BoolArg(f.rng.Intn(2) == 1)
}

func (f *Fuzzer) genChar() vm.Arg {
	return vm.CharArg(uint16(randChar(f.rng)))
}

func (f *Fuzzer) genString() vm.Arg {
	n := f.rng.Intn(maxStringLen + 1)
	b := make([]byte, n)
	for i := range b {
		b[i] = randChar(f.rng)
	}
	return vm.StringArg(string(b))
}

func (f *Fuzzer) genIntArray() vm.Arg {
	n := f.rng.Intn(maxArrayLen + 1)
	vs := make([]int32, n)
	for i := range vs {
		vs[i] = int32(f.rng.Intn(intHi-intLo+1)) + intLo
	}
	return vm.IntArrayArg(vs...)
}

func (f *Fuzzer) genCharArray() vm.Arg {
	n := f.rng.Intn(maxArrayLen + 1)
	b := make([]byte, n)
	for i := range b {
		b[i] = randChar(f.rng)
	}
	return vm.CharArrayArg(string(b))
}

func randChar(rng *rand.Rand) byte {
	return byte(rng.Intn(charHi-charLo+1) + charLo)
}

// mutate derives a child testcase by applying 1..maxMutations point
// mutations to a copy of the parent's inputs.
func (f *Fuzzer) mutate(parent testcase) testcase {
	inputs := make([]vm.Arg, len(parent.inputs))
	copy(inputs, parent.inputs)
	if len(inputs) > 0 {
		n := 1 + f.rng.Intn(maxMutations)
		for i := 0; i < n; i++ {
			idx := f.rng.Intn(len(inputs))
			inputs[idx] = f.mutateArg(inputs[idx])
		}
	}
	return testcase{inputs: inputs, depth: parent.depth + 1}
}

func (f *Fuzzer) mutateArg(a vm.Arg) vm.Arg {
	switch a.Kind {
	case vm.ArgInt:
		return vm.IntArg(a.Int + intDeltas[f.rng.Intn(len(intDeltas))])

	case vm.ArgBool:
		return vm.BoolArg(a.Int == 0)

	case vm.ArgChar:
		c := a.Int + charDeltas[f.rng.Intn(len(charDeltas))]
		if c < charLo {
			c = charLo
		}
		if c > charHi {
			c = charHi
		}
		return vm.CharArg(uint16(c))

	case vm.ArgString:
		if len(f.harvested) > 0 && f.rng.Float64() < harvestProb {
			return vm.StringArg(f.harvested[f.rng.Intn(len(f.harvested))])
		}
		return vm.StringArg(f.mutateText(a.Str))

	case vm.ArgIntArray:
		return vm.IntArrayArg(f.mutateInts(a.Ints, func() int32 {
			return int32(f.rng.Intn(intHi-intLo+1)) + intLo
		}, func(v int32) int32 {
			return v + intDeltas[f.rng.Intn(len(intDeltas))]
		})...)

	case vm.ArgCharArray:
		units := f.mutateInts(a.Ints, func() int32 {
			return int32(randChar(f.rng))
		}, func(v int32) int32 {
			c := v + charDeltas[f.rng.Intn(len(charDeltas))]
			if c < charLo {
				c = charLo
			}
			if c > charHi {
				c = charHi
			}
			return c
		})
		b := make([]byte, len(units))
		for i, u := range units {
			b[i] = byte(u)
		}
		return vm.CharArrayArg(string(b))
	}
	return a
}

// mutateText inserts or replaces one printable character.
func (f *Fuzzer) mutateText(s string) string {
	if len(s) == 0 || f.rng.Float64() < 0.5 {
		pos := f.rng.Intn(len(s) + 1)
		return s[:pos] + string(randChar(f.rng)) + s[pos:]
	}
	pos := f.rng.Intn(len(s))
	return s[:pos] + string(randChar(f.rng)) + s[pos+1:]
}

// mutateInts edits one element, or grows or shrinks the array by one.
func (f *Fuzzer) mutateInts(vs []int32, fresh func() int32, edit func(int32) int32) []int32 {
	out := make([]int32, len(vs))
	copy(out, vs)
	switch {
	case len(out) == 0 || f.rng.Float64() < 0.2:
		return append(out, fresh())
	case f.rng.Float64() < 0.2:
		return out[:len(out)-1]
	default:
		i := f.rng.Intn(len(out))
		out[i] = edit(out[i])
		return out
	}
}
