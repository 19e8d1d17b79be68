// Package fuzz searches a method's input space for non-ok outcomes,
// calling the interpreter as a black-box oracle and steering by branch
// coverage.
package fuzz

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/tliron/commonlog"

	"javelin/bytecode"
	"javelin/vm"
)

var log = commonlog.GetLogger("javelin.fuzz")

// Options bound a fuzzing campaign. Zero fields take the defaults.
type Options struct {
	MaxSteps   int   // per-run step budget
	MaxIters   int   // campaign length in runs
	Seed       int64 // PRNG seed; campaigns with equal seeds are identical
	CorpusSize int   // corpus high-water mark

	// OnTrial observes every completed run, before the campaign reacts
	// to it. Nil observes nothing.
	OnTrial func(inputs []vm.Arg, out vm.Outcome)
}

const (
	DefaultMaxIters   = 1000
	DefaultSeed       = 1337
	DefaultCorpusSize = 128
)

// Report is the result of a campaign: the first non-ok label found with
// the inputs that produced it, or "ok" after the iteration budget.
type Report struct {
	Label      string
	Inputs     []vm.Arg
	Iterations int
	Score      int // best coverage score seen
}

type testcase struct {
	inputs []vm.Arg
	score  int
	depth  int
}

// Fuzzer drives one campaign against one method. Not safe for concurrent
// use.
type Fuzzer struct {
	prog   *bytecode.Program
	method *bytecode.Method
	opts   Options
	rng    *rand.Rand

	global    Coverage
	corpus    []testcase
	harvested []string // string-comparison operands seen in past runs
}

// New prepares a campaign. Methods with parameter types outside the
// fuzzable set (int, boolean, char, String, int[], char[]) are rejected.
func New(prog *bytecode.Program, id bytecode.MethodID, opts Options) (*Fuzzer, error) {
	m, ok := prog.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("fuzz: method %s is not in the program", id)
	}
	for _, p := range m.Sig.Params {
		if kindFor(p) == nil {
			return nil, fmt.Errorf("fuzz: cannot generate %s parameters of %s", p.Name(), id)
		}
	}
	if opts.MaxIters <= 0 {
		opts.MaxIters = DefaultMaxIters
	}
	if opts.Seed == 0 {
		opts.Seed = DefaultSeed
	}
	if opts.CorpusSize <= 0 {
		opts.CorpusSize = DefaultCorpusSize
	}
	return &Fuzzer{
		prog:   prog,
		method: m,
		opts:   opts,
		rng:    rand.New(rand.NewSource(opts.Seed)),
	}, nil
}

// Run executes the campaign: seed the corpus, then mutate-and-run until
// a non-ok label appears or the iteration budget runs out.
func (f *Fuzzer) Run() (Report, error) {
	f.corpus = append(f.corpus[:0], testcase{inputs: f.generate()})
	log.Infof("fuzzing %s: %d iters, seed %d", f.method.ID, f.opts.MaxIters, f.opts.Seed)

	best := 0
	for iter := 1; iter <= f.opts.MaxIters; iter++ {
		child := f.mutate(f.pickParent())

		var local Coverage
		tr := &runTracer{cov: &local}
		out, err := vm.New(f.prog, vm.Options{
			MaxSteps: f.opts.MaxSteps,
			Tracer:   tr,
		}).Run(f.method.ID, child.inputs)
		if err != nil {
			return Report{}, err
		}
		if f.opts.OnTrial != nil {
			f.opts.OnTrial(child.inputs, out)
		}
		f.harvested = append(f.harvested, tr.strings...)

		if f.global.Absorb(&local) {
			child.score = local.Score()
			if child.score > best {
				best = child.score
			}
			f.corpus = append(f.corpus, child)
			log.Infof("[%d] interesting testcase (score=%d, depth=%d, corpus=%d)",
				iter, child.score, child.depth, len(f.corpus))
			f.prune()
		}

		if label := out.Label(); label != vm.LabelOk {
			log.Infof("[%d] found %q", iter, label)
			return Report{Label: label, Inputs: child.inputs, Iterations: iter, Score: best}, nil
		}
	}
	return Report{Label: vm.LabelOk, Iterations: f.opts.MaxIters, Score: best}, nil
}

// pickParent selects a corpus entry, favoring the best scorer with
// probability 0.7 and exploring a lower scorer otherwise.
func (f *Fuzzer) pickParent() testcase {
	if len(f.corpus) == 0 {
		return testcase{inputs: f.generate()}
	}
	max := 0
	for _, tc := range f.corpus {
		if tc.score > max {
			max = tc.score
		}
	}
	var bestPool, rest []testcase
	for _, tc := range f.corpus {
		if tc.score == max {
			bestPool = append(bestPool, tc)
		} else {
			rest = append(rest, tc)
		}
	}
	best := bestPool[f.rng.Intn(len(bestPool))]
	if len(rest) == 0 || f.rng.Float64() < 0.7 {
		return best
	}
	return rest[f.rng.Intn(len(rest))]
}

// prune keeps the best-scoring entries once the corpus overflows.
func (f *Fuzzer) prune() {
	if len(f.corpus) <= f.opts.CorpusSize {
		return
	}
	sort.SliceStable(f.corpus, func(i, j int) bool {
		return f.corpus[i].score > f.corpus[j].score
	})
	f.corpus = f.corpus[:f.opts.CorpusSize]
}

// runTracer feeds executed locations into a per-run coverage map and
// harvests the operands of string comparisons for later wholesale
// substitution.
type runTracer struct {
	cov     *Coverage
	strings []string
}

func (t *runTracer) Step(m *bytecode.Method, pc int, in bytecode.Inst) {
	t.cov.Hit(m.ID.Key(), pc)
}

func (t *runTracer) IntCompare(m *bytecode.Method, pc int, a, b int32) {}

func (t *runTracer) StringCompare(m *bytecode.Method, pc int, recv, arg string, fold bool) {
	t.strings = append(t.strings, recv, arg)
}
