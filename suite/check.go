package suite

import (
	"golang.org/x/sync/errgroup"

	"javelin/bytecode"
	"javelin/cases"
	"javelin/vm"
)

// Run executes one method of the suite on the given arguments. A zero
// MaxSteps in opts falls back to the manifest's default budget.
func (s *Suite) Run(id bytecode.MethodID, args []vm.Arg, opts vm.Options) (vm.Outcome, error) {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = s.Manifest.Run.MaxSteps
	}
	return vm.New(s.Program, opts).Run(id, args)
}

// CheckResult is the verdict for one case: the label the run actually
// produced against the label the case expects.
type CheckResult struct {
	Case  cases.Case
	Label string
	Steps int
}

// Pass reports whether the observed label satisfies the expectation.
func (r CheckResult) Pass() bool { return r.Case.Accepts(r.Label) }

// Check runs the registered cases for the given methods (all methods
// when ids is empty) and reports one result per case, in registry order.
// jobs bounds the number of cases run concurrently; each worker gets its
// own machine over the shared program. An internal interpreter fault
// aborts the check with an error, it is never scored as a failed case.
func (s *Suite) Check(ids []bytecode.MethodID, opts vm.Options, jobs int) ([]CheckResult, error) {
	var selected []cases.Case
	if len(ids) == 0 {
		selected = s.Cases.All()
	} else {
		for _, id := range ids {
			selected = append(selected, s.Cases.ForMethod(id)...)
		}
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = s.Manifest.Run.MaxSteps
	}
	if jobs <= 0 {
		jobs = 1
	}

	results := make([]CheckResult, len(selected))
	var g errgroup.Group
	g.SetLimit(jobs)
	for i, c := range selected {
		g.Go(func() error {
			out, err := vm.New(s.Program, opts).Run(c.Method, c.Inputs)
			if err != nil {
				return err
			}
			results[i] = CheckResult{Case: c, Label: out.Label(), Steps: out.Steps}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
