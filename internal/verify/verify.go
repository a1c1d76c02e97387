package verify

import (
	"errors"
	"fmt"

	"github.com/gnoverse/tverify/internal/db"
	"github.com/gnoverse/tverify/internal/proof"
	tt "github.com/gnoverse/tverify/internal/types"
	"github.com/gnoverse/tverify/internal/unify"
)

// Reporter receives the diagnostics of a verification.
type Reporter interface {
	Report(issue tt.Issue)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(tt.Issue)

func (f ReporterFunc) Report(issue tt.Issue) { f(issue) }

// Inspection is the substitution detail recorded for one step.
type Inspection struct {
	Step int
	// Assertion is the label applied at Step; empty when the step pushed a
	// hypothesis, reused a step or is unknown.
	Assertion string
	Subst     unify.Substitution

	// Parent* describe the later assertion that consumed Step as an
	// operand. ParentStep is -1 when no assertion consumed it.
	ParentStep      int
	ParentAssertion string
	ParentHyp       string
	ParentSubst     unify.Substitution
}

// Run is the state and outcome of verifying one proof.
type Run struct {
	Theorem *db.Statement
	Proof   proof.Proof
	// Steps holds the formula computed by each step. An empty formula
	// marks an unknown or failed step.
	Steps   []db.Formula
	Verdict tt.Severity
	// Issues are the reported diagnostics: the decode error or the first
	// proof error. ErrorCount counts every error.
	Issues       []tt.Issue
	ErrorCount   int
	Unifications int
	Backtracks   int
	Inspection   *Inspection
}

// Suppressed returns the number of errors that were counted but not reported.
func (r *Run) Suppressed() int {
	if r.ErrorCount <= 1 {
		return 0
	}
	return r.ErrorCount - 1
}

// Result summarizes the run.
func (r *Run) Result() tt.Result {
	return tt.Result{
		Label:      r.Theorem.Label,
		Verdict:    r.Verdict,
		Steps:      len(r.Proof),
		Issues:     r.Issues,
		Suppressed: r.Suppressed(),
	}
}

// Verifier checks theorem proofs against a table.
type Verifier struct {
	t        *db.Table
	u        *unify.Unifier
	reporter Reporter
	inspect  int
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithReporter sets the diagnostics sink.
func WithReporter(r Reporter) Option {
	return func(v *Verifier) { v.reporter = r }
}

// WithInspect records the substitution detail of step.
func WithInspect(step int) Option {
	return func(v *Verifier) { v.inspect = step }
}

// WithUnifier replaces the default unifier.
func WithUnifier(u *unify.Unifier) Option {
	return func(v *Verifier) { v.u = u }
}

// New returns a Verifier for t.
func New(t *db.Table, opts ...Option) *Verifier {
	v := &Verifier{t: t, inspect: -1}
	for _, opt := range opts {
		opt(v)
	}
	if v.u == nil {
		v.u = unify.New(t)
	}
	return v
}

// Verify decodes and checks th's proof. A decode failure yields a Severe
// verdict without running the proof.
func (v *Verifier) Verify(th *db.Statement) (*Run, error) {
	if th.Kind != db.KindTheorem {
		return nil, fmt.Errorf("%s is a %s, not a theorem", th.Label, th.Kind)
	}
	p, err := proof.Decode(v.t, th)
	if err != nil {
		var de *proof.DecodeError
		if !errors.As(err, &de) {
			return nil, err
		}
		run := &Run{Theorem: th, Verdict: tt.SeveritySevere}
		issue := v.issue(th, tt.RuleDecodeError, -1, "", de.Msg, tt.SeveritySevere)
		issue.Note = fmt.Sprintf("at offset %d of the proof text", de.Offset)
		run.Issues = append(run.Issues, issue)
		v.report(issue)
		return run, nil
	}
	return v.VerifyProof(th, p)
}

// VerifyProof checks an already decoded proof. It returns an error only
// when p is malformed in a way the decoder never produces.
func (v *Verifier) VerifyProof(th *db.Statement, p proof.Proof) (*Run, error) {
	run := &Run{
		Theorem: th,
		Proof:   p,
		Steps:   make([]db.Formula, len(p)),
		Verdict: tt.SeverityOk,
	}
	if v.inspect >= 0 && v.inspect < len(p) {
		run.Inspection = &Inspection{Step: v.inspect, ParentStep: -1}
	}
	if len(p) == 0 {
		return nil, fmt.Errorf("%s: empty proof", th.Label)
	}

	stack := make([]int, 0, len(p))
	for i, in := range p {
		switch in.Kind {
		case proof.Unknown:
			run.Verdict = run.Verdict.Worse(tt.SeverityIncomplete)

		case proof.LocalLabel:
			if in.Step < 0 || in.Step >= i {
				return nil, fmt.Errorf("%s: step %d reuses step %d", th.Label, i, in.Step)
			}
			run.Steps[i] = run.Steps[in.Step]

		case proof.Reference:
			s := v.t.Statement(in.Stmt)
			if s == nil {
				return nil, fmt.Errorf("%s: step %d references unknown statement %d", th.Label, i, in.Stmt)
			}
			if s.IsHypothesis() {
				run.Steps[i] = s.Formula
				break
			}
			if !s.IsAssertion() {
				return nil, fmt.Errorf("%s: step %d references %s %q", th.Label, i, s.Kind, s.Label)
			}
			k := len(s.Hyps)
			if len(stack) < k {
				v.fail(run, tt.RuleStackUnderflow, i, s.Label,
					fmt.Sprintf("%q needs %d hypotheses but the stack holds %d", s.Label, k, len(stack)), "")
				stack = stack[:0]
				break
			}
			operands := stack[len(stack)-k:]
			run.Steps[i] = v.apply(run, i, s, operands)
			stack = stack[:len(stack)-k]

		default:
			return nil, fmt.Errorf("%s: step %d has invalid instruction kind %d", th.Label, i, in.Kind)
		}
		stack = append(stack, i)
	}

	// entries left below the final one are ignored: only the last step's
	// formula has to match
	final := run.Steps[len(p)-1]
	switch {
	case final.Unknown():
		run.Verdict = run.Verdict.Worse(tt.SeverityIncomplete)
	case !final.Equal(th.Formula):
		v.fail(run, tt.RuleResultMismatch, len(p)-1, "",
			fmt.Sprintf("proof proves %q instead of %q", v.t.Render(final), v.t.Render(th.Formula)), "")
	}
	return run, nil
}

// apply unifies the operands with s's hypotheses and returns the step
// result. Failures are recorded on run and yield the empty formula.
func (v *Verifier) apply(run *Run, step int, s *db.Statement, operands []int) db.Formula {
	req := unify.Request{
		Assertion: s,
		Theorem:   run.Theorem,
		Step:      step,
		Patterns:  make([]db.Formula, len(operands)),
		Instances: make([]db.Formula, len(operands)),
	}
	for h, op := range operands {
		req.Patterns[h] = v.t.Statement(s.Hyps[h]).Formula
		req.Instances[h] = run.Steps[op]
		if run.Steps[op].Unknown() {
			req.UnknownOperand = true
		}
	}

	res, err := v.u.Unify(req)
	run.Unifications++
	run.Backtracks += res.Backtracks

	if ins := run.Inspection; ins != nil {
		if ins.Step == step {
			ins.Assertion = s.Label
			ins.Subst = res.Subst
		}
		for h, op := range operands {
			if op == ins.Step {
				ins.ParentStep = step
				ins.ParentAssertion = s.Label
				ins.ParentHyp = v.t.Statement(s.Hyps[h]).Label
				ins.ParentSubst = res.Subst
			}
		}
	}

	if err != nil {
		v.fail(run, ruleOf(err), step, s.Label, err.Error(), suggestionOf(err))
		return nil
	}
	return res.Formula
}

func ruleOf(err error) string {
	var (
		ambiguous *unify.AmbiguousError
		disjoint  *unify.DisjointError
	)
	switch {
	case errors.As(err, &ambiguous):
		return tt.RuleAmbiguousUnification
	case errors.As(err, &disjoint):
		return tt.RuleDisjointViolation
	default:
		return tt.RuleUnificationFailure
	}
}

func suggestionOf(err error) string {
	var disjoint *unify.DisjointError
	if errors.As(err, &disjoint) && !disjoint.Same() {
		return fmt.Sprintf("declare [%s, %s] under disjoint of %s", disjoint.X, disjoint.Y, disjoint.Theorem)
	}
	return ""
}

// fail counts an error and reports it when it is the first one of the run.
func (v *Verifier) fail(run *Run, rule string, step int, applied, msg, suggestion string) {
	run.ErrorCount++
	run.Verdict = run.Verdict.Worse(tt.SeverityError)
	if run.ErrorCount > 1 {
		return
	}
	issue := v.issue(run.Theorem, rule, step, applied, msg, tt.SeverityError)
	issue.Suggestion = suggestion
	run.Issues = append(run.Issues, issue)
	v.report(issue)
}

func (v *Verifier) issue(th *db.Statement, rule string, step int, applied, msg string, sev tt.Severity) tt.Issue {
	return tt.Issue{
		Rule:     rule,
		Category: "proof",
		Database: v.t.Name,
		Label:    th.Label,
		Step:     step,
		Applied:  applied,
		Message:  msg,
		Severity: sev,
	}
}

func (v *Verifier) report(issue tt.Issue) {
	if v.reporter != nil {
		v.reporter.Report(issue)
	}
}
