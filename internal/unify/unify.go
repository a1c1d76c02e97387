// Package unify matches assertion hypotheses against the formulas on the
// proof stack.
//
// Patterns and instances are joined pairwise with db.Separator and matched
// as one sequence. Variables are bound to windows of the instance in order
// of first occurrence; each window starts with one token and grows only
// when the rest of the scheme cannot be matched, so the first solution
// found is the shortest one in first-occurrence order. The search then
// continues for a second solution to detect ambiguity.
package unify

import (
	"github.com/gnoverse/tverify/internal/db"
)

// Request describes one assertion application.
type Request struct {
	// Assertion is the axiom or theorem being applied.
	Assertion *db.Statement
	// Theorem is the statement whose proof is being verified.
	Theorem *db.Statement
	Step    int
	// Patterns are the formulas of Assertion's required hypotheses and
	// Instances the matching stack entries, in the same order.
	Patterns  []db.Formula
	Instances []db.Formula
	// UnknownOperand is set when some instance is the result of an
	// unfinished step.
	UnknownOperand bool
}

// Result is a successful unification.
type Result struct {
	// Formula is the substituted conclusion. It is empty when an unknown
	// operand left a conclusion variable unbound.
	Formula db.Formula
	Subst   Substitution
	// Backtracks counts abandoned window assignments.
	Backtracks int
}

// Unifier holds the table and the checks to run. It keeps no per-call
// state and may be shared between goroutines.
type Unifier struct {
	t             *db.Table
	checkDisjoint bool
}

// Option configures a Unifier.
type Option func(*Unifier)

// WithDisjointCheck enables or disables the disjoint-variable check.
func WithDisjointCheck(on bool) Option {
	return func(u *Unifier) { u.checkDisjoint = on }
}

// New returns a Unifier for t.
func New(t *db.Table, opts ...Option) *Unifier {
	u := &Unifier{t: t, checkDisjoint: true}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

type window struct {
	start, length int
}

// matcher is the scratch state of one search.
type matcher struct {
	t          *db.Table
	scheme     []db.Symbol
	inst       []db.Symbol
	bound      map[db.Symbol]window
	order      []db.Symbol
	solutions  []Substitution
	limit      int
	backtracks int
}

func newMatcher(t *db.Table, patterns, instances []db.Formula, limit int) *matcher {
	m := &matcher{t: t, bound: make(map[db.Symbol]window), limit: limit}
	for i := range patterns {
		if i > 0 {
			m.scheme = append(m.scheme, db.Separator)
			m.inst = append(m.inst, db.Separator)
		}
		m.scheme = append(m.scheme, patterns[i]...)
		m.inst = append(m.inst, instances[i]...)
	}
	return m
}

// run searches from the start and reports whether at least one solution
// was found.
func (m *matcher) run() bool {
	m.match(0, 0)
	return len(m.solutions) > 0
}

// match extends the current bindings from scheme position si and instance
// position ii. It returns true once enough solutions are collected.
func (m *matcher) match(si, ii int) bool {
	if si == len(m.scheme) {
		if ii != len(m.inst) {
			return false
		}
		m.record()
		return len(m.solutions) >= m.limit
	}

	sym := m.scheme[si]
	if !m.t.IsVariable(sym) {
		if ii < len(m.inst) && m.inst[ii] == sym {
			return m.match(si+1, ii+1)
		}
		return false
	}

	if w, ok := m.bound[sym]; ok {
		if ii+w.length > len(m.inst) {
			return false
		}
		for k := 0; k < w.length; k++ {
			if m.inst[ii+k] != m.inst[w.start+k] {
				return false
			}
		}
		return m.match(si+1, ii+w.length)
	}

	m.order = append(m.order, sym)
	for n := 1; ii+n <= len(m.inst) && m.inst[ii+n-1] != db.Separator; n++ {
		m.bound[sym] = window{start: ii, length: n}
		if m.match(si+1, ii+n) {
			return true
		}
		m.backtracks++
	}
	delete(m.bound, sym)
	m.order = m.order[:len(m.order)-1]
	return false
}

func (m *matcher) record() {
	s := make(Substitution, 0, len(m.order))
	for _, v := range m.order {
		w := m.bound[v]
		val := make(db.Formula, w.length)
		copy(val, m.inst[w.start:w.start+w.length])
		s = append(s, Binding{Var: v, Start: w.start, Len: w.length, Value: val})
	}
	m.solutions = append(m.solutions, s)
}

// Unify finds the unique substitution turning req.Patterns into
// req.Instances and applies it to the assertion's conclusion.
func (u *Unifier) Unify(req Request) (Result, error) {
	patterns, instances := req.Patterns, req.Instances
	if req.UnknownOperand {
		patterns, instances = nil, nil
		for i := range req.Instances {
			if req.Instances[i].Unknown() {
				continue
			}
			patterns = append(patterns, req.Patterns[i])
			instances = append(instances, req.Instances[i])
		}
	}

	m := newMatcher(u.t, patterns, instances, 2)
	if !m.run() {
		if req.UnknownOperand {
			return Result{Backtracks: m.backtracks}, nil
		}
		return Result{Backtracks: m.backtracks}, u.mismatch(req)
	}

	subst := m.solutions[0]
	res := Result{Subst: subst, Backtracks: m.backtracks}
	if len(m.solutions) > 1 {
		if req.UnknownOperand {
			return res, nil
		}
		first, _ := subst.Apply(u.t, req.Assertion.Formula)
		second, _ := m.solutions[1].Apply(u.t, req.Assertion.Formula)
		return res, &AmbiguousError{
			Assertion:    req.Assertion.Label,
			Step:         req.Step,
			First:        subst.Render(u.t),
			Second:       m.solutions[1].Render(u.t),
			FirstResult:  u.t.Render(first),
			SecondResult: u.t.Render(second),
		}
	}

	if u.checkDisjoint {
		if err := u.checkDisjointVars(req, subst); err != nil {
			return res, err
		}
	}

	if f, ok := subst.Apply(u.t, req.Assertion.Formula); ok {
		res.Formula = f
	} else if !req.UnknownOperand {
		return res, u.mismatch(req)
	}
	return res, nil
}

// mismatch locates the first hypothesis that cannot be matched together
// with the ones before it.
func (u *Unifier) mismatch(req Request) error {
	culprit := len(req.Patterns) - 1
	for i := 1; i <= len(req.Patterns); i++ {
		if !newMatcher(u.t, req.Patterns[:i], req.Instances[:i], 1).run() {
			culprit = i - 1
			break
		}
	}
	e := &MismatchError{Assertion: req.Assertion.Label, Step: req.Step}
	if culprit < 0 {
		e.Pattern = u.t.Render(req.Assertion.Formula)
		return e
	}
	if culprit < len(req.Assertion.Hyps) {
		e.Hyp = u.t.Statement(req.Assertion.Hyps[culprit]).Label
	}
	e.Pattern = u.t.Render(req.Patterns[culprit])
	e.Instance = u.t.Render(req.Instances[culprit])
	return e
}
