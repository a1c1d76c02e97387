package db

import (
	"fmt"
	"strings"
)

// Builder assembles a Table. The first error sticks: later calls are no-ops
// and Build reports it.
type Builder struct {
	t   *Table
	err error
}

// NewBuilder starts an empty table with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{t: &Table{
		Name:       name,
		symbolByID: make(map[string]Symbol),
		byLabel:    make(map[string]*Statement),
	}}
}

func (b *Builder) fail(format string, args ...any) {
	if b.err == nil {
		b.err = fmt.Errorf(format, args...)
	}
}

func (b *Builder) declare(kind SymbolKind, names []string) {
	if b.err != nil {
		return
	}
	var f Formula
	for _, name := range names {
		if name == "" || strings.ContainsAny(name, " \t\r\n") {
			b.fail("invalid math symbol %q", name)
			return
		}
		if _, dup := b.t.symbolByID[name]; dup {
			b.fail("math symbol %q declared twice", name)
			return
		}
		s := Symbol(len(b.t.symbols))
		b.t.symbols = append(b.t.symbols, symbolInfo{Name: name, Kind: kind})
		b.t.symbolByID[name] = s
		f = append(f, s)
	}
	declKind := KindConstantDecl
	if kind == Variable {
		declKind = KindVariableDecl
	}
	b.push(&Statement{Kind: declKind, Formula: f})
}

// Constants declares constant symbols.
func (b *Builder) Constants(names ...string) *Builder {
	b.declare(Constant, names)
	return b
}

// Variables declares variable symbols.
func (b *Builder) Variables(names ...string) *Builder {
	b.declare(Variable, names)
	return b
}

func (b *Builder) push(s *Statement) {
	s.ID = StatementID(len(b.t.statements))
	b.t.statements = append(b.t.statements, s)
	if s.Label != "" {
		b.t.byLabel[s.Label] = s
	}
}

func (b *Builder) labeled(label string) bool {
	if b.err != nil {
		return false
	}
	if label == "" {
		b.fail("statement without a label")
		return false
	}
	if strings.ContainsAny(label, " \t\r\n()?") {
		b.fail("invalid label %q", label)
		return false
	}
	if _, dup := b.t.byLabel[label]; dup {
		b.fail("label %q declared twice", label)
		return false
	}
	if _, clash := b.t.symbolByID[label]; clash {
		b.fail("label %q clashes with a math symbol", label)
		return false
	}
	return true
}

func (b *Builder) formula(label, text string) Formula {
	f, err := b.t.Parse(text)
	if err != nil {
		b.fail("%s: %v", label, err)
		return nil
	}
	if len(f) == 0 {
		b.fail("%s: empty formula", label)
		return nil
	}
	if b.t.IsVariable(f[0]) {
		b.fail("%s: formula must start with a constant", label)
		return nil
	}
	return f
}

// Floating adds a floating hypothesis "typecode variable".
func (b *Builder) Floating(label, text string) *Builder {
	if !b.labeled(label) {
		return b
	}
	f := b.formula(label, text)
	if f == nil {
		return b
	}
	if len(f) != 2 || !b.t.IsVariable(f[1]) {
		b.fail("%s: floating hypothesis must be a constant followed by a variable", label)
		return b
	}
	b.push(&Statement{Label: label, Kind: KindFloating, Formula: f})
	return b
}

// Essential adds an essential hypothesis.
func (b *Builder) Essential(label, text string) *Builder {
	if !b.labeled(label) {
		return b
	}
	if f := b.formula(label, text); f != nil {
		b.push(&Statement{Label: label, Kind: KindEssential, Formula: f})
	}
	return b
}

// Frame lists what an assertion depends on.
type Frame struct {
	// Hyps are the required hypothesis labels in stack order.
	Hyps []string
	// Optional are hypothesis labels a proof may use without requiring them.
	Optional []string
	// Disjoint are declared disjoint variable groups; every two distinct
	// variables of a group must be disjoint.
	Disjoint [][]string
}

// Axiom adds an axiom.
func (b *Builder) Axiom(label, text string, frame Frame) *Builder {
	b.assertion(label, KindAxiom, text, frame, "")
	return b
}

// Theorem adds a theorem together with its raw proof text.
func (b *Builder) Theorem(label, text string, frame Frame, proof string) *Builder {
	b.assertion(label, KindTheorem, text, frame, proof)
	return b
}

func (b *Builder) assertion(label string, kind Kind, text string, frame Frame, proof string) {
	if !b.labeled(label) {
		return
	}
	f := b.formula(label, text)
	if f == nil {
		return
	}
	s := &Statement{Label: label, Kind: kind, Formula: f, ProofText: proof}

	floats := make(map[Symbol]bool)
	for _, hl := range frame.Hyps {
		h, ok := b.hypothesis(label, hl)
		if !ok {
			return
		}
		s.Hyps = append(s.Hyps, h.ID)
		if h.Kind == KindFloating {
			v := h.Formula[1]
			if floats[v] {
				b.fail("%s: variable %q has two floating hypotheses", label, b.t.SymbolName(v))
				return
			}
			floats[v] = true
			s.Vars = append(s.Vars, v)
		}
	}
	for _, hl := range frame.Optional {
		h, ok := b.hypothesis(label, hl)
		if !ok {
			return
		}
		if s.HypIndex(h.ID) >= 0 {
			b.fail("%s: hypothesis %q is both required and optional", label, hl)
			return
		}
		s.OptHyps = append(s.OptHyps, h.ID)
	}

	// every variable of the assertion and its essential hypotheses needs a float
	check := func(g Formula) bool {
		for _, sym := range g {
			if b.t.IsVariable(sym) && !floats[sym] {
				b.fail("%s: variable %q has no required floating hypothesis", label, b.t.SymbolName(sym))
				return false
			}
		}
		return true
	}
	if !check(f) {
		return
	}
	for _, id := range s.Hyps {
		if h := b.t.statements[id]; h.Kind == KindEssential && !check(h.Formula) {
			return
		}
	}

	seen := make(map[Pair]bool)
	for _, group := range frame.Disjoint {
		syms := make([]Symbol, 0, len(group))
		for _, name := range group {
			v, ok := b.t.Symbol(name)
			if !ok || !b.t.IsVariable(v) {
				b.fail("%s: disjoint variable %q is not a declared variable", label, name)
				return
			}
			syms = append(syms, v)
		}
		for i := range syms {
			for j := i + 1; j < len(syms); j++ {
				if syms[i] == syms[j] {
					b.fail("%s: variable %q is disjoint from itself", label, b.t.SymbolName(syms[i]))
					return
				}
				p := NewPair(syms[i], syms[j])
				if seen[p] {
					continue
				}
				seen[p] = true
				if floats[p.A] && floats[p.B] {
					s.Disjoint = append(s.Disjoint, p)
				} else {
					s.OptDisjoint = append(s.OptDisjoint, p)
				}
			}
		}
	}
	b.push(s)
}

func (b *Builder) hypothesis(owner, label string) (*Statement, bool) {
	h, ok := b.t.byLabel[label]
	if !ok {
		b.fail("%s: unknown hypothesis %q", owner, label)
		return nil, false
	}
	if !h.IsHypothesis() {
		b.fail("%s: %q is not a hypothesis", owner, label)
		return nil, false
	}
	return h, true
}

// Build returns the finished table or the first recorded error.
func (b *Builder) Build() (*Table, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.t, nil
}
