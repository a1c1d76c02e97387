package db

// Kind is the kind of a declared statement.
type Kind int

const (
	KindConstantDecl Kind = iota
	KindVariableDecl
	KindDisjointDecl
	KindFloating
	KindEssential
	KindAxiom
	KindTheorem
	KindScopeOpen
	KindScopeClose
)

var kindNames = map[Kind]string{
	KindConstantDecl: "constant",
	KindVariableDecl: "variable",
	KindDisjointDecl: "disjoint",
	KindFloating:     "floating",
	KindEssential:    "essential",
	KindAxiom:        "axiom",
	KindTheorem:      "theorem",
	KindScopeOpen:    "scope-open",
	KindScopeClose:   "scope-close",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind maps a kind name back to its Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// StatementID is the position of a statement in its table.
// Statements may only refer to statements with a smaller ID.
type StatementID int

// Pair is an unordered pair of distinct variables.
type Pair struct {
	A, B Symbol
}

// NewPair normalizes the order so that equal pairs compare equal.
func NewPair(a, b Symbol) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// Statement is one declared entity.
type Statement struct {
	ID      StatementID
	Label   string
	Kind    Kind
	Formula Formula

	// Hyps lists the required hypotheses in the order their operands
	// must appear on the proof stack.
	Hyps []StatementID
	// OptHyps are hypotheses a proof may use without them being required.
	OptHyps []StatementID
	// Vars are the required variables.
	Vars []Symbol
	// Disjoint are the required disjoint-variable pairs.
	Disjoint []Pair
	// OptDisjoint are pairs declared for the statement that are not required.
	OptDisjoint []Pair

	ProofText string
}

// IsHypothesis reports whether s is a floating or essential hypothesis.
func (s *Statement) IsHypothesis() bool {
	return s.Kind == KindFloating || s.Kind == KindEssential
}

// IsAssertion reports whether s is an axiom or a theorem.
func (s *Statement) IsAssertion() bool {
	return s.Kind == KindAxiom || s.Kind == KindTheorem
}

// AllowsDisjoint reports whether s declares a and b disjoint, either as a
// required or an optional pair.
func (s *Statement) AllowsDisjoint(a, b Symbol) bool {
	p := NewPair(a, b)
	for _, d := range s.Disjoint {
		if d == p {
			return true
		}
	}
	for _, d := range s.OptDisjoint {
		if d == p {
			return true
		}
	}
	return false
}

// HypIndex returns the position of id in the required hypotheses, or -1.
func (s *Statement) HypIndex(id StatementID) int {
	for i, h := range s.Hyps {
		if h == id {
			return i
		}
	}
	return -1
}

// InFrame reports whether id is a required or optional hypothesis of s.
func (s *Statement) InFrame(id StatementID) bool {
	if s.HypIndex(id) >= 0 {
		return true
	}
	for _, h := range s.OptHyps {
		if h == id {
			return true
		}
	}
	return false
}
