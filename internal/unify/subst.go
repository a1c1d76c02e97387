package unify

import (
	"strings"

	"github.com/gnoverse/tverify/internal/db"
)

// Binding assigns a variable a window of the concatenated instance.
type Binding struct {
	Var   db.Symbol
	Start int
	Len   int
	Value db.Formula
}

// Substitution lists bindings in first-occurrence order of their variables.
type Substitution []Binding

// Lookup returns the value bound to v.
func (s Substitution) Lookup(v db.Symbol) (db.Formula, bool) {
	for _, b := range s {
		if b.Var == v {
			return b.Value, true
		}
	}
	return nil, false
}

// Apply substitutes s into f. It reports false when f contains a variable
// that s does not bind.
func (s Substitution) Apply(t *db.Table, f db.Formula) (db.Formula, bool) {
	out := make(db.Formula, 0, len(f))
	for _, sym := range f {
		if !t.IsVariable(sym) {
			out = append(out, sym)
			continue
		}
		v, ok := s.Lookup(sym)
		if !ok {
			return nil, false
		}
		out = append(out, v...)
	}
	return out, true
}

// Equal reports whether both substitutions bind the same values.
func (s Substitution) Equal(o Substitution) bool {
	if len(s) != len(o) {
		return false
	}
	for _, b := range s {
		v, ok := o.Lookup(b.Var)
		if !ok || !v.Equal(b.Value) {
			return false
		}
	}
	return true
}

// Render formats s as "ph := ( ... ), ps := ...".
func (s Substitution) Render(t *db.Table) string {
	parts := make([]string, 0, len(s))
	for _, b := range s {
		parts = append(parts, t.SymbolName(b.Var)+" := "+t.Render(b.Value))
	}
	return strings.Join(parts, ", ")
}
