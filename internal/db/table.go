package db

import (
	"fmt"
	"strings"
)

// Table is the read-only statement database consumed by the verifier.
// It is safe for concurrent readers once built.
type Table struct {
	Name string

	symbols    []symbolInfo
	symbolByID map[string]Symbol
	statements []*Statement
	byLabel    map[string]*Statement
}

// Statement returns the statement with the given ID.
func (t *Table) Statement(id StatementID) *Statement {
	if id < 0 || int(id) >= len(t.statements) {
		return nil
	}
	return t.statements[id]
}

// Lookup returns the statement declared under label.
func (t *Table) Lookup(label string) (*Statement, bool) {
	s, ok := t.byLabel[label]
	return s, ok
}

// Statements returns all statements in declaration order.
func (t *Table) Statements() []*Statement {
	return t.statements
}

// Theorems returns every theorem in declaration order.
func (t *Table) Theorems() []*Statement {
	var out []*Statement
	for _, s := range t.statements {
		if s.Kind == KindTheorem {
			out = append(out, s)
		}
	}
	return out
}

// Symbol returns the symbol declared under name.
func (t *Table) Symbol(name string) (Symbol, bool) {
	s, ok := t.symbolByID[name]
	return s, ok
}

func (t *Table) SymbolName(s Symbol) string {
	if s == Separator {
		return "&"
	}
	if s < 0 || int(s) >= len(t.symbols) {
		return fmt.Sprintf("<%d>", s)
	}
	return t.symbols[s].Name
}

// IsVariable reports whether s was declared as a variable.
func (t *Table) IsVariable(s Symbol) bool {
	if s < 0 || int(s) >= len(t.symbols) {
		return false
	}
	return t.symbols[s].Kind == Variable
}

// Parse converts space separated symbol names into a formula.
func (t *Table) Parse(text string) (Formula, error) {
	fields := strings.Fields(text)
	f := make(Formula, 0, len(fields))
	for _, name := range fields {
		s, ok := t.symbolByID[name]
		if !ok {
			return nil, fmt.Errorf("undeclared math symbol %q", name)
		}
		f = append(f, s)
	}
	return f, nil
}

// MustParse is Parse for fixtures; it panics on undeclared symbols.
func (t *Table) MustParse(text string) Formula {
	f, err := t.Parse(text)
	if err != nil {
		panic(err)
	}
	return f
}
