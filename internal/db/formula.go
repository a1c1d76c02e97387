package db

import "strings"

// Symbol is an index into a Table's symbol list.
type Symbol int32

// Separator joins formulas inside the unifier. It is never declared in a table.
const Separator Symbol = -1

// SymbolKind distinguishes constants from variables.
type SymbolKind int

const (
	Constant SymbolKind = iota
	Variable
)

func (k SymbolKind) String() string {
	switch k {
	case Constant:
		return "constant"
	case Variable:
		return "variable"
	default:
		return "unknown"
	}
}

type symbolInfo struct {
	Name string
	Kind SymbolKind
}

// Formula is an immutable sequence of symbols. The empty formula stands for
// the result of an unfinished proof step.
type Formula []Symbol

// Equal reports whether f and g are token-for-token identical.
func (f Formula) Equal(g Formula) bool {
	if len(f) != len(g) {
		return false
	}
	for i := range f {
		if f[i] != g[i] {
			return false
		}
	}
	return true
}

// Unknown reports whether f is the placeholder of an unfinished step.
func (f Formula) Unknown() bool { return len(f) == 0 }

// Render returns the space separated symbol names of f.
func (t *Table) Render(f Formula) string {
	var sb strings.Builder
	for i, s := range f {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.SymbolName(s))
	}
	return sb.String()
}
