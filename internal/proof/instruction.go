package proof

import (
	"fmt"
	"strings"

	"github.com/gnoverse/tverify/internal/db"
)

// InstructionKind tags an Instruction.
type InstructionKind int

const (
	// Reference pushes a hypothesis or applies an assertion.
	Reference InstructionKind = iota
	// LocalLabel reuses the formula computed by an earlier step.
	LocalLabel
	// Unknown is the placeholder of an unfinished step.
	Unknown
)

func (k InstructionKind) String() string {
	switch k {
	case Reference:
		return "Reference"
	case LocalLabel:
		return "LocalLabel"
	case Unknown:
		return "Unknown"
	default:
		return "Invalid"
	}
}

// Instruction is one step of a proof.
type Instruction struct {
	Kind InstructionKind
	// Stmt is set for Reference.
	Stmt db.StatementID
	// Step is the reused step index for LocalLabel.
	Step int
}

// Ref returns a Reference instruction.
func Ref(id db.StatementID) Instruction { return Instruction{Kind: Reference, Stmt: id} }

// Local returns a LocalLabel instruction.
func Local(step int) Instruction { return Instruction{Kind: LocalLabel, Step: step} }

// Hole returns an Unknown instruction.
func Hole() Instruction { return Instruction{Kind: Unknown} }

func (in Instruction) String() string {
	switch in.Kind {
	case Reference:
		return fmt.Sprintf("Reference(%d)", in.Stmt)
	case LocalLabel:
		return fmt.Sprintf("LocalLabel(%d)", in.Step)
	default:
		return "Unknown"
	}
}

// Proof is an ordered instruction sequence.
type Proof []Instruction

// Incomplete reports whether p contains an Unknown step.
func (p Proof) Incomplete() bool {
	for _, in := range p {
		if in.Kind == Unknown {
			return true
		}
	}
	return false
}

// Format renders p as a plain proof. A local label renders as the
// instruction of the step it reuses, which expands the proof but keeps it
// valid in plain form.
func Format(t *db.Table, p Proof) string {
	var sb strings.Builder
	for i := range p {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(formatStep(t, p, i))
	}
	return sb.String()
}

func formatStep(t *db.Table, p Proof, i int) string {
	in := p[i]
	switch in.Kind {
	case Reference:
		if s := t.Statement(in.Stmt); s != nil {
			return s.Label
		}
		return fmt.Sprintf("<%d>", in.Stmt)
	case LocalLabel:
		if in.Step < 0 || in.Step >= i {
			return fmt.Sprintf("<step %d>", in.Step)
		}
		return formatSubproof(t, p, in.Step)
	default:
		return "?"
	}
}

// formatSubproof renders the complete subproof ending at step end.
func formatSubproof(t *db.Table, p Proof, end int) string {
	start := subproofStart(t, p, end)
	parts := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		parts = append(parts, formatStep(t, p, i))
	}
	return strings.Join(parts, " ")
}

// subproofStart walks back from end to the first step of the subproof that
// produces step end's formula.
func subproofStart(t *db.Table, p Proof, end int) int {
	need := 1
	i := end
	for ; i >= 0; i-- {
		need--
		if in := p[i]; in.Kind == Reference {
			if s := t.Statement(in.Stmt); s != nil && s.IsAssertion() {
				need += len(s.Hyps)
			}
		}
		if need <= 0 {
			break
		}
	}
	if i < 0 {
		return 0
	}
	return i
}
