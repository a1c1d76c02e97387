package formatter

import (
	"fmt"
	"strings"

	"github.com/gnoverse/tverify/internal/db"
	"github.com/gnoverse/tverify/internal/proof"
	"github.com/gnoverse/tverify/internal/unify"
	iverify "github.com/gnoverse/tverify/internal/verify"
	"github.com/gnoverse/tverify/verify"
)

// FormatSteps lists every step of run with the formula it computed,
// followed by the inspection detail when one was requested.
func FormatSteps(t *db.Table, run *iverify.Run) string {
	var sb strings.Builder
	if len(run.Proof) == 0 {
		return sb.String()
	}

	labels := make([]string, len(run.Proof))
	labelWidth := 0
	for i, in := range run.Proof {
		labels[i] = stepLabel(t, in)
		if len(labels[i]) > labelWidth {
			labelWidth = len(labels[i])
		}
	}
	numWidth := len(fmt.Sprintf("%d", len(run.Proof)-1))

	for i := range run.Proof {
		sb.WriteString(lineStyle.Sprintf("%*d ", numWidth, i))
		sb.WriteString(ruleStyle.Sprintf("%-*s ", labelWidth, labels[i]))
		if f := run.Steps[i]; f.Unknown() {
			sb.WriteString(warningStyle.Sprint("?\n"))
		} else {
			sb.WriteString(noStyle.Sprintf("%s\n", t.Render(f)))
		}
	}

	if ins := run.Inspection; ins != nil {
		sb.WriteString("\n")
		sb.WriteString(formatInspection(t, ins))
	}
	return sb.String()
}

func stepLabel(t *db.Table, in proof.Instruction) string {
	switch in.Kind {
	case proof.Reference:
		if s := t.Statement(in.Stmt); s != nil {
			return s.Label
		}
		return fmt.Sprintf("<%d>", in.Stmt)
	case proof.LocalLabel:
		return fmt.Sprintf("@%d", in.Step)
	default:
		return "?"
	}
}

func formatInspection(t *db.Table, ins *iverify.Inspection) string {
	var sb strings.Builder
	if ins.Assertion != "" {
		sb.WriteString(fileStyle.Sprintf("step %d applies %s\n", ins.Step, ins.Assertion))
		sb.WriteString(substitution(t, ins.Subst))
	} else {
		sb.WriteString(fileStyle.Sprintf("step %d applies no assertion\n", ins.Step))
	}
	if ins.ParentStep < 0 {
		sb.WriteString(noStyle.Sprintf("step %d is not used by a later assertion\n", ins.Step))
		return sb.String()
	}
	sb.WriteString(fileStyle.Sprintf("used by step %d (%s) as %s\n", ins.ParentStep, ins.ParentAssertion, ins.ParentHyp))
	sb.WriteString(substitution(t, ins.ParentSubst))
	return sb.String()
}

func substitution(t *db.Table, subst unify.Substitution) string {
	var sb strings.Builder
	for _, b := range subst {
		sb.WriteString(lineStyle.Sprint("  | "))
		sb.WriteString(noStyle.Sprintf("%s := %s\n", t.SymbolName(b.Var), t.Render(b.Value)))
	}
	return sb.String()
}

// FormatSummary renders the outcome of verifying one database.
func FormatSummary(s verify.Summary) string {
	if !s.Failed() && len(s.Incomplete) == 0 {
		return suggestionStyle.Sprint("ok: ") + fileStyle.Sprintf("%s", s.Database) +
			noStyle.Sprintf(" (%d theorems)\n", s.Checked)
	}

	var sb strings.Builder
	if s.Failed() {
		sb.WriteString(errorStyle.Sprint("failed: "))
	} else {
		sb.WriteString(warningStyle.Sprint("incomplete: "))
	}
	sb.WriteString(fileStyle.Sprintf("%s", s.Database))
	sb.WriteString(noStyle.Sprintf(" (%d theorems, %d incomplete, %d erroneous)\n",
		s.Checked, len(s.Incomplete), len(s.Erroneous)))
	if len(s.Incomplete) > 0 {
		sb.WriteString(lineStyle.Sprint("  incomplete: "))
		sb.WriteString(noStyle.Sprintf("%s\n", strings.Join(s.Incomplete, " ")))
	}
	if len(s.Erroneous) > 0 {
		sb.WriteString(lineStyle.Sprint("  erroneous: "))
		sb.WriteString(noStyle.Sprintf("%s\n", strings.Join(s.Erroneous, " ")))
	}
	return sb.String()
}
