package unify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoverse/tverify/internal/db"
)

func testTable(t *testing.T) *db.Table {
	t.Helper()

	tbl, err := db.NewBuilder("unify").
		Constants("(", ")", "->", "wff", "|-", "T", "a", "b", "c", "setvar", "A.").
		Variables("ph", "ps", "x", "y", "z").
		Floating("wph", "wff ph").
		Floating("wps", "wff ps").
		Floating("vx", "setvar x").
		Floating("vy", "setvar y").
		Floating("vz", "setvar z").
		Axiom("ax-1", "|- ( ph -> ( ps -> ph ) )", db.Frame{Hyps: []string{"wph", "wps"}}).
		Essential("min", "|- ph").
		Essential("maj", "|- ( ph -> ps )").
		Axiom("ax-mp", "|- ps", db.Frame{Hyps: []string{"wph", "wps", "min", "maj"}}).
		Axiom("ax-pair", "|- x y", db.Frame{Hyps: []string{"vx", "vy"}}).
		Axiom("ax-dv", "|- A. x ph", db.Frame{
			Hyps:     []string{"vx", "wph"},
			Disjoint: [][]string{{"x", "ph"}},
		}).
		Theorem("th-plain", "|- ph", db.Frame{Hyps: []string{"wph"}}, "?").
		Theorem("th-dv", "|- ph", db.Frame{
			Hyps:     []string{"wph", "vx"},
			Optional: []string{"vy"},
			Disjoint: [][]string{{"x", "ph"}, {"y", "ph"}},
		}, "?").
		Build()
	require.NoError(t, err)
	return tbl
}

func stmt(t *testing.T, tbl *db.Table, label string) *db.Statement {
	t.Helper()
	s, ok := tbl.Lookup(label)
	require.True(t, ok, label)
	return s
}

// request applies assertion inside theorem with instances given as text;
// an empty string is an unknown operand.
func request(t *testing.T, tbl *db.Table, assertion, theorem string, instances ...string) Request {
	t.Helper()
	a := stmt(t, tbl, assertion)
	req := Request{Assertion: a, Theorem: stmt(t, tbl, theorem), Step: 7}
	for i, h := range a.Hyps {
		req.Patterns = append(req.Patterns, tbl.Statement(h).Formula)
		inst := tbl.MustParse(instances[i])
		if inst.Unknown() {
			req.UnknownOperand = true
		}
		req.Instances = append(req.Instances, inst)
	}
	return req
}

func TestUnifyAppliesSubstitution(t *testing.T) {
	t.Parallel()
	tbl := testTable(t)
	u := New(tbl)

	res, err := u.Unify(request(t, tbl, "ax-1", "th-plain", "wff ph", "wff ( ph -> ph )"))
	require.NoError(t, err)
	assert.Equal(t, "|- ( ph -> ( ( ph -> ph ) -> ph ) )", tbl.Render(res.Formula))
	assert.Equal(t, "ph := ph, ps := ( ph -> ph )", res.Subst.Render(tbl))

	ps, _ := tbl.Symbol("ps")
	v, ok := res.Subst.Lookup(ps)
	require.True(t, ok)
	assert.Equal(t, "( ph -> ph )", tbl.Render(v))
}

func TestUnifyModusPonens(t *testing.T) {
	t.Parallel()
	tbl := testTable(t)
	u := New(tbl)

	res, err := u.Unify(request(t, tbl, "ax-mp", "th-plain",
		"wff ( ph -> ps )", "wff ps", "|- ( ph -> ps )", "|- ( ( ph -> ps ) -> ps )"))
	require.NoError(t, err)
	assert.Equal(t, "|- ps", tbl.Render(res.Formula))
}

func TestUnifyMismatch(t *testing.T) {
	t.Parallel()
	tbl := testTable(t)
	u := New(tbl)

	_, err := u.Unify(request(t, tbl, "ax-mp", "th-plain",
		"wff ps", "wff ph", "|- ph", "|- ( ps -> ph )"))
	require.Error(t, err)

	var me *MismatchError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "ax-mp", me.Assertion)
	assert.Equal(t, 7, me.Step)
	assert.Equal(t, "min", me.Hyp)
	assert.Equal(t, "|- ph", me.Pattern)
	assert.Equal(t, "|- ph", me.Instance)
}

func TestUnifyShortestWindowFirst(t *testing.T) {
	t.Parallel()
	tbl := testTable(t)
	u := New(tbl)

	req := Request{
		Assertion: stmt(t, tbl, "ax-pair"),
		Theorem:   stmt(t, tbl, "th-plain"),
		Patterns:  []db.Formula{tbl.MustParse("T x y"), tbl.MustParse("T x")},
		Instances: []db.Formula{tbl.MustParse("T a b c"), tbl.MustParse("T a b")},
	}
	res, err := u.Unify(req)
	require.NoError(t, err)
	assert.Equal(t, "x := a b, y := c", res.Subst.Render(tbl))
	assert.Equal(t, "|- a b c", tbl.Render(res.Formula))
	assert.Positive(t, res.Backtracks)
}

func TestUnifyAmbiguous(t *testing.T) {
	t.Parallel()
	tbl := testTable(t)
	u := New(tbl)

	req := Request{
		Assertion: stmt(t, tbl, "ax-pair"),
		Theorem:   stmt(t, tbl, "th-plain"),
		Step:      3,
		Patterns:  []db.Formula{tbl.MustParse("T x y")},
		Instances: []db.Formula{tbl.MustParse("T a b c")},
	}
	_, err := u.Unify(req)
	require.Error(t, err)

	var ae *AmbiguousError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "x := a, y := b c", ae.First)
	assert.Equal(t, "x := a b, y := c", ae.Second)
	assert.Equal(t, 3, ae.Step)
}

func TestUnifyIsDeterministic(t *testing.T) {
	t.Parallel()
	tbl := testTable(t)
	u := New(tbl)

	req := request(t, tbl, "ax-mp", "th-plain",
		"wff ( ph -> ps )", "wff ps", "|- ( ph -> ps )", "|- ( ( ph -> ps ) -> ps )")
	first, err := u.Unify(req)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := u.Unify(req)
		require.NoError(t, err)
		assert.True(t, first.Subst.Equal(again.Subst))
		assert.Equal(t, first.Backtracks, again.Backtracks)
	}
}

func TestUnifyWindowsDoNotCrossOperands(t *testing.T) {
	t.Parallel()
	tbl := testTable(t)
	u := New(tbl)

	// joined without a separator the operands would match with ph := ps
	_, err := u.Unify(request(t, tbl, "ax-1", "th-plain", "wff ps wff", "ph"))
	require.Error(t, err)
	var me *MismatchError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "wps", me.Hyp)
}

func TestUnifyUnknownOperand(t *testing.T) {
	t.Parallel()
	tbl := testTable(t)
	u := New(tbl)

	t.Run("conclusion bound", func(t *testing.T) {
		t.Parallel()
		res, err := u.Unify(request(t, tbl, "ax-mp", "th-plain",
			"wff ph", "wff ps", "", "|- ( ph -> ps )"))
		require.NoError(t, err)
		assert.Equal(t, "|- ps", tbl.Render(res.Formula))
	})

	t.Run("conclusion unbound", func(t *testing.T) {
		t.Parallel()
		res, err := u.Unify(request(t, tbl, "ax-1", "th-plain", "wff ph", ""))
		require.NoError(t, err)
		assert.True(t, res.Formula.Unknown())
	})

	t.Run("failure is suppressed", func(t *testing.T) {
		t.Parallel()
		res, err := u.Unify(request(t, tbl, "ax-mp", "th-plain",
			"wff ph", "wff ps", "|- ps", ""))
		require.NoError(t, err)
		assert.True(t, res.Formula.Unknown())
	})

	t.Run("ambiguity is suppressed", func(t *testing.T) {
		t.Parallel()
		res, err := u.Unify(Request{
			Assertion:      stmt(t, tbl, "ax-pair"),
			Theorem:        stmt(t, tbl, "th-plain"),
			Patterns:       []db.Formula{tbl.MustParse("T x y"), tbl.MustParse("T")},
			Instances:      []db.Formula{tbl.MustParse("T a b c"), nil},
			UnknownOperand: true,
		})
		require.NoError(t, err)
		assert.Equal(t, "x := a, y := b c", res.Subst.Render(tbl))
	})
}

func TestUnifyZeroHypotheses(t *testing.T) {
	t.Parallel()
	tbl, err := db.NewBuilder("zero").
		Constants("|-", "T").
		Axiom("ax-t", "|- T", db.Frame{}).
		Theorem("th", "|- T", db.Frame{}, "ax-t").
		Build()
	require.NoError(t, err)

	res, err := New(tbl).Unify(Request{Assertion: stmt(t, tbl, "ax-t"), Theorem: stmt(t, tbl, "th")})
	require.NoError(t, err)
	assert.Equal(t, "|- T", tbl.Render(res.Formula))
	assert.Empty(t, res.Subst)
}
