package proof

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoverse/tverify/internal/db"
)

const idProof = "wph wph wph wi wi wph wph wi wph wph ax-1 wph wph wph wi wph wi wi " +
	"wph wph wph wi wi wph wph wi wi wph wph wph wi ax-1 " +
	"wph wph wph wi wph ax-2 ax-mp ax-mp"

// a1iProof is the compressed proof of a1i exactly as set.mm publishes it.
const a1iProof = "( wi ax-1 ax-mp ) ABADCABEF"

func propTable(t *testing.T) *db.Table {
	t.Helper()

	tbl, err := db.NewBuilder("prop").
		Constants("(", ")", "->", "wff", "|-").
		Variables("ph", "ps", "ch").
		Floating("wph", "wff ph").
		Floating("wps", "wff ps").
		Floating("wch", "wff ch").
		Axiom("wi", "wff ( ph -> ps )", db.Frame{Hyps: []string{"wph", "wps"}}).
		Axiom("ax-1", "|- ( ph -> ( ps -> ph ) )", db.Frame{Hyps: []string{"wph", "wps"}}).
		Axiom("ax-2", "|- ( ( ph -> ( ps -> ch ) ) -> ( ( ph -> ps ) -> ( ph -> ch ) ) )",
			db.Frame{Hyps: []string{"wph", "wps", "wch"}}).
		Essential("min", "|- ph").
		Essential("maj", "|- ( ph -> ps )").
		Axiom("ax-mp", "|- ps", db.Frame{Hyps: []string{"wph", "wps", "min", "maj"}}).
		Theorem("id", "|- ( ph -> ph )", db.Frame{Hyps: []string{"wph"}}, idProof).
		Theorem("wphps", "wff ( ph -> ps )", db.Frame{Hyps: []string{"wph", "wps"}, Optional: []string{"wch"}}, "wph wps wi").
		Essential("a1i.1", "|- ph").
		Theorem("a1i", "|- ( ps -> ph )", db.Frame{Hyps: []string{"wph", "wps", "a1i.1"}}, a1iProof).
		Build()
	require.NoError(t, err)
	return tbl
}

func lookup(t *testing.T, tbl *db.Table, label string) *db.Statement {
	t.Helper()
	s, ok := tbl.Lookup(label)
	require.True(t, ok, label)
	return s
}

func refs(t *testing.T, tbl *db.Table, labels ...string) Proof {
	t.Helper()
	p := make(Proof, 0, len(labels))
	for _, l := range labels {
		if l == "?" {
			p = append(p, Hole())
			continue
		}
		p = append(p, Ref(lookup(t, tbl, l).ID))
	}
	return p
}

func TestDecodePlain(t *testing.T) {
	t.Parallel()
	tbl := propTable(t)
	th := lookup(t, tbl, "wphps")

	tests := []struct {
		name string
		text string
		want Proof
	}{
		{"simple", "wph wps wi", refs(t, tbl, "wph", "wps", "wi")},
		{"extra whitespace", "  wph\n\twps   wi \n", refs(t, tbl, "wph", "wps", "wi")},
		{"unknown step", "wph ? wi", refs(t, tbl, "wph", "?", "wi")},
		{"optional hypothesis", "wph wch wi", refs(t, tbl, "wph", "wch", "wi")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := DecodeText(tbl, th, tt.text)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DecodeText() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeCompressed(t *testing.T) {
	t.Parallel()
	tbl := propTable(t)
	wphps := lookup(t, tbl, "wphps")
	wph := lookup(t, tbl, "wph").ID
	wps := lookup(t, tbl, "wps").ID
	wi := lookup(t, tbl, "wi").ID
	ax1 := lookup(t, tbl, "ax-1").ID

	tests := []struct {
		name string
		text string
		want Proof
	}{
		{
			name: "hypotheses then label",
			text: "( wi ) ABC",
			want: Proof{Ref(wph), Ref(wps), Ref(wi)},
		},
		{
			name: "saved step",
			text: "( wi ) AZDC",
			want: Proof{Ref(wph), Local(0), Ref(wi)},
		},
		{
			name: "closing parenthesis glued to label",
			text: "( wi ax-1) ABDC",
			want: Proof{Ref(wph), Ref(wps), Ref(ax1), Ref(wi)},
		},
		{
			name: "whitespace inside the letter run",
			text: "( wi )\n  AB\n  C\n",
			want: Proof{Ref(wph), Ref(wps), Ref(wi)},
		},
		{
			name: "unknown step",
			text: "( wi ) A?C",
			want: Proof{Ref(wph), Hole(), Ref(wi)},
		},
		{
			name: "empty label list",
			text: "( ) AB",
			want: Proof{Ref(wph), Ref(wps)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := DecodeText(tbl, wphps, tt.text)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DecodeText() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodePublishedProof(t *testing.T) {
	t.Parallel()
	tbl := propTable(t)
	th := lookup(t, tbl, "a1i")

	got, err := Decode(tbl, th)
	require.NoError(t, err)
	want := refs(t, tbl, "wph", "wps", "wph", "wi", "a1i.1", "wph", "wps", "ax-1", "ax-mp")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
	}

	text, err := Squish(tbl, th, got)
	require.NoError(t, err)
	assert.Equal(t, a1iProof, text)
}

func TestDecodeMultiLetterNumbers(t *testing.T) {
	t.Parallel()

	// 25 extra labels push the saved steps past the single-letter range.
	b := db.NewBuilder("big").Constants("c").Variables("v").Floating("fv", "c v")
	labels := make([]string, 25)
	for i := range labels {
		labels[i] = "a" + strings.Repeat("x", i+1)
		b.Axiom(labels[i], "c", db.Frame{})
	}
	b.Theorem("th", "c", db.Frame{}, "")
	tbl, err := b.Build()
	require.NoError(t, err)
	th := lookup(t, tbl, "th")

	// steps: label 21 (UA), save, label 25 (UE), saved step 0 (n = 26, UF)
	got, err := DecodeText(tbl, th, "( "+strings.Join(labels, " ")+" ) UAZUEUF")
	require.NoError(t, err)
	want := Proof{
		Ref(lookup(t, tbl, labels[20]).ID),
		Ref(lookup(t, tbl, labels[24]).ID),
		Local(0),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DecodeText() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()
	tbl := propTable(t)
	th := lookup(t, tbl, "wphps")

	tests := []struct {
		name   string
		text   string
		want   string
		offset int
	}{
		{"empty plain proof", "   ", "empty proof", 0},
		{"undeclared label", "wph nope", `label "nope" is not declared`, 4},
		{"label declared later", "wph wphps", `declared after`, 4},
		{"hypothesis outside frame", "min", `not in the frame`, 0},
		{"unclosed label list", "( wi", "label list is not closed", 0},
		{"required hypothesis in list", "( wph ) A", "must not appear in the label list", 2},
		{"nested parenthesis", "( wi ( ) A", "unexpected parenthesis", 5},
		{"number out of range", "( wi ) D", "out of range", 7},
		{"long number out of range", "( wi ) " + strings.Repeat("U", 40) + "A", "out of range", 8},
		{"save marker first", "( wi ) ZA", "no preceding step", 7},
		{"save marker inside number", "( wi ) UZA", "inside a step number", 8},
		{"saved twice", "( wi ) AZZ", "saved twice", 9},
		{"unknown inside number", "( wi ) U?", "unknown step inside", 8},
		{"illegal character", "( wi ) Aa", "illegal character", 8},
		{"ends mid-number", "( wi ) AU", "middle of a step number", 8},
		{"empty compressed proof", "( wi ) ", "empty proof", 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := DecodeText(tbl, th, tt.text)
			require.Error(t, err)

			var de *DecodeError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, "wphps", de.Label)
			assert.Contains(t, de.Msg, tt.want)
			assert.Equal(t, tt.offset, de.Offset)
		})
	}
}

func TestUnsquishRequiresCompressedText(t *testing.T) {
	t.Parallel()
	tbl := propTable(t)
	th := lookup(t, tbl, "wphps")

	_, err := Unsquish(tbl, th, "wph wps wi")
	assert.Error(t, err)

	p, err := Unsquish(tbl, th, "( wi ) ABC")
	require.NoError(t, err)
	assert.Len(t, p, 3)
}
