package db

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// File is the YAML layout of a statement database.
//
//	name: prop
//	constants: ["|-", wff, "(", ")", "->"]
//	variables: [ph, ps]
//	statements:
//	  - {label: wph, kind: floating, formula: "wff ph"}
//	  - label: ax-1
//	    kind: axiom
//	    formula: "|- ( ph -> ( ps -> ph ) )"
//	    hypotheses: [wph, wps]
type File struct {
	Name       string          `yaml:"name"`
	Constants  []string        `yaml:"constants"`
	Variables  []string        `yaml:"variables"`
	Statements []StatementDecl `yaml:"statements"`
}

// StatementDecl is one entry of File.Statements.
type StatementDecl struct {
	Label      string     `yaml:"label"`
	Kind       string     `yaml:"kind"`
	Formula    string     `yaml:"formula"`
	Hypotheses []string   `yaml:"hypotheses,omitempty"`
	Optional   []string   `yaml:"optional,omitempty"`
	Disjoint   [][]string `yaml:"disjoint,omitempty"`
	Proof      string     `yaml:"proof,omitempty"`
}

// LoadFile reads and builds the database stored at path.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	defer f.Close()

	t, err := Load(f)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	if t.Name == "" {
		t.Name = path
	}
	return t, nil
}

// LoadBytes builds a database from YAML source.
func LoadBytes(src []byte) (*Table, error) {
	return Load(bytes.NewReader(src))
}

// Load decodes a YAML database and builds its table.
func Load(r io.Reader) (*Table, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, errors.Wrap(err, "decoding database")
	}
	return file.Build()
}

// Build turns the decoded file into a table.
func (file *File) Build() (*Table, error) {
	b := NewBuilder(file.Name)
	if len(file.Constants) > 0 {
		b.Constants(file.Constants...)
	}
	if len(file.Variables) > 0 {
		b.Variables(file.Variables...)
	}
	for i, d := range file.Statements {
		kind, ok := ParseKind(d.Kind)
		if !ok {
			return nil, errors.Errorf("statement %d (%s): unknown kind %q", i, d.Label, d.Kind)
		}
		frame := Frame{Hyps: d.Hypotheses, Optional: d.Optional, Disjoint: d.Disjoint}
		switch kind {
		case KindFloating:
			b.Floating(d.Label, d.Formula)
		case KindEssential:
			b.Essential(d.Label, d.Formula)
		case KindAxiom:
			b.Axiom(d.Label, d.Formula, frame)
		case KindTheorem:
			if d.Proof == "" {
				return nil, errors.Errorf("theorem %s has no proof", d.Label)
			}
			b.Theorem(d.Label, d.Formula, frame, d.Proof)
		default:
			return nil, errors.Errorf("statement %d (%s): kind %q cannot appear in a database file", i, d.Label, d.Kind)
		}
	}
	t, err := b.Build()
	if err != nil {
		return nil, errors.Wrap(err, "building statement table")
	}
	return t, nil
}

// Encode writes t back in the layout read by Load, with proofs replaced
// through rewrite when it is non-nil.
func Encode(w io.Writer, t *Table, rewrite func(*Statement) string) error {
	file := File{Name: t.Name}
	for _, s := range t.statements {
		switch s.Kind {
		case KindConstantDecl:
			for _, sym := range s.Formula {
				file.Constants = append(file.Constants, t.SymbolName(sym))
			}
			continue
		case KindVariableDecl:
			for _, sym := range s.Formula {
				file.Variables = append(file.Variables, t.SymbolName(sym))
			}
			continue
		}
		d := StatementDecl{Label: s.Label, Kind: s.Kind.String(), Formula: t.Render(s.Formula)}
		if s.IsAssertion() {
			d.Hypotheses = t.labels(s.Hyps)
			d.Optional = t.labels(s.OptHyps)
			for _, p := range append(append([]Pair(nil), s.Disjoint...), s.OptDisjoint...) {
				d.Disjoint = append(d.Disjoint, []string{t.SymbolName(p.A), t.SymbolName(p.B)})
			}
		}
		if s.Kind == KindTheorem {
			d.Proof = s.ProofText
			if rewrite != nil {
				d.Proof = rewrite(s)
			}
		}
		file.Statements = append(file.Statements, d)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&file); err != nil {
		return errors.Wrap(err, "encoding database")
	}
	return enc.Close()
}

func (t *Table) labels(ids []StatementID) []string {
	var out []string
	for _, id := range ids {
		out = append(out, t.statements[id].Label)
	}
	return out
}
