package proof

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/gnoverse/tverify/internal/db"
)

// Compressed proof alphabet.
const (
	terminalFirst     = 'A' // A..T end a number with digit 1..20
	terminalLast      = 'T'
	continuationFirst = 'U' // U..Y contribute a high digit 1..5
	continuationLast  = 'Y'
	saveMarker        = 'Z'
	unknownMarker     = '?'

	terminalRadix     = 20
	continuationRadix = 5
)

// DecodeError reports a malformed proof. It makes the proof unusable.
type DecodeError struct {
	Label  string // theorem being decoded
	Offset int    // byte offset into the proof text
	Msg    string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: proof offset %d: %s", e.Label, e.Offset, e.Msg)
}

type decoder struct {
	t    *db.Table
	th   *db.Statement
	text string
}

func (d *decoder) errorf(off int, format string, args ...any) error {
	return &DecodeError{Label: d.th.Label, Offset: off, Msg: fmt.Sprintf(format, args...)}
}

// Decode turns th's raw proof text into an instruction sequence. Text that
// starts with "(" is read as a compressed proof.
func Decode(t *db.Table, th *db.Statement) (Proof, error) {
	return DecodeText(t, th, th.ProofText)
}

// DecodeText decodes text as the proof of th.
func DecodeText(t *db.Table, th *db.Statement, text string) (Proof, error) {
	d := &decoder{t: t, th: th, text: text}
	trimmed := strings.TrimLeftFunc(text, unicode.IsSpace)
	if strings.HasPrefix(trimmed, "(") {
		return d.compressed(len(text) - len(trimmed))
	}
	return d.plain()
}

// resolve maps a label to a statement th's proof may reference.
func (d *decoder) resolve(label string, off int) (db.StatementID, error) {
	s, ok := d.t.Lookup(label)
	if !ok {
		return 0, d.errorf(off, "label %q is not declared", label)
	}
	if s.ID >= d.th.ID {
		return 0, d.errorf(off, "label %q is declared after %q", label, d.th.Label)
	}
	switch {
	case s.IsHypothesis():
		if !d.th.InFrame(s.ID) {
			return 0, d.errorf(off, "hypothesis %q is not in the frame of %q", label, d.th.Label)
		}
	case s.IsAssertion():
	default:
		return 0, d.errorf(off, "label %q does not name a hypothesis or assertion", label)
	}
	return s.ID, nil
}

type field struct {
	text string
	off  int
}

func fields(text string, from int) []field {
	var out []field
	start := -1
	for i, r := range text[from:] {
		i += from
		if unicode.IsSpace(r) {
			if start >= 0 {
				out = append(out, field{text[start:i], start})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, field{text[start:], start})
	}
	return out
}

func (d *decoder) plain() (Proof, error) {
	toks := fields(d.text, 0)
	if len(toks) == 0 {
		return nil, d.errorf(0, "empty proof")
	}
	p := make(Proof, 0, len(toks))
	for _, tok := range toks {
		if tok.text == "?" {
			p = append(p, Hole())
			continue
		}
		id, err := d.resolve(tok.text, tok.off)
		if err != nil {
			return nil, err
		}
		p = append(p, Ref(id))
	}
	return p, nil
}

func (d *decoder) compressed(open int) (Proof, error) {
	var labels []db.StatementID
	pos := -1
	for _, tok := range fields(d.text, open+1) {
		name := tok.text
		closeAt := strings.IndexByte(name, ')')
		if closeAt >= 0 {
			name = name[:closeAt]
		}
		if strings.ContainsRune(name, '(') {
			return nil, d.errorf(tok.off, "unexpected parenthesis in label list")
		}
		if name != "" {
			id, err := d.resolve(name, tok.off)
			if err != nil {
				return nil, err
			}
			if d.th.HypIndex(id) >= 0 {
				return nil, d.errorf(tok.off, "required hypothesis %q must not appear in the label list", name)
			}
			labels = append(labels, id)
		}
		if closeAt >= 0 {
			pos = tok.off + closeAt + 1
			break
		}
	}
	if pos < 0 {
		return nil, d.errorf(open, "label list is not closed")
	}

	hyps := len(d.th.Hyps)
	limit := func(saved []int) int { return hyps + len(labels) + len(saved) }
	var (
		p         Proof
		saved     []int // step indices registered by the save marker
		acc       int
		inNum     bool
		lastOff   int
		justSaved bool
	)
	for i := pos; i < len(d.text); i++ {
		c := d.text[i]
		lastOff = i
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			continue
		case c >= continuationFirst && c <= continuationLast:
			acc = acc*continuationRadix + int(c-continuationFirst) + 1
			inNum = true
			// acc only grows, so once it passes the limit the finished
			// number cannot be in range either
			if acc > limit(saved) {
				return nil, d.errorf(i, "proof step number is out of range (max %d)", limit(saved))
			}
		case c >= terminalFirst && c <= terminalLast:
			n := acc*terminalRadix + int(c-terminalFirst) + 1
			acc, inNum, justSaved = 0, false, false
			switch {
			case n <= hyps:
				p = append(p, Ref(d.th.Hyps[n-1]))
			case n <= hyps+len(labels):
				p = append(p, Ref(labels[n-hyps-1]))
			case n <= hyps+len(labels)+len(saved):
				p = append(p, Local(saved[n-hyps-len(labels)-1]))
			default:
				return nil, d.errorf(i, "proof step number %d is out of range (max %d)", n, limit(saved))
			}
		case c == saveMarker:
			if inNum {
				return nil, d.errorf(i, "save marker inside a step number")
			}
			if len(p) == 0 {
				return nil, d.errorf(i, "save marker has no preceding step")
			}
			if justSaved {
				return nil, d.errorf(i, "step %d is saved twice", len(p)-1)
			}
			saved = append(saved, len(p)-1)
			justSaved = true
		case c == unknownMarker:
			if inNum {
				return nil, d.errorf(i, "unknown step inside a step number")
			}
			p = append(p, Hole())
			justSaved = false
		default:
			return nil, d.errorf(i, "illegal character %q in compressed proof", c)
		}
	}
	if inNum {
		return nil, d.errorf(lastOff, "compressed proof ends in the middle of a step number")
	}
	if len(p) == 0 {
		return nil, d.errorf(pos, "empty proof")
	}
	return p, nil
}

// Unsquish decodes a compressed proof text for th.
func Unsquish(t *db.Table, th *db.Statement, text string) (Proof, error) {
	if !strings.HasPrefix(strings.TrimSpace(text), "(") {
		return nil, &DecodeError{Label: th.Label, Msg: "not a compressed proof"}
	}
	return DecodeText(t, th, text)
}
