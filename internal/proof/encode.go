package proof

import (
	"fmt"
	"strings"

	"github.com/gnoverse/tverify/internal/db"
)

// encodeNumber appends the letter code of n (n >= 1) to sb.
func encodeNumber(sb *strings.Builder, n int) {
	var buf [16]byte
	i := len(buf) - 1
	n--
	buf[i] = byte(terminalFirst + n%terminalRadix)
	n /= terminalRadix
	for n > 0 {
		n--
		i--
		buf[i] = byte(continuationFirst + n%continuationRadix)
		n /= continuationRadix
	}
	sb.Write(buf[i:])
}

// Squish encodes p as a compressed proof of th. Extra labels are listed in
// order of first use; only steps that a LocalLabel reuses get a save marker.
func Squish(t *db.Table, th *db.Statement, p Proof) (string, error) {
	hyps := len(th.Hyps)

	saveNeeded := make(map[int]bool)
	labelIndex := make(map[db.StatementID]int)
	var labels []db.StatementID
	for i, in := range p {
		switch in.Kind {
		case Reference:
			if th.HypIndex(in.Stmt) >= 0 {
				continue
			}
			if t.Statement(in.Stmt) == nil {
				return "", fmt.Errorf("step %d: unknown statement %d", i, in.Stmt)
			}
			if _, ok := labelIndex[in.Stmt]; !ok {
				labelIndex[in.Stmt] = len(labels)
				labels = append(labels, in.Stmt)
			}
		case LocalLabel:
			if in.Step < 0 || in.Step >= i {
				return "", fmt.Errorf("step %d: local label refers to step %d", i, in.Step)
			}
			saveNeeded[in.Step] = true
		}
	}

	var sb strings.Builder
	sb.WriteString("(")
	for _, id := range labels {
		sb.WriteByte(' ')
		sb.WriteString(t.Statement(id).Label)
	}
	sb.WriteString(" ) ")

	savedIndex := make(map[int]int)
	for i, in := range p {
		switch in.Kind {
		case Reference:
			if h := th.HypIndex(in.Stmt); h >= 0 {
				encodeNumber(&sb, h+1)
			} else {
				encodeNumber(&sb, hyps+labelIndex[in.Stmt]+1)
			}
		case LocalLabel:
			encodeNumber(&sb, hyps+len(labels)+savedIndex[in.Step]+1)
		case Unknown:
			sb.WriteByte(unknownMarker)
		}
		if saveNeeded[i] {
			savedIndex[i] = len(savedIndex)
			sb.WriteByte(saveMarker)
		}
	}
	return sb.String(), nil
}
