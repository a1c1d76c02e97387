package types

import (
	"fmt"
	"strings"
)

// Severity orders verification outcomes. Larger is worse.
type Severity int

const (
	SeverityOk Severity = iota
	SeverityIncomplete
	SeverityError
	SeveritySevere
	// SeverityOff is only meaningful in configuration: it disables a rule.
	SeverityOff
)

func (s Severity) String() string {
	switch s {
	case SeverityOk:
		return "OK"
	case SeverityIncomplete:
		return "INCOMPLETE"
	case SeverityError:
		return "ERROR"
	case SeveritySevere:
		return "SEVERE"
	case SeverityOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// Worse returns the more severe of s and o.
func (s Severity) Worse(o Severity) Severity {
	if o > s {
		return o
	}
	return s
}

// ParseSeverity accepts the names produced by String, case-insensitively.
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "OK":
		return SeverityOk, nil
	case "INCOMPLETE":
		return SeverityIncomplete, nil
	case "ERROR":
		return SeverityError, nil
	case "SEVERE":
		return SeveritySevere, nil
	case "OFF":
		return SeverityOff, nil
	}
	return SeverityOk, fmt.Errorf("unknown severity %q", name)
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(s.String())), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	v, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Rule names attached to issues.
const (
	RuleDecodeError          = "decode-error"
	RuleUnificationFailure   = "unification-failure"
	RuleAmbiguousUnification = "ambiguous-unification"
	RuleDisjointViolation    = "disjoint-violation"
	RuleResultMismatch       = "result-mismatch"
	RuleStackUnderflow       = "stack-underflow"
	RuleVerifierError        = "verifier-error"
)

// Issue is a diagnostic produced while verifying one statement.
type Issue struct {
	Rule       string   `json:"rule"`
	Category   string   `json:"category,omitempty"`
	Database   string   `json:"database,omitempty"`
	Label      string   `json:"label"`
	Step       int      `json:"step"`
	Applied    string   `json:"applied,omitempty"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
	Note       string   `json:"note,omitempty"`
	Severity   Severity `json:"severity"`
}

// Result is the outcome of verifying a single statement.
type Result struct {
	Label      string   `json:"label"`
	Verdict    Severity `json:"verdict"`
	Steps      int      `json:"steps"`
	Issues     []Issue  `json:"issues,omitempty"`
	Suppressed int      `json:"suppressed,omitempty"`
	Cached     bool     `json:"cached,omitempty"`
}

// ConfigRule represents a configuration rule for a diagnostic.
type ConfigRule struct {
	Severity Severity `yaml:"severity"`
}
