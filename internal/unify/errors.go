package unify

import "fmt"

// MismatchError means no substitution makes the patterns equal to the
// instances.
type MismatchError struct {
	Assertion string
	Step      int
	// Hyp is the label of the first hypothesis that cannot be matched
	// together with the ones before it.
	Hyp      string
	Pattern  string
	Instance string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("step %d: hypothesis %q of %q does not match: expected pattern %q, got %q",
		e.Step, e.Hyp, e.Assertion, e.Pattern, e.Instance)
}

// AmbiguousError means more than one substitution unifies.
type AmbiguousError struct {
	Assertion                 string
	Step                      int
	First, Second             string // rendered substitutions
	FirstResult, SecondResult string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("step %d: unification with %q is ambiguous: %s yields %q, but %s yields %q",
		e.Step, e.Assertion, e.First, e.FirstResult, e.Second, e.SecondResult)
}

// DisjointError reports a disjoint-variable requirement that the
// substitution does not honor.
type DisjointError struct {
	Assertion string
	Theorem   string
	Step      int
	// A and B are the assertion's variables that must be disjoint.
	A, B string
	// X and Y are the variables of the substituted expressions that clash.
	X, Y string
}

// Same reports whether the violation is a variable shared by both expressions.
func (e *DisjointError) Same() bool { return e.X == e.Y }

func (e *DisjointError) Error() string {
	if e.Same() {
		return fmt.Sprintf("step %d: %q requires %s and %s disjoint, but both substitutions contain %s",
			e.Step, e.Assertion, e.A, e.B, e.X)
	}
	return fmt.Sprintf("step %d: %q requires %s and %s disjoint, so %q must declare %s and %s disjoint",
		e.Step, e.Assertion, e.A, e.B, e.Theorem, e.X, e.Y)
}
