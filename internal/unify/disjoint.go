package unify

// checkDisjointVars verifies every required disjoint pair of the applied
// assertion against subst. Pairs with an unbound side are skipped; that
// only happens when an operand is unknown.
func (u *Unifier) checkDisjointVars(req Request, subst Substitution) error {
	for _, p := range req.Assertion.Disjoint {
		va, okA := subst.Lookup(p.A)
		vb, okB := subst.Lookup(p.B)
		if !okA || !okB {
			continue
		}
		for _, x := range va {
			if !u.t.IsVariable(x) {
				continue
			}
			for _, y := range vb {
				if !u.t.IsVariable(y) {
					continue
				}
				if x == y || !req.Theorem.AllowsDisjoint(x, y) {
					return &DisjointError{
						Assertion: req.Assertion.Label,
						Theorem:   req.Theorem.Label,
						Step:      req.Step,
						A:         u.t.SymbolName(p.A),
						B:         u.t.SymbolName(p.B),
						X:         u.t.SymbolName(x),
						Y:         u.t.SymbolName(y),
					}
				}
			}
		}
	}
	return nil
}
