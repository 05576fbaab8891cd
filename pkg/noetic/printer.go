// This file implements solution rendering: turning a query's variable
// bindings into the surface-syntax text the driver prints for each answer,
// grounded on gokanlogic's cmd/example's own line-per-solution console
// report, adapted to this language's "Name = value, ..." shape.
package noetic

// VariableNames returns the distinct, non-anonymous variable names
// appearing in gs, in first-occurrence order. The driver uses it to decide
// which bindings a query's solution report should mention - only the
// variables the user actually wrote in the query, never the ones
// introduced by clause renaming.
func VariableNames(gs Goals) []string {
	var names []string
	seen := make(map[string]bool)
	var walkTerm func(Term)
	walkTerm = func(t Term) {
		switch v := t.(type) {
		case *Variable:
			if v.Anonymous || seen[v.Name] {
				return
			}
			seen[v.Name] = true
			names = append(names, v.Name)
		case *Compound:
			for _, a := range v.Args {
				walkTerm(a)
			}
		case *List:
			for _, e := range v.Elements {
				walkTerm(e)
			}
			if v.Tail != nil {
				walkTerm(v.Tail)
			}
		case *FieldAccess:
			walkTerm(v.Object)
		}
	}
	var walkGoal func(Goal)
	walkGoal = func(g Goal) {
		switch v := g.(type) {
		case *PredicateCall:
			for _, a := range v.Args {
				walkTerm(a)
			}
		case *Equality:
			walkTerm(v.Left)
			walkTerm(v.Right)
		case *ArithCompare:
			walkTerm(v.Left)
			walkTerm(v.Right)
		case *SemanticMatch:
			walkTerm(v.Left)
			walkTerm(v.Right)
		case *Negation:
			for _, sub := range v.Body {
				walkGoal(sub)
			}
		case *Disjunction:
			for _, sub := range v.Left {
				walkGoal(sub)
			}
			for _, sub := range v.Right {
				walkGoal(sub)
			}
		case *IfThenElse:
			for _, sub := range v.Cond {
				walkGoal(sub)
			}
			for _, sub := range v.Then {
				walkGoal(sub)
			}
			for _, sub := range v.Else {
				walkGoal(sub)
			}
		}
	}
	for _, g := range gs {
		walkGoal(g)
	}
	return names
}

// FormatSolution renders one query answer as "Name = value, ..." for the
// given variable names, resolving each fully against b (spec §4.8: strings
// display quoted in a binding report, distinguishing them from atoms, even
// though print/1 shows the same string bare).
func FormatSolution(names []string, b *Bindings, fr FieldResolver) string {
	if len(names) == 0 {
		return "true"
	}
	s := ""
	for i, name := range names {
		if i > 0 {
			s += ", "
		}
		val := Resolve(NewVariable(name), b, fr)
		s += name + " = " + val.String()
	}
	return s
}
