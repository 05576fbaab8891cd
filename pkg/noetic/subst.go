// This file implements the substitution: a variable-to-term mapping with
// walk-on-read dereference, occurs-check, and unification.
//
// Bindings is realized as a persistent linked chain rather than a
// trail-and-rollback mutable map (spec's "Design Notes" §9 permits either).
// Extending a Bindings allocates one new node pointing at its parent;
// abandoning a search branch is simply forgetting that pointer, so there is
// nothing to explicitly unwind on backtrack - the gokanlogic teacher's
// ConstraintStore snapshot/restore discipline collapses here into "share
// the parent, never mutate it."
package noetic

import "fmt"

// Bindings is an immutable variable-to-term mapping. A nil *Bindings is the
// empty substitution.
type Bindings struct {
	name   string
	value  Term
	parent *Bindings
	depth  int
}

// Depth returns the number of extensions between b and the empty
// substitution. Extend uses it to number each new link; the engine's
// recursion guard keeps its own depth count.
func (b *Bindings) Depth() int {
	if b == nil {
		return 0
	}
	return b.depth
}

// Extend returns a new Bindings mapping name to value, with b as parent.
// The caller must already have applied the occurs-check; Extend itself
// performs no validation.
func (b *Bindings) Extend(name string, value Term) *Bindings {
	return &Bindings{name: name, value: value, parent: b, depth: b.Depth() + 1}
}

// lookup walks the chain for the most recent binding of name.
func (b *Bindings) lookup(name string) (Term, bool) {
	for n := b; n != nil; n = n.parent {
		if n.name == name {
			return n.value, true
		}
	}
	return nil, false
}

// FieldResolver resolves a named entity or concept's field against a
// knowledge base. The KnowledgeBase type implements this; it is expressed
// as an interface here so subst.go has no dependency on kb.go's concrete
// storage layout.
type FieldResolver interface {
	ResolveField(objectName, field string) (Term, bool)
}

// Deref walks t through b (and, for FieldAccess terms, through fr) until it
// reaches a bound non-variable, non-FieldAccess term or an unresolved
// variable/FieldAccess. It never returns a term that is itself immediately
// further dereferenceable.
func Deref(t Term, b *Bindings, fr FieldResolver) Term {
	for {
		switch v := t.(type) {
		case *Variable:
			if v.Anonymous {
				return v
			}
			val, ok := b.lookup(v.Name)
			if !ok {
				return v
			}
			t = val
		case *FieldAccess:
			obj := Deref(v.Object, b, fr)
			atom, ok := obj.(*Atom)
			if !ok {
				return v
			}
			resolved, ok := fr.ResolveField(atom.Value, v.Field)
			if !ok {
				return v
			}
			t = resolved
		default:
			return t
		}
	}
}

// occurs reports whether name appears, under b, anywhere inside t. Used by
// Unify to reject cyclic bindings before they are made.
func occurs(name string, t Term, b *Bindings, fr FieldResolver) bool {
	t = Deref(t, b, fr)
	switch v := t.(type) {
	case *Variable:
		return !v.Anonymous && v.Name == name
	case *Compound:
		for _, a := range v.Args {
			if occurs(name, a, b, fr) {
				return true
			}
		}
		return false
	case *List:
		for _, e := range v.Elements {
			if occurs(name, e, b, fr) {
				return true
			}
		}
		if v.Tail != nil {
			return occurs(name, v.Tail, b, fr)
		}
		return false
	default:
		return false
	}
}

// Unify extends b to make a and b-term structurally equal, per spec's
// seven-rule algorithm: anonymous variables unify with anything at no
// cost, a variable binds to its partner after an occurs-check, ground
// atomic terms compare by value, and compounds/lists unify pairwise.
//
// Unify is pure: on failure it returns (b, false) with b unchanged (the
// caller simply discards the attempt), never mutating its input.
func Unify(x, y Term, b *Bindings, fr FieldResolver) (*Bindings, bool) {
	x = Deref(x, b, fr)
	y = Deref(y, b, fr)

	if xv, ok := x.(*Variable); ok && xv.Anonymous {
		return b, true
	}
	if yv, ok := y.(*Variable); ok && yv.Anonymous {
		return b, true
	}

	xv, xIsVar := x.(*Variable)
	yv, yIsVar := y.(*Variable)

	switch {
	case xIsVar && yIsVar && xv.Name == yv.Name:
		return b, true
	case xIsVar:
		if occurs(xv.Name, y, b, fr) {
			return b, false
		}
		return b.Extend(xv.Name, y), true
	case yIsVar:
		if occurs(yv.Name, x, b, fr) {
			return b, false
		}
		return b.Extend(yv.Name, x), true
	}

	switch xt := x.(type) {
	case *Atom:
		yt, ok := y.(*Atom)
		return b, ok && xt.Value == yt.Value
	case *String:
		yt, ok := y.(*String)
		return b, ok && xt.Value == yt.Value
	case *Number:
		yt, ok := y.(*Number)
		return b, ok && xt.Value == yt.Value
	case *Compound:
		yt, ok := y.(*Compound)
		if !ok || xt.Functor != yt.Functor || len(xt.Args) != len(yt.Args) {
			return b, false
		}
		cur := b
		for i := range xt.Args {
			var unified bool
			cur, unified = Unify(xt.Args[i], yt.Args[i], cur, fr)
			if !unified {
				return b, false
			}
		}
		return cur, true
	case *List:
		yt, ok := y.(*List)
		if !ok {
			return b, false
		}
		return unifyLists(xt, yt, b, fr)
	case *FieldAccess:
		// Deref only leaves a FieldAccess unresolved when it could not be
		// looked up; two such terms unify only when they name the same
		// object and field, mirroring an unbound variable's self-equality.
		yt, ok := y.(*FieldAccess)
		if !ok || xt.Field != yt.Field {
			return b, false
		}
		return Unify(xt.Object, yt.Object, b, fr)
	default:
		return b, false
	}
}

// unifyLists decomposes two lists head-by-head, then unifies whatever
// remains of each as a residual list/tail pair, per spec rule 6.
func unifyLists(x, y *List, b *Bindings, fr FieldResolver) (*Bindings, bool) {
	orig := b
	xRest, yRest := x.Elements, y.Elements
	for len(xRest) > 0 && len(yRest) > 0 {
		var unified bool
		b, unified = Unify(xRest[0], yRest[0], b, fr)
		if !unified {
			return orig, false
		}
		xRest, yRest = xRest[1:], yRest[1:]
	}

	xResidual := residualOf(xRest, x.Tail)
	yResidual := residualOf(yRest, y.Tail)
	if nb, ok := Unify(xResidual, yResidual, b, fr); ok {
		return nb, true
	}
	return orig, false
}

// residualOf builds the term representing "what's left" of a list after
// consuming some head elements: a shorter list with the same tail, or just
// the tail if no elements remain and no tail was ever present.
func residualOf(elements []Term, tail Term) Term {
	if len(elements) == 0 {
		if tail == nil {
			return EmptyList
		}
		return tail
	}
	return &List{Elements: elements, Tail: tail}
}

// StructurallyEqual implements L == R: true iff x and y, after full
// recursive dereference, are identical trees. Unlike Unify this never
// extends b.
func StructurallyEqual(x, y Term, b *Bindings, fr FieldResolver) bool {
	x = Deref(x, b, fr)
	y = Deref(y, b, fr)

	switch xt := x.(type) {
	case *Variable:
		yt, ok := y.(*Variable)
		return ok && !xt.Anonymous && !yt.Anonymous && xt.Name == yt.Name
	case *Atom:
		yt, ok := y.(*Atom)
		return ok && xt.Value == yt.Value
	case *String:
		yt, ok := y.(*String)
		return ok && xt.Value == yt.Value
	case *Number:
		yt, ok := y.(*Number)
		return ok && xt.Value == yt.Value
	case *Compound:
		yt, ok := y.(*Compound)
		if !ok || xt.Functor != yt.Functor || len(xt.Args) != len(yt.Args) {
			return false
		}
		for i := range xt.Args {
			if !StructurallyEqual(xt.Args[i], yt.Args[i], b, fr) {
				return false
			}
		}
		return true
	case *List:
		yt, ok := y.(*List)
		if !ok || len(xt.Elements) != len(yt.Elements) {
			return false
		}
		for i := range xt.Elements {
			if !StructurallyEqual(xt.Elements[i], yt.Elements[i], b, fr) {
				return false
			}
		}
		if (xt.Tail == nil) != (yt.Tail == nil) {
			return false
		}
		if xt.Tail == nil {
			return true
		}
		return StructurallyEqual(xt.Tail, yt.Tail, b, fr)
	case *FieldAccess:
		yt, ok := y.(*FieldAccess)
		return ok && xt.Field == yt.Field && StructurallyEqual(xt.Object, yt.Object, b, fr)
	default:
		return false
	}
}

// Resolve fully dereferences t and every subterm it contains, returning a
// ground-as-possible snapshot suitable for printing or for collecting into
// a findall/setof/bagof template. Unlike Deref it recurses into compounds
// and lists.
func Resolve(t Term, b *Bindings, fr FieldResolver) Term {
	t = Deref(t, b, fr)
	switch v := t.(type) {
	case *Compound:
		args := make([]Term, len(v.Args))
		for i, a := range v.Args {
			args[i] = Resolve(a, b, fr)
		}
		return &Compound{Functor: v.Functor, Args: args}
	case *List:
		elems := make([]Term, len(v.Elements))
		for i, e := range v.Elements {
			elems[i] = Resolve(e, b, fr)
		}
		var tail Term
		if v.Tail != nil {
			tail = Resolve(v.Tail, b, fr)
			if innerList, ok := tail.(*List); ok {
				elems = append(elems, innerList.Elements...)
				tail = innerList.Tail
			}
		}
		return &List{Elements: elems, Tail: tail}
	default:
		return v
	}
}

// renamer generates fresh, globally-unique variable names by suffixing a
// base name with a monotonically increasing counter, and remembers the
// mapping within one rename pass so repeated occurrences of the same
// source variable resolve to the same fresh variable.
type renamer struct {
	suffix int64
	seen   map[string]*Variable
}

func newRenamer(suffix int64) *renamer {
	return &renamer{suffix: suffix, seen: make(map[string]*Variable)}
}

func (r *renamer) rename(v *Variable) *Variable {
	if v.Anonymous {
		return NewAnonymousVariable(v.Name)
	}
	if fresh, ok := r.seen[v.Name]; ok {
		return fresh
	}
	fresh := NewVariable(fmt.Sprintf("%s#%d", v.Name, r.suffix))
	r.seen[v.Name] = fresh
	return fresh
}

func (r *renamer) term(t Term) Term {
	switch v := t.(type) {
	case *Variable:
		return r.rename(v)
	case *Compound:
		args := make([]Term, len(v.Args))
		for i, a := range v.Args {
			args[i] = r.term(a)
		}
		return &Compound{Functor: v.Functor, Args: args}
	case *List:
		elems := make([]Term, len(v.Elements))
		for i, e := range v.Elements {
			elems[i] = r.term(e)
		}
		var tail Term
		if v.Tail != nil {
			tail = r.term(v.Tail)
		}
		return &List{Elements: elems, Tail: tail}
	case *FieldAccess:
		return &FieldAccess{Object: r.term(v.Object), Field: v.Field}
	default:
		return t
	}
}

func (r *renamer) goals(gs Goals) Goals {
	out := make(Goals, len(gs))
	for i, g := range gs {
		out[i] = r.goal(g)
	}
	return out
}

func (r *renamer) goal(g Goal) Goal {
	switch v := g.(type) {
	case *PredicateCall:
		args := make([]Term, len(v.Args))
		for i, a := range v.Args {
			args[i] = r.term(a)
		}
		return &PredicateCall{Name: v.Name, Args: args}
	case *Equality:
		return &Equality{Op: v.Op, Left: r.term(v.Left), Right: r.term(v.Right)}
	case *SemanticMatch:
		return &SemanticMatch{Left: r.term(v.Left), Right: r.term(v.Right)}
	case *ArithCompare:
		return &ArithCompare{Op: v.Op, Left: r.term(v.Left), Right: r.term(v.Right)}
	case *Negation:
		return &Negation{Body: r.goals(v.Body)}
	case *Disjunction:
		return &Disjunction{Left: r.goals(v.Left), Right: r.goals(v.Right)}
	case *IfThenElse:
		var elze Goals
		if v.Else != nil {
			elze = r.goals(v.Else)
		}
		return &IfThenElse{Cond: r.goals(v.Cond), Then: r.goals(v.Then), Else: elze}
	case *Cut:
		return v
	default:
		return g
	}
}

// renameClause returns a fresh copy of c with every variable renamed under
// a unique suffix, so two invocations of the same clause never share a
// variable (spec's "Freshness" invariant, §8.4).
func renameClause(c *Clause, suffix int64) *Clause {
	r := newRenamer(suffix)
	params := make([]Term, len(c.Head.Params))
	for i, p := range c.Head.Params {
		params[i] = r.term(p)
	}
	return &Clause{
		Head: PredicateHead{Name: c.Head.Name, Params: params},
		Body: r.goals(c.Body),
	}
}
