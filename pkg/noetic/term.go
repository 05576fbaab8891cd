// Package noetic implements a Prolog-flavored logic language whose
// distinguishing feature is a semantic-match goal that defers truth to an
// external judge (an LLM or embedding service). A program declares concepts,
// entities, and Horn-clause rules; queries are evaluated by SLD-resolution
// with chronological backtracking, streaming every solution lazily.
//
// The package follows the structure of a relational-programming library:
// terms are an immutable closed sum type, goals are values that produce a
// lazy Stream of Bindings when run against an Engine, and every blocking
// operation threads a context.Context for cancellation.
package noetic

import "fmt"

// Term is the closed set of values the language manipulates. Every case in
// spec is represented by a distinct Go type implementing this interface;
// there is no shared "kind" field to switch on, matching the tagged-variant
// model of the term grammar.
type Term interface {
	// String renders the term in surface syntax, quoting strings and
	// leaving atoms and numbers bare. Variables render as their name.
	String() string

	// termTag is unexported so Term cannot be implemented outside this
	// package; resolution and unification switch exhaustively over the
	// concrete cases below.
	termTag()
}

// Variable is a logic variable. Anonymous variables (spelled "_" in source)
// are distinct from every other variable, including other anonymous ones,
// and are never bound by unification.
type Variable struct {
	Name      string
	Anonymous bool
}

func (*Variable) termTag() {}

func (v *Variable) String() string { return v.Name }

// NewVariable creates a named logic variable.
func NewVariable(name string) *Variable { return &Variable{Name: name} }

// NewAnonymousVariable creates a fresh anonymous variable. Each call returns
// a distinct value even if name is reused, since anonymity - not name
// equality - governs identity for "_"-style variables.
func NewAnonymousVariable(name string) *Variable {
	return &Variable{Name: name, Anonymous: true}
}

// Atom is a symbolic constant, e.g. socrates, red.
type Atom struct {
	Value string
}

func (*Atom) termTag() {}

func (a *Atom) String() string { return a.Value }

// NewAtom creates an Atom with the given symbol text.
func NewAtom(value string) *Atom { return &Atom{Value: value} }

// String is a double-quoted string literal. It is atomic and ground, but
// distinct from Atom: "red" and red never unify.
type String struct {
	Value string
}

func (*String) termTag() {}

func (s *String) String() string { return fmt.Sprintf("%q", s.Value) }

// NewString creates a String term.
func NewString(value string) *String { return &String{Value: value} }

// Number is an optional numeric literal, required only by the optional
// arithmetic subsystem (arith.go).
type Number struct {
	Value float64
}

func (*Number) termTag() {}

func (n *Number) String() string {
	if n.Value == float64(int64(n.Value)) {
		return fmt.Sprintf("%d", int64(n.Value))
	}
	return fmt.Sprintf("%g", n.Value)
}

// NewNumber creates a Number term.
func NewNumber(value float64) *Number { return &Number{Value: value} }

// List is a sequence of head elements plus an optional tail. A List with a
// nil Tail is proper; a List whose Tail is a Variable or another List is
// improper (partial). An empty proper list has no head elements and a nil
// tail.
type List struct {
	Elements []Term
	Tail     Term
}

func (*List) termTag() {}

func (l *List) String() string {
	s := "["
	for i, e := range l.Elements {
		if i > 0 {
			s += ", "
		}
		s += e.String()
	}
	if l.Tail != nil {
		if len(l.Elements) > 0 {
			s += " | "
		}
		s += l.Tail.String()
	}
	return s + "]"
}

// NewList creates a proper list from the given elements.
func NewList(elements ...Term) *List { return &List{Elements: elements} }

// NewPartialList creates a list with elements followed by tail, e.g. the
// surface syntax [H | T].
func NewPartialList(elements []Term, tail Term) *List {
	return &List{Elements: elements, Tail: tail}
}

// EmptyList is the canonical empty proper list, used as the terminator
// unification compares against when a List's Tail is nil.
var EmptyList = &List{}

// IsProper reports whether l has no unresolved tail.
func (l *List) IsProper() bool { return l.Tail == nil }

// Compound is an ordered n-ary term with a functor symbol, e.g. point(1, 2).
type Compound struct {
	Functor string
	Args    []Term
}

func (*Compound) termTag() {}

func (c *Compound) String() string {
	s := c.Functor + "("
	for i, a := range c.Args {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}
	return s + ")"
}

// NewCompound creates a Compound term. Arity must be at least 1; a
// zero-arity "compound" is just an Atom in this language.
func NewCompound(functor string, args ...Term) *Compound {
	return &Compound{Functor: functor, Args: args}
}

// FieldAccess is a deferred lookup into the knowledge base of the form
// object.field. Object is itself a Term - almost always a Variable bound
// to the name of an entity or concept, occasionally a bare Atom naming one
// directly - so that renaming (subst.go's renamer) and ordinary
// dereference both reach it the same way they reach any other subterm.
// Resolving it (subst.go's Deref) first dereferences Object down to an
// Atom, then asks a KnowledgeBase for the named field; left unresolved, it
// unifies with nothing but another unresolved FieldAccess naming the same
// object/field, since it never becomes ground on its own.
type FieldAccess struct {
	Object Term
	Field  string
}

func (*FieldAccess) termTag() {}

func (f *FieldAccess) String() string { return f.Object.String() + "." + f.Field }

// NewFieldAccess creates a FieldAccess term.
func NewFieldAccess(object Term, field string) *FieldAccess {
	return &FieldAccess{Object: object, Field: field}
}

// groundListOfStrings extracts a []string from a proper List of String
// terms, or reports ok=false if t is not such a list. Nothing in the
// package calls it at present.
func groundListOfStrings(t Term) (vals []string, ok bool) {
	l, isList := t.(*List)
	if !isList || !l.IsProper() {
		return nil, false
	}
	out := make([]string, 0, len(l.Elements))
	for _, e := range l.Elements {
		s, isStr := e.(*String)
		if !isStr {
			return nil, false
		}
		out = append(out, s.Value)
	}
	return out, true
}
