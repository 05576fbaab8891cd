package noetic

// Goal is the closed set of control constructs a clause body is built from.
// Conjunction is an ordered slice of Goal, mirroring spec's "A Goals is an
// ordered conjunction"; there is deliberately no separate Conjunction case
// in this sum type because every body IS a Goals (see Clause.Body below).
type Goal interface {
	goalTag()
}

// PredicateCall invokes a user predicate or a builtin by name/arity,
// e.g. mortal(socrates) or member(X, L).
type PredicateCall struct {
	Name string
	Args []Term
}

func (*PredicateCall) goalTag() {}

// EqualityOp distinguishes the two equality goals the language supports.
type EqualityOp int

const (
	// Unifying is L = R: extends the substitution to make L and R equal.
	Unifying EqualityOp = iota
	// Structural is L == R: succeeds, substitution unchanged, iff the
	// dereferenced terms are already structurally identical.
	Structural
)

// Equality is L = R or L == R depending on Op.
type Equality struct {
	Op    EqualityOp
	Left  Term
	Right Term
}

func (*Equality) goalTag() {}

// ArithCompare is one of the optional numeric comparison goals
// (<, >, =<, >=, =:=, =\=) over the arithmetic evaluator in arith.go.
type ArithCompare struct {
	Op    string
	Left  Term
	Right Term
}

func (*ArithCompare) goalTag() {}

// SemanticMatch is L =~= R: defers truth to the judge client. If Left
// dereferences to a list, the goal succeeds when the judge affirms any
// element against Right (spec.md §4.5).
type SemanticMatch struct {
	Left  Term
	Right Term
}

func (*SemanticMatch) goalTag() {}

// Negation is "not G": succeeds, substitution unchanged, iff G has no
// solutions.
type Negation struct {
	Body Goals
}

func (*Negation) goalTag() {}

// Disjunction is "(A ; B)": streams every solution of A, then every
// solution of B.
type Disjunction struct {
	Left  Goals
	Right Goals
}

func (*Disjunction) goalTag() {}

// IfThenElse is "(Cond -> Then ; Else)" (or "(Cond -> Then)" with Else nil):
// commits to the first solution of Cond and streams Then from it, or
// streams Else against the incoming bindings if Cond has no solution.
type IfThenElse struct {
	Cond Goals
	Then Goals
	Else Goals // nil means no else branch (fails silently when Cond fails)
}

func (*IfThenElse) goalTag() {}

// Cut is "!": yields the incoming bindings once, then signals the enclosing
// clause-selection loop to stop offering further clause alternatives.
type Cut struct{}

func (*Cut) goalTag() {}

// Goals is an ordered conjunction of goals - a clause body or the body of a
// control construct.
type Goals []Goal

// PredicateHead is the name and formal parameters of a clause head.
type PredicateHead struct {
	Name   string
	Params []Term
}

// Clause is a Horn clause: head :- body. A fact has an empty Body.
type Clause struct {
	Head PredicateHead
	Body Goals
}

// IsFact reports whether c has an empty body.
func (c *Clause) IsFact() bool { return len(c.Body) == 0 }

// Arity returns the number of parameters in the clause head.
func (c *Clause) Arity() int { return len(c.Head.Params) }

// Concept is a declared abstract category with descriptive fields.
type Concept struct {
	Name        string
	Genus       string // empty means absent
	Description string // empty means absent
	Attributes  []string
	Essentials  []string
}

// Entity is a declared concrete instance of a Concept.
type Entity struct {
	Name        string
	ConceptType string
	Description string
	Properties  map[string]string
}

// Declaration is the closed set of top-level program statements.
type Declaration interface {
	declTag()
}

func (*Concept) declTag()      {}
func (*Entity) declTag()       {}
func (*ClauseDecl) declTag()   {}
func (*QueryDecl) declTag()    {}
func (*GlobalAssign) declTag() {}

// ClauseDecl wraps a Clause (fact or rule) as encountered at the top level
// of a program, in program order.
type ClauseDecl struct {
	Clause Clause
}

// QueryDecl is a "? Goal" statement.
type QueryDecl struct {
	Goal Goals
}

// GlobalAssign is a top-level "name = Term" assignment into the knowledge
// base's global-bindings map.
type GlobalAssign struct {
	Name  string
	Value Term
}

// Program is the ordered sequence of declarations produced by the parser.
type Program struct {
	Declarations []Declaration
}
