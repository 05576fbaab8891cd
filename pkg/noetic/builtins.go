// This file implements the built-in predicate table: name/arity pairs
// mapped to handlers that run against the engine's continuation-passing
// search, mirroring gokanlogic's list_ops.go and highlevel_api.go pattern
// of small, independently testable predicate implementations registered
// by name rather than hand-rolled into the resolution loop.
package noetic

import (
	"context"
	"sort"
)

// builtinFunc is a built-in predicate's implementation: given its
// (unevaluated) argument terms, the incoming bindings, and a success
// continuation, it behaves exactly like solveGoal for a PredicateCall. bar
// is the enclosing clause body's barrier - member/2 and between/3 are the
// two builtins that, like a clause loop, offer more than one solution per
// call, and must stop offering them once a cut downstream sets bar.cut.
type builtinFunc func(ctx context.Context, e *Engine, args []Term, b *Bindings, bar *barrier, k cont) error

const variadic = -1

var builtinTable map[string]map[int]builtinFunc

func init() {
	builtinTable = map[string]map[int]builtinFunc{
		"print":        {variadic: biPrint(false)},
		"println":      {variadic: biPrint(true)},
		"nl":           {0: biNl},
		"readln":       {1: biReadln},
		"member":       {2: biMember},
		"append":       {3: biAppend},
		"length":       {2: biLength},
		"reverse":      {2: biReverse},
		"is_list":      {1: biIsList},
		"is_atom":      {1: biIsAtom},
		"is_bound":     {1: biIsBound},
		"is_unbound":   {1: biIsUnbound},
		"findall":      {3: biFindall},
		"setof":        {3: biSetof},
		"bagof":        {3: biBagof},
		"has_attr":     {2: biHasAttr},
		"share_attr":   {3: biShareAttr},
		"differentia":  {3: biDifferentia},
		"similar_attr": {3: biSimilarAttr},
		"functor":      {3: biFunctor},
		"copy_term":    {2: biCopyTerm},
		"sort":         {2: biSort},
		"msort":        {2: biMsort},
		"between":      {3: biBetween},
		"concat_atom":  {2: biConcatAtom},
		"is":           {2: biIs},
		"call":         {variadic: biCall},
	}
}

func lookupBuiltin(name string, arity int) (builtinFunc, bool) {
	byArity, ok := builtinTable[name]
	if !ok {
		return nil, false
	}
	if fn, ok := byArity[arity]; ok {
		return fn, true
	}
	if fn, ok := byArity[variadic]; ok {
		return fn, true
	}
	return nil, false
}

// isBuiltinName reports whether name is registered as a builtin at any
// arity, regardless of whether the call's actual arity matches.
func isBuiltinName(name string) bool {
	_, ok := builtinTable[name]
	return ok
}

// --- I/O ---

func biPrint(newline bool) builtinFunc {
	return func(ctx context.Context, e *Engine, args []Term, b *Bindings, bar *barrier, k cont) error {
		e.sideEffectFired = true
		if e.output == nil {
			return k(b)
		}
		s := ""
		for i, a := range args {
			if i > 0 {
				s += " "
			}
			s += printableForm(Resolve(a, b, e.kb))
		}
		if newline {
			s += "\n"
		}
		e.output.Print(s)
		return k(b)
	}
}

func biNl(ctx context.Context, e *Engine, args []Term, b *Bindings, bar *barrier, k cont) error {
	e.sideEffectFired = true
	if e.output != nil {
		e.output.Print("\n")
	}
	return k(b)
}

func biReadln(ctx context.Context, e *Engine, args []Term, b *Bindings, bar *barrier, k cont) error {
	e.sideEffectFired = true
	v, ok := Deref(args[0], b, e.kb).(*Variable)
	if !ok || v.Anonymous {
		return &ResolutionError{Goal: "readln", Message: "argument must be an unbound variable"}
	}
	if e.input == nil {
		return &ResolutionError{Goal: "readln", Message: "no input source configured"}
	}
	line, err := e.input.ReadLine()
	if err != nil {
		return &ResolutionError{Goal: "readln", Message: "read failed: " + err.Error()}
	}
	return k(b.Extend(v.Name, NewString(line)))
}

// --- lists ---

func biMember(ctx context.Context, e *Engine, args []Term, b *Bindings, bar *barrier, k cont) error {
	list, ok := Deref(args[1], b, e.kb).(*List)
	if !ok || !list.IsProper() {
		return &ResolutionError{Goal: "member", Message: "second argument must be a proper list"}
	}
	for _, elem := range list.Elements {
		b2, unified := Unify(args[0], elem, b, e.kb)
		if !unified {
			continue
		}
		if err := k(b2); err != nil {
			return err
		}
		if bar.cut {
			break
		}
	}
	return nil
}

func biAppend(ctx context.Context, e *Engine, args []Term, b *Bindings, bar *barrier, k cont) error {
	aVals, aOk := groundTermList(args[0], b, e.kb)
	bVals, bOk := groundTermList(args[1], b, e.kb)
	if !aOk || !bOk {
		return &ResolutionError{Goal: "append", Message: "first two arguments must be ground lists"}
	}
	combined := append(append([]Term{}, aVals...), bVals...)
	b2, unified := Unify(args[2], &List{Elements: combined}, b, e.kb)
	if !unified {
		return nil
	}
	return k(b2)
}

func biLength(ctx context.Context, e *Engine, args []Term, b *Bindings, bar *barrier, k cont) error {
	vals, ok := groundTermList(args[0], b, e.kb)
	if !ok {
		return &ResolutionError{Goal: "length", Message: "first argument must be a ground list"}
	}
	b2, unified := Unify(args[1], NewNumber(float64(len(vals))), b, e.kb)
	if !unified {
		return nil
	}
	return k(b2)
}

func biReverse(ctx context.Context, e *Engine, args []Term, b *Bindings, bar *barrier, k cont) error {
	vals, ok := groundTermList(args[0], b, e.kb)
	if !ok {
		return &ResolutionError{Goal: "reverse", Message: "first argument must be a ground list"}
	}
	rev := make([]Term, len(vals))
	for i, v := range vals {
		rev[len(vals)-1-i] = v
	}
	b2, unified := Unify(args[1], &List{Elements: rev}, b, e.kb)
	if !unified {
		return nil
	}
	return k(b2)
}

// groundTermList returns the dereferenced elements of a proper list term.
func groundTermList(t Term, b *Bindings, fr FieldResolver) ([]Term, bool) {
	l, ok := Deref(t, b, fr).(*List)
	if !ok || !l.IsProper() {
		return nil, false
	}
	return l.Elements, true
}

// --- type guards ---

func biIsList(ctx context.Context, e *Engine, args []Term, b *Bindings, bar *barrier, k cont) error {
	l, ok := Deref(args[0], b, e.kb).(*List)
	if !ok || !l.IsProper() {
		return nil
	}
	return k(b)
}

func biIsAtom(ctx context.Context, e *Engine, args []Term, b *Bindings, bar *barrier, k cont) error {
	if _, ok := Deref(args[0], b, e.kb).(*Atom); !ok {
		return nil
	}
	return k(b)
}

func biIsBound(ctx context.Context, e *Engine, args []Term, b *Bindings, bar *barrier, k cont) error {
	if v, ok := Deref(args[0], b, e.kb).(*Variable); ok && !v.Anonymous {
		return nil
	}
	return k(b)
}

func biIsUnbound(ctx context.Context, e *Engine, args []Term, b *Bindings, bar *barrier, k cont) error {
	v, ok := Deref(args[0], b, e.kb).(*Variable)
	if !ok || v.Anonymous {
		return nil
	}
	return k(b)
}

// --- aggregation ---

func collectTemplate(ctx context.Context, e *Engine, template Term, goal Term, b *Bindings) ([]Term, error) {
	goals, err := goalFromCallable(goal)
	if err != nil {
		return nil, err
	}
	var out []Term
	localBar := &barrier{}
	err = e.solveGoals(ctx, goals, b, 0, localBar, func(b2 *Bindings) error {
		out = append(out, Resolve(template, b2, e.kb))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// goalFromCallable turns a term naming a goal (an Atom or Compound) into
// the single-PredicateCall Goals findall/setof/bagof run as a nested
// resolution, per spec §4.6's reentrancy note.
func goalFromCallable(t Term) (Goals, error) {
	switch v := t.(type) {
	case *Atom:
		return Goals{&PredicateCall{Name: v.Value}}, nil
	case *Compound:
		return Goals{&PredicateCall{Name: v.Functor, Args: v.Args}}, nil
	default:
		return nil, &ResolutionError{Goal: "findall", Message: "goal argument must be a predicate call"}
	}
}

func biFindall(ctx context.Context, e *Engine, args []Term, b *Bindings, bar *barrier, k cont) error {
	results, err := collectTemplate(ctx, e, args[0], Deref(args[1], b, e.kb), b)
	if err != nil {
		return err
	}
	if results == nil {
		results = []Term{}
	}
	b2, unified := Unify(args[2], &List{Elements: results}, b, e.kb)
	if !unified {
		return nil
	}
	return k(b2)
}

func biSetof(ctx context.Context, e *Engine, args []Term, b *Bindings, bar *barrier, k cont) error {
	results, err := collectTemplate(ctx, e, args[0], Deref(args[1], b, e.kb), b)
	if err != nil {
		return err
	}
	results = dedupeByStructure(results)
	if len(results) == 0 {
		return nil // spec §4.6: setof/bagof fail on an empty solution set
	}
	b2, unified := Unify(args[2], &List{Elements: results}, b, e.kb)
	if !unified {
		return nil
	}
	return k(b2)
}

func biBagof(ctx context.Context, e *Engine, args []Term, b *Bindings, bar *barrier, k cont) error {
	results, err := collectTemplate(ctx, e, args[0], Deref(args[1], b, e.kb), b)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return nil
	}
	b2, unified := Unify(args[2], &List{Elements: results}, b, e.kb)
	if !unified {
		return nil
	}
	return k(b2)
}

func dedupeByStructure(terms []Term) []Term {
	var out []Term
	for _, t := range terms {
		dup := false
		for _, seen := range out {
			if StructurallyEqual(t, seen, nil, nil) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, t)
		}
	}
	return out
}

// --- judge-backed builtins ---

func biHasAttr(ctx context.Context, e *Engine, args []Term, b *Bindings, bar *barrier, k cont) error {
	attr := describeTerm(Resolve(args[0], b, e.kb), e.kb)
	subject := describeTerm(Resolve(args[1], b, e.kb), e.kb)
	ok, err := runJudge(ctx, e, "has_attr", func(ctx context.Context) (bool, error) {
		return e.judge.HasAttribute(ctx, attr, subject)
	})
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return k(b)
}

func biShareAttr(ctx context.Context, e *Engine, args []Term, b *Bindings, bar *barrier, k cont) error {
	attr := describeTerm(Resolve(args[0], b, e.kb), e.kb)
	x := describeTerm(Resolve(args[1], b, e.kb), e.kb)
	y := describeTerm(Resolve(args[2], b, e.kb), e.kb)
	ok, err := runJudge(ctx, e, "share_attr", func(ctx context.Context) (bool, error) {
		return e.judge.SharesAttribute(ctx, attr, x, y)
	})
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return k(b)
}

func biDifferentia(ctx context.Context, e *Engine, args []Term, b *Bindings, bar *barrier, k cont) error {
	x := describeTerm(Resolve(args[0], b, e.kb), e.kb)
	y := describeTerm(Resolve(args[1], b, e.kb), e.kb)
	if e.judge == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, judgeTimeout)
	defer cancel()
	answer, err := e.judge.Differentiate(ctx, x, y)
	if err != nil {
		var jf *JudgeFailure
		if isJudgeFailure(err, &jf) {
			e.logger.Warn("judge failure", "operation", jf.Operation, "error", jf.Err)
			return nil
		}
		return err
	}
	if answer == "" {
		return nil
	}
	b2, unified := Unify(args[2], NewString(answer), b, e.kb)
	if !unified {
		return nil
	}
	return k(b2)
}

func biSimilarAttr(ctx context.Context, e *Engine, args []Term, b *Bindings, bar *barrier, k cont) error {
	axis := describeTerm(Resolve(args[0], b, e.kb), e.kb)
	x := describeTerm(Resolve(args[1], b, e.kb), e.kb)
	y := describeTerm(Resolve(args[2], b, e.kb), e.kb)
	ok, err := runJudge(ctx, e, "similar_attr", func(ctx context.Context) (bool, error) {
		return e.judge.SimilarAlong(ctx, axis, x, y)
	})
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return k(b)
}

// runJudge centralizes the spec §4.7 failure mapping (a *JudgeFailure
// degrades to false, never propagates) shared by every judge-backed
// builtin.
func runJudge(ctx context.Context, e *Engine, op string, call func(context.Context) (bool, error)) (bool, error) {
	if e.judge == nil {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, judgeTimeout)
	defer cancel()
	ok, err := call(ctx)
	if err != nil {
		var jf *JudgeFailure
		if isJudgeFailure(err, &jf) {
			e.logger.Warn("judge failure", "operation", op, "error", jf.Err)
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

func isJudgeFailure(err error, target **JudgeFailure) bool {
	jf, ok := err.(*JudgeFailure)
	if ok {
		*target = jf
	}
	return ok
}

// --- supplemented builtins ---

func biFunctor(ctx context.Context, e *Engine, args []Term, b *Bindings, bar *barrier, k cont) error {
	t := Deref(args[0], b, e.kb)
	if _, isVar := t.(*Variable); !isVar {
		var name Term
		var arity int
		switch v := t.(type) {
		case *Compound:
			name, arity = NewAtom(v.Functor), len(v.Args)
		case *Atom:
			name, arity = v, 0
		default:
			return &ResolutionError{Goal: "functor", Message: "first argument must be a compound, atom, or unbound variable"}
		}
		b2, unified := Unify(args[1], name, b, e.kb)
		if !unified {
			return nil
		}
		b3, unified := Unify(args[2], NewNumber(float64(arity)), b2, e.kb)
		if !unified {
			return nil
		}
		return k(b3)
	}

	nameTerm := Deref(args[1], b, e.kb)
	arityTerm := Deref(args[2], b, e.kb)
	name, ok := nameTerm.(*Atom)
	arityNum, okN := arityTerm.(*Number)
	if !ok || !okN {
		return &ResolutionError{Goal: "functor", Message: "second and third arguments must be bound when constructing"}
	}
	arity := int(arityNum.Value)
	if arity == 0 {
		b2, unified := Unify(args[0], name, b, e.kb)
		if !unified {
			return nil
		}
		return k(b2)
	}
	fresh := make([]Term, arity)
	for i := range fresh {
		fresh[i] = NewAnonymousVariable("_")
	}
	b2, unified := Unify(args[0], &Compound{Functor: name.Value, Args: fresh}, b, e.kb)
	if !unified {
		return nil
	}
	return k(b2)
}

func biCopyTerm(ctx context.Context, e *Engine, args []Term, b *Bindings, bar *barrier, k cont) error {
	e.renameSeq++
	r := newRenamer(e.renameSeq)
	copied := r.term(Resolve(args[0], b, e.kb))
	b2, unified := Unify(args[1], copied, b, e.kb)
	if !unified {
		return nil
	}
	return k(b2)
}

func biSort(ctx context.Context, e *Engine, args []Term, b *Bindings, bar *barrier, k cont) error {
	vals, ok := groundTermList(args[0], b, e.kb)
	if !ok {
		return &ResolutionError{Goal: "sort", Message: "first argument must be a ground list"}
	}
	resolved := make([]Term, len(vals))
	for i, v := range vals {
		resolved[i] = Resolve(v, b, e.kb)
	}
	sort.Slice(resolved, func(i, j int) bool { return termLess(resolved[i], resolved[j]) })
	resolved = dedupeByStructure(resolved)
	b2, unified := Unify(args[1], &List{Elements: resolved}, b, e.kb)
	if !unified {
		return nil
	}
	return k(b2)
}

func biMsort(ctx context.Context, e *Engine, args []Term, b *Bindings, bar *barrier, k cont) error {
	vals, ok := groundTermList(args[0], b, e.kb)
	if !ok {
		return &ResolutionError{Goal: "msort", Message: "first argument must be a ground list"}
	}
	resolved := make([]Term, len(vals))
	for i, v := range vals {
		resolved[i] = Resolve(v, b, e.kb)
	}
	sort.Slice(resolved, func(i, j int) bool { return termLess(resolved[i], resolved[j]) })
	b2, unified := Unify(args[1], &List{Elements: resolved}, b, e.kb)
	if !unified {
		return nil
	}
	return k(b2)
}

// termLess provides a total, deterministic order over ground terms for
// sort/2 and msort/2: numbers by value, strings and atoms lexically
// within their own kind, everything else by rendered surface syntax.
func termLess(a, b Term) bool {
	an, aIsNum := a.(*Number)
	bn, bIsNum := b.(*Number)
	if aIsNum && bIsNum {
		return an.Value < bn.Value
	}
	return a.String() < b.String()
}

func biBetween(ctx context.Context, e *Engine, args []Term, b *Bindings, bar *barrier, k cont) error {
	lowT, ok := Deref(args[0], b, e.kb).(*Number)
	highT, ok2 := Deref(args[1], b, e.kb).(*Number)
	if !ok || !ok2 {
		return &ResolutionError{Goal: "between", Message: "first two arguments must be bound numbers"}
	}
	for n := int64(lowT.Value); n <= int64(highT.Value); n++ {
		b2, unified := Unify(args[2], NewNumber(float64(n)), b, e.kb)
		if !unified {
			continue
		}
		if err := k(b2); err != nil {
			return err
		}
		if bar.cut {
			break
		}
	}
	return nil
}

func biConcatAtom(ctx context.Context, e *Engine, args []Term, b *Bindings, bar *barrier, k cont) error {
	vals, ok := groundTermList(args[0], b, e.kb)
	if !ok {
		return &ResolutionError{Goal: "concat_atom", Message: "first argument must be a ground list"}
	}
	s := ""
	for _, v := range vals {
		s += printableForm(Resolve(v, b, e.kb))
	}
	b2, unified := Unify(args[1], NewAtom(s), b, e.kb)
	if !unified {
		return nil
	}
	return k(b2)
}

func biIs(ctx context.Context, e *Engine, args []Term, b *Bindings, bar *barrier, k cont) error {
	val, err := EvalArith(args[1], b, e.kb)
	if err != nil {
		return err
	}
	b2, unified := Unify(args[0], NewNumber(val), b, e.kb)
	if !unified {
		return nil
	}
	return k(b2)
}

// biCall implements call/1..N: call(G, Extra...) appends Extra to G's
// existing arguments and invokes the result as a goal, the standard
// meta-call builtin the resolution error taxonomy's "meta-call target"
// wording (spec §7) presupposes.
func biCall(ctx context.Context, e *Engine, args []Term, b *Bindings, bar *barrier, k cont) error {
	if len(args) == 0 {
		return &ResolutionError{Goal: "call", Message: "call/0 is not valid"}
	}
	target := Deref(args[0], b, e.kb)
	extra := args[1:]

	var name string
	var baseArgs []Term
	switch v := target.(type) {
	case *Atom:
		name = v.Value
	case *Compound:
		name, baseArgs = v.Functor, v.Args
	default:
		return &ResolutionError{Goal: "call", Message: "call target must be a compound or an atom"}
	}

	goal := &PredicateCall{Name: name, Args: append(append([]Term{}, baseArgs...), extra...)}
	localBar := &barrier{}
	return e.solveGoal(ctx, goal, b, 0, localBar, k)
}

// printableForm renders t the way print/1 and println/1 do: strings bare,
// everything else via surface syntax (spec §4.8).
func printableForm(t Term) string {
	if s, ok := t.(*String); ok {
		return s.Value
	}
	return t.String()
}
