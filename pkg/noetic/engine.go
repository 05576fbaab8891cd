// This file implements the resolution engine: SLD-resolution with
// chronological backtracking over the Goal sum type, producing a lazily
// streamed sequence of Bindings. Solutions are generated by a
// continuation-passing search - each goal is given a "success
// continuation" it invokes once per solution it finds - rather than by
// gokanlogic's channel-fed ResultStream-of-worker-goroutines, because spec
// §5 requires single-threaded, deterministic solution order: there is
// never more than one search in flight, and the continuation chain IS the
// backtracking control flow, with no separate choice-point stack to
// maintain.
//
// The search itself still runs on its own goroutine, feeding a Stream the
// caller pulls from with Next - gokanlogic's Take/Put/Close shape, kept
// because it is the natural way to let a caller stop consuming (closing
// the stream) without the producer blocking forever. Judge HTTP calls and
// the readln/1 builtin are the only two points where that goroutine
// actually blocks on the outside world; everything else runs synchronously
// within a single Next() or Close() call.
package noetic

import (
	"context"
	"errors"
	"fmt"

	hclog "github.com/hashicorp/go-hclog"
)

// errStop is a private sentinel a success continuation returns to request
// that the search stop producing further solutions. Negation and an
// if-then-else condition return it once their inner goal has found its
// first solution. It is never surfaced to a caller as a real error.
var errStop = errors.New("noetic: search stopped")

// cont is the success continuation a goal invokes once per solution. It
// returns nil to request more solutions, errStop to request none, or any
// other error to abort the whole search with that error.
type cont func(*Bindings) error

// barrier marks the scope a cut commits: PredicateCall's clause loop and
// Disjunction/IfThenElse share one barrier per clause-body invocation, so a
// cut anywhere in that body discards the remaining clause alternatives and
// the untaken side of any disjunction reached so far, without affecting the
// caller that invoked the predicate.
type barrier struct {
	cut bool
}

// Engine resolves goals against a KnowledgeBase, optionally consulting a
// Judge for semantic-match goals and reading from an input source for
// readln/1.
type Engine struct {
	kb              *KnowledgeBase
	judge           Judge
	input           LineReader
	output          Printer
	logger          hclog.Logger
	maxDepth        int
	renameSeq       int64
	sideEffectFired bool // set by print/println/nl/readln; read by the driver's True/False suppression (spec §6)
}

// LineReader supplies input for the readln/1 builtin.
type LineReader interface {
	ReadLine() (string, error)
}

// Printer receives output from print/1, println/1, and nl/0.
type Printer interface {
	Print(s string)
}

// EngineOption configures an Engine at construction.
type EngineOption func(*Engine)

// WithJudge installs the judge client used for SemanticMatch and the
// has_attr/share_attr/differentia/similar_attr builtins.
func WithJudge(j Judge) EngineOption { return func(e *Engine) { e.judge = j } }

// WithInput installs the line reader readln/1 pulls from.
func WithInput(r LineReader) EngineOption { return func(e *Engine) { e.input = r } }

// WithOutput installs the sink print/1, println/1, and nl/0 write to.
func WithOutput(p Printer) EngineOption { return func(e *Engine) { e.output = p } }

// WithMaxDepth overrides the default recursion depth guard (2000).
func WithMaxDepth(n int) EngineOption { return func(e *Engine) { e.maxDepth = n } }

// WithLogger installs the structured logger the engine reports judge
// failures and clause-selection detail through. Defaults to a null logger,
// so a library consumer who never calls this option pays nothing.
func WithLogger(l hclog.Logger) EngineOption { return func(e *Engine) { e.logger = l } }

// NewEngine creates an Engine bound to kb.
func NewEngine(kb *KnowledgeBase, opts ...EngineOption) *Engine {
	e := &Engine{kb: kb, maxDepth: 2000, logger: hclog.NewNullLogger()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Stream is a lazily produced sequence of solutions. A Stream is backed by
// exactly one goroutine running the resolution search.
type Stream struct {
	results chan *Bindings
	errc    chan error
	cancel  context.CancelFunc
	done    chan struct{}
}

// Next blocks until a solution is available, the search is exhausted, the
// search fails with an error, or ctx is cancelled.
func (s *Stream) Next(ctx context.Context) (*Bindings, bool, error) {
	select {
	case b, ok := <-s.results:
		if !ok {
			select {
			case err := <-s.errc:
				return nil, false, err
			default:
				return nil, false, nil
			}
		}
		return b, true, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// Close stops the search goroutine and waits for it to exit. Safe to call
// more than once, and safe to call without having exhausted the stream.
func (s *Stream) Close() {
	s.cancel()
	<-s.done
}

// Solve starts a search for solutions to goals against the bindings b
// (normally an empty *Bindings), returning a Stream the caller pulls
// results from.
func (e *Engine) Solve(ctx context.Context, goals Goals, b *Bindings) *Stream {
	searchCtx, cancel := context.WithCancel(ctx)
	s := &Stream{
		results: make(chan *Bindings),
		errc:    make(chan error, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		defer close(s.results)
		bar := &barrier{}
		err := e.solveGoals(searchCtx, goals, b, 0, bar, func(sol *Bindings) error {
			select {
			case s.results <- sol:
				return nil
			case <-searchCtx.Done():
				return searchCtx.Err()
			}
		})
		if err != nil && !errors.Is(err, errStop) {
			s.errc <- err
		}
	}()
	return s
}

// SolveOnce runs goals to its first solution (or failure), without leaving
// a goroutine running, for callers that only ever want one answer.
func (e *Engine) SolveOnce(ctx context.Context, goals Goals, b *Bindings) (*Bindings, bool, error) {
	s := e.Solve(ctx, goals, b)
	defer s.Close()
	return s.Next(ctx)
}

func (e *Engine) solveGoals(ctx context.Context, gs Goals, b *Bindings, depth int, bar *barrier, k cont) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(gs) == 0 {
		return k(b)
	}
	head, rest := gs[0], gs[1:]
	return e.solveGoal(ctx, head, b, depth, bar, func(b2 *Bindings) error {
		return e.solveGoals(ctx, rest, b2, depth, bar, k)
	})
}

func (e *Engine) solveGoal(ctx context.Context, g Goal, b *Bindings, depth int, bar *barrier, k cont) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch goal := g.(type) {
	case *Cut:
		err := k(b)
		bar.cut = true
		return err

	case *Equality:
		return e.solveEquality(goal, b, k)

	case *ArithCompare:
		return e.solveArithCompare(goal, b, k)

	case *SemanticMatch:
		return e.solveSemanticMatch(ctx, goal, b, k)

	case *Negation:
		return e.solveNegation(ctx, goal, b, depth, k)

	case *Disjunction:
		return e.solveDisjunction(ctx, goal, b, depth, bar, k)

	case *IfThenElse:
		return e.solveIfThenElse(ctx, goal, b, depth, bar, k)

	case *PredicateCall:
		return e.solvePredicateCall(ctx, goal, b, depth, bar, k)

	default:
		return &ResolutionError{Goal: fmt.Sprintf("%T", g), Message: "unrecognized goal"}
	}
}

func (e *Engine) solveEquality(goal *Equality, b *Bindings, k cont) error {
	switch goal.Op {
	case Unifying:
		b2, ok := Unify(goal.Left, goal.Right, b, e.kb)
		if !ok {
			return nil
		}
		return k(b2)
	case Structural:
		if !StructurallyEqual(goal.Left, goal.Right, b, e.kb) {
			return nil
		}
		return k(b)
	default:
		return &ResolutionError{Goal: "=", Message: "unknown equality operator"}
	}
}

func (e *Engine) solveArithCompare(goal *ArithCompare, b *Bindings, k cont) error {
	left, err := EvalArith(goal.Left, b, e.kb)
	if err != nil {
		return err
	}
	right, err := EvalArith(goal.Right, b, e.kb)
	if err != nil {
		return err
	}
	var ok bool
	switch goal.Op {
	case "<":
		ok = left < right
	case ">":
		ok = left > right
	case "=<":
		ok = left <= right
	case ">=":
		ok = left >= right
	case "=:=":
		ok = left == right
	case "=\\=":
		ok = left != right
	default:
		return &ResolutionError{Goal: goal.Op, Message: "unknown arithmetic comparison operator"}
	}
	if !ok {
		return nil
	}
	return k(b)
}

func (e *Engine) solveSemanticMatch(ctx context.Context, goal *SemanticMatch, b *Bindings, k cont) error {
	left := Resolve(goal.Left, b, e.kb)
	right := Resolve(goal.Right, b, e.kb)

	candidates, isList := left.(*List)
	var subjects []Term
	if isList && candidates.IsProper() {
		subjects = candidates.Elements
	} else {
		subjects = []Term{left}
	}

	for _, subj := range subjects {
		ok, err := e.judgeConceptualIdentity(ctx, subj, right)
		if err != nil {
			var jf *JudgeFailure
			if errors.As(err, &jf) {
				e.logger.Warn("judge failure", "operation", jf.Operation, "error", jf.Err)
				continue // spec §4.7: judge failure maps to goal failure
			}
			return err
		}
		if ok {
			return k(b)
		}
	}
	return nil
}

func (e *Engine) judgeConceptualIdentity(ctx context.Context, left, right Term) (bool, error) {
	if e.judge == nil {
		return false, &JudgeFailure{Operation: "=~=", Err: errors.New("no judge configured")}
	}
	ctx, cancel := context.WithTimeout(ctx, judgeTimeout)
	defer cancel()
	return e.judge.ConceptualMatch(ctx, describeTerm(left, e.kb), describeTerm(right, e.kb))
}

func (e *Engine) solveNegation(ctx context.Context, goal *Negation, b *Bindings, depth int, k cont) error {
	localBar := &barrier{}
	found := false
	err := e.solveGoals(ctx, goal.Body, b, depth, localBar, func(*Bindings) error {
		found = true
		return errStop
	})
	if err != nil && !errors.Is(err, errStop) {
		return err
	}
	if found {
		return nil
	}
	return k(b)
}

func (e *Engine) solveDisjunction(ctx context.Context, goal *Disjunction, b *Bindings, depth int, bar *barrier, k cont) error {
	err := e.solveGoals(ctx, goal.Left, b, depth, bar, k)
	if err != nil {
		return err
	}
	if bar.cut {
		return nil
	}
	return e.solveGoals(ctx, goal.Right, b, depth, bar, k)
}

func (e *Engine) solveIfThenElse(ctx context.Context, goal *IfThenElse, b *Bindings, depth int, bar *barrier, k cont) error {
	condBar := &barrier{}
	var committed *Bindings
	err := e.solveGoals(ctx, goal.Cond, b, depth, condBar, func(b2 *Bindings) error {
		committed = b2
		return errStop
	})
	if err != nil && !errors.Is(err, errStop) {
		return err
	}
	if committed != nil {
		return e.solveGoals(ctx, goal.Then, committed, depth, bar, k)
	}
	if goal.Else == nil {
		return nil
	}
	return e.solveGoals(ctx, goal.Else, b, depth, bar, k)
}

// solvePredicateCall resolves goal against its matching clauses (or
// dispatches to a builtin). bar is the barrier of the clause body that
// contains this call, not the call's own body - a cut appearing later in
// bar's scope (spec §4.5: "commits to ... all choices made so far in that
// clause body") must stop this call's own clause/builtin enumeration too,
// even though the cut executes only once the continuation k unwinds back
// through it. localBar, by contrast, scopes cuts written inside goal's own
// matching clause bodies, and must never leak to bar's caller.
func (e *Engine) solvePredicateCall(ctx context.Context, goal *PredicateCall, b *Bindings, depth int, bar *barrier, k cont) error {
	if depth > e.maxDepth {
		return &ResolutionError{Goal: goal.Name, Message: "recursion depth exceeded"}
	}

	if fn, ok := lookupBuiltin(goal.Name, len(goal.Args)); ok {
		return fn(ctx, e, goal.Args, b, bar, k)
	}
	if isBuiltinName(goal.Name) {
		return nil // spec §4.6: an arity mismatch against a builtin fails, it does not error
	}

	clauses := e.kb.ClausesFor(goal.Name, len(goal.Args))
	if clauses == nil {
		return nil // no clause of this name/arity was ever declared: no solutions, not an error
	}

	localBar := &barrier{}
	for i, clause := range clauses {
		e.renameSeq++
		fresh := renameClause(clause, e.renameSeq)

		headCompound := headAsTerm(fresh.Head)
		callCompound := callAsTerm(goal)

		b2, ok := Unify(headCompound, callCompound, b, e.kb)
		e.logger.Debug("clause tried", "predicate", goal.Name, "clause", i, "unified", ok)
		if ok {
			if err := e.solveGoals(ctx, fresh.Body, b2, depth+1, localBar, k); err != nil {
				return err
			}
		}
		if localBar.cut || bar.cut {
			break
		}
	}
	return nil
}

// headAsTerm and callAsTerm let clause heads and predicate calls reuse
// Unify's Compound case; a 0-arity head/call unifies as an Atom instead,
// since this language treats a 0-arity compound as just an atom (term.go).
func headAsTerm(h PredicateHead) Term {
	if len(h.Params) == 0 {
		return NewAtom(h.Name)
	}
	return &Compound{Functor: h.Name, Args: h.Params}
}

func callAsTerm(c *PredicateCall) Term {
	if len(c.Args) == 0 {
		return NewAtom(c.Name)
	}
	return &Compound{Functor: c.Name, Args: c.Args}
}
