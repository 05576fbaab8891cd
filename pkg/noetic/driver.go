// This file implements the driver: the declaration pass that populates a
// KnowledgeBase from a parsed Program, and the query loop that runs each
// "? Goal" in program order and reports its solutions, grounded on
// gokanlogic's cmd/example's own "build a store, then run goals against it
// and print what comes back" structure - generalized here to also catch
// and report ResolutionError/JudgeFailure at the query boundary instead of
// letting either abort the whole batch (spec §7).
package noetic

import (
	"context"
	"errors"

	hclog "github.com/hashicorp/go-hclog"
)

// Driver loads a program into a KnowledgeBase and runs its queries against
// an Engine, reporting solutions and errors through Output/Logger.
type Driver struct {
	KB     *KnowledgeBase
	Engine *Engine
	Output Printer
	Logger hclog.Logger
}

// NewDriver creates a Driver. logger may be nil, in which case a null
// logger is used.
func NewDriver(kb *KnowledgeBase, engine *Engine, output Printer, logger hclog.Logger) *Driver {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Driver{KB: kb, Engine: engine, Output: output, Logger: logger}
}

// LoadProgram applies every declaration in prog to kb, in program order,
// and returns the queries it contains, also in program order. Concepts,
// entities, and clauses are added as encountered; a GlobalAssign is
// rejected if the same name was already assigned, per spec §5's
// write-once rule.
func LoadProgram(kb *KnowledgeBase, prog *Program) ([]Goals, error) {
	var queries []Goals
	for _, decl := range prog.Declarations {
		switch d := decl.(type) {
		case *Concept:
			kb.AddConcept(d)
		case *Entity:
			kb.AddEntity(d)
		case *ClauseDecl:
			clause := d.Clause
			kb.AddClause(&clause)
		case *GlobalAssign:
			if _, exists := kb.Global(d.Name); exists {
				return nil, &ResolutionError{Goal: d.Name, Message: "global is already assigned; globals are write-once"}
			}
			kb.SetGlobal(d.Name, d.Value)
		case *QueryDecl:
			queries = append(queries, d.Goal)
		}
	}
	return queries, nil
}

// RunSource lexes, parses, loads, and runs an entire program's source text
// against the driver's KnowledgeBase and Engine. A LexError or ParseError
// aborts immediately (the program never reaches the declaration pass); once
// loaded, each query runs independently and a ResolutionError during one
// query is reported and does not prevent the next query from running.
func (d *Driver) RunSource(ctx context.Context, source string) error {
	prog, err := ParseProgram(source)
	if err != nil {
		return err
	}
	queries, err := LoadProgram(d.KB, prog)
	if err != nil {
		return err
	}
	for _, q := range queries {
		d.RunQuery(ctx, q)
	}
	return nil
}

// RunQuery runs a single query to exhaustion, printing a "Bindings:" block
// per solution and a trailing True/False terminator (spec §6), unless a
// side-effecting builtin fired during evaluation. A ResolutionError or
// other non-JudgeFailure error aborts the query and is reported through
// Logger rather than propagated, per spec §7's "driver catches them at the
// query boundary" policy.
func (d *Driver) RunQuery(ctx context.Context, goal Goals) {
	names := VariableNames(goal)
	d.Engine.sideEffectFired = false

	stream := d.Engine.Solve(ctx, goal, nil)
	defer stream.Close()

	solutionCount := 0
	for {
		b, ok, err := stream.Next(ctx)
		if err != nil {
			var resErr *ResolutionError
			if errors.As(err, &resErr) {
				d.Logger.Warn("query aborted", "goal", resErr.Goal, "error", resErr.Message)
				return
			}
			d.Logger.Warn("query aborted", "error", err)
			return
		}
		if !ok {
			break
		}
		solutionCount++
		if len(names) > 0 {
			d.Output.Print("Bindings:\n")
			d.Output.Print(FormatSolution(names, b, d.KB) + "\n")
		}
	}

	if d.Engine.sideEffectFired {
		return
	}
	if solutionCount > 0 {
		d.Output.Print("True\n")
	} else {
		d.Output.Print("False\n")
	}
}
