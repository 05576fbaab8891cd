package main

import (
	"strconv"
	"strings"

	"github.com/brunelsparr/noetic/pkg/noetic"
)

// serializeKB renders a knowledge base back to source syntax, the host-side
// serializer spec §6 calls for ("the engine itself consumes only source").
// The result is ordinary noetic source: re-parsing it with
// noetic.ParseProgram and reloading with noetic.LoadProgram reproduces the
// same concepts, entities, and clauses.
func serializeKB(kb *noetic.KnowledgeBase) string {
	var sb strings.Builder
	for _, c := range kb.Concepts() {
		sb.WriteString(serializeConcept(c))
	}
	for _, e := range kb.Entities() {
		sb.WriteString(serializeEntity(e))
	}
	for _, c := range kb.Clauses() {
		sb.WriteString(serializeClause(c))
	}
	for _, g := range kb.Globals() {
		sb.WriteString(g.Name + " = " + g.Value.String() + "\n")
	}
	return sb.String()
}

func serializeConcept(c *noetic.Concept) string {
	var sb strings.Builder
	sb.WriteString("concept " + c.Name)
	if c.Genus != "" {
		sb.WriteString(": " + c.Genus)
	}
	if c.Description != "" {
		sb.WriteString(", description = " + quote(c.Description))
	}
	if len(c.Attributes) > 0 {
		sb.WriteString(", attributes = " + quoteList(c.Attributes))
	}
	if len(c.Essentials) > 0 {
		sb.WriteString(", essentials = " + quoteList(c.Essentials))
	}
	sb.WriteString(".\n")
	return sb.String()
}

func serializeEntity(e *noetic.Entity) string {
	var sb strings.Builder
	sb.WriteString("entity " + e.Name + ": " + e.ConceptType)
	if e.Description != "" {
		sb.WriteString(", description = " + quote(e.Description))
	}
	for key, val := range e.Properties {
		sb.WriteString(", " + key + " = " + quote(val))
	}
	sb.WriteString(".\n")
	return sb.String()
}

func serializeClause(c *noetic.Clause) string {
	head := c.Head.Name
	if len(c.Head.Params) > 0 {
		parts := make([]string, len(c.Head.Params))
		for i, p := range c.Head.Params {
			parts[i] = p.String()
		}
		head += "(" + strings.Join(parts, ", ") + ")"
	}
	if c.IsFact() {
		return head + ".\n"
	}
	parts := make([]string, len(c.Body))
	for i, g := range c.Body {
		parts[i] = serializeGoal(g)
	}
	return head + " :- " + strings.Join(parts, ", ") + ".\n"
}

// serializeGoal renders a Goal back to source text. It covers the shapes
// the parser accepts; control constructs are wrapped in parens so they
// re-parse unambiguously inside a comma-joined body.
func serializeGoal(g noetic.Goal) string {
	switch v := g.(type) {
	case *noetic.PredicateCall:
		if len(v.Args) == 0 {
			return v.Name
		}
		parts := make([]string, len(v.Args))
		for i, a := range v.Args {
			parts[i] = a.String()
		}
		return v.Name + "(" + strings.Join(parts, ", ") + ")"
	case *noetic.Equality:
		op := "="
		if v.Op == noetic.Structural {
			op = "=="
		}
		return v.Left.String() + " " + op + " " + v.Right.String()
	case *noetic.SemanticMatch:
		return v.Left.String() + " =~= " + v.Right.String()
	case *noetic.ArithCompare:
		return v.Left.String() + " " + v.Op + " " + v.Right.String()
	case *noetic.Negation:
		return "not " + serializeGoalGroup(v.Body)
	case *noetic.Cut:
		return "!"
	default:
		return serializeControlGoal(g)
	}
}

func serializeControlGoal(g noetic.Goal) string {
	switch v := g.(type) {
	case *noetic.Disjunction:
		return "(" + serializeGoalList(v.Left) + " ; " + serializeGoalList(v.Right) + ")"
	case *noetic.IfThenElse:
		s := "(" + serializeGoalList(v.Cond) + " -> " + serializeGoalList(v.Then)
		if v.Else != nil {
			s += " ; " + serializeGoalList(v.Else)
		}
		return s + ")"
	default:
		return ""
	}
}

func serializeGoalGroup(gs noetic.Goals) string {
	if len(gs) == 1 {
		return serializeGoal(gs[0])
	}
	return "(" + serializeGoalList(gs) + ")"
}

func serializeGoalList(gs noetic.Goals) string {
	parts := make([]string, len(gs))
	for i, g := range gs {
		parts[i] = serializeGoal(g)
	}
	return strings.Join(parts, ", ")
}

func quote(s string) string { return strconv.Quote(s) }

func quoteList(vals []string) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = quote(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
