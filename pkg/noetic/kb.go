// This file implements the knowledge base: an indexed store of concepts,
// entities, and clauses, plus the write-once global-bindings map.
//
// Unlike the teacher's pldb.go - a copy-on-write persistent database whose
// whole point is cheap snapshotting across backtracking choice points - the
// knowledge base here is populated once during the declaration pass and
// never mutated during resolution (spec §5: "it is not mutated by
// resolution (no assert/retract)"). That invariant removes the need for
// pldb's persistence machinery entirely: a plain map plus an
// insertion-ordered slice is sufficient, and simpler to reason about.
package noetic

import "fmt"

// KnowledgeBase holds concepts, entities, and clauses declared by a
// program, plus top-level global assignments. It implements FieldResolver
// so subst.go can dereference FieldAccess terms against it.
type KnowledgeBase struct {
	concepts     map[string]*Concept
	conceptOrder []string
	entities     map[string]*Entity
	entityOrder  []string
	clauses      []*Clause
	globals      map[string]Term
	globalOrder  []string
}

// NewKnowledgeBase creates an empty knowledge base.
func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		concepts: make(map[string]*Concept),
		entities: make(map[string]*Entity),
		globals:  make(map[string]Term),
	}
}

// AddConcept registers a concept declaration. A later declaration with the
// same name replaces the earlier one but keeps its position in enumeration
// order, so "insertion order preserved for deterministic enumeration"
// (spec §3) holds even across redeclaration.
func (kb *KnowledgeBase) AddConcept(c *Concept) {
	if _, exists := kb.concepts[c.Name]; !exists {
		kb.conceptOrder = append(kb.conceptOrder, c.Name)
	}
	kb.concepts[c.Name] = c
}

// AddEntity registers an entity declaration, with the same replace-in-place
// ordering rule as AddConcept.
func (kb *KnowledgeBase) AddEntity(e *Entity) {
	if _, exists := kb.entities[e.Name]; !exists {
		kb.entityOrder = append(kb.entityOrder, e.Name)
	}
	kb.entities[e.Name] = e
}

// AddClause appends a clause in program order. Clause selection during
// resolution always walks this slice front-to-back, which is what makes
// "rule-selection order" (spec §3) equal to program order.
func (kb *KnowledgeBase) AddClause(c *Clause) {
	kb.clauses = append(kb.clauses, c)
}

// SetGlobal records a top-level "name = Term" assignment. Globals are
// write-once per program per spec §5, but SetGlobal does not itself enforce
// that; the driver's declaration pass is expected to call it once per name.
func (kb *KnowledgeBase) SetGlobal(name string, value Term) {
	if _, exists := kb.globals[name]; !exists {
		kb.globalOrder = append(kb.globalOrder, name)
	}
	kb.globals[name] = value
}

// Global looks up a top-level assignment by name.
func (kb *KnowledgeBase) Global(name string) (Term, bool) {
	v, ok := kb.globals[name]
	return v, ok
}

// Globals returns every top-level assignment name and value in declaration
// order, used by the host serializer's ":kb_save" round-trip.
func (kb *KnowledgeBase) Globals() []GlobalBinding {
	out := make([]GlobalBinding, len(kb.globalOrder))
	for i, n := range kb.globalOrder {
		out[i] = GlobalBinding{Name: n, Value: kb.globals[n]}
	}
	return out
}

// GlobalBinding is one "name = Term" assignment, as returned by Globals.
type GlobalBinding struct {
	Name  string
	Value Term
}

// Concept looks up a concept declaration by name.
func (kb *KnowledgeBase) Concept(name string) (*Concept, bool) {
	c, ok := kb.concepts[name]
	return c, ok
}

// Entity looks up an entity declaration by name.
func (kb *KnowledgeBase) Entity(name string) (*Entity, bool) {
	e, ok := kb.entities[name]
	return e, ok
}

// Concepts returns every concept in declaration order.
func (kb *KnowledgeBase) Concepts() []*Concept {
	out := make([]*Concept, len(kb.conceptOrder))
	for i, n := range kb.conceptOrder {
		out[i] = kb.concepts[n]
	}
	return out
}

// Entities returns every entity in declaration order.
func (kb *KnowledgeBase) Entities() []*Entity {
	out := make([]*Entity, len(kb.entityOrder))
	for i, n := range kb.entityOrder {
		out[i] = kb.entities[n]
	}
	return out
}

// Clauses returns every clause in program order, used by the host
// serializer's ":kb_save" round-trip (spec §6).
func (kb *KnowledgeBase) Clauses() []*Clause {
	return kb.clauses
}

// ClausesFor returns the clauses matching name/arity, in program order.
func (kb *KnowledgeBase) ClausesFor(name string, arity int) []*Clause {
	var out []*Clause
	for _, c := range kb.clauses {
		if c.Head.Name == name && c.Arity() == arity {
			out = append(out, c)
		}
	}
	return out
}

// ResolveField implements FieldResolver. It satisfies spec §4.4: concept
// fields are description/genus/attributes/essentials; entity fields are
// description/concept(Type)/any property key, falling through to the
// entity's concept for attributes/essentials/genus. Anything else - an
// object that names neither a concept nor an entity - is left unresolved
// so the FieldAccess remains non-ground and simply fails to unify with
// ground data.
func (kb *KnowledgeBase) ResolveField(objectName, field string) (Term, bool) {
	if c, ok := kb.concepts[objectName]; ok {
		return resolveConceptField(c, field)
	}
	if e, ok := kb.entities[objectName]; ok {
		return kb.resolveEntityField(e, field)
	}
	return nil, false
}

func resolveConceptField(c *Concept, field string) (Term, bool) {
	switch field {
	case "description":
		if c.Description == "" {
			return nil, false
		}
		return NewString(c.Description), true
	case "genus":
		if c.Genus == "" {
			return nil, false
		}
		return NewAtom(c.Genus), true
	case "attributes":
		return stringListTerm(c.Attributes), true
	case "essentials":
		return stringListTerm(c.Essentials), true
	default:
		return nil, false
	}
}

func (kb *KnowledgeBase) resolveEntityField(e *Entity, field string) (Term, bool) {
	switch field {
	case "description":
		if e.Description == "" {
			return nil, false
		}
		return NewString(e.Description), true
	case "concept", "conceptType":
		return NewAtom(e.ConceptType), true
	case "attributes", "essentials", "genus":
		if c, ok := kb.concepts[e.ConceptType]; ok {
			return resolveConceptField(c, field)
		}
		return nil, false
	default:
		if v, ok := e.Properties[field]; ok {
			return NewString(v), true
		}
		return nil, false
	}
}

func stringListTerm(vals []string) Term {
	elems := make([]Term, len(vals))
	for i, v := range vals {
		elems[i] = NewString(v)
	}
	return &List{Elements: elems}
}

// Summary is a short human-readable count of what the knowledge base
// holds, used by the interactive host's ":kb" meta-command.
func (kb *KnowledgeBase) Summary() string {
	return fmt.Sprintf("%d concept(s), %d entity(ies), %d clause(s)",
		len(kb.conceptOrder), len(kb.entityOrder), len(kb.clauses))
}
