package noetic

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestUnifyGroundAtoms(t *testing.T) {
	b, ok := Unify(NewAtom("socrates"), NewAtom("socrates"), nil, nil)
	if !ok {
		t.Fatal("expected socrates to unify with socrates")
	}
	if b != nil {
		t.Fatal("unifying two ground atoms should not extend bindings")
	}
	if _, ok := Unify(NewAtom("socrates"), NewAtom("plato"), nil, nil); ok {
		t.Fatal("socrates should not unify with plato")
	}
}

func TestUnifyVariableBinding(t *testing.T) {
	b, ok := Unify(NewVariable("X"), NewAtom("socrates"), nil, nil)
	if !ok {
		t.Fatal("expected X to unify with socrates")
	}
	got := Deref(NewVariable("X"), b, nil)
	if got.String() != "socrates" {
		t.Fatalf("X = %s, want socrates", got)
	}
}

func TestUnifyAnonymousAlwaysSucceeds(t *testing.T) {
	b, ok := Unify(NewAnonymousVariable("_"), NewAtom("anything"), nil, nil)
	if !ok || b != nil {
		t.Fatal("anonymous variable should unify at no cost and extend nothing")
	}
}

func TestUnifyOccursCheckRejectsCycle(t *testing.T) {
	x := NewVariable("X")
	compound := NewCompound("f", x)
	if _, ok := Unify(x, compound, nil, nil); ok {
		t.Fatal("X should not unify with f(X)")
	}
}

func TestUnifyCompoundPairwise(t *testing.T) {
	left := NewCompound("point", NewVariable("X"), NewNumber(2))
	right := NewCompound("point", NewNumber(1), NewVariable("Y"))
	b, ok := Unify(left, right, nil, nil)
	if !ok {
		t.Fatal("expected point(X, 2) to unify with point(1, Y)")
	}
	if Deref(NewVariable("X"), b, nil).String() != "1" {
		t.Error("X should be bound to 1")
	}
	if Deref(NewVariable("Y"), b, nil).String() != "2" {
		t.Error("Y should be bound to 2")
	}
}

func TestUnifyListsWithTail(t *testing.T) {
	head := NewPartialList([]Term{NewVariable("H")}, NewVariable("T"))
	full := NewList(NewAtom("a"), NewAtom("b"), NewAtom("c"))
	b, ok := Unify(head, full, nil, nil)
	if !ok {
		t.Fatal("expected [H|T] to unify with [a, b, c]")
	}
	if Deref(NewVariable("H"), b, nil).String() != "a" {
		t.Error("H should be bound to a")
	}
	tail := Resolve(NewVariable("T"), b, nil)
	want := NewList(NewAtom("b"), NewAtom("c"))
	if diff := cmp.Diff(want, tail); diff != "" {
		t.Errorf("tail mismatch (-want +got):\n%s", diff)
	}
}

func TestStructurallyEqualDoesNotExtendBindings(t *testing.T) {
	b, _ := Unify(NewVariable("X"), NewAtom("a"), nil, nil)
	if !StructurallyEqual(NewVariable("X"), NewAtom("a"), b, nil) {
		t.Fatal("X should be structurally equal to a once bound")
	}
	if StructurallyEqual(NewVariable("Y"), NewAtom("a"), b, nil) {
		t.Fatal("unbound Y should not be structurally equal to a")
	}
}

func TestRenameClauseGivesFreshVariables(t *testing.T) {
	clause := &Clause{
		Head: PredicateHead{Name: "parent", Params: []Term{NewVariable("X"), NewVariable("Y")}},
		Body: Goals{&PredicateCall{Name: "adult", Args: []Term{NewVariable("X")}}},
	}
	fresh := renameClause(clause, 1)
	if fresh.Head.Params[0].String() == "X" {
		t.Fatal("renamed clause should not reuse the original variable name")
	}
	call := fresh.Body[0].(*PredicateCall)
	if call.Args[0].String() != fresh.Head.Params[0].String() {
		t.Fatal("the same source variable must rename to the same fresh variable throughout one clause")
	}
}

type fakeFieldResolver map[string]map[string]Term

func (f fakeFieldResolver) ResolveField(object, field string) (Term, bool) {
	fields, ok := f[object]
	if !ok {
		return nil, false
	}
	v, ok := fields[field]
	return v, ok
}

func TestDerefFieldAccess(t *testing.T) {
	fr := fakeFieldResolver{"socrates": {"description": NewString("a philosopher")}}
	fa := NewFieldAccess(NewAtom("socrates"), "description")
	got := Deref(fa, nil, fr)
	if got.String() != `"a philosopher"` {
		t.Fatalf("got %s, want a quoted description", got)
	}
}

func TestDerefUnresolvedFieldAccessStaysAsIs(t *testing.T) {
	fr := fakeFieldResolver{}
	fa := NewFieldAccess(NewAtom("nobody"), "description")
	got := Deref(fa, nil, fr)
	if _, ok := got.(*FieldAccess); !ok {
		t.Fatal("an unresolvable FieldAccess should be returned unchanged")
	}
}
