package noetic

import (
	"strings"
	"testing"
)

type stringCollector struct {
	sb strings.Builder
}

func (c *stringCollector) Print(s string) { c.sb.WriteString(s) }

type fixedLineReader struct {
	lines []string
	idx   int
}

func (r *fixedLineReader) ReadLine() (string, error) {
	line := r.lines[r.idx]
	r.idx++
	return line, nil
}

func TestBuiltinMemberEnumeratesEachElement(t *testing.T) {
	e := NewEngine(NewKnowledgeBase())
	goal, _ := ParseStatement("? member(X, [1, 2, 3])")
	results := solveAll(t, e, goal.(*QueryDecl).Goal)
	if len(results) != 3 {
		t.Fatalf("got %d solutions, want 3", len(results))
	}
	want := []string{"1", "2", "3"}
	for i, r := range results {
		if got := Resolve(NewVariable("X"), r, e.kb).String(); got != want[i] {
			t.Fatalf("solution %d: got %s, want %s", i, got, want[i])
		}
	}
}

func TestBuiltinAppendConcatenatesGroundLists(t *testing.T) {
	e := NewEngine(NewKnowledgeBase())
	goal, _ := ParseStatement("? append([1, 2], [3, 4], X)")
	results := solveAll(t, e, goal.(*QueryDecl).Goal)
	if len(results) != 1 {
		t.Fatalf("got %d solutions, want 1", len(results))
	}
	if got := Resolve(NewVariable("X"), results[0], e.kb).String(); got != "[1, 2, 3, 4]" {
		t.Fatalf("got %s, want [1, 2, 3, 4]", got)
	}
}

func TestBuiltinLength(t *testing.T) {
	e := NewEngine(NewKnowledgeBase())
	goal, _ := ParseStatement("? length([a, b, c], X)")
	results := solveAll(t, e, goal.(*QueryDecl).Goal)
	if len(results) != 1 || Resolve(NewVariable("X"), results[0], e.kb).String() != "3" {
		t.Fatalf("got %v, want X = 3", results)
	}
}

func TestBuiltinReverse(t *testing.T) {
	e := NewEngine(NewKnowledgeBase())
	goal, _ := ParseStatement("? reverse([1, 2, 3], X)")
	results := solveAll(t, e, goal.(*QueryDecl).Goal)
	if len(results) != 1 || Resolve(NewVariable("X"), results[0], e.kb).String() != "[3, 2, 1]" {
		t.Fatalf("got %v, want X = [3, 2, 1]", results)
	}
}

func TestBuiltinTypeGuards(t *testing.T) {
	e := NewEngine(NewKnowledgeBase())
	cases := []struct {
		query string
		want  int
	}{
		{"? is_list([1, 2])", 1},
		{"? is_list(foo)", 0},
		{"? is_atom(foo)", 1},
		{"? is_atom(X)", 0},
		{"? is_unbound(X)", 1},
		{"? X = 1, is_bound(X)", 1},
	}
	for _, c := range cases {
		goal, err := ParseStatement(c.query)
		if err != nil {
			t.Fatalf("%s: %v", c.query, err)
		}
		got := len(solveAll(t, e, goal.(*QueryDecl).Goal))
		if got != c.want {
			t.Fatalf("%s: got %d solutions, want %d", c.query, got, c.want)
		}
	}
}

func TestBuiltinFindallAlwaysSucceedsWithPossiblyEmptyList(t *testing.T) {
	kb := NewKnowledgeBase()
	mustLoad(t, kb, `color(red). color(green). color(blue).`)
	e := NewEngine(kb)

	goal, _ := ParseStatement("? findall(X, color(X), L)")
	results := solveAll(t, e, goal.(*QueryDecl).Goal)
	if len(results) != 1 {
		t.Fatalf("got %d solutions, want 1", len(results))
	}
	if got := Resolve(NewVariable("L"), results[0], kb).String(); got != "[red, green, blue]" {
		t.Fatalf("got %s, want [red, green, blue]", got)
	}

	goal2, _ := ParseStatement("? findall(X, nosuchpredicate(X), L)")
	results2 := solveAll(t, e, goal2.(*QueryDecl).Goal)
	if len(results2) != 1 || Resolve(NewVariable("L"), results2[0], kb).String() != "[]" {
		t.Fatalf("got %v, want one solution with L = []", results2)
	}
}

func TestBuiltinSetofFailsOnEmptyResult(t *testing.T) {
	kb := NewKnowledgeBase()
	e := NewEngine(kb)
	goal, _ := ParseStatement("? setof(X, nosuchpredicate(X), L)")
	if results := solveAll(t, e, goal.(*QueryDecl).Goal); len(results) != 0 {
		t.Fatal("setof/3 should fail, not bind L to [], when the goal has no solutions")
	}
}

func TestBuiltinBagofFailsOnEmptyResult(t *testing.T) {
	kb := NewKnowledgeBase()
	e := NewEngine(kb)
	goal, _ := ParseStatement("? bagof(X, nosuchpredicate(X), L)")
	if results := solveAll(t, e, goal.(*QueryDecl).Goal); len(results) != 0 {
		t.Fatal("bagof/3 should fail, not bind L to [], when the goal has no solutions")
	}
}

func TestBuiltinSetofDedupesByStructure(t *testing.T) {
	kb := NewKnowledgeBase()
	mustLoad(t, kb, `dup(a). dup(b). dup(a).`)
	e := NewEngine(kb)
	goal, _ := ParseStatement("? setof(X, dup(X), L)")
	results := solveAll(t, e, goal.(*QueryDecl).Goal)
	if len(results) != 1 {
		t.Fatalf("got %d solutions, want 1", len(results))
	}
	if got := Resolve(NewVariable("L"), results[0], kb).String(); got != "[a, b]" {
		t.Fatalf("got %s, want [a, b] (deduped)", got)
	}
}

func TestBuiltinFunctorDecomposesAndConstructs(t *testing.T) {
	e := NewEngine(NewKnowledgeBase())

	goal, _ := ParseStatement("? functor(point(1, 2), Name, Arity)")
	results := solveAll(t, e, goal.(*QueryDecl).Goal)
	if len(results) != 1 {
		t.Fatalf("got %d solutions, want 1", len(results))
	}
	if got := Resolve(NewVariable("Name"), results[0], e.kb).String(); got != "point" {
		t.Fatalf("got Name=%s, want point", got)
	}
	if got := Resolve(NewVariable("Arity"), results[0], e.kb).String(); got != "2" {
		t.Fatalf("got Arity=%s, want 2", got)
	}

	goal2, _ := ParseStatement("? functor(T, point, 2)")
	results2 := solveAll(t, e, goal2.(*QueryDecl).Goal)
	if len(results2) != 1 {
		t.Fatalf("got %d solutions, want 1", len(results2))
	}
	built, ok := Resolve(NewVariable("T"), results2[0], e.kb).(*Compound)
	if !ok || built.Functor != "point" || len(built.Args) != 2 {
		t.Fatalf("got %+v, want a fresh point/2 compound", built)
	}
}

func TestBuiltinCopyTermGivesFreshVariables(t *testing.T) {
	e := NewEngine(NewKnowledgeBase())
	goal, _ := ParseStatement("? copy_term(f(X, X), Y)")
	results := solveAll(t, e, goal.(*QueryDecl).Goal)
	if len(results) != 1 {
		t.Fatalf("got %d solutions, want 1", len(results))
	}
	y, ok := Resolve(NewVariable("Y"), results[0], e.kb).(*Compound)
	if !ok || len(y.Args) != 2 {
		t.Fatalf("got %+v, want a f/2 compound", y)
	}
	v1, ok1 := y.Args[0].(*Variable)
	v2, ok2 := y.Args[1].(*Variable)
	if !ok1 || !ok2 || v1.Name != v2.Name {
		t.Fatalf("copy_term should preserve shared variable identity within the copy, got %+v", y)
	}
}

func TestBuiltinSortDedupesAndOrders(t *testing.T) {
	e := NewEngine(NewKnowledgeBase())
	goal, _ := ParseStatement("? sort([3, 1, 2, 1], X)")
	results := solveAll(t, e, goal.(*QueryDecl).Goal)
	if len(results) != 1 || Resolve(NewVariable("X"), results[0], e.kb).String() != "[1, 2, 3]" {
		t.Fatalf("got %v, want X = [1, 2, 3]", results)
	}
}

func TestBuiltinMsortKeepsDuplicates(t *testing.T) {
	e := NewEngine(NewKnowledgeBase())
	goal, _ := ParseStatement("? msort([3, 1, 2, 1], X)")
	results := solveAll(t, e, goal.(*QueryDecl).Goal)
	if len(results) != 1 || Resolve(NewVariable("X"), results[0], e.kb).String() != "[1, 1, 2, 3]" {
		t.Fatalf("got %v, want X = [1, 1, 2, 3]", results)
	}
}

func TestBuiltinBetweenEnumeratesInclusive(t *testing.T) {
	e := NewEngine(NewKnowledgeBase())
	goal, _ := ParseStatement("? between(1, 3, X)")
	results := solveAll(t, e, goal.(*QueryDecl).Goal)
	want := []string{"1", "2", "3"}
	if len(results) != len(want) {
		t.Fatalf("got %d solutions, want %d", len(results), len(want))
	}
	for i, r := range results {
		if got := Resolve(NewVariable("X"), r, e.kb).String(); got != want[i] {
			t.Fatalf("solution %d: got %s, want %s", i, got, want[i])
		}
	}
}

func TestBuiltinConcatAtom(t *testing.T) {
	e := NewEngine(NewKnowledgeBase())
	goal, _ := ParseStatement(`? concat_atom(["a", "b", "c"], X)`)
	results := solveAll(t, e, goal.(*QueryDecl).Goal)
	if len(results) != 1 || Resolve(NewVariable("X"), results[0], e.kb).String() != "abc" {
		t.Fatalf("got %v, want X = abc", results)
	}
}

func TestBuiltinCallAppendsExtraArgs(t *testing.T) {
	kb := NewKnowledgeBase()
	mustLoad(t, kb, `likes(alice, bob).`)
	e := NewEngine(kb)
	goal, _ := ParseStatement("? call(likes, alice, X)")
	results := solveAll(t, e, goal.(*QueryDecl).Goal)
	if len(results) != 1 || Resolve(NewVariable("X"), results[0], kb).String() != "bob" {
		t.Fatalf("got %v, want X = bob", results)
	}
}

func TestBuiltinPrintWritesBareStrings(t *testing.T) {
	out := &stringCollector{}
	e := NewEngine(NewKnowledgeBase(), WithOutput(out))
	goal, _ := ParseStatement(`? print("hello"), print(" "), print(world)`)
	if results := solveAll(t, e, goal.(*QueryDecl).Goal); len(results) != 1 {
		t.Fatalf("got %d solutions, want 1", len(results))
	}
	if out.sb.String() != "hello world" {
		t.Fatalf("got %q, want %q", out.sb.String(), "hello world")
	}
	if !e.sideEffectFired {
		t.Fatal("print should set sideEffectFired")
	}
}

func TestBuiltinReadlnBindsLineFromInput(t *testing.T) {
	e := NewEngine(NewKnowledgeBase(), WithInput(&fixedLineReader{lines: []string{"socrates"}}))
	goal, _ := ParseStatement("? readln(X)")
	results := solveAll(t, e, goal.(*QueryDecl).Goal)
	if len(results) != 1 || Resolve(NewVariable("X"), results[0], e.kb).String() != `"socrates"` {
		t.Fatalf("got %v, want X = \"socrates\"", results)
	}
}

func TestBuiltinHasAttrUsesJudge(t *testing.T) {
	kb := NewKnowledgeBase()
	mustLoad(t, kb, `entity socrates_entity: Man, description = "a philosopher".`)
	judge := newFakeJudge()
	judge.hasAttr[[2]string{"wise", "socrates"}] = true
	e := NewEngine(kb, WithJudge(judge))

	goal, _ := ParseStatement("? has_attr(wise, socrates)")
	if results := solveAll(t, e, goal.(*QueryDecl).Goal); len(results) != 1 {
		t.Fatal("the judge affirmed the attribute, so has_attr should succeed")
	}

	goal2, _ := ParseStatement("? has_attr(foolish, socrates)")
	if results := solveAll(t, e, goal2.(*QueryDecl).Goal); len(results) != 0 {
		t.Fatal("the judge never affirmed foolish, so has_attr should fail")
	}
}

func TestBuiltinShareAttrUsesJudge(t *testing.T) {
	judge := newFakeJudge()
	judge.sharesAttr[[3]string{"mortal", "socrates", "plato"}] = true
	e := NewEngine(NewKnowledgeBase(), WithJudge(judge))
	goal, _ := ParseStatement("? share_attr(mortal, socrates, plato)")
	if results := solveAll(t, e, goal.(*QueryDecl).Goal); len(results) != 1 {
		t.Fatal("the judge affirmed the shared attribute, so share_attr should succeed")
	}
}

func TestBuiltinDifferentiaBindsJudgeAnswer(t *testing.T) {
	judge := newFakeJudge()
	judge.differentia[[2]string{"socrates", "plato"}] = "one asked, one wrote"
	e := NewEngine(NewKnowledgeBase(), WithJudge(judge))
	goal, _ := ParseStatement("? differentia(socrates, plato, X)")
	results := solveAll(t, e, goal.(*QueryDecl).Goal)
	if len(results) != 1 || Resolve(NewVariable("X"), results[0], e.kb).String() != `"one asked, one wrote"` {
		t.Fatalf("got %v, want the judge's answer bound to X", results)
	}
}

func TestBuiltinDifferentiaFailsOnEmptyAnswer(t *testing.T) {
	judge := newFakeJudge() // no entry configured, so Differentiate returns ""
	e := NewEngine(NewKnowledgeBase(), WithJudge(judge))
	goal, _ := ParseStatement("? differentia(a, b, X)")
	if results := solveAll(t, e, goal.(*QueryDecl).Goal); len(results) != 0 {
		t.Fatal("an empty differentia answer should fail the goal, not bind X to an empty string")
	}
}

func TestBuiltinSimilarAttrUsesJudge(t *testing.T) {
	judge := newFakeJudge()
	judge.similarAlong[[3]string{"temperament", "socrates", "plato"}] = true
	e := NewEngine(NewKnowledgeBase(), WithJudge(judge))
	goal, _ := ParseStatement("? similar_attr(temperament, socrates, plato)")
	if results := solveAll(t, e, goal.(*QueryDecl).Goal); len(results) != 1 {
		t.Fatal("the judge affirmed similarity, so similar_attr should succeed")
	}
}

func TestBuiltinJudgeBackedPredicatesDegradeToFailureWithNoJudge(t *testing.T) {
	e := NewEngine(NewKnowledgeBase()) // no WithJudge option
	goal, _ := ParseStatement("? has_attr(wise, socrates)")
	if results := solveAll(t, e, goal.(*QueryDecl).Goal); len(results) != 0 {
		t.Fatal("has_attr with no judge configured should fail, not error")
	}
}
