package noetic

import (
	"context"
	"strings"
	"testing"
)

func newTestDriver(t *testing.T, out *stringCollector, opts ...EngineOption) *Driver {
	t.Helper()
	kb := NewKnowledgeBase()
	opts = append(opts, WithOutput(out))
	e := NewEngine(kb, opts...)
	return NewDriver(kb, e, out, nil)
}

func TestDriverRunSourceReportsTrueAndFalse(t *testing.T) {
	out := &stringCollector{}
	d := newTestDriver(t, out)
	err := d.RunSource(context.Background(), `
bird(tweety).
? bird(tweety)
? bird(penguin)
`)
	if err != nil {
		t.Fatal(err)
	}
	got := out.sb.String()
	if !strings.Contains(got, "True") || !strings.Contains(got, "False") {
		t.Fatalf("got %q, want both True and False reported", got)
	}
}

func TestDriverRunQueryReportsBindingsPerSolution(t *testing.T) {
	out := &stringCollector{}
	d := newTestDriver(t, out)
	err := d.RunSource(context.Background(), `
man(socrates).
man(plato).
? man(X)
`)
	if err != nil {
		t.Fatal(err)
	}
	got := out.sb.String()
	if strings.Count(got, "Bindings:") != 2 {
		t.Fatalf("got %q, want two Bindings: blocks", got)
	}
	if !strings.Contains(got, "X = socrates") || !strings.Contains(got, "X = plato") {
		t.Fatalf("got %q, want both bindings reported", got)
	}
}

func TestDriverPrintSuppressesTrueFalseTerminator(t *testing.T) {
	out := &stringCollector{}
	d := newTestDriver(t, out)
	err := d.RunSource(context.Background(), `? print("hi")`)
	if err != nil {
		t.Fatal(err)
	}
	got := out.sb.String()
	if strings.Contains(got, "True") || strings.Contains(got, "False") {
		t.Fatalf("got %q, a side-effecting query should suppress the True/False terminator", got)
	}
	if got != "hi" {
		t.Fatalf("got %q, want hi", got)
	}
}

func TestDriverGlobalWriteOnceRejectsRedeclaration(t *testing.T) {
	kb := NewKnowledgeBase()
	_, err := LoadProgram(kb, mustParseProgram(t, "threshold = 0.5\nthreshold = 0.9"))
	if err == nil {
		t.Fatal("expected an error reassigning an already-assigned global")
	}
}

func TestDriverQueryErrorDoesNotAbortSubsequentQueries(t *testing.T) {
	out := &stringCollector{}
	d := newTestDriver(t, out)
	err := d.RunSource(context.Background(), `
loop(X) :- loop(X).
? loop(a)
? print("still runs")
`)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.sb.String(), "still runs") {
		t.Fatalf("got %q, want the second query to still run after the first aborts", out.sb.String())
	}
}

func mustParseProgram(t *testing.T, source string) *Program {
	t.Helper()
	prog, err := ParseProgram(source)
	if err != nil {
		t.Fatal(err)
	}
	return prog
}
