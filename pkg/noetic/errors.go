package noetic

import "fmt"

// Position is a line/column pair, 1-indexed, recorded by the lexer on every
// token and carried by lex and parse errors.
type Position struct {
	Line int
	Col  int
}

func (p Position) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Col) }

// LexError reports an invalid character or an unterminated string literal.
// It is fatal to the program currently being lexed.
type LexError struct {
	Pos     Position
	Char    rune
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at %s: %s (near %q)", e.Pos, e.Message, e.Char)
}

// ParseError reports an unexpected token. It is fatal to the program
// currently being parsed.
type ParseError struct {
	Pos     Position
	Found   string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s: %s (found %s)", e.Pos, e.Message, e.Found)
}

// ResolutionError reports a condition that is genuinely unrecoverable
// mid-proof: a readln target that isn't an unbound variable, a meta-call
// target that is neither a compound nor an atom, a non-numeric operand to
// the optional arithmetic evaluator, or a recursion depth overrun. It
// aborts the current query and surfaces to the driver; unlike unification
// or predicate failure, it is never treated as ordinary backtracking.
type ResolutionError struct {
	Goal    string
	Message string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolution error in %s: %s", e.Goal, e.Message)
}

// JudgeFailure reports a judge-service error: network failure, non-2xx
// response, or malformed JSON. It is never propagated out of SemanticMatch
// or a has_attr/share_attr/differentia/similar_attr builtin - those map it
// to goal failure per spec §4.7 - and logs it at warn level through the
// engine's logger; the driver never receives it.
type JudgeFailure struct {
	Operation string
	Err       error
}

func (e *JudgeFailure) Error() string {
	return fmt.Sprintf("judge failure during %s: %v", e.Operation, e.Err)
}

func (e *JudgeFailure) Unwrap() error { return e.Err }
