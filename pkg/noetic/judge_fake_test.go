package noetic

import (
	"context"
	"errors"
)

// fakeJudge is a deterministic, network-free Judge for tests: every method
// is driven by small lookup tables the test sets up, rather than a real
// chat-completions endpoint. conceptualMatches/hasAttr/sharesAttr/similar
// key on the exact strings describeTerm would produce, so tests read as
// "the judge agrees that X and Y describe the same concept."
type fakeJudge struct {
	conceptualMatches map[[2]string]bool
	hasAttr           map[[2]string]bool
	sharesAttr        map[[3]string]bool
	differentia       map[[2]string]string
	similarAlong      map[[3]string]bool
	failWith          error // when set, every method returns this error instead
}

func newFakeJudge() *fakeJudge {
	return &fakeJudge{
		conceptualMatches: map[[2]string]bool{},
		hasAttr:           map[[2]string]bool{},
		sharesAttr:        map[[3]string]bool{},
		differentia:       map[[2]string]string{},
		similarAlong:      map[[3]string]bool{},
	}
}

func (j *fakeJudge) ConceptualMatch(ctx context.Context, subject, reference string) (bool, error) {
	if j.failWith != nil {
		return false, j.failWith
	}
	return j.conceptualMatches[[2]string{subject, reference}], nil
}

func (j *fakeJudge) HasAttribute(ctx context.Context, attr, subject string) (bool, error) {
	if j.failWith != nil {
		return false, j.failWith
	}
	return j.hasAttr[[2]string{attr, subject}], nil
}

func (j *fakeJudge) SharesAttribute(ctx context.Context, attr, subjectA, subjectB string) (bool, error) {
	if j.failWith != nil {
		return false, j.failWith
	}
	return j.sharesAttr[[3]string{attr, subjectA, subjectB}], nil
}

func (j *fakeJudge) Differentiate(ctx context.Context, subjectA, subjectB string) (string, error) {
	if j.failWith != nil {
		return "", j.failWith
	}
	return j.differentia[[2]string{subjectA, subjectB}], nil
}

func (j *fakeJudge) SimilarAlong(ctx context.Context, axis, subjectA, subjectB string) (bool, error) {
	if j.failWith != nil {
		return false, j.failWith
	}
	return j.similarAlong[[3]string{axis, subjectA, subjectB}], nil
}

var errFakeJudgeUnavailable = errors.New("fake judge: unavailable")
