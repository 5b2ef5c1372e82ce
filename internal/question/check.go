package question

import "fmt"

// Checker evaluates a submitted answer against a question's canonical
// solution. One checker per question type tag.
type Checker interface {
	Check(q Question, submitted string) (bool, error)
}

// ---- Registry ----

type checkerRegistry struct {
	m map[string]Checker
}

var checkers = checkerRegistry{m: map[string]Checker{}}

// RegisterChecker associates a question type tag with a Checker.
// Typically called from init().
func RegisterChecker(questionType string, c Checker) {
	if questionType == "" || c == nil {
		return
	}
	checkers.m[questionType] = c
}

// Check dispatches on the question's type tag.
func Check(q Question, submitted string) (bool, error) {
	c, ok := checkers.m[q.QuestionType]
	if !ok {
		return false, fmt.Errorf("no checker for question type %q", q.QuestionType)
	}
	return c.Check(q, submitted)
}

type singleChoice struct{}

func (singleChoice) Check(q Question, submitted string) (bool, error) {
	return submitted == q.Solution, nil
}

func init() {
	RegisterChecker(TypeSingleChoice, singleChoice{})
}
