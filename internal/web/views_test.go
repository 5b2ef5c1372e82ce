package web_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lhr-rocks/catbridge/internal/web"
)

func TestFormatCompetency(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{73.4567, "73.46"},
		{100.0, "100"},
		{0, "0"},
		{99.995, "100"},
		{-0.005, "-0.01"}, // half away from zero
		{42.1, "42.1"},
	}
	for _, c := range cases {
		if got := web.FormatCompetency(c.in); got != c.want {
			t.Errorf("FormatCompetency(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSingleChoiceQuestionView(t *testing.T) {
	v := web.NewViews()
	w := httptest.NewRecorder()
	v.SingleChoiceQuestion(w, web.QuestionPage{
		QuizID:     "quiz-1",
		QuestionID: "5",
		Text:       "Pick <b>one</b>",
		Answers:    []string{"A", "B"},
		Ltik:       "tok",
	})
	body := w.Body.String()
	if !strings.Contains(body, "/check-answer/quizzes/quiz-1/questions/5?ltik=tok") {
		t.Fatalf("form action missing: %s", body)
	}
	if !strings.Contains(body, `value="A"`) || !strings.Contains(body, `value="B"`) {
		t.Fatalf("answer options missing: %s", body)
	}
	if strings.Contains(body, "<b>one</b>") {
		t.Fatalf("question text must be escaped: %s", body)
	}
}

func TestFinishedView(t *testing.T) {
	v := web.NewViews()

	w := httptest.NewRecorder()
	v.Finished(w, web.FinishedPage{Competency: "73.46"})
	if !strings.Contains(w.Body.String(), "Your competency: 73.46") {
		t.Fatalf("competency missing: %s", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "recorded") {
		t.Fatalf("no grade note expected: %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	v.Finished(w, web.FinishedPage{Competency: "50", GradeNote: "Your grade may not have been recorded."})
	if !strings.Contains(w.Body.String(), "may not have been recorded") {
		t.Fatalf("grade note missing: %s", w.Body.String())
	}
}
