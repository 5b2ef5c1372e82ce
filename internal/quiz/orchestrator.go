// Package quiz is the session orchestrator: it sequences the CAT engine,
// the question store and the gradebook into one learner-facing quiz flow.
// It keeps no session state of its own; the engine-issued quizId is the
// only handle, carried in URLs between requests.
package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/lhr-rocks/catbridge/internal/cat"
	"github.com/lhr-rocks/catbridge/internal/lti"
	"github.com/lhr-rocks/catbridge/internal/question"
	"github.com/lhr-rocks/catbridge/internal/web"

	"github.com/go-chi/chi/v5"
)

// Correctness signal carried between CheckAnswer and Advance as the
// `correct` query parameter. Anything other than "0"/"1" means "no prior
// answer" and is passed to the engine as the ignore sentinel.
const (
	correctNo    = "0"
	correctYes   = "1"
	correctFirst = "-1"
)

// CATClient is the slice of the engine client the orchestrator drives.
type CATClient interface {
	ResetDifficulty(ctx context.Context, topic string) error
	CreateQuiz(ctx context.Context, config json.RawMessage) (string, error)
	NextQuestion(ctx context.Context, quizID, priorCorrect string) (*string, error)
	Result(ctx context.Context, quizID string) (float64, error)
}

// GradeSubmitter posts the final competency to the platform gradebook.
type GradeSubmitter interface {
	Submit(ctx context.Context, ic lti.IdentityContext, quizID string, score float64) error
}

type Orchestrator struct {
	CAT       CATClient
	Questions *question.Store
	Grades    GradeSubmitter
	Views     *web.Views

	Topic      string
	QuizConfig json.RawMessage // static configuration document, sent to the engine verbatim
}

// Mount attaches the orchestrator routes. The router must already carry the
// ltik middleware; every handler expects an IdentityContext in the request
// context.
func (o *Orchestrator) Mount(r chi.Router) {
	r.Get("/start-quiz", o.StartQuiz)
	r.Get("/render/quizzes/{quizID}", o.Advance)
	r.Post("/check-answer/quizzes/{quizID}/questions/{questionID}", o.CheckAnswer)
	r.Post("/grade", o.Grade)
}

// StartQuiz resets the topic difficulty (best-effort), creates a quiz on
// the engine and redirects into rendering the first question.
func (o *Orchestrator) StartQuiz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Difficulty drift only affects test consistency, never correctness.
	if err := o.CAT.ResetDifficulty(ctx, o.Topic); err != nil {
		log.Printf("reset difficulty for topic %q: %v", o.Topic, err)
	}

	quizID, err := o.CAT.CreateQuiz(ctx, o.QuizConfig)
	if err != nil {
		o.renderCATError(w, "create quiz", err)
		return
	}
	o.redirect(w, r, "/render/quizzes/"+url.PathEscape(quizID), correctFirst)
}

// Advance asks the engine for the next question given the correctness of
// the previous answer. A nil questionId from the engine concludes the quiz:
// fetch the competency, submit the grade, render the completion view.
func (o *Orchestrator) Advance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	quizID := chi.URLParam(r, "quizID")
	correct := normalizeCorrect(r.URL.Query().Get("correct"))

	questionID, err := o.CAT.NextQuestion(ctx, quizID, correct)
	if err != nil {
		o.renderCATError(w, "next question", err)
		return
	}
	if questionID != nil {
		o.renderQuestion(w, r, quizID, *questionID)
		return
	}

	// Quiz concluded.
	competency, err := o.CAT.Result(ctx, quizID)
	if err != nil {
		o.renderCATError(w, "get result", err)
		return
	}

	gradeNote := ""
	ic, ok := lti.IdentityFromContext(ctx)
	if !ok {
		log.Printf("grade: no identity context for quiz %s", quizID)
		gradeNote = "Your grade may not have been recorded."
	} else if err := o.Grades.Submit(ctx, ic, quizID, competency); err != nil {
		log.Printf("grade: submit for quiz %s: %v", quizID, err)
		gradeNote = "Your grade may not have been recorded."
	}

	o.Views.Finished(w, web.FinishedPage{
		Competency: web.FormatCompetency(competency),
		GradeNote:  gradeNote,
	})
}

// CheckAnswer evaluates a submitted answer and redirects back into Advance
// with the boolean result. Submission and advancement stay two separately
// retryable URLs because the front end can only post forms and follow
// redirects.
func (o *Orchestrator) CheckAnswer(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizID")
	questionID := chi.URLParam(r, "questionID")

	answer, err := submittedAnswer(r)
	if err != nil {
		o.Views.Error(w, http.StatusBadRequest, "missing answer")
		return
	}

	q, err := o.Questions.Load(questionID)
	if err != nil {
		o.Views.Error(w, http.StatusInternalServerError, "question "+questionID+" is not available")
		return
	}
	isCorrect, err := question.Check(q, answer)
	if err != nil {
		o.Views.Error(w, http.StatusInternalServerError, "cannot evaluate this question type")
		return
	}
	signal := correctNo
	if isCorrect {
		signal = correctYes
	}
	o.redirect(w, r, "/render/quizzes/"+url.PathEscape(quizID)+"/", signal)
}

// Grade posts a score from the request body to the platform gradebook.
// Also invoked by the completion flow via GradeSubmitter.
func (o *Orchestrator) Grade(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Grade float64 `json:"grade"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	ic, ok := lti.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}
	if err := o.Grades.Submit(r.Context(), ic, "", req.Grade); err != nil {
		if errors.Is(err, lti.ErrMalformedIdentity) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "submitted"})
}

func (o *Orchestrator) renderQuestion(w http.ResponseWriter, r *http.Request, quizID, questionID string) {
	q, err := o.Questions.Load(questionID)
	if err != nil {
		// The engine selected a question we cannot render. Fatal to the
		// request; silently skipping would desync the session.
		log.Printf("load question %s for quiz %s: %v", questionID, quizID, err)
		o.Views.Error(w, http.StatusInternalServerError, "question "+questionID+" is not available")
		return
	}
	switch q.QuestionType {
	case question.TypeSingleChoice:
		o.Views.SingleChoiceQuestion(w, web.QuestionPage{
			QuizID:     quizID,
			QuestionID: questionID,
			Text:       q.Text,
			Answers:    q.Answers,
			Ltik:       lti.LtikFromContext(r.Context()),
		})
	default:
		log.Printf("question %s has unsupported type %q", questionID, q.QuestionType)
		o.Views.Error(w, http.StatusInternalServerError, "unsupported question type")
	}
}

func (o *Orchestrator) renderCATError(w http.ResponseWriter, op string, err error) {
	log.Printf("%s: %v", op, err)
	if errors.Is(err, cat.ErrUnavailable) {
		o.Views.Error(w, http.StatusServiceUnavailable, "The testing service is currently unavailable. Please try again.")
		return
	}
	o.Views.Error(w, http.StatusBadGateway, "The testing service reported an error. Please try again.")
}

// redirect carries the correctness signal and the ltik, the only state the
// front end is trusted to transport.
func (o *Orchestrator) redirect(w http.ResponseWriter, r *http.Request, path, correct string) {
	q := url.Values{}
	q.Set("correct", correct)
	if tok := lti.LtikFromContext(r.Context()); tok != "" {
		q.Set("ltik", tok)
	}
	http.Redirect(w, r, path+"?"+q.Encode(), http.StatusFound)
}

func normalizeCorrect(v string) string {
	switch v {
	case correctNo, correctYes:
		return v
	default:
		return correctFirst
	}
}

// submittedAnswer accepts both the rendered form post and a JSON body.
func submittedAnswer(r *http.Request) (string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			Answer string `json:"answer"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return "", err
		}
		if body.Answer == "" {
			return "", errors.New("empty answer")
		}
		return body.Answer, nil
	}
	if err := r.ParseForm(); err != nil {
		return "", err
	}
	a := r.PostFormValue("answer")
	if a == "" {
		return "", errors.New("empty answer")
	}
	return a, nil
}
