// Package web renders the few HTML views the quiz front end needs. The
// front end only submits forms and follows redirects; everything stateful
// stays server-side.
package web

import (
	"embed"
	"html/template"
	"log"
	"math"
	"net/http"
	"strconv"
)

//go:embed templates/*.html
var templateFS embed.FS

type Views struct {
	t *template.Template
}

func NewViews() *Views {
	return &Views{t: template.Must(template.ParseFS(templateFS, "templates/*.html"))}
}

type QuestionPage struct {
	QuizID     string
	QuestionID string
	Text       string
	Answers    []string
	Ltik       string
}

type FinishedPage struct {
	Competency string
	GradeNote  string // non-empty when the passback may not have been recorded
}

type ErrorPage struct {
	Message string
}

func (v *Views) SingleChoiceQuestion(w http.ResponseWriter, p QuestionPage) {
	v.render(w, "single_choice.html", p)
}

func (v *Views) Finished(w http.ResponseWriter, p FinishedPage) {
	v.render(w, "finished.html", p)
}

func (v *Views) Error(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	v.render(w, "error.html", ErrorPage{Message: msg})
}

func (v *Views) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := v.t.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("render %s: %v", name, err)
	}
}

// FormatCompetency rounds to two decimals, half away from zero, for display
// only. Trailing zeros are dropped, so 100.0 renders as "100".
func FormatCompetency(c float64) string {
	return strconv.FormatFloat(math.Round(c*100)/100, 'f', -1, 64)
}
