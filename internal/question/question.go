package question

// Type tags of the closed (but extensible) question-type set.
const (
	TypeSingleChoice = "singleChoice"
)

type Question struct {
	QuestionID   string   `json:"questionId"`
	QuestionType string   `json:"questionType"`
	Text         string   `json:"text"`
	Answers      []string `json:"answers,omitempty"`
	Solution     string   `json:"solution"`
}
