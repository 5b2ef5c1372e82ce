// Package cat wraps the HTTP contract of the CAT engine, the external
// adaptive-testing service that owns all quiz state. The engine picks the
// next question after each answer and computes the final competency; this
// client only moves bytes.
package cat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUnavailable marks transport-level failures (dial, timeout, connection
// reset). Non-2xx responses surface as *ServiceError instead.
var ErrUnavailable = errors.New("cat engine unavailable")

// ServiceError is a non-2xx response from the engine.
type ServiceError struct {
	Op     string
	Status string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: cat engine returned %s", e.Op, e.Status)
}

type Client struct {
	HTTP    *http.Client
	BaseURL string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		HTTP:    &http.Client{Timeout: timeout},
		BaseURL: strings.TrimRight(baseURL, "/"),
	}
}

// ResetDifficulty asks the engine to restore the pre-calibration difficulty
// of the topic's questions. Best-effort; callers log and continue on error.
func (c *Client) ResetDifficulty(ctx context.Context, topic string) error {
	u := c.BaseURL + "/reset-difficulty/topic/" + url.PathEscape(topic)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return &ServiceError{Op: "reset difficulty", Status: resp.Status}
	}
	return nil
}

// CreateQuiz POSTs the quiz-configuration document verbatim and returns the
// quizId of the quiz entity the engine created.
func (c *Client) CreateQuiz(ctx context.Context, config json.RawMessage) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/quiz", bytes.NewReader(config))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", &ServiceError{Op: "create quiz", Status: resp.Status}
	}
	var out struct {
		QuizID string `json:"quizId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("create quiz: decode response: %w", err)
	}
	if out.QuizID == "" {
		return "", errors.New("create quiz: empty quizId in response")
	}
	return out.QuizID, nil
}

// NextQuestion reports the correctness of the previous answer ("0" or "1",
// "-1" when there was no previous answer) and returns the questionId the
// engine selected next. A nil questionId means the quiz has concluded.
func (c *Client) NextQuestion(ctx context.Context, quizID, priorCorrect string) (*string, error) {
	body, _ := json.Marshal(map[string]string{"isCorrect": priorCorrect})
	u := c.BaseURL + "/quiz/" + url.PathEscape(quizID) + "/question"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, &ServiceError{Op: "next question", Status: resp.Status}
	}
	var out struct {
		QuestionID *json.Number `json:"questionId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("next question: decode response: %w", err)
	}
	if out.QuestionID == nil {
		return nil, nil
	}
	id := out.QuestionID.String()
	return &id, nil
}

// Result fetches the learner's current competency for a concluded quiz.
func (c *Client) Result(ctx context.Context, quizID string) (float64, error) {
	u := c.BaseURL + "/quiz/" + url.PathEscape(quizID) + "/result"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return 0, &ServiceError{Op: "get result", Status: resp.Status}
	}
	var out struct {
		CurrentCompetency float64 `json:"currentCompetency"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("get result: decode response: %w", err)
	}
	return out.CurrentCompetency, nil
}
