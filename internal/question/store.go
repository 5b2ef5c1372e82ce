package question

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrNotFound = errors.New("question not found")

// Store is a read-only lookup from questionId to Question. The whole
// directory is read once at startup; records are immutable afterwards.
type Store struct {
	byID map[string]Question
}

// NewDirStore loads every Q<id>.json file under dir.
func NewDirStore(dir string) (*Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("question dir: %w", err)
	}
	byID := map[string]Question{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "Q") || !strings.HasSuffix(name, ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		var q Question
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		id := strings.TrimSuffix(strings.TrimPrefix(name, "Q"), ".json")
		if q.QuestionID == "" {
			q.QuestionID = id
		}
		byID[id] = q
	}
	if len(byID) == 0 {
		return nil, fmt.Errorf("question dir %s: no Q<id>.json files", dir)
	}
	return &Store{byID: byID}, nil
}

// NewStaticStore builds a Store from already-loaded questions, keyed by
// their QuestionID.
func NewStaticStore(qs ...Question) *Store {
	byID := make(map[string]Question, len(qs))
	for _, q := range qs {
		byID[q.QuestionID] = q
	}
	return &Store{byID: byID}
}

// Load resolves a questionId, failing with ErrNotFound on a miss.
func (s *Store) Load(questionID string) (Question, error) {
	q, ok := s.byID[questionID]
	if !ok {
		return Question{}, fmt.Errorf("%w: %s", ErrNotFound, questionID)
	}
	return q, nil
}
