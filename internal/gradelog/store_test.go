package gradelog_test

import (
	"context"
	"testing"

	"github.com/lhr-rocks/catbridge/internal/db"
	"github.com/lhr-rocks/catbridge/internal/gradelog"
)

func newTestStore(t *testing.T) gradelog.Store {
	t.Helper()
	dbh, err := db.Open(context.Background(), db.DriverSQLite, "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = dbh.Close() })
	return gradelog.NewSQLStore(dbh)
}

func TestJournalLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.Begin(ctx, "quiz-1", "learner-1", 73.4567)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a journal id")
	}

	entries, err := s.ListByQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].SyncStatus != gradelog.StatusPending {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	if err := s.MarkFailed(ctx, id, "sink down"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	entries, _ = s.ListByQuiz(ctx, "quiz-1")
	if entries[0].SyncStatus != gradelog.StatusFailed || entries[0].LastError != "sink down" {
		t.Fatalf("unexpected entry after failure: %+v", entries[0])
	}

	if err := s.MarkOK(ctx, id); err != nil {
		t.Fatalf("mark ok: %v", err)
	}
	entries, _ = s.ListByQuiz(ctx, "quiz-1")
	if entries[0].SyncStatus != gradelog.StatusOK || entries[0].LastError != "" {
		t.Fatalf("unexpected entry after success: %+v", entries[0])
	}
}

func TestJournalScopesByQuiz(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.Begin(ctx, "quiz-1", "learner-1", 10); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Begin(ctx, "quiz-2", "learner-1", 20); err != nil {
		t.Fatal(err)
	}

	entries, err := s.ListByQuiz(ctx, "quiz-2")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Score != 20 {
		t.Fatalf("unexpected entries for quiz-2: %+v", entries)
	}
}
