// Package gradelog journals grade passbacks so operators can audit or
// replay submissions the platform never received. It records sync status
// only; quiz session state stays in the CAT engine.
package gradelog

import (
	"context"
	"database/sql"
	"time"
)

const (
	StatusPending = "pending"
	StatusOK      = "ok"
	StatusFailed  = "failed"
)

type Entry struct {
	ID         int64
	QuizID     string
	UserID     string
	Score      float64
	SyncStatus string
	LastError  string
	CreatedAt  int64
	UpdatedAt  int64
}

type Store interface {
	Begin(ctx context.Context, quizID, userID string, score float64) (int64, error)
	MarkOK(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, lastErr string) error
	ListByQuiz(ctx context.Context, quizID string) ([]Entry, error)
}

type sqlStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLStore(db *sql.DB) Store {
	return &sqlStore{db: db, now: time.Now}
}

func (s *sqlStore) Begin(ctx context.Context, quizID, userID string, score float64) (int64, error) {
	ts := s.now().Unix()
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO grade_submissions (quiz_id, user_id, score, sync_status, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		quizID, userID, score, StatusPending, ts, ts).Scan(&id)
	return id, err
}

func (s *sqlStore) MarkOK(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE grade_submissions SET sync_status=$1, last_error='', updated_at=$2 WHERE id=$3`,
		StatusOK, s.now().Unix(), id)
	return err
}

func (s *sqlStore) MarkFailed(ctx context.Context, id int64, lastErr string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE grade_submissions SET sync_status=$1, last_error=$2, updated_at=$3 WHERE id=$4`,
		StatusFailed, lastErr, s.now().Unix(), id)
	return err
}

func (s *sqlStore) ListByQuiz(ctx context.Context, quizID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, quiz_id, user_id, score, sync_status, last_error, created_at, updated_at
		 FROM grade_submissions WHERE quiz_id=$1 ORDER BY id`,
		quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.QuizID, &e.UserID, &e.Score, &e.SyncStatus, &e.LastError, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Nop is used when no journal DB is configured.
type Nop struct{}

func (Nop) Begin(context.Context, string, string, float64) (int64, error) { return 0, nil }
func (Nop) MarkOK(context.Context, int64) error                          { return nil }
func (Nop) MarkFailed(context.Context, int64, string) error              { return nil }
func (Nop) ListByQuiz(context.Context, string) ([]Entry, error)          { return nil, nil }
