// Package grade turns a final competency into a gradebook score on the
// launching platform. Line items are resolved lazily so repeated launches
// of the same resource never grow duplicate gradebook columns.
package grade

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lhr-rocks/catbridge/internal/gradelog"
	"github.com/lhr-rocks/catbridge/internal/lti"
)

// ErrSubmissionFailed wraps any sink failure that survived the retry.
var ErrSubmissionFailed = errors.New("grade submission failed")

const (
	scoreMaximum  = 100
	lineItemLabel = "Grade"
	lineItemTag   = "grade"
)

// AGS is the slice of the gradebook client the submitter needs.
type AGS interface {
	ListLineItems(ctx context.Context, lineItemsURL, resourceLinkID string) ([]lti.LineItem, error)
	CreateLineItem(ctx context.Context, lineItemsURL string, li lti.LineItem) (lti.LineItem, error)
	PostScore(ctx context.Context, lineItemURL string, s lti.Score) error
}

type Submitter struct {
	AGS     AGS
	Journal gradelog.Store
	// Backoff before the single retry of a failed score post.
	RetryBackoff time.Duration
}

func NewSubmitter(ags AGS, journal gradelog.Store) *Submitter {
	if journal == nil {
		journal = gradelog.Nop{}
	}
	return &Submitter{AGS: ags, Journal: journal, RetryBackoff: 500 * time.Millisecond}
}

// Submit posts score (full precision) against the identity's line item,
// resolving or creating one if the launch did not name it. quizID is only
// recorded in the journal.
func (s *Submitter) Submit(ctx context.Context, ic lti.IdentityContext, quizID string, score float64) error {
	if !ic.CanAddressGradebook() {
		return lti.ErrMalformedIdentity
	}
	jid, err := s.Journal.Begin(ctx, quizID, ic.UserID, score)
	if err != nil {
		log.Printf("gradelog: begin entry: %v", err)
	}

	lineItemURL, err := s.resolveLineItem(ctx, ic)
	if err != nil {
		s.markFailed(ctx, jid, err)
		return fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}

	sc := lti.Score{
		UserID:           ic.UserID,
		ScoreGiven:       score,
		ScoreMaximum:     scoreMaximum,
		ActivityProgress: "Completed",
		GradingProgress:  "FullyGraded",
	}
	if err := s.postWithRetry(ctx, lineItemURL, sc); err != nil {
		s.markFailed(ctx, jid, err)
		return fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}
	if jid != 0 {
		if err := s.Journal.MarkOK(ctx, jid); err != nil {
			log.Printf("gradelog: mark ok: %v", err)
		}
	}
	return nil
}

// resolveLineItem: launch-provided item wins; otherwise first existing item
// for the resource link; otherwise create one.
func (s *Submitter) resolveLineItem(ctx context.Context, ic lti.IdentityContext) (string, error) {
	if ic.LineItemURL != "" {
		return ic.LineItemURL, nil
	}
	items, err := s.AGS.ListLineItems(ctx, ic.LineItemsURL, ic.ResourceLinkID)
	if err != nil {
		return "", fmt.Errorf("list line items: %w", err)
	}
	if len(items) > 0 {
		return items[0].ID, nil
	}
	created, err := s.AGS.CreateLineItem(ctx, ic.LineItemsURL, lti.LineItem{
		ScoreMaximum:   scoreMaximum,
		Label:          lineItemLabel,
		Tag:            lineItemTag,
		ResourceLinkID: ic.ResourceLinkID,
	})
	if err != nil {
		return "", fmt.Errorf("create line item: %w", err)
	}
	return created.ID, nil
}

func (s *Submitter) postWithRetry(ctx context.Context, lineItemURL string, sc lti.Score) error {
	err := s.AGS.PostScore(ctx, lineItemURL, sc)
	if err == nil {
		return nil
	}
	log.Printf("grade: post score failed, retrying once: %v", err)
	select {
	case <-time.After(s.RetryBackoff):
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.AGS.PostScore(ctx, lineItemURL, sc)
}

func (s *Submitter) markFailed(ctx context.Context, jid int64, cause error) {
	if jid == 0 {
		return
	}
	if err := s.Journal.MarkFailed(ctx, jid, cause.Error()); err != nil {
		log.Printf("gradelog: mark failed: %v", err)
	}
}
