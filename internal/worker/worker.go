// Package worker processes queued book submissions: it drives the
// aggregation pipeline for unseen works and persists the results with
// at-least-once semantics.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/alexk49/booksanon/internal/models"
)

// Enricher assembles the complete record for a work key.
type Enricher interface {
	Enrich(ctx context.Context, workID string) (*models.Book, []models.Author, error)
}

// Queue is the durable submission queue the worker drains.
type Queue interface {
	Get(ctx context.Context, id int64) (*models.Submission, error)
	Claim(ctx context.Context, id int64, token string) (bool, error)
	Release(ctx context.Context, id int64, token string) error
	Complete(ctx context.Context, id int64, token string) error
	Pending(ctx context.Context, limit int) ([]models.Submission, error)
}

// Store is the persistence surface the worker writes through.
type Store interface {
	BookIDByWorkKey(ctx context.Context, workKey string) (int64, bool, error)
	UserIDByUsername(ctx context.Context, username string) (int64, bool, error)
	SaveBookWithReview(ctx context.Context, book *models.Book, authors []models.Author, userID int64, review string) (int64, error)
	AddReview(ctx context.Context, userID, bookID int64, content string) (int64, error)
}

// Worker consumes submissions. Safe to invoke repeatedly for the same
// submission id: completed submissions are skipped, claimed ones left
// alone, and failed attempts released back to pending for a later run.
type Worker struct {
	queue    Queue
	store    Store
	enricher Enricher

	// newToken is indirected for tests.
	newToken func() string
}

// New creates a worker over its collaborators.
func New(queue Queue, store Store, enricher Enricher) *Worker {
	return &Worker{
		queue:    queue,
		store:    store,
		enricher: enricher,
		newToken: uuid.NewString,
	}
}

// Process handles one submission end to end: claim, aggregate if the book
// is unseen, persist book+authors+links+review, mark complete. Errors
// leave the submission pending; the submission stays invisible to readers
// until a later pass completes it.
func (w *Worker) Process(ctx context.Context, submissionID int64) error {
	sub, err := w.queue.Get(ctx, submissionID)
	if err != nil {
		return err
	}
	if sub == nil {
		slog.Info("submission not found, nothing to do", "submission_id", submissionID)
		return nil
	}
	if sub.State == models.SubmissionComplete {
		slog.Info("submission already complete", "submission_id", submissionID)
		return nil
	}

	token := w.newToken()
	claimed, err := w.queue.Claim(ctx, submissionID, token)
	if err != nil {
		return err
	}
	if !claimed {
		slog.Info("submission claimed elsewhere, skipping", "submission_id", submissionID)
		return nil
	}

	if err := w.process(ctx, sub, token); err != nil {
		slog.Error("processing submission failed, leaving pending",
			"submission_id", submissionID, "work_key", sub.WorkKey, "error", err)
		if releaseErr := w.queue.Release(ctx, submissionID, token); releaseErr != nil {
			slog.Error("releasing claim failed", "submission_id", submissionID, "error", releaseErr)
		}
		return err
	}

	return w.queue.Complete(ctx, submissionID, token)
}

func (w *Worker) process(ctx context.Context, sub *models.Submission, token string) error {
	userID, err := w.resolveUser(ctx, sub.Username)
	if err != nil {
		return err
	}

	bookID, found, err := w.store.BookIDByWorkKey(ctx, sub.WorkKey)
	if err != nil {
		return err
	}

	if found {
		// Known book: skip aggregation entirely, just attach the review.
		if _, err := w.store.AddReview(ctx, userID, bookID, sub.Review); err != nil {
			return err
		}
		slog.Info("review added to existing book",
			"submission_id", sub.ID, "work_key", sub.WorkKey, "book_id", bookID)
		return nil
	}

	book, authors, err := w.enricher.Enrich(ctx, sub.WorkKey)
	if err != nil {
		return fmt.Errorf("aggregating %s: %w", sub.WorkKey, err)
	}
	if len(authors) == 0 {
		slog.Warn("book has no resolved authors", "submission_id", sub.ID, "work_key", sub.WorkKey)
	}

	bookID, err = w.store.SaveBookWithReview(ctx, book, authors, userID, sub.Review)
	if err != nil {
		return err
	}

	slog.Info("submission processed",
		"submission_id", sub.ID, "work_key", sub.WorkKey, "book_id", bookID, "authors", len(authors))
	return nil
}

// resolveUser maps the submitting identity to a user id, falling back to
// the reserved anon user. A missing anon user is a setup error.
func (w *Worker) resolveUser(ctx context.Context, username string) (int64, error) {
	if username == "" {
		username = "anon"
	}

	id, found, err := w.store.UserIDByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	if found {
		return id, nil
	}

	if username != "anon" {
		return w.resolveUser(ctx, "anon")
	}
	return 0, fmt.Errorf("anon user missing, run initdb first")
}

// ProcessPending drains up to limit pending submissions. One failing
// submission does not stop the rest; the first error is reported after
// the pass.
func (w *Worker) ProcessPending(ctx context.Context, limit int) error {
	subs, err := w.queue.Pending(ctx, limit)
	if err != nil {
		return err
	}

	var firstErr error
	for _, sub := range subs {
		if err := w.Process(ctx, sub.ID); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
