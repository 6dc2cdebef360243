package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"

	"github.com/alexk49/booksanon/internal/database"
	"github.com/alexk49/booksanon/internal/models"
)

var submissionColumns = []any{
	"id", "openlib_work_key", "review", "username", "state", "claim_token",
	"created_at", goqu.COALESCE(goqu.C("completed_at"), goqu.L("to_timestamp(0)")).As("completed_at"),
}

// Queue is the durable submission queue. Submissions move pending →
// processing → complete; a failed attempt is released back to pending, so
// delivery is at-least-once.
type Queue struct {
	db database.Querier
}

// NewQueue creates a queue repository over q.
func NewQueue(q database.Querier) *Queue {
	return &Queue{db: q}
}

// Enqueue stores a new pending submission and returns its id.
func (r *Queue) Enqueue(ctx context.Context, workKey, review, username string) (int64, error) {
	if username == "" {
		username = AnonUsername
	}

	sqlStr, args, err := dialect.Insert("submissions").
		Rows(goqu.Record{
			"openlib_work_key": workKey,
			"review":           review,
			"username":         username,
			"state":            models.SubmissionPending,
		}).
		Returning("id").
		Prepared(true).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("building submission insert: %w", err)
	}

	var id int64
	if err := r.db.QueryRow(ctx, sqlStr, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("enqueueing submission for %s: %w", workKey, err)
	}
	return id, nil
}

// Get returns the submission with the given id, or nil.
func (r *Queue) Get(ctx context.Context, id int64) (*models.Submission, error) {
	sqlStr, args, err := dialect.From("submissions").
		Select(submissionColumns...).
		Where(goqu.C("id").Eq(id)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building submission lookup: %w", err)
	}

	var sub models.Submission
	err = r.db.QueryRow(ctx, sqlStr, args...).Scan(
		&sub.ID, &sub.WorkKey, &sub.Review, &sub.Username, &sub.State,
		&sub.ClaimToken, &sub.CreatedAt, &sub.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading submission %d: %w", id, err)
	}
	return &sub, nil
}

// Claim atomically moves a pending submission to processing, stamping it
// with token. Returns false when the submission is not pending — already
// claimed by a concurrent worker, or already complete.
func (r *Queue) Claim(ctx context.Context, id int64, token string) (bool, error) {
	sqlStr, args, err := dialect.Update("submissions").
		Set(goqu.Record{"state": models.SubmissionProcessing, "claim_token": token}).
		Where(goqu.C("id").Eq(id), goqu.C("state").Eq(models.SubmissionPending)).
		Prepared(true).ToSQL()
	if err != nil {
		return false, fmt.Errorf("building claim update: %w", err)
	}

	tag, err := r.db.Exec(ctx, sqlStr, args...)
	if err != nil {
		return false, fmt.Errorf("claiming submission %d: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Release puts a claimed submission back to pending so a later worker run
// can retry it. Only the claim's own token can release it.
func (r *Queue) Release(ctx context.Context, id int64, token string) error {
	sqlStr, args, err := dialect.Update("submissions").
		Set(goqu.Record{"state": models.SubmissionPending, "claim_token": ""}).
		Where(
			goqu.C("id").Eq(id),
			goqu.C("state").Eq(models.SubmissionProcessing),
			goqu.C("claim_token").Eq(token),
		).
		Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("building release update: %w", err)
	}

	if _, err := r.db.Exec(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("releasing submission %d: %w", id, err)
	}
	return nil
}

// Complete marks a claimed submission done.
func (r *Queue) Complete(ctx context.Context, id int64, token string) error {
	sqlStr, args, err := dialect.Update("submissions").
		Set(goqu.Record{
			"state":        models.SubmissionComplete,
			"completed_at": goqu.L("now()"),
		}).
		Where(
			goqu.C("id").Eq(id),
			goqu.C("state").Eq(models.SubmissionProcessing),
			goqu.C("claim_token").Eq(token),
		).
		Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("building complete update: %w", err)
	}

	tag, err := r.db.Exec(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("completing submission %d: %w", id, err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("submission %d not claimed with this token", id)
	}
	return nil
}

// Pending returns up to limit pending submissions, oldest first.
func (r *Queue) Pending(ctx context.Context, limit int) ([]models.Submission, error) {
	sqlStr, args, err := dialect.From("submissions").
		Select(submissionColumns...).
		Where(goqu.C("state").Eq(models.SubmissionPending)).
		Order(goqu.C("created_at").Asc()).
		Limit(uint(limit)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building pending query: %w", err)
	}

	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("querying pending submissions: %w", err)
	}
	defer rows.Close()

	var subs []models.Submission
	for rows.Next() {
		var sub models.Submission
		err := rows.Scan(
			&sub.ID, &sub.WorkKey, &sub.Review, &sub.Username, &sub.State,
			&sub.ClaimToken, &sub.CreatedAt, &sub.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning submission row: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
