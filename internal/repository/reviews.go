package repository

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/alexk49/booksanon/internal/database"
	"github.com/alexk49/booksanon/internal/models"
)

// Reviews persists book reviews.
type Reviews struct {
	db database.Querier
}

// NewReviews creates a review repository over q.
func NewReviews(q database.Querier) *Reviews {
	return &Reviews{db: q}
}

// WithQuerier returns a copy bound to q, for transactional use.
func (r *Reviews) WithQuerier(q database.Querier) *Reviews {
	return &Reviews{db: q}
}

// Insert stores a review for an existing book. The foreign key makes a
// review against a missing book a hard error, not something to absorb.
func (r *Reviews) Insert(ctx context.Context, userID, bookID int64, content string) (int64, error) {
	sqlStr, args, err := dialect.Insert("reviews").
		Rows(goqu.Record{"user_id": userID, "book_id": bookID, "content": content}).
		Returning("id").
		Prepared(true).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("building review insert: %w", err)
	}

	var id int64
	if err := r.db.QueryRow(ctx, sqlStr, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("inserting review for book %d: %w", bookID, err)
	}
	return id, nil
}

// ForBook returns all reviews for a book, newest first.
func (r *Reviews) ForBook(ctx context.Context, bookID int64) ([]models.Review, error) {
	sqlStr, args, err := dialect.From("reviews").
		Select("id", "book_id", "user_id", "content", "created_at").
		Where(goqu.C("book_id").Eq(bookID)).
		Order(goqu.C("created_at").Desc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building reviews query: %w", err)
	}
	return r.queryReviews(ctx, sqlStr, args)
}

// MostRecent returns up to limit reviews, newest first.
func (r *Reviews) MostRecent(ctx context.Context, limit int) ([]models.Review, error) {
	sqlStr, args, err := dialect.From("reviews").
		Select("id", "book_id", "user_id", "content", "created_at").
		Order(goqu.C("created_at").Desc()).
		Limit(uint(limit)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building recent reviews query: %w", err)
	}
	return r.queryReviews(ctx, sqlStr, args)
}

func (r *Reviews) queryReviews(ctx context.Context, sqlStr string, args []any) ([]models.Review, error) {
	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("querying reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var review models.Review
		if err := rows.Scan(&review.ID, &review.BookID, &review.UserID, &review.Content, &review.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning review row: %w", err)
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}
