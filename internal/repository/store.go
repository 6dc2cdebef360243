package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/alexk49/booksanon/internal/database"
	"github.com/alexk49/booksanon/internal/models"
)

// Store bundles the repositories over one database and owns the
// multi-entity write path.
type Store struct {
	db *database.Database

	Books   *Books
	Authors *Authors
	Reviews *Reviews
	Users   *Users
	Queue   *Queue
}

// NewStore creates the repository set over db's pool.
func NewStore(db *database.Database) *Store {
	pool := db.Pool()
	return &Store{
		db:      db,
		Books:   NewBooks(pool),
		Authors: NewAuthors(pool),
		Reviews: NewReviews(pool),
		Users:   NewUsers(pool),
		Queue:   NewQueue(pool),
	}
}

// SaveBookWithReview persists a freshly aggregated book, its authors, the
// book↔author links and the submission's review in a single transaction:
// a crash mid-sequence cannot leave a book without its review or links.
// Returns the book's internal id.
func (s *Store) SaveBookWithReview(ctx context.Context, book *models.Book, authors []models.Author, userID int64, review string) (int64, error) {
	var bookID int64

	err := s.db.InTx(ctx, func(tx pgx.Tx) error {
		books := s.Books.WithQuerier(tx)
		authorRepo := s.Authors.WithQuerier(tx)
		reviews := s.Reviews.WithQuerier(tx)

		var err error
		bookID, err = books.Insert(ctx, book)
		if err != nil {
			return err
		}

		for i := range authors {
			authorID, err := authorRepo.Insert(ctx, &authors[i])
			if err != nil {
				return err
			}
			if err := authorRepo.Link(ctx, bookID, authorID); err != nil {
				return err
			}
		}

		if _, err := reviews.Insert(ctx, userID, bookID, review); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("saving book %s: %w", book.WorkKey, err)
	}
	return bookID, nil
}
