package worker

import (
	"context"

	"github.com/alexk49/booksanon/internal/models"
	"github.com/alexk49/booksanon/internal/repository"
)

// storeAdapter narrows repository.Store to the worker's Store interface.
type storeAdapter struct {
	store *repository.Store
}

// WrapStore adapts the concrete repository set for use by the worker.
func WrapStore(store *repository.Store) Store {
	return &storeAdapter{store: store}
}

func (a *storeAdapter) BookIDByWorkKey(ctx context.Context, workKey string) (int64, bool, error) {
	return a.store.Books.IDByWorkKey(ctx, workKey)
}

func (a *storeAdapter) UserIDByUsername(ctx context.Context, username string) (int64, bool, error) {
	return a.store.Users.IDByUsername(ctx, username)
}

func (a *storeAdapter) SaveBookWithReview(ctx context.Context, book *models.Book, authors []models.Author, userID int64, review string) (int64, error) {
	return a.store.SaveBookWithReview(ctx, book, authors, userID, review)
}

func (a *storeAdapter) AddReview(ctx context.Context, userID, bookID int64, content string) (int64, error) {
	return a.store.Reviews.Insert(ctx, userID, bookID, content)
}
