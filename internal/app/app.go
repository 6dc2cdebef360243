// Package app wires configuration, the database pool, the bounded
// OpenLibrary client and the repositories into one container with explicit
// startup/shutdown ownership. The CLI commands and any future web layer
// talk to this surface.
package app

import (
	"context"
	"fmt"

	"github.com/alexk49/booksanon/internal/config"
	"github.com/alexk49/booksanon/internal/database"
	"github.com/alexk49/booksanon/internal/models"
	"github.com/alexk49/booksanon/internal/openlib"
	"github.com/alexk49/booksanon/internal/repository"
	"github.com/alexk49/booksanon/internal/worker"
)

// App owns every shared resource: the connection pool and the HTTP
// request cap live here, not in package globals.
type App struct {
	cfg    *config.Config
	db     *database.Database
	client *openlib.Client

	Caller *openlib.Caller
	Store  *repository.Store
	Worker *worker.Worker
}

// New builds an unstarted App from cfg.
func New(cfg *config.Config) *App {
	client := openlib.NewClient(openlib.Options{
		MaxConcurrent:     cfg.Client.MaxConcurrent,
		MaxRetries:        cfg.Client.MaxRetries,
		RetryDelay:        cfg.Client.RetryDelay,
		Timeout:           cfg.Client.Timeout,
		RequestsPerSecond: cfg.Client.RequestsPerSecond,
		Contact:           cfg.Client.Contact,
	})

	return &App{
		cfg:    cfg,
		db:     database.New(cfg.Database.DSN),
		client: client,
		Caller: openlib.NewCaller(client),
	}
}

// Startup connects the pool and builds the repositories and worker.
func (a *App) Startup(ctx context.Context) error {
	if err := a.db.Connect(ctx); err != nil {
		return err
	}
	a.Store = repository.NewStore(a.db)
	a.Worker = worker.New(a.Store.Queue, worker.WrapStore(a.Store), a.Caller)
	return nil
}

// Shutdown releases the pool and the HTTP client. Safe to call once
// startup has run, whether or not work happened in between.
func (a *App) Shutdown() {
	a.client.Close()
	a.db.Close()
}

// InitSchema creates the schema and the reserved anon user.
func (a *App) InitSchema(ctx context.Context) error {
	if err := a.db.CreateSchema(ctx); err != nil {
		return err
	}
	return a.Store.Users.EnsureAnon(ctx)
}

// EnqueueSubmission validates the work key and stores a pending
// submission, returning its id. Validation happens here, before any
// network call is ever made for the submission.
func (a *App) EnqueueSubmission(ctx context.Context, workKey, review, username string) (int64, error) {
	if !openlib.ValidWorkID(workKey) {
		return 0, fmt.Errorf("%w: %q", openlib.ErrInvalidWorkID, workKey)
	}
	key, err := openlib.NormalizeWorkKey(workKey)
	if err != nil {
		return 0, err
	}
	return a.Store.Queue.Enqueue(ctx, key, review, username)
}

// ProcessSubmission runs the worker for one submission. Idempotent: safe
// to call more than once for the same id.
func (a *App) ProcessSubmission(ctx context.Context, submissionID int64) error {
	return a.Worker.Process(ctx, submissionID)
}

// Search runs a free-text candidate search against OpenLibrary.
func (a *App) Search(ctx context.Context, query string, limit int) ([]models.Book, error) {
	return a.Caller.Search(ctx, query, limit)
}

// SearchStored matches text against locally stored books and reviews.
func (a *App) SearchStored(ctx context.Context, text string) ([]models.Book, error) {
	return a.Store.Books.Search(ctx, text)
}

// GetBook returns a stored book with its reviews.
func (a *App) GetBook(ctx context.Context, bookID int64) (*models.Book, []models.Review, error) {
	book, err := a.Store.Books.GetByID(ctx, bookID)
	if err != nil || book == nil {
		return book, nil, err
	}
	reviews, err := a.Store.Reviews.ForBook(ctx, bookID)
	if err != nil {
		return nil, nil, err
	}
	return book, reviews, nil
}

// GetAuthor returns a stored author with the books linked to them.
func (a *App) GetAuthor(ctx context.Context, authorID int64) (*models.Author, []models.Book, error) {
	author, err := a.Store.Authors.GetByID(ctx, authorID)
	if err != nil || author == nil {
		return author, nil, err
	}

	ids, err := a.Store.Authors.BookIDs(ctx, authorID)
	if err != nil {
		return nil, nil, err
	}

	books := make([]models.Book, 0, len(ids))
	for _, id := range ids {
		book, err := a.Store.Books.GetByID(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		if book != nil {
			books = append(books, *book)
		}
	}
	return author, books, nil
}

// MostRecentBooks returns the newest stored books.
func (a *App) MostRecentBooks(ctx context.Context, limit int) ([]models.Book, error) {
	return a.Store.Books.MostRecent(ctx, limit)
}
