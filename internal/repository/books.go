// Package repository implements idempotent persistence for books, authors,
// reviews, users and the submission queue. All SQL is built with goqu and
// executed through a database.Querier, so the same repositories run against
// the pool or inside a transaction.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5"

	"github.com/alexk49/booksanon/internal/database"
	"github.com/alexk49/booksanon/internal/models"
)

var dialect = goqu.Dialect("postgres")

var bookColumns = []any{
	"id", "openlib_work_key", "title", "author_names", "author_keys",
	goqu.COALESCE(goqu.C("first_publish_year"), 0).As("first_publish_year"),
	goqu.COALESCE(goqu.C("page_count_median"), 0).As("page_count_median"),
	"description", "subjects", "publishers", "isbns_13", "isbns_10",
	"cover_ids", "remote_links", "created_at", "updated_at",
}

// Books persists book records keyed by their OpenLibrary work key.
type Books struct {
	db database.Querier
}

// NewBooks creates a book repository over q.
func NewBooks(q database.Querier) *Books {
	return &Books{db: q}
}

// WithQuerier returns a copy bound to q, for transactional use.
func (r *Books) WithQuerier(q database.Querier) *Books {
	return &Books{db: q}
}

// Insert stores a book and returns its id. The unique constraint on the
// work key makes this idempotent: a conflicting insert is treated as
// success and the pre-existing row's id is returned.
func (r *Books) Insert(ctx context.Context, book *models.Book) (int64, error) {
	links, err := json.Marshal(book.RemoteLinks)
	if err != nil {
		return 0, fmt.Errorf("encoding remote links: %w", err)
	}

	record := goqu.Record{
		"openlib_work_key": book.WorkKey,
		"title":            book.Title,
		"author_names":     textArray(book.AuthorNames),
		"author_keys":      textArray(book.AuthorKeys),
		"description":      book.Description,
		"subjects":         textArray(book.Subjects),
		"publishers":       textArray(book.Publishers),
		"isbns_13":         textArray(book.ISBN13s),
		"isbns_10":         textArray(book.ISBN10s),
		"cover_ids":        textArray(book.CoverIDs),
		"remote_links":     links,
	}
	if book.FirstPublishYear > 0 {
		record["first_publish_year"] = book.FirstPublishYear
	}
	if book.PageCountMedian > 0 {
		record["page_count_median"] = book.PageCountMedian
	}

	sqlStr, args, err := dialect.Insert("books").
		Rows(record).
		OnConflict(goqu.DoNothing()).
		Returning("id").
		Prepared(true).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("building book insert: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, sqlStr, args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		// Conflict: another writer got there first. Fetch the existing row.
		id, _, err = r.IDByWorkKey(ctx, book.WorkKey)
		if err != nil {
			return 0, err
		}
		return id, nil
	}
	if err != nil {
		return 0, fmt.Errorf("inserting book %s: %w", book.WorkKey, err)
	}
	return id, nil
}

// Exists reports whether a book with the given work key is stored.
func (r *Books) Exists(ctx context.Context, workKey string) (bool, error) {
	_, found, err := r.IDByWorkKey(ctx, workKey)
	return found, err
}

// IDByWorkKey returns the internal id for a work key.
func (r *Books) IDByWorkKey(ctx context.Context, workKey string) (int64, bool, error) {
	sqlStr, args, err := dialect.From("books").
		Select("id").
		Where(goqu.C("openlib_work_key").Eq(workKey)).
		Prepared(true).ToSQL()
	if err != nil {
		return 0, false, fmt.Errorf("building book lookup: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, sqlStr, args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("looking up book %s: %w", workKey, err)
	}
	return id, true, nil
}

// GetByID returns the book with the given internal id, or nil.
func (r *Books) GetByID(ctx context.Context, id int64) (*models.Book, error) {
	return r.getOne(ctx, goqu.C("id").Eq(id))
}

// GetByWorkKey returns the book with the given work key, or nil.
func (r *Books) GetByWorkKey(ctx context.Context, workKey string) (*models.Book, error) {
	return r.getOne(ctx, goqu.C("openlib_work_key").Eq(workKey))
}

func (r *Books) getOne(ctx context.Context, where goqu.Expression) (*models.Book, error) {
	sqlStr, args, err := dialect.From("books").
		Select(bookColumns...).
		Where(where).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building book query: %w", err)
	}

	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("querying book: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	book, err := scanBook(rows)
	if err != nil {
		return nil, err
	}
	return book, rows.Err()
}

// MostRecent returns up to limit books, newest first.
func (r *Books) MostRecent(ctx context.Context, limit int) ([]models.Book, error) {
	sqlStr, args, err := dialect.From("books").
		Select(bookColumns...).
		Order(goqu.C("created_at").Desc()).
		Limit(uint(limit)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building recent books query: %w", err)
	}
	return r.queryBooks(ctx, sqlStr, args)
}

// Search matches text as a substring against titles, author names, and
// review content.
func (r *Books) Search(ctx context.Context, text string) ([]models.Book, error) {
	pattern := "%" + text + "%"

	sqlStr, args, err := dialect.From("books").
		Select(bookColumns...).
		Distinct().
		LeftJoin(goqu.T("reviews"), goqu.On(goqu.Ex{"reviews.book_id": goqu.I("books.id")})).
		Where(goqu.Or(
			goqu.I("books.title").ILike(pattern),
			goqu.L("array_to_string(books.author_names, ' ') ILIKE ?", pattern),
			goqu.I("reviews.content").ILike(pattern),
		)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building book search: %w", err)
	}
	return r.queryBooks(ctx, sqlStr, args)
}

func (r *Books) queryBooks(ctx context.Context, sqlStr string, args []any) ([]models.Book, error) {
	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("querying books: %w", err)
	}
	defer rows.Close()

	var books []models.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, *book)
	}
	return books, rows.Err()
}

func scanBook(rows pgx.Rows) (*models.Book, error) {
	var book models.Book
	var links []byte

	err := rows.Scan(
		&book.ID, &book.WorkKey, &book.Title, &book.AuthorNames, &book.AuthorKeys,
		&book.FirstPublishYear, &book.PageCountMedian,
		&book.Description, &book.Subjects, &book.Publishers, &book.ISBN13s,
		&book.ISBN10s, &book.CoverIDs, &links, &book.CreatedAt, &book.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning book row: %w", err)
	}
	if len(links) > 0 {
		if err := json.Unmarshal(links, &book.RemoteLinks); err != nil {
			return nil, fmt.Errorf("decoding remote links: %w", err)
		}
	}
	return &book, nil
}

// textArray keeps empty slices non-nil so text[] columns get '{}' instead
// of NULL.
func textArray(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
