package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"

	"github.com/alexk49/booksanon/internal/database"
	"github.com/alexk49/booksanon/internal/models"
)

// Authors persists author records keyed by their OpenLibrary author key.
type Authors struct {
	db database.Querier
}

// NewAuthors creates an author repository over q.
func NewAuthors(q database.Querier) *Authors {
	return &Authors{db: q}
}

// WithQuerier returns a copy bound to q, for transactional use.
func (r *Authors) WithQuerier(q database.Querier) *Authors {
	return &Authors{db: q}
}

// Insert stores an author and returns its id, reusing the existing row on
// a key conflict.
func (r *Authors) Insert(ctx context.Context, author *models.Author) (int64, error) {
	remoteIDs := author.RemoteIDs
	if remoteIDs == nil {
		remoteIDs = map[string]string{}
	}
	encoded, err := json.Marshal(remoteIDs)
	if err != nil {
		return 0, fmt.Errorf("encoding remote ids: %w", err)
	}

	sqlStr, args, err := dialect.Insert("authors").
		Rows(goqu.Record{
			"openlib_key": author.Key,
			"name":        author.Name,
			"birth_date":  author.BirthDate,
			"death_date":  author.DeathDate,
			"remote_ids":  encoded,
		}).
		OnConflict(goqu.DoNothing()).
		Returning("id").
		Prepared(true).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("building author insert: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, sqlStr, args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		id, _, err = r.IDByKey(ctx, author.Key)
		if err != nil {
			return 0, err
		}
		return id, nil
	}
	if err != nil {
		return 0, fmt.Errorf("inserting author %s: %w", author.Key, err)
	}
	return id, nil
}

// Exists reports whether an author with the given key is stored.
func (r *Authors) Exists(ctx context.Context, key string) (bool, error) {
	_, found, err := r.IDByKey(ctx, key)
	return found, err
}

// IDByKey returns the internal id for an OpenLibrary author key.
func (r *Authors) IDByKey(ctx context.Context, key string) (int64, bool, error) {
	sqlStr, args, err := dialect.From("authors").
		Select("id").
		Where(goqu.C("openlib_key").Eq(key)).
		Prepared(true).ToSQL()
	if err != nil {
		return 0, false, fmt.Errorf("building author lookup: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, sqlStr, args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("looking up author %s: %w", key, err)
	}
	return id, true, nil
}

// GetByID returns the author with the given internal id, or nil.
func (r *Authors) GetByID(ctx context.Context, id int64) (*models.Author, error) {
	sqlStr, args, err := dialect.From("authors").
		Select("id", "openlib_key", "name", "birth_date", "death_date", "remote_ids", "created_at").
		Where(goqu.C("id").Eq(id)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building author query: %w", err)
	}

	var author models.Author
	var remoteIDs []byte
	err = r.db.QueryRow(ctx, sqlStr, args...).Scan(
		&author.ID, &author.Key, &author.Name, &author.BirthDate,
		&author.DeathDate, &remoteIDs, &author.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying author %d: %w", id, err)
	}
	if len(remoteIDs) > 0 {
		if err := json.Unmarshal(remoteIDs, &author.RemoteIDs); err != nil {
			return nil, fmt.Errorf("decoding remote ids: %w", err)
		}
	}
	return &author, nil
}

// Link records the book↔author relationship. Re-linking the same pair is
// a no-op.
func (r *Authors) Link(ctx context.Context, bookID, authorID int64) error {
	sqlStr, args, err := dialect.Insert("book_authors").
		Rows(goqu.Record{"book_id": bookID, "author_id": authorID}).
		OnConflict(goqu.DoNothing()).
		Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("building link insert: %w", err)
	}

	if _, err := r.db.Exec(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("linking book %d to author %d: %w", bookID, authorID, err)
	}
	return nil
}

// BookIDs returns the ids of books linked to an author.
func (r *Authors) BookIDs(ctx context.Context, authorID int64) ([]int64, error) {
	sqlStr, args, err := dialect.From("book_authors").
		Select("book_id").
		Where(goqu.C("author_id").Eq(authorID)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building linked books query: %w", err)
	}

	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("querying linked books: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning book id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
