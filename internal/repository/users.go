package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"

	"github.com/alexk49/booksanon/internal/database"
)

// AnonUsername is the reserved identity every anonymous review resolves to.
const AnonUsername = "anon"

// Users persists the minimal user table backing anonymous reviews.
type Users struct {
	db database.Querier
}

// NewUsers creates a user repository over q.
func NewUsers(q database.Querier) *Users {
	return &Users{db: q}
}

// EnsureAnon creates the reserved anonymous user if it is missing.
// Called once at schema setup.
func (r *Users) EnsureAnon(ctx context.Context) error {
	sqlStr, args, err := dialect.Insert("users").
		Rows(goqu.Record{"username": AnonUsername}).
		OnConflict(goqu.DoNothing()).
		Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("building anon user insert: %w", err)
	}

	if _, err := r.db.Exec(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("creating anon user: %w", err)
	}
	return nil
}

// IDByUsername resolves a username to its internal id.
func (r *Users) IDByUsername(ctx context.Context, username string) (int64, bool, error) {
	sqlStr, args, err := dialect.From("users").
		Select("id").
		Where(goqu.C("username").Eq(username)).
		Prepared(true).ToSQL()
	if err != nil {
		return 0, false, fmt.Errorf("building user lookup: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, sqlStr, args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("looking up user %s: %w", username, err)
	}
	return id, true, nil
}
