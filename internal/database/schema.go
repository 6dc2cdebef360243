package database

import (
	"context"
	"fmt"
)

// schema is the relational model. External identities (work key, author
// key, username) carry unique constraints so concurrent check-then-insert
// races resolve at the storage layer instead of duplicating rows.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id          BIGSERIAL PRIMARY KEY,
    username    TEXT NOT NULL UNIQUE,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS books (
    id                  BIGSERIAL PRIMARY KEY,
    openlib_work_key    TEXT NOT NULL UNIQUE,
    title               TEXT NOT NULL,
    author_names        TEXT[] NOT NULL DEFAULT '{}',
    author_keys         TEXT[] NOT NULL DEFAULT '{}',
    first_publish_year  INT,
    page_count_median   INT,
    description         TEXT NOT NULL DEFAULT '',
    subjects            TEXT[] NOT NULL DEFAULT '{}',
    publishers          TEXT[] NOT NULL DEFAULT '{}',
    isbns_13            TEXT[] NOT NULL DEFAULT '{}',
    isbns_10            TEXT[] NOT NULL DEFAULT '{}',
    cover_ids           TEXT[] NOT NULL DEFAULT '{}',
    remote_links        JSONB NOT NULL DEFAULT '[]',
    created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS authors (
    id          BIGSERIAL PRIMARY KEY,
    openlib_key TEXT NOT NULL UNIQUE,
    name        TEXT NOT NULL,
    birth_date  TEXT NOT NULL DEFAULT '',
    death_date  TEXT NOT NULL DEFAULT '',
    remote_ids  JSONB NOT NULL DEFAULT '{}',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS book_authors (
    book_id     BIGINT NOT NULL REFERENCES books (id),
    author_id   BIGINT NOT NULL REFERENCES authors (id),
    PRIMARY KEY (book_id, author_id)
);

CREATE TABLE IF NOT EXISTS reviews (
    id          BIGSERIAL PRIMARY KEY,
    book_id     BIGINT NOT NULL REFERENCES books (id),
    user_id     BIGINT NOT NULL REFERENCES users (id),
    content     TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS submissions (
    id                  BIGSERIAL PRIMARY KEY,
    openlib_work_key    TEXT NOT NULL,
    review              TEXT NOT NULL,
    username            TEXT NOT NULL DEFAULT 'anon',
    state               TEXT NOT NULL DEFAULT 'pending',
    claim_token         TEXT NOT NULL DEFAULT '',
    created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
    completed_at        TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS submissions_state_idx ON submissions (state);
`

// CreateSchema creates all tables and indexes if they do not exist.
func (d *Database) CreateSchema(ctx context.Context) error {
	if _, err := d.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
