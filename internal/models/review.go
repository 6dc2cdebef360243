package models

import "time"

// Review is a free-text review of a book. Reviews are anonymous: UserID
// always resolves to the reserved "anon" user in this core.
type Review struct {
	ID        int64
	BookID    int64
	UserID    int64
	Content   string
	CreatedAt time.Time
}
