package models

import "time"

// Author is an OpenLibrary author record. Key is the external identity
// (e.g. "/authors/OL23919A"); ID is assigned on insert.
type Author struct {
	ID        int64
	Key       string
	Name      string
	BirthDate string
	DeathDate string

	// RemoteIDs maps external systems to their ids for this author
	// (wikidata, viaf, isni, ...).
	RemoteIDs map[string]string

	CreatedAt time.Time
}
