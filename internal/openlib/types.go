package openlib

import (
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// searchResponse is the /search.json payload: results are nested under docs.
type searchResponse struct {
	NumFound int         `json:"num_found"`
	Docs     []searchDoc `json:"docs"`
}

type searchDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorNames      []string `json:"author_name"`
	AuthorKeys       []string `json:"author_key"`
	FirstPublishYear int      `json:"first_publish_year"`
	PagesMedian      int      `json:"number_of_pages_median"`
	CoverID          int64    `json:"cover_i"`
}

// workResponse is the /works/OL…W.json payload. Description is either a
// bare string or {"type": …, "value": …}, so it decodes as any.
type workResponse struct {
	Key         string      `json:"key"`
	Title       string      `json:"title"`
	Authors     []authorRef `json:"authors"`
	Description any         `json:"description"`
	Subjects    []string    `json:"subjects"`
	Links       []workLink  `json:"links"`
	Covers      []int64     `json:"covers"`
	PagesMedian int         `json:"number_of_pages_median"`
}

type authorRef struct {
	Author struct {
		Key string `json:"key"`
	} `json:"author"`
}

type workLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// editionsResponse is the /works/OL…W/editions.json payload.
type editionsResponse struct {
	Entries []editionEntry `json:"entries"`
}

type editionEntry struct {
	ISBN13s       []string `json:"isbn_13"`
	ISBN10s       []string `json:"isbn_10"`
	Publishers    []string `json:"publishers"`
	PublishDate   string   `json:"publish_date"`
	NumberOfPages int      `json:"number_of_pages"`
}

// authorResponse is the /authors/OL…A.json payload.
type authorResponse struct {
	Key       string            `json:"key"`
	Name      string            `json:"name"`
	BirthDate string            `json:"birth_date"`
	DeathDate string            `json:"death_date"`
	RemoteIDs map[string]string `json:"remote_ids"`
}
