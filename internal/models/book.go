// Package models holds the core records the aggregation pipeline produces
// and the repositories persist.
package models

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// RemoteLink is an outbound reference link attached to a work by OpenLibrary.
type RemoteLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Book is a fully merged work record. WorkKey is the external identity;
// ID is assigned by the database on insert and is zero until then.
type Book struct {
	ID      int64
	WorkKey string
	Title   string

	AuthorNames []string
	AuthorKeys  []string

	FirstPublishYear int
	PageCountMedian  int
	Description      string
	Subjects         []string
	Publishers       []string
	ISBN13s          []string
	ISBN10s          []string
	CoverIDs         []string
	RemoteLinks      []RemoteLink

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AuthorDisplay returns the author names joined for display, or "Unknown".
func (b *Book) AuthorDisplay() string {
	if len(b.AuthorNames) == 0 {
		return "Unknown"
	}
	return strings.Join(b.AuthorNames, ", ")
}

// SortedSubjects returns the subject tags sorted for stable display.
func (b *Book) SortedSubjects() []string {
	return sortedCopy(b.Subjects)
}

// SortedPublishers returns the publisher set sorted for stable display.
func (b *Book) SortedPublishers() []string {
	return sortedCopy(b.Publishers)
}

// CoverURL returns the covers.openlibrary.org image URL for the first known
// cover id, or "" when the book has none.
func (b *Book) CoverURL(size string) string {
	if len(b.CoverIDs) == 0 {
		return ""
	}
	if size == "" {
		size = "M"
	}
	return fmt.Sprintf("https://covers.openlibrary.org/b/id/%s-%s.jpg", b.CoverIDs[0], size)
}

// OpenLibraryURL returns the public page for this work.
func (b *Book) OpenLibraryURL() string {
	key := b.WorkKey
	if !strings.HasPrefix(key, "/works/") {
		key = "/works/" + key
	}
	return "https://openlibrary.org" + key
}

// LinkOuts returns the outbound links shown alongside a book: the remote
// links from the work record, the OpenLibrary page, and bookseller searches.
func (b *Book) LinkOuts() []RemoteLink {
	links := make([]RemoteLink, 0, len(b.RemoteLinks)+4)
	for _, l := range b.RemoteLinks {
		if l.Title != "" && l.URL != "" {
			links = append(links, l)
		}
	}

	links = append(links, RemoteLink{Title: "OpenLibrary", URL: b.OpenLibraryURL()})

	query := b.Title
	if display := b.AuthorDisplay(); display != "Unknown" {
		query = b.Title + " " + display
	}
	escaped := url.QueryEscape(query)

	links = append(links,
		RemoteLink{Title: "uk.bookshop.org", URL: "https://uk.bookshop.org/search?keywords=" + escaped},
		RemoteLink{Title: "us.bookshop.org", URL: "https://bookshop.org/search?keywords=" + escaped},
		RemoteLink{Title: "libro.fm", URL: "https://libro.fm/search?q=" + escaped},
	)
	return links
}

func sortedCopy(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	sort.Strings(out)
	return out
}
