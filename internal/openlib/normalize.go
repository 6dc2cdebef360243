package openlib

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/alexk49/booksanon/internal/models"
)

// yearFormats are the publish date shapes editions actually carry.
var yearFormats = []string{"2006", "2006-01-02", "2006/01/02"}

// ExtractYear parses the year out of an edition publish date. Unparseable
// input is reported as an error carrying the original string, never
// silently swallowed.
func ExtractYear(date string) (int, error) {
	for _, format := range yearFormats {
		if parsed, err := time.Parse(format, date); err == nil {
			return parsed.Year(), nil
		}
	}
	return 0, fmt.Errorf("could not parse year from %q", date)
}

// parseSearchResults maps a search payload to candidate books. Docs without
// a work key are skipped, duplicates of an already seen work key are
// dropped, and limit applies to the deduplicated list.
func parseSearchResults(resp searchResponse, limit int) []models.Book {
	books := make([]models.Book, 0, len(resp.Docs))
	seen := make(map[string]bool, len(resp.Docs))

	for _, doc := range resp.Docs {
		if doc.Key == "" || seen[doc.Key] {
			continue
		}
		seen[doc.Key] = true

		book := models.Book{
			WorkKey:          doc.Key,
			Title:            doc.Title,
			AuthorNames:      doc.AuthorNames,
			AuthorKeys:       doc.AuthorKeys,
			FirstPublishYear: doc.FirstPublishYear,
			PageCountMedian:  doc.PagesMedian,
		}
		if doc.Title == "" {
			book.Title = "Unknown"
		}
		if doc.CoverID != 0 {
			book.CoverIDs = []string{strconv.FormatInt(doc.CoverID, 10)}
		}
		books = append(books, book)

		if limit > 0 && len(books) == limit {
			break
		}
	}
	return books
}

// parseWork maps a work detail payload onto a book, merging into existing
// when one is passed (the search candidate being enriched).
func parseWork(resp workResponse, existing *models.Book) models.Book {
	book := models.Book{}
	if existing != nil {
		book = *existing
	}

	book.WorkKey = resp.Key
	book.Title = resp.Title
	book.Description = descriptionValue(resp.Description)
	book.Subjects = resp.Subjects

	if resp.PagesMedian > 0 {
		book.PageCountMedian = resp.PagesMedian
	}
	for _, link := range resp.Links {
		book.RemoteLinks = append(book.RemoteLinks, models.RemoteLink{Title: link.Title, URL: link.URL})
	}
	for _, cover := range resp.Covers {
		book.CoverIDs = append(book.CoverIDs, strconv.FormatInt(cover, 10))
	}
	return book
}

// workAuthorKeys returns the distinct author keys a work references.
func workAuthorKeys(resp workResponse) []string {
	keys := make([]string, 0, len(resp.Authors))
	seen := make(map[string]bool, len(resp.Authors))
	for _, ref := range resp.Authors {
		key := ref.Author.Key
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	return keys
}

// mergeEditions folds every edition entry into the book: the union of all
// ISBNs and publishers, the earliest parsed publish year, and the median
// page count when the book does not already have one.
func mergeEditions(resp editionsResponse, book models.Book) models.Book {
	isbn13s := newStringSet()
	isbn10s := newStringSet()
	publishers := newStringSet()
	var pages []int
	earliestYear := 0

	for _, entry := range resp.Entries {
		isbn13s.add(entry.ISBN13s...)
		isbn10s.add(entry.ISBN10s...)
		publishers.add(entry.Publishers...)

		if entry.NumberOfPages > 0 {
			pages = append(pages, entry.NumberOfPages)
		}
		if entry.PublishDate != "" {
			year, err := ExtractYear(entry.PublishDate)
			if err != nil {
				continue
			}
			if earliestYear == 0 || year < earliestYear {
				earliestYear = year
			}
		}
	}

	book.ISBN13s = isbn13s.values()
	book.ISBN10s = isbn10s.values()
	book.Publishers = publishers.values()

	if earliestYear != 0 {
		book.FirstPublishYear = earliestYear
	}
	if book.PageCountMedian == 0 && len(pages) > 0 {
		book.PageCountMedian = median(pages)
	}
	return book
}

// parseAuthor maps an author detail payload to an Author record.
func parseAuthor(resp authorResponse) models.Author {
	return models.Author{
		Key:       resp.Key,
		Name:      resp.Name,
		BirthDate: resp.BirthDate,
		DeathDate: resp.DeathDate,
		RemoteIDs: resp.RemoteIDs,
	}
}

// descriptionValue accepts both description shapes the work API returns:
// a bare string or an object with a "value" field.
func descriptionValue(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case map[string]any:
		if value, ok := v["value"].(string); ok {
			return value
		}
	}
	return ""
}

func median(values []int) int {
	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

type stringSet struct {
	seen  map[string]bool
	items []string
}

func newStringSet() *stringSet {
	return &stringSet{seen: make(map[string]bool)}
}

func (s *stringSet) add(values ...string) {
	for _, v := range values {
		if v == "" || s.seen[v] {
			continue
		}
		s.seen[v] = true
		s.items = append(s.items, v)
	}
}

func (s *stringSet) values() []string {
	return s.items
}
