package openlib

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alexk49/booksanon/internal/models"
)

// ErrWorkUnavailable is returned when the work detail fetch fails after
// retries; nothing can be assembled without it.
var ErrWorkUnavailable = errors.New("work data unavailable")

// Caller runs the aggregation pipeline: search for candidates, then stitch
// work detail, editions, and author pages into complete records. All
// fetches go through one bounded Client, so the in-flight cap holds across
// concurrent enrichments.
type Caller struct {
	client *Client
}

// NewCaller creates a Caller on top of client.
func NewCaller(client *Client) *Caller {
	return &Caller{client: client}
}

// Search runs a general free-text search and returns deduplicated
// candidates, at most limit of them.
func (c *Caller) Search(ctx context.Context, query string, limit int) ([]models.Book, error) {
	return c.search(ctx, SearchURL(query, limit), limit)
}

// SearchFields runs a parameterized search (title=, author=, ...).
func (c *Caller) SearchFields(ctx context.Context, fields map[string]string, limit int) ([]models.Book, error) {
	url, err := FieldSearchURL(fields, limit)
	if err != nil {
		return nil, err
	}
	return c.search(ctx, url, limit)
}

func (c *Caller) search(ctx context.Context, url string, limit int) ([]models.Book, error) {
	body := c.client.Fetch(ctx, url)
	if body == nil {
		return nil, fmt.Errorf("search: %w", ErrWorkUnavailable)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	return parseSearchResults(resp, limit), nil
}

// Enrich assembles the complete record for one work:
//
//  1. work detail — required, ErrWorkUnavailable if it cannot be fetched
//  2. editions — merged when available, skipped with a warning otherwise
//  3. author fan-out — fetched concurrently through the shared request
//     cap; authors that fail to resolve are skipped, and a book with no
//     resolved authors is still returned
func (c *Caller) Enrich(ctx context.Context, workID string) (*models.Book, []models.Author, error) {
	workURL, err := WorkURL(workID)
	if err != nil {
		return nil, nil, err
	}

	body := c.client.Fetch(ctx, workURL)
	if body == nil {
		return nil, nil, fmt.Errorf("work %s: %w", workID, ErrWorkUnavailable)
	}

	var work workResponse
	if err := json.Unmarshal(body, &work); err != nil {
		return nil, nil, fmt.Errorf("decoding work %s: %w", workID, err)
	}

	book := parseWork(work, nil)

	// Editions absence degrades gracefully: the book is still usable,
	// just missing ISBN and publisher data.
	editionsURL, _ := EditionsURL(workID)
	if editionsBody := c.client.Fetch(ctx, editionsURL); editionsBody != nil {
		var editions editionsResponse
		if err := json.Unmarshal(editionsBody, &editions); err != nil {
			slog.Warn("decoding editions failed", "work_id", workID, "error", err)
		} else {
			book = mergeEditions(editions, book)
		}
	} else {
		slog.Warn("editions unavailable", "work_id", workID)
	}

	authors := c.fetchAuthors(ctx, workAuthorKeys(work))
	if len(authors) == 0 {
		slog.Warn("no authors resolved for work", "work_id", workID)
	}

	book.AuthorNames = make([]string, 0, len(authors))
	book.AuthorKeys = make([]string, 0, len(authors))
	for _, author := range authors {
		book.AuthorNames = append(book.AuthorNames, author.Name)
		book.AuthorKeys = append(book.AuthorKeys, author.Key)
	}

	return &book, authors, nil
}

// fetchAuthors fans out one fetch per author key. Concurrency comes from
// the client's shared slot cap, so N parallel enrichments never exceed the
// configured in-flight bound between them.
func (c *Caller) fetchAuthors(ctx context.Context, keys []string) []models.Author {
	results := make([]*models.Author, len(keys))

	var wg sync.WaitGroup
	for i, key := range keys {
		wg.Add(1)
		go func(i int, key string) {
			defer wg.Done()
			author, err := c.fetchAuthor(ctx, key)
			if err != nil {
				slog.Warn("skipping unresolved author", "author_key", key, "error", err)
				return
			}
			results[i] = author
		}(i, key)
	}
	wg.Wait()

	authors := make([]models.Author, 0, len(keys))
	for _, author := range results {
		if author != nil {
			authors = append(authors, *author)
		}
	}
	return authors
}

func (c *Caller) fetchAuthor(ctx context.Context, key string) (*models.Author, error) {
	url, err := AuthorURL(key)
	if err != nil {
		return nil, err
	}

	body := c.client.Fetch(ctx, url)
	if body == nil {
		return nil, fmt.Errorf("author %s: %w", key, ErrWorkUnavailable)
	}

	var resp authorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding author %s: %w", key, err)
	}

	author := parseAuthor(resp)
	if author.Key == "" {
		author.Key = key
	}
	return &author, nil
}
