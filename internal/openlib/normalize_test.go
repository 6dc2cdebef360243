package openlib

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractYear(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"2023", 2023},
		{"2023-01-15", 2023},
		{"2023/01/15", 2023},
		{"1851", 1851},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			year, err := ExtractYear(tt.date)
			require.NoError(t, err)
			require.Equal(t, tt.want, year)
		})
	}
}

func TestExtractYearUnparseable(t *testing.T) {
	_, err := ExtractYear("January 2023")
	require.Error(t, err)
	require.Contains(t, err.Error(), "January 2023")
}

func TestParseSearchResultsDedup(t *testing.T) {
	resp := searchResponse{
		Docs: []searchDoc{
			{Key: "/works/OL1W", Title: "First"},
			{Key: "/works/OL1W", Title: "First again"},
			{Key: "", Title: "No key, skipped"},
			{Key: "/works/OL2W", Title: "Second"},
			{Key: "/works/OL3W", Title: "Third"},
		},
	}

	books := parseSearchResults(resp, 0)
	require.Len(t, books, 3)
	require.Equal(t, "/works/OL1W", books[0].WorkKey)
	require.Equal(t, "First", books[0].Title)

	// The limit applies after deduplication: two distinct works survive,
	// not one work plus its duplicate.
	limited := parseSearchResults(resp, 2)
	require.Len(t, limited, 2)
	require.Equal(t, "/works/OL1W", limited[0].WorkKey)
	require.Equal(t, "/works/OL2W", limited[1].WorkKey)
}

func TestParseSearchResultsFields(t *testing.T) {
	resp := searchResponse{
		Docs: []searchDoc{{
			Key:              "/works/OL82563W",
			Title:            "Oliver Twist",
			AuthorNames:      []string{"Charles Dickens"},
			AuthorKeys:       []string{"OL24638A"},
			FirstPublishYear: 1838,
			PagesMedian:      430,
			CoverID:          8235116,
		}},
	}

	books := parseSearchResults(resp, 10)
	require.Len(t, books, 1)
	book := books[0]
	require.Equal(t, "Oliver Twist", book.Title)
	require.Equal(t, []string{"Charles Dickens"}, book.AuthorNames)
	require.Equal(t, 1838, book.FirstPublishYear)
	require.Equal(t, 430, book.PageCountMedian)
	require.Equal(t, []string{"8235116"}, book.CoverIDs)
}

func TestParseWorkDescriptionForms(t *testing.T) {
	asString := parseWork(workResponse{Key: "/works/OL1W", Title: "T", Description: "plain text"}, nil)
	require.Equal(t, "plain text", asString.Description)

	asObject := parseWork(workResponse{
		Key:         "/works/OL1W",
		Title:       "T",
		Description: map[string]any{"type": "/type/text", "value": "nested text"},
	}, nil)
	require.Equal(t, "nested text", asObject.Description)

	missing := parseWork(workResponse{Key: "/works/OL1W", Title: "T"}, nil)
	require.Equal(t, "", missing.Description)
}

func TestParseWorkMergesIntoExisting(t *testing.T) {
	existing := parseSearchResults(searchResponse{
		Docs: []searchDoc{{Key: "/works/OL1W", Title: "Old Title", FirstPublishYear: 1900}},
	}, 1)[0]

	merged := parseWork(workResponse{
		Key:      "/works/OL1W",
		Title:    "New Title",
		Subjects: []string{"Fiction"},
		Covers:   []int64{101, 102},
		Links:    []workLink{{Title: "Wikipedia", URL: "https://en.wikipedia.org/x"}},
	}, &existing)

	require.Equal(t, "New Title", merged.Title)
	require.Equal(t, 1900, merged.FirstPublishYear)
	require.Equal(t, []string{"Fiction"}, merged.Subjects)
	require.Equal(t, []string{"101", "102"}, merged.CoverIDs)
	require.Len(t, merged.RemoteLinks, 1)
}

func TestMergeEditions(t *testing.T) {
	resp := editionsResponse{Entries: []editionEntry{
		{
			ISBN13s:       []string{"9780000000001"},
			ISBN10s:       []string{"0000000001"},
			Publishers:    []string{"Penguin"},
			PublishDate:   "2023-01-01",
			NumberOfPages: 100,
		},
		{
			ISBN13s:       []string{"9780000000002", "9780000000001"},
			Publishers:    []string{"Vintage", "Penguin"},
			PublishDate:   "2022",
			NumberOfPages: 120,
		},
	}}

	book := mergeEditions(resp, parseWork(workResponse{Key: "/works/OL1W", Title: "T"}, nil))

	require.ElementsMatch(t, []string{"9780000000001", "9780000000002"}, book.ISBN13s)
	require.Equal(t, []string{"0000000001"}, book.ISBN10s)
	require.ElementsMatch(t, []string{"Penguin", "Vintage"}, book.Publishers)
	require.Equal(t, 2022, book.FirstPublishYear, "earliest parsed year wins")
	require.Equal(t, 110, book.PageCountMedian, "median of 100 and 120")
}

func TestMergeEditionsKeepsExistingPageCount(t *testing.T) {
	existing := parseWork(workResponse{Key: "/works/OL1W", Title: "T", PagesMedian: 400}, nil)

	book := mergeEditions(editionsResponse{Entries: []editionEntry{
		{NumberOfPages: 100},
		{NumberOfPages: 120},
	}}, existing)

	require.Equal(t, 400, book.PageCountMedian)
}

func TestMergeEditionsSkipsUnparseableDates(t *testing.T) {
	book := mergeEditions(editionsResponse{Entries: []editionEntry{
		{PublishDate: "circa 1850"},
		{PublishDate: "1994"},
	}}, parseWork(workResponse{Key: "/works/OL1W"}, nil))

	require.Equal(t, 1994, book.FirstPublishYear)
}

func TestWorkAuthorKeys(t *testing.T) {
	resp := workResponse{}
	require.Empty(t, workAuthorKeys(resp))

	resp.Authors = make([]authorRef, 3)
	resp.Authors[0].Author.Key = "/authors/OL1A"
	resp.Authors[1].Author.Key = "/authors/OL1A"
	resp.Authors[2].Author.Key = "/authors/OL2A"

	require.Equal(t, []string{"/authors/OL1A", "/authors/OL2A"}, workAuthorKeys(resp))
}

func TestParseAuthor(t *testing.T) {
	author := parseAuthor(authorResponse{
		Key:       "/authors/OL24638A",
		Name:      "Charles Dickens",
		BirthDate: "7 February 1812",
		DeathDate: "9 June 1870",
		RemoteIDs: map[string]string{"wikidata": "Q5686"},
	})

	require.Equal(t, "Charles Dickens", author.Name)
	require.Equal(t, "/authors/OL24638A", author.Key)
	require.Equal(t, "Q5686", author.RemoteIDs["wikidata"])
}

func TestMedian(t *testing.T) {
	require.Equal(t, 110, median([]int{100, 120}))
	require.Equal(t, 120, median([]int{100, 120, 300}))
	require.Equal(t, 42, median([]int{42}))
}
