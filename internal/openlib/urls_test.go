package openlib

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidWorkID(t *testing.T) {
	tests := []struct {
		name   string
		workID string
		want   bool
	}{
		{"bare id", "OL45804W", true},
		{"qualified id", "/works/OL45804W", true},
		{"lowercase prefix", "ol45804w", true},
		{"whitespace", "  OL45804W ", true},
		{"author id", "OL23919A", false},
		{"missing digits", "OLW", false},
		{"empty", "", false},
		{"random text", "not-a-work", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ValidWorkID(tt.workID))
		})
	}
}

func TestNormalizeWorkKey(t *testing.T) {
	key, err := NormalizeWorkKey("OL45804W")
	require.NoError(t, err)
	require.Equal(t, "/works/OL45804W", key)

	key, err = NormalizeWorkKey("/works/OL45804W")
	require.NoError(t, err)
	require.Equal(t, "/works/OL45804W", key)

	_, err = NormalizeWorkKey("garbage")
	require.ErrorIs(t, err, ErrInvalidWorkID)
}

func TestWorkAndEditionsURLs(t *testing.T) {
	workURL, err := WorkURL("OL45804W")
	require.NoError(t, err)
	require.Equal(t, "https://openlibrary.org/works/OL45804W.json", workURL)

	editionsURL, err := EditionsURL("/works/OL45804W")
	require.NoError(t, err)
	require.Equal(t, "https://openlibrary.org/works/OL45804W/editions.json", editionsURL)

	_, err = WorkURL("OL123A")
	require.ErrorIs(t, err, ErrInvalidWorkID)
}

func TestAuthorURL(t *testing.T) {
	url, err := AuthorURL("OL23919A")
	require.NoError(t, err)
	require.Equal(t, "https://openlibrary.org/authors/OL23919A.json", url)

	url, err = AuthorURL("/authors/OL23919A")
	require.NoError(t, err)
	require.Equal(t, "https://openlibrary.org/authors/OL23919A.json", url)

	_, err = AuthorURL("OL45804W")
	require.ErrorIs(t, err, ErrInvalidAuthorID)
}

func TestSearchURL(t *testing.T) {
	url := SearchURL("oliver twist", 10)
	require.Contains(t, url, "https://openlibrary.org/search.json?")
	require.Contains(t, url, "q=oliver+twist")
	require.Contains(t, url, "limit=10")
	require.Contains(t, url, "lang=en")
}

func TestFieldSearchURL(t *testing.T) {
	url, err := FieldSearchURL(map[string]string{"title": "Oliver Twist", "author": "Charles Dickens"}, 20)
	require.NoError(t, err)
	require.Contains(t, url, "title=Oliver+Twist")
	require.Contains(t, url, "author=Charles+Dickens")
	require.Contains(t, url, "limit=20")

	_, err = FieldSearchURL(map[string]string{"isbn": "123"}, 20)
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Equal(t, "isbn", validationErr.Param)

	_, err = FieldSearchURL(map[string]string{}, 20)
	require.True(t, errors.As(err, &validationErr))
}
