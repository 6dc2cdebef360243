package openlib

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// baseURL is a var so tests can point the resolver at a local server.
var baseURL = "https://openlibrary.org"

var (
	// ErrInvalidWorkID is returned for work ids that are neither bare
	// ("OL45804W") nor qualified ("/works/OL45804W").
	ErrInvalidWorkID = errors.New("invalid OpenLibrary work id")

	// ErrInvalidAuthorID is the author equivalent ("OL23919A" / "/authors/OL23919A").
	ErrInvalidAuthorID = errors.New("invalid OpenLibrary author id")

	workIDPattern   = regexp.MustCompile(`(?i)^OL[0-9]+W$`)
	authorIDPattern = regexp.MustCompile(`(?i)^OL[0-9]+A$`)
)

// ValidationError reports a rejected search or submission parameter.
type ValidationError struct {
	Param   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Param, e.Message)
}

// searchFields are the query parameters the OpenLibrary search API accepts.
// https://openlibrary.org/search/howto
var searchFields = map[string]bool{
	"title":        true,
	"author":       true,
	"subject":      true,
	"publisher":    true,
	"publish_year": true,
	"limit":        true,
	"lang":         true,
}

// ValidWorkID reports whether workID is an acceptable work identifier,
// bare or qualified. Submissions are gated on this before any network call.
func ValidWorkID(workID string) bool {
	trimmed := strings.TrimPrefix(strings.TrimSpace(workID), "/works/")
	return workIDPattern.MatchString(trimmed)
}

// NormalizeWorkKey returns the qualified "/works/OL…W" form of a work id.
func NormalizeWorkKey(workID string) (string, error) {
	if !ValidWorkID(workID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidWorkID, workID)
	}
	trimmed := strings.TrimPrefix(strings.TrimSpace(workID), "/works/")
	return "/works/" + trimmed, nil
}

// SearchURL builds a general search URL for a free-text query. The limit
// is the number of result pages requested from the API, not candidates.
func SearchURL(query string, limit int) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("lang", "en")
	return baseURL + "/search.json?" + params.Encode()
}

// FieldSearchURL builds a parameterized search URL. Unknown field names are
// rejected with a ValidationError; empty values are skipped.
func FieldSearchURL(fields map[string]string, limit int) (string, error) {
	params := url.Values{}
	for key, value := range fields {
		if !searchFields[key] {
			return "", &ValidationError{Param: key, Message: "not a supported search field"}
		}
		if value != "" {
			params.Set(key, value)
		}
	}
	if len(params) == 0 {
		return "", &ValidationError{Param: "fields", Message: "at least one search field is required"}
	}
	params.Set("limit", strconv.Itoa(limit))
	if params.Get("lang") == "" {
		params.Set("lang", "en")
	}
	return baseURL + "/search.json?" + params.Encode(), nil
}

// WorkURL builds the work detail URL for a bare or qualified work id.
func WorkURL(workID string) (string, error) {
	key, err := NormalizeWorkKey(workID)
	if err != nil {
		return "", err
	}
	return baseURL + key + ".json", nil
}

// EditionsURL builds the editions listing URL for a work.
func EditionsURL(workID string) (string, error) {
	key, err := NormalizeWorkKey(workID)
	if err != nil {
		return "", err
	}
	return baseURL + key + "/editions.json", nil
}

// AuthorURL builds the author detail URL for a bare or qualified author id.
func AuthorURL(authorID string) (string, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(authorID), "/authors/")
	if !authorIDPattern.MatchString(trimmed) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAuthorID, authorID)
	}
	return baseURL + "/authors/" + trimmed + ".json", nil
}
