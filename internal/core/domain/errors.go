package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrJobNotFound indicates the crawl job does not exist
	ErrJobNotFound = errors.New("crawl job not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrForbidden indicates the caller lacks permission for this action
	ErrForbidden = errors.New("forbidden")

	// ErrSitemapUnavailable indicates the sitemap could not be fetched or parsed.
	// Callers treat this as "zero links found", not as a hard crawl failure.
	ErrSitemapUnavailable = errors.New("sitemap unavailable")

	// ErrNoReadableContent indicates the readability pass found no article content
	ErrNoReadableContent = errors.New("no readable content")

	// ErrDuplicateContent indicates a document with the same content hash
	// already exists for the chatbot
	ErrDuplicateContent = errors.New("duplicate content")

	// ErrMissingConversationRef indicates the chat request carried no
	// conversation reference id
	ErrMissingConversationRef = errors.New("missing conversation reference id")

	// ErrCrawlInProgress indicates a crawl is already running for the chatbot
	ErrCrawlInProgress = errors.New("crawl already in progress")

	// ErrIndexingQuotaExceeded indicates the organization may not index more documents
	ErrIndexingQuotaExceeded = errors.New("indexing quota exceeded")
)

// FetchError reports a failed page fetch. It is per-link and non-fatal:
// the batch executor records it and moves on.
type FetchError struct {
	URL    string
	Status int // non-2xx HTTP status, 0 for transport failures
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
