package bill

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	maxDocumentSize = 50 << 20 // 50MB
	maxURLLength    = 2000
)

// Fetcher retrieves a remote document by URL
type Fetcher interface {
	// Fetch downloads the document and returns its data and content type
	Fetch(url string) ([]byte, string, error)
}

// ValidateDocumentURL checks that a document URL is usable before any
// network traffic happens.
func ValidateDocumentURL(url string) error {
	if url == "" {
		return fmt.Errorf("document URL is required")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("document URL must start with http:// or https://")
	}
	if len(url) > maxURLLength {
		return fmt.Errorf("document URL is too long (max %d characters)", maxURLLength)
	}
	return nil
}

// HTTPFetcher implements Fetcher over plain HTTP with a size cap
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a new HTTPFetcher
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Fetch downloads a document, refusing anything over the size cap
func (f *HTTPFetcher) Fetch(url string) ([]byte, string, error) {
	resp, err := f.client.Get(url)
	if err != nil {
		return nil, "", fmt.Errorf("fetching document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetching document: unexpected status %d", resp.StatusCode)
	}

	// Read one byte past the cap so an oversized body is detectable
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("reading document body: %w", err)
	}
	if len(data) > maxDocumentSize {
		return nil, "", fmt.Errorf("document is too large (max %d bytes)", maxDocumentSize)
	}

	return data, resp.Header.Get("Content-Type"), nil
}
