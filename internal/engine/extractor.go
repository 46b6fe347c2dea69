package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	nurl "net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-shiori/go-readability"
)

const (
	// minTextLength rejects pages that are most likely login or cookie walls.
	minTextLength = 100
	// maxRetries is the number of extraction attempts before giving up.
	maxRetries = 3
	// maxBodySize is the maximum HTTP response body size (5MB).
	maxBodySize = 5 * 1024 * 1024
)

// HTTPExtractor fetches a published document (judgment, order, agreement) and
// extracts its readable text with go-readability.
type HTTPExtractor struct {
	client        *http.Client
	maxTextLength int
	backoff       time.Duration
}

// ExtractorOption configures an HTTPExtractor.
type ExtractorOption func(*HTTPExtractor)

// WithMaxTextLength caps the number of runes kept from a document.
func WithMaxTextLength(n int) ExtractorOption {
	return func(e *HTTPExtractor) {
		if n > 0 {
			e.maxTextLength = n
		}
	}
}

// WithExtractBackoff sets the base delay between extraction attempts.
func WithExtractBackoff(d time.Duration) ExtractorOption {
	return func(e *HTTPExtractor) { e.backoff = d }
}

// NewHTTPExtractor creates a new HTTP-based document extractor.
func NewHTTPExtractor(opts ...ExtractorOption) *HTTPExtractor {
	e := &HTTPExtractor{
		client:        &http.Client{Timeout: 30 * time.Second},
		maxTextLength: 15000,
		backoff:       2 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract fetches url and extracts the main content with automatic retry.
func (e *HTTPExtractor) Extract(ctx context.Context, url string) (*ExtractedContent, error) {
	parsed, err := nurl.Parse(url)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("unsupported document url %q", url)
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * e.backoff):
			}
		}

		content, err := e.doExtract(ctx, parsed)
		if err == nil {
			return content, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", maxRetries, lastErr)
}

func (e *HTTPExtractor) doExtract(ctx context.Context, u *nurl.URL) (*ExtractedContent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; lexdraft/1.0)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, u)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(string(body)), u)
	if err != nil {
		return nil, fmt.Errorf("readability: %w", err)
	}

	text := normalizeText(article.TextContent)
	if n := utf8.RuneCountInString(text); n < minTextLength {
		return nil, fmt.Errorf("extracted content too short (%d chars), possibly blocked or empty page", n)
	}
	text = TruncateRunes(text, e.maxTextLength)

	var publishDate string
	if article.PublishedTime != nil && !article.PublishedTime.IsZero() {
		publishDate = article.PublishedTime.Format(time.RFC3339)
	}

	return &ExtractedContent{
		Title:          article.Title,
		NormalizedText: text,
		Meta: ContentMeta{
			Author:      article.Byline,
			PublishDate: publishDate,
			WordCount:   len(strings.Fields(text)),
		},
	}, nil
}

var multiSpace = regexp.MustCompile(`[ \t]+`)
var multiNewline = regexp.MustCompile(`\n{3,}`)

func normalizeText(s string) string {
	s = strings.TrimSpace(s)
	s = multiSpace.ReplaceAllString(s, " ")
	s = multiNewline.ReplaceAllString(s, "\n\n")
	return s
}

// TruncateRunes truncates s to maxRunes runes (Unicode-safe).
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxRunes]) + "\n... [truncated]"
}
