package engine

import "context"

// ModelClient abstracts one provider's completion API. Implementations make a
// single attempt per call; retry policy belongs to the orchestrator.
type ModelClient interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// Backend invokes a generative backend by its identifier. Errors may embed a
// retry-after hint that RetryDelay can extract.
type Backend interface {
	Invoke(ctx context.Context, backendID, prompt string) (string, error)
}

// ContentExtractor abstracts web document extraction.
type ContentExtractor interface {
	Extract(ctx context.Context, url string) (*ExtractedContent, error)
}

// ExtractedContent holds the result of content extraction.
type ExtractedContent struct {
	Title          string      `json:"title,omitempty"`
	NormalizedText string      `json:"normalized_text"`
	Meta           ContentMeta `json:"content_meta"`
}

// ContentMeta holds metadata about the extracted content.
type ContentMeta struct {
	Author      string `json:"author,omitempty"`
	PublishDate string `json:"publish_date,omitempty"`
	WordCount   int    `json:"word_count"`
}
