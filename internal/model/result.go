package model

import "time"

// SourceTemplate is the Source of a result produced without any backend.
const SourceTemplate = "template"

// Attempt outcome constants
const (
	OutcomeSuccess     = "success"
	OutcomeRateLimited = "rate_limited"
	OutcomeFailure     = "failure"
	OutcomeSkipped     = "skipped"
)

// BackendAttempt records one remote call made while serving a request.
type BackendAttempt struct {
	BackendID  string        `json:"backend_id"`
	StartedAt  time.Time     `json:"started_at"`
	Outcome    string        `json:"outcome"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
	Reason     string        `json:"reason,omitempty"`
}

// GenerationResult is what the orchestrator hands back for draft-class requests.
// SucceededOnAttempt is the 1-based position of the successful remote attempt
// and 0 when the text came from the template engine.
type GenerationResult struct {
	Text               string           `json:"text"`
	Source             string           `json:"source"`
	SucceededOnAttempt int              `json:"succeeded_on_attempt"`
	Degraded           bool             `json:"degraded"`
	Attempts           []BackendAttempt `json:"attempts,omitempty"`
	GeneratedAt        time.Time        `json:"generated_at"`
}

// AIGenerated reports whether a remote backend produced the text.
func (r GenerationResult) AIGenerated() bool {
	return !r.Degraded
}

// CaseSearchResult is the outcome of a case-law search.
type CaseSearchResult struct {
	Query    string       `json:"query"`
	Records  []CaseRecord `json:"results"`
	Source   string       `json:"source"`
	Degraded bool         `json:"degraded"`
	Note     string       `json:"note,omitempty"`
}

// StatuteSearchResult is the outcome of a statute search.
type StatuteSearchResult struct {
	Query    string          `json:"query"`
	Records  []StatuteRecord `json:"results"`
	Source   string          `json:"source"`
	Degraded bool            `json:"degraded"`
	Note     string          `json:"note,omitempty"`
}

// LookupResult is the outcome of a dictionary lookup.
type LookupResult struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
	Source     string `json:"source"`
	Degraded   bool   `json:"degraded"`
	Note       string `json:"note,omitempty"`
}
