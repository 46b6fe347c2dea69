package model

import "strings"

// Kind identifies what a GenerationRequest asks the backend for.
type Kind string

// Request kinds
const (
	KindDraft            Kind = "draft"
	KindClauseSuggestion Kind = "clause_suggestion"
	KindProofread        Kind = "proofread"
	KindCaseSearch       Kind = "case_search"
	KindStatuteSearch    Kind = "statute_search"
	KindDictionaryLookup Kind = "dictionary_lookup"
)

// DraftClass reports whether failures of this kind must degrade to usable text.
func (k Kind) DraftClass() bool {
	switch k {
	case KindDraft, KindClauseSuggestion, KindProofread:
		return true
	}
	return false
}

// ResearchClass reports whether failures of this kind may degrade to an empty result.
func (k Kind) ResearchClass() bool {
	switch k {
	case KindCaseSearch, KindStatuteSearch, KindDictionaryLookup:
		return true
	}
	return false
}

// Action returns the activity action recorded after a successful request of this kind.
func (k Kind) Action() string {
	switch k {
	case KindDraft:
		return ActionGeneratedDraft
	case KindClauseSuggestion:
		return ActionClauseSuggestion
	case KindProofread:
		return ActionProofreading
	case KindCaseSearch:
		return ActionCaseLawSearch
	case KindStatuteSearch:
		return ActionStatuteSearch
	case KindDictionaryLookup:
		return ActionDictionaryLookup
	}
	return string(k)
}

// GenerationRequest is a single caller invocation. Values are built by the
// New* constructors and not mutated afterwards.
type GenerationRequest struct {
	Kind         Kind   `json:"kind"`
	CaseType     string `json:"case_type,omitempty"`
	Facts        string `json:"facts,omitempty"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
	Text         string `json:"text,omitempty"`
	Query        string `json:"query,omitempty"`
	UserID       string `json:"user_id,omitempty"`
}

// NewDraftRequest creates a request for a full legal draft.
func NewDraftRequest(caseType, facts, jurisdiction string) GenerationRequest {
	return GenerationRequest{
		Kind:         KindDraft,
		CaseType:     strings.TrimSpace(caseType),
		Facts:        strings.TrimSpace(facts),
		Jurisdiction: strings.TrimSpace(jurisdiction),
	}
}

// NewProofreadRequest creates a request to review an existing draft.
func NewProofreadRequest(text string) GenerationRequest {
	return GenerationRequest{Kind: KindProofread, Text: text}
}

// NewClauseRequest creates a request for additional clause suggestions.
func NewClauseRequest(text string) GenerationRequest {
	return GenerationRequest{Kind: KindClauseSuggestion, Text: text}
}

// NewCaseSearch creates a case-law research request.
func NewCaseSearch(query string) GenerationRequest {
	return GenerationRequest{Kind: KindCaseSearch, Query: strings.TrimSpace(query)}
}

// NewStatuteSearch creates a statute research request.
func NewStatuteSearch(query string) GenerationRequest {
	return GenerationRequest{Kind: KindStatuteSearch, Query: strings.TrimSpace(query)}
}

// NewLookup creates a legal dictionary request.
func NewLookup(term string) GenerationRequest {
	return GenerationRequest{Kind: KindDictionaryLookup, Query: strings.TrimSpace(term)}
}

// ForUser returns a copy of r attributed to userID for auditing.
func (r GenerationRequest) ForUser(userID string) GenerationRequest {
	r.UserID = userID
	return r
}
