package model

import (
	"encoding/json"
	"strconv"
)

// Placeholders used when a parsed block lacks a field.
const (
	PlaceholderCitation    = "Citation not available"
	PlaceholderYear        = "N/A"
	PlaceholderCourt       = "Court not specified"
	PlaceholderSummary     = "Summary not available"
	PlaceholderRelevance   = "General"
	PlaceholderSections    = "Multiple sections"
	PlaceholderDescription = "Legal provision under Indian law"
	PlaceholderKeywords    = "Indian Law"
	PlaceholderURL         = "#"
)

// Year is a judgment year that may be unknown. Unknown years render as "N/A".
type Year struct {
	Value int
	Known bool
}

// KnownYear returns a Year holding y.
func KnownYear(y int) Year {
	return Year{Value: y, Known: true}
}

func (y Year) String() string {
	if !y.Known {
		return PlaceholderYear
	}
	return strconv.Itoa(y.Value)
}

// MarshalJSON encodes a known year as a number and an unknown one as "N/A".
func (y Year) MarshalJSON() ([]byte, error) {
	if !y.Known {
		return json.Marshal(PlaceholderYear)
	}
	return []byte(strconv.Itoa(y.Value)), nil
}

// UnmarshalJSON accepts either a number or the "N/A" placeholder.
func (y *Year) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*y = KnownYear(n)
		return nil
	}
	*y = Year{}
	return nil
}

// CaseRecord is one case-law hit extracted from backend text.
type CaseRecord struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Citation  string `json:"citation"`
	Year      Year   `json:"year"`
	Court     string `json:"court"`
	Summary   string `json:"summary"`
	Relevance string `json:"relevance"`
	URL       string `json:"url"`
}

// StatuteRecord is one statute entry extracted from backend text.
type StatuteRecord struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Sections    string `json:"sections"`
	Description string `json:"description"`
	Keywords    string `json:"keywords"`
	URL         string `json:"url"`
}
