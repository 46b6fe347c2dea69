package model

import "time"

// Activity action constants
const (
	ActionGeneratedDraft   = "Generated Draft"
	ActionProofreading     = "Proofreading"
	ActionClauseSuggestion = "Clause Suggestion"
	ActionCaseLawSearch    = "Case Law Search"
	ActionStatuteSearch    = "Statute Search"
	ActionDictionaryLookup = "Dictionary Lookup"
	ActionTemplateUsed     = "Template Used"
)

// Activity is an audit event recorded after a generation call.
type Activity struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id,omitempty"`
	Action    string         `json:"action"`
	Title     string         `json:"title"`
	Type      string         `json:"type"`
	Details   string         `json:"details,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt string         `json:"created_at"`
}

// NewActivity creates an Activity stamped with the current UTC time.
func NewActivity(id, userID, action, title, typ, details string) Activity {
	if typ == "" {
		typ = "General"
	}
	return Activity{
		ID:        id,
		UserID:    userID,
		Action:    action,
		Title:     title,
		Type:      typ,
		Details:   details,
		Metadata:  map[string]any{},
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// ActivityFilter holds query parameters for listing activities.
type ActivityFilter struct {
	UserID string
	Action string
	Limit  int
}
