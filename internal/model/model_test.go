package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestKindClasses(t *testing.T) {
	tests := []struct {
		kind     Kind
		draft    bool
		research bool
	}{
		{KindDraft, true, false},
		{KindClauseSuggestion, true, false},
		{KindProofread, true, false},
		{KindCaseSearch, false, true},
		{KindStatuteSearch, false, true},
		{KindDictionaryLookup, false, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.DraftClass(); got != tt.draft {
				t.Errorf("DraftClass() = %v, want %v", got, tt.draft)
			}
			if got := tt.kind.ResearchClass(); got != tt.research {
				t.Errorf("ResearchClass() = %v, want %v", got, tt.research)
			}
		})
	}
}

func TestNewDraftRequest_Trims(t *testing.T) {
	req := NewDraftRequest("  Civil ", " facts here ", " Delhi ")
	if req.Kind != KindDraft {
		t.Errorf("Kind = %q, want %q", req.Kind, KindDraft)
	}
	if req.CaseType != "Civil" || req.Facts != "facts here" || req.Jurisdiction != "Delhi" {
		t.Errorf("fields not trimmed: %+v", req)
	}
}

func TestForUser_DoesNotMutateOriginal(t *testing.T) {
	req := NewCaseSearch("bail")
	attributed := req.ForUser("u-1")
	if req.UserID != "" {
		t.Errorf("original UserID = %q, want empty", req.UserID)
	}
	if attributed.UserID != "u-1" {
		t.Errorf("UserID = %q, want %q", attributed.UserID, "u-1")
	}
}

func TestYear_JSON(t *testing.T) {
	b, _ := json.Marshal(CaseRecord{Year: KnownYear(1973)})
	if !strings.Contains(string(b), `"year":1973`) {
		t.Errorf("known year not encoded as number: %s", b)
	}

	b, _ = json.Marshal(CaseRecord{})
	if !strings.Contains(string(b), `"year":"N/A"`) {
		t.Errorf("unknown year not encoded as N/A: %s", b)
	}

	var rec CaseRecord
	if err := json.Unmarshal([]byte(`{"year":"N/A"}`), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.Year.String() != PlaceholderYear {
		t.Errorf("Year = %q, want %q", rec.Year.String(), PlaceholderYear)
	}
}

func TestNewActivity_DefaultType(t *testing.T) {
	a := NewActivity("a-1", "u-1", ActionCaseLawSearch, "Searched: bail", "", "")
	if a.Type != "General" {
		t.Errorf("Type = %q, want General", a.Type)
	}
	if a.CreatedAt == "" {
		t.Error("CreatedAt should not be empty")
	}
}

func TestConfigurationError(t *testing.T) {
	var err error = &ConfigurationError{Field: "PRIMARY_BACKEND", Reason: "must not be empty"}
	var ce *ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatal("errors.As failed")
	}
	if err.Error() != "configuration: PRIMARY_BACKEND: must not be empty" {
		t.Errorf("Error() = %q", err.Error())
	}
}
