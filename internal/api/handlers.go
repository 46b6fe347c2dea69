package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/yangwenmai/lexdraft/internal/model"
	"github.com/yangwenmai/lexdraft/internal/orchestrator"
	"github.com/yangwenmai/lexdraft/internal/template"
)

// Input minimums, in runes after trimming.
const (
	minDetails   = 10
	minCaseQuery = 3
	minQuery     = 2
)

// errNoInput is returned by documentText when neither text nor url was sent.
var errNoInput = errors.New("text or url is required")

// ---------------------------------------------------------------------------
// POST /api/generate
// ---------------------------------------------------------------------------

type generateRequest struct {
	CaseType     string `json:"caseType"`
	Details      string `json:"details"`
	Jurisdiction string `json:"jurisdiction"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.CaseType) == "" {
		writeError(w, http.StatusBadRequest, "Valid case type is required")
		return
	}
	if utf8.RuneCountInString(strings.TrimSpace(req.Details)) < minDetails {
		writeError(w, http.StatusBadRequest, "Please provide sufficient case details (minimum 10 characters)")
		return
	}

	ctx, cancel := s.withTimeout(r)
	defer cancel()
	gr := model.NewDraftRequest(req.CaseType, req.Details, req.Jurisdiction).ForUser(userID(r))
	res := s.gen.Generate(ctx, gr)

	meta := generationMeta(res)
	meta["caseType"] = gr.CaseType
	meta["jurisdiction"] = orDefault(gr.Jurisdiction, "General")
	if res.Degraded {
		meta["note"] = orchestrator.NoteTemplateDraft
	}
	body := map[string]any{"draft": res.Text, "metadata": meta}
	if wantHTML(r) {
		body["html"] = s.renderHTML(res.Text)
	}
	writeJSON(w, http.StatusOK, body)
}

func generationMeta(res model.GenerationResult) map[string]any {
	return map[string]any{
		"model":       res.Source,
		"aiGenerated": res.AIGenerated(),
		"attempt":     res.SucceededOnAttempt,
		"timestamp":   res.GeneratedAt.UTC().Format(time.RFC3339),
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// ---------------------------------------------------------------------------
// POST /api/generate/mock
// ---------------------------------------------------------------------------

func (s *Server) handleGenerateMock(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.CaseType) == "" || strings.TrimSpace(req.Details) == "" {
		writeError(w, http.StatusBadRequest, "Case type and details are required")
		return
	}

	now := s.now()
	caseType := strings.TrimSpace(req.CaseType)
	draft := template.Render(caseType, strings.TrimSpace(req.Details), strings.TrimSpace(req.Jurisdiction), now)

	if uid := userID(r); uid != "" && s.recorder != nil {
		a := model.NewActivity(uuid.NewString(), uid, model.ActionTemplateUsed, caseType+" Draft", caseType, "Generated draft from the offline template")
		a.Metadata["jurisdiction"] = req.Jurisdiction
		s.recorder.Record(a)
	}

	body := map[string]any{
		"draft": draft,
		"metadata": map[string]any{
			"model":        "mock-generator",
			"caseType":     caseType,
			"jurisdiction": orDefault(strings.TrimSpace(req.Jurisdiction), "default"),
			"timestamp":    now.UTC().Format(time.RFC3339),
		},
	}
	if wantHTML(r) {
		body["html"] = s.renderHTML(draft)
	}
	writeJSON(w, http.StatusOK, body)
}

// ---------------------------------------------------------------------------
// POST /api/proofread, POST /api/suggest-clauses
// ---------------------------------------------------------------------------

type documentRequest struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// documentText returns inline text, or the readable text of URL when no
// inline text was sent.
func (s *Server) documentText(r *http.Request, req documentRequest) (string, int, error) {
	if strings.TrimSpace(req.Text) != "" {
		return req.Text, 0, nil
	}
	if strings.TrimSpace(req.URL) == "" {
		return "", http.StatusBadRequest, errNoInput
	}
	if s.extractor == nil {
		return "", http.StatusBadRequest, errors.New("url extraction is not enabled")
	}
	content, err := s.extractor.Extract(r.Context(), strings.TrimSpace(req.URL))
	if err != nil {
		s.logger.Warn("document extraction failed", "url", req.URL, "error", err)
		return "", http.StatusUnprocessableEntity, errors.New("could not extract text from url")
	}
	return content.NormalizedText, 0, nil
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request, build func(string) model.GenerationRequest, field string) {
	var req documentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	text, status, err := s.documentText(r, req)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	ctx, cancel := s.withTimeout(r)
	defer cancel()
	res := s.gen.Generate(ctx, build(text).ForUser(userID(r)))

	body := map[string]any{field: res.Text, "metadata": generationMeta(res)}
	if wantHTML(r) {
		body["html"] = s.renderHTML(res.Text)
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleProofread(w http.ResponseWriter, r *http.Request) {
	s.handleDocument(w, r, model.NewProofreadRequest, "result")
}

func (s *Server) handleSuggestClauses(w http.ResponseWriter, r *http.Request) {
	s.handleDocument(w, r, model.NewClauseRequest, "suggestions")
}

// ---------------------------------------------------------------------------
// POST /api/research/*
// ---------------------------------------------------------------------------

type researchRequest struct {
	Query string `json:"query"`
	Term  string `json:"term"`
}

func decodeQuery(w http.ResponseWriter, r *http.Request, minLen int, msg string) (string, bool) {
	var req researchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return "", false
	}
	q := strings.TrimSpace(req.Query)
	if q == "" {
		q = strings.TrimSpace(req.Term)
	}
	if utf8.RuneCountInString(q) < minLen {
		writeError(w, http.StatusBadRequest, msg)
		return "", false
	}
	return q, true
}

func (s *Server) handleSearchCases(w http.ResponseWriter, r *http.Request) {
	q, ok := decodeQuery(w, r, minCaseQuery, "Please provide a search query (minimum 3 characters)")
	if !ok {
		return
	}
	ctx, cancel := s.withTimeout(r)
	defer cancel()
	res := s.gen.SearchCases(ctx, model.NewCaseSearch(q).ForUser(userID(r)))
	writeJSON(w, http.StatusOK, researchBody(len(res.Records), res.Records, res.Source, res.Note))
}

func (s *Server) handleSearchStatutes(w http.ResponseWriter, r *http.Request) {
	q, ok := decodeQuery(w, r, minQuery, "Please provide a search query (minimum 2 characters)")
	if !ok {
		return
	}
	ctx, cancel := s.withTimeout(r)
	defer cancel()
	res := s.gen.SearchStatutes(ctx, model.NewStatuteSearch(q).ForUser(userID(r)))
	writeJSON(w, http.StatusOK, researchBody(len(res.Records), res.Records, res.Source, res.Note))
}

func researchBody(count int, results any, source, note string) map[string]any {
	body := map[string]any{
		"success": true,
		"count":   count,
		"results": results,
		"source":  source,
	}
	if note != "" {
		body["note"] = note
	}
	return body
}

func (s *Server) handleDictionary(w http.ResponseWriter, r *http.Request) {
	term, ok := decodeQuery(w, r, minQuery, "Please provide a legal term to search")
	if !ok {
		return
	}
	ctx, cancel := s.withTimeout(r)
	defer cancel()
	res := s.gen.LookupTerm(ctx, model.NewLookup(term).ForUser(userID(r)))

	body := map[string]any{
		"success":     true,
		"term":        res.Term,
		"definition":  res.Definition,
		"source":      res.Source,
		"aiGenerated": !res.Degraded,
	}
	if res.Note != "" {
		body["note"] = res.Note
	}
	writeJSON(w, http.StatusOK, body)
}

// ---------------------------------------------------------------------------
// GET /api/activity, GET /api/activity/stats
// ---------------------------------------------------------------------------

// requireUser reports the caller id, answering 401 when the request carries
// none. Activity reads are always scoped to one caller.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid := strings.TrimSpace(userID(r))
	if uid == "" {
		writeError(w, http.StatusUnauthorized, HeaderUserID+" header is required")
		return "", false
	}
	return uid, true
}

func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	filter := model.ActivityFilter{
		UserID: uid,
		Action: r.URL.Query().Get("action"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = n
	}

	activities, err := s.activities.ListActivities(r.Context(), filter)
	if err != nil {
		s.logger.Error("list activities", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list activities")
		return
	}
	writeJSON(w, http.StatusOK, activities)
}

func (s *Server) handleActivityStats(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	counts, err := s.activities.CountByAction(r.Context(), uid)
	if err != nil {
		s.logger.Error("count activities", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to count activities")
		return
	}
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": total, "byAction": counts})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
