// Package orchestrator drives a generation request through the backend
// ladder: primary, one hinted retry of the primary, fallback, then an offline
// degraded answer. Callers never receive a backend error from it.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yangwenmai/lexdraft/internal/engine"
	"github.com/yangwenmai/lexdraft/internal/model"
	"github.com/yangwenmai/lexdraft/internal/parser"
	"github.com/yangwenmai/lexdraft/internal/template"
)

// Sources reported on research results.
const (
	SourceResearch           = "AI-Powered Research"
	SourceDictionary         = "AI-Powered Legal Dictionary"
	SourceResearchFallback   = "Fallback"
	SourceDictionaryFallback = "Fallback Dictionary"
)

// Notes attached to degraded research results.
const (
	NoteCasesUnavailable    = "AI service temporarily unavailable. Please try again."
	NoteStatutesUnavailable = `AI service temporarily unavailable. Try searching for specific sections like "IPC 302" or "Section 138 NI Act"`
	NoteDictionaryFallback  = "AI service temporarily unavailable, showing basic definition."
	NoteTemplateDraft       = "AI service temporarily unavailable, using template"
)

// Sleeper suspends the calling goroutine for d. It must return ctx.Err() as
// soon as ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper.
type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }

type timerSleeper struct{}

func (timerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Auditor receives an activity after a successful remote call. Record must not
// block.
type Auditor interface {
	Record(model.Activity)
}

type noopAuditor struct{}

func (noopAuditor) Record(model.Activity) {}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSleeper replaces the timer used for the hinted backoff wait.
func WithSleeper(s Sleeper) Option {
	return func(o *Orchestrator) { o.sleeper = s }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithLogger sets the logger for attempt diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithAuditor sets the activity sink.
func WithAuditor(a Auditor) Option {
	return func(o *Orchestrator) { o.auditor = a }
}

// WithMaxRetryDelay lowers the longest hinted wait that is honoured. Values
// above engine.MaxRetryDelay are clamped to it.
func WithMaxRetryDelay(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.maxDelay = min(d, engine.MaxRetryDelay)
		}
	}
}

// Orchestrator holds no per-call state and is safe for concurrent use.
type Orchestrator struct {
	backend  engine.Backend
	sel      engine.Selector
	sleeper  Sleeper
	now      func() time.Time
	logger   *slog.Logger
	auditor  Auditor
	maxDelay time.Duration
}

// New creates an Orchestrator around an injected backend capability.
func New(backend engine.Backend, sel engine.Selector, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		backend:  backend,
		sel:      sel,
		sleeper:  timerSleeper{},
		now:      time.Now,
		logger:   slog.Default(),
		auditor:  noopAuditor{},
		maxDelay: engine.MaxRetryDelay,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// outcome is the product of one trip down the ladder.
type outcome struct {
	text     string
	source   string
	attempt  int
	attempts []model.BackendAttempt
}

func (oc outcome) ok() bool { return oc.attempt > 0 }

// run performs at most three remote calls. It returns a zero attempt when
// every call failed or the ladder was abandoned because ctx was done.
func (o *Orchestrator) run(ctx context.Context, req model.GenerationRequest) outcome {
	prompt := buildPrompt(req)
	primary, fallback := o.sel.Primary(), o.sel.Fallback()
	var oc outcome

	if o.abandoned(ctx, &oc, primary) {
		return oc
	}
	text, err := o.call(ctx, &oc, primary, prompt)
	if err == nil {
		return oc.succeed(text, primary)
	}

	if d, ok := engine.RetryDelay(err); ok {
		if d <= o.maxDelay {
			o.logger.Info("waiting before primary retry", "kind", req.Kind, "backend", primary, "retry_after", d)
			if serr := o.sleeper.Sleep(ctx, d); serr != nil {
				o.skip(&oc, primary, serr)
				return oc
			}
			text, err = o.call(ctx, &oc, primary, prompt)
			if err == nil {
				return oc.succeed(text, primary)
			}
		} else {
			o.logger.Warn("retry hint exceeds ceiling, skipping retry", "backend", primary, "retry_after", d, "ceiling", o.maxDelay)
		}
	}

	if o.abandoned(ctx, &oc, fallback) {
		return oc
	}
	text, err = o.call(ctx, &oc, fallback, prompt)
	if err == nil {
		return oc.succeed(text, fallback)
	}
	o.logger.Error("all backends failed", "kind", req.Kind, "attempts", len(oc.attempts), "error", err)
	return oc
}

func (oc *outcome) succeed(text, backendID string) outcome {
	oc.text = text
	oc.source = backendID
	oc.attempt = len(oc.attempts)
	return *oc
}

// call makes one remote attempt and appends it to oc.
func (o *Orchestrator) call(ctx context.Context, oc *outcome, backendID, prompt string) (string, error) {
	started := o.now()
	text, err := o.backend.Invoke(ctx, backendID, prompt)
	if err == nil && strings.TrimSpace(text) == "" {
		err = fmt.Errorf("backend %s: empty text: %w", backendID, model.ErrMalformedResponse)
	}

	a := model.BackendAttempt{BackendID: backendID, StartedAt: started, Outcome: model.OutcomeSuccess}
	if err != nil {
		c := engine.Classify(err)
		a.Outcome = model.OutcomeFailure
		if c.RateLimited() {
			a.Outcome = model.OutcomeRateLimited
		}
		a.RetryAfter = c.RetryAfter
		a.Reason = err.Error()
		o.logger.Warn("backend attempt failed",
			"backend", backendID,
			"attempt", len(oc.attempts)+1,
			"outcome", a.Outcome,
			"retry_after", c.RetryAfter,
			"error", err,
		)
	}
	oc.attempts = append(oc.attempts, a)
	return text, err
}

// abandoned records a skipped attempt and reports true when ctx is done.
func (o *Orchestrator) abandoned(ctx context.Context, oc *outcome, backendID string) bool {
	if err := ctx.Err(); err != nil {
		o.skip(oc, backendID, err)
		return true
	}
	return false
}

func (o *Orchestrator) skip(oc *outcome, backendID string, cause error) {
	o.logger.Info("request cancelled, abandoning backends", "backend", backendID, "error", cause)
	oc.attempts = append(oc.attempts, model.BackendAttempt{
		BackendID: backendID,
		StartedAt: o.now(),
		Outcome:   model.OutcomeSkipped,
		Reason:    cause.Error(),
	})
}

// Generate serves draft, clause and proofread requests. It always returns
// non-empty text; when no backend answered the text comes from the offline
// template or a canned fallback and Degraded is set.
func (o *Orchestrator) Generate(ctx context.Context, req model.GenerationRequest) model.GenerationResult {
	oc := o.run(ctx, req)
	res := model.GenerationResult{
		Attempts:    oc.attempts,
		GeneratedAt: o.now(),
	}
	if oc.ok() {
		res.Text = oc.text
		res.Source = oc.source
		res.SucceededOnAttempt = oc.attempt
		o.audit(req, generationActivity(req, oc))
		return res
	}
	res.Text = o.degradedText(req)
	res.Source = model.SourceTemplate
	res.Degraded = true
	return res
}

func (o *Orchestrator) degradedText(req model.GenerationRequest) string {
	switch req.Kind {
	case model.KindProofread:
		return template.ProofreadFallback()
	case model.KindClauseSuggestion:
		return template.ClauseFallback()
	case model.KindDictionaryLookup:
		def, _ := template.DictionaryFallback(req.Query)
		return def
	case model.KindCaseSearch:
		return NoteCasesUnavailable
	case model.KindStatuteSearch:
		return NoteStatutesUnavailable
	}
	return template.Render(req.CaseType, req.Facts, req.Jurisdiction, o.now())
}

func generationActivity(req model.GenerationRequest, oc outcome) model.Activity {
	a := model.NewActivity(uuid.NewString(), req.UserID, req.Kind.Action(), "", req.CaseType, "")
	switch req.Kind {
	case model.KindDraft:
		a.Title = req.CaseType + " Draft"
		a.Details = "Generated AI-powered legal draft using " + oc.source
		a.Metadata["jurisdiction"] = req.Jurisdiction
	case model.KindProofread:
		a.Title = "Proofread draft"
		a.Details = "Reviewed draft for grammar, terminology and structure"
	case model.KindClauseSuggestion:
		a.Title = "Suggested clauses"
		a.Details = "Generated additional clause suggestions"
	default:
		a.Title = string(req.Kind)
	}
	a.Metadata["aiGenerated"] = true
	a.Metadata["backend"] = oc.source
	a.Metadata["attempt"] = oc.attempt
	return a
}

// SearchCases asks the backend for case law and parses the answer. A total
// backend failure yields an empty, degraded result.
func (o *Orchestrator) SearchCases(ctx context.Context, req model.GenerationRequest) model.CaseSearchResult {
	oc := o.run(ctx, req)
	if !oc.ok() {
		return model.CaseSearchResult{
			Query:    req.Query,
			Records:  []model.CaseRecord{},
			Source:   SourceResearchFallback,
			Degraded: true,
			Note:     NoteCasesUnavailable,
		}
	}
	records := parser.ParseCases(oc.text)
	o.logger.Info("case search parsed", "query", req.Query, "backend", oc.source, "count", len(records))
	o.audit(req, researchActivity(req, len(records), "cases"))
	return model.CaseSearchResult{Query: req.Query, Records: records, Source: SourceResearch}
}

// SearchStatutes asks the backend for statutes and parses the answer. A total
// backend failure yields an empty, degraded result.
func (o *Orchestrator) SearchStatutes(ctx context.Context, req model.GenerationRequest) model.StatuteSearchResult {
	oc := o.run(ctx, req)
	if !oc.ok() {
		return model.StatuteSearchResult{
			Query:    req.Query,
			Records:  []model.StatuteRecord{},
			Source:   SourceResearchFallback,
			Degraded: true,
			Note:     NoteStatutesUnavailable,
		}
	}
	records := parser.ParseStatutes(oc.text)
	o.logger.Info("statute search parsed", "query", req.Query, "backend", oc.source, "count", len(records))
	o.audit(req, researchActivity(req, len(records), "statutes/sections"))
	return model.StatuteSearchResult{Query: req.Query, Records: records, Source: SourceResearch}
}

func researchActivity(req model.GenerationRequest, count int, noun string) model.Activity {
	a := model.NewActivity(uuid.NewString(), req.UserID, req.Kind.Action(),
		"Searched: "+req.Query, "", fmt.Sprintf("Found %d relevant %s", count, noun))
	a.Metadata["searchQuery"] = req.Query
	a.Metadata["resultsCount"] = count
	return a
}

// LookupTerm explains a legal term or section. Without a backend it answers
// from a small built-in dictionary.
func (o *Orchestrator) LookupTerm(ctx context.Context, req model.GenerationRequest) model.LookupResult {
	oc := o.run(ctx, req)
	if !oc.ok() {
		def, _ := template.DictionaryFallback(req.Query)
		return model.LookupResult{
			Term:       req.Query,
			Definition: def,
			Source:     SourceDictionaryFallback,
			Degraded:   true,
			Note:       NoteDictionaryFallback,
		}
	}
	a := model.NewActivity(uuid.NewString(), req.UserID, model.ActionDictionaryLookup,
		"Looked up: "+req.Query, "", "Searched for definition of legal term/section")
	a.Metadata["term"] = req.Query
	o.audit(req, a)
	return model.LookupResult{Term: req.Query, Definition: oc.text, Source: SourceDictionary}
}

// audit hands a to the auditor for attributed requests only.
func (o *Orchestrator) audit(req model.GenerationRequest, a model.Activity) {
	if req.UserID == "" {
		return
	}
	a.CreatedAt = o.now().UTC().Format(time.RFC3339)
	o.auditor.Record(a)
}
