package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"

	"github.com/yangwenmai/lexdraft/internal/engine"
	"github.com/yangwenmai/lexdraft/internal/model"
	"github.com/yangwenmai/lexdraft/internal/store"
)

// maxRequestBody is the maximum allowed request body size (1 MB).
const maxRequestBody int64 = 1 << 20

// HeaderUserID carries the opaque caller identity used for activity records.
const HeaderUserID = "X-User-ID"

// Generator is the orchestration surface the handlers call.
type Generator interface {
	Generate(ctx context.Context, req model.GenerationRequest) model.GenerationResult
	SearchCases(ctx context.Context, req model.GenerationRequest) model.CaseSearchResult
	SearchStatutes(ctx context.Context, req model.GenerationRequest) model.StatuteSearchResult
	LookupTerm(ctx context.Context, req model.GenerationRequest) model.LookupResult
}

// ActivityRecorder accepts activities without blocking.
type ActivityRecorder interface {
	Record(model.Activity)
}

// Server holds the HTTP handlers and dependencies.
type Server struct {
	gen        Generator
	activities store.ActivityReader
	extractor  engine.ContentExtractor
	recorder   ActivityRecorder
	md         goldmark.Markdown
	logger     *slog.Logger
	now        func() time.Time

	corsOrigin     string
	requestTimeout time.Duration

	mux *http.ServeMux
}

// Option configures a Server.
type Option func(*Server)

// WithExtractor enables the url field on proofread and clause requests.
func WithExtractor(e engine.ContentExtractor) Option {
	return func(s *Server) { s.extractor = e }
}

// WithRecorder sets where template-only drafts are recorded.
func WithRecorder(r ActivityRecorder) Option {
	return func(s *Server) { s.recorder = r }
}

// WithCORSOrigin sets the allowed CORS origin.
func WithCORSOrigin(origin string) Option {
	return func(s *Server) {
		if origin != "" {
			s.corsOrigin = origin
		}
	}
}

// WithRequestTimeout bounds each generation request, backoff included.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) { s.requestTimeout = d }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a new API server.
func New(gen Generator, activities store.ActivityReader, opts ...Option) *Server {
	srv := &Server{
		gen:            gen,
		activities:     activities,
		md:             goldmark.New(),
		logger:         slog.Default(),
		now:            time.Now,
		corsOrigin:     "*",
		requestTimeout: 3 * time.Minute,
		mux:            http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(srv)
	}
	srv.routes()
	return srv
}

// Handler returns the root http.Handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.corsMiddleware(limitBody(jsonContent(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/generate", s.handleGenerate)
	s.mux.HandleFunc("POST /api/generate/mock", s.handleGenerateMock)
	s.mux.HandleFunc("POST /api/proofread", s.handleProofread)
	s.mux.HandleFunc("POST /api/suggest-clauses", s.handleSuggestClauses)
	s.mux.HandleFunc("POST /api/research/cases", s.handleSearchCases)
	s.mux.HandleFunc("POST /api/research/statutes", s.handleSearchStatutes)
	s.mux.HandleFunc("POST /api/research/dictionary", s.handleDictionary)
	s.mux.HandleFunc("GET /api/activity", s.handleListActivity)
	s.mux.HandleFunc("GET /api/activity/stats", s.handleActivityStats)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+HeaderUserID)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// limitBody restricts the request body to maxRequestBody bytes.
func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		next.ServeHTTP(w, r)
	})
}

func jsonContent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// logRequests tags each request with an id and logs its outcome.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// ---------------------------------------------------------------------------
// Response helpers
// ---------------------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// wantHTML reports whether the caller asked for rendered output.
func wantHTML(r *http.Request) bool {
	return r.URL.Query().Get("format") == "html"
}

// renderHTML converts generated markdown-ish text to HTML. Rendering errors
// leave the field empty; the plain text is always returned alongside.
func (s *Server) renderHTML(text string) string {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(text), &buf); err != nil {
		s.logger.Warn("render html failed", "error", err)
		return ""
	}
	return buf.String()
}

func (s *Server) withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	if s.requestTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), s.requestTimeout)
}

func userID(r *http.Request) string {
	return r.Header.Get(HeaderUserID)
}
