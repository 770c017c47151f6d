// Package api serves the quiz, related content and click endpoints.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/okian/toolscout/internal/domain/model"
	"github.com/okian/toolscout/internal/domain/types"
	"github.com/okian/toolscout/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	QuizDependencies
	RelatedDependencies
	ClickDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	quizHandler    *QuizHandler
	relatedHandler *RelatedHandler
	clicksHandler  *ClicksHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		quizHandler:    NewQuizHandler(deps),
		relatedHandler: NewRelatedHandler(deps),
		clicksHandler:  NewClicksHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /quiz", MetricsMiddleware(s.quizHandler.HandleQuiz, "quiz"))
	mux.HandleFunc("GET /related/{slug}", MetricsMiddleware(s.relatedHandler.HandleRelated, "related"))
	mux.HandleFunc("POST /clicks", MetricsMiddleware(s.clicksHandler.HandlePostClick, "clicks"))
	mux.HandleFunc("GET /clicks/stats", MetricsMiddleware(s.clicksHandler.HandleStats, "clicks_stats"))
	mux.HandleFunc("GET /clicks/global", MetricsMiddleware(s.clicksHandler.HandleGlobal, "clicks_global"))
}

// Handler returns a mux with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status. Server-side failures are logged and their
// details withheld from the client.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logger.Get().Named("api").Error(ctx, "request failed", logger.Error(err), logger.String("code", code))
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}

// QuizDependencies runs the questionnaire matcher.
type QuizDependencies interface {
	Recommend(ctx context.Context, answers model.QuizAnswers, email string) (model.QuizResult, error)
}

// RelatedDependencies ranks related posts.
type RelatedDependencies interface {
	Related(ctx context.Context, slug string) ([]model.RelatedPost, error)
}

// ClickDependencies ingests and aggregates clicks.
type ClickDependencies interface {
	RecordClick(ctx context.Context, eventID, entityID string, at time.Time) (model.ClickAck, error)
	ClickStats(ctx context.Context, rng types.Range) (model.ClickReport, error)
	GlobalClicks(ctx context.Context) (model.GlobalCounts, error)
}
