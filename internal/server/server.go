// Package server exposes the recommendation endpoint and the responsible-AI
// admin read API over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/meridian-wealth/renewal-cli/internal/agent"
	"github.com/meridian-wealth/renewal-cli/internal/audit"
	"github.com/meridian-wealth/renewal-cli/internal/config"
	"github.com/meridian-wealth/renewal-cli/internal/model"
	"github.com/meridian-wealth/renewal-cli/internal/profile"
)

// Deps wires the handlers to the pipeline.
type Deps struct {
	Recommender *agent.Recommender
	Store       audit.EventStore
	Stats       *audit.Aggregator
	AdminAPIKey string
}

// NewRouter builds the chi router with CORS, request logging, and the API
// routes. Admin routes require the configured API key when one is set.
func NewRouter(deps Deps, serverCfg config.ServerConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: serverCfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	}))

	r.Get("/health", handleHealth)
	r.Post("/recommendations", handleRecommendations(deps.Recommender))

	r.Route("/admin/responsible-ai", func(r chi.Router) {
		if deps.AdminAPIKey != "" {
			r.Use(apiKeyAuth(deps.AdminAPIKey))
		}
		r.Get("/events", handleListEvents(deps.Store))
		r.Get("/events/{eventID}", handleGetEvent(deps.Store))
		r.Get("/stats", handleStats(deps.Stats))
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)
		zap.L().Info("http request",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func apiKeyAuth(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.Header.Get("X-API-Key") != key {
				writeError(w, http.StatusUnauthorized, "invalid or missing API key")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// recommendRequest is the POST /recommendations body.
type recommendRequest struct {
	ClientID string          `json:"clientId"`
	AlertID  string          `json:"alertId,omitempty"`
	RunID    string          `json:"runId,omitempty"`
	Changes  json.RawMessage `json:"changes,omitempty"`
}

// recommendResponse pairs the persisted run with the compliance narrative.
type recommendResponse struct {
	Run       *model.RecommendationRun `json:"run"`
	Narrative any                      `json:"bestInterestNarrative"`
}

func handleRecommendations(rec *agent.Recommender) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body recommendRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.ClientID == "" {
			writeError(w, http.StatusBadRequest, "clientId is required")
			return
		}

		result, err := rec.Recommend(req.Context(), agent.RecommendRequest{
			ClientID: body.ClientID,
			AlertID:  body.AlertID,
			RunID:    body.RunID,
			Changes:  body.Changes,
		})
		if err != nil {
			var vErr *profile.ValidationError
			if errors.As(err, &vErr) {
				writeError(w, http.StatusUnprocessableEntity, vErr.Error())
				return
			}
			// Generic failure to the caller; detail stays in the audit trail.
			writeError(w, http.StatusInternalServerError, "recommendation run failed")
			return
		}

		writeJSON(w, http.StatusOK, recommendResponse{
			Run:       result.Run,
			Narrative: result.Narrative,
		})
	}
}

func handleListEvents(store audit.EventStore) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		filter, err := parseEventFilter(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		events, err := store.ListEvents(req.Context(), filter)
		if err != nil {
			zap.L().Error("server: list events failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "event query failed")
			return
		}
		if events == nil {
			events = []model.RunEvent{}
		}
		writeJSON(w, http.StatusOK, events)
	}
}

func handleGetEvent(store audit.EventStore) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		eventID := chi.URLParam(req, "eventID")
		event, err := store.GetEvent(req.Context(), eventID)
		if err != nil {
			zap.L().Error("server: get event failed", zap.String("event_id", eventID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "event query failed")
			return
		}
		if event == nil {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		writeJSON(w, http.StatusOK, event)
	}
}

func handleStats(agg *audit.Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		from, to, err := parseStatsWindow(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		stats, err := agg.Stats(req.Context(), from, to)
		if err != nil {
			zap.L().Error("server: stats failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "stats query failed")
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func parseEventFilter(req *http.Request) (audit.EventFilter, error) {
	q := req.URL.Query()
	var filter audit.EventFilter

	if raw := q.Get("agent_id"); raw != "" {
		agentID := model.AgentID(raw)
		if !agentID.Valid() {
			return filter, errBadParam("agent_id")
		}
		filter.AgentID = agentID
	}
	if raw := q.Get("from_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errBadParam("from_date")
		}
		filter.From = &t
	}
	if raw := q.Get("to_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errBadParam("to_date")
		}
		filter.To = &t
	}
	if raw := q.Get("success"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, errBadParam("success")
		}
		filter.Success = &b
	}
	filter.ClientIDScope = q.Get("client_id_scope")
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filter, errBadParam("limit")
		}
		filter.Limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filter, errBadParam("offset")
		}
		filter.Offset = n
	}
	return filter, nil
}

func parseStatsWindow(req *http.Request) (time.Time, time.Time, error) {
	q := req.URL.Query()
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30)
	to := now

	if raw := q.Get("from_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, errBadParam("from_date")
		}
		from = t
	}
	if raw := q.Get("to_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, errBadParam("to_date")
		}
		to = t
	}
	return from, to, nil
}

type paramError struct{ name string }

func (e *paramError) Error() string { return "invalid query parameter: " + e.name }

func errBadParam(name string) error { return &paramError{name: name} }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("server: encode response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
