package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/312Evan/frcstats/internal/application/query"
	"github.com/312Evan/frcstats/internal/domain/shared"
	"github.com/312Evan/frcstats/internal/domain/team"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":    "frcstats API",
		"version": "v1",
		"endpoints": map[string]string{
			"health":      "/health",
			"team_review": "/api/v1/teams/{team}/review",
			"predict":     "/api/v1/predict",
			"leaderboard": "/api/v1/leaderboard",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"uptime": s.Uptime().String(),
	})
}

// handleLive is the liveness probe: the process is up.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// API HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleTeamReview serves the full season review for one team.
// GET /api/v1/teams/{team}/review?season=2024
func (s *Server) handleTeamReview(w http.ResponseWriter, r *http.Request) {
	teamKey := r.PathValue("team")
	// A bare number is accepted as a convenience alias for the full key.
	if number, err := strconv.Atoi(teamKey); err == nil {
		teamKey = team.Key(number)
	}

	q := query.TeamReviewQuery{
		TeamKey: teamKey,
		Season:  getQueryParamInt(r, "season", 0),
	}

	result, err := s.deps.TeamReviewHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// predictRequest is the POST /api/v1/predict body.
type predictRequest struct {
	RedTeams  []string `json:"red_teams"`
	BlueTeams []string `json:"blue_teams"`
	Season    int      `json:"season"`
}

// handlePredictMatch forecasts one hypothetical matchup.
// POST /api/v1/predict
func (s *Server) handlePredictMatch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<16))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "failed to read request body")
		return
	}

	var req predictRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}

	q := query.PredictMatchQuery{
		RedTeams:  req.RedTeams,
		BlueTeams: req.BlueTeams,
		Season:    req.Season,
	}

	result, err := s.deps.PredictMatchHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetLeaderboard serves the persisted ranked snapshot.
// GET /api/v1/leaderboard?limit=50
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := query.GetLeaderboardQuery{
		Limit: getQueryParamInt(r, "limit", 0),
	}

	result, err := s.deps.GetLeaderboardHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError maps domain error kinds onto HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, shared.ErrValidation), shared.IsParse(err):
		writeJSONError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsInsufficientData(err):
		writeJSONError(w, http.StatusUnprocessableEntity, "insufficient_data", err.Error())
	case errors.Is(err, shared.ErrRateLimited):
		w.Header().Set("Retry-After", "60")
		writeJSONError(w, http.StatusTooManyRequests, "rate_limited", "upstream rate limit reached, please retry later")
	case shared.IsUpstream(err):
		writeJSONError(w, http.StatusBadGateway, "upstream_unavailable", "an upstream data source is unavailable")
	default:
		s.logger.Error("unhandled error",
			"error", err,
			"path", r.URL.Path,
			"request_id", getRequestID(r.Context()),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_server_error", "An unexpected error occurred")
	}
}
