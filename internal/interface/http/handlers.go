package http

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/michi-haensler/EcoTrack/internal/application/command"
	"github.com/michi-haensler/EcoTrack/internal/application/query"
	"github.com/michi-haensler/EcoTrack/internal/domain/challenge"
	"github.com/michi-haensler/EcoTrack/internal/domain/profile"
	"github.com/michi-haensler/EcoTrack/internal/domain/scoring"
	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "Unknown endpoint")
		return
	}

	info := map[string]interface{}{
		"name":    "EcoTrack API",
		"version": "v1",
		"endpoints": map[string]string{
			"health":      "/health",
			"leaderboard": "/api/v1/leaderboard",
			"actions":     "/api/v1/actions",
			"activities":  "/api/v1/activities",
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

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// USER HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type registerUserRequest struct {
	UserID  string `json:"user_id"`
	ClassID string `json:"class_id,omitempty"`
}

type userResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ClassID     string    `json:"class_id,omitempty"`
	TotalPoints int64     `json:"total_points"`
	Level       string    `json:"level"`
	CreatedAt   time.Time `json:"created_at"`
}

func newUserResponse(u *profile.EcoUser) userResponse {
	return userResponse{
		ID:          u.ID.String(),
		UserID:      u.UserID.String(),
		ClassID:     u.ClassID.String(),
		TotalPoints: u.TotalPoints,
		Level:       u.Level.DisplayName(),
		CreatedAt:   u.CreatedAt,
	}
}

// handleRegisterUser handles POST /api/v1/users
func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := s.deps.RegisterUserHandler.Handle(r.Context(), command.RegisterUserCommand{
		UserID:  shared.UserID(req.UserID),
		ClassID: shared.ClassID(req.ClassID),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newUserResponse(u))
}

// handleGetUserProfile handles GET /api/v1/users/{id}
// The id is the eco user ID; pass ?by=external to look up by the
// external identity instead.
func (s *Server) handleGetUserProfile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	q := query.GetUserProfileQuery{EcoUserID: shared.EcoUserID(id)}
	if r.URL.Query().Get("by") == "external" {
		q = query.GetUserProfileQuery{UserID: shared.UserID(id)}
	}

	result, err := s.deps.GetUserProfileHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetUserActivities handles GET /api/v1/users/{id}/activities
func (s *Server) handleGetUserActivities(w http.ResponseWriter, r *http.Request) {
	q := query.GetUserActivitiesQuery{
		EcoUserID: shared.EcoUserID(r.PathValue("id")),
		Limit:     getQueryParamInt(r, "limit", 0),
	}

	var ok bool
	if q.From, ok = parseDateParam(w, r, "from"); !ok {
		return
	}
	if q.To, ok = parseDateParam(w, r, "to"); !ok {
		return
	}

	result, err := s.deps.GetUserActivitiesHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetPointsLedger handles GET /api/v1/users/{id}/ledger
func (s *Server) handleGetPointsLedger(w http.ResponseWriter, r *http.Request) {
	q := query.GetPointsLedgerQuery{
		EcoUserID: shared.EcoUserID(r.PathValue("id")),
		Limit:     getQueryParamInt(r, "limit", 0),
	}

	result, err := s.deps.GetPointsLedgerHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type logActivityRequest struct {
	EcoUserID    string  `json:"eco_user_id"`
	ActionID     string  `json:"action_id"`
	Quantity     float64 `json:"quantity"`
	ActivityDate string  `json:"activity_date,omitempty"`
	Source       string  `json:"source,omitempty"`
	ChallengeID  string  `json:"challenge_id,omitempty"`
}

// handleLogActivity handles POST /api/v1/activities
func (s *Server) handleLogActivity(w http.ResponseWriter, r *http.Request) {
	var req logActivityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cmd := command.LogActivityCommand{
		EcoUserID:   shared.EcoUserID(req.EcoUserID),
		ActionID:    shared.ActionID(req.ActionID),
		Quantity:    req.Quantity,
		Source:      scoring.Source(req.Source),
		ChallengeID: shared.ChallengeID(req.ChallengeID),
	}
	if req.ActivityDate != "" {
		date, err := shared.ParseDate(req.ActivityDate)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_date", "activity_date must be YYYY-MM-DD")
			return
		}
		cmd.ActivityDate = date
	}

	entry, err := s.deps.LogActivityHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

// handleGetActionCatalog handles GET /api/v1/actions
func (s *Server) handleGetActionCatalog(w http.ResponseWriter, r *http.Request) {
	q := query.GetActionCatalogQuery{
		Category: scoring.Category(r.URL.Query().Get("category")),
	}

	result, err := s.deps.GetActionCatalogHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetLeaderboard handles GET /api/v1/leaderboard
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	s.handleLeaderboardInternal(w, r, "")
}

// handleGetLeaderboardByClass handles GET /api/v1/leaderboard/{class}
func (s *Server) handleGetLeaderboardByClass(w http.ResponseWriter, r *http.Request) {
	s.handleLeaderboardInternal(w, r, r.PathValue("class"))
}

// handleLeaderboardInternal is the internal implementation for leaderboard handlers.
func (s *Server) handleLeaderboardInternal(w http.ResponseWriter, r *http.Request, class string) {
	q := query.GetLeaderboardQuery{
		ClassID: shared.ClassID(class),
		Limit:   getQueryParamInt(r, "limit", 0),
	}

	result, err := s.deps.GetLeaderboardHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// CHALLENGE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListChallenges handles GET /api/v1/classes/{class}/challenges
func (s *Server) handleListChallenges(w http.ResponseWriter, r *http.Request) {
	q := query.ListChallengesQuery{
		ClassID:    shared.ClassID(r.PathValue("class")),
		ActiveOnly: getQueryParamBool(r, "active"),
	}

	result, err := s.deps.ListChallengesHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetChallengeProgress handles GET /api/v1/challenges/{id}/progress/{user}
func (s *Server) handleGetChallengeProgress(w http.ResponseWriter, r *http.Request) {
	q := query.GetChallengeProgressQuery{
		ChallengeID: shared.ChallengeID(r.PathValue("id")),
		EcoUserID:   shared.EcoUserID(r.PathValue("user")),
	}

	result, err := s.deps.GetChallengeProgressHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type createChallengeRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	GoalValue   float64 `json:"goal_value"`
	GoalUnit    string  `json:"goal_unit"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	ClassID     string  `json:"class_id"`
	CreatedBy   string  `json:"created_by"`
	BonusPoints int     `json:"bonus_points,omitempty"`
}

type challengeResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	GoalValue   float64 `json:"goal_value"`
	GoalUnit    string  `json:"goal_unit"`
	Status      string  `json:"status"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	ClassID     string  `json:"class_id"`
	BonusPoints int     `json:"bonus_points"`
}

func newChallengeResponse(c *challenge.Challenge) challengeResponse {
	return challengeResponse{
		ID:          c.ID.String(),
		Title:       c.Title,
		GoalValue:   c.GoalValue,
		GoalUnit:    string(c.GoalUnit),
		Status:      string(c.Status),
		StartDate:   c.StartDate.String(),
		EndDate:     c.EndDate.String(),
		ClassID:     c.ClassID.String(),
		BonusPoints: c.BonusPoints,
	}
}

// handleCreateChallenge handles POST /api/v1/admin/challenges
func (s *Server) handleCreateChallenge(w http.ResponseWriter, r *http.Request) {
	var req createChallengeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	start, err := shared.ParseDate(req.StartDate)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_date", "start_date must be YYYY-MM-DD")
		return
	}
	end, err := shared.ParseDate(req.EndDate)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_date", "end_date must be YYYY-MM-DD")
		return
	}

	c, err := s.deps.ManageChallengeHandler.Create(r.Context(), command.CreateChallengeCommand{
		Title:       req.Title,
		Description: req.Description,
		GoalValue:   req.GoalValue,
		GoalUnit:    challenge.GoalUnit(req.GoalUnit),
		StartDate:   start,
		EndDate:     end,
		ClassID:     shared.ClassID(req.ClassID),
		CreatedBy:   shared.UserID(req.CreatedBy),
		BonusPoints: req.BonusPoints,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newChallengeResponse(c))
}

// handleActivateChallenge handles POST /api/v1/admin/challenges/{id}/activate
func (s *Server) handleActivateChallenge(w http.ResponseWriter, r *http.Request) {
	c, err := s.deps.ManageChallengeHandler.Activate(r.Context(), shared.ChallengeID(r.PathValue("id")))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newChallengeResponse(c))
}

// handleCloseChallenge handles POST /api/v1/admin/challenges/{id}/close
func (s *Server) handleCloseChallenge(w http.ResponseWriter, r *http.Request) {
	c, err := s.deps.ManageChallengeHandler.Close(r.Context(), shared.ChallengeID(r.PathValue("id")))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newChallengeResponse(c))
}

type adjustPointsRequest struct {
	Delta       int    `json:"delta"`
	Description string `json:"description"`
}

// handleAdjustPoints handles POST /api/v1/admin/users/{id}/adjust
func (s *Server) handleAdjustPoints(w http.ResponseWriter, r *http.Request) {
	var req adjustPointsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := s.deps.AdjustPointsHandler.Handle(r.Context(), command.AdjustPointsCommand{
		EcoUserID:   shared.EcoUserID(r.PathValue("id")),
		Delta:       req.Delta,
		Description: req.Description,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "adjusted"})
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST / ERROR HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// decodeJSON decodes a JSON request body and writes a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request_body", "Request body is not valid JSON")
		return false
	}
	return true
}

// writeDomainError maps domain errors to HTTP statuses. Optimistic-lock
// conflicts surface as 409 only when the command handler has already
// exhausted its retries.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsAlreadyExists(err):
		writeJSONError(w, http.StatusConflict, "already_exists", err.Error())
	case shared.IsInvalidState(err):
		writeJSONError(w, http.StatusConflict, "invalid_state", err.Error())
	case shared.IsConflict(err):
		writeJSONError(w, http.StatusConflict, "conflict", err.Error())
	default:
		s.logger.Error("request failed",
			"error", err,
			"path", r.URL.Path,
			"request_id", getRequestID(r.Context()),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

// parseDateParam parses an optional YYYY-MM-DD query parameter.
func parseDateParam(w http.ResponseWriter, r *http.Request, key string) (shared.Date, bool) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return shared.Date{}, true
	}
	date, err := shared.ParseDate(value)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_date", key+" must be YYYY-MM-DD")
		return shared.Date{}, false
	}
	return date, true
}
