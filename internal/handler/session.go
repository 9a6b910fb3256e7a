package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/fieldtrack/tracker-go/internal/errors"
	"github.com/fieldtrack/tracker-go/internal/middleware"
	"github.com/fieldtrack/tracker-go/internal/model"
	"github.com/fieldtrack/tracker-go/internal/service"
	"github.com/fieldtrack/tracker-go/internal/util"
)

type SessionHandler struct {
	sessionService  *service.SessionService
	approachService *service.ApproachService
}

func NewSessionHandler(sessionService *service.SessionService, approachService *service.ApproachService) *SessionHandler {
	return &SessionHandler{
		sessionService:  sessionService,
		approachService: approachService,
	}
}

func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/active", h.GetActive)
	r.Post("/", h.Start)
	r.Get("/", h.List)
	r.Get("/{sessionID}", h.Get)
	r.Patch("/{sessionID}", h.Update)
	r.Post("/{sessionID}/end", h.End)
	r.Post("/{sessionID}/reactivate", h.Reactivate)
	r.Post("/{sessionID}/abandon", h.Abandon)
	r.Post("/{sessionID}/approaches", h.CreateApproach)

	return r
}

type startSessionRequest struct {
	Goal       *int    `json:"goal"`
	Location   *string `json:"location"`
	Intentions *string `json:"intentions"`
}

type updateSessionRequest struct {
	Goal     *int    `json:"goal"`
	Location *string `json:"location"`
}

type createApproachRequest struct {
	Outcome   *string    `json:"outcome"`
	Mood      *int       `json:"mood"`
	Note      *string    `json:"note"`
	Tags      []string   `json:"tags"`
	Timestamp *time.Time `json:"timestamp"`
	Latitude  *float64   `json:"lat"`
	Longitude *float64   `json:"lng"`
}

// GET /v1/sessions/active
func (h *SessionHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())

	result, err := h.sessionService.GetActive(r.Context(), account.ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to get active session")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// POST /v1/sessions
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())

	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "malformed JSON"))
		return
	}

	session, err := h.sessionService.Start(r.Context(), account.ID, model.CreateSessionParams{
		Goal:       req.Goal,
		Location:   req.Location,
		Intentions: req.Intentions,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

// GET /v1/sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())
	page := ParsePagination(r)

	sessions, total, err := h.sessionService.List(r.Context(), account.ID, page.Limit, page.Offset)
	if err != nil {
		log.Error().Err(err).Msg("failed to list sessions")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"total":    total,
		"limit":    page.Limit,
		"offset":   page.Offset,
	})
}

// GET /v1/sessions/{sessionID}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())

	sessionID := sessionIDParam(w, r)
	if sessionID == "" {
		return
	}

	result, err := h.sessionService.Get(r.Context(), account.ID, sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// sessionIDParam extracts and validates the sessionID path parameter,
// writing a 400 and returning "" when it is not a UUID.
func sessionIDParam(w http.ResponseWriter, r *http.Request) string {
	sessionID := chi.URLParam(r, "sessionID")
	if !util.IsValidUUID(sessionID) {
		writeError(w, apperrors.InvalidInput("sessionID", "must be a UUID"))
		return ""
	}
	return sessionID
}

// PATCH /v1/sessions/{sessionID}
func (h *SessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())

	sessionID := sessionIDParam(w, r)
	if sessionID == "" {
		return
	}

	var req updateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "malformed JSON"))
		return
	}

	session, err := h.sessionService.Update(r.Context(), account.ID, sessionID, model.UpdateSessionParams{
		Goal:     req.Goal,
		Location: req.Location,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// POST /v1/sessions/{sessionID}/end
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())

	sessionID := sessionIDParam(w, r)
	if sessionID == "" {
		return
	}

	result, err := h.sessionService.End(r.Context(), account.ID, sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// POST /v1/sessions/{sessionID}/reactivate
func (h *SessionHandler) Reactivate(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())

	sessionID := sessionIDParam(w, r)
	if sessionID == "" {
		return
	}

	result, err := h.sessionService.Reactivate(r.Context(), account.ID, sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// POST /v1/sessions/{sessionID}/abandon
func (h *SessionHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())

	sessionID := sessionIDParam(w, r)
	if sessionID == "" {
		return
	}

	session, err := h.sessionService.Abandon(r.Context(), account.ID, sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// POST /v1/sessions/{sessionID}/approaches
func (h *SessionHandler) CreateApproach(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())

	sessionID := sessionIDParam(w, r)
	if sessionID == "" {
		return
	}

	var req createApproachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "malformed JSON"))
		return
	}

	params := model.CreateApproachParams{
		Mood:      req.Mood,
		Note:      req.Note,
		Tags:      req.Tags,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}
	if req.Outcome != nil {
		outcome := model.Outcome(*req.Outcome)
		params.Outcome = &outcome
	}
	if req.Timestamp != nil {
		params.Timestamp = *req.Timestamp
	}

	approach, err := h.approachService.Create(r.Context(), account.ID, sessionID, params)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, approach)
}
