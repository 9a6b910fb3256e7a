package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/fieldtrack/tracker-go/internal/errors"
	"github.com/fieldtrack/tracker-go/internal/middleware"
	"github.com/fieldtrack/tracker-go/internal/model"
	"github.com/fieldtrack/tracker-go/internal/service"
	"github.com/fieldtrack/tracker-go/internal/util"
)

type ApproachHandler struct {
	approachService *service.ApproachService
}

func NewApproachHandler(approachService *service.ApproachService) *ApproachHandler {
	return &ApproachHandler{approachService: approachService}
}

func (h *ApproachHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Patch("/{approachID}", h.Update)

	return r
}

type updateApproachRequest struct {
	Outcome *string  `json:"outcome"`
	Mood    *int     `json:"mood"`
	Note    *string  `json:"note"`
	Tags    []string `json:"tags"`
}

// PATCH /v1/approaches/{approachID}
func (h *ApproachHandler) Update(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())

	approachID := chi.URLParam(r, "approachID")
	if !util.IsValidUUID(approachID) {
		writeError(w, apperrors.InvalidInput("approachID", "must be a UUID"))
		return
	}

	var req updateApproachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "malformed JSON"))
		return
	}

	params := model.UpdateApproachParams{
		Mood: req.Mood,
		Note: req.Note,
		Tags: req.Tags,
	}
	if req.Outcome != nil {
		outcome := model.Outcome(*req.Outcome)
		params.Outcome = &outcome
	}

	approach, err := h.approachService.Update(r.Context(), account.ID, approachID, params)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, approach)
}
