package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/fieldtrack/tracker-go/internal/errors"
	"github.com/fieldtrack/tracker-go/internal/middleware"
	"github.com/fieldtrack/tracker-go/internal/service"
)

type AccountHandler struct {
	accountService *service.AccountService
}

func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

func (h *AccountHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)

	return r
}

type createAccountRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type regenerateTokenRequest struct {
	Password string `json:"password"`
}

// POST /v1/accounts creates an account; the token is returned once.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "malformed JSON"))
		return
	}
	if req.Name == "" {
		writeError(w, apperrors.MissingRequired("name"))
		return
	}

	result, err := h.accountService.Create(r.Context(), req.Name, req.Password)
	if err != nil {
		log.Error().Err(err).Msg("failed to create account")
		writeError(w, apperrors.Internal("Failed to create account"))
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// POST /v1/account/token replaces the bearer token for the caller.
func (h *AccountHandler) RegenerateToken(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())

	var req regenerateTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "malformed JSON"))
		return
	}

	result, err := h.accountService.RegenerateToken(r.Context(), account.ID, req.Password)
	if err != nil {
		log.Warn().Err(err).Str("accountId", account.ID).Msg("token regeneration rejected")
		writeError(w, apperrors.Unauthorized("Password verification failed"))
		return
	}

	writeJSON(w, http.StatusOK, result)
}
