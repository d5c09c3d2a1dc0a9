package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/bankcards/card-service/internal/models"
	"github.com/bankcards/card-service/internal/service"
	"github.com/bankcards/card-service/internal/utils"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Handler translates HTTP requests into service calls and service errors
// into status codes.
type Handler struct {
	cards        *service.CardService
	transactions *service.TransactionService
	users        *service.UserService
	auth         *service.AuthService
	log          *logrus.Logger
}

// NewHandler initializes a new handler
func NewHandler(cards *service.CardService, transactions *service.TransactionService, users *service.UserService, auth *service.AuthService, log *logrus.Logger) *Handler {
	return &Handler{cards: cards, transactions: transactions, users: users, auth: auth, log: log}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			h.log.Errorf("Failed to encode response: %v", err)
		}
	}
}

// respondError maps domain errors onto status codes. Unexpected errors are
// logged and surfaced as a generic server fault: no internals, no stack
// information, ever.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var stateErr *models.CardStateError
	switch {
	case errors.Is(err, models.ErrCardNotFound),
		errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrTransactionNotFound):
		h.respondJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrAccessDenied):
		h.respondJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrInvalidCredentials):
		h.respondJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrUsernameTaken):
		h.respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.As(err, &stateErr),
		errors.Is(err, models.ErrInsufficientFunds),
		errors.Is(err, models.ErrInvalidAmount):
		h.respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, utils.ErrCryptoFailure):
		h.log.Errorf("Crypto failure: %v", err)
		h.respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	default:
		h.log.Errorf("Unhandled error: %v", err)
		h.respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func (h *Handler) badRequest(w http.ResponseWriter, message string) {
	h.respondJSON(w, http.StatusBadRequest, errorResponse{Error: message})
}

func (h *Handler) forbidden(w http.ResponseWriter) {
	h.respondJSON(w, http.StatusForbidden, errorResponse{Error: models.ErrAccessDenied.Error()})
}

func (h *Handler) unauthorized(w http.ResponseWriter) {
	h.respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
}

// pageFromRequest reads pagination and sorting query parameters. Values are
// clamped later by PageRequest.Normalized.
func pageFromRequest(r *http.Request) models.PageRequest {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return models.PageRequest{
		Page:      page,
		Limit:     limit,
		Sort:      q.Get("sort"),
		Direction: q.Get("direction"),
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)[name], 10, 64)
}

func pageResponse(items any, total int64, page models.PageRequest) models.Page {
	normalized := page.Normalized("", "")
	return models.Page{Items: items, Total: total, Page: normalized.Page, Limit: normalized.Limit}
}
