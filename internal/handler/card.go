package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/bankcards/card-service/internal/middleware"
	"github.com/bankcards/card-service/internal/models"
)

type createCardRequest struct {
	Holder     string `json:"holder"`
	ExpiryDate string `json:"expiry_date"`
	User       int64  `json:"user"`
}

type createCardResponse struct {
	Number string          `json:"number"`
	Card   *models.CardDTO `json:"card"`
}

// CreateCard handles card creation. Admin only. The response carries the
// plaintext number; it is never retrievable again.
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		h.unauthorized(w)
		return
	}
	if !identity.IsAdmin() {
		h.forbidden(w)
		return
	}

	var req createCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}
	if req.Holder == "" || len(req.Holder) > 100 {
		h.badRequest(w, "holder must be 1-100 characters")
		return
	}
	expiryDate, err := time.Parse("2006-01-02", req.ExpiryDate)
	if err != nil {
		h.badRequest(w, "expiry_date must be formatted as YYYY-MM-DD")
		return
	}
	if !expiryDate.After(time.Now()) {
		h.badRequest(w, "expiry_date must be in the future")
		return
	}

	number, card, err := h.cards.Create(r.Context(), req.Holder, expiryDate, req.User)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, createCardResponse{Number: number, Card: card})
}

// GetOwnCards lists the caller's cards.
func (h *Handler) GetOwnCards(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		h.unauthorized(w)
		return
	}
	page := pageFromRequest(r)
	cards, total, err := h.cards.GetByUser(r.Context(), identity.UserID, page)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, pageResponse(cards, total, page))
}

// GetAllCards lists all cards. Admin only.
func (h *Handler) GetAllCards(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		h.unauthorized(w)
		return
	}
	if !identity.IsAdmin() {
		h.forbidden(w)
		return
	}
	page := pageFromRequest(r)
	cards, total, err := h.cards.GetAll(r.Context(), page)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, pageResponse(cards, total, page))
}

// GetCard returns one card. Admin only.
func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		h.unauthorized(w)
		return
	}
	if !identity.IsAdmin() {
		h.forbidden(w)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.badRequest(w, "invalid card id")
		return
	}
	card, err := h.cards.GetByID(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, card)
}

// ActivateCard handles card activation. Admin only.
func (h *Handler) ActivateCard(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		h.unauthorized(w)
		return
	}
	if !identity.IsAdmin() {
		h.forbidden(w)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.badRequest(w, "invalid card id")
		return
	}
	card, err := h.cards.Activate(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, card)
}

// BlockCard handles card blocking. The service allows it for the
// administrative role or the card owner.
func (h *Handler) BlockCard(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		h.unauthorized(w)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.badRequest(w, "invalid card id")
		return
	}
	card, err := h.cards.Block(r.Context(), id, identity)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, card)
}

// DeleteCard handles card soft-deletion. Admin only.
func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		h.unauthorized(w)
		return
	}
	if !identity.IsAdmin() {
		h.forbidden(w)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.badRequest(w, "invalid card id")
		return
	}
	card, err := h.cards.Delete(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, card)
}
