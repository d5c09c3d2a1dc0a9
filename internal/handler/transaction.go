package handler

import (
	"encoding/json"
	"net/http"

	"github.com/bankcards/card-service/internal/middleware"
	"github.com/shopspring/decimal"
)

type depositRequest struct {
	Card   int64           `json:"card"`
	Amount decimal.Decimal `json:"amount"`
}

type transferRequest struct {
	From    int64           `json:"from"`
	To      int64           `json:"to"`
	Amount  decimal.Decimal `json:"amount"`
	Comment string          `json:"comment"`
}

// Deposit handles depositing funds onto a card. Admin only.
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		h.unauthorized(w)
		return
	}
	if !identity.IsAdmin() {
		h.forbidden(w)
		return
	}

	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}
	transaction, err := h.transactions.Deposit(r.Context(), req.Card, req.Amount)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, transaction)
}

// Transfer handles a peer-to-peer transfer between the caller's cards.
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		h.unauthorized(w)
		return
	}

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}
	if len(req.Comment) > 100 {
		h.badRequest(w, "comment must be at most 100 characters")
		return
	}
	transaction, err := h.transactions.Transfer(r.Context(), req.From, req.To, req.Amount, req.Comment, identity)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, transaction)
}

// GetOwnTransactions lists transactions touching any of the caller's cards.
func (h *Handler) GetOwnTransactions(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		h.unauthorized(w)
		return
	}
	page := pageFromRequest(r)
	transactions, total, err := h.transactions.GetByUser(r.Context(), identity.UserID, identity, page)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, pageResponse(transactions, total, page))
}

// GetCardTransactions lists transactions for one card.
func (h *Handler) GetCardTransactions(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		h.unauthorized(w)
		return
	}
	cardID, err := pathID(r, "cardId")
	if err != nil {
		h.badRequest(w, "invalid card id")
		return
	}
	page := pageFromRequest(r)
	transactions, total, err := h.transactions.GetByCard(r.Context(), cardID, identity, page)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, pageResponse(transactions, total, page))
}

// GetUserTransactions lists transactions for one user's cards.
func (h *Handler) GetUserTransactions(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		h.unauthorized(w)
		return
	}
	userID, err := pathID(r, "userId")
	if err != nil {
		h.badRequest(w, "invalid user id")
		return
	}
	page := pageFromRequest(r)
	transactions, total, err := h.transactions.GetByUser(r.Context(), userID, identity, page)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, pageResponse(transactions, total, page))
}

// ExportCardStatement renders a card's history as an XML statement.
func (h *Handler) ExportCardStatement(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		h.unauthorized(w)
		return
	}
	cardID, err := pathID(r, "cardId")
	if err != nil {
		h.badRequest(w, "invalid card id")
		return
	}
	statement, err := h.transactions.ExportCardStatement(r.Context(), cardID, identity)
	if err != nil {
		h.respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(statement); err != nil {
		h.log.Errorf("Failed to write statement: %v", err)
	}
}
