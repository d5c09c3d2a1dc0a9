package service

import (
	"context"
	"strconv"
	"time"

	"github.com/bankcards/card-service/internal/models"
	"github.com/beevik/etree"
)

// statementPageSize is the batch size used when walking a card's history.
const statementPageSize = 100

// ExportCardStatement renders the card's transaction history as an XML
// statement document, oldest entry first. Authorization matches GetByCard:
// administrative role or card ownership.
func (s *TransactionService) ExportCardStatement(ctx context.Context, cardID int64, requester models.Identity) ([]byte, error) {
	card, err := s.store.FindCardByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if !requester.IsAdmin() && card.UserID != requester.UserID {
		return nil, models.ErrAccessDenied
	}
	dto, err := s.cards.ToDTO(card)
	if err != nil {
		return nil, err
	}

	// The statement always carries the complete history, however long.
	var transactions []models.Transaction
	page := models.PageRequest{Page: 1, Limit: statementPageSize, Sort: "date", Direction: "asc"}
	for {
		batch, total, err := s.store.FindTransactionsByCard(ctx, cardID, page.Normalized("date", "asc"))
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, batch...)
		if len(batch) == 0 || int64(len(transactions)) >= total {
			break
		}
		page.Page++
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	statement := doc.CreateElement("statement")
	statement.CreateAttr("generated_at", time.Now().Format(time.RFC3339))

	cardEl := statement.CreateElement("card")
	cardEl.CreateElement("id").SetText(strconv.FormatInt(dto.ID, 10))
	cardEl.CreateElement("number").SetText(dto.Number)
	cardEl.CreateElement("holder").SetText(dto.Holder)
	cardEl.CreateElement("balance").SetText(dto.Balance.StringFixed(2))

	entries := statement.CreateElement("transactions")
	entries.CreateAttr("count", strconv.Itoa(len(transactions)))
	for i := range transactions {
		t := &transactions[i]
		entry := entries.CreateElement("transaction")
		entry.CreateAttr("id", strconv.FormatInt(t.ID, 10))
		entry.CreateElement("from").SetText(strconv.FormatInt(t.FromCardID, 10))
		entry.CreateElement("to").SetText(strconv.FormatInt(t.ToCardID, 10))
		entry.CreateElement("direction").SetText(statementDirection(t, cardID))
		entry.CreateElement("amount").SetText(t.Amount.StringFixed(2))
		entry.CreateElement("comment").SetText(t.Comment)
		entry.CreateElement("date").SetText(t.Date.Format(time.RFC3339))
	}

	doc.Indent(2)
	return doc.WriteToBytes()
}

func statementDirection(t *models.Transaction, cardID int64) string {
	switch {
	case t.FromCardID == t.ToCardID:
		return "deposit"
	case t.FromCardID == cardID:
		return "out"
	default:
		return "in"
	}
}
