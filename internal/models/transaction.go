package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents one completed money movement. A deposit is modeled
// as a self-transfer (FromCardID == ToCardID, empty comment). Transactions
// are append-only: no update or delete exists anywhere in the system.
type Transaction struct {
	ID         int64
	FromCardID int64
	ToCardID   int64
	Amount     decimal.Decimal
	Comment    string
	Date       time.Time
}

// DTO returns the outward projection of the transaction.
func (t *Transaction) DTO() *TransactionDTO {
	return &TransactionDTO{
		ID:      t.ID,
		From:    t.FromCardID,
		To:      t.ToCardID,
		Amount:  t.Amount,
		Comment: t.Comment,
		Date:    t.Date,
	}
}

// TransactionDTO is the outward projection of a transaction.
type TransactionDTO struct {
	ID      int64           `json:"id"`
	From    int64           `json:"from"`
	To      int64           `json:"to"`
	Amount  decimal.Decimal `json:"amount"`
	Comment string          `json:"comment"`
	Date    time.Time       `json:"date"`
}
