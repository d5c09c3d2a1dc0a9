package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CardStatus is the lifecycle status of a card. EXPIRED is never stored:
// it is derived from the expiry date at read time and takes precedence
// over the stored status.
type CardStatus string

const (
	CardStatusActive  CardStatus = "ACTIVE"
	CardStatusBlocked CardStatus = "BLOCKED"
	CardStatusExpired CardStatus = "EXPIRED"
)

// Card represents a bank card as persisted. Number holds the ciphertext of
// the 16-digit card number and NumberHash its one-way fingerprint; the
// plaintext number never reaches this struct.
type Card struct {
	ID         int64
	Number     string
	NumberHash string
	Holder     string
	ExpiryDate time.Time
	Status     CardStatus
	Balance    decimal.Decimal
	Deleted    bool
	UserID     int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsExpired reports whether the card's expiry date is strictly before the
// calendar date of now.
func (c *Card) IsExpired(now time.Time) bool {
	return dateBefore(c.ExpiryDate, now)
}

// EffectiveStatus derives the externally visible status of a card: a past
// expiry date overrides whatever status is stored.
func EffectiveStatus(stored CardStatus, expiryDate, now time.Time) CardStatus {
	if dateBefore(expiryDate, now) {
		return CardStatusExpired
	}
	return stored
}

func dateBefore(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}

// CardDTO is the outward projection of a card. Number is always masked.
type CardDTO struct {
	ID         int64           `json:"id"`
	Number     string          `json:"number"`
	Holder     string          `json:"holder"`
	ExpiryDate string          `json:"expiry_date"`
	Status     CardStatus      `json:"status"`
	Balance    decimal.Decimal `json:"balance"`
	Deleted    bool            `json:"deleted"`
	UserID     int64           `json:"user_id"`
}
