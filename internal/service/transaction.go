package service

import (
	"context"
	"time"

	"github.com/bankcards/card-service/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Notifier delivers best-effort transaction notifications. Failures must
// never affect the financial result; the engine only logs them.
type Notifier interface {
	SendTransactionNotification(to, username, maskedNumber string, amount decimal.Decimal, kind string) error
}

// TransactionService performs deposits and transfers and serves transaction
// history. Every balance mutation runs inside one store transaction together
// with the record insert: either all of it persists or none does.
type TransactionService struct {
	store    Store
	cards    *CardService
	notifier Notifier
	log      *logrus.Logger
}

// NewTransactionService initializes a new transaction service. notifier may
// be nil when notifications are not configured.
func NewTransactionService(store Store, cards *CardService, notifier Notifier, log *logrus.Logger) *TransactionService {
	return &TransactionService{store: store, cards: cards, notifier: notifier, log: log}
}

// Deposit credits a card and records the movement as a self-transfer with
// an empty comment.
func (s *TransactionService) Deposit(ctx context.Context, cardID int64, amount decimal.Decimal) (*models.TransactionDTO, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	var (
		dto   *models.TransactionDTO
		owner int64
	)
	err := s.store.InTx(ctx, func(st Store) error {
		card, err := st.FindCardByIDForUpdate(ctx, cardID)
		if err != nil {
			return err
		}
		now := time.Now()
		if err := s.cards.AssertUsable(card, now); err != nil {
			return err
		}
		card.Balance = card.Balance.Add(amount)
		if err := st.UpdateCard(ctx, card); err != nil {
			return err
		}
		transaction := &models.Transaction{
			FromCardID: card.ID,
			ToCardID:   card.ID,
			Amount:     amount,
			Comment:    "",
			Date:       now,
		}
		if err := st.CreateTransaction(ctx, transaction); err != nil {
			return err
		}
		dto = transaction.DTO()
		owner = card.UserID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Deposit of %s to card %d recorded as transaction %d", amount.StringFixed(2), cardID, dto.ID)
	s.notify(ctx, owner, cardID, amount, "Deposit")
	return dto, nil
}

// Transfer moves money between two cards owned by the requester. Card rows
// are locked in ascending id order so concurrent opposite-direction
// transfers cannot deadlock.
func (s *TransactionService) Transfer(ctx context.Context, fromID, toID int64, amount decimal.Decimal, comment string, requester models.Identity) (*models.TransactionDTO, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	var dto *models.TransactionDTO
	err := s.store.InTx(ctx, func(st Store) error {
		from, to, err := lockCardPair(ctx, st, fromID, toID)
		if err != nil {
			return err
		}
		if from.UserID != requester.UserID || to.UserID != requester.UserID {
			return models.ErrAccessDenied
		}
		now := time.Now()
		if err := s.cards.AssertUsable(from, now); err != nil {
			return err
		}
		if err := s.cards.AssertUsable(to, now); err != nil {
			return err
		}
		if from.Balance.LessThan(amount) {
			return models.ErrInsufficientFunds
		}
		if from.ID != to.ID {
			from.Balance = from.Balance.Sub(amount)
			to.Balance = to.Balance.Add(amount)
			if err := st.UpdateCard(ctx, from); err != nil {
				return err
			}
			if err := st.UpdateCard(ctx, to); err != nil {
				return err
			}
		}
		transaction := &models.Transaction{
			FromCardID: fromID,
			ToCardID:   toID,
			Amount:     amount,
			Comment:    comment,
			Date:       now,
		}
		if err := st.CreateTransaction(ctx, transaction); err != nil {
			return err
		}
		dto = transaction.DTO()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Transfer of %s from card %d to card %d recorded as transaction %d",
		amount.StringFixed(2), fromID, toID, dto.ID)
	s.notify(ctx, requester.UserID, fromID, amount, "Transfer")
	return dto, nil
}

// GetByCard returns one page of transactions touching the card. The
// requester must hold the administrative role or own the card.
func (s *TransactionService) GetByCard(ctx context.Context, cardID int64, requester models.Identity, page models.PageRequest) ([]models.TransactionDTO, int64, error) {
	card, err := s.store.FindCardByID(ctx, cardID)
	if err != nil {
		return nil, 0, err
	}
	if !requester.IsAdmin() && card.UserID != requester.UserID {
		return nil, 0, models.ErrAccessDenied
	}
	transactions, total, err := s.store.FindTransactionsByCard(ctx, cardID, page.Normalized("date", "desc"))
	if err != nil {
		return nil, 0, err
	}
	return toTransactionDTOs(transactions), total, nil
}

// GetByUser returns one page of transactions where either endpoint card
// belongs to the user. The requester must hold the administrative role or
// be the queried user.
func (s *TransactionService) GetByUser(ctx context.Context, userID int64, requester models.Identity, page models.PageRequest) ([]models.TransactionDTO, int64, error) {
	if !requester.IsAdmin() && userID != requester.UserID {
		return nil, 0, models.ErrAccessDenied
	}
	transactions, total, err := s.store.FindTransactionsByUser(ctx, userID, page.Normalized("date", "desc"))
	if err != nil {
		return nil, 0, err
	}
	return toTransactionDTOs(transactions), total, nil
}

// lockCardPair loads both cards with row locks, always locking the lower id
// first regardless of transfer direction.
func lockCardPair(ctx context.Context, st Store, fromID, toID int64) (from, to *models.Card, err error) {
	firstID, secondID := fromID, toID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}
	first, err := st.FindCardByIDForUpdate(ctx, firstID)
	if err != nil {
		return nil, nil, err
	}
	if firstID == secondID {
		return first, first, nil
	}
	second, err := st.FindCardByIDForUpdate(ctx, secondID)
	if err != nil {
		return nil, nil, err
	}
	if firstID == fromID {
		return first, second, nil
	}
	return second, first, nil
}

// validateAmount enforces the boundary contract: strictly positive, at most
// two meaningful fractional digits. Trailing zeros are fine; the engine
// itself never rounds.
func validateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) || !amount.Equal(amount.Truncate(2)) {
		return models.ErrInvalidAmount
	}
	return nil
}

func toTransactionDTOs(transactions []models.Transaction) []models.TransactionDTO {
	dtos := make([]models.TransactionDTO, 0, len(transactions))
	for i := range transactions {
		dtos = append(dtos, *transactions[i].DTO())
	}
	return dtos
}

// notify emails the card owner about a completed movement. Best effort:
// runs after commit and only logs failures.
func (s *TransactionService) notify(ctx context.Context, userID, cardID int64, amount decimal.Decimal, kind string) {
	if s.notifier == nil {
		return
	}
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil || user.Email == "" {
		return
	}
	dto, err := s.cards.GetByID(ctx, cardID)
	if err != nil {
		return
	}
	if err := s.notifier.SendTransactionNotification(user.Email, user.Username, dto.Number, amount, kind); err != nil {
		s.log.Errorf("Failed to send %s notification to user %d: %v", kind, userID, err)
	}
}
