package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bankcards/card-service/internal/models"
	"github.com/bankcards/card-service/internal/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// maxUniquenessAttempts bounds the generate-plus-fingerprint-check loop in
// Create. A collision among random 16-digit numbers is already astronomically
// unlikely; a bound this size only ever trips on a broken store.
const maxUniquenessAttempts = 100

// CardService manages the card lifecycle: creation, activation, blocking,
// soft deletion and projection. The encryptor is passed in explicitly, never
// resolved ambiently.
type CardService struct {
	store      Store
	enc        *utils.Encryptor
	hmacSecret string
	log        *logrus.Logger
}

// NewCardService initializes a new card service
func NewCardService(store Store, enc *utils.Encryptor, hmacSecret string, log *logrus.Logger) *CardService {
	return &CardService{store: store, enc: enc, hmacSecret: hmacSecret, log: log}
}

// Create issues a new card for the given owner. The plaintext number is
// returned exactly once, here; only its ciphertext and fingerprint are
// stored.
func (s *CardService) Create(ctx context.Context, holder string, expiryDate time.Time, userID int64) (string, *models.CardDTO, error) {
	if _, err := s.store.FindUserByID(ctx, userID); err != nil {
		return "", nil, err
	}

	var number, hash string
	for attempt := 0; ; attempt++ {
		if attempt == maxUniquenessAttempts {
			return "", nil, utils.ErrGenerationExhausted
		}
		candidate, err := utils.GenerateCardNumber()
		if err != nil {
			return "", nil, err
		}
		candidateHash := utils.CardFingerprint(candidate, s.hmacSecret)
		exists, err := s.store.CardNumberHashExists(ctx, candidateHash)
		if err != nil {
			return "", nil, err
		}
		if !exists {
			number, hash = candidate, candidateHash
			break
		}
	}

	encrypted, err := s.enc.Encrypt(number)
	if err != nil {
		return "", nil, fmt.Errorf("failed to encrypt card number: %w", err)
	}

	card := &models.Card{
		Number:     encrypted,
		NumberHash: hash,
		Holder:     holder,
		ExpiryDate: expiryDate,
		Status:     models.CardStatusActive,
		Balance:    decimal.Zero,
		Deleted:    false,
		UserID:     userID,
	}
	if err := s.store.CreateCard(ctx, card); err != nil {
		return "", nil, err
	}

	dto, err := s.ToDTO(card)
	if err != nil {
		return "", nil, err
	}
	s.log.Infof("Card %d created for user %d", card.ID, userID)
	return number, dto, nil
}

// GetByID returns the projection of one card.
func (s *CardService) GetByID(ctx context.Context, id int64) (*models.CardDTO, error) {
	card, err := s.store.FindCardByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.ToDTO(card)
}

// GetAll returns one page of all card projections.
func (s *CardService) GetAll(ctx context.Context, page models.PageRequest) ([]models.CardDTO, int64, error) {
	cards, total, err := s.store.FindAllCards(ctx, page.Normalized("id", "asc"))
	if err != nil {
		return nil, 0, err
	}
	dtos, err := s.toDTOs(cards)
	if err != nil {
		return nil, 0, err
	}
	return dtos, total, nil
}

// GetByUser returns one page of a user's card projections.
func (s *CardService) GetByUser(ctx context.Context, userID int64, page models.PageRequest) ([]models.CardDTO, int64, error) {
	cards, total, err := s.store.FindCardsByUser(ctx, userID, page.Normalized("id", "asc"))
	if err != nil {
		return nil, 0, err
	}
	dtos, err := s.toDTOs(cards)
	if err != nil {
		return nil, 0, err
	}
	return dtos, total, nil
}

// Activate sets the stored status of a card to ACTIVE. Deleted and expired
// cards cannot be activated.
func (s *CardService) Activate(ctx context.Context, id int64) (*models.CardDTO, error) {
	card, err := s.store.FindCardByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if card.Deleted {
		return nil, s.stateError(card, models.ErrCardDeleted)
	}
	if card.IsExpired(time.Now()) {
		return nil, s.stateError(card, models.ErrCardExpired)
	}
	card.Status = models.CardStatusActive
	if err := s.store.UpdateCard(ctx, card); err != nil {
		return nil, err
	}
	s.log.Infof("Card %d activated", card.ID)
	return s.ToDTO(card)
}

// Block sets the stored status of a card to BLOCKED. The requester must
// hold the administrative role or own the card.
func (s *CardService) Block(ctx context.Context, id int64, requester models.Identity) (*models.CardDTO, error) {
	card, err := s.store.FindCardByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if card.Deleted {
		return nil, s.stateError(card, models.ErrCardDeleted)
	}
	if card.IsExpired(time.Now()) {
		return nil, s.stateError(card, models.ErrCardExpired)
	}
	if !requester.IsAdmin() && card.UserID != requester.UserID {
		return nil, models.ErrAccessDenied
	}
	card.Status = models.CardStatusBlocked
	if err := s.store.UpdateCard(ctx, card); err != nil {
		return nil, err
	}
	s.log.Infof("Card %d blocked by user %d", card.ID, requester.UserID)
	return s.ToDTO(card)
}

// Delete soft-deletes a card. Balance and transaction history are retained.
// Deleting an already-deleted card succeeds silently.
func (s *CardService) Delete(ctx context.Context, id int64) (*models.CardDTO, error) {
	card, err := s.store.FindCardByID(ctx, id)
	if err != nil {
		return nil, err
	}
	card.Deleted = true
	if err := s.store.UpdateCard(ctx, card); err != nil {
		return nil, err
	}
	s.log.Infof("Card %d deleted", card.ID)
	return s.ToDTO(card)
}

// ExpiringSoon returns projections of non-deleted cards whose expiry date
// falls within the given number of days from today.
func (s *CardService) ExpiringSoon(ctx context.Context, days int) ([]models.CardDTO, error) {
	now := time.Now()
	cards, err := s.store.FindCardsExpiringBetween(ctx, now, now.AddDate(0, 0, days))
	if err != nil {
		return nil, err
	}
	return s.toDTOs(cards)
}

// AssertUsable fails when the card cannot take part in a money movement:
// deleted, expired, and blocked, checked in that precedence order.
func (s *CardService) AssertUsable(card *models.Card, now time.Time) error {
	switch {
	case card.Deleted:
		return s.stateError(card, models.ErrCardDeleted)
	case card.IsExpired(now):
		return s.stateError(card, models.ErrCardExpired)
	case card.Status == models.CardStatusBlocked:
		return s.stateError(card, models.ErrCardBlocked)
	}
	return nil
}

// ToDTO builds the outward projection: the number decrypted only to mask
// it, the status derived so a past expiry overrides the stored value.
func (s *CardService) ToDTO(card *models.Card) (*models.CardDTO, error) {
	number, err := s.enc.Decrypt(card.Number)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt card %d number: %w", card.ID, err)
	}
	return &models.CardDTO{
		ID:         card.ID,
		Number:     utils.MaskCardNumber(number),
		Holder:     card.Holder,
		ExpiryDate: card.ExpiryDate.Format("2006-01-02"),
		Status:     models.EffectiveStatus(card.Status, card.ExpiryDate, time.Now()),
		Balance:    card.Balance,
		Deleted:    card.Deleted,
		UserID:     card.UserID,
	}, nil
}

func (s *CardService) toDTOs(cards []models.Card) ([]models.CardDTO, error) {
	dtos := make([]models.CardDTO, 0, len(cards))
	for i := range cards {
		dto, err := s.ToDTO(&cards[i])
		if err != nil {
			return nil, err
		}
		dtos = append(dtos, *dto)
	}
	return dtos, nil
}

// stateError attaches the masked number to a card state sentinel. Masking
// is best-effort: a card that cannot be decrypted is reported without it.
func (s *CardService) stateError(card *models.Card, sentinel error) error {
	number := ""
	if plain, err := s.enc.Decrypt(card.Number); err == nil {
		number = utils.MaskCardNumber(plain)
	}
	return &models.CardStateError{Err: sentinel, Number: number}
}
