package service

import (
	"context"
	"time"

	"github.com/bankcards/card-service/internal/models"
)

// Store is the persistence contract the services consume. Implementations
// must support transactional composition: InTx runs fn against a store
// bound to a single database transaction with at least read-committed
// isolation, committing when fn returns nil and rolling back otherwise.
// Absent rows surface as models.ErrCardNotFound / models.ErrUserNotFound.
type Store interface {
	InTx(ctx context.Context, fn func(Store) error) error

	CreateCard(ctx context.Context, card *models.Card) error
	UpdateCard(ctx context.Context, card *models.Card) error
	FindCardByID(ctx context.Context, id int64) (*models.Card, error)
	// FindCardByIDForUpdate loads the card with a row lock held until the
	// surrounding transaction ends.
	FindCardByIDForUpdate(ctx context.Context, id int64) (*models.Card, error)
	CardNumberHashExists(ctx context.Context, hash string) (bool, error)
	FindCardsByUser(ctx context.Context, userID int64, page models.PageRequest) ([]models.Card, int64, error)
	FindAllCards(ctx context.Context, page models.PageRequest) ([]models.Card, int64, error)
	FindCardsExpiringBetween(ctx context.Context, from, to time.Time) ([]models.Card, error)

	CreateTransaction(ctx context.Context, transaction *models.Transaction) error
	FindTransactionsByCard(ctx context.Context, cardID int64, page models.PageRequest) ([]models.Transaction, int64, error)
	FindTransactionsByUser(ctx context.Context, userID int64, page models.PageRequest) ([]models.Transaction, int64, error)

	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	UserExistsByUsername(ctx context.Context, username string) (bool, error)
	FindAllUsers(ctx context.Context, page models.PageRequest) ([]models.User, int64, error)
}
