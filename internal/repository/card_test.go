package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bankcards/card-service/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cardRowColumns = []string{
	"id", "number", "number_hash", "holder", "expiry_date", "status",
	"balance", "deleted", "user_id", "created_at", "updated_at",
}

func cardRow(id int64, balance string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(cardRowColumns).AddRow(
		id, "ciphertext", "hash", "ALICE SMITH", now.AddDate(2, 0, 0),
		"ACTIVE", balance, false, int64(1), now, now,
	)
}

func TestCreateCard(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO cards`).
		WithArgs("ciphertext", "hash", "ALICE SMITH", sqlmock.AnyArg(),
			models.CardStatusActive, sqlmock.AnyArg(), false, int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(7), now, now))

	card := &models.Card{
		Number:     "ciphertext",
		NumberHash: "hash",
		Holder:     "ALICE SMITH",
		ExpiryDate: now.AddDate(2, 0, 0),
		Status:     models.CardStatusActive,
		Balance:    decimal.Zero,
		UserID:     1,
	}
	require.NoError(t, repo.CreateCard(context.Background(), card))
	assert.EqualValues(t, 7, card.ID)
	assert.False(t, card.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindCardByID(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT (.+) FROM cards WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(cardRow(7, "123.45"))

	card, err := repo.FindCardByID(context.Background(), 7)
	require.NoError(t, err)
	assert.EqualValues(t, 7, card.ID)
	assert.True(t, card.Balance.Equal(decimal.RequireFromString("123.45")))
	assert.Equal(t, models.CardStatusActive, card.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindCardByIDNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT (.+) FROM cards WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindCardByID(context.Background(), 99)
	assert.ErrorIs(t, err, models.ErrCardNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindCardByIDForUpdateLocksRow(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT (.+) FROM cards WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(7)).
		WillReturnRows(cardRow(7, "0"))

	card, err := repo.FindCardByIDForUpdate(context.Background(), 7)
	require.NoError(t, err)
	assert.EqualValues(t, 7, card.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCardNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`UPDATE cards`).
		WithArgs(int64(99), models.CardStatusBlocked, sqlmock.AnyArg(), false).
		WillReturnError(sql.ErrNoRows)

	card := &models.Card{ID: 99, Status: models.CardStatusBlocked, Balance: decimal.Zero}
	err := repo.UpdateCard(context.Background(), card)
	assert.ErrorIs(t, err, models.ErrCardNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindCardsByUserPaginates(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM cards WHERE user_id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(12)))
	mock.ExpectQuery(`SELECT (.+) FROM cards WHERE user_id = \$1 ORDER BY id ASC LIMIT \$2 OFFSET \$3`).
		WithArgs(int64(1), 5, 10).
		WillReturnRows(cardRow(11, "0"))

	page := models.PageRequest{Page: 3, Limit: 5}.Normalized("id", "asc")
	cards, total, err := repo.FindCardsByUser(context.Background(), 1, page)
	require.NoError(t, err)
	assert.EqualValues(t, 12, total)
	require.Len(t, cards, 1)
	assert.EqualValues(t, 11, cards[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
