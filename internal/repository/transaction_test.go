package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bankcards/card-service/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTransaction(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO transactions`).
		WithArgs(int64(1), int64(2), sqlmock.AnyArg(), "rent", now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	transaction := &models.Transaction{
		FromCardID: 1,
		ToCardID:   2,
		Amount:     decimal.RequireFromString("300.00"),
		Comment:    "rent",
		Date:       now,
	}
	require.NoError(t, repo.CreateTransaction(context.Background(), transaction))
	assert.EqualValues(t, 5, transaction.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindTransactionsByCard(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM transactions WHERE from_card_id = \$1 OR to_card_id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(2)))
	mock.ExpectQuery(`SELECT (.+) FROM transactions\s+WHERE from_card_id = \$1 OR to_card_id = \$1 ORDER BY date DESC LIMIT \$2 OFFSET \$3`).
		WithArgs(int64(7), 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "from_card_id", "to_card_id", "amount", "comment", "date"}).
			AddRow(int64(2), int64(7), int64(9), "50.00", "", now).
			AddRow(int64(1), int64(7), int64(7), "100.00", "", now.Add(-time.Hour)))

	page := models.PageRequest{}.Normalized("date", "desc")
	transactions, total, err := repo.FindTransactionsByCard(context.Background(), 7, page)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, transactions, 2)
	assert.EqualValues(t, 2, transactions[0].ID)
	assert.True(t, transactions[0].Amount.Equal(decimal.RequireFromString("50.00")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindTransactionsByUserUsesQualifiedSort(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM transactions t`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(`JOIN cards ct ON ct\.id = t\.to_card_id\s+WHERE cf\.user_id = \$1 OR ct\.user_id = \$1 ORDER BY t\.id ASC LIMIT \$2 OFFSET \$3`).
		WithArgs(int64(1), 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "from_card_id", "to_card_id", "amount", "comment", "date"}).
			AddRow(int64(1), int64(7), int64(7), "100.00", "", now))

	page := models.PageRequest{Sort: "id", Direction: "asc"}.Normalized("date", "desc")
	transactions, total, err := repo.FindTransactionsByUser(context.Background(), 1, page)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, transactions, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
