package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bankcards/card-service/internal/models"
)

const transactionColumns = `id, from_card_id, to_card_id, amount, comment, date`

var transactionSortColumns = map[string]string{
	"id":     "id",
	"date":   "date",
	"amount": "amount",
}

// Qualified variant for the user query, which joins cards twice.
var userTransactionSortColumns = map[string]string{
	"id":     "t.id",
	"date":   "t.date",
	"amount": "t.amount",
}

// CreateTransaction appends a transaction record. Records are immutable:
// no update or delete statement exists for this table.
func (r *Repository) CreateTransaction(ctx context.Context, transaction *models.Transaction) error {
	query := `
		INSERT INTO transactions (from_card_id, to_card_id, amount, comment, date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err := r.q.QueryRowContext(ctx, query,
		transaction.FromCardID, transaction.ToCardID, transaction.Amount,
		transaction.Comment, transaction.Date).
		Scan(&transaction.ID)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// FindTransactionsByCard retrieves one page of transactions where the card
// is either sender or receiver.
func (r *Repository) FindTransactionsByCard(ctx context.Context, cardID int64, page models.PageRequest) ([]models.Transaction, int64, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM transactions WHERE from_card_id = $1 OR to_card_id = $1`
	if err := r.q.QueryRowContext(ctx, countQuery, cardID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE from_card_id = $1 OR to_card_id = $1 ` +
		orderClause(page, transactionSortColumns, "date") + ` LIMIT $2 OFFSET $3`
	rows, err := r.q.QueryContext(ctx, query, cardID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	transactions, err := collectTransactions(rows)
	if err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}

// FindTransactionsByUser retrieves one page of transactions where either
// endpoint card belongs to the user.
func (r *Repository) FindTransactionsByUser(ctx context.Context, userID int64, page models.PageRequest) ([]models.Transaction, int64, error) {
	var total int64
	countQuery := `
		SELECT COUNT(*) FROM transactions t
		JOIN cards cf ON cf.id = t.from_card_id
		JOIN cards ct ON ct.id = t.to_card_id
		WHERE cf.user_id = $1 OR ct.user_id = $1`
	if err := r.q.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	query := `
		SELECT t.id, t.from_card_id, t.to_card_id, t.amount, t.comment, t.date
		FROM transactions t
		JOIN cards cf ON cf.id = t.from_card_id
		JOIN cards ct ON ct.id = t.to_card_id
		WHERE cf.user_id = $1 OR ct.user_id = $1 ` +
		orderClause(page, userTransactionSortColumns, "t.date") + ` LIMIT $2 OFFSET $3`
	rows, err := r.q.QueryContext(ctx, query, userID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	transactions, err := collectTransactions(rows)
	if err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}

func collectTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	var transactions []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.FromCardID, &t.ToCardID, &t.Amount, &t.Comment, &t.Date); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return transactions, nil
}
