package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bankcards/card-service/internal/models"
)

const cardColumns = `id, number, number_hash, holder, expiry_date, status, balance, deleted, user_id, created_at, updated_at`

var cardSortColumns = map[string]string{
	"id":          "id",
	"holder":      "holder",
	"expiry_date": "expiry_date",
	"balance":     "balance",
}

// CreateCard inserts a new card and fills in its generated fields.
func (r *Repository) CreateCard(ctx context.Context, card *models.Card) error {
	query := `
		INSERT INTO cards (number, number_hash, holder, expiry_date, status, balance, deleted, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.q.QueryRowContext(ctx, query,
		card.Number, card.NumberHash, card.Holder, card.ExpiryDate,
		card.Status, card.Balance, card.Deleted, card.UserID).
		Scan(&card.ID, &card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}
	return nil
}

// UpdateCard persists the mutable fields of a card.
func (r *Repository) UpdateCard(ctx context.Context, card *models.Card) error {
	query := `
		UPDATE cards
		SET status = $2, balance = $3, deleted = $4, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at`
	err := r.q.QueryRowContext(ctx, query, card.ID, card.Status, card.Balance, card.Deleted).
		Scan(&card.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrCardNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update card: %w", err)
	}
	return nil
}

// FindCardByID retrieves a card by id.
func (r *Repository) FindCardByID(ctx context.Context, id int64) (*models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`
	return r.scanCard(r.q.QueryRowContext(ctx, query, id))
}

// FindCardByIDForUpdate retrieves a card by id holding a row lock until the
// surrounding transaction ends. Callers locking several cards must do so in
// ascending id order.
func (r *Repository) FindCardByIDForUpdate(ctx context.Context, id int64) (*models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1 FOR UPDATE`
	return r.scanCard(r.q.QueryRowContext(ctx, query, id))
}

// CardNumberHashExists reports whether any card, deleted or not, already
// carries the given number fingerprint.
func (r *Repository) CardNumberHashExists(ctx context.Context, hash string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM cards WHERE number_hash = $1)`
	var exists bool
	if err := r.q.QueryRowContext(ctx, query, hash).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check card number hash: %w", err)
	}
	return exists, nil
}

// FindCardsByUser retrieves one page of a user's cards.
func (r *Repository) FindCardsByUser(ctx context.Context, userID int64, page models.PageRequest) ([]models.Card, int64, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM cards WHERE user_id = $1`
	if err := r.q.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count cards: %w", err)
	}

	query := `SELECT ` + cardColumns + ` FROM cards WHERE user_id = $1 ` +
		orderClause(page, cardSortColumns, "id") + ` LIMIT $2 OFFSET $3`
	rows, err := r.q.QueryContext(ctx, query, userID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	cards, err := collectCards(rows)
	if err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

// FindAllCards retrieves one page of all cards.
func (r *Repository) FindAllCards(ctx context.Context, page models.PageRequest) ([]models.Card, int64, error) {
	var total int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count cards: %w", err)
	}

	query := `SELECT ` + cardColumns + ` FROM cards ` +
		orderClause(page, cardSortColumns, "id") + ` LIMIT $1 OFFSET $2`
	rows, err := r.q.QueryContext(ctx, query, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	cards, err := collectCards(rows)
	if err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

// FindCardsExpiringBetween retrieves non-deleted cards whose expiry date
// falls inside [from, to]. Used by the expiry reminder job.
func (r *Repository) FindCardsExpiringBetween(ctx context.Context, from, to time.Time) ([]models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards
		WHERE deleted = FALSE AND expiry_date BETWEEN $1 AND $2
		ORDER BY expiry_date`
	rows, err := r.q.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring cards: %w", err)
	}
	defer rows.Close()
	return collectCards(rows)
}

func (r *Repository) scanCard(row *sql.Row) (*models.Card, error) {
	card := &models.Card{}
	err := row.Scan(&card.ID, &card.Number, &card.NumberHash, &card.Holder,
		&card.ExpiryDate, &card.Status, &card.Balance, &card.Deleted,
		&card.UserID, &card.CreatedAt, &card.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find card: %w", err)
	}
	return card, nil
}

func collectCards(rows *sql.Rows) ([]models.Card, error) {
	var cards []models.Card
	for rows.Next() {
		var card models.Card
		if err := rows.Scan(&card.ID, &card.Number, &card.NumberHash, &card.Holder,
			&card.ExpiryDate, &card.Status, &card.Balance, &card.Deleted,
			&card.UserID, &card.CreatedAt, &card.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cards: %w", err)
	}
	return cards, nil
}
