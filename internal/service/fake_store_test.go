package service

import (
	"context"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/bankcards/card-service/internal/models"
	"github.com/bankcards/card-service/internal/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// fakeData is the in-memory state behind fakeStore. Its methods do not
// lock: fakeStore wraps every call in a mutex and InTx hands the bare
// fakeData to fn so calls inside the transaction reuse the held lock.
type fakeData struct {
	cards        map[int64]*models.Card
	users        map[int64]*models.User
	transactions []models.Transaction
	nextCardID   int64
	nextUserID   int64
	nextTxID     int64
}

// fakeStore is an in-memory Store. InTx serializes callers on the mutex
// and restores a snapshot when fn fails, which gives the same atomicity
// and serialization the database provides via row locks.
type fakeStore struct {
	mu   sync.Mutex
	data *fakeData
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		data: &fakeData{
			cards: make(map[int64]*models.Card),
			users: make(map[int64]*models.User),
		},
	}
}

func (d *fakeData) snapshot() *fakeData {
	cards := make(map[int64]*models.Card, len(d.cards))
	for id, c := range d.cards {
		copied := *c
		cards[id] = &copied
	}
	users := make(map[int64]*models.User, len(d.users))
	for id, u := range d.users {
		copied := *u
		users[id] = &copied
	}
	return &fakeData{
		cards:        cards,
		users:        users,
		transactions: append([]models.Transaction(nil), d.transactions...),
		nextCardID:   d.nextCardID,
		nextUserID:   d.nextUserID,
		nextTxID:     d.nextTxID,
	}
}

func (f *fakeStore) InTx(ctx context.Context, fn func(Store) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	saved := f.data.snapshot()
	if err := fn(f.data); err != nil {
		f.data = saved
		return err
	}
	return nil
}

// Nested calls run inside the already-held lock.
func (d *fakeData) InTx(ctx context.Context, fn func(Store) error) error {
	return fn(d)
}

func (d *fakeData) CreateCard(ctx context.Context, card *models.Card) error {
	d.nextCardID++
	card.ID = d.nextCardID
	card.CreatedAt = time.Now()
	card.UpdatedAt = card.CreatedAt
	copied := *card
	d.cards[card.ID] = &copied
	return nil
}

func (d *fakeData) UpdateCard(ctx context.Context, card *models.Card) error {
	if _, ok := d.cards[card.ID]; !ok {
		return models.ErrCardNotFound
	}
	card.UpdatedAt = time.Now()
	copied := *card
	d.cards[card.ID] = &copied
	return nil
}

func (d *fakeData) FindCardByID(ctx context.Context, id int64) (*models.Card, error) {
	card, ok := d.cards[id]
	if !ok {
		return nil, models.ErrCardNotFound
	}
	copied := *card
	return &copied, nil
}

func (d *fakeData) FindCardByIDForUpdate(ctx context.Context, id int64) (*models.Card, error) {
	return d.FindCardByID(ctx, id)
}

func (d *fakeData) CardNumberHashExists(ctx context.Context, hash string) (bool, error) {
	for _, c := range d.cards {
		if c.NumberHash == hash {
			return true, nil
		}
	}
	return false, nil
}

func (d *fakeData) FindCardsByUser(ctx context.Context, userID int64, page models.PageRequest) ([]models.Card, int64, error) {
	var all []models.Card
	for _, c := range d.cards {
		if c.UserID == userID {
			all = append(all, *c)
		}
	}
	return pageCards(all, page)
}

func (d *fakeData) FindAllCards(ctx context.Context, page models.PageRequest) ([]models.Card, int64, error) {
	var all []models.Card
	for _, c := range d.cards {
		all = append(all, *c)
	}
	return pageCards(all, page)
}

func pageCards(all []models.Card, page models.PageRequest) ([]models.Card, int64, error) {
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	lo := page.Offset()
	if lo > len(all) {
		lo = len(all)
	}
	hi := lo + page.Limit
	if hi > len(all) {
		hi = len(all)
	}
	return all[lo:hi], total, nil
}

func (d *fakeData) FindCardsExpiringBetween(ctx context.Context, from, to time.Time) ([]models.Card, error) {
	var out []models.Card
	for _, c := range d.cards {
		if !c.Deleted && !c.ExpiryDate.Before(from) && !c.ExpiryDate.After(to) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (d *fakeData) CreateTransaction(ctx context.Context, transaction *models.Transaction) error {
	d.nextTxID++
	transaction.ID = d.nextTxID
	d.transactions = append(d.transactions, *transaction)
	return nil
}

func (d *fakeData) FindTransactionsByCard(ctx context.Context, cardID int64, page models.PageRequest) ([]models.Transaction, int64, error) {
	var all []models.Transaction
	for _, t := range d.transactions {
		if t.FromCardID == cardID || t.ToCardID == cardID {
			all = append(all, t)
		}
	}
	return pageTransactions(all, page)
}

func (d *fakeData) FindTransactionsByUser(ctx context.Context, userID int64, page models.PageRequest) ([]models.Transaction, int64, error) {
	owned := make(map[int64]bool)
	for _, c := range d.cards {
		if c.UserID == userID {
			owned[c.ID] = true
		}
	}
	var all []models.Transaction
	for _, t := range d.transactions {
		if owned[t.FromCardID] || owned[t.ToCardID] {
			all = append(all, t)
		}
	}
	return pageTransactions(all, page)
}

func pageTransactions(all []models.Transaction, page models.PageRequest) ([]models.Transaction, int64, error) {
	asc := page.Direction == "asc"
	sort.Slice(all, func(i, j int) bool {
		if all[i].Date.Equal(all[j].Date) {
			if asc {
				return all[i].ID < all[j].ID
			}
			return all[i].ID > all[j].ID
		}
		if asc {
			return all[i].Date.Before(all[j].Date)
		}
		return all[i].Date.After(all[j].Date)
	})
	total := int64(len(all))
	lo := page.Offset()
	if lo > len(all) {
		lo = len(all)
	}
	hi := lo + page.Limit
	if hi > len(all) {
		hi = len(all)
	}
	return all[lo:hi], total, nil
}

func (d *fakeData) CreateUser(ctx context.Context, user *models.User) error {
	d.nextUserID++
	user.ID = d.nextUserID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	d.users[user.ID] = &copied
	return nil
}

func (d *fakeData) UpdateUser(ctx context.Context, user *models.User) error {
	if _, ok := d.users[user.ID]; !ok {
		return models.ErrUserNotFound
	}
	user.UpdatedAt = time.Now()
	copied := *user
	d.users[user.ID] = &copied
	return nil
}

func (d *fakeData) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	user, ok := d.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (d *fakeData) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range d.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (d *fakeData) UserExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := d.FindUserByUsername(ctx, username)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (d *fakeData) FindAllUsers(ctx context.Context, page models.PageRequest) ([]models.User, int64, error) {
	var all []models.User
	for _, u := range d.users {
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	lo := page.Offset()
	if lo > len(all) {
		lo = len(all)
	}
	hi := lo + page.Limit
	if hi > len(all) {
		hi = len(all)
	}
	return all[lo:hi], total, nil
}

func (f *fakeStore) CreateCard(ctx context.Context, card *models.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data.CreateCard(ctx, card)
}

func (f *fakeStore) UpdateCard(ctx context.Context, card *models.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data.UpdateCard(ctx, card)
}

func (f *fakeStore) FindCardByID(ctx context.Context, id int64) (*models.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data.FindCardByID(ctx, id)
}

func (f *fakeStore) FindCardByIDForUpdate(ctx context.Context, id int64) (*models.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data.FindCardByIDForUpdate(ctx, id)
}

func (f *fakeStore) CardNumberHashExists(ctx context.Context, hash string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data.CardNumberHashExists(ctx, hash)
}

func (f *fakeStore) FindCardsByUser(ctx context.Context, userID int64, page models.PageRequest) ([]models.Card, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data.FindCardsByUser(ctx, userID, page)
}

func (f *fakeStore) FindAllCards(ctx context.Context, page models.PageRequest) ([]models.Card, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data.FindAllCards(ctx, page)
}

func (f *fakeStore) FindCardsExpiringBetween(ctx context.Context, from, to time.Time) ([]models.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data.FindCardsExpiringBetween(ctx, from, to)
}

func (f *fakeStore) CreateTransaction(ctx context.Context, transaction *models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data.CreateTransaction(ctx, transaction)
}

func (f *fakeStore) FindTransactionsByCard(ctx context.Context, cardID int64, page models.PageRequest) ([]models.Transaction, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data.FindTransactionsByCard(ctx, cardID, page)
}

func (f *fakeStore) FindTransactionsByUser(ctx context.Context, userID int64, page models.PageRequest) ([]models.Transaction, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data.FindTransactionsByUser(ctx, userID, page)
}

func (f *fakeStore) CreateUser(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data.CreateUser(ctx, user)
}

func (f *fakeStore) UpdateUser(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data.UpdateUser(ctx, user)
}

func (f *fakeStore) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data.FindUserByID(ctx, id)
}

func (f *fakeStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data.FindUserByUsername(ctx, username)
}

func (f *fakeStore) UserExistsByUsername(ctx context.Context, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data.UserExistsByUsername(ctx, username)
}

func (f *fakeStore) FindAllUsers(ctx context.Context, page models.PageRequest) ([]models.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data.FindAllUsers(ctx, page)
}

func (f *fakeStore) transactionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.data.transactions)
}

// testEnv wires the services against a fakeStore for a single test.
type testEnv struct {
	store        *fakeStore
	enc          *utils.Encryptor
	cards        *CardService
	transactions *TransactionService
	users        *UserService
}

const testHMACSecret = "test-hmac-secret"

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	enc, err := utils.NewEncryptor(key)
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)

	store := newFakeStore()
	cards := NewCardService(store, enc, testHMACSecret, log)
	return &testEnv{
		store:        store,
		enc:          enc,
		cards:        cards,
		transactions: NewTransactionService(store, cards, nil, log),
		users:        NewUserService(store, log),
	}
}

func (e *testEnv) seedUser(t *testing.T, username string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{Username: username, PasswordHash: "x", Role: role, Enabled: true}
	require.NoError(t, e.store.CreateUser(context.Background(), user))
	return user
}

// seedCard inserts a card directly, bypassing the service, so tests can
// control number, balance, status and expiry.
func (e *testEnv) seedCard(t *testing.T, userID int64, number, balance string, status models.CardStatus, expiry time.Time) *models.Card {
	t.Helper()
	encrypted, err := e.enc.Encrypt(number)
	require.NoError(t, err)
	card := &models.Card{
		Number:     encrypted,
		NumberHash: utils.CardFingerprint(number, testHMACSecret),
		Holder:     "TEST HOLDER",
		ExpiryDate: expiry,
		Status:     status,
		Balance:    decimal.RequireFromString(balance),
		UserID:     userID,
	}
	require.NoError(t, e.store.CreateCard(context.Background(), card))
	return card
}

func (e *testEnv) cardBalance(t *testing.T, id int64) decimal.Decimal {
	t.Helper()
	card, err := e.store.FindCardByID(context.Background(), id)
	require.NoError(t, err)
	return card.Balance
}

func futureExpiry() time.Time {
	return time.Now().AddDate(2, 0, 0)
}

func pastExpiry() time.Time {
	return time.Now().AddDate(0, 0, -10)
}
