package database

import (
	"bankcards/models"
	"bankcards/utils"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Отдельная база в памяти на каждый тест
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard, TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return db
}

func setupCardStore(t *testing.T) (*CardStore, *gorm.DB) {
	t.Helper()
	db := setupDB(t)
	cipher, err := utils.NewCardCipher("test-passphrase", "test-hmac-key")
	require.NoError(t, err)
	return NewCardStore(db, cipher), db
}

func createUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	user := &models.User{
		FirstAndLastName: name,
		Username:         strings.ToLower(strings.ReplaceAll(name, " ", ".")),
		Password:         "hash",
		Role:             models.RoleUser,
	}
	require.NoError(t, NewUserStore(db).Create(context.Background(), user))
	return user
}

func newCard(owner uuid.UUID, number string, expiration time.Time, balance string) *models.Card {
	return &models.Card{
		Number:         number,
		UserID:         owner,
		ExpirationDate: expiration,
		Status:         models.CardStatusActive,
		Balance:        decimal.RequireFromString(balance),
	}
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestCardStoreEncryptsNumberAtRest(t *testing.T) {
	store, db := setupCardStore(t)
	ctx := context.Background()
	owner := createUser(t, db, "Ivan Petrov")

	card := newCard(owner.ID, "1111 2222 3333 4444", date(2030, 1, 31), "100.00")
	require.NoError(t, store.Save(ctx, card))
	require.NotEqual(t, uuid.Nil, card.ID)

	var record cardRecord
	require.NoError(t, db.Where("card_id = ?", card.ID).First(&record).Error)
	require.NotContains(t, record.NumberEncrypted, "1111")
	require.Contains(t, record.NumberEncrypted, "BEGIN PGP MESSAGE")

	got, err := store.Get(ctx, card.ID)
	require.NoError(t, err)
	require.Equal(t, "1111 2222 3333 4444", got.Number)
	require.Equal(t, "Ivan Petrov", got.HolderName)
	require.Equal(t, "100.00", got.Balance.StringFixed(2))
	require.Equal(t, "2030-01-31", got.ExpirationDate.Format(models.DateLayout))
}

func TestCardStoreExistsByNumber(t *testing.T) {
	store, db := setupCardStore(t)
	ctx := context.Background()
	owner := createUser(t, db, "Ivan Petrov")

	require.NoError(t, store.Save(ctx, newCard(owner.ID, "1111 2222 3333 4444", date(2030, 1, 1), "0")))

	exists, err := store.ExistsByNumber(ctx, "1111 2222 3333 4444")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = store.ExistsByNumber(ctx, "1111 2222 3333 5555")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestCardStoreDuplicateNumber(t *testing.T) {
	store, db := setupCardStore(t)
	ctx := context.Background()
	owner := createUser(t, db, "Ivan Petrov")

	require.NoError(t, store.Save(ctx, newCard(owner.ID, "1111 2222 3333 4444", date(2030, 1, 1), "0")))
	err := store.Save(ctx, newCard(owner.ID, "1111 2222 3333 4444", date(2031, 1, 1), "5"))
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestCardStoreUpdateKeepsNumberAndOwner(t *testing.T) {
	store, db := setupCardStore(t)
	ctx := context.Background()
	owner := createUser(t, db, "Ivan Petrov")

	card := newCard(owner.ID, "1111 2222 3333 4444", date(2030, 1, 1), "10.00")
	require.NoError(t, store.Save(ctx, card))

	card.Number = "9999 9999 9999 9999"
	card.UserID = uuid.New()
	card.Status = models.CardStatusBlocked
	card.Balance = decimal.RequireFromString("25.50")
	require.NoError(t, store.Save(ctx, card))

	got, err := store.Get(ctx, card.ID)
	require.NoError(t, err)
	require.Equal(t, "1111 2222 3333 4444", got.Number)
	require.Equal(t, owner.ID, got.UserID)
	require.Equal(t, models.CardStatusBlocked, got.Status)
	require.Equal(t, "25.50", got.Balance.StringFixed(2))
}

func TestCardStoreRejectsNegativeBalance(t *testing.T) {
	store, db := setupCardStore(t)
	owner := createUser(t, db, "Ivan Petrov")

	err := store.Save(context.Background(), newCard(owner.ID, "1111 2222 3333 4444", date(2030, 1, 1), "-0.01"))
	require.Error(t, err)
}

func TestCardStoreMissingCard(t *testing.T) {
	store, _ := setupCardStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, store.Delete(ctx, uuid.New()), ErrNotFound)

	missing := newCard(uuid.New(), "1111 2222 3333 4444", date(2030, 1, 1), "1")
	missing.ID = uuid.New()
	require.ErrorIs(t, store.Save(ctx, missing), ErrNotFound)
}

func TestCardStoreFindPageOrdersByExpiration(t *testing.T) {
	store, db := setupCardStore(t)
	ctx := context.Background()
	owner := createUser(t, db, "Ivan Petrov")
	other := createUser(t, db, "Petr Ivanov")

	// Даты намеренно повторяются, чтобы проверить устойчивость порядка
	for i := 0; i < 7; i++ {
		number := fmt.Sprintf("1000 2000 3000 %04d", i)
		expiration := date(2030, time.Month(7-i/2), 1)
		require.NoError(t, store.Save(ctx, newCard(owner.ID, number, expiration, "1")))
	}
	require.NoError(t, store.Save(ctx, newCard(other.ID, "5000 6000 7000 8000", date(2029, 1, 1), "1")))

	seen := make(map[uuid.UUID]bool)
	var all []models.Card
	for page := 1; page <= 3; page++ {
		result, err := store.FindPage(ctx, HasOwner(owner.ID), page, 3)
		require.NoError(t, err)
		require.Equal(t, 3, result.TotalPages)
		require.Equal(t, int64(7), result.TotalElements)
		for _, card := range result.Cards {
			require.False(t, seen[card.ID], "card %s returned twice", card.ID)
			seen[card.ID] = true
			all = append(all, card)
		}
	}
	require.Len(t, all, 7)
	for i := 1; i < len(all); i++ {
		require.False(t, all[i].ExpirationDate.Before(all[i-1].ExpirationDate))
	}
}

func TestCardStoreFindPageWithPredicates(t *testing.T) {
	store, db := setupCardStore(t)
	ctx := context.Background()
	owner := createUser(t, db, "Ivan Petrov")

	active := newCard(owner.ID, "1111 1111 1111 0001", date(2030, 1, 1), "1")
	blocked := newCard(owner.ID, "1111 1111 1111 0002", date(2030, 6, 1), "1")
	blocked.Status = models.CardStatusBlocked
	late := newCard(owner.ID, "1111 1111 1111 0003", date(2031, 1, 1), "1")
	for _, card := range []*models.Card{active, blocked, late} {
		require.NoError(t, store.Save(ctx, card))
	}

	predicate := HasOwner(owner.ID).And(HasStatus(models.CardStatusActive))
	result, err := store.FindPage(ctx, predicate, 1, 10)
	require.NoError(t, err)
	require.Len(t, result.Cards, 2)

	predicate = HasOwner(owner.ID).
		And(ExpiresOnOrAfter(date(2030, 1, 1))).
		And(ExpiresOnOrBefore(date(2030, 6, 1)))
	result, err = store.FindPage(ctx, predicate, 1, 10)
	require.NoError(t, err)
	require.Len(t, result.Cards, 2)
	require.Equal(t, active.ID, result.Cards[0].ID)
	require.Equal(t, blocked.ID, result.Cards[1].ID)

	result, err = store.FindPage(ctx, HasOwner(uuid.New()), 1, 10)
	require.NoError(t, err)
	require.Empty(t, result.Cards)
	require.Equal(t, 0, result.TotalPages)
}

func TestCardStoreRollsBackTransaction(t *testing.T) {
	store, db := setupCardStore(t)
	ctx := context.Background()
	owner := createUser(t, db, "Ivan Petrov")

	card := newCard(owner.ID, "1111 2222 3333 4444", date(2030, 1, 1), "100")
	require.NoError(t, store.Save(ctx, card))

	err := store.WithinTransaction(ctx, func(repo CardRepository) error {
		locked, err := repo.GetForUpdate(ctx, card.ID)
		require.NoError(t, err)
		locked.Balance = decimal.Zero
		require.NoError(t, repo.Save(ctx, locked))
		return fmt.Errorf("abort")
	})
	require.Error(t, err)

	got, err := store.Get(ctx, card.ID)
	require.NoError(t, err)
	require.Equal(t, "100.00", got.Balance.StringFixed(2))
}

func TestUserStoreDeleteRemovesCards(t *testing.T) {
	store, db := setupCardStore(t)
	ctx := context.Background()
	users := NewUserStore(db)
	owner := createUser(t, db, "Ivan Petrov")

	card := newCard(owner.ID, "1111 2222 3333 4444", date(2030, 1, 1), "1")
	require.NoError(t, store.Save(ctx, card))

	require.NoError(t, users.Delete(ctx, owner.ID))
	_, err := store.Get(ctx, card.ID)
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, users.Delete(ctx, owner.ID), ErrNotFound)
}

func TestUserStoreUsernameLookup(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	users := NewUserStore(db)
	owner := createUser(t, db, "Ivan Petrov")

	got, err := users.GetByUsername(ctx, "  IVAN.PETROV ")
	require.NoError(t, err)
	require.Equal(t, owner.ID, got.ID)

	taken, err := users.UsernameTaken(ctx, "ivan.petrov", uuid.Nil)
	require.NoError(t, err)
	require.True(t, taken)

	taken, err = users.UsernameTaken(ctx, "ivan.petrov", owner.ID)
	require.NoError(t, err)
	require.False(t, taken)
}
