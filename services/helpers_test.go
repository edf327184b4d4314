package services

import (
	"bankcards/database"
	"bankcards/models"
	"bankcards/utils"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db        *gorm.DB
	cards     *database.CardStore
	users     *database.UserStore
	lifecycle *CardLifecycle
	metrics   *utils.Metrics
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard, TranslateError: true})
	require.NoError(t, err)

	// Одно соединение: транзакции выполняются строго по очереди
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))

	cipher, err := utils.NewCardCipher("test-passphrase", "test-hmac-key")
	require.NoError(t, err)

	return &testEnv{
		db:        db,
		cards:     database.NewCardStore(db, cipher),
		users:     database.NewUserStore(db),
		lifecycle: NewCardLifecycle(),
		metrics:   utils.NewMetrics(),
	}
}

func (e *testEnv) createUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{
		FirstAndLastName: "Test " + username,
		Username:         username,
		Password:         "hash",
		Role:             models.RoleUser,
	}
	require.NoError(t, e.users.Create(context.Background(), user))
	return user
}

func (e *testEnv) createCard(t *testing.T, owner uuid.UUID, number, balance string, expiration time.Time) *models.Card {
	t.Helper()
	card := &models.Card{
		Number:         number,
		UserID:         owner,
		ExpirationDate: expiration,
		Status:         models.CardStatusActive,
		Balance:        decimal.RequireFromString(balance),
	}
	require.NoError(t, e.cards.Save(context.Background(), card))
	return card
}

func (e *testEnv) balance(t *testing.T, cardID uuid.UUID) string {
	t.Helper()
	card, err := e.cards.Get(context.Background(), cardID)
	require.NoError(t, err)
	return card.Balance.StringFixed(2)
}

func futureDate(days int) time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day()+days, 0, 0, 0, 0, time.UTC)
}
