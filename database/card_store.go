package database

import (
	"bankcards/models"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NumberCipher шифрует номера карт перед записью и расшифровывает при чтении
type NumberCipher interface {
	Encrypt(number string) (string, error)
	Decrypt(encrypted string) (string, error)
	Fingerprint(number string) string
	Verify(number, fingerprint string) bool
}

// CardRepository хранилище карт. Номера карт снаружи всегда в открытом виде.
type CardRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Card, error)
	// GetForUpdate читает карту с блокировкой строки до конца транзакции
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Card, error)
	GetAll(ctx context.Context) ([]models.Card, error)
	// Save вставляет карту без id или обновляет изменяемые поля существующей
	Save(ctx context.Context, card *models.Card) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindPage(ctx context.Context, predicate CardPredicate, page, pageSize int) (*CardPage, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	OwnerExists(ctx context.Context, userID uuid.UUID) (bool, error)
	WithinTransaction(ctx context.Context, fn func(repo CardRepository) error) error
}

// CardPage страница результатов выборки карт
type CardPage struct {
	TotalPages    int
	TotalElements int64
	Cards         []models.Card
}

// cardRecord строка таблицы cards
type cardRecord struct {
	ID              uuid.UUID         `gorm:"column:card_id;type:uuid;primaryKey"`
	NumberEncrypted string            `gorm:"column:card_number_encrypted;type:text;not null"`
	NumberHMAC      string            `gorm:"column:card_number_hmac;size:64;not null;uniqueIndex"`
	UserID          uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	User            models.User       `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	ExpirationDate  time.Time         `gorm:"column:expiration_date;type:date;not null;index"`
	Status          models.CardStatus `gorm:"column:card_status;size:10;not null"`
	Balance         decimal.Decimal   `gorm:"column:balance;type:numeric(15,2);not null"`
	CreatedAt       time.Time         `gorm:"column:created_at"`
	UpdatedAt       time.Time         `gorm:"column:updated_at"`
}

func (cardRecord) TableName() string {
	return "cards"
}

// BeforeCreate генерирует id карты
func (r *cardRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// CardStore реализация CardRepository поверх gorm
type CardStore struct {
	db     *gorm.DB
	cipher NumberCipher
}

// NewCardStore создает хранилище карт с ключом шифрования, полученным при старте
func NewCardStore(db *gorm.DB, cipher NumberCipher) *CardStore {
	return &CardStore{db: db, cipher: cipher}
}

func (s *CardStore) Get(ctx context.Context, id uuid.UUID) (*models.Card, error) {
	return s.get(s.db.WithContext(ctx), id)
}

func (s *CardStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Card, error) {
	return s.get(s.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (s *CardStore) get(q *gorm.DB, id uuid.UUID) (*models.Card, error) {
	var record cardRecord
	if err := q.Preload("User").Where("card_id = ?", id).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка при поиске карты: %w", err)
	}
	return s.toModel(&record)
}

func (s *CardStore) GetAll(ctx context.Context) ([]models.Card, error) {
	var records []cardRecord
	err := s.db.WithContext(ctx).
		Preload("User").
		Order("expiration_date ASC").
		Order("card_id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении карт: %w", err)
	}
	return s.toModels(records)
}

func (s *CardStore) Save(ctx context.Context, card *models.Card) error {
	if card.Balance.IsNegative() {
		return fmt.Errorf("баланс карты %s отрицательный: %s", card.ID, card.Balance.StringFixed(2))
	}
	if card.ID == uuid.Nil {
		return s.insert(ctx, card)
	}
	return s.update(ctx, card)
}

func (s *CardStore) insert(ctx context.Context, card *models.Card) error {
	encrypted, err := s.cipher.Encrypt(card.Number)
	if err != nil {
		return fmt.Errorf("не удалось зашифровать номер карты: %w", err)
	}

	record := cardRecord{
		NumberEncrypted: encrypted,
		NumberHMAC:      s.cipher.Fingerprint(card.Number),
		UserID:          card.UserID,
		ExpirationDate:  truncateToDate(card.ExpirationDate),
		Status:          card.Status,
		Balance:         card.Balance.Round(2),
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&record).Error; err != nil {
		// Номер успели занять между проверкой и вставкой
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("не удалось создать карту: %w", err)
	}

	card.ID = record.ID
	card.ExpirationDate = record.ExpirationDate
	card.Balance = record.Balance
	card.CreatedAt = record.CreatedAt
	card.UpdatedAt = record.UpdatedAt
	return nil
}

// update меняет только изменяемые поля: номер и владелец карты не переписываются
func (s *CardStore) update(ctx context.Context, card *models.Card) error {
	result := s.db.WithContext(ctx).
		Model(&cardRecord{}).
		Where("card_id = ?", card.ID).
		Updates(map[string]interface{}{
			"expiration_date": truncateToDate(card.ExpirationDate),
			"card_status":     string(card.Status),
			"balance":         card.Balance.Round(2),
		})
	if result.Error != nil {
		return fmt.Errorf("не удалось обновить карту: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *CardStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("card_id = ?", id).Delete(&cardRecord{})
	if result.Error != nil {
		return fmt.Errorf("не удалось удалить карту: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindPage возвращает страницу карт (нумерация с 1), отсортированных по сроку действия.
// Карты с одинаковой датой упорядочены по id, поэтому страницы не пересекаются.
func (s *CardStore) FindPage(ctx context.Context, predicate CardPredicate, page, pageSize int) (*CardPage, error) {
	if page < 1 || pageSize < 1 {
		return nil, fmt.Errorf("неверные параметры страницы: page=%d, pageSize=%d", page, pageSize)
	}
	if predicate == nil {
		predicate = MatchAll()
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&cardRecord{}).Scopes(predicate).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("ошибка при подсчете карт: %w", err)
	}

	var records []cardRecord
	err := s.db.WithContext(ctx).
		Model(&cardRecord{}).
		Scopes(predicate).
		Preload("User").
		Order("expiration_date ASC").
		Order("card_id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении страницы карт: %w", err)
	}

	cards, err := s.toModels(records)
	if err != nil {
		return nil, err
	}

	return &CardPage{
		TotalPages:    int((total + int64(pageSize) - 1) / int64(pageSize)),
		TotalElements: total,
		Cards:         cards,
	}, nil
}

// ExistsByNumber проверяет наличие карты с таким номером без расшифровки
func (s *CardStore) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&cardRecord{}).
		Where("card_number_hmac = ?", s.cipher.Fingerprint(number)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("ошибка при поиске номера карты: %w", err)
	}
	return count > 0, nil
}

func (s *CardStore) OwnerExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("ошибка при поиске пользователя: %w", err)
	}
	return count > 0, nil
}

func (s *CardStore) WithinTransaction(ctx context.Context, fn func(repo CardRepository) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&CardStore{db: tx, cipher: s.cipher})
	})
}

func (s *CardStore) toModels(records []cardRecord) ([]models.Card, error) {
	cards := make([]models.Card, 0, len(records))
	for i := range records {
		card, err := s.toModel(&records[i])
		if err != nil {
			return nil, err
		}
		cards = append(cards, *card)
	}
	return cards, nil
}

func (s *CardStore) toModel(record *cardRecord) (*models.Card, error) {
	number, err := s.cipher.Decrypt(record.NumberEncrypted)
	if err != nil {
		return nil, fmt.Errorf("не удалось расшифровать номер карты %s: %w", record.ID, err)
	}
	if !s.cipher.Verify(number, record.NumberHMAC) {
		return nil, fmt.Errorf("номер карты %s не совпадает с HMAC", record.ID)
	}

	return &models.Card{
		ID:             record.ID,
		Number:         number,
		UserID:         record.UserID,
		HolderName:     record.User.FirstAndLastName,
		ExpirationDate: truncateToDate(record.ExpirationDate),
		Status:         record.Status,
		Balance:        record.Balance,
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
	}, nil
}
