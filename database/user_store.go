package database

import (
	"bankcards/models"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepository хранилище пользователей
type UserRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetAll(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	// Delete удаляет пользователя вместе с его картами
	Delete(ctx context.Context, id uuid.UUID) error
	UsernameTaken(ctx context.Context, username string, exceptID uuid.UUID) (bool, error)
}

type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("user_id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка при поиске пользователя: %w", err)
	}
	return &user, nil
}

// GetByUsername ищет пользователя по логину (без учета регистра и пробелов)
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("LOWER(TRIM(username)) = LOWER(TRIM(?))", username).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка при поиске пользователя: %w", err)
	}
	return &user, nil
}

func (s *UserStore) GetAll(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("username ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("ошибка при получении пользователей: %w", err)
	}
	return users, nil
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("не удалось создать пользователя: %w", err)
	}
	return nil
}

func (s *UserStore) Update(ctx context.Context, user *models.User) error {
	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("user_id = ?", user.ID).
		Updates(map[string]interface{}{
			"first_and_last_name": user.FirstAndLastName,
			"username":            user.Username,
			"password":            user.Password,
			"role":                string(user.Role),
		})
	if result.Error != nil {
		return fmt.Errorf("не удалось обновить пользователя: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *UserStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Карты удаляются явно: не все драйверы включают внешние ключи по умолчанию
		if err := tx.Where("user_id = ?", id).Delete(&cardRecord{}).Error; err != nil {
			return fmt.Errorf("не удалось удалить карты пользователя: %w", err)
		}
		result := tx.Where("user_id = ?", id).Delete(&models.User{})
		if result.Error != nil {
			return fmt.Errorf("не удалось удалить пользователя: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// UsernameTaken проверяет, занят ли логин другим пользователем
func (s *UserStore) UsernameTaken(ctx context.Context, username string, exceptID uuid.UUID) (bool, error) {
	var count int64
	q := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("LOWER(TRIM(username)) = LOWER(TRIM(?))", username)
	if exceptID != uuid.Nil {
		q = q.Where("user_id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("ошибка при проверке логина: %w", err)
	}
	return count > 0, nil
}
