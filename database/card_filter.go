package database

import (
	"bankcards/models"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CardPredicate условие выборки карт, применяемое к запросу gorm.
// Условия объединяются через And и всегда дают конъюнкцию.
type CardPredicate func(db *gorm.DB) *gorm.DB

// MatchAll условие, которому удовлетворяет любая карта
func MatchAll() CardPredicate {
	return func(db *gorm.DB) *gorm.DB { return db }
}

// And объединяет условия логическим И
func (p CardPredicate) And(other CardPredicate) CardPredicate {
	if p == nil {
		p = MatchAll()
	}
	if other == nil {
		return p
	}
	return func(db *gorm.DB) *gorm.DB {
		return other(p(db))
	}
}

func HasOwner(userID uuid.UUID) CardPredicate {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	}
}

func HasStatus(status models.CardStatus) CardPredicate {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("card_status = ?", string(status))
	}
}

// ExpiresOnOrAfter выбирает карты со сроком действия не раньше from
func ExpiresOnOrAfter(from time.Time) CardPredicate {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("expiration_date >= ?", truncateToDate(from))
	}
}

// ExpiresOnOrBefore выбирает карты со сроком действия не позже to
func ExpiresOnOrBefore(to time.Time) CardPredicate {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("expiration_date <= ?", truncateToDate(to))
	}
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
