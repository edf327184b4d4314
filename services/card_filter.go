package services

import (
	"bankcards/database"
	"bankcards/models"
	"time"

	"github.com/google/uuid"
)

// CardFilter необязательные условия выборки карт пользователя
type CardFilter struct {
	OwnerID    uuid.UUID
	Status     string
	ExpireFrom *time.Time
	ExpireTo   *time.Time
}

// BuildCardPredicate собирает условия фильтра в одно условие (логическое И).
// Пустые поля не ограничивают выборку, неизвестный статус является ошибкой.
func BuildCardPredicate(filter CardFilter) (database.CardPredicate, error) {
	predicate := database.HasOwner(filter.OwnerID)

	if filter.Status != "" {
		status, err := parseCardStatus(filter.Status)
		if err != nil {
			return nil, err
		}
		predicate = predicate.And(database.HasStatus(status))
	}
	if filter.ExpireFrom != nil {
		predicate = predicate.And(database.ExpiresOnOrAfter(*filter.ExpireFrom))
	}
	if filter.ExpireTo != nil {
		predicate = predicate.And(database.ExpiresOnOrBefore(*filter.ExpireTo))
	}

	return predicate, nil
}

func parseCardStatus(raw string) (models.CardStatus, error) {
	status, ok := models.ParseCardStatus(raw)
	if !ok {
		return "", ErrWrongCardStatus
	}
	return status, nil
}
