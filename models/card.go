package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout формат дат карты во внешнем представлении
const DateLayout = "2006-01-02"

// CardStatus представляет статус карты
type CardStatus string

const (
	CardStatusActive  CardStatus = "ACTIVE"
	CardStatusBlocked CardStatus = "BLOCKED"
	CardStatusExpired CardStatus = "EXPIRED"
)

// CardStatuses перечисляет все допустимые статусы
var CardStatuses = []CardStatus{CardStatusActive, CardStatusBlocked, CardStatusExpired}

// ParseCardStatus разбирает строку статуса без учета регистра
func ParseCardStatus(raw string) (CardStatus, bool) {
	status := CardStatus(strings.ToUpper(raw))
	for _, s := range CardStatuses {
		if s == status {
			return status, true
		}
	}
	return "", false
}

// Card представляет банковскую карту.
// Number всегда содержит расшифрованный номер в виде "1111 2222 3333 4444":
// шифрование выполняется хранилищем.
type Card struct {
	ID             uuid.UUID
	Number         string
	UserID         uuid.UUID
	HolderName     string
	ExpirationDate time.Time
	Status         CardStatus
	Balance        decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsExpiredAt сообщает, истек ли срок действия карты на указанную дату.
// Статус карты при этом не меняется.
func (c *Card) IsExpiredAt(now time.Time) bool {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return c.ExpirationDate.Before(today)
}
