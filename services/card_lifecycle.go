package services

import (
	"bankcards/models"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

var cardNumberPattern = regexp.MustCompile(`^\d{4} \d{4} \d{4} \d{4}$`)

// CardLifecycle правила изменения статуса и баланса карты.
//
// Переходы статуса:
//
//	любой            -> любой     (администратор задает статус явно)
//	ACTIVE, BLOCKED  -> BLOCKED   (владелец блокирует карту)
//
// Истечение срока действия не переводит карту в EXPIRED автоматически.
type CardLifecycle struct {
	now func() time.Time
}

func NewCardLifecycle() *CardLifecycle {
	return &CardLifecycle{now: time.Now}
}

// ValidateNew проверяет карту перед выпуском
func (l *CardLifecycle) ValidateNew(card *models.Card) error {
	if !cardNumberPattern.MatchString(card.Number) {
		return ErrInvalidCardNumber
	}
	if _, ok := models.ParseCardStatus(string(card.Status)); !ok {
		return ErrWrongCardStatus
	}
	if card.Balance.IsNegative() {
		return ErrNegativeBalance
	}
	if card.IsExpiredAt(l.now()) {
		return ErrExpirationInPast
	}
	return nil
}

// Block блокирует карту по запросу владельца. Повторная блокировка допустима.
func (l *CardLifecycle) Block(card *models.Card) error {
	switch card.Status {
	case models.CardStatusActive, models.CardStatusBlocked:
		card.Status = models.CardStatusBlocked
		return nil
	default:
		// Просроченную карту блокировать не нужно: статус EXPIRED остается окончательным
		return ErrCardNotBlockable
	}
}

// ChangeStatus задает статус явно (администратор). Строка разбирается без учета регистра.
func (l *CardLifecycle) ChangeStatus(card *models.Card, raw string) error {
	status, err := parseCardStatus(raw)
	if err != nil {
		return err
	}
	card.Status = status
	return nil
}

// ValidateAmount проверяет сумму перевода: больше нуля, не более двух знаков после запятой
func (l *CardLifecycle) ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) {
		return ErrInvalidAmount
	}
	return nil
}

// Transfer списывает сумму с from и зачисляет на to.
// При любой ошибке обе карты остаются без изменений.
func (l *CardLifecycle) Transfer(from, to *models.Card, amount decimal.Decimal) error {
	if err := l.ValidateAmount(amount); err != nil {
		return err
	}
	if from.ID == to.ID {
		return ErrSameCard
	}
	if from.Balance.LessThan(amount) {
		return ErrNotEnoughMoney
	}

	from.Balance = from.Balance.Sub(amount)
	to.Balance = to.Balance.Add(amount)
	return nil
}
