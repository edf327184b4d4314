package services

import (
	"bankcards/database"
	"bankcards/models"
	"bankcards/utils"
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	msgCardBlocked      = "Карта успешно заблокирована"
	msgTransferComplete = "Сумма успешно переведена между картами"
)

// CardListQuery параметры выборки карт пользователя
type CardListQuery struct {
	ExpireFrom *time.Time
	ExpireTo   *time.Time
	Status     string
	Page       int
	PageSize   int
}

// CardService операции владельца над своими картами
type CardService struct {
	cards     database.CardRepository
	lifecycle *CardLifecycle
	metrics   *utils.Metrics
}

// NewCardService создает новый экземпляр CardService
func NewCardService(cards database.CardRepository, lifecycle *CardLifecycle, metrics *utils.Metrics) *CardService {
	return &CardService{
		cards:     cards,
		lifecycle: lifecycle,
		metrics:   metrics,
	}
}

// Block блокирует карту владельца
func (s *CardService) Block(ctx context.Context, userID, cardID uuid.UUID) (msg string, err error) {
	defer s.track("block", time.Now(), &err)

	err = s.cards.WithinTransaction(ctx, func(repo database.CardRepository) error {
		card, err := lockOwnedCard(ctx, repo, userID, cardID)
		if err != nil {
			return err
		}
		if err := s.lifecycle.Block(card); err != nil {
			return err
		}
		return repo.Save(ctx, card)
	})
	if err != nil {
		return "", err
	}

	utils.WithFields(map[string]interface{}{"user_id": userID, "card_id": cardID}).Info("карта заблокирована")
	return msgCardBlocked, nil
}

// Transfer переводит сумму между двумя картами одного владельца.
// Обе карты блокируются в порядке возрастания id; изменения фиксируются одной транзакцией.
func (s *CardService) Transfer(ctx context.Context, userID, fromID, toID uuid.UUID, amount decimal.Decimal) (msg string, err error) {
	defer s.track("transfer", time.Now(), &err)

	if err = s.lifecycle.ValidateAmount(amount); err != nil {
		return "", err
	}
	if fromID == toID {
		err = ErrSameCard
		return "", err
	}

	err = s.cards.WithinTransaction(ctx, func(repo database.CardRepository) error {
		first, second := fromID, toID
		if bytes.Compare(first[:], second[:]) > 0 {
			first, second = second, first
		}

		// Сначала обе карты должны найтись, владелец проверяется после
		locked := make(map[uuid.UUID]*models.Card, 2)
		for _, id := range []uuid.UUID{first, second} {
			card, err := repo.GetForUpdate(ctx, id)
			if err != nil {
				return mapCardError(err)
			}
			locked[id] = card
		}

		from, to := locked[fromID], locked[toID]
		if from.UserID != userID || to.UserID != userID {
			return ErrCardNotBelongsToUser
		}
		if err := s.lifecycle.Transfer(from, to, amount); err != nil {
			return err
		}
		if err := repo.Save(ctx, from); err != nil {
			return err
		}
		return repo.Save(ctx, to)
	})
	if err != nil {
		return "", err
	}

	utils.WithFields(map[string]interface{}{
		"user_id":   userID,
		"card_from": fromID,
		"card_to":   toID,
		"amount":    amount.StringFixed(2),
	}).Info("перевод выполнен")
	return msgTransferComplete, nil
}

// GetBalance возвращает баланс карты владельца с двумя знаками после запятой
func (s *CardService) GetBalance(ctx context.Context, userID, cardID uuid.UUID) (balance string, err error) {
	defer s.track("balance", time.Now(), &err)

	card, err := s.cards.Get(ctx, cardID)
	if err != nil {
		err = mapCardError(err)
		return "", err
	}
	if card.UserID != userID {
		err = ErrCardNotBelongsToUser
		return "", err
	}
	return card.Balance.StringFixed(2), nil
}

// ListCards возвращает страницу карт владельца с замаскированными номерами
func (s *CardService) ListCards(ctx context.Context, userID uuid.UUID, query CardListQuery) (resp *UserCardsResponseDTO, err error) {
	defer s.track("list", time.Now(), &err)

	if query.Page < 1 || query.PageSize < 1 {
		err = ErrInvalidPage
		return nil, err
	}

	predicate, err := BuildCardPredicate(CardFilter{
		OwnerID:    userID,
		Status:     query.Status,
		ExpireFrom: query.ExpireFrom,
		ExpireTo:   query.ExpireTo,
	})
	if err != nil {
		return nil, err
	}

	page, err := s.cards.FindPage(ctx, predicate, query.Page, query.PageSize)
	if err != nil {
		return nil, err
	}

	cards := make([]UserCardInfo, 0, len(page.Cards))
	for i := range page.Cards {
		cards = append(cards, toUserCardInfo(&page.Cards[i]))
	}
	return &UserCardsResponseDTO{TotalPages: page.TotalPages, Cards: cards}, nil
}

func (s *CardService) track(operation string, start time.Time, err *error) {
	s.metrics.RecordCardOperation(operation, *err)
	utils.LogOperation("card."+operation, start, *err)
}

// lockOwnedCard читает карту с блокировкой и проверяет владельца
func lockOwnedCard(ctx context.Context, repo database.CardRepository, userID, cardID uuid.UUID) (*models.Card, error) {
	card, err := repo.GetForUpdate(ctx, cardID)
	if err != nil {
		return nil, mapCardError(err)
	}
	if card.UserID != userID {
		return nil, ErrCardNotBelongsToUser
	}
	return card, nil
}

func mapCardError(err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return ErrCardNotFound
	}
	return err
}
