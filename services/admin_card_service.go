package services

import (
	"bankcards/database"
	"bankcards/models"
	"bankcards/utils"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateCardRequest данные для выпуска карты
type CreateCardRequest struct {
	CardNumber     string           `json:"cardNumber" validate:"required,cardnumber"`
	UserID         uuid.UUID        `json:"userId" validate:"required"`
	ExpirationDate string           `json:"expirationDate" validate:"required,notpast"`
	CardStatus     string           `json:"cardStatus" validate:"required,cardstatus"`
	Balance        *decimal.Decimal `json:"balance" validate:"required"`
}

// AdminCardService операции администратора над картами, без проверки владельца
type AdminCardService struct {
	cards     database.CardRepository
	lifecycle *CardLifecycle
	metrics   *utils.Metrics
}

func NewAdminCardService(cards database.CardRepository, lifecycle *CardLifecycle, metrics *utils.Metrics) *AdminCardService {
	return &AdminCardService{
		cards:     cards,
		lifecycle: lifecycle,
		metrics:   metrics,
	}
}

func (s *AdminCardService) GetByID(ctx context.Context, cardID uuid.UUID) (*AdminCardInfoDTO, error) {
	card, err := s.cards.Get(ctx, cardID)
	if err != nil {
		return nil, mapCardError(err)
	}
	dto := toAdminCardInfo(card)
	return &dto, nil
}

func (s *AdminCardService) GetAll(ctx context.Context) ([]AdminCardInfoDTO, error) {
	cards, err := s.cards.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]AdminCardInfoDTO, 0, len(cards))
	for i := range cards {
		result = append(result, toAdminCardInfo(&cards[i]))
	}
	return result, nil
}

// Create выпускает карту существующему пользователю
func (s *AdminCardService) Create(ctx context.Context, req CreateCardRequest) (dto *AdminCardInfoDTO, err error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordCardOperation("create", err)
		utils.LogOperation("card.create", start, err)
	}()

	expiration, err := time.Parse(models.DateLayout, req.ExpirationDate)
	if err != nil {
		err = ErrInvalidDate
		return nil, err
	}
	status, err := parseCardStatus(req.CardStatus)
	if err != nil {
		return nil, err
	}
	if req.Balance == nil {
		err = ErrBalanceRequired
		return nil, err
	}

	card := &models.Card{
		Number:         strings.TrimSpace(req.CardNumber),
		UserID:         req.UserID,
		ExpirationDate: expiration,
		Status:         status,
		Balance:        *req.Balance,
	}
	if err = s.lifecycle.ValidateNew(card); err != nil {
		return nil, err
	}

	err = s.cards.WithinTransaction(ctx, func(repo database.CardRepository) error {
		exists, err := repo.OwnerExists(ctx, card.UserID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrUserNotFound
		}

		taken, err := repo.ExistsByNumber(ctx, card.Number)
		if err != nil {
			return err
		}
		if taken {
			return ErrCardNumberExists
		}

		if err := repo.Save(ctx, card); err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				return ErrCardNumberExists
			}
			return err
		}
		created, err := repo.Get(ctx, card.ID)
		if err != nil {
			return err
		}
		card = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.LogInfo("выпущена карта %s пользователю %s", card.ID, card.UserID)
	result := toAdminCardInfo(card)
	return &result, nil
}

// ChangeStatus задает статус карты; строка статуса разбирается без учета регистра
func (s *AdminCardService) ChangeStatus(ctx context.Context, cardID uuid.UUID, status string) (msg string, err error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordCardOperation("change_status", err)
		utils.LogOperation("card.change_status", start, err)
	}()

	err = s.cards.WithinTransaction(ctx, func(repo database.CardRepository) error {
		card, err := repo.GetForUpdate(ctx, cardID)
		if err != nil {
			return mapCardError(err)
		}
		if err := s.lifecycle.ChangeStatus(card, status); err != nil {
			return err
		}
		return repo.Save(ctx, card)
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Статус карты с id %s успешно изменен", cardID), nil
}

// Delete удаляет карту; отсутствующая карта является ошибкой
func (s *AdminCardService) Delete(ctx context.Context, cardID uuid.UUID) (msg string, err error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordCardOperation("delete", err)
		utils.LogOperation("card.delete", start, err)
	}()

	if err = s.cards.Delete(ctx, cardID); err != nil {
		err = mapCardError(err)
		return "", err
	}
	return fmt.Sprintf("Карта с ID: %s успешно удалёна", cardID), nil
}
