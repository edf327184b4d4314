package services

import (
	"bankcards/models"
	"strings"

	"github.com/google/uuid"
)

const maskedGroup = "****"

// UserCardInfo карта в ответе пользователю (номер замаскирован)
type UserCardInfo struct {
	CardNumber     string `json:"cardNumber"`
	ExpirationDate string `json:"expirationDate"`
	CardStatus     string `json:"cardStatus"`
	Balance        string `json:"balance"`
}

// UserCardsResponseDTO страница карт пользователя
type UserCardsResponseDTO struct {
	TotalPages int            `json:"totalPages"`
	Cards      []UserCardInfo `json:"cards"`
}

// AdminCardInfoDTO карта в ответе администратору
type AdminCardInfoDTO struct {
	CardID           uuid.UUID `json:"cardId"`
	CardNumber       string    `json:"cardNumber"`
	FirstAndLastName string    `json:"firstAndLastName"`
	ExpirationDate   string    `json:"expirationDate"`
	CardStatus       string    `json:"cardStatus"`
	Balance          string    `json:"balance"`
}

// AdminUserInfoDTO пользователь в ответе администратору, без учетных данных
type AdminUserInfoDTO struct {
	UserID           uuid.UUID `json:"userId"`
	FirstAndLastName string    `json:"firstAndLastName"`
	Role             string    `json:"role"`
}

// MaskCardNumber оставляет видимой только последнюю группу цифр.
// Повторное маскирование ничего не меняет.
func MaskCardNumber(number string) string {
	groups := strings.Split(number, " ")
	for i := 0; i < len(groups)-1; i++ {
		groups[i] = maskedGroup
	}
	return strings.Join(groups, " ")
}

func toUserCardInfo(card *models.Card) UserCardInfo {
	return UserCardInfo{
		CardNumber:     MaskCardNumber(card.Number),
		ExpirationDate: card.ExpirationDate.Format(models.DateLayout),
		CardStatus:     string(card.Status),
		Balance:        card.Balance.StringFixed(2),
	}
}

func toAdminCardInfo(card *models.Card) AdminCardInfoDTO {
	return AdminCardInfoDTO{
		CardID:           card.ID,
		CardNumber:       card.Number,
		FirstAndLastName: card.HolderName,
		ExpirationDate:   card.ExpirationDate.Format(models.DateLayout),
		CardStatus:       string(card.Status),
		Balance:          card.Balance.StringFixed(2),
	}
}

func toAdminUserInfo(user *models.User) AdminUserInfoDTO {
	return AdminUserInfoDTO{
		UserID:           user.ID,
		FirstAndLastName: user.FirstAndLastName,
		Role:             string(user.Role),
	}
}
