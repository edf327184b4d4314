package controllers

import (
	"bankcards/models"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var cardNumberRegexp = regexp.MustCompile(`^\d{4} \d{4} \d{4} \d{4}$`)

// newValidator создает валидатор с правилами для карт и пользователей
func newValidator() *validator.Validate {
	validate := validator.New()

	// Номер карты: 16 цифр в блоках по 4 через пробел
	validate.RegisterValidation("cardnumber", func(fl validator.FieldLevel) bool {
		return cardNumberRegexp.MatchString(fl.Field().String())
	})

	// Дата в формате ГГГГ-ММ-ДД не раньше сегодняшней
	validate.RegisterValidation("notpast", func(fl validator.FieldLevel) bool {
		date, err := time.Parse(models.DateLayout, fl.Field().String())
		if err != nil {
			return false
		}
		now := time.Now().UTC()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return !date.Before(today)
	})

	validate.RegisterValidation("cardstatus", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseCardStatus(fl.Field().String())
		return ok
	})

	validate.RegisterValidation("userrole", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseRole(fl.Field().String())
		return ok
	})

	return validate
}

// validateRequest валидирует DTO и возвращает ошибки валидации
func validateRequest(validate *validator.Validate, dto interface{}) error {
	err := validate.Struct(dto)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	var errorMessages []string
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			errorMessages = append(errorMessages, "поле "+e.Field()+" обязательно")
		case "min":
			errorMessages = append(errorMessages, "поле "+e.Field()+" должно быть не короче "+e.Param())
		case "max":
			errorMessages = append(errorMessages, "поле "+e.Field()+" должно быть не длиннее "+e.Param())
		case "cardnumber":
			errorMessages = append(errorMessages, "поле "+e.Field()+" должно содержать 16 цифр в блоках по 4 через пробел")
		case "notpast":
			errorMessages = append(errorMessages, "поле "+e.Field()+" должно быть датой ГГГГ-ММ-ДД не раньше сегодняшней")
		case "cardstatus":
			errorMessages = append(errorMessages, "поле "+e.Field()+" должно быть одним из: ACTIVE, BLOCKED, EXPIRED")
		case "userrole":
			errorMessages = append(errorMessages, "поле "+e.Field()+" должно быть одним из: USER, ADMIN")
		default:
			errorMessages = append(errorMessages, "поле "+e.Field()+" заполнено неверно")
		}
	}
	return errors.New(strings.Join(errorMessages, "; "))
}
