package services

import (
	"errors"
)

// ErrorKind категория ошибки, по которой транспорт выбирает код ответа
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindBusiness
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindBusiness:
		return "business"
	case KindValidation:
		return "validation"
	default:
		return "internal"
	}
}

// ServiceError типизированная ошибка бизнес-логики
type ServiceError struct {
	Kind    ErrorKind
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

var (
	ErrCardNotFound = &ServiceError{KindNotFound, "Карта с таким id не найдена в базе данных"}
	ErrUserNotFound = &ServiceError{KindNotFound, "Пользователь с таким id не найден в базе данных"}

	ErrCardNotBelongsToUser = &ServiceError{KindBusiness, "Операция невозможна. Карта не принадлежит этому пользователю"}
	ErrNotEnoughMoney       = &ServiceError{KindBusiness, "На карте недостаточно средств для перевода"}
	ErrWrongCardStatus      = &ServiceError{KindBusiness, "Статус может быть только ACTIVE, BLOCKED или EXPIRED"}
	ErrWrongUserRole        = &ServiceError{KindBusiness, "Роль пользователя может быть только USER или ADMIN"}
	ErrSameCard             = &ServiceError{KindBusiness, "Нельзя перевести средства на ту же карту"}
	ErrCardNotBlockable     = &ServiceError{KindBusiness, "Карту с истекшим сроком действия нельзя заблокировать"}
	ErrCardNumberExists     = &ServiceError{KindBusiness, "Карта с таким номером уже существует"}
	ErrUsernameTaken        = &ServiceError{KindBusiness, "Пользователь с таким username уже существует"}

	ErrInvalidAmount     = &ServiceError{KindValidation, "Сумма перевода должна быть больше 0 и содержать не более двух знаков после запятой"}
	ErrNegativeBalance   = &ServiceError{KindValidation, "Баланс не может быть отрицательным"}
	ErrBalanceRequired   = &ServiceError{KindValidation, "Начальный баланс карты обязателен"}
	ErrExpirationInPast  = &ServiceError{KindValidation, "Дата окончания действия карты должна быть в будущем или сегодня"}
	ErrInvalidDate       = &ServiceError{KindValidation, "Дата должна быть в формате ГГГГ-ММ-ДД"}
	ErrInvalidPage       = &ServiceError{KindValidation, "Номер и размер страницы должны быть больше 0"}
	ErrInvalidCardNumber = &ServiceError{KindValidation, "Номер карты должен выглядеть как 16 цифр в блоках по 4 разделенных пробелом"}
	ErrBadCredentials    = &ServiceError{KindValidation, "Неверный логин или пароль"}
)

// KindOf возвращает категорию ошибки; неизвестные ошибки считаются внутренними
func KindOf(err error) ErrorKind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}
