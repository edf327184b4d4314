package models

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role представляет роль пользователя
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole разбирает строку роли без учета регистра
func ParseRole(raw string) (Role, bool) {
	switch role := Role(strings.ToUpper(raw)); role {
	case RoleUser, RoleAdmin:
		return role, true
	}
	return "", false
}

type User struct {
	ID               uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	FirstAndLastName string    `gorm:"column:first_and_last_name;not null;size:50"`
	Username         string    `gorm:"column:username;unique;not null;size:50"`
	Password         string    `gorm:"column:password;not null;size:100"`
	Role             Role      `gorm:"column:role;not null;size:10"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate хук для генерации id и валидации перед созданием
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if n := utf8.RuneCountInString(u.FirstAndLastName); n == 0 || n > 50 {
		return errors.New("first and last name must be between 1 and 50 characters")
	}
	if n := utf8.RuneCountInString(u.Username); n == 0 || n > 50 {
		return errors.New("username must be between 1 and 50 characters")
	}
	return nil
}
