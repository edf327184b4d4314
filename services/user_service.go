package services

import (
	"bankcards/database"
	"bankcards/models"
	"bankcards/utils"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserRequest данные для создания и обновления пользователя
type UserRequest struct {
	FirstAndLastName string `json:"firstAndLastName" validate:"required,min=1,max=50"`
	Username         string `json:"username" validate:"required,min=1,max=50"`
	Password         string `json:"password" validate:"required,min=4,max=72"`
	Role             string `json:"role" validate:"required,userrole"`
}

type UserService struct {
	users database.UserRepository
}

func NewUserService(users database.UserRepository) *UserService {
	return &UserService{users: users}
}

// Authenticate проверяет логин и пароль. Неизвестный логин и неверный пароль неразличимы.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*AdminUserInfoDTO, error) {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, mapUserError(err)
	}
	dto := toAdminUserInfo(user)
	return &dto, nil
}

func (s *UserService) GetAll(ctx context.Context) ([]AdminUserInfoDTO, error) {
	users, err := s.users.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]AdminUserInfoDTO, 0, len(users))
	for i := range users {
		result = append(result, toAdminUserInfo(&users[i]))
	}
	return result, nil
}

// Create создает пользователя с хешированным паролем
func (s *UserService) Create(ctx context.Context, req UserRequest) (*AdminUserInfoDTO, error) {
	user, err := s.buildUser(ctx, uuid.Nil, req)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	utils.LogInfo("создан пользователь %s с ролью %s", user.ID, user.Role)
	dto := toAdminUserInfo(user)
	return &dto, nil
}

// Update полностью заменяет данные пользователя, пароль хешируется заново
func (s *UserService) Update(ctx context.Context, id uuid.UUID, req UserRequest) (*AdminUserInfoDTO, error) {
	user, err := s.buildUser(ctx, id, req)
	if err != nil {
		return nil, err
	}
	user.ID = id

	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapUserError(err)
	}

	dto := toAdminUserInfo(user)
	return &dto, nil
}

// Delete удаляет пользователя вместе с его картами
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) (string, error) {
	if err := s.users.Delete(ctx, id); err != nil {
		return "", mapUserError(err)
	}
	utils.LogInfo("удален пользователь %s", id)
	return fmt.Sprintf("Пользователь с ID: %s успешно удалён", id), nil
}

func (s *UserService) buildUser(ctx context.Context, id uuid.UUID, req UserRequest) (*models.User, error) {
	role, ok := models.ParseRole(req.Role)
	if !ok {
		return nil, ErrWrongUserRole
	}

	username := strings.TrimSpace(req.Username)
	taken, err := s.users.UsernameTaken(ctx, username, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("не удалось хешировать пароль: %w", err)
	}

	return &models.User{
		FirstAndLastName: strings.TrimSpace(req.FirstAndLastName),
		Username:         username,
		Password:         string(hashedPassword),
		Role:             role,
	}, nil
}

func mapUserError(err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}
