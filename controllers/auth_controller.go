package controllers

import (
	"bankcards/config"
	"bankcards/middleware"
	"bankcards/services"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type AuthController struct {
	users    *services.UserService
	validate *validator.Validate
	config   *config.Config
}

type SignInRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required"`
}

type SignInResponse struct {
	UserID uuid.UUID `json:"userId"`
	Token  string    `json:"token"`
}

func NewAuthController(users *services.UserService, cfg *config.Config) *AuthController {
	return &AuthController{
		users:    users,
		validate: newValidator(),
		config:   cfg,
	}
}

// SignIn обрабатывает вход пользователя
func (c *AuthController) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, "Неверное тело запроса")
		return
	}

	// Валидация запроса
	if err := validateRequest(c.validate, req); err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := c.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	tokenString, err := c.generateToken(user.ID, string(user.Role))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SignInResponse{UserID: user.ID, Token: tokenString})
}

// generateToken создает JWT токен
func (c *AuthController) generateToken(userID uuid.UUID, role string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"role":    role,
		"iat":     now.Unix(),
		"exp":     now.Add(time.Duration(c.config.JWT.ExpiresIn) * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(c.config.JWT.SecretKey))
}
