package middleware

import (
	"bankcards/models"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const principalKey contextKey = "principal"

// Principal пользователь, от имени которого выполняется запрос
type Principal struct {
	UserID uuid.UUID
	Role   models.Role
}

// AuthMiddleware проверяет JWT токен и добавляет пользователя в контекст запроса
func AuthMiddleware(jwtKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Получаем токен из заголовка
			tokenString := r.Header.Get("Authorization")
			if tokenString == "" {
				WriteError(w, r, http.StatusUnauthorized, "Требуется заголовок Authorization")
				return
			}
			tokenString = strings.TrimPrefix(tokenString, "Bearer ")

			principal, err := parseToken(tokenString, jwtKey)
			if err != nil {
				WriteError(w, r, http.StatusUnauthorized, "Недействительный токен")
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseToken(tokenString string, jwtKey []byte) (*Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtKey, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	rawID, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("invalid user_id in token: %w", err)
	}
	rawRole, _ := claims["role"].(string)
	role, ok := models.ParseRole(rawRole)
	if !ok {
		return nil, fmt.Errorf("invalid role in token: %q", rawRole)
	}

	return &Principal{UserID: userID, Role: role}, nil
}

// RequireRole пропускает только пользователей с указанной ролью
func RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := GetUserFromContext(r)
			if err != nil {
				WriteError(w, r, http.StatusUnauthorized, "Пользователь не аутентифицирован")
				return
			}
			if principal.Role != role {
				WriteError(w, r, http.StatusForbidden, "Недостаточно прав для выполнения операции")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext получает информацию о пользователе из контекста
func GetUserFromContext(r *http.Request) (*Principal, error) {
	principal, ok := r.Context().Value(principalKey).(*Principal)
	if !ok {
		return nil, errors.New("principal not found in context")
	}
	return principal, nil
}
