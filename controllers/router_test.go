package controllers

import (
	"bankcards/config"
	"bankcards/database"
	"bankcards/models"
	"bankcards/services"
	"bankcards/utils"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testJWTKey = "test-jwt-key"

type apiEnv struct {
	router *mux.Router
	users  *services.UserService
	cards  *database.CardStore
}

func setupAPI(t *testing.T) *apiEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard, TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))

	cipher, err := utils.NewCardCipher("test-passphrase", "test-hmac-key")
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.JWT.SecretKey = testJWTKey
	cfg.JWT.ExpiresIn = 1

	metrics := utils.NewMetrics()
	cardStore := database.NewCardStore(db, cipher)
	lifecycle := services.NewCardLifecycle()
	userService := services.NewUserService(database.NewUserStore(db))

	router := NewRouter(Handlers{
		Auth:       NewAuthController(userService, cfg),
		Cards:      NewCardController(services.NewCardService(cardStore, lifecycle, metrics)),
		AdminCards: NewAdminCardController(services.NewAdminCardService(cardStore, lifecycle, metrics), metrics),
		AdminUsers: NewAdminUserController(userService),
	}, []byte(testJWTKey), nil, metrics)

	return &apiEnv{router: router, users: userService, cards: cardStore}
}

func (e *apiEnv) createUser(t *testing.T, username, role string) uuid.UUID {
	t.Helper()
	user, err := e.users.Create(context.Background(), services.UserRequest{
		FirstAndLastName: "Test " + username,
		Username:         username,
		Password:         "password",
		Role:             role,
	})
	require.NoError(t, err)
	return user.UserID
}

func (e *apiEnv) createCard(t *testing.T, owner uuid.UUID, number, balance string) uuid.UUID {
	t.Helper()
	card := &models.Card{
		Number:         number,
		UserID:         owner,
		ExpirationDate: time.Now().UTC().AddDate(1, 0, 0),
		Status:         models.CardStatusActive,
		Balance:        decimal.RequireFromString(balance),
	}
	require.NoError(t, e.cards.Save(context.Background(), card))
	return card.ID
}

func signToken(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID.String(),
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTKey))
	require.NoError(t, err)
	return signed
}

func (e *apiEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		b, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestSignIn(t *testing.T) {
	env := setupAPI(t)
	userID := env.createUser(t, "ivan", "USER")

	w := env.do("POST", "/auth", "", SignInRequest{Username: "ivan", Password: "password"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp SignInResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, userID, resp.UserID)

	// Выданный токен принимается защищенными маршрутами
	w = env.do("GET", "/user/all", resp.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do("POST", "/auth", "", SignInRequest{Username: "ivan", Password: "wrong"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	var errResp struct {
		Status int    `json:"status"`
		Error  string `json:"error"`
		Path   string `json:"path"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	require.Equal(t, http.StatusUnauthorized, errResp.Status)
	require.Equal(t, "/auth", errResp.Path)
	require.NotEmpty(t, errResp.Error)
}

func TestAuthRequired(t *testing.T) {
	env := setupAPI(t)
	userID := env.createUser(t, "ivan", "USER")

	w := env.do("GET", "/user/all", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do("GET", "/user/all", "garbage", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do("GET", "/admin/cards/all", signToken(t, userID, "USER"), nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestUserCardRoutes(t *testing.T) {
	env := setupAPI(t)
	owner := env.createUser(t, "owner", "USER")
	stranger := env.createUser(t, "stranger", "USER")
	a := env.createCard(t, owner, "1111 2222 3333 0001", "100.00")
	b := env.createCard(t, owner, "1111 2222 3333 0002", "10.00")
	token := signToken(t, owner, "USER")

	w := env.do("PUT", fmt.Sprintf("/user/transfer?idCardFrom=%s&idCardTo=%s&amount=40", a, b), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Сумма успешно переведена между картами", w.Body.String())
	require.Contains(t, w.Header().Get("Content-Type"), "text/plain")

	w = env.do("GET", "/user/balance/"+a.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "60.00", w.Body.String())

	w = env.do("PUT", fmt.Sprintf("/user/transfer?idCardFrom=%s&idCardTo=%s&amount=1000", a, b), token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("PUT", fmt.Sprintf("/user/transfer?idCardFrom=%s&idCardTo=%s&amount=abc", a, b), token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("GET", "/user/balance/"+uuid.NewString(), token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.do("GET", "/user/balance/not-a-uuid", token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("PUT", "/user/block/"+a.String(), signToken(t, stranger, "USER"), nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("PUT", "/user/block/"+a.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do("GET", "/user/all?cardStatus=ACTIVE&page=1&pageSize=5", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list services.UserCardsResponseDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 1, list.TotalPages)
	require.Len(t, list.Cards, 1)
	require.Equal(t, "**** **** **** 0002", list.Cards[0].CardNumber)
	require.Equal(t, "50.00", list.Cards[0].Balance)

	w = env.do("GET", "/user/all?cardStatus=LOST", token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do("GET", "/user/all?expireFrom=tomorrow", token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminCardRoutes(t *testing.T) {
	env := setupAPI(t)
	admin := env.createUser(t, "admin", "ADMIN")
	owner := env.createUser(t, "owner", "USER")
	token := signToken(t, admin, "ADMIN")
	expiration := time.Now().UTC().AddDate(2, 0, 0).Format(models.DateLayout)

	w := env.do("POST", "/admin/cards", token, map[string]interface{}{
		"cardNumber":     "4000 1234 5678 9010",
		"userId":         owner,
		"expirationDate": expiration,
		"cardStatus":     "ACTIVE",
		"balance":        "15.00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var card services.AdminCardInfoDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &card))
	require.Equal(t, "4000 1234 5678 9010", card.CardNumber)
	require.Equal(t, "Test owner", card.FirstAndLastName)

	// Без начального баланса карта не выпускается
	w = env.do("POST", "/admin/cards", token, map[string]interface{}{
		"cardNumber":     "4000 1234 5678 9011",
		"userId":         owner,
		"expirationDate": expiration,
		"cardStatus":     "ACTIVE",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Balance")

	w = env.do("POST", "/admin/cards", token, map[string]interface{}{
		"cardNumber":     "4000123456789010",
		"userId":         owner,
		"expirationDate": "2001-01-01",
		"cardStatus":     "SOMETHING",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("GET", "/admin/cards/all", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all []services.AdminCardInfoDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	require.Len(t, all, 1)

	w = env.do("GET", "/admin/cards/"+card.CardID.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do("PUT", fmt.Sprintf("/admin/cards?cardId=%s&status=blocked", card.CardID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do("PUT", fmt.Sprintf("/admin/cards?cardId=%s&status=frozen", card.CardID), token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("DELETE", "/admin/cards/"+card.CardID.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do("DELETE", "/admin/cards/"+card.CardID.String(), token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.do("GET", "/admin/metrics", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "card_operations")
}

func TestAdminUserRoutes(t *testing.T) {
	env := setupAPI(t)
	admin := env.createUser(t, "admin", "ADMIN")
	token := signToken(t, admin, "ADMIN")

	w := env.do("POST", "/admin/users", token, services.UserRequest{
		FirstAndLastName: "Petr Sidorov",
		Username:         "petr",
		Password:         "password",
		Role:             "USER",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var user services.AdminUserInfoDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	require.NotContains(t, w.Body.String(), "password")

	w = env.do("POST", "/admin/users", token, services.UserRequest{
		FirstAndLastName: "Petr Sidorov",
		Username:         "petr",
		Password:         "password",
		Role:             "OWNER",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("PUT", "/admin/users/"+user.UserID.String(), token, services.UserRequest{
		FirstAndLastName: "Petr Petrov",
		Username:         "petr",
		Password:         "password2",
		Role:             "ADMIN",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do("GET", "/admin/users/all", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []services.AdminUserInfoDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	require.Len(t, users, 2)

	w = env.do("DELETE", "/admin/users/"+user.UserID.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do("GET", "/admin/users/"+user.UserID.String(), token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
