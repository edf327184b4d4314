package controllers

import (
	"bankcards/middleware"
	"bankcards/models"
	"bankcards/utils"

	"github.com/gorilla/mux"
)

// Handlers набор контроллеров API
type Handlers struct {
	Auth       *AuthController
	Cards      *CardController
	AdminCards *AdminCardController
	AdminUsers *AdminUserController
}

// NewRouter регистрирует маршруты API
func NewRouter(h Handlers, jwtKey []byte, limiter *utils.RateLimiter, metrics *utils.Metrics) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.Recovery)
	router.Use(middleware.LoggingMiddleware(metrics))
	router.Use(middleware.CORSMiddleware)
	if limiter != nil {
		router.Use(middleware.RateLimit(limiter))
	}

	// Публичные маршруты
	router.HandleFunc("/auth", h.Auth.SignIn).Methods("POST")

	// Операции пользователя со своими картами
	user := router.PathPrefix("/user").Subrouter()
	user.Use(middleware.AuthMiddleware(jwtKey))
	user.HandleFunc("/all", h.Cards.ListCards).Methods("GET")
	user.HandleFunc("/block/{cardId}", h.Cards.BlockCard).Methods("PUT")
	user.HandleFunc("/transfer", h.Cards.Transfer).Methods("PUT")
	user.HandleFunc("/balance/{cardId}", h.Cards.GetBalance).Methods("GET")

	// Администрирование
	admin := router.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.AuthMiddleware(jwtKey))
	admin.Use(middleware.RequireRole(models.RoleAdmin))

	admin.HandleFunc("/cards/all", h.AdminCards.GetAll).Methods("GET")
	admin.HandleFunc("/cards/{cardId}", h.AdminCards.GetByID).Methods("GET")
	admin.HandleFunc("/cards", h.AdminCards.Create).Methods("POST")
	admin.HandleFunc("/cards", h.AdminCards.ChangeStatus).Methods("PUT")
	admin.HandleFunc("/cards/{cardId}", h.AdminCards.Delete).Methods("DELETE")
	admin.HandleFunc("/metrics", h.AdminCards.Metrics).Methods("GET")

	admin.HandleFunc("/users/all", h.AdminUsers.GetAll).Methods("GET")
	admin.HandleFunc("/users/{userId}", h.AdminUsers.GetByID).Methods("GET")
	admin.HandleFunc("/users", h.AdminUsers.Create).Methods("POST")
	admin.HandleFunc("/users/{userId}", h.AdminUsers.Update).Methods("PUT")
	admin.HandleFunc("/users/{userId}", h.AdminUsers.Delete).Methods("DELETE")

	return router
}
