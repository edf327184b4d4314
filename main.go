package main

import (
	"bankcards/config"
	"bankcards/controllers"
	"bankcards/database"
	"bankcards/services"
	"bankcards/utils"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	if err := run(); err != nil {
		utils.Log.Fatalf("Ошибка запуска сервиса: %v", err)
	}
}

func run() error {
	// Инициализируем конфигурацию
	cfg, err := config.NewConfig()
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}
	if err := utils.ConfigureLogger(cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}

	// Подключение к базе данных и миграции
	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// Ключи шифрования номеров карт передаются хранилищу при старте
	cipher, err := utils.NewCardCipher(cfg.CardEncryptionKey, cfg.CardHMACKey)
	if err != nil {
		return err
	}

	metrics := utils.GetMetrics()
	cardStore := database.NewCardStore(db.DB, cipher)
	userStore := database.NewUserStore(db.DB)
	lifecycle := services.NewCardLifecycle()
	userService := services.NewUserService(userStore)

	router := controllers.NewRouter(controllers.Handlers{
		Auth:       controllers.NewAuthController(userService, cfg),
		Cards:      controllers.NewCardController(services.NewCardService(cardStore, lifecycle, metrics)),
		AdminCards: controllers.NewAdminCardController(services.NewAdminCardService(cardStore, lifecycle, metrics), metrics),
		AdminUsers: controllers.NewAdminUserController(userService),
	}, []byte(cfg.JWT.SecretKey), utils.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window), metrics)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		utils.LogInfo("Сервер запущен на порту %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	utils.LogInfo("Остановка сервера")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
