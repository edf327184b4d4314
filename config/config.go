package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Config представляет конфигурацию приложения
type Config struct {
	Server struct {
		Port            int
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
	}
	DB struct {
		Host            string
		Port            int
		User            string
		Password        string
		DBName          string
		SSLMode         string
		MigrationsPath  string
		MaxIdleConns    int
		MaxOpenConns    int
		ConnMaxLifetime time.Duration
	}
	JWT struct {
		SecretKey string
		ExpiresIn int // в часах
	}
	Log struct {
		Level  string
		Format string
	}
	RateLimit struct {
		Requests int
		Window   time.Duration
	}
	CardEncryptionKey string // Ключ симметричного шифрования номеров карт
	CardHMACKey       string // Ключ для HMAC номеров карт
}

// NewConfig создает конфигурацию из config.yaml (если есть) и переменных окружения
func NewConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	// Настройки сервера
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.shutdown_timeout", "15s")

	// Настройки базы данных
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "bank_cards")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.migrations_path", "migrations")
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.max_open_conns", 100)
	v.SetDefault("db.conn_max_lifetime", "1h")

	// Настройки JWT
	v.SetDefault("jwt.secret_key", "your-secret-key-here")
	v.SetDefault("jwt.expires_in", 24)

	// Настройки логирования
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Ограничение частоты запросов
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	// Настройки карт
	v.SetDefault("card.encryption_key", "your-card-encryption-key-here")
	v.SetDefault("card.hmac_key", "your-card-hmac-key-here")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	var err error

	if cfg.Server.Port, err = getInt(v, "server.port"); err != nil {
		return nil, err
	}
	if cfg.Server.ReadTimeout, err = getDuration(v, "server.read_timeout"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = getDuration(v, "server.write_timeout"); err != nil {
		return nil, err
	}
	if cfg.Server.ShutdownTimeout, err = getDuration(v, "server.shutdown_timeout"); err != nil {
		return nil, err
	}

	cfg.DB.Host = v.GetString("db.host")
	if cfg.DB.Port, err = getInt(v, "db.port"); err != nil {
		return nil, err
	}
	cfg.DB.User = v.GetString("db.user")
	cfg.DB.Password = v.GetString("db.password")
	cfg.DB.DBName = v.GetString("db.name")
	cfg.DB.SSLMode = v.GetString("db.sslmode")
	cfg.DB.MigrationsPath = v.GetString("db.migrations_path")
	if cfg.DB.MaxIdleConns, err = getInt(v, "db.max_idle_conns"); err != nil {
		return nil, err
	}
	if cfg.DB.MaxOpenConns, err = getInt(v, "db.max_open_conns"); err != nil {
		return nil, err
	}
	if cfg.DB.ConnMaxLifetime, err = getDuration(v, "db.conn_max_lifetime"); err != nil {
		return nil, err
	}

	cfg.JWT.SecretKey = v.GetString("jwt.secret_key")
	if cfg.JWT.ExpiresIn, err = getInt(v, "jwt.expires_in"); err != nil {
		return nil, err
	}

	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Format = v.GetString("log.format")

	if cfg.RateLimit.Requests, err = getInt(v, "rate_limit.requests"); err != nil {
		return nil, err
	}
	if cfg.RateLimit.Window, err = getDuration(v, "rate_limit.window"); err != nil {
		return nil, err
	}

	cfg.CardEncryptionKey = v.GetString("card.encryption_key")
	cfg.CardHMACKey = v.GetString("card.hmac_key")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWT.SecretKey == "" {
		return errors.New("JWT_SECRET_KEY не задан")
	}
	if c.JWT.ExpiresIn <= 0 {
		return errors.New("JWT_EXPIRES_IN должен быть больше 0")
	}
	if c.CardEncryptionKey == "" {
		return errors.New("CARD_ENCRYPTION_KEY не задан")
	}
	if c.CardHMACKey == "" {
		return errors.New("CARD_HMAC_KEY не задан")
	}
	if c.RateLimit.Requests <= 0 {
		return errors.New("RATE_LIMIT_REQUESTS должен быть больше 0")
	}
	return nil
}

// DSN возвращает строку подключения для gorm
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.DBName, c.DB.SSLMode)
}

// MigrationURL возвращает URL базы данных для golang-migrate
func (c *Config) MigrationURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.DBName, c.DB.SSLMode)
}

// getInt читает целое значение, сообщая о неверном формате
func getInt(v *viper.Viper, key string) (int, error) {
	value, err := cast.ToIntE(v.Get(key))
	if err != nil {
		return 0, fmt.Errorf("неверный формат %s: %w", envName(key), err)
	}
	return value, nil
}

func getDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("неверный формат %s: %w", envName(key), err)
	}
	return d, nil
}

func envName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
