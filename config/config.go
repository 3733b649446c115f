package config

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"thrift-stock-service/app/domain"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Port               string            `mapstructure:"PORT" validate:"required"`
	LogLevel           string            `mapstructure:"LOG_LEVEL"`
	InternalAuthHeader string            `mapstructure:"INTERNAL_AUTH_HEADER" validate:"required"`
	Db                 DbConfig          `mapstructure:",squash"`
	Jwt                JwtConfig         `mapstructure:",squash"`
	Admin              AdminConfig       `mapstructure:",squash"`
	Nats               NatsConfig        `mapstructure:",squash"`
	Smtp               SmtpConfig        `mapstructure:",squash"`
	Reservation        ReservationConfig `mapstructure:",squash"`
	RateLimit          RateLimitConfig   `mapstructure:",squash"`
	Session            SessionConfig     `mapstructure:",squash"`
}

type DbConfig struct {
	Host     string `mapstructure:"DB_HOST" validate:"required"`
	Port     string `mapstructure:"DB_PORT" validate:"required"`
	Username string `mapstructure:"DB_USERNAME" validate:"required"`
	Password string `mapstructure:"DB_PASSWORD" validate:"required"`
	DbName   string `mapstructure:"DB_DBNAME" validate:"required"`
	SSLMode  string `mapstructure:"DB_SSLMODE"`
}

type JwtConfig struct {
	SecretKey string `mapstructure:"JWT_SECRETKEY" validate:"required"`
	Expire    int64  `mapstructure:"JWT_EXPIRE" validate:"required"`
}

type AdminConfig struct {
	// bcrypt hash of the single shared back-office password
	PasswordHash string `mapstructure:"ADMIN_PASSWORD_HASH" validate:"required"`
}

type NatsConfig struct {
	Url        string `mapstructure:"NATS_URL" validate:"required"`
	StreamName string `mapstructure:"NATS_STREAM_NAME" validate:"required"`
}

type SmtpConfig struct {
	Host     string `mapstructure:"SMTP_HOST" validate:"required"`
	Port     int    `mapstructure:"SMTP_PORT" validate:"required"`
	Username string `mapstructure:"SMTP_USERNAME"`
	Password string `mapstructure:"SMTP_PASSWORD"`
	From     string `mapstructure:"SMTP_FROM" validate:"required,email"`
}

type ReservationConfig struct {
	Hold            time.Duration `mapstructure:"RESERVATION_HOLD" validate:"gt=0"`
	RollbackHold    time.Duration `mapstructure:"RESERVATION_ROLLBACK_HOLD" validate:"gt=0"`
	CleanupInterval time.Duration `mapstructure:"RESERVATION_CLEANUP_INTERVAL" validate:"gt=0"`
	RetryAttempts   int           `mapstructure:"RESERVATION_RETRY_ATTEMPTS" validate:"gte=1"`
	RetryBaseDelay  time.Duration `mapstructure:"RESERVATION_RETRY_BASE_DELAY"`
}

type RateLimitConfig struct {
	// "memory" counters are per process; use "postgres" when running more than one instance
	Store             string        `mapstructure:"RATE_LIMIT_STORE" validate:"oneof=memory postgres"`
	RollbackMax       int64         `mapstructure:"RATE_LIMIT_ROLLBACK_MAX" validate:"gt=0"`
	RollbackWindow    time.Duration `mapstructure:"RATE_LIMIT_ROLLBACK_WINDOW" validate:"gt=0"`
	CheckoutMax       int64         `mapstructure:"RATE_LIMIT_CHECKOUT_MAX" validate:"gt=0"`
	CheckoutWindow    time.Duration `mapstructure:"RATE_LIMIT_CHECKOUT_WINDOW" validate:"gt=0"`
	StockMax          int64         `mapstructure:"RATE_LIMIT_STOCK_MAX" validate:"gt=0"`
	StockWindow       time.Duration `mapstructure:"RATE_LIMIT_STOCK_WINDOW" validate:"gt=0"`
	AdminMax          int64         `mapstructure:"RATE_LIMIT_ADMIN_MAX" validate:"gt=0"`
	AdminWindow       time.Duration `mapstructure:"RATE_LIMIT_ADMIN_WINDOW" validate:"gt=0"`
	DeliveryFeeMax    int64         `mapstructure:"RATE_LIMIT_DELIVERY_FEE_MAX" validate:"gt=0"`
	DeliveryFeeWindow time.Duration `mapstructure:"RATE_LIMIT_DELIVERY_FEE_WINDOW" validate:"gt=0"`
}

func (c RateLimitConfig) Rollback() domain.RateLimitConfig {
	return domain.RateLimitConfig{MaxAttempts: c.RollbackMax, Window: c.RollbackWindow}
}

func (c RateLimitConfig) Checkout() domain.RateLimitConfig {
	return domain.RateLimitConfig{MaxAttempts: c.CheckoutMax, Window: c.CheckoutWindow}
}

func (c RateLimitConfig) Stock() domain.RateLimitConfig {
	return domain.RateLimitConfig{MaxAttempts: c.StockMax, Window: c.StockWindow}
}

func (c RateLimitConfig) Admin() domain.RateLimitConfig {
	return domain.RateLimitConfig{MaxAttempts: c.AdminMax, Window: c.AdminWindow}
}

func (c RateLimitConfig) DeliveryFee() domain.RateLimitConfig {
	return domain.RateLimitConfig{MaxAttempts: c.DeliveryFeeMax, Window: c.DeliveryFeeWindow}
}

type SessionConfig struct {
	BindingTTL    time.Duration `mapstructure:"SESSION_BINDING_TTL" validate:"gt=0"`
	SweepInterval time.Duration `mapstructure:"SESSION_SWEEP_INTERVAL" validate:"gt=0"`
}

func setDefaults() {
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("NATS_STREAM_NAME", "stock")
	viper.SetDefault("SMTP_PORT", 587)

	viper.SetDefault("RESERVATION_HOLD", "10m")
	viper.SetDefault("RESERVATION_ROLLBACK_HOLD", "30m")
	viper.SetDefault("RESERVATION_CLEANUP_INTERVAL", "5m")
	viper.SetDefault("RESERVATION_RETRY_ATTEMPTS", 3)
	viper.SetDefault("RESERVATION_RETRY_BASE_DELAY", "100ms")

	viper.SetDefault("RATE_LIMIT_STORE", "memory")
	viper.SetDefault("RATE_LIMIT_ROLLBACK_MAX", 10)
	viper.SetDefault("RATE_LIMIT_ROLLBACK_WINDOW", "5m")
	viper.SetDefault("RATE_LIMIT_CHECKOUT_MAX", 10)
	viper.SetDefault("RATE_LIMIT_CHECKOUT_WINDOW", "1m")
	viper.SetDefault("RATE_LIMIT_STOCK_MAX", 10)
	viper.SetDefault("RATE_LIMIT_STOCK_WINDOW", "1m")
	viper.SetDefault("RATE_LIMIT_ADMIN_MAX", 5)
	viper.SetDefault("RATE_LIMIT_ADMIN_WINDOW", "1m")
	viper.SetDefault("RATE_LIMIT_DELIVERY_FEE_MAX", 60)
	viper.SetDefault("RATE_LIMIT_DELIVERY_FEE_WINDOW", "1m")

	viper.SetDefault("SESSION_BINDING_TTL", "24h")
	viper.SetDefault("SESSION_SWEEP_INTERVAL", "10m")
}

func InitConfig(ctx context.Context) (*Config, error) {
	var cfg Config

	// Reset viper to avoid any previous configuration
	viper.Reset()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetConfigType("env")
	setDefaults()

	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}

	_, err := os.Stat(envFile)
	if !os.IsNotExist(err) {
		viper.SetConfigFile(envFile)

		if err := viper.ReadInConfig(); err != nil {
			slog.WarnContext(ctx, "[InitConfig] ReadInConfig warning, continuing with env vars only", "error", err)
		} else {
			slog.InfoContext(ctx, "[InitConfig] Successfully loaded config file", "file", envFile)
		}
	} else {
		slog.InfoContext(ctx, "[InitConfig] No config file found, using environment variables")
	}

	viper.AutomaticEnv()

	// keys without a default are unknown to viper until bound
	envVars := []string{
		"PORT",
		"DB_HOST",
		"DB_PORT",
		"DB_USERNAME",
		"DB_PASSWORD",
		"DB_DBNAME",
		"JWT_SECRETKEY",
		"JWT_EXPIRE",
		"INTERNAL_AUTH_HEADER",
		"ADMIN_PASSWORD_HASH",
		"NATS_URL",
		"SMTP_HOST",
		"SMTP_USERNAME",
		"SMTP_PASSWORD",
		"SMTP_FROM",
	}
	for _, key := range envVars {
		_ = viper.BindEnv(key)
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		slog.ErrorContext(ctx, "[InitConfig] Unmarshal", "failed bind config", err)
		return nil, err
	}

	slog.InfoContext(ctx, "[InitConfig] Configuration after binding",
		"PORT", cfg.Port,
		"DB_HOST", cfg.Db.Host,
		"DB_PORT", cfg.Db.Port,
		"DB_DBNAME", cfg.Db.DbName,
		"NATS_URL", cfg.Nats.Url,
		"SMTP_HOST", cfg.Smtp.Host,
		"RATE_LIMIT_STORE", cfg.RateLimit.Store,
		"RESERVATION_HOLD", cfg.Reservation.Hold.String(),
		"RESERVATION_ROLLBACK_HOLD", cfg.Reservation.RollbackHold.String())

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		validationErrs, ok := err.(validator.ValidationErrors)
		if ok {
			for _, validationErr := range validationErrs {
				slog.ErrorContext(ctx, "[InitConfig] Validation error",
					"field", validationErr.Field(),
					"namespace", validationErr.Namespace(),
					"tag", validationErr.Tag())
			}
		} else {
			slog.ErrorContext(ctx, "[InitConfig] Validation", "error", err)
		}
		return nil, err
	}

	slog.InfoContext(ctx, "[InitConfig] Config loaded successfully")
	return &cfg, nil
}

// NewTestConfig returns a fully populated config for handler and usecase tests.
func NewTestConfig() *Config {
	return &Config{
		Port:               "8889",
		LogLevel:           "error",
		InternalAuthHeader: "test-internal-token",
		Db: DbConfig{
			Host:     "localhost",
			Port:     "5432",
			Username: "test",
			Password: "test",
			DbName:   "test_db",
			SSLMode:  "disable",
		},
		Jwt: JwtConfig{
			SecretKey: "test-secret",
			Expire:    3600,
		},
		Nats: NatsConfig{Url: "nats://localhost:4222", StreamName: "stock"},
		Smtp: SmtpConfig{Host: "localhost", Port: 1025, From: "shop@example.com"},
		Reservation: ReservationConfig{
			Hold:            10 * time.Minute,
			RollbackHold:    30 * time.Minute,
			CleanupInterval: 5 * time.Minute,
			RetryAttempts:   3,
			RetryBaseDelay:  100 * time.Millisecond,
		},
		RateLimit: RateLimitConfig{
			Store:             "memory",
			RollbackMax:       10,
			RollbackWindow:    5 * time.Minute,
			CheckoutMax:       10,
			CheckoutWindow:    time.Minute,
			StockMax:          10,
			StockWindow:       time.Minute,
			AdminMax:          5,
			AdminWindow:       time.Minute,
			DeliveryFeeMax:    60,
			DeliveryFeeWindow: time.Minute,
		},
		Session: SessionConfig{
			BindingTTL:    24 * time.Hour,
			SweepInterval: 10 * time.Minute,
		},
	}
}
