package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/bookcart/internal/service/payment"
)

// StorageDriver определяет backend хранения корзин и объявлений.
type StorageDriver string

const (
	StorageDriverMemory   StorageDriver = "memory"
	StorageDriverPostgres StorageDriver = "postgres"
)

// Config описывает настройки запуска приложения.
type Config struct {
	HTTPAddr    string
	GRPCAddr    string
	MetricsAddr string

	StorageDriver       StorageDriver
	PostgresDSN         string
	PostgresAutoMigrate bool

	// CatalogURL — адрес внешнего каталога книг. Пустое значение включает демо-каталог в памяти.
	CatalogURL     string
	CatalogTimeout time.Duration
	KafkaBrokers   string

	OutboxPollInterval time.Duration
	OutboxMaxAttempts  int

	SubmitTimeout   time.Duration
	SessionTTL      time.Duration
	IdleTTL         time.Duration
	JanitorInterval time.Duration

	PaymentDelay    time.Duration
	PaymentRetry    payment.RetryConfig
	BreakerFailures int
	BreakerReset    time.Duration
}

// DefaultConfig возвращает конфигурацию для локального запуска.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:            ":8080",
		GRPCAddr:            ":50051",
		MetricsAddr:         ":9090",
		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		CatalogTimeout:      5 * time.Second,
		OutboxPollInterval:  time.Second,
		OutboxMaxAttempts:   5,
		SubmitTimeout:       30 * time.Second,
		SessionTTL:          30 * time.Minute,
		IdleTTL:             2 * time.Hour,
		JanitorInterval:     time.Minute,
		PaymentDelay:        200 * time.Millisecond,
		PaymentRetry:        payment.DefaultRetryConfig(),
		BreakerFailures:     5,
		BreakerReset:        30 * time.Second,
	}
}

// Validate проверяет согласованность настроек.
func (c Config) Validate() error {
	var errs []error
	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("postgres storage driver requires dsn"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage driver %q", c.StorageDriver))
	}
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http address is required"))
	}
	if c.SubmitTimeout < 0 {
		errs = append(errs, errors.New("submit timeout must not be negative"))
	}
	if c.SessionTTL < 0 || c.IdleTTL < 0 {
		errs = append(errs, errors.New("ttl values must not be negative"))
	}
	if c.PaymentRetry.MaxAttempts < 0 {
		errs = append(errs, errors.New("payment retry attempts must not be negative"))
	}
	return errors.Join(errs...)
}
