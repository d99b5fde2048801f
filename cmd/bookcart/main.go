package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookcart/internal/app"
)

const (
	envLogLevel            = "BOOKCART_LOG_LEVEL"
	envHTTPAddr            = "BOOKCART_HTTP_ADDR"
	envGRPCAddr            = "BOOKCART_GRPC_ADDR"
	envMetricsAddr         = "BOOKCART_METRICS_ADDR"
	envStorageDriver       = "BOOKCART_STORAGE_DRIVER"
	envPostgresDSN         = "BOOKCART_POSTGRES_DSN"
	envPostgresAutoMigrate = "BOOKCART_POSTGRES_AUTO_MIGRATE"
	envCatalogURL          = "BOOKCART_CATALOG_URL"
	envCatalogTimeout      = "BOOKCART_CATALOG_TIMEOUT"
	envKafkaBrokers        = "KAFKA_BROKERS"
	envOutboxPollInterval  = "BOOKCART_OUTBOX_POLL_INTERVAL"
	envOutboxMaxAttempts   = "BOOKCART_OUTBOX_MAX_ATTEMPTS"
	envSubmitTimeout       = "BOOKCART_SUBMIT_TIMEOUT"
	envSessionTTL          = "BOOKCART_SESSION_TTL"
	envIdleTTL             = "BOOKCART_IDLE_TTL"
	envJanitorInterval     = "BOOKCART_JANITOR_INTERVAL"
	envPaymentDelay        = "BOOKCART_PAYMENT_DELAY"
	envPaymentMaxAttempts  = "BOOKCART_PAYMENT_MAX_ATTEMPTS"
)

type envLookup func(string) (string, bool)

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger(lookup envLookup) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
	if raw, ok := lookup(envLogLevel); ok {
		level, err := log.ParseLevel(strings.TrimSpace(raw))
		if err != nil {
			log.WithError(err).Warnf("invalid %s, using info", envLogLevel)
			return
		}
		log.SetLevel(level)
	}
}

// readConfigFromEnv формирует конфигурацию приложения. Некорректные значения
// не прерывают запуск: остаётся значение по умолчанию, а причина попадает в warnings.
func readConfigFromEnv(lookup envLookup) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string
	warn := func(key string, err error) {
		warnings = append(warnings, fmt.Sprintf("%s: %v", key, err))
	}

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	duration := func(key string, dst *time.Duration, valid func(time.Duration) bool, rule string) {
		v, ok := lookup(key)
		if !ok {
			return
		}
		parsed, err := parseDuration(v, valid, rule)
		if err != nil {
			warn(key, err)
			return
		}
		*dst = parsed
	}

	str(envHTTPAddr, &cfg.HTTPAddr)
	str(envGRPCAddr, &cfg.GRPCAddr)
	str(envMetricsAddr, &cfg.MetricsAddr)
	str(envCatalogURL, &cfg.CatalogURL)
	str(envKafkaBrokers, &cfg.KafkaBrokers)

	str(envPostgresDSN, &cfg.PostgresDSN)
	if cfg.PostgresDSN != "" {
		cfg.StorageDriver = app.StorageDriverPostgres
	}
	if v, ok := lookup(envStorageDriver); ok && strings.TrimSpace(v) != "" {
		cfg.StorageDriver = app.StorageDriver(strings.ToLower(strings.TrimSpace(v)))
	}
	if v, ok := lookup(envPostgresAutoMigrate); ok {
		parsed, err := parseBool(v)
		if err != nil {
			warn(envPostgresAutoMigrate, err)
		} else {
			cfg.PostgresAutoMigrate = parsed
		}
	}

	positive := func(v time.Duration) bool { return v > 0 }
	nonNegative := func(v time.Duration) bool { return v >= 0 }
	duration(envCatalogTimeout, &cfg.CatalogTimeout, positive, "must be > 0")
	duration(envSubmitTimeout, &cfg.SubmitTimeout, positive, "must be > 0")
	duration(envSessionTTL, &cfg.SessionTTL, positive, "must be > 0")
	duration(envIdleTTL, &cfg.IdleTTL, positive, "must be > 0")
	duration(envJanitorInterval, &cfg.JanitorInterval, positive, "must be > 0")
	duration(envPaymentDelay, &cfg.PaymentDelay, nonNegative, "must be >= 0")
	duration(envOutboxPollInterval, &cfg.OutboxPollInterval, positive, "must be > 0")

	attempts := func(key string, dst *int) {
		v, ok := lookup(key)
		if !ok {
			return
		}
		parsed, err := parseInt(v, func(n int) bool { return n > 0 }, "must be > 0")
		if err != nil {
			warn(key, err)
			return
		}
		*dst = parsed
	}
	attempts(envPaymentMaxAttempts, &cfg.PaymentRetry.MaxAttempts)
	attempts(envOutboxMaxAttempts, &cfg.OutboxMaxAttempts)

	return cfg, warnings
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool value %q", raw)
	}
}

func parseInt(raw string, valid func(int) bool, rule string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid int value %q: %w", raw, err)
	}
	if !valid(value) {
		return 0, fmt.Errorf("value %d %s", value, rule)
	}
	return value, nil
}

func parseDuration(raw string, valid func(time.Duration) bool, rule string) (time.Duration, error) {
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid duration value %q: %w", raw, err)
	}
	if !valid(value) {
		return 0, fmt.Errorf("value %s %s", value, rule)
	}
	return value, nil
}

func main() {
	setupLogger(os.LookupEnv)
	cfg, warnings := readConfigFromEnv(os.LookupEnv)
	for _, w := range warnings {
		log.Warnf("config: %s, using default", w)
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("некорректная конфигурация")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"http_addr":      cfg.HTTPAddr,
		"grpc_addr":      cfg.GRPCAddr,
		"metrics_addr":   cfg.MetricsAddr,
		"storage_driver": cfg.StorageDriver,
	}).Info("запускаем bookcart")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("bookcart остановлен")
}
