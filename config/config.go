package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	HTTP     ServerConfig
	MySQL    MySQLConfig
	Log      LogConfig
	MoMo     MoMoConfig
	PayOS    PayOSConfig
	Payments PaymentsConfig
	Gift     GiftConfig
	Jobs     JobsConfig
}

type AppConfig struct {
	ServiceName string
	FrontendURL string
}

type ServerConfig struct {
	Host string
	Port string
}

type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level string
}

type MoMoConfig struct {
	AccessKey   string
	SecretKey   string
	PartnerCode string
	PartnerName string
	StoreID     string
	Endpoint    string
	RequestType string
	HTTPTimeout time.Duration
}

type PayOSConfig struct {
	ClientID    string
	APIKey      string
	ChecksumKey string
}

type PaymentsConfig struct {
	CallbackBaseURL     string
	Currency            string
	ReconcileStaleAfter time.Duration
	JobBatchSize        int32
}

type GiftConfig struct {
	ExpiryDays        int
	VerifyMaxAttempts int32
}

type JobsConfig struct {
	GiftExpiryInterval time.Duration
	ReconcileInterval  time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	return &Config{
		App: AppConfig{
			ServiceName: getEnv("APP_SERVICE_NAME", "checkout-service"),
			FrontendURL: getEnv("APP_FRONTEND_URL", "http://localhost:3000"),
		},
		HTTP: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnv("HTTP_PORT", "8080"),
		},
		MySQL: MySQLConfig{
			DSN:             mysqlDSN,
			MaxOpenConns:    getIntEnv("MYSQL_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getIntEnv("MYSQL_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getMinutesEnv("MYSQL_CONN_MAX_LIFETIME_MINUTES", 30*time.Minute),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		MoMo: MoMoConfig{
			AccessKey:   getEnv("MOMO_ACCESS_KEY", ""),
			SecretKey:   getEnv("MOMO_SECRET_KEY", ""),
			PartnerCode: getEnv("MOMO_PARTNER_CODE", ""),
			PartnerName: getEnv("MOMO_PARTNER_NAME", "Goat Tech Store"),
			StoreID:     getEnv("MOMO_STORE_ID", "GoatTechStore"),
			Endpoint:    getEnv("MOMO_ENDPOINT", "https://test-payment.momo.vn/v2/gateway/api"),
			RequestType: getEnv("MOMO_REQUEST_TYPE", "payWithMethod"),
			HTTPTimeout: getSecondsEnv("MOMO_HTTP_TIMEOUT_SECONDS", 10*time.Second),
		},
		PayOS: PayOSConfig{
			ClientID:    getEnv("PAYOS_CLIENT_ID", ""),
			APIKey:      getEnv("PAYOS_API_KEY", ""),
			ChecksumKey: getEnv("PAYOS_CHECKSUM_KEY", ""),
		},
		Payments: PaymentsConfig{
			CallbackBaseURL:     getEnv("PAYMENTS_CALLBACK_BASE_URL", "http://localhost:8080"),
			Currency:            getEnv("PAYMENTS_CURRENCY", "VND"),
			ReconcileStaleAfter: getMinutesEnv("PAYMENTS_RECONCILE_STALE_AFTER_MINUTES", 15*time.Minute),
			JobBatchSize:        int32(getIntEnv("PAYMENTS_JOB_BATCH_SIZE", 100)),
		},
		Gift: GiftConfig{
			ExpiryDays:        getIntEnv("GIFT_EXPIRY_DAYS", 7),
			VerifyMaxAttempts: int32(getIntEnv("GIFT_VERIFY_MAX_ATTEMPTS", 5)),
		},
		Jobs: JobsConfig{
			GiftExpiryInterval: getMinutesEnv("JOBS_GIFT_EXPIRY_INTERVAL_MINUTES", 10*time.Minute),
			ReconcileInterval:  getMinutesEnv("JOBS_RECONCILE_INTERVAL_MINUTES", 5*time.Minute),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getMinutesEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
