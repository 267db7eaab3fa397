package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	SnowflakeNode    int64
	DeliveryTimezone string
	MigrateOnStart   bool

	SchedulerEnabled  bool
	SchedulerInterval time.Duration
	PendingExpiry     time.Duration

	AuthJWTSecret string
	AuthJWTIssuer string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Payment PaymentConfig
	Redis   RedisConfig
	NATS    NATSConfig

	PolicyConfigPaths []string
}

type PaymentConfig struct {
	Provider          string
	Currency          string
	RazorpayKeyID     string
	RazorpayKeySecret string
	RazorpayBaseURL   string
	MidtransServerKey string
	MidtransClientKey string
	MidtransEnv       string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type NATSConfig struct {
	URL           string
	Stream        string
	SubjectPrefix string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:          getenv("APP_SERVICE", "mealplan"),
		AppVersion:       getenv("APP_VERSION", "0.1.0"),
		Environment:      getenv("ENVIRONMENT", "development"),
		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
		SnowflakeNode:    getenvInt64("SNOWFLAKE_NODE", 1),
		DeliveryTimezone: getenv("DELIVERY_TIMEZONE", "Asia/Kolkata"),
		MigrateOnStart:   getenvBool("MIGRATE_ON_START", true),
		AuthJWTSecret:    strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),
		AuthJWTIssuer:    strings.TrimSpace(getenv("AUTH_JWT_ISSUER", "")),
		OTLPEndpoint:     getenv("OTLP_ENDPOINT", "localhost:4317"),

		SchedulerEnabled:  getenvBool("SCHEDULER_ENABLED", false),
		SchedulerInterval: getenvDuration("SCHEDULER_INTERVAL", 5*time.Minute),
		PendingExpiry:     getenvDuration("PENDING_EXPIRY", 48*time.Hour),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "mealplan"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "mealplan.db"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),

		Payment: PaymentConfig{
			Provider:          strings.ToLower(getenv("PAYMENT_PROVIDER", "razorpay")),
			Currency:          strings.ToUpper(getenv("PAYMENT_CURRENCY", "INR")),
			RazorpayKeyID:     strings.TrimSpace(getenv("RAZORPAY_KEY_ID", "")),
			RazorpayKeySecret: strings.TrimSpace(getenv("RAZORPAY_KEY_SECRET", "")),
			RazorpayBaseURL:   getenv("RAZORPAY_BASE_URL", "https://api.razorpay.com/v1"),
			MidtransServerKey: strings.TrimSpace(getenv("MIDTRANS_SERVER_KEY", "")),
			MidtransClientKey: strings.TrimSpace(getenv("MIDTRANS_CLIENT_KEY", "")),
			MidtransEnv:       strings.ToLower(getenv("MIDTRANS_ENV", "sandbox")),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			Password: strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
			DB:       getenvInt("REDIS_DB", 0),
		},
		NATS: NATSConfig{
			URL:           strings.TrimSpace(getenv("NATS_URL", "")),
			Stream:        getenv("NATS_STREAM", "MEALPLAN"),
			SubjectPrefix: getenv("NATS_SUBJECT_PREFIX", "mealplan"),
		},
		PolicyConfigPaths: splitList(getenv("SCHEDULE_POLICY_PATHS", "/etc/mealplan,.")),
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewPolicyHolder),
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return parsed
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
