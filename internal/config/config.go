package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RedisAddr     string
	RedisPassword string

	StripeWebhookSecret string

	OpenAIAPIKey        string
	OpenAIBaseURL       string
	OpenAIModelStandard string
	OpenAIModelPremium  string
	GenerateTimeout     time.Duration

	FreeMonthlyQuota int

	WorkerCount        int
	WorkerMaxAttempts  int
	WorkerBackoff      string
	WorkerBackoffBase  time.Duration
	WorkerDrainTimeout time.Duration

	PollInterval time.Duration

	DevSubjectID string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "scriptly"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: environment,
		HTTPAddr:    getenv("HTTP_ADDR", ":3001"),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "scriptly"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),

		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		StripeWebhookSecret: strings.TrimSpace(getenv("STRIPE_WEBHOOK_SECRET", "")),

		OpenAIAPIKey:        strings.TrimSpace(getenv("OPENAI_API_KEY", "")),
		OpenAIBaseURL:       getenv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModelStandard: getenv("OPENAI_MODEL_STANDARD", "gpt-3.5-turbo"),
		OpenAIModelPremium:  getenv("OPENAI_MODEL_PREMIUM", "gpt-4o"),
		GenerateTimeout:     getenvDuration("GENERATE_TIMEOUT", 30*time.Second),

		FreeMonthlyQuota: getenvInt("FREE_MONTHLY_QUOTA", 10),

		WorkerCount:        getenvInt("WORKER_COUNT", 5),
		WorkerMaxAttempts:  getenvInt("WORKER_MAX_ATTEMPTS", 3),
		WorkerBackoff:      getenv("WORKER_BACKOFF", "exponential"),
		WorkerBackoffBase:  getenvDuration("WORKER_BACKOFF_BASE", 5*time.Second),
		WorkerDrainTimeout: getenvDuration("WORKER_DRAIN_TIMEOUT", 30*time.Second),

		PollInterval: getenvDuration("PUBLISH_POLL_INTERVAL", time.Minute),

		DevSubjectID: strings.TrimSpace(getenv("DEV_SUBJECT_ID", "")),
	}

	return cfg
}

func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
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

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
