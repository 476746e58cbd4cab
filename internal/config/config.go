package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultCheckoutTimeout = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultMaxOpenConns    = 20
	defaultCORSOrigin      = "http://localhost:3000"
	defaultOrderTopic      = "order.placed"
)

type Config struct {
	DBHost         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBPort         string
	DBMaxOpenConns int

	AppPort string
	AppEnv  string

	JWTSecret         string
	InternalSecretKey string
	CORSOrigin        string

	// CheckoutTimeout bounds a whole checkout transaction, row locks included.
	CheckoutTimeout time.Duration

	KafkaBrokers    []string
	KafkaOrderTopic string

	RedisAddr      string
	IdempotencyTTL time.Duration
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:         os.Getenv("DB_HOST"),
		DBUser:         os.Getenv("DB_USER"),
		DBPassword:     os.Getenv("DB_PASSWORD"),
		DBName:         os.Getenv("DB_NAME"),
		DBPort:         os.Getenv("DB_PORT"),
		DBMaxOpenConns: getInt("DB_MAX_OPEN_CONNS", defaultMaxOpenConns),

		AppPort: getenv("APP_PORT", "8080"),
		AppEnv:  os.Getenv("APP_ENV"),

		JWTSecret:         os.Getenv("JWT_SECRET"),
		InternalSecretKey: os.Getenv("INTERNAL_SECRET_KEY"),
		CORSOrigin:        getenv("CORS_ORIGIN", defaultCORSOrigin),

		CheckoutTimeout: getDuration("CHECKOUT_TIMEOUT", defaultCheckoutTimeout),

		KafkaBrokers:    splitCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaOrderTopic: getenv("KAFKA_ORDER_TOPIC", defaultOrderTopic),

		RedisAddr:      os.Getenv("REDIS_ADDR"),
		IdempotencyTTL: getDuration("IDEMPOTENCY_TTL", defaultIdempotencyTTL),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("config: invalid %s=%q, using %d", k, v, def)
		return def
	}
	return n
}

func getDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("config: invalid %s=%q, using %s", k, v, def)
		return def
	}
	return d
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
