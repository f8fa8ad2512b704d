package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Orders   OrdersConfig
	Breaker  BreakerConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         string
	Username     string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers  []string
	GroupID  string
	MockMode bool
}

// OrdersConfig holds the order-core tunables: courier defaults, idempotency
// marker TTLs and the read-cache TTL.
type OrdersConfig struct {
	DefaultCourierCapacity int
	DefaultDeliveryFee     float64
	ProcessingTTL          time.Duration
	ResultTTL              time.Duration
	CacheTTL               time.Duration
	PresenceTTL            time.Duration
	IdempotencyFailOpen    bool
}

// BreakerConfig tunes the ledger circuit breaker.
type BreakerConfig struct {
	MinRequests        uint32
	ErrorRateThreshold float64
	Interval           time.Duration
	Cooldown           time.Duration
	HalfOpenRequests   uint32
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8086"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "3306"),
			Username:     getEnv("DB_USER", "root"),
			Password:     getEnv("DB_PASS", "password"),
			Database:     getEnv("DB_NAME", "qareeblak_orders"),
			MaxOpenConns: getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getInt("DB_MAX_IDLE_CONNS", 10),
			MaxLifetime:  getDuration("DB_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:  strings.Split(getEnv("KAFKA_BROKERS", "localhost:29092"), ","),
			GroupID:  getEnv("KAFKA_GROUP_ID", "order-core"),
			MockMode: getBool("KAFKA_MOCK_MODE", true),
		},
		Orders: OrdersConfig{
			DefaultCourierCapacity: getInt("COURIER_DEFAULT_CAPACITY", 5),
			DefaultDeliveryFee:     getFloat("DEFAULT_DELIVERY_FEE", 20),
			ProcessingTTL:          getDuration("IDEMPOTENCY_PROCESSING_TTL", 30*time.Second),
			ResultTTL:              getDuration("IDEMPOTENCY_RESULT_TTL", 24*time.Hour),
			CacheTTL:               getDuration("READ_CACHE_TTL", 30*time.Second),
			PresenceTTL:            getDuration("COURIER_PRESENCE_TTL", 2*time.Minute),
			IdempotencyFailOpen:    getBool("IDEMPOTENCY_FAIL_OPEN", false),
		},
		Breaker: BreakerConfig{
			MinRequests:        uint32(getInt("BREAKER_MIN_REQUESTS", 10)),
			ErrorRateThreshold: getFloat("BREAKER_ERROR_RATE", 0.5),
			Interval:           getDuration("BREAKER_INTERVAL", 30*time.Second),
			Cooldown:           getDuration("BREAKER_COOLDOWN", 15*time.Second),
			HalfOpenRequests:   uint32(getInt("BREAKER_HALF_OPEN_REQUESTS", 3)),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
