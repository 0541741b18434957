package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis (distributed lock for detect batches)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT (optional agent/service identity tokens)
	JWTSecret string

	// Detect batch scheduler
	DetectEnabled         bool
	DetectIntervalMinutes int
	DetectWindowMinutes   int
	DetectLockTTL         time.Duration
	DetectTenantIDs       []uint
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		// Server
		Port: getEnv("PORT", "8080"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "actiongate"),
		DBPassword: getEnv("DB_PASSWORD", "actiongate"),
		DBName:     getEnv("DB_NAME", "actiongate"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Redis
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		// Detect batch scheduler
		DetectEnabled:         getEnvBool("DETECT_BATCH_ENABLED", false),
		DetectIntervalMinutes: getEnvInt("DETECT_BATCH_INTERVAL_MINUTES", 15),
		DetectWindowMinutes:   getEnvInt("DETECT_BATCH_WINDOW_MINUTES", 15),
		DetectTenantIDs:       getEnvUintList("DETECT_BATCH_TENANT_IDS"),
	}

	// Parse lock TTL; a detect run holding the lock past the TTL loses it.
	ttlStr := getEnv("DETECT_BATCH_LOCK_TTL", "5m")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		log.Printf("Warning: invalid DETECT_BATCH_LOCK_TTL value '%s', falling back to 5m\n", ttlStr)
		ttl = 5 * time.Minute
	}
	config.DetectLockTTL = ttl

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %v\n", key, value, defaultValue)
		return defaultValue
	}
	return b
}

func getEnvUintList(key string) []uint {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var ids []uint
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			log.Printf("Warning: skipping invalid %s entry '%s'\n", key, part)
			continue
		}
		ids = append(ids, uint(n))
	}
	return ids
}
