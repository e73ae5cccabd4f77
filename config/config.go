// config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all process-wide configuration. It is built once in main and
// passed by reference; handlers never read the environment directly.
type Config struct {
	Port      string
	Env       string
	MongoURI  string
	DBName    string
	JWTSecret string
	OTPTTL    time.Duration

	SMS   SMSConfig
	SMTP  SMTPConfig
	Redis RedisConfig
}

// SMSConfig holds the bulk-SMS provider credentials. Empty username disables
// the provider and OTPs are written to the process log instead.
type SMSConfig struct {
	Username string
	Password string
	SenderID string
	APIPath  string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load reads configuration from the environment. A missing JWT_SECRET makes
// every token-issuing call fail, so it is fatal here rather than per-request.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := &Config{
		Port:      getEnv("PORT", "8080"),
		Env:       getEnv("ENV", "development"),
		MongoURI:  getEnv("MONGO_URI", ""),
		DBName:    getEnv("DB_NAME", "lms"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		OTPTTL:    10 * time.Minute,
		SMS: SMSConfig{
			Username: os.Getenv("SMS_USERNAME"),
			Password: os.Getenv("SMS_PASSWORD"),
			SenderID: getEnv("SMS_SENDER_ID", "SkillStream"),
			APIPath:  getEnv("SMS_API_PATH", "https://www.bestsmsbulk.com/bestsmsbulkapi/sendSmsAPI.php"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("SMTP_FROM", "noreply@skillstream.io"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
	}

	if ttlStr := os.Getenv("OTP_TTL_MINUTES"); ttlStr != "" {
		if ttl, err := strconv.Atoi(ttlStr); err == nil && ttl > 0 {
			cfg.OTPTTL = time.Duration(ttl) * time.Minute
		}
	}

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}
	if cfg.MongoURI == "" {
		if cfg.Env == "development" || cfg.Env == "dev" {
			cfg.MongoURI = "mongodb://localhost:27017"
		} else {
			log.Fatal("MONGO_URI environment variable is required for production")
		}
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
