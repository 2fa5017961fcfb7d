package config

import (
	"os"
	"strconv"

	"github.com/shopspring/decimal"
)

type Config struct {
	// Database
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	// Server
	Port string
	Host string

	// Auth
	JWTSecret string

	// Penalty fee charged for a late submission, in PHP.
	PenaltyFee decimal.Decimal

	// Poll interval for the live submissions feed, in seconds.
	WSPollIntervalSec int
}

func Load() *Config {
	cfg := &Config{
		DBUser:            getEnv("DB_USER", "server"),
		DBPassword:        getEnv("DB_PASSWORD", "secret_app"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "3306"),
		DBName:            getEnv("DB_NAME", "occupancy"),
		Port:              getEnv("PORT", "8080"),
		Host:              getEnv("HOST", "0.0.0.0"),
		JWTSecret:         getEnv("JWT_SECRET", "dev-secret-change-me"),
		WSPollIntervalSec: getEnvInt("WS_POLL_INTERVAL_SEC", 5),
	}

	cfg.PenaltyFee = parsePenaltyFee(getEnv("PENALTY_FEE", "2000.00"))

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
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func parsePenaltyFee(value string) decimal.Decimal {
	fee, err := decimal.NewFromString(value)
	if err != nil || fee.IsNegative() {
		return decimal.NewFromInt(2000)
	}
	return fee
}
