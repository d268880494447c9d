package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Redis      RedisConfig
	CORS       CORSConfig
	Routing    RoutingConfig
	Prediction PredictionConfig
	Admin      AdminConfig
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins string
}

// RoutingConfig points at the external directions provider
// (an OpenRouteService-compatible API).
type RoutingConfig struct {
	BaseURL    string
	APIKey     string
	TimeoutSec int
}

// PredictionConfig points at the external trip-duration model service.
// MaxPastHours bounds how far in the past a departure time may lie
// before a prediction request is rejected as stale.
type PredictionConfig struct {
	BaseURL      string
	TimeoutSec   int
	MaxPastHours int
}

// AdminConfig seeds the bootstrap admin account on first startup.
type AdminConfig struct {
	Email    string
	Password string
}

func (d DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

func LoadConfig() (*Config, error) {
	// .env is optional; deployments inject env vars directly.
	_ = godotenv.Load()

	serverPort, err := getIntEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	dbPort, err := getIntEnv("DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	jwtExpiry, err := getIntEnv("JWT_EXPIRY_HOURS", 24)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRY_HOURS: %w", err)
	}

	redisPort, err := getIntEnv("REDIS_PORT", 6379)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}

	redisDB, err := getIntEnv("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	routingTimeout, err := getIntEnv("ORS_TIMEOUT_SEC", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid ORS_TIMEOUT_SEC: %w", err)
	}

	modelTimeout, err := getIntEnv("MODEL_TIMEOUT_SEC", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid MODEL_TIMEOUT_SEC: %w", err)
	}

	maxPastHours, err := getIntEnv("PREDICTION_MAX_PAST_HOURS", 24)
	if err != nil {
		return nil, fmt.Errorf("invalid PREDICTION_MAX_PAST_HOURS: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: serverPort,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "routeopt"),
			Password: getEnv("DB_PASSWORD", "routeopt_dev_password"),
			Name:     getEnv("DB_NAME", "routeopt"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "dev-secret-change-me"),
			ExpiryHours: jwtExpiry,
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     redisPort,
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Routing: RoutingConfig{
			BaseURL:    getEnv("ORS_BASE_URL", "https://api.openrouteservice.org"),
			APIKey:     getEnv("ORS_API_KEY", ""),
			TimeoutSec: routingTimeout,
		},
		Prediction: PredictionConfig{
			BaseURL:      getEnv("MODEL_BASE_URL", "http://localhost:8501"),
			TimeoutSec:   modelTimeout,
			MaxPastHours: maxPastHours,
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", "admin@example.com"),
			Password: getEnv("ADMIN_PASSWORD", "admin123"),
		},
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}
