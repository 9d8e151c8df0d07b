package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CAS      CASConfig
	Admin    AdminConfig
	CORS     CORSConfig
	Metrics  MetricsConfig
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

func (d DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

// CASConfig points at the campus CAS server and the frontend the callback
// redirects back to. DevAuth unlocks the fake login endpoint and must stay
// off in production.
type CASConfig struct {
	BaseURL string
	AppBase string
	DevAuth bool
}

// AdminConfig gates the venue-management endpoints. PasswordHash is a bcrypt
// hash; admin login is disabled entirely when it is empty.
type AdminConfig struct {
	PasswordHash string
}

type CORSConfig struct {
	AllowedOrigins string
}

// MetricsConfig carries the aggregation time constants in minutes: the
// half-life of an observation's weight, how far back observations count at
// all, and the window for the recent-report count.
type MetricsConfig struct {
	HalfLifeMin     int
	LookbackMin     int
	RecentWindowMin int
}

func LoadConfig() (*Config, error) {
	serverPort, err := getIntEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	dbPort, err := getIntEnv("DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	redisPort, err := getIntEnv("REDIS_PORT", 6379)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}

	redisDB, err := getIntEnv("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	jwtExpiry, err := getIntEnv("JWT_EXPIRY_HOURS", 24)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRY_HOURS: %w", err)
	}

	halfLife, err := getIntEnv("METRICS_HALF_LIFE_MIN", 30)
	if err != nil {
		return nil, fmt.Errorf("invalid METRICS_HALF_LIFE_MIN: %w", err)
	}

	lookback, err := getIntEnv("METRICS_LOOKBACK_MIN", 120)
	if err != nil {
		return nil, fmt.Errorf("invalid METRICS_LOOKBACK_MIN: %w", err)
	}

	recentWindow, err := getIntEnv("METRICS_RECENT_WINDOW_MIN", 60)
	if err != nil {
		return nil, fmt.Errorf("invalid METRICS_RECENT_WINDOW_MIN: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: serverPort,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "studyspace"),
			Password: getEnv("DB_PASSWORD", "studyspace_dev_password"),
			Name:     getEnv("DB_NAME", "studyspace"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     redisPort,
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "studyspace_dev_secret"),
			ExpiryHours: jwtExpiry,
		},
		CAS: CASConfig{
			BaseURL: getEnv("CAS_BASE_URL", "https://secure.its.campus.edu/cas"),
			AppBase: getEnv("APP_BASE_URL", "http://localhost:3000"),
			DevAuth: getBoolEnv("DEV_AUTH", false),
		},
		Admin: AdminConfig{
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Metrics: MetricsConfig{
			HalfLifeMin:     halfLife,
			LookbackMin:     lookback,
			RecentWindowMin: recentWindow,
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

func getBoolEnv(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
