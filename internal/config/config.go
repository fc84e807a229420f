package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// API Configuration (CLI)
	API APIConfig

	// Dev server Configuration
	DevServer DevServerConfig

	// Logging Configuration
	Logging LoggingConfig
}

// APIConfig selects the backend the CLI talks to
type APIConfig struct {
	Host string // Base URL, e.g. https://api.example.com
}

// DevServerConfig holds configuration for the local stand-in backend
type DevServerConfig struct {
	Addr          string
	DatabaseURL   string
	JWTSecret     string
	AllowOrigins  []string
	AdminEmail    string
	AdminPassword string
	RequireTOTP   bool
	UploadDir     string
	SeedData      bool
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// API host - empty means "resolve from artadmin.json"
	apiHost := os.Getenv("ART_API_HOST")

	addr := getEnv("DEVSERVER_ADDR", ":8080")

	// In-memory SQLite by default; the dev server is disposable
	dbURL := getEnv("DEVSERVER_DATABASE_URL", "file::memory:?cache=shared")

	requireTOTP, err := strconv.ParseBool(getEnv("DEVSERVER_TOTP", "true"))
	if err != nil {
		requireTOTP = true
	}

	seedData, err := strconv.ParseBool(getEnv("DEVSERVER_SEED", "true"))
	if err != nil {
		seedData = true
	}

	uploadDir := getEnv("DEVSERVER_UPLOAD_DIR", filepath.Join(os.TempDir(), "artadmin-uploads"))

	// Logging configuration - the CLI is interactive, so default to console
	logLevel := getEnv("LOG_LEVEL", "info")
	logFormat := getEnv("LOG_FORMAT", "console")

	return &Config{
		API: APIConfig{
			Host: apiHost,
		},
		DevServer: DevServerConfig{
			Addr:          addr,
			DatabaseURL:   dbURL,
			JWTSecret:     os.Getenv("DEVSERVER_JWT_SECRET"),
			AllowOrigins:  []string{getEnv("DEVSERVER_ALLOW_ORIGIN", "http://localhost:5173")},
			AdminEmail:    getEnv("DEVSERVER_ADMIN_EMAIL", "admin@example.com"),
			AdminPassword: getEnv("DEVSERVER_ADMIN_PASSWORD", "admin"),
			RequireTOTP:   requireTOTP,
			UploadDir:     uploadDir,
			SeedData:      seedData,
		},
		Logging: LoggingConfig{
			Level:  logLevel,
			Format: logFormat,
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
