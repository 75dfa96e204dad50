package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath    string
	OutputDir string

	SourceProvider     string
	SourceURL          string
	SourceFormat       string
	SourceRateLimitRPS int
	SourceTimeoutMs    int
	SourceMaxAttempts  int

	SheetsSpreadsheetID string
	SheetsRange         string
	SheetsAPIKey        string
	GoogleClientID      string
	GoogleClientSecret  string
	GoogleRedirectURI   string
	GoogleRefreshToken  string

	CategoryOverridesPath string

	HTTPAddr string
	StateKey string

	LogLevel  string
	LogFormat string

	RefreshIntervalSec int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "vaquero.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		SourceProvider:     getEnv("SOURCE_PROVIDER", "published"),
		SourceURL:          getEnv("SOURCE_URL", ""),
		SourceFormat:       getEnv("SOURCE_FORMAT", "csv"),
		SourceRateLimitRPS: getEnvInt("SOURCE_RATE_LIMIT_RPS", 2),
		SourceTimeoutMs:    getEnvInt("SOURCE_TIMEOUT_MS", 30000),
		SourceMaxAttempts:  getEnvInt("SOURCE_MAX_ATTEMPTS", 3),

		SheetsSpreadsheetID: getEnv("SHEETS_SPREADSHEET_ID", ""),
		SheetsRange:         getEnv("SHEETS_RANGE", "A1:Z"),
		SheetsAPIKey:        getEnv("SHEETS_API_KEY", ""),
		GoogleClientID:      getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:  getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:   getEnv("GOOGLE_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GoogleRefreshToken:  getEnv("GOOGLE_REFRESH_TOKEN", ""),

		CategoryOverridesPath: getEnv("CATEGORY_OVERRIDES_PATH", ""),

		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		StateKey: getEnv("STATE_KEY", "vaquero_state"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		RefreshIntervalSec: getEnvInt("REFRESH_INTERVAL_SEC", 3600),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
