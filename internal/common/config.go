package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	API   APIConfig
	Poll  PollConfig
	Paths PathsConfig
}

// APIConfig holds credentials and the base URL for the compliance API
type APIConfig struct {
	BaseURL     string
	AccessToken string
}

// PollConfig holds the retry budget for the batch reconciliation loop
type PollConfig struct {
	MaxRounds int
	Interval  time.Duration
}

// PathsConfig holds the working directories and the run ledger location
type PathsConfig struct {
	InputDir    string
	OutputDir   string
	DownloadDir string
	LedgerPath  string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:     getEnv("API_BASE_URL", ""),
			AccessToken: getEnv("ACCESS_TOKEN", ""),
		},
		Poll: PollConfig{
			MaxRounds: getEnvAsInt("POLL_MAX_ROUNDS", 10),
			Interval:  getEnvAsDuration("POLL_INTERVAL", 60*time.Second),
		},
		Paths: PathsConfig{
			InputDir:    getEnv("INPUT_DIR", "input"),
			OutputDir:   getEnv("OUTPUT_DIR", "output"),
			DownloadDir: getEnv("DOWNLOAD_DIR", "download"),
			LedgerPath:  getEnv("LEDGER_PATH", "output/agrobatch.db"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return NewAppError("CONFIG_ERROR", "API_BASE_URL is required", ErrInvalidInput)
	}
	if c.API.AccessToken == "" {
		return NewAppError("CONFIG_ERROR", "ACCESS_TOKEN is required", ErrInvalidInput)
	}
	if c.Poll.MaxRounds <= 0 {
		return NewAppError("CONFIG_ERROR", "POLL_MAX_ROUNDS must be positive", ErrInvalidInput)
	}
	return nil
}

// EnsureDirs creates the input and output directories. Directory creation is
// explicit here rather than an import side effect, so callers that never touch
// the filesystem (tests, status-only runs) pay nothing.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.Paths.InputDir, c.Paths.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return WrapError(err, "create directory "+dir)
		}
	}
	return nil
}
