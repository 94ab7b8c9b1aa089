package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/localmind-ai/localmind-go/pkg/storage"
	mysqlStore "github.com/localmind-ai/localmind-go/pkg/storage/mysql"
	postgresStore "github.com/localmind-ai/localmind-go/pkg/storage/postgres"
	sqliteStore "github.com/localmind-ai/localmind-go/pkg/storage/sqlite"
)

// Config contains the complete configuration for a localmind container's
// collaborators.
//
// Example:
//
//	config := &core.Config{
//	    Storage: core.StorageConfig{
//	        Provider: "sqlite",
//	        Config: map[string]interface{}{
//	            "db_path": "./localmind.db",
//	        },
//	    },
//	    Engine: core.EngineConfig{
//	        HiddenSize:   8,
//	        LearningRate: 0.01,
//	    },
//	}
type Config struct {
	// Storage contains storage backend configuration.
	Storage StorageConfig `json:"storage"`

	// Engine contains learning engine hyperparameters.
	Engine EngineConfig `json:"engine"`

	// Logging contains logger configuration.
	Logging LoggingConfig `json:"logging"`
}

// StorageConfig contains configuration for the storage backend.
//
// Supported providers: sqlite, postgres, mysql
type StorageConfig struct {
	// Provider is the storage backend name (sqlite, postgres, mysql).
	Provider string `json:"provider"`

	// Config contains provider-specific configuration.
	// For SQLite: db_path
	// For PostgreSQL: host, port, user, password, db_name, ssl_mode
	// For MySQL: host, port, user, password, db_name
	Config map[string]interface{} `json:"config"`
}

// EngineConfig contains learning engine hyperparameters.
type EngineConfig struct {
	// HiddenSize is the hidden layer width (default 8).
	HiddenSize int `json:"hidden_size,omitempty"`

	// LearningRate is the fixed SGD step size (default 0.01).
	LearningRate float64 `json:"learning_rate,omitempty"`

	// HistoryLimit bounds the retained training examples (default 1000).
	HistoryLimit int `json:"history_limit,omitempty"`
}

// LoggingConfig contains logger configuration.
type LoggingConfig struct {
	// Environment selects development or production defaults.
	Environment string `json:"environment,omitempty"`

	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`
}

// LoadConfigFromEnv loads configuration from environment variables.
//
// The function:
//  1. Searches for .env or .env.example files (up to 5 directory levels up)
//  2. Loads environment variables from the found file
//  3. Parses environment variables into a Config struct
//
// Supported environment variables:
//   - LOCALMIND_STORAGE_PROVIDER (sqlite, postgres, mysql)
//   - SQLITE_PATH
//   - POSTGRES_HOST, POSTGRES_PORT, POSTGRES_USER, POSTGRES_PASSWORD, etc.
//   - MYSQL_HOST, MYSQL_PORT, MYSQL_USER, MYSQL_PASSWORD, MYSQL_DATABASE
//   - ENGINE_HIDDEN_SIZE, ENGINE_LEARNING_RATE, ENGINE_HISTORY_LIMIT
//   - LOG_LEVEL, ENVIRONMENT
func LoadConfigFromEnv() (*Config, error) {
	envPath, found := FindEnvFile()
	if found {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	provider := getEnvOrDefault("LOCALMIND_STORAGE_PROVIDER", "sqlite")

	storageConfig := make(map[string]interface{})
	switch provider {
	case "sqlite":
		storageConfig = map[string]interface{}{
			"db_path": getEnvOrDefault("SQLITE_PATH", "./localmind.db"),
		}
	case "postgres":
		port, _ := strconv.Atoi(getEnvOrDefault("POSTGRES_PORT", "5432"))
		storageConfig = map[string]interface{}{
			"host":     getEnvOrDefault("POSTGRES_HOST", "localhost"),
			"port":     port,
			"user":     getEnvOrDefault("POSTGRES_USER", "postgres"),
			"password": os.Getenv("POSTGRES_PASSWORD"),
			"db_name":  getEnvOrDefault("POSTGRES_DATABASE", "localmind"),
			"ssl_mode": getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
		}
	case "mysql":
		port, _ := strconv.Atoi(getEnvOrDefault("MYSQL_PORT", "3306"))
		storageConfig = map[string]interface{}{
			"host":     getEnvOrDefault("MYSQL_HOST", "localhost"),
			"port":     port,
			"user":     getEnvOrDefault("MYSQL_USER", "root"),
			"password": os.Getenv("MYSQL_PASSWORD"),
			"db_name":  getEnvOrDefault("MYSQL_DATABASE", "localmind"),
		}
	}

	hiddenSize, _ := strconv.Atoi(getEnvOrDefault("ENGINE_HIDDEN_SIZE", "8"))
	learningRate, _ := strconv.ParseFloat(getEnvOrDefault("ENGINE_LEARNING_RATE", "0.01"), 64)
	historyLimit, _ := strconv.Atoi(getEnvOrDefault("ENGINE_HISTORY_LIMIT", "1000"))

	return &Config{
		Storage: StorageConfig{
			Provider: provider,
			Config:   storageConfig,
		},
		Engine: EngineConfig{
			HiddenSize:   hiddenSize,
			LearningRate: learningRate,
			HistoryLimit: historyLimit,
		},
		Logging: LoggingConfig{
			Environment: getEnvOrDefault("ENVIRONMENT", "development"),
			Level:       getEnvOrDefault("LOG_LEVEL", "info"),
		},
	}, nil
}

// LoadConfigFromEnvFile loads configuration from a specific .env file.
func LoadConfigFromEnvFile(envPath string) (*Config, error) {
	if err := godotenv.Load(envPath); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return LoadConfigFromEnv()
}

// LoadConfigFromJSON loads configuration from a JSON file.
func LoadConfigFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewContainerError("LoadConfigFromJSON", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, NewContainerError("LoadConfigFromJSON", err)
	}

	return &config, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Storage.Provider {
	case "sqlite", "postgres", "mysql":
		return nil
	default:
		return NewContainerError("Validate", ErrInvalidConfig)
	}
}

// NewStorage constructs the storage backend selected by the configuration.
func NewStorage(cfg StorageConfig) (storage.DataStorage, error) {
	switch cfg.Provider {
	case "sqlite":
		return sqliteStore.NewClient(&sqliteStore.Config{
			DBPath: stringValue(cfg.Config, "db_path"),
		})
	case "postgres":
		return postgresStore.NewClient(&postgresStore.Config{
			Host:     stringValue(cfg.Config, "host"),
			Port:     intValue(cfg.Config, "port"),
			User:     stringValue(cfg.Config, "user"),
			Password: stringValue(cfg.Config, "password"),
			DBName:   stringValue(cfg.Config, "db_name"),
			SSLMode:  stringValue(cfg.Config, "ssl_mode"),
		})
	case "mysql":
		return mysqlStore.NewClient(&mysqlStore.Config{
			Host:     stringValue(cfg.Config, "host"),
			Port:     intValue(cfg.Config, "port"),
			User:     stringValue(cfg.Config, "user"),
			Password: stringValue(cfg.Config, "password"),
			DBName:   stringValue(cfg.Config, "db_name"),
		})
	default:
		return nil, NewContainerError("NewStorage", ErrInvalidConfig)
	}
}

// getEnvOrDefault gets an environment variable or returns the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// stringValue reads a string out of a provider config map.
func stringValue(config map[string]interface{}, key string) string {
	if v, ok := config[key].(string); ok {
		return v
	}
	return ""
}

// intValue reads an int out of a provider config map. JSON decoding yields
// float64 for numbers, so both forms are accepted.
func intValue(config map[string]interface{}, key string) int {
	switch v := config[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

// FindEnvFile searches for .env or .env.example files.
//
// The search:
//  1. Checks the current directory
//  2. Searches up to 5 directory levels up
//  3. Returns the first .env or .env.example file found
func FindEnvFile() (string, bool) {
	if _, err := os.Stat(".env"); err == nil {
		return ".env", true
	}
	if _, err := os.Stat(".env.example"); err == nil {
		return ".env.example", true
	}

	dir, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		envExamplePath := filepath.Join(dir, ".env.example")

		if _, err := os.Stat(envPath); err == nil {
			return envPath, true
		}
		if _, err := os.Stat(envExamplePath); err == nil {
			return envExamplePath, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", false
}
