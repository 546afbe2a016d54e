// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like AIRTABLE_API_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, ignored if not present
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads .env from the usual locations so the service can run
// from the repo root, a cmd directory, or a test directory.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders left in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// overrideEmptyConfig fills credentials from the environment when the YAML
// left them blank.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Adapters.Airtable.APIKey == "" {
		if val := os.Getenv("AIRTABLE_API_KEY"); val != "" {
			cfg.Adapters.Airtable.APIKey = val
		}
	}
	if cfg.Adapters.Airtable.BaseID == "" {
		if val := os.Getenv("AIRTABLE_BASE_ID"); val != "" {
			cfg.Adapters.Airtable.BaseID = val
		}
	}

	if cfg.Adapters.Apollo.APIKey == "" {
		if val := os.Getenv("APOLLO_API_KEY"); val != "" {
			cfg.Adapters.Apollo.APIKey = val
		}
	}

	if cfg.Parser.APIKey == "" {
		if val := os.Getenv("GENAI_API_KEY"); val != "" {
			cfg.Parser.APIKey = val
		}
	}

	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30000
	}

	// Run defaults
	if cfg.Runs.MaxQueryLength == 0 {
		cfg.Runs.MaxQueryLength = 2000
	}
	if cfg.Runs.MaxResults == 0 {
		cfg.Runs.MaxResults = 50
	}
	if cfg.Runs.SnapshotTTL == 0 {
		cfg.Runs.SnapshotTTL = 86400
	}

	// Parser defaults
	if cfg.Parser.Timeout == 0 {
		cfg.Parser.Timeout = 30000
	}
	if cfg.Parser.Model == "" {
		cfg.Parser.Model = "gpt-4o-mini"
	}

	// Adapter defaults
	if cfg.Adapters.Airtable.Timeout == 0 {
		cfg.Adapters.Airtable.Timeout = 10000
	}
	if cfg.Adapters.Airtable.TableInvestors == "" {
		cfg.Adapters.Airtable.TableInvestors = "Investors"
	}
	if cfg.Adapters.Airtable.TableProjects == "" {
		cfg.Adapters.Airtable.TableProjects = "Projects"
	}
	if cfg.Adapters.Apollo.Timeout == 0 {
		cfg.Adapters.Apollo.Timeout = 10000
	}
	if cfg.Adapters.Apollo.BaseURL == "" {
		cfg.Adapters.Apollo.BaseURL = "https://api.apollo.io/v1"
	}
	if cfg.Adapters.Apollo.CacheTTL == 0 {
		cfg.Adapters.Apollo.CacheTTL = 300
	}

	// Database defaults
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}
	if cfg.Database.Elasticsearch.Index == "" {
		cfg.Database.Elasticsearch.Index = "investors"
	}

	// Calendar defaults
	if cfg.Calendar.Timeout == 0 {
		cfg.Calendar.Timeout = 5000
	}
	if cfg.Calendar.SlotCount == 0 {
		cfg.Calendar.SlotCount = 3
	}
	if cfg.Calendar.Timezone == "" {
		cfg.Calendar.Timezone = "UTC"
	}

	if cfg.Export.Dir == "" {
		cfg.Export.Dir = "exports"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}

	if cfg.Runs.MaxQueryLength <= 0 {
		return fmt.Errorf("runs.max_query_length must be positive")
	}

	if !cfg.Parser.EnableMock && cfg.Parser.BaseURL == "" {
		return fmt.Errorf("parser.base_url is required unless parser.enable_mock is set")
	}

	if !cfg.Adapters.Airtable.EnableMock && cfg.Adapters.Airtable.BaseID == "" {
		return fmt.Errorf("adapters.airtable.base_id is required unless adapters.airtable.enable_mock is set")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
