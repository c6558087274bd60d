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

	// Enable ENV override like ML_ENGINE_BASE_URL
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

	// Environment-specific overrides, ignored if absent
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

// loadEnvFile loads .env from the working directory or the project root.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
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

// expandEnvVars resolves ${VAR} placeholders in string config values.
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

// overrideEmptyConfig fills critical values from plain env vars when the
// yaml layers left them empty.
func overrideEmptyConfig(cfg *Config) {
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
	if cfg.MLEngine.BaseURL == "" {
		if val := os.Getenv("ML_ENGINE_URL"); val != "" {
			cfg.MLEngine.BaseURL = val
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
	if cfg.App.HTTPPort == 0 {
		cfg.App.HTTPPort = 8080
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

	// ML engine defaults: caps bound payload size and so request latency
	if cfg.MLEngine.Timeout == 0 {
		cfg.MLEngine.Timeout = 10000
	}
	if cfg.MLEngine.MaxJobs == 0 {
		cfg.MLEngine.MaxJobs = 100
	}
	if cfg.MLEngine.MaxCandidates == 0 {
		cfg.MLEngine.MaxCandidates = 100
	}
	if cfg.MLEngine.MaxOthers == 0 {
		cfg.MLEngine.MaxOthers = 50
	}
	if cfg.MLEngine.CircuitBreaker.MaxRequests == 0 {
		cfg.MLEngine.CircuitBreaker.MaxRequests = 3
	}
	if cfg.MLEngine.CircuitBreaker.Interval == 0 {
		cfg.MLEngine.CircuitBreaker.Interval = 60000
	}
	if cfg.MLEngine.CircuitBreaker.Timeout == 0 {
		cfg.MLEngine.CircuitBreaker.Timeout = 30000
	}
	if cfg.MLEngine.CircuitBreaker.FailureThreshold == 0 {
		cfg.MLEngine.CircuitBreaker.FailureThreshold = 5
	}

	// Recommendation defaults
	if cfg.Recommend.JobLimit == 0 {
		cfg.Recommend.JobLimit = 20
	}
	if cfg.Recommend.CandidateLimit == 0 {
		cfg.Recommend.CandidateLimit = 15
	}
	if cfg.Recommend.ConnectionLimit == 0 {
		cfg.Recommend.ConnectionLimit = 15
	}
	if cfg.Recommend.TopMatchLimit == 0 {
		cfg.Recommend.TopMatchLimit = 20
	}
	if cfg.Recommend.CandidatePool == 0 {
		cfg.Recommend.CandidatePool = 100
	}
	if cfg.Recommend.JobPool == 0 {
		cfg.Recommend.JobPool = 500
	}
	if cfg.Recommend.CachedMatchLimit == 0 {
		cfg.Recommend.CachedMatchLimit = 100
	}
	if cfg.Recommend.MinCandidateScore == 0 {
		cfg.Recommend.MinCandidateScore = 10
	}
	if cfg.Recommend.ResultCacheTTL == 0 {
		cfg.Recommend.ResultCacheTTL = 300000
	}
	if cfg.Recommend.ProfileCacheTTL == 0 {
		cfg.Recommend.ProfileCacheTTL = 300000
	}
	if cfg.Recommend.JobSearchIndex == "" {
		cfg.Recommend.JobSearchIndex = "job_posts"
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
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}

	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}

	if cfg.MLEngine.BaseURL == "" {
		return fmt.Errorf("ml_engine.base_url is required")
	}

	if cfg.Recommend.UseSearchPool && cfg.Database.Elasticsearch.GetURL() == "" {
		return fmt.Errorf("database.elasticsearch.addresses or url is required when recommend.use_search_pool is set")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
