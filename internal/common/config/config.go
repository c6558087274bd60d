// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	MLEngine  MLEngineConfig  `mapstructure:"ml_engine"`
	Recommend RecommendConfig `mapstructure:"recommend"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	HTTPPort    int    `mapstructure:"http_port"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	URL        string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MLEngineConfig holds settings for the external scoring microservice.
type MLEngineConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        int           `mapstructure:"timeout"`        // milliseconds
	MaxJobs        int           `mapstructure:"max_jobs"`       // payload cap for /recommend/jobs
	MaxCandidates  int           `mapstructure:"max_candidates"` // payload cap for /recommend/candidates
	MaxOthers      int           `mapstructure:"max_others"`     // payload cap for /recommend/similar-users
	CircuitBreaker BreakerConfig `mapstructure:"circuit_breaker"`
}

// BreakerConfig holds circuit breaker settings for ML engine calls.
type BreakerConfig struct {
	MaxRequests      uint32 `mapstructure:"max_requests"`      // allowed through while half-open
	Interval         int    `mapstructure:"interval"`          // milliseconds, closed-state count reset
	Timeout          int    `mapstructure:"timeout"`           // milliseconds, open -> half-open
	FailureThreshold uint32 `mapstructure:"failure_threshold"` // consecutive failures to trip
}

// RecommendConfig holds ranking cascade limits and cache settings.
type RecommendConfig struct {
	JobLimit          int     `mapstructure:"job_limit"`           // jobs returned to a candidate
	CandidateLimit    int     `mapstructure:"candidate_limit"`     // candidates returned to an employer
	ConnectionLimit   int     `mapstructure:"connection_limit"`    // connections returned to a user
	TopMatchLimit     int     `mapstructure:"top_match_limit"`     // default limit for top match summaries
	CandidatePool     int     `mapstructure:"candidate_pool"`      // bounded read of the candidate/user pool
	JobPool           int     `mapstructure:"job_pool"`            // bounded read of the job pool
	CachedMatchLimit  int     `mapstructure:"cached_match_limit"`  // cached online matches per subject
	MinCandidateScore float64 `mapstructure:"min_candidate_score"` // candidates below this are dropped
	ResultCacheTTL    int     `mapstructure:"result_cache_ttl"`    // milliseconds
	ProfileCacheTTL   int     `mapstructure:"profile_cache_ttl"`   // milliseconds
	JobSearchIndex    string  `mapstructure:"job_search_index"`
	UseSearchPool     bool    `mapstructure:"use_search_pool"` // read the job pool from elasticsearch
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
