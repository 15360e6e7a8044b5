// Package config provides application configuration loading from
// environment variables and .env files. It uses viper with sensible
// development defaults; Validate() enforces production constraints.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all service configuration.
// Priority: environment variables > .env file > defaults.
type Config struct {
	AppEnv          string   // Application environment (dev, staging, prod)
	HTTPAddr        string   // API server bind address
	MetricsAddr     string   // Prometheus metrics server bind address
	StoreType       string   // Rule storage backend: memory or postgres
	DatabaseDSN     string   // PostgreSQL connection string
	RulesFile       string   // Optional rule file loaded into the store at startup
	MatcherBackend  string   // Rule set backend: linear or tree
	QueryCache      bool     // Memoize query results per snapshot
	AdminAPIKey     string   // Plaintext admin key (dev); hash takes precedence
	AdminAPIKeyHash string   // bcrypt hash of the admin key (production)
	DomainKeys      []string // Optional closed attribute-key universe (comma-separated)
}

// Load reads configuration from environment variables and an optional
// .env file. Environment variables take precedence.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env") // optional; ignored when absent
	_ = v.ReadInConfig()
	v.AutomaticEnv()

	setDefaults(v)

	return &Config{
		AppEnv:          v.GetString("APP_ENV"),
		HTTPAddr:        v.GetString("HTTP_ADDR"),
		MetricsAddr:     v.GetString("METRICS_ADDR"),
		StoreType:       v.GetString("STORE_TYPE"),
		DatabaseDSN:     v.GetString("DB_DSN"),
		RulesFile:       v.GetString("RULES_FILE"),
		MatcherBackend:  v.GetString("MATCHER_BACKEND"),
		QueryCache:      v.GetBool("QUERY_CACHE"),
		AdminAPIKey:     v.GetString("ADMIN_API_KEY"),
		AdminAPIKeyHash: v.GetString("ADMIN_API_KEY_HASH"),
		DomainKeys:      splitKeys(v.GetString("DOMAIN_KEYS")),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("METRICS_ADDR", ":9090")
	v.SetDefault("STORE_TYPE", "memory")
	v.SetDefault("DB_DSN", "")
	v.SetDefault("RULES_FILE", "")
	v.SetDefault("MATCHER_BACKEND", "tree")
	v.SetDefault("QUERY_CACHE", false)
	v.SetDefault("ADMIN_API_KEY", "admin-123") // Change in production!
	v.SetDefault("ADMIN_API_KEY_HASH", "")
	v.SetDefault("DOMAIN_KEYS", "")
}

// splitKeys parses the comma-separated DOMAIN_KEYS value. Environment
// values arrive as one string, so the split happens here rather than
// through viper's whitespace-based slice parsing.
func splitKeys(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// ValidationError describes the first configuration constraint that failed.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation failed [%s]: %s", e.Field, e.Message)
}

// Validate checks that the configuration is usable, and in production
// (APP_ENV != dev) that insecure defaults are not in play.
func (c *Config) Validate() error {
	if c.StoreType != "memory" && c.StoreType != "postgres" {
		return ValidationError{Field: "STORE_TYPE", Message: fmt.Sprintf("must be 'memory' or 'postgres', got %q", c.StoreType)}
	}
	if c.StoreType == "postgres" && c.DatabaseDSN == "" {
		return ValidationError{Field: "DB_DSN", Message: "database DSN is required when STORE_TYPE=postgres"}
	}
	if c.MatcherBackend != "linear" && c.MatcherBackend != "tree" {
		return ValidationError{Field: "MATCHER_BACKEND", Message: fmt.Sprintf("must be 'linear' or 'tree', got %q", c.MatcherBackend)}
	}
	if c.HTTPAddr == "" {
		return ValidationError{Field: "HTTP_ADDR", Message: "API server address cannot be empty"}
	}
	if c.MetricsAddr == "" {
		return ValidationError{Field: "METRICS_ADDR", Message: "metrics server address cannot be empty"}
	}

	if c.AppEnv == "prod" || c.AppEnv == "production" {
		if c.AdminAPIKeyHash == "" && c.AdminAPIKey == "admin-123" {
			return ValidationError{Field: "ADMIN_API_KEY", Message: "default admin API key 'admin-123' is not allowed in production; set ADMIN_API_KEY_HASH"}
		}
	}

	return nil
}
