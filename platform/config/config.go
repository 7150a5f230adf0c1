// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// AdminConfig provides settings needed by the admin auth service.
type AdminConfig interface {
	JWTConfig
	GetAdminUsername() string
	GetAdminPasswordHash() string
	GetAdminAPIToken() string
	GetAccessTokenTTL() time.Duration
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// RedisConfig provides settings for the Redis-backed session store.
type RedisConfig interface {
	GetRedisURL() string
	GetSessionTTL() time.Duration
}

// FunnelConfig provides tunables for the funnel calculation engine.
type FunnelConfig interface {
	GetDefaultCpqlTarget() float64
	GetMinimumAdBudget() float64
	GetManagementFeeFloor() float64
	GetVideoTickInterval() time.Duration
}

// WebhookConfig provides settings for the outbound notification gateway.
type WebhookConfig interface {
	GetWebhookURL() string
	GetWebhookPolicy() string
	GetWebhookRulesPath() string
	IsWebhookEnabled() bool
}

// EmailConfig provides settings for SMTP callback alerts.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromAddress() string
	GetEmailAlertAddress() string
}

// SiteConfig provides settings for sitemap/robots/llms endpoints.
type SiteConfig interface {
	GetSiteBaseURL() string
	GetSiteName() string
}

// Webhook delivery policies.
const (
	WebhookPolicyAlways         = "always"
	WebhookPolicyOnCallbackOnly = "on-callback-only"
)

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                string
	HTTPAddr           string
	DatabaseURL        string
	RedisURL           string
	SessionTTL         time.Duration
	JWTAccessSecret    string
	AccessTokenTTL     time.Duration
	AdminUsername      string
	AdminPasswordHash  string
	AdminAPIToken      string
	CORSAllowAll       bool
	CORSOrigins        []string
	CORSAllowCreds     bool
	DefaultCpqlTarget  float64
	MinimumAdBudget    float64
	ManagementFeeFloor float64
	VideoTickInterval  time.Duration
	WebhookURL         string
	WebhookPolicy      string
	WebhookRulesPath   string
	EmailEnabled       bool
	SMTPHost           string
	SMTPPort           int
	SMTPUsername       string
	SMTPPassword       string
	EmailFromAddress   string
	EmailAlertAddress  string
	SiteBaseURL        string
	SiteName           string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// AdminConfig implementation
func (c *Config) GetAdminUsername() string        { return c.AdminUsername }
func (c *Config) GetAdminPasswordHash() string    { return c.AdminPasswordHash }
func (c *Config) GetAdminAPIToken() string        { return c.AdminAPIToken }
func (c *Config) GetAccessTokenTTL() time.Duration { return c.AccessTokenTTL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string       { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool     { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string  { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool   { return c.CORSAllowCreds }

// RedisConfig implementation
func (c *Config) GetRedisURL() string           { return c.RedisURL }
func (c *Config) GetSessionTTL() time.Duration  { return c.SessionTTL }

// FunnelConfig implementation
func (c *Config) GetDefaultCpqlTarget() float64     { return c.DefaultCpqlTarget }
func (c *Config) GetMinimumAdBudget() float64       { return c.MinimumAdBudget }
func (c *Config) GetManagementFeeFloor() float64    { return c.ManagementFeeFloor }
func (c *Config) GetVideoTickInterval() time.Duration { return c.VideoTickInterval }

// WebhookConfig implementation
func (c *Config) GetWebhookURL() string       { return c.WebhookURL }
func (c *Config) GetWebhookPolicy() string    { return c.WebhookPolicy }
func (c *Config) GetWebhookRulesPath() string { return c.WebhookRulesPath }
func (c *Config) IsWebhookEnabled() bool {
	return c.WebhookURL != "" || c.WebhookRulesPath != ""
}

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool        { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string          { return c.SMTPHost }
func (c *Config) GetSMTPPort() int             { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string      { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string      { return c.SMTPPassword }
func (c *Config) GetEmailFromAddress() string  { return c.EmailFromAddress }
func (c *Config) GetEmailAlertAddress() string { return c.EmailAlertAddress }

// SiteConfig implementation
func (c *Config) GetSiteBaseURL() string { return c.SiteBaseURL }
func (c *Config) GetSiteName() string    { return c.SiteName }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "false"), "true")

	cfg := &Config{
		Env:                getEnv("APP_ENV", "development"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", ""),
		SessionTTL:         mustDuration(getEnv("FUNNEL_SESSION_TTL", "2h")),
		JWTAccessSecret:    getEnv("JWT_ACCESS_SECRET", ""),
		AccessTokenTTL:     mustDuration(getEnv("JWT_ACCESS_TTL", "12h")),
		AdminUsername:      getEnv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash:  getEnv("ADMIN_PASSWORD_HASH", ""),
		AdminAPIToken:      getEnv("ADMIN_API_TOKEN", ""),
		CORSAllowAll:       corsAllowAll,
		CORSOrigins:        corsOrigins,
		CORSAllowCreds:     strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		DefaultCpqlTarget:  mustFloat(getEnv("CPQL_TARGET_DEFAULT", "700")),
		MinimumAdBudget:    mustFloat(getEnv("MINIMUM_AD_BUDGET", "5000")),
		ManagementFeeFloor: mustFloat(getEnv("MANAGEMENT_FEE_FLOOR", "2000")),
		VideoTickInterval:  mustDuration(getEnv("VIDEO_TICK_INTERVAL", "5s")),
		WebhookURL:         getEnv("WEBHOOK_URL", ""),
		WebhookPolicy:      parseWebhookPolicy(getEnv("WEBHOOK_POLICY", WebhookPolicyAlways)),
		WebhookRulesPath:   getEnv("WEBHOOK_RULES_PATH", ""),
		EmailEnabled:       emailEnabled,
		SMTPHost:           getEnv("SMTP_HOST", ""),
		SMTPPort:           int(mustInt64(getEnv("SMTP_PORT", "587"))),
		SMTPUsername:       getEnv("SMTP_USERNAME", ""),
		SMTPPassword:       getEnv("SMTP_PASSWORD", ""),
		EmailFromAddress:   getEnv("EMAIL_FROM_ADDRESS", ""),
		EmailAlertAddress:  getEnv("EMAIL_ALERT_ADDRESS", ""),
		SiteBaseURL:        strings.TrimRight(getEnv("SITE_BASE_URL", "http://localhost:8080"), "/"),
		SiteName:           getEnv("SITE_NAME", "Lead Funnel"),
	}

	// DATABASE_URL may be empty: the funnel then runs on the in-memory store
	// and sessions report synced=false.
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.AdminPasswordHash == "" && cfg.AdminAPIToken == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD_HASH or ADMIN_API_TOKEN is required")
	}
	if cfg.DefaultCpqlTarget <= 0 {
		return nil, fmt.Errorf("CPQL_TARGET_DEFAULT must be positive")
	}
	if emailEnabled && (cfg.SMTPHost == "" || cfg.EmailAlertAddress == "") {
		return nil, fmt.Errorf("SMTP_HOST and EMAIL_ALERT_ADDRESS are required when EMAIL_ENABLED is true")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func parseWebhookPolicy(value string) string {
	if strings.EqualFold(strings.TrimSpace(value), WebhookPolicyOnCallbackOnly) {
		return WebhookPolicyOnCallbackOnly
	}
	return WebhookPolicyAlways
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
