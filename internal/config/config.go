package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"slices"
	"time"

	"github.com/goccy/go-yaml"
)

// Config holds the application configuration
type Config struct {
	App       AppConfig       `yaml:"app"`
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Comments  CommentsConfig  `yaml:"comments"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// AppConfig holds app-specific configuration
type AppConfig struct {
	Name          string   `yaml:"name"`
	Version       string   `yaml:"version"`
	DefaultLocale string   `yaml:"default_locale"`
	Locales       []string `yaml:"locales"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Host                  string          `yaml:"host"`
	Port                  int             `yaml:"port"`
	Domain                string          `yaml:"domain"`
	AllowedOrigins        []string        `yaml:"allowed_origins"`
	RateLimit             RateLimitConfig `yaml:"rate_limit"`
	RequestTimeoutSeconds int             `yaml:"request_timeout_seconds"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Max        int `yaml:"max"`
	Expiration int `yaml:"expiration"` // seconds
}

// AuthConfig holds configuration for verifying identity tokens
type AuthConfig struct {
	KeysPath  string   `yaml:"keys_path"`
	ActiveKID string   `yaml:"active_kid"`
	JWKSURL   string   `yaml:"jwks_url"`
	Issuer    string   `yaml:"issuer"`
	Audience  []string `yaml:"audience"`
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// RedisConfig holds redis-specific configuration
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// CommentsConfig holds comment and deletion-window configuration
type CommentsConfig struct {
	DeletionWindowMinutes int `yaml:"deletion_window_minutes"`
	SessionTTLHours       int `yaml:"session_ttl_hours"`
	MaxLength             int `yaml:"max_length"`
	AuthorMaxLength       int `yaml:"author_max_length"`
	SweepIntervalMinutes  int `yaml:"sweep_interval_minutes"`
}

// AnalyticsConfig holds view analytics configuration
type AnalyticsConfig struct {
	ViewerSalt string `yaml:"viewer_salt"`
}

// LoggingConfig holds logging-specific configuration
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

const (
	defaultDeletionWindow = 30 * time.Minute
	defaultSessionTTL     = 24 * time.Hour
	defaultRequestTimeout = 5 * time.Second
	defaultCommentLength  = 2000
	defaultAuthorLength   = 50
	defaultLocale         = "en"
)

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// Address returns the server address in the format "host:port"
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RequestTimeout bounds the storage calls made while serving one request.
func (s *ServerConfig) RequestTimeout() time.Duration {
	if s.RequestTimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

// Address returns the redis address in the format "host:port"
func (r *RedisConfig) Address() string {
	return net.JoinHostPort(r.Host, fmt.Sprintf("%d", r.Port))
}

// Enabled reports whether a redis host is configured
func (r *RedisConfig) Enabled() bool {
	return r.Host != ""
}

// DeletionWindow is how long a session may delete a comment it created.
func (c *CommentsConfig) DeletionWindow() time.Duration {
	if c.DeletionWindowMinutes <= 0 {
		return defaultDeletionWindow
	}
	return time.Duration(c.DeletionWindowMinutes) * time.Minute
}

// SessionTTL is the lifetime of the anonymous comment session cookie.
func (c *CommentsConfig) SessionTTL() time.Duration {
	if c.SessionTTLHours <= 0 {
		return defaultSessionTTL
	}
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// SweepInterval returns zero when the background sweep is disabled.
func (c *CommentsConfig) SweepInterval() time.Duration {
	if c.SweepIntervalMinutes <= 0 {
		return 0
	}
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

// ContentLimit returns the maximum comment length in characters
func (c *CommentsConfig) ContentLimit() int {
	if c.MaxLength <= 0 {
		return defaultCommentLength
	}
	return c.MaxLength
}

// AuthorLimit returns the maximum author name length in characters
func (c *CommentsConfig) AuthorLimit() int {
	if c.AuthorMaxLength <= 0 {
		return defaultAuthorLength
	}
	return c.AuthorMaxLength
}

// FallbackLocale returns the locale used when a request does not name one
func (a *AppConfig) FallbackLocale() string {
	if a.DefaultLocale == "" {
		return defaultLocale
	}
	return a.DefaultLocale
}

// SupportsLocale reports whether locale is one of the configured locales.
// With no locales configured only the fallback locale is accepted.
func (a *AppConfig) SupportsLocale(locale string) bool {
	if len(a.Locales) == 0 {
		return locale == a.FallbackLocale()
	}
	return slices.Contains(a.Locales, locale)
}

// quoteDSNValue quotes a DSN value if it contains spaces or special characters.
// Single quotes inside the value are escaped by doubling them.
func quoteDSNValue(value string) string {
	needsQuoting := false
	for _, r := range value {
		if r == ' ' || r == '\'' || r == '\\' || r == '=' {
			needsQuoting = true
			break
		}
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
			r == '.' || r == '-' || r == '_' || r == '/' || r == '@' || r == ':') {
			needsQuoting = true
			break
		}
	}

	if !needsQuoting {
		return value
	}

	escaped := ""
	for _, r := range value {
		if r == '\'' {
			escaped += "''"
		} else {
			escaped += string(r)
		}
	}

	return "'" + escaped + "'"
}

// DSN returns the database connection string
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		quoteDSNValue(d.Host),
		d.Port,
		quoteDSNValue(d.User),
		quoteDSNValue(d.Password),
		quoteDSNValue(d.DBName),
		quoteDSNValue(d.SSLMode),
	)
}

// URL returns the database connection URL in postgres:// format for golang-migrate
func (d *DatabaseConfig) URL() string {
	userInfo := url.UserPassword(d.User, d.Password)

	// net.JoinHostPort wraps IPv6 hosts in brackets
	host := net.JoinHostPort(d.Host, fmt.Sprintf("%d", d.Port))

	u := &url.URL{
		Scheme:   "postgres",
		User:     userInfo,
		Host:     host,
		Path:     "/" + d.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s&search_path=public", url.QueryEscape(d.SSLMode)),
	}

	return u.String()
}
