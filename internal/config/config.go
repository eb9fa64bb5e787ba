// Package config handles loading and validation of service configuration.
// Supports both development (env vars) and production (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"golang.org/x/mod/semver"

	"storefront-cart/internal/gateway"
	"storefront-cart/internal/reconcile"
	"storefront-cart/internal/storage"
	"storefront-cart/internal/transport"
)

// Config holds all service configuration.
// Environment determines whether secrets load from env vars (development) or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject string
	SecretID   string

	Gateway GatewayConfig
	Storage StorageConfig
	Session SessionConfig
}

// GatewayConfig configures the storefront API client.
type GatewayConfig struct {
	URL             string   `json:"url"`
	APIKey          string   `json:"api_key,omitempty"`
	Timeout         Duration `json:"timeout,omitempty"`
	TLSFingerprint  string   `json:"tls_fingerprint,omitempty"` // "" or "chrome"
	BreakerFailures uint32   `json:"breaker_failures,omitempty"`
	BreakerCooldown Duration `json:"breaker_cooldown,omitempty"`
	Instrument      bool     `json:"instrument,omitempty"`
}

// StorageConfig selects where guest carts are kept.
type StorageConfig struct {
	Backend       string   `json:"backend"` // memory, file, redis, postgres
	Dir           string   `json:"dir,omitempty"`
	RedisAddr     string   `json:"redis_addr,omitempty"`
	RedisPassword string   `json:"redis_password,omitempty"`
	RedisDB       int      `json:"redis_db,omitempty"`
	PostgresDSN   string   `json:"postgres_dsn,omitempty"`
	CartTTL       Duration `json:"cart_ttl,omitempty"`
	PurgeInterval Duration `json:"purge_interval,omitempty"`
}

// SessionConfig controls per-device sessions.
type SessionConfig struct {
	CacheSize        int    `json:"cache_size,omitempty"`
	MinClientVersion string `json:"min_client_version,omitempty"`
	MergePolicy      string `json:"merge_policy,omitempty"`
}

// secrets is the Secret Manager payload. Only credentials live there.
type secrets struct {
	GatewayAPIKey string `json:"gateway_api_key"`
	RedisPassword string `json:"redis_password,omitempty"`
	PostgresDSN   string `json:"postgres_dsn,omitempty"`
}

// Duration is a time.Duration that reads as "15s" in JSON.
type Duration time.Duration

// UnmarshalJSON accepts a duration string or a number of seconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}
	var secs float64
	if err := json.Unmarshal(data, &secs); err != nil {
		return fmt.Errorf("invalid duration %s", data)
	}
	*d = Duration(time.Duration(secs * float64(time.Second)))
	return nil
}

const (
	defaultPort          = "8080"
	defaultCacheSize     = 10000
	defaultPurgeInterval = 10 * time.Minute
	defaultSecretID      = "storefront-cart"
)

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) → ENV vars / Secret Manager.
// Validates all required fields and returns an error if any are missing.
func Load(ctx context.Context) (*Config, error) {
	// If CONFIG_FILE is set, load everything from the JSON file
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	cfg := &Config{
		Port:        envOrDefault("PORT", defaultPort),
		Environment: envOrDefault("ENVIRONMENT", "development"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		GCPProject:  os.Getenv("GCP_PROJECT"),
		SecretID:    envOrDefault("SECRET_ID", defaultSecretID),
	}
	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}

	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		if err := cfg.loadFromSecretManager(ctx); err != nil {
			return nil, fmt.Errorf("loading secrets: %w", err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile reads all configuration from a JSON file.
// Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fileConfig struct {
		Port        string        `json:"port"`
		Environment string        `json:"environment"`
		LogLevel    string        `json:"log_level"`
		Gateway     GatewayConfig `json:"gateway"`
		Storage     StorageConfig `json:"storage"`
		Session     SessionConfig `json:"session"`
	}
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		Port:        withDefault(fileConfig.Port, defaultPort),
		Environment: withDefault(fileConfig.Environment, "development"),
		LogLevel:    withDefault(fileConfig.LogLevel, "info"),
		Gateway:     fileConfig.Gateway,
		Storage:     fileConfig.Storage,
		Session:     fileConfig.Session,
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// loadFromSecretManager fetches credentials from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{secret_id}/versions/latest
// Non-empty secret values override the environment.
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.SecretID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	return c.applySecrets(result.Payload.Data)
}

func (c *Config) applySecrets(data []byte) error {
	var s secrets
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}
	c.Gateway.APIKey = withDefault(s.GatewayAPIKey, c.Gateway.APIKey)
	c.Storage.RedisPassword = withDefault(s.RedisPassword, c.Storage.RedisPassword)
	c.Storage.PostgresDSN = withDefault(s.PostgresDSN, c.Storage.PostgresDSN)
	return nil
}

// loadFromEnv reads settings from individual environment variables.
func (c *Config) loadFromEnv() error {
	c.Gateway = GatewayConfig{
		URL:            os.Getenv("GATEWAY_URL"),
		APIKey:         os.Getenv("GATEWAY_API_KEY"),
		TLSFingerprint: os.Getenv("GATEWAY_TLS_FINGERPRINT"),
	}
	c.Storage = StorageConfig{
		Backend:       envOrDefault("STORAGE_BACKEND", storage.BackendMemory),
		Dir:           os.Getenv("STORAGE_DIR"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
	}
	c.Session = SessionConfig{
		MinClientVersion: os.Getenv("MIN_CLIENT_VERSION"),
		MergePolicy:      os.Getenv("MERGE_POLICY"),
	}

	var err error
	if c.Gateway.Timeout, err = envDuration("GATEWAY_TIMEOUT"); err != nil {
		return err
	}
	if c.Gateway.BreakerCooldown, err = envDuration("GATEWAY_BREAKER_COOLDOWN"); err != nil {
		return err
	}
	if c.Storage.CartTTL, err = envDuration("CART_TTL"); err != nil {
		return err
	}
	if c.Storage.PurgeInterval, err = envDuration("PURGE_INTERVAL"); err != nil {
		return err
	}

	failures, err := envInt("GATEWAY_BREAKER_FAILURES")
	if err != nil {
		return err
	}
	c.Gateway.BreakerFailures = uint32(failures)
	if c.Storage.RedisDB, err = envInt("REDIS_DB"); err != nil {
		return err
	}
	if c.Session.CacheSize, err = envInt("SESSION_CACHE_SIZE"); err != nil {
		return err
	}

	if v := os.Getenv("OTEL_INSTRUMENT"); v != "" {
		if c.Gateway.Instrument, err = strconv.ParseBool(v); err != nil {
			return fmt.Errorf("parsing OTEL_INSTRUMENT: %w", err)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Storage.Backend == "" {
		c.Storage.Backend = storage.BackendMemory
	}
	if c.Storage.PurgeInterval == 0 {
		c.Storage.PurgeInterval = Duration(defaultPurgeInterval)
	}
	if c.Session.CacheSize == 0 {
		c.Session.CacheSize = defaultCacheSize
	}
	if c.Session.MinClientVersion != "" && c.Session.MinClientVersion[0] != 'v' {
		c.Session.MinClientVersion = "v" + c.Session.MinClientVersion
	}
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	if c.Gateway.URL == "" {
		return fmt.Errorf("gateway url is required")
	}
	u, err := url.Parse(c.Gateway.URL)
	if err != nil {
		return fmt.Errorf("invalid gateway url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("gateway url must be http or https: %s", c.Gateway.URL)
	}

	switch c.Gateway.TLSFingerprint {
	case transport.FingerprintDefault, transport.FingerprintChrome:
	default:
		return fmt.Errorf("unsupported tls_fingerprint: %s", c.Gateway.TLSFingerprint)
	}

	switch c.Storage.Backend {
	case storage.BackendMemory:
	case storage.BackendFile:
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage dir is required for the file backend")
		}
	case storage.BackendRedis:
		if c.Storage.RedisAddr == "" {
			return fmt.Errorf("redis_addr is required for the redis backend")
		}
	case storage.BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("postgres_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unsupported storage backend: %s", c.Storage.Backend)
	}
	if c.Storage.CartTTL < 0 {
		return fmt.Errorf("cart_ttl must not be negative")
	}
	if c.Storage.PurgeInterval < 0 {
		return fmt.Errorf("purge_interval must not be negative")
	}

	if c.Session.CacheSize < 0 {
		return fmt.Errorf("session cache_size must be positive")
	}
	if v := c.Session.MinClientVersion; v != "" && !semver.IsValid(v) {
		return fmt.Errorf("invalid min_client_version %q", v)
	}
	if _, err := reconcile.ParsePolicy(c.Session.MergePolicy); err != nil {
		return err
	}
	return nil
}

// GatewayClientConfig returns the gateway client settings.
func (c *Config) GatewayClientConfig(logger *slog.Logger) gateway.Config {
	return gateway.Config{
		BaseURL:         strings.TrimSuffix(c.Gateway.URL, "/"),
		APIKey:          c.Gateway.APIKey,
		Timeout:         time.Duration(c.Gateway.Timeout),
		TLSFingerprint:  c.Gateway.TLSFingerprint,
		Instrument:      c.Gateway.Instrument,
		BreakerFailures: c.Gateway.BreakerFailures,
		BreakerCooldown: time.Duration(c.Gateway.BreakerCooldown),
		Logger:          logger,
	}
}

// StorageOptions returns the guest cart storage settings.
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend:       c.Storage.Backend,
		TTL:           time.Duration(c.Storage.CartTTL),
		Dir:           c.Storage.Dir,
		RedisAddr:     c.Storage.RedisAddr,
		RedisPassword: c.Storage.RedisPassword,
		RedisDB:       c.Storage.RedisDB,
		PostgresDSN:   c.Storage.PostgresDSN,
	}
}

// MergePolicy returns the reconciler policy. validate has already checked it.
func (c *Config) MergePolicy() reconcile.Policy {
	p, _ := reconcile.ParsePolicy(c.Session.MergePolicy)
	return p
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func envDuration(key string) (Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return Duration(d), nil
}

func envInt(key string) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return n, nil
}
