package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"crypto-advisor/src/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new Config from a YAML file, then layers defaults,
// an optional .env file and environment variables on top.
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	return Parse(data)
}

// -----------------------------------------------------------------------------

// Parse builds a Config from raw YAML.
func Parse(data []byte) (*Config, error) {
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.ApplyDefaults()

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	config.ApplyEnv(os.LookupEnv)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

// -----------------------------------------------------------------------------

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	setString(&c.Name, "crypto-advisor-api")
	setString(&c.Env, "development")
	setString(&c.Host, "0.0.0.0")
	setInt(&c.Port, 5000)
	setString(&c.LogLevel, "INFO")

	setString(&c.Storage.DBType, "sqlite")
	if c.Storage.DBType == "sqlite" {
		setString(&c.Storage.DBPath, "crypto-advisor.db")
	}

	setInt(&c.Network.RequestTimeout, 10)

	cg := &c.External.CoinGecko
	setString(&cg.BaseURL, "https://api.coingecko.com/api/v3")
	setInt(&cg.TimeoutSeconds, 10)
	setDefaultInt(&cg.Retries, 3)

	cp := &c.External.CryptoPanic
	setString(&cp.BaseURL, "https://cryptopanic.com/api/developer/v2")
	setInt(&cp.TimeoutSeconds, 10)
	setDefaultInt(&cp.Retries, 2)

	ai := &c.External.AI
	setString(&ai.BaseURL, "https://openrouter.ai/api/v1")
	setString(&ai.Model, "openai/gpt-oss-20b")
	setInt(&ai.TimeoutSeconds, 60)
	setInt(&ai.MaxTokens, 800)

	setInt(&c.Cache.Prices.TTLSeconds, 120)
	setInt(&c.Cache.Prices.CheckPeriodSeconds, 60)
	setInt(&c.Cache.News.TTLSeconds, 600)
	setInt(&c.Cache.News.CheckPeriodSeconds, 120)
	setInt(&c.Cache.Insight.TTLSeconds, 86400)
	setInt(&c.Cache.Insight.CheckPeriodSeconds, 3600)

	setString(&c.Auth.ExpiresIn, "168h")
	setString(&c.Auth.Issuer, "crypto-advisor-api")
	setString(&c.Auth.Audience, "crypto-advisor-client")
	setInt(&c.Auth.BcryptCost, 12)

	setInt(&c.RateLimit.Global, 100)
	setInt(&c.RateLimit.Auth, 10)
	setInt(&c.RateLimit.Dashboard, 30)
	setInt(&c.RateLimit.Feedback, 20)

	if len(c.CORS.Origins) == 0 {
		c.CORS.Origins = []string{"http://localhost:3000"}
	}

	setInt(&c.Stream.IntervalSeconds, 30)
}

func setString(dst *string, def string) {
	if strings.TrimSpace(*dst) == "" {
		*dst = def
	}
}

func setInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}

// setDefaultInt fills an unset optional value; an explicit 0 is kept.
func setDefaultInt(dst **int, def int) {
	if *dst == nil {
		*dst = &def
	}
}

// -----------------------------------------------------------------------------

// ApplyEnv overrides settings from the environment. lookup is os.LookupEnv
// in production and a map in tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("ENV", &c.Env)
	str("LOG_LEVEL", &c.LogLevel)
	str("JWT_SECRET", &c.Auth.JWTSecret)
	str("JWT_EXPIRES_IN", &c.Auth.ExpiresIn)
	str("DB_TYPE", &c.Storage.DBType)
	str("DB_PATH", &c.Storage.DBPath)
	str("DB_CONNECTION_STRING", &c.Storage.DBConnectionString)
	str("COINGECKO_API_URL", &c.External.CoinGecko.BaseURL)
	str("CRYPTOPANIC_API_URL", &c.External.CryptoPanic.BaseURL)
	str("CRYPTOPANIC_API_KEY", &c.External.CryptoPanic.APIKey)
	str("AI_API_URL", &c.External.AI.BaseURL)
	str("AI_API_KEY", &c.External.AI.APIKey)
	str("AI_MODEL", &c.External.AI.Model)
	str("MEMES_PATH", &c.Memes.Path)

	if v, ok := lookup("PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v, ok := lookup("CORS_ORIGIN"); ok && v != "" {
		c.CORS.Origins = splitList(v)
	}
	if v, ok := lookup("TRUSTED_PROXIES"); ok && v != "" {
		c.TrustedProxies = splitList(v)
	}
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	// Validate Storage configuration
	switch c.Storage.DBType {
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("database connection string cannot be empty for postgres")
		}
	default:
		return fmt.Errorf("unsupported database type: %q", c.Storage.DBType)
	}

	// Validate Network configuration
	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}

	for name, up := range map[string]models.MUpstreamConfig{
		"coingecko":   c.External.CoinGecko,
		"cryptopanic": c.External.CryptoPanic,
		"ai":          c.External.AI,
	} {
		if up.BaseURL == "" {
			return fmt.Errorf("external.%s.base_url cannot be empty", name)
		}
		if up.TimeoutSeconds <= 0 {
			return fmt.Errorf("external.%s.timeout_seconds must be greater than 0", name)
		}
		if up.Retries != nil && *up.Retries < 0 {
			return fmt.Errorf("external.%s.retries cannot be negative", name)
		}
	}

	for name, entry := range map[string]models.MCacheEntryConfig{
		"prices":  c.Cache.Prices,
		"news":    c.Cache.News,
		"insight": c.Cache.Insight,
	} {
		if entry.TTLSeconds <= 0 {
			return fmt.Errorf("cache.%s.ttl_seconds must be greater than 0", name)
		}
		if entry.CheckPeriodSeconds < 0 {
			return fmt.Errorf("cache.%s.check_period_seconds cannot be negative", name)
		}
	}

	if _, err := c.TokenTTL(); err != nil {
		return fmt.Errorf("invalid auth.expires_in %q: %w", c.Auth.ExpiresIn, err)
	}
	if c.Auth.JWTSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		c.Auth.JWTSecret = "dev-secret-change-in-production"
	}

	if c.Stream.IntervalSeconds <= 0 {
		return fmt.Errorf("stream interval must be greater than 0")
	}

	return nil
}

// -----------------------------------------------------------------------------

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// -----------------------------------------------------------------------------

// TokenTTL parses auth.expires_in. A bare "<n>d" suffix is accepted for days.
func (c *Config) TokenTTL() (time.Duration, error) {
	s := strings.TrimSpace(c.Auth.ExpiresIn)
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, err
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return d, nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path.
// Secrets are blanked so they never land on disk.
func (c *Config) Save(configPath string) error {
	clean := *c.MConfig
	clean.Auth.JWTSecret = ""
	clean.External.CryptoPanic.APIKey = ""
	clean.External.AI.APIKey = ""
	clean.Storage.DBConnectionString = ""

	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(&clean)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
