package models

// MConfig Structure
type MConfig struct {
	Name string `yaml:"name"`
	Env  string `yaml:"env"`
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// TrustedProxies may set X-Forwarded-For; empty means the socket
	// address is the client IP.
	TrustedProxies []string         `yaml:"trusted_proxies"`
	LogLevel       string           `yaml:"log_level"`
	Storage        MStorageConfig   `yaml:"storage"`
	Network        MNetworkConfig   `yaml:"network"`
	External       MExternalConfig  `yaml:"external"`
	Cache          MCacheConfig     `yaml:"cache"`
	Auth           MAuthConfig      `yaml:"auth"`
	RateLimit      MRateLimitConfig `yaml:"rate_limit"`
	CORS           MCORSConfig      `yaml:"cors"`
	Memes          MMemesConfig     `yaml:"memes"`
	Stream         MStreamConfig    `yaml:"stream"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

type MNetworkConfig struct {
	Proxies        []string `yaml:"proxies"`
	RequestTimeout int      `yaml:"timeout"`
	MaxRetries     int      `yaml:"retries"`
	UserAgent      string   `yaml:"user_agent"`
}

type MExternalConfig struct {
	CoinGecko   MUpstreamConfig `yaml:"coingecko"`
	CryptoPanic MUpstreamConfig `yaml:"cryptopanic"`
	AI          MUpstreamConfig `yaml:"ai"`
}

// MUpstreamConfig describes one third-party backend. APIKey is normally
// injected from the environment rather than written to YAML.
type MUpstreamConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Retries        *int   `yaml:"retries"` // nil inherits network.retries; 0 disables
	MaxTokens      int    `yaml:"max_tokens"`
}

type MCacheConfig struct {
	Prices  MCacheEntryConfig `yaml:"prices"`
	News    MCacheEntryConfig `yaml:"news"`
	Insight MCacheEntryConfig `yaml:"insight"`
}

type MCacheEntryConfig struct {
	TTLSeconds         int `yaml:"ttl_seconds"`
	CheckPeriodSeconds int `yaml:"check_period_seconds"`
}

type MAuthConfig struct {
	JWTSecret  string `yaml:"jwt_secret"`
	ExpiresIn  string `yaml:"expires_in"`
	Issuer     string `yaml:"issuer"`
	Audience   string `yaml:"audience"`
	BcryptCost int    `yaml:"bcrypt_cost"`
}

// MRateLimitConfig holds requests-per-minute budgets.
type MRateLimitConfig struct {
	Global    int `yaml:"global"`
	Auth      int `yaml:"auth"`
	Dashboard int `yaml:"dashboard"`
	Feedback  int `yaml:"feedback"`
}

type MCORSConfig struct {
	Origins []string `yaml:"origins"`
}

type MMemesConfig struct {
	Path string `yaml:"path"`
}

type MStreamConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
}
