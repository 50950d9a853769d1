package config

import "time"

// Provider kinds accepted in Config.ProviderKind.
const (
	ProviderGoTrue = "gotrue"
	ProviderLocal  = "local"
)

// Config holds runtime settings for the LeadKeeper CLI.
//
// Durations are time.Duration values; in JSON they may be written as "3s"
// or as integer nanoseconds (see timex.Duration), in the environment as Go
// duration strings.
type Config struct {
	ProviderKind        string        `env:"PROVIDER"`
	ProviderURL         string        `env:"PROVIDER_URL"`
	ProviderAnonKey     string        `env:"PROVIDER_ANON_KEY"`
	ProviderJWKSURL     string        `env:"PROVIDER_JWKS_URL"`
	RequestTimeout      time.Duration `env:"REQUEST_TIMEOUT"`
	DatabasePath        string        `env:"DATABASE_PATH"`
	OnlineCheckInterval time.Duration `env:"ONLINE_CHECK_INTERVAL"`
	SearchLatency       time.Duration `env:"SEARCH_LATENCY"`
	EnrichLatency       time.Duration `env:"ENRICH_LATENCY"`
	PaymentLatency      time.Duration `env:"PAYMENT_LATENCY"`
	EnrichCacheTTL      time.Duration `env:"ENRICH_CACHE_TTL"`
	LowCreditThreshold  int           `env:"LOW_CREDIT_THRESHOLD"`
	ExportDir           string        `env:"EXPORT_DIR"`
	S3Bucket            string        `env:"S3_BUCKET"`
	S3Region            string        `env:"S3_REGION"`
	S3Endpoint          string        `env:"S3_ENDPOINT"`
	S3AccessKey         string        `env:"S3_ACCESS_KEY"`
	S3SecretKey         string        `env:"S3_SECRET_KEY"`
	LogLevel            string        `env:"LOG_LEVEL"`
}

// LoadDefaults populates c with sensible defaults. The local provider is the
// default so the CLI works without any backend.
func (c *Config) LoadDefaults() {
	c.ProviderKind = ProviderLocal
	c.ProviderURL = "http://127.0.0.1:54321"
	c.RequestTimeout = 10 * time.Second
	c.DatabasePath = "leadkeeper.db"
	c.OnlineCheckInterval = 5 * time.Second
	c.SearchLatency = 1500 * time.Millisecond
	c.EnrichLatency = 1000 * time.Millisecond
	c.PaymentLatency = 2000 * time.Millisecond
	c.EnrichCacheTTL = 30 * time.Minute
	c.LowCreditThreshold = 5
	c.ExportDir = "exports"
	c.S3Region = "us-east-1"
	c.LogLevel = "info"
}

// LoadConfig constructs a Config: defaults, then .env, then the JSON file
// (-c/-config), then LEADKEEPER_* environment variables, then command-line
// flags. Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	loadDotEnv(".env")
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
