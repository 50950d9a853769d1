package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/leadkeeper/internal/flagx"
	"github.com/dmitrijs2005/leadkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields distinguish "absent" from "zero" so a partial file only overrides
// what it names.
type JsonConfig struct {
	ProviderKind        *string         `json:"provider"`
	ProviderURL         *string         `json:"provider_url"`
	ProviderAnonKey     *string         `json:"provider_anon_key"`
	ProviderJWKSURL     *string         `json:"provider_jwks_url"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
	DatabasePath        *string         `json:"database_path"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	SearchLatency       *timex.Duration `json:"search_latency"`
	EnrichLatency       *timex.Duration `json:"enrich_latency"`
	PaymentLatency      *timex.Duration `json:"payment_latency"`
	EnrichCacheTTL      *timex.Duration `json:"enrich_cache_ttl"`
	LowCreditThreshold  *int            `json:"low_credit_threshold"`
	ExportDir           *string         `json:"export_dir"`
	S3Bucket            *string         `json:"s3_bucket"`
	S3Region            *string         `json:"s3_region"`
	S3Endpoint          *string         `json:"s3_endpoint"`
	S3AccessKey         *string         `json:"s3_access_key"`
	S3SecretKey         *string         `json:"s3_secret_key"`
	LogLevel            *string         `json:"log_level"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Without the flag nothing happens. Read or decode errors
// panic; the CLI cannot run with a config it was told to use but cannot read.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigFileFlag(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	jc.apply(cfg)
}

func (jc *JsonConfig) apply(cfg *Config) {
	setString(&cfg.ProviderKind, jc.ProviderKind)
	setString(&cfg.ProviderURL, jc.ProviderURL)
	setString(&cfg.ProviderAnonKey, jc.ProviderAnonKey)
	setString(&cfg.ProviderJWKSURL, jc.ProviderJWKSURL)
	setDuration(&cfg.RequestTimeout, jc.RequestTimeout)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setDuration(&cfg.OnlineCheckInterval, jc.OnlineCheckInterval)
	setDuration(&cfg.SearchLatency, jc.SearchLatency)
	setDuration(&cfg.EnrichLatency, jc.EnrichLatency)
	setDuration(&cfg.PaymentLatency, jc.PaymentLatency)
	setDuration(&cfg.EnrichCacheTTL, jc.EnrichCacheTTL)
	if jc.LowCreditThreshold != nil {
		cfg.LowCreditThreshold = *jc.LowCreditThreshold
	}
	setString(&cfg.ExportDir, jc.ExportDir)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3Endpoint, jc.S3Endpoint)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	setString(&cfg.LogLevel, jc.LogLevel)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *timex.Duration) {
	if src != nil {
		*dst = src.Duration
	}
}
