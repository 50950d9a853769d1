// Package config loads runtime configuration for the LeadKeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. A .env file in the working directory, if present.
//  3. Optional JSON file selected via flags: -c or -config.
//  4. LEADKEEPER_* environment variables (e.g. LEADKEEPER_PROVIDER_URL).
//  5. Command-line flags, which override everything above.
//
// Supported flags
//
//	-p string   identity provider kind (gotrue|local)
//	-a string   identity provider base URL
//	-k string   identity provider anon key
//	-d string   local database path
//	-i int      online status check interval (seconds)
//	-l string   log level
//	-e string   export directory
//
// # JSON schema
//
//	{
//	  "provider": "gotrue",
//	  "provider_url": "https://project.supabase.co",
//	  "provider_anon_key": "public-anon-key",
//	  "request_timeout": "10s",
//	  "online_check_interval": "5s",
//	  "search_latency": "1500ms",
//	  "low_credit_threshold": 5,
//	  "s3_bucket": "lead-exports"
//	}
package config
