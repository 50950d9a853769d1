package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/leadkeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-p string   identity provider kind: "gotrue" or "local"
//	-a string   identity provider base URL
//	-k string   identity provider anon (public) key
//	-d string   path to the local SQLite database
//	-i int      online check interval (in seconds)
//	-l string   log level: debug, info, warn, error
//	-e string   export directory
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-p", "-a", "-k", "-d", "-i", "-l", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ProviderKind, "p", cfg.ProviderKind, "identity provider kind (gotrue|local)")
	fs.StringVar(&cfg.ProviderURL, "a", cfg.ProviderURL, "identity provider base URL")
	fs.StringVar(&cfg.ProviderAnonKey, "k", cfg.ProviderAnonKey, "identity provider anon key")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to local database")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.ExportDir, "e", cfg.ExportDir, "export directory")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}
