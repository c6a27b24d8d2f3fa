package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

var knownFlags = []string{
	"-a", "-storage", "-d", "-redis", "-as", "-rs", "-t", "-r", "-cost", "-url", "-maildir",
}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string        HTTP bind address (e.g. ":8080")
//	-storage string  storage backend, "postgres" or "redis"
//	-d string        PostgreSQL DSN
//	-redis string    Redis URL
//	-as string       access token secret
//	-rs string       refresh token secret
//	-t int           access token validity, minutes
//	-r int           refresh token validity, minutes
//	-cost int        bcrypt cost
//	-url string      public application URL used in emailed links
//	-maildir string  directory for the development mail sender
//
// os.Args is filtered with flagx.FilterArgs first so the -c/-config flag and
// unknown flags do not break parsing.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.StorageBackend, "storage", config.StorageBackend, "storage backend (postgres|redis)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisURL, "redis", config.RedisURL, "redis URL")
	fs.StringVar(&config.AccessTokenSecret, "as", config.AccessTokenSecret, "access token secret")
	fs.StringVar(&config.RefreshTokenSecret, "rs", config.RefreshTokenSecret, "refresh token secret")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (in minutes)")

	fs.IntVar(&config.BcryptCost, "cost", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.AppURL, "url", config.AppURL, "public application URL")
	fs.StringVar(&config.DevMailDir, "maildir", config.DevMailDir, "development mail directory")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// only explicit flags override, so sub-minute values from env or JSON survive
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
		}
	})
}
