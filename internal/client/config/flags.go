package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

// ValueFlags lists every global flag that takes a value, so the caller can
// separate the command and its arguments from the flags.
var ValueFlags = []string{"-s", "-session", "-timeout", "-c", "-config"}

// parseFlags populates selected Config fields from command-line flags.
//
//	-s string        base URL of the auth server
//	-session string  path of the session file
//	-timeout int     request timeout in seconds
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-s", "-session", "-timeout"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "s", cfg.ServerURL, "auth server base URL")
	fs.StringVar(&cfg.SessionFile, "session", cfg.SessionFile, "session file path")
	timeout := fs.Int("timeout", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "timeout" {
			cfg.RequestTimeout = time.Duration(*timeout) * time.Second
		}
	})
}
