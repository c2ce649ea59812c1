package config

import (
	"flag"
	"os"
	"time"

	"unidrive/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-k int      keep-alive interval, seconds
//
// Provider credential blocks are only configurable through the JSON overlay;
// four providers times four fields do not fit a short-flag vocabulary.
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-k"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	keepAliveInterval := fs.Int("k", int(config.KeepAliveInterval.Seconds()), "keep-alive interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.KeepAliveInterval = time.Duration(*keepAliveInterval) * time.Second
}
