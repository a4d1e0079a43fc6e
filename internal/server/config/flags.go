package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/users/internal/flagx"
)

var handledFlags = []string{
	"-a", "-o", "-d", "-s", "-k", "-t", "-r", "-w", "-M", "-n", "-f", "-v", "-q",
	"-u", "-p", "-b", "-g", "-e",
}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-o string   ops HTTP bind address (e.g., ":8081")
//	-d string   PostgreSQL DSN, or "memory://"
//	-s string   JWT HMAC secret key
//	-k string   admin key
//	-t int      access token validity, minutes
//	-r int      session TTL, minutes
//	-w duration sliding refresh window
//	-M duration max session lifetime (0 = uncapped)
//	-n bool     single-session mode (use -n=false to disable)
//	-f int      hash policy version (1 bcrypt, 2 argon2id)
//	-v string   log level
//	-q string   NATS URL for audit events
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 audit bucket
//	-g string   S3 region
//	-e string   S3 base endpoint
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], handledFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.EndpointAddrOps, "o", config.EndpointAddrOps, "address and port for health and metrics")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.AdminKey, "k", config.AdminKey, "admin key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	sessionTTL := fs.Int("r", int(config.SessionTTL.Minutes()), "session_ttl (in minutes)")

	fs.DurationVar(&config.SlidingWindow, "w", config.SlidingWindow, "sliding refresh window")
	fs.DurationVar(&config.MaxSessionLifetime, "M", config.MaxSessionLifetime, "max session lifetime")
	fs.BoolVar(&config.SingleSession, "n", config.SingleSession, "single-session mode")
	fs.IntVar(&config.HashPolicyVersion, "f", config.HashPolicyVersion, "hash policy version")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")
	fs.StringVar(&config.NATSURL, "q", config.NATSURL, "NATS URL")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 audit bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// Minute flags only override when given, so sub-minute values from JSON
	// survive.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
		case "r":
			config.SessionTTL = time.Duration(*sessionTTL) * time.Minute
		}
	})
}
