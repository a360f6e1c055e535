package config

import (
	"flag"
	"os"
	"time"

	"ipfsmarket/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      token validity, minutes
//	-m int      asset TTL, calendar months
//	-e string   pinning API base URL
//	-j string   pinning API bearer JWT
//	-g string   IPFS gateway URL prefix
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. The duration
// flag is accepted as an integer in minutes.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-m", "-e", "-j", "-g"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenValidityDuration := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token_validity_duration (in minutes)")

	fs.IntVar(&config.AssetTTLMonths, "m", config.AssetTTLMonths, "asset TTL (in calendar months)")
	fs.StringVar(&config.PinataEndpoint, "e", config.PinataEndpoint, "pinning API base URL")
	fs.StringVar(&config.PinataJWT, "j", config.PinataJWT, "pinning API bearer JWT")
	fs.StringVar(&config.IPFSGatewayURL, "g", config.IPFSGatewayURL, "IPFS gateway URL prefix")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenValidityDuration = time.Duration(*tokenValidityDuration) * time.Minute
}
