package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/foodable/internal/flagx"
)

// parseFlags overrides selected Config fields from command-line flags.
//
// Supported flags:
//
//	-p int      HTTP port
//	-e string   environment (development, production, test)
//	-l string   log level
//	-g string   gRPC health address, empty disables it
//	-s string   rate limit store (memory, redis)
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, so -c/-config and flags of other components pass through.
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], []string{"-p", "-e", "-l", "-g", "-s"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.IntVar(&config.Port, "p", config.Port, "HTTP port")
	fs.StringVar(&config.Environment, "e", config.Environment, "environment")
	fs.StringVar(&config.Log.Level, "l", config.Log.Level, "log level")
	fs.StringVar(&config.GRPCHealthAddr, "g", config.GRPCHealthAddr, "gRPC health address")
	fs.StringVar(&config.RateLimit.Store, "s", config.RateLimit.Store, "rate limit store")

	return fs.Parse(args)
}
