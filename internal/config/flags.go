package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/mediasync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   sqlite DSN of the local cache database
//	-m string   metrics listen address (empty disables)
//	-b string   S3 bucket of the remote store (empty selects in-memory)
//	-e string   S3 base endpoint (MinIO etc.)
//	-i          interactive development mode
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-m", "-b", "-e", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.CacheDSN, "d", cfg.CacheDSN, "sqlite DSN of the local cache database")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "metrics listen address")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 bucket of the remote store")
	fs.StringVar(&cfg.S3BaseEndpoint, "e", cfg.S3BaseEndpoint, "S3 base endpoint")
	fs.BoolVar(&cfg.Interactive, "i", cfg.Interactive, "prompt for credentials and load before serving")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
