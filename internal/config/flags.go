package config

import (
	"flag"
	"os"
	"time"

	"github.com/EllowDigital/DhanDiary-sub000/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-r string   remote store DSN
//	-f string   local database file
//	-i int      auto-sync interval in seconds
//
// The function filters os.Args to the flags it owns, via flagx.FilterArgs,
// to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-r", "-f", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.RemoteDSN, "r", cfg.RemoteDSN, "remote store DSN")
	fs.StringVar(&cfg.LocalDBPath, "f", cfg.LocalDBPath, "local database file")
	syncInterval := fs.Int("i", int(cfg.SyncInterval.Seconds()), "auto-sync interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.SyncInterval = time.Duration(*syncInterval) * time.Second
}
