package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/tuannm99/sockdb/internal"
	"github.com/tuannm99/sockdb/server/sockwire"
)

func main() {
	var (
		cfgPath = flag.String("config", "", "yaml config file path")
		addr    = flag.String("addr", "", "listen address (overrides config)")
	)
	flag.Parse()

	sc := sockwire.ServerConfig{
		Addr:         ":5433",
		SnapshotPath: "sockdb.snapshot",
		NotifyBuffer: 16,
	}
	debug := false

	if *cfgPath != "" {
		cfg, err := internal.LoadConfig(*cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
		sc.Addr = cfg.Server.Addr
		sc.SnapshotPath = cfg.Snapshot.Path
		sc.Compress = cfg.Snapshot.Compress
		sc.NotifyBuffer = cfg.Notify.Buffer
		debug = cfg.Server.Debug
	}
	if *addr != "" {
		sc.Addr = *addr
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := sockwire.Run(sc); err != nil {
		slog.Error("server", "err", err)
		os.Exit(1)
	}
}
