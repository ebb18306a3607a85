package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"a4blend/cmd"
	"a4blend/config"

	"go.uber.org/zap"
)

func main() {
	var (
		server bool
		scan   bool
		port   int
	)

	flag.BoolVar(&server, "server", false, "Start in web server mode")
	flag.BoolVar(&scan, "scan", false, "Build the catalog once and print it as JSON")
	flag.IntVar(&port, "port", 0, "Port for web server mode (overrides config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if port > 0 {
		cfg.Port = port
	}

	logger, err := cmd.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %q: %v\n", cfg.LogLevel, err)
		os.Exit(1)
	}
	defer logger.Sync()

	switch {
	case server:
		if err := cmd.StartWebServer(cfg, logger); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	case scan:
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := cmd.RunScan(ctx, cfg, logger, os.Stdout); err != nil {
			logger.Fatal("Scan failed", zap.Error(err))
		}
	default:
		flag.Usage()
	}
}
