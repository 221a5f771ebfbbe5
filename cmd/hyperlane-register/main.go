package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"hyperlane-registration/internal/app"
	"hyperlane-registration/internal/config"
	"hyperlane-registration/internal/loader"
	"hyperlane-registration/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "config file (default config.local.yaml, then config.yaml)")
	accountsPath := flag.String("accounts", "", "accounts file, .xlsx or .csv (overrides run.accountsFile)")
	concurrency := flag.Int("concurrency", 0, "max accounts processed at once (overrides run.concurrency)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *accountsPath != "" {
		cfg.Run.AccountsFile = *accountsPath
	}
	if *concurrency != 0 {
		cfg.Run.Concurrency = *concurrency
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	sources, err := loader.NewFileLoader(cfg.Run.AccountsFile).Load()
	if err != nil {
		logger.WithError(err).WithField("file", cfg.Run.AccountsFile).Fatal("Failed to load accounts")
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize")
	}
	defer a.Close()

	// the run is not cancelable; every account reaches a terminal state
	a.Run(context.Background(), sources)
}
