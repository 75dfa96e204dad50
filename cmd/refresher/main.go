package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"vaquero/internal/config"
	"vaquero/internal/logging"
	"vaquero/internal/refresh"
	"vaquero/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	svc, err := refresh.NewFromConfig(cfg, db)
	must(err)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
