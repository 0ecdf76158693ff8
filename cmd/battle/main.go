package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	battlecmd "github.com/louisbranch/warfront/internal/cmd/battle"
	entrypoint "github.com/louisbranch/warfront/internal/platform/cmd"
	"github.com/louisbranch/warfront/internal/platform/config"
	"github.com/louisbranch/warfront/internal/services/battle/domain/engine"
)

func main() {
	log.SetPrefix("[BATTLE] ")
	if err := entrypoint.Bootstrap(entrypoint.RunOptions{}); err != nil {
		log.Fatalf("load env: %v", err)
	}
	cfg, err := battlecmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := battlecmd.Run(ctx, cfg, os.Stdout); err != nil {
		if engine.IsFatal(err) {
			config.ExitWithCode(config.ExitUnrecoverable, "battle: %v", err)
		}
		config.Exitf("battle: %v", err)
	}
}
