package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	previewcmd "github.com/louisbranch/warfront/internal/cmd/preview"
	entrypoint "github.com/louisbranch/warfront/internal/platform/cmd"
	"github.com/louisbranch/warfront/internal/platform/config"
)

func main() {
	log.SetPrefix("[PREVIEW] ")
	if err := entrypoint.Bootstrap(entrypoint.RunOptions{}); err != nil {
		log.Fatalf("load env: %v", err)
	}
	cfg, err := previewcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := previewcmd.Run(ctx, cfg, os.Stdout); err != nil {
		config.Exitf("preview: %v", err)
	}
}
