package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"newsrelay/internal/app"
	"newsrelay/pkg/banner"
	"newsrelay/pkg/config"
	"newsrelay/pkg/shutdown"
)

// build metadata - set via ldflags during build/release
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	_ = godotenv.Load(".env")

	flags := config.ParseConfigFlags()
	eff, err := config.LoadEffective(flags)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	banner.Print(eff.Addr, eff.DBPath, eff.Config.Publish.WebhookURL, eff.Source, version)

	a, err := app.New(eff, version, commit, buildDate)
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	if err := a.Run(ctx); err != nil {
		log.Fatalf("newsrelay exited: %v", err)
	}
}
