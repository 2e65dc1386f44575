package main

import (
	"context"
	"flag"
	"log"

	"SignalSynth/internal/di"
	"SignalSynth/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	once := flag.Bool("once", false, "run a single synthesis pass and exit")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("initialization failed: %v", err)
	}

	if *once {
		if err := app.RunOnce(context.Background()); err != nil {
			log.Fatalf("run failed: %v", err)
		}
		return
	}

	if err := app.Run(); err != nil {
		log.Fatalf("app error: %v", err)
	}
}
