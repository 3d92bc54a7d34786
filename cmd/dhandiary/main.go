package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/EllowDigital/DhanDiary-sub000/internal/cli"
	"github.com/EllowDigital/DhanDiary-sub000/internal/config"
	"github.com/EllowDigital/DhanDiary-sub000/internal/logging"
	"github.com/EllowDigital/DhanDiary-sub000/internal/remote"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	logFile, err := os.OpenFile("dhandiary.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("%v", err)
		return
	}
	defer logFile.Close()
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(logFile, nil)))

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if cfg.RemoteDSN == "" {
			log.Println("migrate: no remote store configured")
			return
		}
		if err := remote.RunMigrations(ctx, cfg.RemoteDSN); err != nil {
			log.Printf("migrate: %v", err)
			return
		}
		log.Println("remote migrations applied")
		return
	}

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
