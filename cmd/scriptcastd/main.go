package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/config"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/content"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/daemon"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/events"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/lifecycle"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/logging"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/notifications"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/publish"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/publish/youtube"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Credentials may live in a .env next to the binary; absence is fine.
	_ = godotenv.Load()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewForDir(cfg.Logging.Level, cfg.Logging.Format, cfg.Paths.LogDir)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := content.Open(cfg.DatabasePath())
	if err != nil {
		logger.Error("open content store", logging.Error(err))
		return
	}
	defer store.Close()

	var publisher publish.Client
	publisherOK := false
	if cfg.HasYouTubeCredentials() {
		client, err := youtube.New(ctx, cfg, logger)
		if err != nil {
			logger.Warn("youtube client unavailable, uploads disabled", logging.Error(err))
		} else {
			publisher = client
			publisherOK = true
		}
	} else {
		logger.Warn("youtube credentials not configured, uploads disabled")
	}

	bus := events.NewBus(cfg.Events.BufferSize, cfg.Events.SubscriberQueue)
	notifier := notifications.NewService(cfg)
	orch := lifecycle.New(cfg, store, bus, publisher, notifier, logger)

	d, err := daemon.New(cfg, orch, logger, publisherOK)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("scriptcastd shutting down")
}
