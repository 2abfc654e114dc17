package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/chippagiri-sritha/naariguard-server/internal/api"
	"github.com/chippagiri-sritha/naariguard-server/internal/capture"
	"github.com/chippagiri-sritha/naariguard-server/internal/config"
	"github.com/chippagiri-sritha/naariguard-server/internal/detection"
	"github.com/chippagiri-sritha/naariguard-server/internal/escalation"
	"github.com/chippagiri-sritha/naariguard-server/internal/pipeline"
	"github.com/chippagiri-sritha/naariguard-server/internal/recordings"
	"github.com/chippagiri-sritha/naariguard-server/internal/storage/blob"
	"github.com/chippagiri-sritha/naariguard-server/internal/storage/sqlite"
	"github.com/chippagiri-sritha/naariguard-server/internal/transcription"
	"github.com/chippagiri-sritha/naariguard-server/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "naariguard-server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	log.Info("Starting NaariGuard server",
		logger.String("config", configPath),
		logger.String("addr", cfg.Server.Addr()))

	db, err := sqlite.Open(cfg.Storage.SQLitePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	recordingStorage, err := sqlite.NewRecordingStorage(db, log)
	if err != nil {
		return err
	}
	contactStorage, err := sqlite.NewContactStorage(db, log)
	if err != nil {
		return err
	}

	blobs, err := blob.NewStore(cfg.Storage.AudioDir, log)
	if err != nil {
		return err
	}
	signer := blob.NewSigner(cfg.Storage.SigningSecret,
		time.Duration(cfg.Storage.PlaybackTTLSeconds)*time.Second)

	recordingStore := recordings.NewStore(blobs, recordingStorage, signer, log)

	transcriber := transcription.NewOpenAIClient(transcription.Config{
		APIKey:         cfg.Transcription.APIKey,
		BaseURL:        cfg.Transcription.BaseURL,
		Model:          cfg.Transcription.Model,
		TimeoutSeconds: cfg.Transcription.TimeoutSeconds,
	}, log)

	keywords := detection.NewKeywordSet(cfg.Detection.CustomKeywords...)
	matcher := detection.NewMatcher(detection.Config{
		FuzzyThreshold:    cfg.Detection.FuzzyThreshold,
		PhoneticEnabled:   cfg.Detection.PhoneticEnabled,
		PhoneticThreshold: cfg.Detection.PhoneticThreshold,
	})

	dispatcher := escalation.NewDispatcher(contactStorage, escalation.NewLogNotifier(log), log)
	processor := pipeline.NewProcessor(transcriber, matcher, keywords, recordingStore, dispatcher, log)

	handler := api.NewHandler(transcriber, matcher, keywords, processor,
		recordingStore, contactStorage, dispatcher, cfg, log)
	router := api.NewRouter(handler, cfg, log)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sweeper *pipeline.Sweeper
	if cfg.Sweeper.Enabled {
		sweeper = pipeline.NewSweeper(recordingStorage, blobs,
			time.Duration(cfg.Sweeper.IntervalSeconds)*time.Second,
			time.Duration(cfg.Sweeper.GraceSeconds)*time.Second,
			log)
		sweeper.Start(ctx)
		defer sweeper.Stop()
	}

	var listener *pipeline.Listener
	if cfg.Listener.Enabled {
		source := capture.NewHTTPSource(cfg.Listener.SourceURL,
			time.Duration(cfg.Listener.TimeoutSeconds)*time.Second, log)
		listener = pipeline.NewListener(source, processor, cfg.Listener.OwnerID,
			time.Duration(cfg.Listener.WindowSeconds)*time.Second,
			time.Duration(cfg.Listener.ChunkMs)*time.Millisecond,
			log)
		listener.Start(ctx)
		defer listener.Stop()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("HTTP server listening", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("Server stopped")
	return nil
}
