package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/your-org/facegate/internal/api"
	"github.com/your-org/facegate/internal/api/ws"
	"github.com/your-org/facegate/internal/approval"
	"github.com/your-org/facegate/internal/config"
	"github.com/your-org/facegate/internal/gallery"
	"github.com/your-org/facegate/internal/models"
	"github.com/your-org/facegate/internal/notify"
	"github.com/your-org/facegate/internal/observability"
	"github.com/your-org/facegate/internal/storage"
	"github.com/your-org/facegate/internal/vision"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting facegate", "port", cfg.Server.Port, "threshold", cfg.Matching.Threshold)

	// Connect to MinIO
	minioStore, err := storage.NewMinIOStore(cfg.MinIO)
	if err != nil {
		slog.Error("connect to minio", "error", err)
		os.Exit(1)
	}
	if err := minioStore.EnsureBucket(context.Background()); err != nil {
		slog.Warn("ensure minio bucket", "error", err)
	}

	// NATS review-event feed (optional)
	var events *notify.NATSNotifier
	if cfg.NATS.URL != "" {
		events, err = notify.NewNATSNotifier(cfg.NATS.URL)
		if err != nil {
			slog.Warn("connect to nats, review events disabled", "error", err)
		} else {
			defer events.Close()
			if err := events.EnsureStream(context.Background()); err != nil {
				slog.Warn("ensure nats stream", "error", err)
			}
		}
	}

	// Reviewer notification fan-out
	var targets []notify.Notifier
	if len(cfg.Notify.URLs) > 0 {
		sn, err := notify.NewShoutrrrNotifier(cfg.Notify)
		if err != nil {
			slog.Warn("shoutrrr notifier init failed, reviewer messages disabled", "error", err)
		} else {
			targets = append(targets, sn)
		}
	}
	if events != nil {
		targets = append(targets, events)
	}
	var notifier notify.Notifier
	if len(targets) > 0 {
		notifier = notify.NewMulti(targets...)
	}

	// Embedding extractor. A failed init keeps the server up; submissions
	// and enrollment report extractor_unavailable until restart.
	var extractor *vision.Extractor

	ort.SetSharedLibraryPath(getONNXLibPath())
	if err := ort.InitializeEnvironment(); err != nil {
		slog.Warn("onnx runtime init failed, submissions and enrollment unavailable", "error", err)
	} else {
		extractor, err = vision.NewExtractor(cfg.Vision)
		if err != nil {
			slog.Warn("extractor init failed, submissions and enrollment unavailable", "error", err)
		} else {
			defer extractor.Close()
			defer ort.DestroyEnvironment()
			slog.Info("extractor ready")
		}
	}

	// Gallery cache: populate from the blob store in the background so the
	// server starts serving with whatever subset loads successfully.
	cache := gallery.NewCache()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if extractor != nil {
		go func() {
			if err := cache.Load(ctx, minioStore, extractor, cfg.Vision.LoadWorkers); err != nil {
				slog.Error("gallery load", "error", err)
			}
		}()
	}

	manager := gallery.NewManager(minioStore, extractorOrNil(extractor), cache)

	// WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Approval workflow engine
	var resolved approval.ResolutionPublisher
	if events != nil {
		resolved = events
	}
	engine := approval.NewEngine(
		approval.NewStore(),
		cache,
		minioStore,
		extractorOrNil(extractor),
		notifier,
		resolved,
		approval.Options{
			Threshold:    cfg.Matching.Threshold,
			BaseURL:      cfg.Server.BaseURL,
			PollInterval: cfg.Approval.PollInterval,
			PendingTTL:   cfg.Approval.PendingTTL,
		},
	)
	engine.OnTransition = func(requestID string, status models.Status) {
		hub.BroadcastResolution(requestID, status)
	}
	go engine.RunSweeper(ctx)

	// Setup router
	router := api.NewRouter(api.RouterConfig{
		AdminAPIKey: cfg.Server.AdminAPIKey,
		Engine:      engine,
		Gallery:     manager,
		MinIO:       minioStore,
		Events:      events,
		Hub:         hub,
	})

	// Start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}

// extractorOrNil converts a possibly-nil *vision.Extractor into the nil
// interface the consumers check for degraded mode.
func extractorOrNil(x *vision.Extractor) gallery.Extractor {
	if x == nil {
		return nil
	}
	return x
}

// getONNXLibPath returns the ONNX Runtime shared library path.
func getONNXLibPath() string {
	switch runtime.GOOS {
	case "windows":
		return "onnxruntime.dll"
	case "linux":
		return "libonnxruntime.so"
	case "darwin":
		return "libonnxruntime.dylib"
	default:
		return "onnxruntime.dll"
	}
}
