package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"kiosk/internal/config"
	"kiosk/internal/device/framebuffer"
	"kiosk/internal/device/input"
	"kiosk/internal/logger"
	"kiosk/internal/repository/sqlite"
	"kiosk/internal/route"
	"kiosk/internal/service/camera"
	"kiosk/internal/service/face"
	"kiosk/internal/service/fingerprint"
	"kiosk/internal/service/storage"
	"kiosk/internal/service/transport"
	"kiosk/internal/service/websocket"
	"kiosk/internal/ui"
)

const (
	jpegQuality     = 90
	faceHitRate     = 0.3
	shutdownTimeout = 5 * time.Second
)

type App struct {
	config      *config.Config
	logger      *logger.Logger
	db          *sqlite.DB
	records     *sqlite.RecordRepository
	syncService *storage.SyncService
	hubService  *websocket.HubService
	display     ui.Display
	input       ui.Input
	shell       *ui.Shell
	server      *http.Server
}

func NewApp() (*App, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.NewLogger(cfg)

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Error("Failed to open record store: %v", err)
		return nil, err
	}
	records := sqlite.NewRecordRepository(db)

	client := transport.NewHTTPClient(cfg, log)
	syncService := storage.NewSyncService(cfg, log, records, client)
	hub := websocket.NewHubService(cfg, log)

	codec := camera.NewGocvCodec(jpegQuality)
	deps := ui.Deps{
		Config:    cfg,
		Logger:    log,
		Transport: client,
		Locator:   face.NewSimulatedLocator(faceHitRate, time.Now().UnixNano()),
		Outbox:    syncService,
		NewCamera: func() ui.Camera {
			producer := camera.NewLibcameraProducer(cfg.CameraCommand, cfg.CameraWidth, cfg.CameraHeight)
			return camera.NewSource(producer, codec, cfg, log)
		},
		NewFingerprint: func() ui.FingerprintReader {
			return fingerprint.NewPort(cfg, fingerprint.SerialDialer,
				fingerprint.PlaceholderCodec{Identity: cfg.FingerprintPlaceholderID},
				fingerprint.SimulatedEnroller{}, log)
		},
	}

	display := openDisplay(cfg, log)
	in := openInput(cfg, log)

	var publisher ui.Publisher
	if cfg.MonitorPort > 0 {
		publisher = hub
	}

	return &App{
		config:      cfg,
		logger:      log,
		db:          db,
		records:     records,
		syncService: syncService,
		hubService:  hub,
		display:     display,
		input:       in,
		shell:       ui.NewShell(deps, display, in, publisher),
	}, nil
}

// openDisplay falls back to a headless display when no framebuffer is usable.
func openDisplay(cfg *config.Config, log *logger.Logger) ui.Display {
	fb, err := framebuffer.Open(cfg.FramebufferDevice)
	if err != nil {
		log.Warning("Framebuffer %s unavailable, running headless: %v", cfg.FramebufferDevice, err)
		return &framebuffer.Headless{}
	}
	log.Info("🖥️ Framebuffer %s %v", cfg.FramebufferDevice, fb.Bounds().Size())
	return fb
}

func openInput(cfg *config.Config, log *logger.Logger) ui.Input {
	reader, err := input.Open(cfg, log)
	if err != nil {
		log.Warning("No touch or keypad input: %v", err)
		return nil
	}
	return reader
}

// Run drives the kiosk until SIGINT, SIGTERM or a quit key.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer a.Close()

	go a.syncService.Run(ctx)

	if a.config.MonitorPort > 0 {
		go a.hubService.Run(ctx)

		a.server = &http.Server{
			Addr:    fmt.Sprintf(":%d", a.config.MonitorPort),
			Handler: route.SetupRoutes(a.hubService, a.config, a.logger, a.records),
		}
		go func() {
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("Monitor server failed: %v", err)
			}
		}()
	}

	a.logger.Info("🚀 Biometric terminal %s", a.config.TerminalID)
	a.logger.Info("📍 API: %s", a.config.APIURL)
	a.logger.Info("📁 Records: %s", a.config.DatabasePath)
	if a.config.MonitorPort > 0 {
		a.logger.Info("📡 Monitor: http://localhost:%d/api/monitor", a.config.MonitorPort)
	}

	return a.shell.Run(ctx)
}

// Close releases devices, the monitor server and the record store.
func (a *App) Close() {
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Warning("Monitor server shutdown: %v", err)
		}
		cancel()
	}
	if a.input != nil {
		if err := a.input.Close(); err != nil {
			a.logger.Warning("Error closing input: %v", err)
		}
	}
	if err := a.display.Close(); err != nil {
		a.logger.Warning("Error closing display: %v", err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("Error closing record store: %v", err)
	}
	a.logger.Info("👋 Terminal stopped")
	a.logger.Close()
}
