package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"vidsnatch/config"
	"vidsnatch/engine"
	"vidsnatch/handlers"
	"vidsnatch/logger"
	"vidsnatch/middleware"
	"vidsnatch/services"
	"vidsnatch/store"
	"vidsnatch/websocket"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the download service",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return StartWebServer(ctx, cfg)
	},
}

// App holds the wired services of a running server
type App struct {
	Stores   *store.Stores
	Settings *config.Settings
	Hub      websocket.Hub
	Files    services.FileService
	Registry services.Registry
	Router   *gin.Engine
}

// NewApp opens the stores, reconciles the previous run and wires the
// registry and routes. Store read failures are logged and the service
// starts with empty state.
func NewApp(cfg *config.Config, eng engine.Engine, log *logger.Logger) (*App, error) {
	stores, err := store.Open(cfg.Storage.Backend, cfg.Storage.Dir)
	if stores == nil {
		return nil, err
	}
	if err != nil {
		log.WithError(err).Warn("some stores could not be loaded, starting them empty")
	}

	if _, err := services.Recover(stores, time.Now(), log); err != nil {
		log.WithError(err).Warn("startup reconciliation could not persist every change")
	}

	settings, err := config.LoadSettings(cfg.Storage.Dir, cfg.Download.Dir)
	if err != nil {
		log.WithError(err).Warn("could not load settings, using defaults")
	}

	hub := websocket.NewHub(log)
	files := services.NewFileService(stores.Files, log)
	reg := services.NewRegistry(stores, eng, files, hub, log, services.Options{
		DownloadDir:    settings.DownloadDir,
		OutputTemplate: cfg.Download.OutputTemplate,
		MaxConcurrent:  cfg.Download.MaxConcurrent,
		StuckTimeout:   cfg.Download.StuckTimeout,
		RetireAfter:    cfg.Download.RetireAfter,
	})

	app := &App{
		Stores:   stores,
		Settings: settings,
		Hub:      hub,
		Files:    files,
		Registry: reg,
	}
	app.Router = app.routes(cfg, log)
	return app, nil
}

// Close stops running downloads and releases the stores
func (a *App) Close() error {
	a.Registry.Shutdown()
	return a.Stores.Close()
}

// StartWebServer runs the HTTP server, websocket hub, stuck-job monitor
// and janitor until ctx is cancelled.
func StartWebServer(ctx context.Context, cfg *config.Config) error {
	log := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	logger.SetDefault(log)
	defer logger.Sync()

	gin.SetMode(cfg.Server.Mode)

	app, err := NewApp(cfg, engine.NewYTDLP(cfg.Engine.ProgressInterval), log)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	monitor := services.NewMonitor(app.Registry, cfg.Download.MonitorInterval, log)
	retention := time.Duration(cfg.Download.HistoryRetentionDays) * 24 * time.Hour
	janitor := services.NewJanitor(app.Registry, app.Stores.History, cfg.Download.MonitorInterval, retention, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.Hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		monitor.Run(gctx)
		return nil
	})
	g.Go(func() error {
		janitor.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.WithFields(logger.Fields{
			"addr":         srv.Addr,
			"download_dir": app.Settings.DownloadDir(),
			"backend":      cfg.Storage.Backend,
		}).Info("vidsnatch server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// routes configures all the HTTP routes
func (a *App) routes(cfg *config.Config, log *logger.Logger) *gin.Engine {
	downloadHandler := handlers.NewDownloadHandler(a.Registry, a.Hub)
	fileHandler := handlers.NewFileHandler(a.Files, a.Registry, a.Settings.DownloadDir)
	historyHandler := handlers.NewHistoryHandler(a.Stores.History, cfg.Download.HistoryRetentionDays)
	healthHandler := handlers.NewHealthHandler(a.Registry, a.Settings.DownloadDir)
	settingsHandler := handlers.NewSettingsHandler(a.Settings)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))
	r.Use(middleware.Logging(log))

	r.GET("/health", healthHandler.HealthCheck)
	r.GET("/status", healthHandler.APIStatus)

	apiGroup := r.Group("/api")
	{
		downloadsGroup := apiGroup.Group("/downloads")
		{
			downloadsGroup.POST("", downloadHandler.Submit)
			downloadsGroup.GET("", downloadHandler.List)
			downloadsGroup.GET("/:id", downloadHandler.Progress)
			downloadsGroup.POST("/:id/cancel", downloadHandler.Cancel)
			downloadsGroup.POST("/:id/retry", downloadHandler.Retry)
			downloadsGroup.POST("/:id/clear", downloadHandler.Clear)
			downloadsGroup.DELETE("/:id", downloadHandler.Delete)
		}

		wsGroup := apiGroup.Group("/ws")
		{
			wsGroup.GET("/downloads/:id", downloadHandler.HandleWebSocketConnection)
			wsGroup.GET("/downloads", downloadHandler.HandleWebSocketAllConnection)
		}

		filesGroup := apiGroup.Group("/files")
		{
			filesGroup.GET("", fileHandler.ListFiles)
			filesGroup.POST("/resolve", fileHandler.Resolve)
			filesGroup.GET("/partials", fileHandler.ListPartials)
			filesGroup.DELETE("/partials/:name", fileHandler.DeletePartial)
			filesGroup.GET("/stream/*path", fileHandler.StreamFile)
		}

		apiGroup.GET("/history", historyHandler.List)
		apiGroup.POST("/history/cleanup", historyHandler.Cleanup)

		apiGroup.GET("/settings", settingsHandler.GetSettings)
		apiGroup.PUT("/settings", settingsHandler.UpdateSettings)
	}
	return r
}
