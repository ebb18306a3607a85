package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"a4blend/config"
	"a4blend/handlers"
	"a4blend/middleware"
	"a4blend/player"
	"a4blend/services"
	"a4blend/types"
	"a4blend/websocket"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// routeHandlers groups every handler the router needs
type routeHandlers struct {
	catalog  *handlers.CatalogHandler
	search   *handlers.SearchHandler
	player   *handlers.PlayerHandler
	jobs     *handlers.JobHandler
	files    *handlers.FileHandler
	health   *handlers.HealthHandler
	settings *handlers.SettingsHandler
}

// StartWebServer runs the web server until SIGINT or SIGTERM
func StartWebServer(cfg *config.Config, logger *zap.Logger) error {
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize services
	library := services.NewLibrary(cfg.LibraryLocation)
	hub := websocket.NewHub(logger.Named("ws"))
	controller := player.NewController(logger.Named("player"), handlers.NewWebSocketSink(hub))

	store := services.NewCatalogStore()
	store.OnPublish(func(catalog types.Catalog) {
		if err := controller.Dispatch(player.CatalogLoaded(catalog)); err != nil {
			logger.Warn("Catalog not delivered to player", zap.Error(err))
		}
	})

	builder := NewCatalogBuilder(cfg, logger, library)
	buildQueue := services.NewBuildQueue(logger.Named("build"), builder, store, hub)
	fileService := services.NewFileService(logger)

	// Handlers register hub callbacks, so they are created before the hub runs
	h := routeHandlers{
		catalog:  handlers.NewCatalogHandler(store, buildQueue, cfg.FallbackCover),
		search:   handlers.NewSearchHandler(store, controller),
		player:   handlers.NewPlayerHandler(logger, controller, hub),
		jobs:     handlers.NewJobHandler(logger, buildQueue, hub),
		files:    handlers.NewFileHandler(logger, fileService, library),
		health:   handlers.NewHealthHandler(library, store, controller),
		settings: handlers.NewSettingsHandler(logger, cfg.SettingsPath, library, buildQueue),
	}

	go hub.Run()
	go controller.Run(ctx)
	buildQueue.Start(ctx)
	buildQueue.AddJob()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logging(logger.Named("http")))
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.Security())

	r.Static("/assets", cfg.AssetsDir)
	setupRoutes(r, h)

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Port),
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("a4blend web server starting",
			zap.Int("port", cfg.Port),
			zap.String("library", cfg.LibraryLocation))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// NewCatalogBuilder wires the catalog builder for the configured library.
// Covers are read from disk unless a stream base URL is configured.
func NewCatalogBuilder(cfg *config.Config, logger *zap.Logger, library *services.Library) services.CatalogBuilder {
	var fetcher services.Fetcher = services.NewFileFetcher(library)
	if cfg.StreamBaseURL != "" {
		fetcher = services.NewHTTPFetcher(logger, cfg.StreamBaseURL, cfg.FetchTimeout)
	}

	extractor := services.NewMetadataExtractor(logger.Named("metadata"), fetcher, cfg.CoverMaxSize)
	return services.NewCatalogBuilder(
		logger.Named("catalog"),
		services.NewDirEnumerator(logger, library),
		extractor,
		cfg.PlaceholderCover,
		cfg.BuildWorkers,
	)
}

// setupRoutes configures all the HTTP routes
func setupRoutes(r *gin.Engine, h routeHandlers) {
	r.GET("/health", h.health.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/status", h.health.APIStatus)

		// Catalog and search
		apiGroup.GET("/catalog", h.catalog.GetCatalog)
		apiGroup.POST("/catalog/rebuild", h.catalog.Rebuild)
		apiGroup.GET("/search", h.search.Search)

		// Playback control
		playerGroup := apiGroup.Group("/player")
		{
			playerGroup.GET("", h.player.GetState)
			playerGroup.POST("/toggle", h.player.TogglePlayPause)
			playerGroup.POST("/next", h.player.Next)
			playerGroup.POST("/previous", h.player.Previous)
			playerGroup.POST("/mute", h.player.ToggleMute)
			playerGroup.POST("/select/:pos", h.player.Select)
			playerGroup.POST("/seek", h.player.Seek)
			playerGroup.POST("/volume", h.player.SetVolume)
			playerGroup.POST("/query", h.player.SetQuery)
		}

		// Build jobs
		jobsGroup := apiGroup.Group("/jobs")
		{
			jobsGroup.GET("", h.jobs.GetAllJobs)
			jobsGroup.GET("/:jobId", h.jobs.GetJob)
			jobsGroup.DELETE("/:jobId", h.jobs.CancelJob)
		}

		// WebSocket endpoints
		wsGroup := apiGroup.Group("/ws")
		{
			wsGroup.GET("/player", h.player.HandleWebSocket)
			wsGroup.GET("/jobs", h.jobs.HandleWebSocket)
		}

		// File discovery and streaming endpoints
		apiGroup.GET("/files", h.files.ListFiles)
		apiGroup.GET("/files/stream/*filepath", h.files.StreamFile)

		// Settings endpoints
		apiGroup.GET("/settings", h.settings.GetSettings)
		apiGroup.POST("/settings", h.settings.UpdateSettings)
	}
}
