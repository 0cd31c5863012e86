package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"bookingtrack/api/config"
	"bookingtrack/api/database"
	"bookingtrack/api/handlers"
	"bookingtrack/api/middleware"
	"bookingtrack/api/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tracking collector HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.JWTSecret == "" && cfg.APIKeyHash == "" {
		log.Println("Neither JWT_SECRET_KEY nor AUTH_DEFAULT_HASH is set; /api/stats will reject every request.")
	}

	// --- Initialize ClickHouse Database (for tracking events) ---
	chClient, err := database.NewClickHouseDB(cfg.ClickHouse)
	if err != nil {
		return err
	}
	defer chClient.Close()

	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), 30*time.Second)
	err = chClient.EnsureTrackingSchema(schemaCtx)
	cancelSchema()
	if err != nil {
		return err
	}

	analyticsStore := store.NewAnalyticsStore(chClient)
	analyticsHandlers := handlers.NewAnalyticsHandlers(analyticsStore, cfg.IPHashSalt, cfg.MaxTrackBatch)

	r := newRouter(cfg, analyticsHandlers)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Tracking collector starting on http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Tracking collector failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}

	log.Println("Server exiting.")
	return nil
}

func newRouter(cfg *config.Config, analyticsHandlers *handlers.AnalyticsHandlers) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware(cfg.FrontendOrigin))

	api := r.Group("/api")
	{
		// Tracking clients are anonymous visitors.
		api.POST("/track", analyticsHandlers.TrackEvent)
		api.GET("/health", analyticsHandlers.Health)

		analyticsGroup := api.Group("/stats")
		analyticsGroup.Use(middleware.AuthRequired([]byte(cfg.JWTSecret), cfg.APIKeyHash))
		{
			analyticsGroup.GET("/event-counts", analyticsHandlers.GetEventCountsOverTime)
			analyticsGroup.GET("/unique-visitors", analyticsHandlers.GetUniqueVisitorsOverTime)
			analyticsGroup.GET("/top-paths", analyticsHandlers.GetTopNPagePaths)
			analyticsGroup.GET("/traffic-sources", analyticsHandlers.GetTrafficSources)
			analyticsGroup.GET("/funnel", analyticsHandlers.GetFunnel)
		}
	}
	return r
}
