package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/gamedash/api/internal/analytics"
	"github.com/gamedash/api/internal/config"
	"github.com/gamedash/api/internal/db"
	"github.com/gamedash/api/internal/export"
	"github.com/gamedash/api/internal/httpapi"
	"github.com/gamedash/api/internal/ingestion"
	"github.com/gamedash/api/internal/middleware"
	"github.com/gamedash/api/internal/repository"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	if err := db.RunMigrations(cfg.Database, cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	gameRepo := repository.NewGameRepository(conn.Pool)
	salesRepo := repository.NewSalesRepository(conn.Pool)

	analyticsService := analytics.NewService(gameRepo, salesRepo)
	ingestionService := ingestion.NewService(gameRepo, salesRepo)
	exportService := export.NewService(analyticsService)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	apiHandler := httpapi.New(analyticsService, gameRepo, salesRepo)

	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("/api/ingest", ingestion.NewHTTPHandler(ingestionService))
	mux.Handle("/api/export", export.NewHTTPHandler(exportService))
	mux.Handle("/healthz", apiHandler)

	handler := corsHandler.Handler(middleware.LoggingMiddleware(mux))

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting dashboard API on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
