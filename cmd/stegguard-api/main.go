package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stegguard/internal/api"
	"stegguard/internal/config"
	"stegguard/internal/database"
	"stegguard/internal/pixels"

	//Import registered hashing algorithms here
	_ "stegguard/internal/hashing/pixeldigest"
	_ "stegguard/internal/hashing/sha256"

	//Import registered watermarking algorithms here
	_ "stegguard/internal/watermarking/lsbimage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	pixels.MaxPixels = cfg.MaxImagePixels

	// Initialize database connection pool
	dbPool, err := database.NewPostgresPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbPool.Close()
	log.Println("Successfully connected to the database.")

	if cfg.AutoMigrate {
		if err := database.Migrate(context.Background(), dbPool); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
	}

	// Set up the router and API handlers
	router := api.NewRouter(database.NewStore(dbPool), api.Options{
		DefaultAlgorithm: cfg.DefaultAlgorithm,
		MaxUploadBytes:   cfg.MaxUploadBytes,
	})

	// Create and start the HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  120 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %v", err)
		}
	}()

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully.")
}
