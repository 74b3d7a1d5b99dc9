package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/sprint.report/internal/api"
	"github.com/banshee-data/sprint.report/internal/db"
	"github.com/banshee-data/sprint.report/internal/metrics"
	"github.com/banshee-data/sprint.report/internal/units"
)

func handleServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	dbPath := fs.String("db", "sprint.db", "SQLite database")
	listen := fs.String("listen", ":8080", "Listen address")
	speedUnits := fs.String("units", units.MPS, "Default speed units")
	fs.Parse(args)

	if !units.IsValid(*speedUnits) {
		log.Fatalf("invalid units %q, must be one of: %s", *speedUnits, units.GetValidUnitsString())
	}

	store, err := db.OpenDB(*dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer store.Close()

	m := metrics.New()
	mux := api.NewServer(store, m.Handler(), *speedUnits).ServeMux()
	server := &http.Server{
		Addr:    *listen,
		Handler: api.LoggingMiddleware(mux),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server in a goroutine so it doesn't block
	go func() {
		log.Printf("serving %s on %s", *dbPath, *listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}
	log.Printf("Graceful shutdown complete")
}
