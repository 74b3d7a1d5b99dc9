package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/banshee-data/sprint.report/internal/db"
)

// handleMigrate runs `migrate up|down|version`. Opening the database always
// applies pending migrations, so "up" only reports the result.
func handleMigrate(args []string) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dbPath := fs.String("db", "sprint.db", "SQLite database")
	fs.Parse(args)

	action := "version"
	if fs.NArg() > 0 {
		action = fs.Arg(0)
	}

	store, err := db.OpenDB(*dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer store.Close()

	switch action {
	case "up", "version":
	case "down":
		if err := store.MigrateDown(); err != nil {
			log.Fatalf("migrate down: %v", err)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown migrate action: %s (want up, down or version)\n", action)
		os.Exit(1)
	}

	v, dirty, err := store.MigrateVersion()
	if err != nil {
		log.Fatalf("migrate version: %v", err)
	}
	fmt.Printf("schema version %d (dirty=%t)\n", v, dirty)
}
