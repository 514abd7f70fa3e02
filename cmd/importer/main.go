package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/passbi/transit_catalogue/internal/config"
	"github.com/passbi/transit_catalogue/internal/db"
	"github.com/passbi/transit_catalogue/internal/gtfs"
	"github.com/passbi/transit_catalogue/internal/models"
	"github.com/passbi/transit_catalogue/internal/request"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	// Command-line flags
	configPath := flag.String("config", "", "Path to YAML configuration file")
	gtfsPath := flag.String("gtfs", "", "Path to GTFS ZIP file")
	jsonPath := flag.String("json", "", "Path to a make_base JSON document")
	dedupeThreshold := flag.Float64("dedupe-threshold", 30.0, "GTFS stop deduplication threshold in meters (0 disables)")

	flag.Parse()

	// Exactly one source
	if (*gtfsPath == "") == (*jsonPath == "") {
		fmt.Println("Usage: importer [--config=<file.yml>] --gtfs=<path.zip> [--dedupe-threshold=30] | --json=<document.json>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ValidateDatabase(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Println("Starting import...")
	startTime := time.Now()

	log.Println("Step 1/3: Reading source...")
	var data *models.BaseData
	if *gtfsPath != "" {
		data, err = readGTFS(*gtfsPath, *dedupeThreshold)
	} else {
		data, err = readDocument(*jsonPath)
	}
	if err != nil {
		log.Fatalf("Failed to read source: %v", err)
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	log.Println("Step 2/3: Creating schema...")
	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	log.Println("Step 3/3: Storing stops, buses and road distances...")
	if err := db.SaveBaseData(ctx, pool, data); err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	log.Printf("Import completed successfully in %v", time.Since(startTime))
}

func readGTFS(path string, dedupeThreshold float64) (*models.BaseData, error) {
	// Validate file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("GTFS file not found: %s", path)
	}

	feed, err := gtfs.ParseZip(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GTFS: %w", err)
	}

	return gtfs.ToBaseData(feed, gtfs.Options{DedupeThreshold: dedupeThreshold})
}

func readDocument(path string) (*models.BaseData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	doc, err := request.ParseBase(f)
	if err != nil {
		return nil, err
	}
	return &doc.Base, nil
}
