package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/passbi/transit_catalogue/internal/config"
	"github.com/passbi/transit_catalogue/internal/db"
	"github.com/passbi/transit_catalogue/internal/gtfs"
	"github.com/passbi/transit_catalogue/internal/models"
	"github.com/passbi/transit_catalogue/internal/request"
	"github.com/passbi/transit_catalogue/internal/transit"
)

// Base data sources for make_base
const (
	sourceJSON     = "json"
	sourcePostgres = "postgres"
	sourceGTFS     = "gtfs"
)

type sourceOptions struct {
	source          string
	gtfsPath        string
	dedupeThreshold float64
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: transit-catalogue [flags] make_base|process_requests")
	flag.PrintDefaults()
	os.Exit(1)
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	configPath := flag.String("config", "", "Path to YAML configuration file")
	source := flag.String("source", sourceJSON, "make_base stop and bus source: json, postgres or gtfs")
	gtfsPath := flag.String("gtfs", "", "Path to GTFS ZIP file (with -source=gtfs)")
	dedupeThreshold := flag.Float64("dedupe-threshold", 0, "GTFS stop deduplication threshold in meters (0 disables)")

	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	switch mode := flag.Arg(0); mode {
	case "make_base":
		opts := sourceOptions{source: *source, gtfsPath: *gtfsPath, dedupeThreshold: *dedupeThreshold}
		if err := makeBase(ctx, cfg, opts, os.Stdin); err != nil {
			log.Fatalf("make_base failed: %v", err)
		}
	case "process_requests":
		if err := processRequests(ctx, cfg, os.Stdin, os.Stdout); err != nil {
			log.Fatalf("process_requests failed: %v", err)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown mode %q\n", mode)
		usage()
	}
}

// makeBase builds a base from the document on in and stores it
func makeBase(ctx context.Context, cfg *config.Config, opts sourceOptions, in io.Reader) error {
	doc, err := request.ParseBase(in)
	if err != nil {
		return err
	}

	data, err := loadBaseData(ctx, cfg, opts, doc)
	if err != nil {
		return err
	}

	state, err := transit.Build(data)
	if err != nil {
		return err
	}

	store, closeStore, err := transit.OpenStore(ctx, cfg, doc.Serialization.File)
	if err != nil {
		return err
	}
	defer closeStore()

	return transit.Save(ctx, store, state)
}

// loadBaseData returns the stops and buses of the selected source with the
// document's routing and render settings
func loadBaseData(ctx context.Context, cfg *config.Config, opts sourceOptions, doc *request.BaseDocument) (*models.BaseData, error) {
	var data *models.BaseData

	switch opts.source {
	case sourceJSON, "":
		return &doc.Base, nil

	case sourcePostgres:
		if err := cfg.ValidateDatabase(); err != nil {
			return nil, err
		}
		pool, err := db.NewPool(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		defer pool.Close()

		data, err = db.LoadBaseData(ctx, pool)
		if err != nil {
			return nil, err
		}

	case sourceGTFS:
		if opts.gtfsPath == "" {
			return nil, fmt.Errorf("-gtfs is required with -source=gtfs")
		}
		feed, err := gtfs.ParseZip(opts.gtfsPath)
		if err != nil {
			return nil, err
		}
		data, err = gtfs.ToBaseData(feed, gtfs.Options{DedupeThreshold: opts.dedupeThreshold})
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unknown source %q", opts.source)
	}

	if len(doc.Base.Stops) > 0 || len(doc.Base.Buses) > 0 {
		log.Printf("Warning: ignoring %d stop and %d bus requests, stops and buses come from %s",
			len(doc.Base.Stops), len(doc.Base.Buses), opts.source)
	}
	data.Routing = doc.Base.Routing
	data.Render = doc.Base.Render

	return data, nil
}

// processRequests answers the stat requests on in and prints them to out
func processRequests(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	doc, err := request.ParseStat(in)
	if err != nil {
		return err
	}

	store, closeStore, err := transit.OpenStore(ctx, cfg, doc.SerializationSettings.File)
	if err != nil {
		return err
	}
	defer closeStore()

	state, err := transit.Load(ctx, store)
	if err != nil {
		return err
	}

	responses, err := request.Answer(state, doc.StatRequests)
	if err != nil {
		return err
	}

	return request.WriteResponses(out, responses)
}
