package main

import (
	"context"
	"flag"
	"log"

	"github.com/passbi/transit_catalogue/internal/config"
	"github.com/passbi/transit_catalogue/internal/transit"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	configPath := flag.String("config", "", "Path to YAML configuration file")
	baseFile := flag.String("file", "", "Base file, overrides storage.path of the file backend")
	flag.Parse()

	log.Println("🔎 Transit catalogue - base inspector")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	store, closeStore, err := transit.OpenStore(ctx, cfg, *baseFile)
	if err != nil {
		log.Fatalf("❌ Failed to open base store: %v", err)
	}
	defer closeStore()

	state, err := transit.Load(ctx, store)
	if err != nil {
		log.Fatalf("❌ Failed to load base: %v", err)
	}

	stats := state.Stats()
	routing := state.RoutingSettings()

	log.Printf("📊 Catalogue statistics:")
	log.Printf("   Stops: %d", stats.Stops)
	log.Printf("   Buses: %d", stats.Buses)
	if stats.Stops > 0 {
		coverage := float64(stats.UsefulStops) / float64(stats.Stops) * 100
		log.Printf("   Stops served by buses: %d/%d (%.1f%%)", stats.UsefulStops, stats.Stops, coverage)
	}

	log.Printf("📊 Graph statistics:")
	log.Printf("   Vertices: %d", stats.Vertices)
	log.Printf("   Edges: %d", stats.Edges)

	log.Printf("⚙️  Routing settings: wait %.1f min, velocity %.1f km/h", routing.BusWaitTime, routing.BusVelocity)
	if render := state.RenderSettings(); render != nil {
		log.Printf("🗺️  Render settings: %.0fx%.0f, padding %.0f, %d palette colors",
			render.Width, render.Height, render.Padding, len(render.ColorPalette))
	}
}
