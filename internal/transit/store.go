package transit

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/passbi/transit_catalogue/internal/cache"
	"github.com/passbi/transit_catalogue/internal/config"
	"github.com/passbi/transit_catalogue/internal/persist"
)

// OpenStore returns the blob store selected by the configuration and a function
// releasing its connections. A non-empty file overrides the configured path of
// the file backend.
func OpenStore(ctx context.Context, cfg *config.Config, file string) (persist.Store, func(), error) {
	switch cfg.Storage.Backend {
	case config.BackendRedis:
		client, err := cache.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				log.Printf("Warning: failed to close redis client: %v", err)
			}
		}
		return cache.NewRedisStore(client, cfg.Storage.RedisKey), closeFn, nil

	case config.BackendFile, "":
		path := cfg.Storage.Path
		if file != "" {
			path = file
		}
		if path == "" {
			return nil, nil, fmt.Errorf("no base file configured")
		}
		return persist.NewFileStore(path), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// Save serializes the state into the store
func Save(ctx context.Context, store persist.Store, state *State) error {
	blob, err := state.Serialize()
	if err != nil {
		return fmt.Errorf("failed to serialize base: %w", err)
	}
	if err := store.Save(ctx, blob); err != nil {
		return fmt.Errorf("failed to save base: %w", err)
	}

	log.Printf("Saved base (%d bytes)", len(blob))
	return nil
}

// Load reads a blob from the store and opens it
func Load(ctx context.Context, store persist.Store) (*State, error) {
	startTime := time.Now()

	blob, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load base: %w", err)
	}

	state, err := DeserializeAndOpen(blob)
	if err != nil {
		return nil, fmt.Errorf("failed to open base: %w", err)
	}

	log.Printf("Opened base (%d bytes) in %v", len(blob), time.Since(startTime))
	return state, nil
}
