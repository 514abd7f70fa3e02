package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/passbi/transit_catalogue/internal/models"
)

// schema holds the tables a base can be built from
var schema = []string{
	`CREATE TABLE IF NOT EXISTS stop (
		id   BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		lat  DOUBLE PRECISION NOT NULL,
		lon  DOUBLE PRECISION NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS bus (
		id           BIGSERIAL PRIMARY KEY,
		name         TEXT NOT NULL UNIQUE,
		is_roundtrip BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS bus_stop (
		bus_id   BIGINT NOT NULL REFERENCES bus(id) ON DELETE CASCADE,
		position INT NOT NULL,
		stop_id  BIGINT NOT NULL REFERENCES stop(id) ON DELETE CASCADE,
		PRIMARY KEY (bus_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS road_distance (
		from_stop_id BIGINT NOT NULL REFERENCES stop(id) ON DELETE CASCADE,
		to_stop_id   BIGINT NOT NULL REFERENCES stop(id) ON DELETE CASCADE,
		meters       INT NOT NULL CHECK (meters >= 0),
		PRIMARY KEY (from_stop_id, to_stop_id)
	)`,
}

// Querier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Beginner starts transactions
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// EnsureSchema creates the catalogue tables if they do not exist
func EnsureSchema(ctx context.Context, q Querier) error {
	for _, stmt := range schema {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// SaveBaseData replaces the stored stops, buses and road distances in one transaction
func SaveBaseData(ctx context.Context, db Beginner, data *models.BaseData) error {
	startTime := time.Now()

	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE bus_stop, road_distance, bus, stop RESTART IDENTITY`); err != nil {
		return fmt.Errorf("failed to clear tables: %w", err)
	}

	stopIDs := make(map[string]int64, len(data.Stops))
	for _, stop := range data.Stops {
		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO stop (name, lat, lon)
			VALUES ($1, $2, $3)
			RETURNING id
		`, stop.Name, stop.Latitude, stop.Longitude).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to insert stop %q: %w", stop.Name, err)
		}
		stopIDs[stop.Name] = id
	}

	batch := &pgx.Batch{}
	for _, stop := range data.Stops {
		for to, meters := range stop.RoadDistances {
			toID, ok := stopIDs[to]
			if !ok {
				return fmt.Errorf("road distance from %q to unknown stop %q", stop.Name, to)
			}
			batch.Queue(`
				INSERT INTO road_distance (from_stop_id, to_stop_id, meters)
				VALUES ($1, $2, $3)
			`, stopIDs[stop.Name], toID, meters)
		}
	}
	if err := sendBatch(ctx, tx, batch, "road distance"); err != nil {
		return err
	}

	for _, bus := range data.Buses {
		var busID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO bus (name, is_roundtrip)
			VALUES ($1, $2)
			RETURNING id
		`, bus.Name, bus.IsRoundtrip).Scan(&busID)
		if err != nil {
			return fmt.Errorf("failed to insert bus %q: %w", bus.Name, err)
		}

		stopsBatch := &pgx.Batch{}
		for position, name := range bus.Stops {
			stopID, ok := stopIDs[name]
			if !ok {
				return fmt.Errorf("bus %q references unknown stop %q", bus.Name, name)
			}
			stopsBatch.Queue(`
				INSERT INTO bus_stop (bus_id, position, stop_id)
				VALUES ($1, $2, $3)
			`, busID, position, stopID)
		}
		if err := sendBatch(ctx, tx, stopsBatch, "bus stop"); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("Stored %d stops and %d buses in %v", len(data.Stops), len(data.Buses), time.Since(startTime))
	return nil
}

func sendBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch, what string) error {
	if batch.Len() == 0 {
		return nil
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert %s %d: %w", what, i, err)
		}
	}
	return nil
}

// LoadBaseData reads stops, buses and road distances in insertion order.
// Routing and render settings are not stored in the database.
func LoadBaseData(ctx context.Context, q Querier) (*models.BaseData, error) {
	startTime := time.Now()
	data := &models.BaseData{}

	// 1. Stops
	stopIndex := make(map[int64]int)
	rows, err := q.Query(ctx, `SELECT id, name, lat, lon FROM stop ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stops: %w", err)
	}
	for rows.Next() {
		var id int64
		var stop models.StopRecord
		if err := rows.Scan(&id, &stop.Name, &stop.Latitude, &stop.Longitude); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan stop: %w", err)
		}
		stopIndex[id] = len(data.Stops)
		data.Stops = append(data.Stops, stop)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stops: %w", err)
	}

	// 2. Road distances
	rows, err = q.Query(ctx, `
		SELECT d.from_stop_id, t.name, d.meters
		FROM road_distance d
		JOIN stop t ON t.id = d.to_stop_id
		ORDER BY d.from_stop_id, d.to_stop_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query road distances: %w", err)
	}
	for rows.Next() {
		var fromID int64
		var to string
		var meters int
		if err := rows.Scan(&fromID, &to, &meters); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan road distance: %w", err)
		}
		stop := &data.Stops[stopIndex[fromID]]
		if stop.RoadDistances == nil {
			stop.RoadDistances = make(map[string]int)
		}
		stop.RoadDistances[to] = meters
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read road distances: %w", err)
	}

	// 3. Buses
	busIndex := make(map[int64]int)
	rows, err = q.Query(ctx, `SELECT id, name, is_roundtrip FROM bus ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query buses: %w", err)
	}
	for rows.Next() {
		var id int64
		bus := models.BusRecord{Stops: []string{}}
		if err := rows.Scan(&id, &bus.Name, &bus.IsRoundtrip); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan bus: %w", err)
		}
		busIndex[id] = len(data.Buses)
		data.Buses = append(data.Buses, bus)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read buses: %w", err)
	}

	// 4. Stop sequences
	rows, err = q.Query(ctx, `
		SELECT b.bus_id, s.name
		FROM bus_stop b
		JOIN stop s ON s.id = b.stop_id
		ORDER BY b.bus_id, b.position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query bus stops: %w", err)
	}
	for rows.Next() {
		var busID int64
		var name string
		if err := rows.Scan(&busID, &name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan bus stop: %w", err)
		}
		bus := &data.Buses[busIndex[busID]]
		bus.Stops = append(bus.Stops, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bus stops: %w", err)
	}

	log.Printf("Loaded %d stops and %d buses from database in %v",
		len(data.Stops), len(data.Buses), time.Since(startTime))

	return data, nil
}
