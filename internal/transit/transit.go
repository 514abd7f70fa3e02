package transit

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/passbi/transit_catalogue/internal/catalogue"
	"github.com/passbi/transit_catalogue/internal/graph"
	"github.com/passbi/transit_catalogue/internal/models"
	"github.com/passbi/transit_catalogue/internal/persist"
	"github.com/passbi/transit_catalogue/internal/render"
	"github.com/passbi/transit_catalogue/internal/routing"
)

// State is an opened base answering read-only queries
type State struct {
	catalogue *catalogue.Catalogue
	router    *routing.TransportRouter
	routing   models.RoutingSettings
	render    *models.RenderSettings
	projector *render.Projector
}

// MapStop is a useful stop projected onto the map plane
type MapStop struct {
	Name  string       `json:"name"`
	Point render.Point `json:"point"`
}

// Stats summarises the size of a base
type Stats struct {
	Stops       int `json:"stops"`
	Buses       int `json:"buses"`
	UsefulStops int `json:"useful_stops"`
	Vertices    int `json:"vertices"`
	Edges       int `json:"edges"`
}

// NewCatalogue adds every stop, then every bus, then every road distance
func NewCatalogue(data *models.BaseData) (*catalogue.Catalogue, error) {
	cat := catalogue.New()

	for _, stop := range data.Stops {
		location := models.Coordinates{Lat: stop.Latitude, Lng: stop.Longitude}
		if _, err := cat.AddStop(stop.Name, location); err != nil {
			return nil, err
		}
	}

	for _, bus := range data.Buses {
		if _, err := cat.AddBus(bus.Name, bus.Stops, bus.IsRoundtrip); err != nil {
			return nil, err
		}
	}

	for _, stop := range data.Stops {
		for to, meters := range stop.RoadDistances {
			if err := cat.SetDistance(stop.Name, to, meters); err != nil {
				return nil, fmt.Errorf("road distance from %q: %w", stop.Name, err)
			}
		}
	}

	return cat, nil
}

// Build fills a catalogue from the base data and compiles its routing graph
func Build(data *models.BaseData) (*State, error) {
	if data == nil {
		return nil, errors.New("base data is nil")
	}
	if err := validator.New().Struct(data.Routing); err != nil {
		return nil, fmt.Errorf("invalid routing settings: %w", err)
	}

	startTime := time.Now()

	cat, err := NewCatalogue(data)
	if err != nil {
		return nil, fmt.Errorf("failed to fill catalogue: %w", err)
	}

	g, err := graph.NewBuilder(cat, data.Routing).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build routing graph: %w", err)
	}

	state := &State{
		catalogue: cat,
		router:    routing.NewTransportRouter(cat, g),
		routing:   data.Routing,
		render:    data.Render,
	}
	if data.Render != nil {
		var points []models.Coordinates
		for _, stopID := range cat.UsefulStops() {
			points = append(points, cat.Stop(stopID).Location)
		}
		state.projector = render.NewProjector(points, data.Render.Width, data.Render.Height, data.Render.Padding)
	}

	log.Printf("Base built in %v (%s)", time.Since(startTime), cat)

	return state, nil
}

// BuildAndSerialize builds a base and encodes it into a blob
func BuildAndSerialize(data *models.BaseData) ([]byte, error) {
	state, err := Build(data)
	if err != nil {
		return nil, err
	}
	return state.Serialize()
}

// DeserializeAndOpen decodes a blob produced by BuildAndSerialize into a queryable state
func DeserializeAndOpen(blob []byte) (*State, error) {
	snapshot, err := persist.Decode(blob)
	if err != nil {
		return nil, err
	}

	state := &State{
		catalogue: snapshot.Catalogue,
		router:    routing.NewTransportRouter(snapshot.Catalogue, snapshot.Graph),
		routing:   snapshot.Routing,
		render:    snapshot.Render,
	}
	if snapshot.Projector != nil {
		state.projector = render.FromSettings(*snapshot.Projector)
	}

	return state, nil
}

// Serialize encodes the state
func (s *State) Serialize() ([]byte, error) {
	snapshot := &persist.Snapshot{
		Catalogue: s.catalogue,
		Graph:     s.router.Graph(),
		Routing:   s.routing,
		Render:    s.render,
	}
	if s.projector != nil {
		settings := s.projector.Settings()
		snapshot.Projector = &settings
	}
	return persist.Encode(snapshot)
}

// BusInfo returns the statistics of a bus
func (s *State) BusInfo(name string) (models.BusInfo, bool) {
	return s.catalogue.BusInfo(name)
}

// StopInfo returns the buses passing through a stop
func (s *State) StopInfo(name string) (models.StopInfo, bool) {
	return s.catalogue.StopInfo(name)
}

// Itinerary returns the fastest journey between two stops, or nil if there is none
func (s *State) Itinerary(from, to string) (*models.Itinerary, error) {
	return s.router.Itinerary(from, to)
}

// RoutingSettings returns the settings the graph was built with
func (s *State) RoutingSettings() models.RoutingSettings {
	return s.routing
}

// RenderSettings returns the render settings, nil when the base has none
func (s *State) RenderSettings() *models.RenderSettings {
	return s.render
}

// MapStops projects every useful stop, ordered by name.
// Returns false when the base carries no render settings.
func (s *State) MapStops() ([]MapStop, bool) {
	if s.projector == nil {
		return nil, false
	}

	stops := s.catalogue.UsefulStopsByName()
	result := make([]MapStop, 0, len(stops))
	for _, stop := range stops {
		result = append(result, MapStop{Name: stop.Name, Point: s.projector.Project(stop.Location)})
	}
	return result, true
}

// Stats returns the size of the base
func (s *State) Stats() Stats {
	g := s.router.Graph()
	return Stats{
		Stops:       len(s.catalogue.Stops()),
		Buses:       len(s.catalogue.Buses()),
		UsefulStops: s.catalogue.UsefulStopCount(),
		Vertices:    g.VertexCount(),
		Edges:       g.EdgeCount(),
	}
}
