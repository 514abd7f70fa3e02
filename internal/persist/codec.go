package persist

import (
	"errors"
	"fmt"
	"slices"

	"github.com/passbi/transit_catalogue/internal/catalogue"
	"github.com/passbi/transit_catalogue/internal/graph"
	"github.com/passbi/transit_catalogue/internal/models"
	"google.golang.org/protobuf/encoding/protowire"
)

const formatVersion = 1

// ErrCorrupt means a blob does not decode to a base of the supported version
var ErrCorrupt = errors.New("corrupt base")

const (
	baseVersion protowire.Number = iota + 1
	baseStop
	baseBus
	baseDistance
	baseUsefulStops
	baseRouting
	baseRender
	baseProjector
	baseGraph
)

const (
	stopFieldID protowire.Number = iota + 1
	stopFieldName
	stopFieldLat
	stopFieldLng
)

const (
	busFieldID protowire.Number = iota + 1
	busFieldName
	busFieldIsLoop
	busFieldStops
)

const (
	distanceFieldFrom protowire.Number = iota + 1
	distanceFieldTo
	distanceFieldMeters
)

const (
	routingFieldWaitTime protowire.Number = iota + 1
	routingFieldVelocity
)

const (
	graphFieldVertexCount protowire.Number = iota + 1
	graphFieldEdge
	graphFieldIncidence
)

const (
	edgeFieldFrom protowire.Number = iota + 1
	edgeFieldTo
	edgeFieldWeight
	edgeFieldSpan
	edgeFieldKind
	edgeFieldBus
	edgeFieldStop
)

const incidenceFieldEdges protowire.Number = 1

// Snapshot is the complete state carried by a base
type Snapshot struct {
	Catalogue *catalogue.Catalogue
	Graph     *graph.Graph
	Routing   models.RoutingSettings
	Render    *models.RenderSettings    // optional
	Projector *models.ProjectorSettings // optional
}

// baseMessage is the flat, id-addressed form of a snapshot
type baseMessage struct {
	version     int
	stops       []models.Stop
	buses       []models.Bus
	distances   []models.RoadDistance
	usefulStops []models.StopID
	routing     *models.RoutingSettings
	render      *models.RenderSettings
	projector   *models.ProjectorSettings
	graph       *graphMessage
}

type graphMessage struct {
	vertexCount int
	edges       []graph.Edge[float64]
	incidence   [][]graph.EdgeID
}

// Encode serializes a snapshot to a blob
func Encode(s *Snapshot) ([]byte, error) {
	if s == nil || s.Catalogue == nil || s.Graph == nil {
		return nil, errors.New("snapshot needs a catalogue and a graph")
	}
	return newBaseMessage(s).marshal(), nil
}

// Decode reconstructs a snapshot from a blob.
// The catalogue is rebuilt by replaying stops, buses and distances in their
// original order; the graph is restored as stored, not recompiled.
func Decode(blob []byte) (*Snapshot, error) {
	var m baseMessage
	if err := m.unmarshal(blob); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	snapshot, err := m.restore()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return snapshot, nil
}

func newBaseMessage(s *Snapshot) *baseMessage {
	routing := s.Routing
	m := &baseMessage{
		version:     formatVersion,
		stops:       s.Catalogue.Stops(),
		buses:       s.Catalogue.Buses(),
		distances:   s.Catalogue.Distances(),
		usefulStops: s.Catalogue.UsefulStops(),
		routing:     &routing,
		render:      s.Render,
		projector:   s.Projector,
		graph: &graphMessage{
			vertexCount: s.Graph.VertexCount(),
			edges:       make([]graph.Edge[float64], 0, s.Graph.EdgeCount()),
			incidence:   make([][]graph.EdgeID, 0, s.Graph.VertexCount()),
		},
	}

	for id := 0; id < s.Graph.EdgeCount(); id++ {
		m.graph.edges = append(m.graph.edges, s.Graph.Edge(graph.EdgeID(id)))
	}
	for v := 0; v < s.Graph.VertexCount(); v++ {
		m.graph.incidence = append(m.graph.incidence, slices.Clone(s.Graph.IncidentEdges(graph.VertexID(v))))
	}

	return m
}

func (m *baseMessage) marshal() []byte {
	b := appendInt(nil, baseVersion, m.version)

	for _, stop := range m.stops {
		var msg []byte
		msg = appendInt(msg, stopFieldID, int(stop.ID))
		msg = appendString(msg, stopFieldName, stop.Name)
		msg = appendDouble(msg, stopFieldLat, stop.Location.Lat)
		msg = appendDouble(msg, stopFieldLng, stop.Location.Lng)
		b = appendMessage(b, baseStop, msg)
	}

	for _, bus := range m.buses {
		var msg []byte
		msg = appendInt(msg, busFieldID, int(bus.ID))
		msg = appendString(msg, busFieldName, bus.Name)
		msg = appendBool(msg, busFieldIsLoop, bus.IsLoop)
		msg = appendPacked(msg, busFieldStops, bus.Stops)
		b = appendMessage(b, baseBus, msg)
	}

	for _, d := range m.distances {
		var msg []byte
		msg = appendInt(msg, distanceFieldFrom, int(d.From))
		msg = appendInt(msg, distanceFieldTo, int(d.To))
		msg = appendInt(msg, distanceFieldMeters, d.Meters)
		b = appendMessage(b, baseDistance, msg)
	}

	b = appendPacked(b, baseUsefulStops, m.usefulStops)

	if m.routing != nil {
		var msg []byte
		msg = appendDouble(msg, routingFieldWaitTime, m.routing.BusWaitTime)
		msg = appendDouble(msg, routingFieldVelocity, m.routing.BusVelocity)
		b = appendMessage(b, baseRouting, msg)
	}
	if m.render != nil {
		b = appendMessage(b, baseRender, marshalRender(m.render))
	}
	if m.projector != nil {
		b = appendMessage(b, baseProjector, marshalProjector(m.projector))
	}
	if m.graph != nil {
		b = appendMessage(b, baseGraph, m.graph.marshal())
	}

	return b
}

func (g *graphMessage) marshal() []byte {
	b := appendInt(nil, graphFieldVertexCount, g.vertexCount)

	for _, e := range g.edges {
		var msg []byte
		msg = appendInt(msg, edgeFieldFrom, int(e.From))
		msg = appendInt(msg, edgeFieldTo, int(e.To))
		msg = appendDouble(msg, edgeFieldWeight, e.Weight)
		msg = appendInt(msg, edgeFieldSpan, e.Span)
		msg = appendInt(msg, edgeFieldKind, int(e.Kind))
		msg = appendInt(msg, edgeFieldBus, int(e.Bus))
		msg = appendInt(msg, edgeFieldStop, int(e.Stop))
		b = appendMessage(b, graphFieldEdge, msg)
	}

	for _, ids := range g.incidence {
		b = appendMessage(b, graphFieldIncidence, appendPacked(nil, incidenceFieldEdges, ids))
	}

	return b
}

func (m *baseMessage) unmarshal(b []byte) error {
	r := &reader{}

	return parseFields(b, func(f field) error {
		switch f.num {
		case baseVersion:
			m.version = r.int(f)
		case baseStop:
			stop, err := unmarshalStop(r, r.message(f))
			if err != nil {
				return fmt.Errorf("stop %d: %w", len(m.stops), err)
			}
			m.stops = append(m.stops, stop)
		case baseBus:
			bus, err := unmarshalBus(r, r.message(f))
			if err != nil {
				return fmt.Errorf("bus %d: %w", len(m.buses), err)
			}
			m.buses = append(m.buses, bus)
		case baseDistance:
			d, err := unmarshalDistance(r, r.message(f))
			if err != nil {
				return fmt.Errorf("distance %d: %w", len(m.distances), err)
			}
			m.distances = append(m.distances, d)
		case baseUsefulStops:
			m.usefulStops = packed[models.StopID](r, f)
		case baseRouting:
			routing, err := unmarshalRouting(r, r.message(f))
			if err != nil {
				return fmt.Errorf("routing settings: %w", err)
			}
			m.routing = &routing
		case baseRender:
			render, err := unmarshalRender(r, r.message(f))
			if err != nil {
				return fmt.Errorf("render settings: %w", err)
			}
			m.render = &render
		case baseProjector:
			projector, err := unmarshalProjector(r, r.message(f))
			if err != nil {
				return fmt.Errorf("projector settings: %w", err)
			}
			m.projector = &projector
		case baseGraph:
			g, err := unmarshalGraph(r, r.message(f))
			if err != nil {
				return fmt.Errorf("graph: %w", err)
			}
			m.graph = g
		}
		return r.err
	})
}

func unmarshalStop(r *reader, b []byte) (models.Stop, error) {
	var stop models.Stop
	err := parseFields(b, func(f field) error {
		switch f.num {
		case stopFieldID:
			stop.ID = models.StopID(r.int(f))
		case stopFieldName:
			stop.Name = r.string(f)
		case stopFieldLat:
			stop.Location.Lat = r.double(f)
		case stopFieldLng:
			stop.Location.Lng = r.double(f)
		}
		return r.err
	})
	return stop, err
}

func unmarshalBus(r *reader, b []byte) (models.Bus, error) {
	var bus models.Bus
	err := parseFields(b, func(f field) error {
		switch f.num {
		case busFieldID:
			bus.ID = models.BusID(r.int(f))
		case busFieldName:
			bus.Name = r.string(f)
		case busFieldIsLoop:
			bus.IsLoop = r.bool(f)
		case busFieldStops:
			bus.Stops = packed[models.StopID](r, f)
		}
		return r.err
	})
	return bus, err
}

func unmarshalDistance(r *reader, b []byte) (models.RoadDistance, error) {
	var d models.RoadDistance
	err := parseFields(b, func(f field) error {
		switch f.num {
		case distanceFieldFrom:
			d.From = models.StopID(r.int(f))
		case distanceFieldTo:
			d.To = models.StopID(r.int(f))
		case distanceFieldMeters:
			d.Meters = r.int(f)
		}
		return r.err
	})
	return d, err
}

func unmarshalRouting(r *reader, b []byte) (models.RoutingSettings, error) {
	var settings models.RoutingSettings
	err := parseFields(b, func(f field) error {
		switch f.num {
		case routingFieldWaitTime:
			settings.BusWaitTime = r.double(f)
		case routingFieldVelocity:
			settings.BusVelocity = r.double(f)
		}
		return r.err
	})
	return settings, err
}

func unmarshalGraph(r *reader, b []byte) (*graphMessage, error) {
	g := &graphMessage{}
	err := parseFields(b, func(f field) error {
		switch f.num {
		case graphFieldVertexCount:
			g.vertexCount = r.int(f)
		case graphFieldEdge:
			e, err := unmarshalEdge(r, r.message(f))
			if err != nil {
				return fmt.Errorf("edge %d: %w", len(g.edges), err)
			}
			g.edges = append(g.edges, e)
		case graphFieldIncidence:
			var ids []graph.EdgeID
			err := parseFields(r.message(f), func(f field) error {
				if f.num == incidenceFieldEdges {
					ids = packed[graph.EdgeID](r, f)
				}
				return r.err
			})
			if err != nil {
				return fmt.Errorf("incidence list %d: %w", len(g.incidence), err)
			}
			g.incidence = append(g.incidence, ids)
		}
		return r.err
	})
	return g, err
}

func unmarshalEdge(r *reader, b []byte) (graph.Edge[float64], error) {
	var e graph.Edge[float64]
	err := parseFields(b, func(f field) error {
		switch f.num {
		case edgeFieldFrom:
			e.From = graph.VertexID(r.int(f))
		case edgeFieldTo:
			e.To = graph.VertexID(r.int(f))
		case edgeFieldWeight:
			e.Weight = r.double(f)
		case edgeFieldSpan:
			e.Span = r.int(f)
		case edgeFieldKind:
			e.Kind = graph.EdgeKind(r.int(f))
		case edgeFieldBus:
			e.Bus = models.BusID(r.int(f))
		case edgeFieldStop:
			e.Stop = models.StopID(r.int(f))
		}
		return r.err
	})
	return e, err
}

// restore replays the decoded message into a catalogue and a graph
func (m *baseMessage) restore() (*Snapshot, error) {
	if m.version != formatVersion {
		return nil, fmt.Errorf("unsupported format version %d", m.version)
	}
	if m.routing == nil {
		return nil, errors.New("routing settings are missing")
	}
	if m.graph == nil {
		return nil, errors.New("graph is missing")
	}

	cat, err := m.restoreCatalogue()
	if err != nil {
		return nil, err
	}

	g, err := m.restoreGraph(cat)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Catalogue: cat,
		Graph:     g,
		Routing:   *m.routing,
		Render:    m.render,
		Projector: m.projector,
	}, nil
}

func (m *baseMessage) stopName(id models.StopID) (string, error) {
	if id < 0 || int(id) >= len(m.stops) {
		return "", fmt.Errorf("unknown stop id %d", id)
	}
	return m.stops[id].Name, nil
}

func (m *baseMessage) restoreCatalogue() (*catalogue.Catalogue, error) {
	cat := catalogue.New()

	for i, stop := range m.stops {
		id, err := cat.AddStop(stop.Name, stop.Location)
		if err != nil {
			return nil, err
		}
		if id != stop.ID || int(id) != i {
			return nil, fmt.Errorf("stop %q stored with id %d at position %d", stop.Name, stop.ID, i)
		}
	}

	for i, bus := range m.buses {
		names := make([]string, len(bus.Stops))
		for k, stopID := range bus.Stops {
			name, err := m.stopName(stopID)
			if err != nil {
				return nil, fmt.Errorf("bus %q: %w", bus.Name, err)
			}
			names[k] = name
		}

		id, err := cat.AddBus(bus.Name, names, bus.IsLoop)
		if err != nil {
			return nil, err
		}
		if id != bus.ID || int(id) != i {
			return nil, fmt.Errorf("bus %q stored with id %d at position %d", bus.Name, bus.ID, i)
		}
	}

	for _, d := range m.distances {
		from, err := m.stopName(d.From)
		if err != nil {
			return nil, fmt.Errorf("distance: %w", err)
		}
		to, err := m.stopName(d.To)
		if err != nil {
			return nil, fmt.Errorf("distance: %w", err)
		}
		if err := cat.SetDistance(from, to, d.Meters); err != nil {
			return nil, err
		}
	}

	// replaying the buses must assign the same useful-stop ids
	if !slices.Equal(cat.UsefulStops(), m.usefulStops) {
		return nil, errors.New("useful stop index does not match the stored buses")
	}

	return cat, nil
}

func (m *baseMessage) restoreGraph(cat *catalogue.Catalogue) (*graph.Graph, error) {
	gm := m.graph

	if gm.vertexCount != 2*cat.UsefulStopCount() {
		return nil, fmt.Errorf("graph has %d vertices for %d useful stops", gm.vertexCount, cat.UsefulStopCount())
	}
	if len(gm.incidence) != gm.vertexCount {
		return nil, fmt.Errorf("graph has %d incidence lists for %d vertices", len(gm.incidence), gm.vertexCount)
	}

	for i, e := range gm.edges {
		if _, err := m.stopName(e.Stop); err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}

		switch e.Kind {
		case graph.EdgeWait:
		case graph.EdgeRide:
			if e.Bus < 0 || int(e.Bus) >= len(m.buses) {
				return nil, fmt.Errorf("edge %d: unknown bus id %d", i, e.Bus)
			}
		default:
			return nil, fmt.Errorf("edge %d: unknown kind %d", i, e.Kind)
		}
	}

	return graph.FromParts(gm.edges, gm.incidence)
}
