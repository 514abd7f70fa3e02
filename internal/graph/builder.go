package graph

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/passbi/transit_catalogue/internal/catalogue"
	"github.com/passbi/transit_catalogue/internal/models"
)

const (
	metersPerKilometer = 1000
	minutesPerHour     = 60
)

// ErrMissingDistance means neither direction of a route segment has a road distance
var ErrMissingDistance = errors.New("no road distance between consecutive stops")

// Builder compiles a fully populated catalogue into a routing graph
type Builder struct {
	catalogue       *catalogue.Catalogue
	waitTime        float64 // minutes
	metersPerMinute float64
}

// NewBuilder creates a new graph builder
func NewBuilder(cat *catalogue.Catalogue, settings models.RoutingSettings) *Builder {
	return &Builder{
		catalogue:       cat,
		waitTime:        settings.BusWaitTime,
		metersPerMinute: settings.BusVelocity * metersPerKilometer / minutesPerHour,
	}
}

// Build constructs the complete routing graph.
// This includes wait edges (one per useful stop), ride edges between consecutive
// stops and chord edges covering longer rides on the same bus.
func (b *Builder) Build() (*Graph, error) {
	startTime := time.Now()

	g := New[float64](2 * b.catalogue.UsefulStopCount())

	for u, stopID := range b.catalogue.UsefulStops() {
		g.AddEdge(Edge[float64]{
			From:   ArrivalVertex(u),
			To:     DepartureVertex(u),
			Weight: b.waitTime,
			Span:   0,
			Kind:   EdgeWait,
			Stop:   stopID,
		})
	}

	for _, bus := range b.catalogue.Buses() {
		if err := b.addBusEdges(g, bus); err != nil {
			return nil, fmt.Errorf("failed to build edges of bus %q: %w", bus.Name, err)
		}
	}

	log.Printf("Routing graph compiled in %v (%d vertices, %d edges)",
		time.Since(startTime), g.VertexCount(), g.EdgeCount())

	return g, nil
}

// addBusEdges creates the ride edges of one bus, then its chord edges
func (b *Builder) addBusEdges(g *Graph, bus models.Bus) error {
	stops := bus.Stops
	if len(stops) < 2 {
		return nil
	}

	// forward[i] covers stops[i] -> stops[i+1]; backward[i] covers stops[i+1] -> stops[i]
	forward := make([]EdgeID, len(stops)-1)
	var backward []EdgeID
	if !bus.IsLoop {
		backward = make([]EdgeID, len(stops)-1)
	}

	for i := 0; i+1 < len(stops); i++ {
		from, to := stops[i], stops[i+1]

		forwardMeters, ok := b.catalogue.RoadDistance(from, to)
		if !ok {
			forwardMeters, ok = b.catalogue.RoadDistance(to, from)
		}
		if !ok {
			return fmt.Errorf("%w: %q and %q", ErrMissingDistance,
				b.catalogue.Stop(from).Name, b.catalogue.Stop(to).Name)
		}
		forward[i] = g.AddEdge(b.rideEdge(bus.ID, from, to, forwardMeters))

		if bus.IsLoop {
			continue
		}

		// the reverse edge reuses the forward road distance, not the straight line
		backwardMeters, ok := b.catalogue.RoadDistance(to, from)
		if !ok {
			backwardMeters = forwardMeters
		}
		backward[i] = g.AddEdge(b.rideEdge(bus.ID, to, from, backwardMeters))
	}

	b.addChordEdges(g, bus, forward, backward)
	return nil
}

// addChordEdges creates one edge for every pair of positions i < j-1 on the bus.
// The edge i -> j is the previous chord i -> j-1 extended by the ride edge j-1 -> j,
// so every chord costs O(1) and a bus with n stops takes O(n^2) work.
func (b *Builder) addChordEdges(g *Graph, bus models.Bus, forward, backward []EdgeID) {
	stops := bus.Stops

	for i := 0; i+1 < len(stops); i++ {
		lastForward := forward[i]
		var lastBackward EdgeID
		if !bus.IsLoop {
			lastBackward = backward[i]
		}

		for j := i + 2; j < len(stops); j++ {
			lastForward = g.AddEdge(joinEdges(g.Edge(lastForward), g.Edge(forward[j-1])))

			if bus.IsLoop {
				continue
			}

			// stops[j] -> stops[j-1], then the previous chord stops[j-1] -> stops[i]
			lastBackward = g.AddEdge(joinEdges(g.Edge(backward[j-1]), g.Edge(lastBackward)))
		}
	}
}

// joinEdges chains two consecutive ride edges of the same bus
func joinEdges(head, tail Edge[float64]) Edge[float64] {
	return Edge[float64]{
		From:   head.From,
		To:     tail.To,
		Weight: head.Weight + tail.Weight,
		Span:   head.Span + tail.Span,
		Kind:   EdgeRide,
		Bus:    head.Bus,
		Stop:   head.Stop,
	}
}

func (b *Builder) rideEdge(bus models.BusID, from, to models.StopID, meters int) Edge[float64] {
	fromUseful, _ := b.catalogue.UsefulStopIDOf(from)
	toUseful, _ := b.catalogue.UsefulStopIDOf(to)

	return Edge[float64]{
		From:   DepartureVertex(fromUseful),
		To:     ArrivalVertex(toUseful),
		Weight: float64(meters) / b.metersPerMinute,
		Span:   1,
		Kind:   EdgeRide,
		Bus:    bus,
		Stop:   from,
	}
}
