package graph

import (
	"fmt"

	"github.com/passbi/transit_catalogue/internal/models"
)

// VertexID identifies a vertex. Every useful stop u owns two vertices:
// arrival 2u and departure 2u+1.
type VertexID int

// EdgeID is the position of an edge in insertion order
type EdgeID int

// Weight is the numeric type of edge weights
type Weight interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64
}

// EdgeKind tells wait edges from ride edges
type EdgeKind uint8

const (
	EdgeWait EdgeKind = iota + 1
	EdgeRide
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeWait:
		return "WAIT"
	case EdgeRide:
		return "RIDE"
	default:
		return fmt.Sprintf("EdgeKind(%d)", k)
	}
}

// Edge is a directed weighted edge.
// Span is the number of stop-to-stop hops covered (0 for wait edges).
// Bus is meaningful for ride edges only; Stop is the stop the edge departs from.
type Edge[W Weight] struct {
	From   VertexID
	To     VertexID
	Weight W
	Span   int
	Kind   EdgeKind
	Bus    models.BusID
	Stop   models.StopID
}

// DirectedWeightedGraph stores edges in insertion order plus, for every vertex,
// the ids of its outgoing edges
type DirectedWeightedGraph[W Weight] struct {
	edges     []Edge[W]
	incidence [][]EdgeID
}

// Graph is the graph type compiled from a catalogue
type Graph = DirectedWeightedGraph[float64]

// New creates a graph with vertexCount vertices and no edges
func New[W Weight](vertexCount int) *DirectedWeightedGraph[W] {
	return &DirectedWeightedGraph[W]{
		incidence: make([][]EdgeID, vertexCount),
	}
}

// FromParts rebuilds a graph from its edge list and incidence lists, keeping
// every edge id and incidence position. It checks that all references are in range.
func FromParts[W Weight](edges []Edge[W], incidence [][]EdgeID) (*DirectedWeightedGraph[W], error) {
	vertexCount := len(incidence)
	for id, e := range edges {
		if e.From < 0 || int(e.From) >= vertexCount || e.To < 0 || int(e.To) >= vertexCount {
			return nil, fmt.Errorf("edge %d: vertex out of range (%d -> %d, %d vertices)", id, e.From, e.To, vertexCount)
		}
	}
	for v, list := range incidence {
		for _, id := range list {
			if id < 0 || int(id) >= len(edges) {
				return nil, fmt.Errorf("vertex %d: edge %d out of range (%d edges)", v, id, len(edges))
			}
			if edges[id].From != VertexID(v) {
				return nil, fmt.Errorf("vertex %d: edge %d starts at vertex %d", v, id, edges[id].From)
			}
		}
	}

	return &DirectedWeightedGraph[W]{edges: edges, incidence: incidence}, nil
}

// AddEdge appends an edge and returns its id
func (g *DirectedWeightedGraph[W]) AddEdge(e Edge[W]) EdgeID {
	g.edges = append(g.edges, e)
	id := EdgeID(len(g.edges) - 1)
	g.incidence[e.From] = append(g.incidence[e.From], id)
	return id
}

// VertexCount returns the number of vertices
func (g *DirectedWeightedGraph[W]) VertexCount() int {
	return len(g.incidence)
}

// EdgeCount returns the number of edges
func (g *DirectedWeightedGraph[W]) EdgeCount() int {
	return len(g.edges)
}

// Edge returns the edge with the given id
func (g *DirectedWeightedGraph[W]) Edge(id EdgeID) Edge[W] {
	return g.edges[id]
}

// IncidentEdges returns the ids of the edges leaving a vertex.
// The returned slice must not be modified.
func (g *DirectedWeightedGraph[W]) IncidentEdges(v VertexID) []EdgeID {
	return g.incidence[v]
}

// ArrivalVertex is the vertex a rider reaches when arriving at useful stop u
func ArrivalVertex(u int) VertexID {
	return VertexID(2 * u)
}

// DepartureVertex is the vertex a rider boards from at useful stop u
func DepartureVertex(u int) VertexID {
	return VertexID(2*u + 1)
}
