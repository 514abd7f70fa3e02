package routing

import (
	"container/heap"
	"slices"

	"github.com/passbi/transit_catalogue/internal/graph"
)

// RouteInfo is a shortest path: its total weight and its edges in travel order
type RouteInfo[W graph.Weight] struct {
	Weight W
	Edges  []graph.EdgeID
}

// Router answers shortest-path queries over an immutable graph.
// All edge weights must be non-negative.
type Router[W graph.Weight] struct {
	graph *graph.DirectedWeightedGraph[W]
}

// NewRouter creates a router over g. The graph must not change afterwards.
func NewRouter[W graph.Weight](g *graph.DirectedWeightedGraph[W]) *Router[W] {
	return &Router[W]{graph: g}
}

// BuildRoute runs Dijkstra from one vertex to another.
// It returns false when the target is unreachable.
func (r *Router[W]) BuildRoute(from, to graph.VertexID) (RouteInfo[W], bool) {
	vertexCount := r.graph.VertexCount()
	if from < 0 || int(from) >= vertexCount || to < 0 || int(to) >= vertexCount {
		return RouteInfo[W]{}, false
	}

	dist := make([]W, vertexCount)
	reached := make([]bool, vertexCount)
	prevEdge := make([]graph.EdgeID, vertexCount)

	reached[from] = true
	openSet := &priorityQueue[W]{}
	heap.Push(openSet, &searchState[W]{vertex: from, dist: 0})

	for openSet.Len() > 0 {
		current := heap.Pop(openSet).(*searchState[W])

		// stale entry, a shorter distance was found after it was queued
		if current.dist > dist[current.vertex] {
			continue
		}
		if current.vertex == to {
			break
		}

		for _, id := range r.graph.IncidentEdges(current.vertex) {
			edge := r.graph.Edge(id)
			tentative := current.dist + edge.Weight

			if reached[edge.To] && tentative >= dist[edge.To] {
				continue
			}

			reached[edge.To] = true
			dist[edge.To] = tentative
			prevEdge[edge.To] = id
			heap.Push(openSet, &searchState[W]{vertex: edge.To, dist: tentative})
		}
	}

	if !reached[to] {
		return RouteInfo[W]{}, false
	}

	var edges []graph.EdgeID
	for v := to; v != from; {
		id := prevEdge[v]
		edges = append(edges, id)
		v = r.graph.Edge(id).From
	}
	slices.Reverse(edges)

	return RouteInfo[W]{Weight: dist[to], Edges: edges}, true
}

// Graph returns the graph the router searches
func (r *Router[W]) Graph() *graph.DirectedWeightedGraph[W] {
	return r.graph
}

// searchState is a queued vertex during the search
type searchState[W graph.Weight] struct {
	vertex graph.VertexID
	dist   W
}

// priorityQueue implements heap.Interface ordered by distance
type priorityQueue[W graph.Weight] []*searchState[W]

func (pq priorityQueue[W]) Len() int { return len(pq) }

func (pq priorityQueue[W]) Less(i, j int) bool {
	return pq[i].dist < pq[j].dist
}

func (pq priorityQueue[W]) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
}

func (pq *priorityQueue[W]) Push(x any) {
	*pq = append(*pq, x.(*searchState[W]))
}

func (pq *priorityQueue[W]) Pop() any {
	old := *pq
	n := len(old)
	state := old[n-1]
	old[n-1] = nil
	*pq = old[0 : n-1]
	return state
}
