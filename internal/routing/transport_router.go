package routing

import (
	"errors"

	"github.com/passbi/transit_catalogue/internal/catalogue"
	"github.com/passbi/transit_catalogue/internal/graph"
	"github.com/passbi/transit_catalogue/internal/models"
)

// ErrNotBuilt is returned when a route is queried before the router exists
var ErrNotBuilt = errors.New("router is not built")

// TransportRouter resolves stop names and finds the fastest itinerary between stops
type TransportRouter struct {
	catalogue *catalogue.Catalogue
	router    *Router[float64]
}

// NewTransportRouter creates a router over a compiled graph of the catalogue
func NewTransportRouter(cat *catalogue.Catalogue, g *graph.Graph) *TransportRouter {
	return &TransportRouter{
		catalogue: cat,
		router:    NewRouter(g),
	}
}

// Graph returns the routing graph
func (t *TransportRouter) Graph() *graph.Graph {
	return t.router.Graph()
}

// BuildRoute finds the fastest path from one stop's arrival vertex to another's.
// Stops that are unknown or not served by any bus give no route, not an error.
func (t *TransportRouter) BuildRoute(from, to string) (RouteInfo[float64], bool, error) {
	if t == nil || t.router == nil {
		return RouteInfo[float64]{}, false, ErrNotBuilt
	}

	fromID, ok := t.catalogue.UsefulStopID(from)
	if !ok {
		return RouteInfo[float64]{}, false, nil
	}
	toID, ok := t.catalogue.UsefulStopID(to)
	if !ok {
		return RouteInfo[float64]{}, false, nil
	}

	info, ok := t.router.BuildRoute(graph.ArrivalVertex(fromID), graph.ArrivalVertex(toID))
	return info, ok, nil
}

// Itinerary answers a route query as a list of wait and ride items.
// It returns nil when there is no route.
func (t *TransportRouter) Itinerary(from, to string) (*models.Itinerary, error) {
	info, ok, err := t.BuildRoute(from, to)
	if err != nil || !ok {
		return nil, err
	}

	itinerary := &models.Itinerary{
		TotalTime: info.Weight,
		Items:     make([]models.Item, 0, len(info.Edges)),
	}

	for _, id := range info.Edges {
		edge := t.router.Graph().Edge(id)

		switch edge.Kind {
		case graph.EdgeWait:
			itinerary.Items = append(itinerary.Items, models.Item{
				Type:     models.ItemWait,
				StopName: t.catalogue.Stop(edge.Stop).Name,
				Time:     edge.Weight,
			})
		case graph.EdgeRide:
			itinerary.Items = append(itinerary.Items, models.Item{
				Type:      models.ItemBus,
				StopName:  t.catalogue.Stop(edge.Stop).Name,
				Bus:       t.catalogue.Bus(edge.Bus).Name,
				SpanCount: edge.Span,
				Time:      edge.Weight,
			})
		}
	}

	return itinerary, nil
}
