package catalogue

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/passbi/transit_catalogue/internal/geo"
	"github.com/passbi/transit_catalogue/internal/models"
)

var (
	ErrDuplicateStop = errors.New("stop already exists")
	ErrDuplicateBus  = errors.New("bus already exists")
	ErrUnknownStop   = errors.New("unknown stop")
)

// Catalogue owns stops and bus routes. Entities are append-only: they are
// added during the build phase and never mutated or removed afterwards.
type Catalogue struct {
	stops      []models.Stop
	buses      []models.Bus
	stopByName map[string]models.StopID
	busByName  map[string]models.BusID

	// useful stops are the ones referenced by at least one bus;
	// usefulIDs[stop] is dense in 0..len(usefulStops)-1, in first-use order
	usefulIDs   map[models.StopID]int
	usefulStops []models.StopID
	stopBuses   map[models.StopID]map[models.BusID]struct{}

	// mu guards the lazily filled parts read by queries
	mu        sync.Mutex
	distances map[models.StopPair]models.Distance
	roads     int // pairs in distances with a road length
	busInfos  map[models.BusID]models.BusInfo
}

// New creates an empty catalogue
func New() *Catalogue {
	return &Catalogue{
		stopByName: make(map[string]models.StopID),
		busByName:  make(map[string]models.BusID),
		usefulIDs:  make(map[models.StopID]int),
		stopBuses:  make(map[models.StopID]map[models.BusID]struct{}),
		distances:  make(map[models.StopPair]models.Distance),
		busInfos:   make(map[models.BusID]models.BusInfo),
	}
}

// AddStop inserts a stop and returns its id
func (c *Catalogue) AddStop(name string, location models.Coordinates) (models.StopID, error) {
	if _, ok := c.stopByName[name]; ok {
		return 0, fmt.Errorf("%w: %q", ErrDuplicateStop, name)
	}

	id := models.StopID(len(c.stops))
	c.stops = append(c.stops, models.Stop{ID: id, Name: name, Location: location})
	c.stopByName[name] = id

	return id, nil
}

// AddBus resolves the stop names of a route and stores it. Every stop referenced
// for the first time across all buses receives the next useful-stop id.
// All stops must have been added before.
func (c *Catalogue) AddBus(name string, stopNames []string, isLoop bool) (models.BusID, error) {
	if _, ok := c.busByName[name]; ok {
		return 0, fmt.Errorf("%w: %q", ErrDuplicateBus, name)
	}

	// resolve everything first so a failed call leaves the catalogue untouched
	stops := make([]models.StopID, 0, len(stopNames))
	for _, stopName := range stopNames {
		stopID, ok := c.stopByName[stopName]
		if !ok {
			return 0, fmt.Errorf("%w: %q on bus %q", ErrUnknownStop, stopName, name)
		}
		stops = append(stops, stopID)
	}

	id := models.BusID(len(c.buses))
	c.buses = append(c.buses, models.Bus{ID: id, Name: name, IsLoop: isLoop, Stops: stops})
	c.busByName[name] = id

	for _, stopID := range stops {
		if _, ok := c.usefulIDs[stopID]; !ok {
			c.usefulIDs[stopID] = len(c.usefulStops)
			c.usefulStops = append(c.usefulStops, stopID)
		}

		buses, ok := c.stopBuses[stopID]
		if !ok {
			buses = make(map[models.BusID]struct{})
			c.stopBuses[stopID] = buses
		}
		buses[id] = struct{}{}
	}

	return id, nil
}

// SetDistance records a directed road distance. The reverse direction is not implied.
func (c *Catalogue) SetDistance(from, to string, meters int) error {
	fromID, ok := c.stopByName[from]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStop, from)
	}
	toID, ok := c.stopByName[to]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStop, to)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := models.StopPair{From: fromID, To: toID}
	dist := c.distances[key]
	if !dist.HasRoad {
		c.roads++
	}
	dist.Road = meters
	dist.HasRoad = true
	c.distances[key] = dist

	return nil
}

// FindStop looks a stop up by name
func (c *Catalogue) FindStop(name string) (models.Stop, bool) {
	id, ok := c.stopByName[name]
	if !ok {
		return models.Stop{}, false
	}
	return c.stops[id], true
}

// FindBus looks a bus up by name
func (c *Catalogue) FindBus(name string) (models.Bus, bool) {
	id, ok := c.busByName[name]
	if !ok {
		return models.Bus{}, false
	}
	return c.buses[id], true
}

// Stop returns the stop with the given id
func (c *Catalogue) Stop(id models.StopID) models.Stop {
	return c.stops[id]
}

// Bus returns the bus with the given id
func (c *Catalogue) Bus(id models.BusID) models.Bus {
	return c.buses[id]
}

// Stops returns all stops in insertion order
func (c *Catalogue) Stops() []models.Stop {
	return slices.Clone(c.stops)
}

// Buses returns all buses in insertion order
func (c *Catalogue) Buses() []models.Bus {
	return slices.Clone(c.buses)
}

// BusesByName returns all buses sorted by name
func (c *Catalogue) BusesByName() []models.Bus {
	buses := slices.Clone(c.buses)
	sort.Slice(buses, func(i, j int) bool {
		return buses[i].Name < buses[j].Name
	})
	return buses
}

// UsefulStopID returns the useful-stop id of a stop, if it is used by any bus
func (c *Catalogue) UsefulStopID(name string) (int, bool) {
	id, ok := c.stopByName[name]
	if !ok {
		return 0, false
	}
	return c.UsefulStopIDOf(id)
}

// UsefulStopIDOf is UsefulStopID by stop id
func (c *Catalogue) UsefulStopIDOf(id models.StopID) (int, bool) {
	usefulID, ok := c.usefulIDs[id]
	return usefulID, ok
}

// UsefulStops returns the stop ids indexed by useful-stop id
func (c *Catalogue) UsefulStops() []models.StopID {
	return slices.Clone(c.usefulStops)
}

// UsefulStopCount is the number of stops used by at least one bus
func (c *Catalogue) UsefulStopCount() int {
	return len(c.usefulStops)
}

// UsefulStopsByName returns the useful stops sorted by name
func (c *Catalogue) UsefulStopsByName() []models.Stop {
	stops := make([]models.Stop, 0, len(c.usefulStops))
	for _, id := range c.usefulStops {
		stops = append(stops, c.stops[id])
	}
	sort.Slice(stops, func(i, j int) bool {
		return stops[i].Name < stops[j].Name
	})
	return stops
}

// RoadDistance returns the recorded road distance from one stop to another
func (c *Catalogue) RoadDistance(from, to models.StopID) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dist, ok := c.distances[models.StopPair{From: from, To: to}]
	if !ok || !dist.HasRoad {
		return 0, false
	}
	return dist.Road, true
}

// StraightDistance returns the great-circle distance between two stops, caching it
func (c *Catalogue) StraightDistance(from, to models.StopID) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.straightDistanceLocked(from, to)
}

func (c *Catalogue) straightDistanceLocked(from, to models.StopID) float64 {
	key := models.StopPair{From: from, To: to}
	dist := c.distances[key]
	if !dist.HasStraight {
		dist.Straight = geo.ComputeDistance(c.stops[from].Location, c.stops[to].Location)
		dist.HasStraight = true
		c.distances[key] = dist
	}
	return dist.Straight
}

// Distances returns every recorded road distance ordered by (from, to)
func (c *Catalogue) Distances() []models.RoadDistance {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]models.RoadDistance, 0, len(c.distances))
	for key, dist := range c.distances {
		if dist.HasRoad {
			result = append(result, models.RoadDistance{From: key.From, To: key.To, Meters: dist.Road})
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].From != result[j].From {
			return result[i].From < result[j].From
		}
		return result[i].To < result[j].To
	})

	return result
}

// BusInfo returns the statistics of a bus. Unknown and empty buses are not found.
// The result is computed once per bus and cached.
func (c *Catalogue) BusInfo(name string) (models.BusInfo, bool) {
	id, ok := c.busByName[name]
	if !ok {
		return models.BusInfo{}, false
	}

	bus := c.buses[id]
	if len(bus.Stops) == 0 {
		return models.BusInfo{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if info, ok := c.busInfos[id]; ok {
		return info, true
	}

	info := models.BusInfo{Name: bus.Name}
	if bus.IsLoop {
		info.StopCount = len(bus.Stops)
	} else {
		info.StopCount = len(bus.Stops)*2 - 1
	}

	unique := make(map[models.StopID]struct{}, len(bus.Stops))
	for _, stopID := range bus.Stops {
		unique[stopID] = struct{}{}
	}
	info.UniqueStopCount = len(unique)

	info.StraightLength = c.straightLengthLocked(bus)
	info.RoadLength = c.roadLengthLocked(bus)
	if info.StraightLength > 0 {
		info.Curvature = info.RoadLength / info.StraightLength
	}

	c.busInfos[id] = info
	return info, true
}

// straightLengthLocked sums straight-line segment lengths; a non-loop bus
// goes there and back over the same geometry
func (c *Catalogue) straightLengthLocked(bus models.Bus) float64 {
	length := 0.0
	for i := 0; i+1 < len(bus.Stops); i++ {
		length += c.straightDistanceLocked(bus.Stops[i], bus.Stops[i+1])
	}

	if bus.IsLoop {
		return length
	}
	return length * 2
}

// roadLengthLocked sums road segment lengths. Forward legs use A->B, then B->A.
// Without either, a loop leg adds nothing and a non-loop leg uses the straight-line
// distance. Backward legs of a non-loop bus use B->A, then the straight-line distance.
func (c *Catalogue) roadLengthLocked(bus models.Bus) float64 {
	road := func(from, to models.StopID) (int, bool) {
		dist, ok := c.distances[models.StopPair{From: from, To: to}]
		return dist.Road, ok && dist.HasRoad
	}

	length := 0.0
	for i := 0; i+1 < len(bus.Stops); i++ {
		a, b := bus.Stops[i], bus.Stops[i+1]

		if meters, ok := road(a, b); ok {
			length += float64(meters)
		} else if meters, ok := road(b, a); ok {
			length += float64(meters)
		} else if !bus.IsLoop {
			length += c.straightDistanceLocked(a, b)
		}

		if bus.IsLoop {
			continue
		}

		if meters, ok := road(b, a); ok {
			length += float64(meters)
		} else {
			length += c.straightDistanceLocked(b, a)
		}
	}

	return length
}

// StopInfo returns the names of the buses passing through a stop, sorted.
// A stop without buses is found with an empty list.
func (c *Catalogue) StopInfo(name string) (models.StopInfo, bool) {
	id, ok := c.stopByName[name]
	if !ok {
		return models.StopInfo{}, false
	}

	info := models.StopInfo{Name: name, Buses: []string{}}
	for busID := range c.stopBuses[id] {
		info.Buses = append(info.Buses, c.buses[busID].Name)
	}
	sort.Strings(info.Buses)

	return info, true
}

// String returns a short summary used in logs
func (c *Catalogue) String() string {
	c.mu.Lock()
	roads := c.roads
	c.mu.Unlock()

	return fmt.Sprintf("%d stops (%d useful), %d buses, %d road distances",
		len(c.stops), len(c.usefulStops), len(c.buses), roads)
}
