package gtfs

import (
	"fmt"
	"log"
	"math"
	"slices"

	"github.com/passbi/transit_catalogue/internal/geo"
	"github.com/passbi/transit_catalogue/internal/models"
)

// Options controls how a feed is turned into base data
type Options struct {
	// DedupeThreshold merges stops closer than this many meters; 0 disables merging
	DedupeThreshold float64
	// RouteTypes keeps only routes of these GTFS route types; empty keeps all
	RouteTypes []int
}

// ValidateAndCleanStops removes stops with invalid coordinates
func ValidateAndCleanStops(stops []Stop) []Stop {
	cleaned := []Stop{}

	for _, stop := range stops {
		// Check for valid coordinates
		if stop.Lat < -90 || stop.Lat > 90 {
			log.Printf("Warning: invalid latitude for stop %s: %f", stop.StopID, stop.Lat)
			continue
		}
		if stop.Lon < -180 || stop.Lon > 180 {
			log.Printf("Warning: invalid longitude for stop %s: %f", stop.StopID, stop.Lon)
			continue
		}
		if stop.Lat == 0 && stop.Lon == 0 {
			log.Printf("Warning: stop %s has null island coordinates, skipping", stop.StopID)
			continue
		}

		cleaned = append(cleaned, stop)
	}

	if len(cleaned) < len(stops) {
		log.Printf("Cleaned stops: removed %d invalid stops", len(stops)-len(cleaned))
	}

	return cleaned
}

// DeduplicateStops merges stops lying within thresholdMeters of an earlier stop.
// Returns the kept stops and a mapping from every input stop ID to its kept stop ID.
func DeduplicateStops(stops []Stop, thresholdMeters float64) ([]Stop, map[string]string) {
	deduplicated := []Stop{}
	skipIndices := make(map[int]bool)
	stopMapping := make(map[string]string, len(stops)) // old_id -> kept_id

	for i := 0; i < len(stops); i++ {
		if skipIndices[i] {
			continue
		}

		currentStop := stops[i]
		deduplicated = append(deduplicated, currentStop)
		stopMapping[currentStop.StopID] = currentStop.StopID

		for j := i + 1; j < len(stops); j++ {
			if skipIndices[j] {
				continue
			}

			distance := geo.ComputeDistance(coordinates(currentStop), coordinates(stops[j]))
			if distance < thresholdMeters {
				log.Printf("Deduplicating stop %s (duplicate of %s, distance: %.2fm)",
					stops[j].StopID, currentStop.StopID, distance)
				skipIndices[j] = true
				stopMapping[stops[j].StopID] = currentStop.StopID
			}
		}
	}

	if len(deduplicated) < len(stops) {
		log.Printf("Deduplicated %d stops to %d (removed %d duplicates)",
			len(stops), len(deduplicated), len(stops)-len(deduplicated))
	}

	return deduplicated, stopMapping
}

// ToBaseData turns a feed into stops and buses. Each route becomes one bus following
// its longest trip; a trip ending where it started is a loop. Road distances between
// consecutive stops are the rounded great-circle distance.
// Routing and render settings are left for the caller.
func ToBaseData(feed *Feed, opts Options) (*models.BaseData, error) {
	if feed == nil {
		return nil, fmt.Errorf("feed is nil")
	}

	stops := ValidateAndCleanStops(feed.Stops)

	var stopMapping map[string]string
	if opts.DedupeThreshold > 0 {
		stops, stopMapping = DeduplicateStops(stops, opts.DedupeThreshold)
	} else {
		stopMapping = make(map[string]string, len(stops))
		for _, stop := range stops {
			stopMapping[stop.StopID] = stop.StopID
		}
	}

	data := &models.BaseData{}

	// stop_id -> index into data.Stops
	stopIndex := make(map[string]int, len(stops))
	usedNames := make(map[string]bool, len(stops))
	for _, stop := range stops {
		if _, ok := stopIndex[stop.StopID]; ok {
			log.Printf("Warning: duplicate stop_id %s, keeping the first", stop.StopID)
			continue
		}
		name := uniqueName(stop.StopName, stop.StopID, usedNames)
		stopIndex[stop.StopID] = len(data.Stops)
		data.Stops = append(data.Stops, models.StopRecord{
			Name:      name,
			Latitude:  stop.Lat,
			Longitude: stop.Lon,
		})
	}

	stopTimesByTrip := make(map[string][]StopTime)
	for _, st := range feed.StopTimes {
		stopTimesByTrip[st.TripID] = append(stopTimesByTrip[st.TripID], st)
	}

	// longest trip per route; the first one wins a tie
	longestTrip := make(map[string]string)
	for _, trip := range feed.Trips {
		current, ok := longestTrip[trip.RouteID]
		if !ok || len(stopTimesByTrip[trip.TripID]) > len(stopTimesByTrip[current]) {
			longestTrip[trip.RouteID] = trip.TripID
		}
	}

	usedBusNames := make(map[string]bool, len(feed.Routes))
	skipped := 0
	for _, route := range feed.Routes {
		if len(opts.RouteTypes) > 0 && !slices.Contains(opts.RouteTypes, route.RouteType) {
			continue
		}

		tripID, ok := longestTrip[route.RouteID]
		if !ok {
			skipped++
			continue
		}

		sequence := stopSequence(stopTimesByTrip[tripID], stopMapping, stopIndex)
		if len(sequence) < 2 {
			log.Printf("Warning: route %s has fewer than 2 usable stops, skipping", route.RouteID)
			skipped++
			continue
		}

		names := make([]string, len(sequence))
		for i, idx := range sequence {
			names[i] = data.Stops[idx].Name
		}

		for i := 1; i < len(sequence); i++ {
			from := &data.Stops[sequence[i-1]]
			to := data.Stops[sequence[i]]
			if _, ok := from.RoadDistances[to.Name]; ok {
				continue
			}
			if from.RoadDistances == nil {
				from.RoadDistances = make(map[string]int)
			}
			from.RoadDistances[to.Name] = int(math.Round(geo.ComputeDistance(
				models.Coordinates{Lat: from.Latitude, Lng: from.Longitude},
				models.Coordinates{Lat: to.Latitude, Lng: to.Longitude},
			)))
		}

		data.Buses = append(data.Buses, models.BusRecord{
			Name:        uniqueName(busName(route), route.RouteID, usedBusNames),
			Stops:       names,
			IsRoundtrip: sequence[0] == sequence[len(sequence)-1],
		})
	}

	log.Printf("Converted feed: %d stops, %d buses (%d routes skipped)",
		len(data.Stops), len(data.Buses), skipped)

	return data, nil
}

// stopSequence orders a trip's stop times and resolves them to stop indices,
// dropping stops that did not survive cleaning and collapsing repeats
func stopSequence(stopTimes []StopTime, stopMapping map[string]string, stopIndex map[string]int) []int {
	ordered := slices.Clone(stopTimes)
	slices.SortStableFunc(ordered, func(a, b StopTime) int {
		return a.StopSequence - b.StopSequence
	})

	var sequence []int
	for _, st := range ordered {
		kept, ok := stopMapping[st.StopID]
		if !ok {
			continue
		}
		idx, ok := stopIndex[kept]
		if !ok {
			continue
		}
		if len(sequence) > 0 && sequence[len(sequence)-1] == idx {
			continue
		}
		sequence = append(sequence, idx)
	}
	return sequence
}

func busName(route Route) string {
	switch {
	case route.ShortName != "":
		return route.ShortName
	case route.LongName != "":
		return route.LongName
	default:
		return route.RouteID
	}
}

// uniqueName returns name, or the id when name is empty. A taken name gets " (id)" appended.
func uniqueName(name, id string, used map[string]bool) string {
	if name == "" {
		name = id
	}
	candidate := name
	for n := 1; used[candidate]; n++ {
		if n == 1 {
			candidate = fmt.Sprintf("%s (%s)", name, id)
		} else {
			candidate = fmt.Sprintf("%s (%s #%d)", name, id, n)
		}
	}
	used[candidate] = true
	return candidate
}

func coordinates(stop Stop) models.Coordinates {
	return models.Coordinates{Lat: stop.Lat, Lng: stop.Lon}
}
