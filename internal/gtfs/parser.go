package gtfs

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"path"
	"strconv"
	"strings"
)

// Stop is a row of stops.txt
type Stop struct {
	StopID   string
	StopName string
	Lat      float64
	Lon      float64
}

// Route is a row of routes.txt
type Route struct {
	RouteID   string
	ShortName string
	LongName  string
	RouteType int
}

// Trip is a row of trips.txt
type Trip struct {
	TripID  string
	RouteID string
}

// StopTime is a row of stop_times.txt
type StopTime struct {
	TripID       string
	StopID       string
	StopSequence int
}

// Feed represents the parts of a GTFS feed a catalogue is built from
type Feed struct {
	Stops     []Stop
	Routes    []Route
	Trips     []Trip
	StopTimes []StopTime
}

// ParseZip parses the stops, routes, trips and stop_times files of a GTFS zip
func ParseZip(zipPath string) (*Feed, error) {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	defer reader.Close()

	files := make(map[string]*zip.File)
	for _, file := range reader.File {
		// Skip directories
		if file.FileInfo().IsDir() {
			continue
		}
		files[path.Base(file.Name)] = file
	}

	feed := &Feed{}

	if err := parseFile(files, "stops.txt", func(r io.Reader) (err error) {
		feed.Stops, err = parseStopsFromReader(r)
		return err
	}); err != nil {
		return nil, err
	}
	log.Printf("Parsed %d stops", len(feed.Stops))

	if err := parseFile(files, "routes.txt", func(r io.Reader) (err error) {
		feed.Routes, err = parseRoutesFromReader(r)
		return err
	}); err != nil {
		return nil, err
	}
	log.Printf("Parsed %d routes", len(feed.Routes))

	if err := parseFile(files, "trips.txt", func(r io.Reader) (err error) {
		feed.Trips, err = parseTripsFromReader(r)
		return err
	}); err != nil {
		return nil, err
	}
	log.Printf("Parsed %d trips", len(feed.Trips))

	if err := parseFile(files, "stop_times.txt", func(r io.Reader) (err error) {
		feed.StopTimes, err = parseStopTimesFromReader(r)
		return err
	}); err != nil {
		return nil, err
	}
	log.Printf("Parsed %d stop_times", len(feed.StopTimes))

	return feed, nil
}

func parseFile(files map[string]*zip.File, name string, parse func(io.Reader) error) error {
	file, ok := files[name]
	if !ok {
		return fmt.Errorf("failed to parse %s (required): file not found in feed", name)
	}

	rc, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer rc.Close()

	if err := parse(rc); err != nil {
		return fmt.Errorf("failed to parse %s (required): %w", name, err)
	}
	return nil
}

func parseStopsFromReader(reader io.Reader) ([]Stop, error) {
	csvReader := newCSVReader(reader)

	header, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	colMap := makeColumnMap(header)
	var stops []Stop

	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("Warning: skipping malformed stop row: %v", err)
			continue
		}

		stopID := getField(record, colMap, "stop_id")
		latStr := getField(record, colMap, "stop_lat")
		lonStr := getField(record, colMap, "stop_lon")

		// Skip stops without required fields
		if stopID == "" || latStr == "" || lonStr == "" {
			log.Printf("Warning: skipping stop with missing required fields: %s", stopID)
			continue
		}

		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			log.Printf("Warning: invalid latitude for stop %s: %v", stopID, err)
			continue
		}

		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			log.Printf("Warning: invalid longitude for stop %s: %v", stopID, err)
			continue
		}

		stops = append(stops, Stop{
			StopID:   stopID,
			StopName: getField(record, colMap, "stop_name"),
			Lat:      lat,
			Lon:      lon,
		})
	}

	return stops, nil
}

func parseRoutesFromReader(reader io.Reader) ([]Route, error) {
	csvReader := newCSVReader(reader)

	header, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	colMap := makeColumnMap(header)
	var routes []Route

	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("Warning: skipping malformed route row: %v", err)
			continue
		}

		routeID := getField(record, colMap, "route_id")
		if routeID == "" {
			continue
		}

		routeType, _ := strconv.Atoi(getField(record, colMap, "route_type"))

		routes = append(routes, Route{
			RouteID:   routeID,
			ShortName: getField(record, colMap, "route_short_name"),
			LongName:  getField(record, colMap, "route_long_name"),
			RouteType: routeType,
		})
	}

	return routes, nil
}

func parseTripsFromReader(reader io.Reader) ([]Trip, error) {
	csvReader := newCSVReader(reader)

	header, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	colMap := makeColumnMap(header)
	var trips []Trip

	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("Warning: skipping malformed trip row: %v", err)
			continue
		}

		tripID := getField(record, colMap, "trip_id")
		routeID := getField(record, colMap, "route_id")

		if tripID == "" || routeID == "" {
			continue
		}

		trips = append(trips, Trip{TripID: tripID, RouteID: routeID})
	}

	return trips, nil
}

func parseStopTimesFromReader(reader io.Reader) ([]StopTime, error) {
	csvReader := newCSVReader(reader)

	header, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	colMap := makeColumnMap(header)
	var stopTimes []StopTime

	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("Warning: skipping malformed stop_time row: %v", err)
			continue
		}

		tripID := getField(record, colMap, "trip_id")
		stopID := getField(record, colMap, "stop_id")
		seqStr := getField(record, colMap, "stop_sequence")

		if tripID == "" || stopID == "" || seqStr == "" {
			continue
		}

		sequence, err := strconv.Atoi(seqStr)
		if err != nil {
			log.Printf("Warning: invalid sequence for trip %s: %v", tripID, err)
			continue
		}

		stopTimes = append(stopTimes, StopTime{
			TripID:       tripID,
			StopID:       stopID,
			StopSequence: sequence,
		})
	}

	return stopTimes, nil
}

// Helper functions

func newCSVReader(reader io.Reader) *csv.Reader {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1
	return csvReader
}

func makeColumnMap(header []string) map[string]int {
	colMap := make(map[string]int)
	for i, col := range header {
		// strip a UTF-8 byte order mark from the first column
		colMap[strings.TrimPrefix(strings.TrimSpace(col), "\ufeff")] = i
	}
	return colMap
}

func getField(record []string, colMap map[string]int, fieldName string) string {
	if idx, ok := colMap[fieldName]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}
