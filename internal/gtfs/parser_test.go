package gtfs

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, files map[string]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "feed.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range files {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return path
}

var sampleFeed = map[string]string{
	"dakar/stops.txt": "\ufeffstop_id,stop_name,stop_lat,stop_lon\n" +
		"S1,Central,14.70,-17.40\n" +
		"S2, Market ,14.71,-17.40\n" +
		"S3,Broken,north,-17.40\n" +
		"S4,,14.72,\n",
	"dakar/routes.txt": "route_id,route_short_name,route_long_name,route_type\n" +
		"R1,1,Central - Market,3\n" +
		",orphan,,3\n",
	"dakar/trips.txt": "route_id,service_id,trip_id\n" +
		"R1,WD,T1\n",
	"dakar/stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
		"T1,08:00:00,08:00:00,S1,1\n" +
		"T1,08:05:00,08:05:00,S2,2\n" +
		"T1,08:10:00,08:10:00,S3,x\n",
}

func TestParseZip(t *testing.T) {
	feed, err := ParseZip(writeZip(t, sampleFeed))
	require.NoError(t, err)

	assert.Equal(t, []Stop{
		{StopID: "S1", StopName: "Central", Lat: 14.70, Lon: -17.40},
		{StopID: "S2", StopName: "Market", Lat: 14.71, Lon: -17.40},
	}, feed.Stops)
	assert.Equal(t, []Route{
		{RouteID: "R1", ShortName: "1", LongName: "Central - Market", RouteType: 3},
	}, feed.Routes)
	assert.Equal(t, []Trip{{TripID: "T1", RouteID: "R1"}}, feed.Trips)
	assert.Equal(t, []StopTime{
		{TripID: "T1", StopID: "S1", StopSequence: 1},
		{TripID: "T1", StopID: "S2", StopSequence: 2},
	}, feed.StopTimes)
}

func TestParseZipMissingFile(t *testing.T) {
	tests := []string{"stops.txt", "routes.txt", "trips.txt", "stop_times.txt"}

	for _, missing := range tests {
		t.Run(missing, func(t *testing.T) {
			files := make(map[string]string)
			for name, content := range sampleFeed {
				if filepath.Base(name) != missing {
					files[name] = content
				}
			}

			_, err := ParseZip(writeZip(t, files))
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), missing))
		})
	}
}

func TestParseZipNotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.zip")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o644))

	_, err := ParseZip(path)
	assert.Error(t, err)
}
