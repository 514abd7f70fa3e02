package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/passbi/transit_catalogue/internal/config"
	"github.com/passbi/transit_catalogue/internal/persist"
	"github.com/passbi/transit_catalogue/internal/request"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseDocument = `{
    "serialization_settings": {"file": %q},
    "routing_settings": {"bus_wait_time": 2, "bus_velocity": 30},
    "render_settings": {"width": 200, "height": 200, "padding": 30, "color_palette": ["green", [255, 160, 0]]},
    "base_requests": [
        {"type": "Bus", "name": "14", "stops": ["Ulitsa Lizy Chaikinoi", "Elektroseti", "Ulitsa Dokuchaeva", "Ulitsa Lizy Chaikinoi"], "is_roundtrip": true},
        {"type": "Stop", "name": "Ulitsa Lizy Chaikinoi", "latitude": 43.590317, "longitude": 39.746833, "road_distances": {"Elektroseti": 4300, "Ulitsa Dokuchaeva": 2000}},
        {"type": "Bus", "name": "114", "stops": ["Morskoy vokzal", "Rivierskiy most"], "is_roundtrip": false},
        {"type": "Stop", "name": "Morskoy vokzal", "latitude": 43.581969, "longitude": 39.719848, "road_distances": {"Rivierskiy most": 850}},
        {"type": "Stop", "name": "Elektroseti", "latitude": 43.598701, "longitude": 39.730623, "road_distances": {"Ulitsa Dokuchaeva": 3000, "Ulitsa Lizy Chaikinoi": 4300}},
        {"type": "Stop", "name": "Ulitsa Dokuchaeva", "latitude": 43.585586, "longitude": 39.733879, "road_distances": {"Ulitsa Lizy Chaikinoi": 2000, "Elektroseti": 3000}},
        {"type": "Stop", "name": "Rivierskiy most", "latitude": 43.587795, "longitude": 39.716901, "road_distances": {"Morskoy vokzal": 850}},
        {"type": "Stop", "name": "Zavod", "latitude": 43.6, "longitude": 39.7}
    ]
}`

const statDocument = `{
    "serialization_settings": {"file": %q},
    "stat_requests": [
        {"id": 1, "type": "Bus", "name": "14"},
        {"id": 2, "type": "Stop", "name": "Zavod"},
        {"id": 3, "type": "Route", "from": "Morskoy vokzal", "to": "Rivierskiy most"},
        {"id": 4, "type": "Bus", "name": "24"},
        {"id": 5, "type": "Route", "from": "Morskoy vokzal", "to": "Elektroseti"}
    ]
}`

func testConfig() *config.Config {
	cfg := config.LoadConfigFromEnv()
	cfg.Storage.Backend = config.BackendFile
	return cfg
}

func TestMakeBaseThenProcessRequests(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	file := filepath.Join(t.TempDir(), "transport_catalogue.db")

	err := makeBase(ctx, cfg, sourceOptions{source: sourceJSON}, strings.NewReader(fmt.Sprintf(baseDocument, file)))
	require.NoError(t, err)

	var out bytes.Buffer
	err = processRequests(ctx, cfg, strings.NewReader(fmt.Sprintf(statDocument, file)), &out)
	require.NoError(t, err)

	var responses []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &responses))
	require.Len(t, responses, 5)

	assert.Equal(t, float64(1), responses[0]["request_id"])
	assert.Equal(t, float64(4), responses[0]["stop_count"])
	assert.Equal(t, float64(3), responses[0]["unique_stop_count"])
	assert.InDelta(t, 9300, responses[0]["route_length"], 1e-9)

	assert.Equal(t, []any{}, responses[1]["buses"])

	// 850m at 30km/h plus a 2 minute wait
	assert.InDelta(t, 3.7, responses[2]["total_time"], 1e-9)
	items := responses[2]["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "Morskoy vokzal", items[1].(map[string]any)["stop_name"])

	assert.Equal(t, map[string]any{"request_id": float64(4), "error_message": "not found"}, responses[3])
	assert.Equal(t, map[string]any{"request_id": float64(5), "error_message": "not found"}, responses[4])
}

func TestMakeBaseErrors(t *testing.T) {
	ctx := context.Background()
	file := filepath.Join(t.TempDir(), "base.db")

	tests := []struct {
		name     string
		opts     sourceOptions
		document string
		target   error
	}{
		{
			name:     "Malformed document",
			opts:     sourceOptions{source: sourceJSON},
			document: `{"base_requests": []}`,
			target:   request.ErrMalformed,
		},
		{
			name:     "GTFS source without path",
			opts:     sourceOptions{source: sourceGTFS},
			document: fmt.Sprintf(baseDocument, file),
		},
		{
			name:     "Unknown source",
			opts:     sourceOptions{source: "csv"},
			document: fmt.Sprintf(baseDocument, file),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := makeBase(ctx, testConfig(), tt.opts, strings.NewReader(tt.document))
			require.Error(t, err)
			if tt.target != nil {
				assert.True(t, errors.Is(err, tt.target), err.Error())
			}
		})
	}
}

func TestProcessRequestsWithoutBase(t *testing.T) {
	file := filepath.Join(t.TempDir(), "absent.db")

	var out bytes.Buffer
	err := processRequests(context.Background(), testConfig(), strings.NewReader(fmt.Sprintf(statDocument, file)), &out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, persist.ErrBlobNotFound))
	assert.Zero(t, out.Len())
}
