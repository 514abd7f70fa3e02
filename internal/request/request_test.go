package request

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/passbi/transit_catalogue/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseJSON = `{
  "serialization_settings": {"file": "transport.db"},
  "routing_settings": {"bus_wait_time": 2, "bus_velocity": 30},
  "render_settings": {
    "width": 200, "height": 200, "padding": 30,
    "stop_radius": 5, "line_width": 14,
    "bus_label_font_size": 20, "bus_label_offset": [7, 15],
    "stop_label_font_size": 20, "stop_label_offset": [7, -3],
    "underlayer_color": [255, 255, 255, 0.85], "underlayer_width": 3,
    "color_palette": ["green", [255, 160, 0], "red"]
  },
  "base_requests": [
    {"type": "Bus", "name": "14", "stops": ["Lipetskaya ulitsa 46", "Moskvoretskaya ulitsa", "Lipetskaya ulitsa 46"], "is_roundtrip": true},
    {"type": "Stop", "name": "Lipetskaya ulitsa 46", "latitude": 43.598701, "longitude": 39.730623, "road_distances": {"Moskvoretskaya ulitsa": 1300}},
    {"type": "Stop", "name": "Moskvoretskaya ulitsa", "latitude": 43.587795, "longitude": 39.716901, "road_distances": {}}
  ]
}`

func TestParseBase(t *testing.T) {
	doc, err := ParseBase(strings.NewReader(baseJSON))
	require.NoError(t, err)

	assert.Equal(t, "transport.db", doc.Serialization.File)
	assert.Equal(t, models.RoutingSettings{BusWaitTime: 2, BusVelocity: 30}, doc.Base.Routing)

	require.Len(t, doc.Base.Stops, 2)
	assert.Equal(t, "Lipetskaya ulitsa 46", doc.Base.Stops[0].Name)
	assert.Equal(t, map[string]int{"Moskvoretskaya ulitsa": 1300}, doc.Base.Stops[0].RoadDistances)
	assert.InDelta(t, 39.716901, doc.Base.Stops[1].Longitude, 1e-9)

	require.Len(t, doc.Base.Buses, 1)
	assert.True(t, doc.Base.Buses[0].IsRoundtrip)
	assert.Len(t, doc.Base.Buses[0].Stops, 3)

	require.NotNil(t, doc.Base.Render)
	assert.Equal(t, models.Color("rgba(255,255,255,0.85)"), doc.Base.Render.UnderlayerColor)
	assert.Equal(t, []models.Color{"green", "rgb(255,160,0)", "red"}, doc.Base.Render.ColorPalette)
	assert.Equal(t, [2]float64{7, -3}, doc.Base.Render.StopLabelOffset)
}

func TestParseBaseMalformed(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{
			name: "Missing routing settings",
			json: `{"base_requests": [], "serialization_settings": {"file": "a"}}`,
		},
		{
			name: "Missing wait time",
			json: `{"base_requests": [], "routing_settings": {"bus_velocity": 30}, "serialization_settings": {"file": "a"}}`,
		},
		{
			name: "Unknown routing key",
			json: `{"base_requests": [], "routing_settings": {"bus_wait_time": 1, "bus_velocity": 30, "speed": 3}, "serialization_settings": {"file": "a"}}`,
		},
		{
			name: "Zero velocity",
			json: `{"base_requests": [], "routing_settings": {"bus_wait_time": 1, "bus_velocity": 0}, "serialization_settings": {"file": "a"}}`,
		},
		{
			name: "Unknown render key",
			json: `{"base_requests": [], "routing_settings": {"bus_wait_time": 1, "bus_velocity": 30}, "render_settings": {"zoom": 1}, "serialization_settings": {"file": "a"}}`,
		},
		{
			name: "Missing serialization file",
			json: `{"base_requests": [], "routing_settings": {"bus_wait_time": 1, "bus_velocity": 30}}`,
		},
		{
			name: "Unknown base request type",
			json: `{"base_requests": [{"type": "Tram", "name": "x"}], "routing_settings": {"bus_wait_time": 1, "bus_velocity": 30}, "serialization_settings": {"file": "a"}}`,
		},
		{
			name: "Unknown stop key",
			json: `{"base_requests": [{"type": "Stop", "name": "x", "latitude": 1, "longitude": 2, "altitude": 3}], "routing_settings": {"bus_wait_time": 1, "bus_velocity": 30}, "serialization_settings": {"file": "a"}}`,
		},
		{
			name: "Bus without name",
			json: `{"base_requests": [{"type": "Bus", "stops": [], "is_roundtrip": false}], "routing_settings": {"bus_wait_time": 1, "bus_velocity": 30}, "serialization_settings": {"file": "a"}}`,
		},
		{
			name: "Bad color",
			json: `{"base_requests": [], "routing_settings": {"bus_wait_time": 1, "bus_velocity": 30}, "render_settings": {"underlayer_color": [1, 2]}, "serialization_settings": {"file": "a"}}`,
		},
		{
			name: "Not JSON",
			json: `base_requests`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBase(strings.NewReader(tt.json))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestParseStat(t *testing.T) {
	doc, err := ParseStat(strings.NewReader(`{
		"serialization_settings": {"file": "transport.db"},
		"stat_requests": [
			{"id": 1, "type": "Bus", "name": "14"},
			{"id": 2, "type": "Stop", "name": "Elektroseti"},
			{"id": 3, "type": "Route", "from": "A", "to": "B"}
		]
	}`))
	require.NoError(t, err)

	assert.Equal(t, "transport.db", doc.SerializationSettings.File)
	assert.Equal(t, []StatRequest{
		{ID: 1, Type: TypeBus, Name: "14"},
		{ID: 2, Type: TypeStop, Name: "Elektroseti"},
		{ID: 3, Type: TypeRoute, From: "A", To: "B"},
	}, doc.StatRequests)
}

func TestParseStatMalformed(t *testing.T) {
	tests := []struct {
		name    string
		request string
	}{
		{"Map is not served", `{"id": 1, "type": "Map"}`},
		{"Route without destination", `{"id": 1, "type": "Route", "from": "A"}`},
		{"Bus without name", `{"id": 1, "type": "Bus"}`},
		{"Unknown key", `{"id": 1, "type": "Bus", "name": "14", "color": "red"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := `{"serialization_settings": {"file": "a"}, "stat_requests": [` + tt.request + `]}`
			_, err := ParseStat(strings.NewReader(doc))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

// fakeQueries answers from fixed maps
type fakeQueries struct {
	buses       map[string]models.BusInfo
	stops       map[string]models.StopInfo
	itineraries map[string]*models.Itinerary
	err         error
}

func (f *fakeQueries) BusInfo(name string) (models.BusInfo, bool) {
	info, ok := f.buses[name]
	return info, ok
}

func (f *fakeQueries) StopInfo(name string) (models.StopInfo, bool) {
	info, ok := f.stops[name]
	return info, ok
}

func (f *fakeQueries) Itinerary(from, to string) (*models.Itinerary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.itineraries[from+"->"+to], nil
}

func TestAnswer(t *testing.T) {
	q := &fakeQueries{
		buses: map[string]models.BusInfo{
			"14": {Name: "14", StopCount: 3, UniqueStopCount: 2, RoadLength: 2600, Curvature: 1.6},
		},
		stops: map[string]models.StopInfo{
			"Elektroseti": {Name: "Elektroseti", Buses: []string{"114", "14"}},
			"Empty":       {Name: "Empty", Buses: []string{}},
		},
		itineraries: map[string]*models.Itinerary{
			"A->B": {TotalTime: 7, Items: []models.Item{
				{Type: models.ItemWait, StopName: "A", Time: 6},
				{Type: models.ItemBus, StopName: "A", Bus: "14", SpanCount: 1, Time: 1},
			}},
		},
	}

	responses, err := Answer(q, []StatRequest{
		{ID: 1, Type: TypeBus, Name: "14"},
		{ID: 2, Type: TypeBus, Name: "999"},
		{ID: 3, Type: TypeStop, Name: "Elektroseti"},
		{ID: 4, Type: TypeStop, Name: "Empty"},
		{ID: 5, Type: TypeRoute, From: "A", To: "B"},
		{ID: 6, Type: TypeRoute, From: "B", To: "A"},
	})
	require.NoError(t, err)
	require.Len(t, responses, 6)

	assert.Equal(t, BusResponse{Curvature: 1.6, RequestID: 1, RouteLength: 2600, StopCount: 3, UniqueStopCount: 2}, responses[0])
	assert.Equal(t, NotFoundResponse{ErrorMessage: "not found", RequestID: 2}, responses[1])
	assert.Equal(t, StopResponse{Buses: []string{"114", "14"}, RequestID: 3}, responses[2])
	assert.Equal(t, StopResponse{Buses: []string{}, RequestID: 4}, responses[3])
	assert.Equal(t, 7.0, responses[4].(RouteResponse).TotalTime)
	assert.Equal(t, NotFoundResponse{ErrorMessage: "not found", RequestID: 6}, responses[5])

	var out bytes.Buffer
	require.NoError(t, WriteResponses(&out, responses))
	assert.Contains(t, out.String(), `"error_message": "not found"`)
	assert.Contains(t, out.String(), `"buses": []`)
	assert.Contains(t, out.String(), `"span_count": 1`)
}

func TestAnswerPropagatesFailures(t *testing.T) {
	broken := errors.New("router is gone")
	q := &fakeQueries{err: broken}

	_, err := Answer(q, []StatRequest{{ID: 7, Type: TypeRoute, From: "A", To: "B"}})
	assert.ErrorIs(t, err, broken)
}
