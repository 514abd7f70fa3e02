package catalogue

import (
	"testing"

	"github.com/passbi/transit_catalogue/internal/geo"
	"github.com/passbi/transit_catalogue/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalogue(t *testing.T) *Catalogue {
	t.Helper()

	c := New()
	stops := []struct {
		name     string
		lat, lng float64
	}{
		{"Tolstopaltsevo", 55.611087, 37.20829},
		{"Marushkino", 55.595884, 37.209755},
		{"Rasskazovka", 55.632761, 37.333324},
		{"Biryulyovo Zapadnoye", 55.574371, 37.6517},
		{"Biryusinka", 55.581065, 37.64839},
		{"Universam", 55.587655, 37.645687},
		{"Biryulyovo Tovarnaya", 55.592028, 37.653656},
		{"Biryulyovo Passazhirskaya", 55.580999, 37.659164},
		{"Rossoshanskaya ulitsa", 55.595579, 37.605757},
	}
	for _, s := range stops {
		_, err := c.AddStop(s.name, models.Coordinates{Lat: s.lat, Lng: s.lng})
		require.NoError(t, err)
	}

	_, err := c.AddBus("256", []string{
		"Biryulyovo Zapadnoye", "Biryusinka", "Universam",
		"Biryulyovo Tovarnaya", "Biryulyovo Passazhirskaya", "Biryulyovo Zapadnoye",
	}, true)
	require.NoError(t, err)

	_, err = c.AddBus("750", []string{"Tolstopaltsevo", "Marushkino", "Rasskazovka"}, false)
	require.NoError(t, err)

	return c
}

func TestAddStop(t *testing.T) {
	c := New()

	id, err := c.AddStop("A", models.Coordinates{Lat: 55.0, Lng: 37.0})
	require.NoError(t, err)
	assert.Equal(t, models.StopID(0), id)

	id, err = c.AddStop("B", models.Coordinates{Lat: 55.1, Lng: 37.1})
	require.NoError(t, err)
	assert.Equal(t, models.StopID(1), id)

	t.Run("Duplicate name is rejected", func(t *testing.T) {
		_, err := c.AddStop("A", models.Coordinates{})
		assert.ErrorIs(t, err, ErrDuplicateStop)
	})

	t.Run("Find by name", func(t *testing.T) {
		stop, ok := c.FindStop("B")
		require.True(t, ok)
		assert.Equal(t, "B", stop.Name)
		assert.Equal(t, 55.1, stop.Location.Lat)

		_, ok = c.FindStop("missing")
		assert.False(t, ok)
	})
}

func TestAddBus(t *testing.T) {
	c := newTestCatalogue(t)

	t.Run("Stops are resolved to ids", func(t *testing.T) {
		bus, ok := c.FindBus("750")
		require.True(t, ok)
		assert.False(t, bus.IsLoop)
		require.Len(t, bus.Stops, 3)
		assert.Equal(t, "Tolstopaltsevo", c.Stop(bus.Stops[0]).Name)
		assert.Equal(t, "Rasskazovka", c.Stop(bus.Stops[2]).Name)
	})

	t.Run("Unknown stop is a precondition violation", func(t *testing.T) {
		_, err := c.AddBus("999", []string{"Universam", "Nowhere"}, false)
		assert.ErrorIs(t, err, ErrUnknownStop)

		_, ok := c.FindBus("999")
		assert.False(t, ok, "failed bus must not be stored")
	})

	t.Run("Duplicate bus is rejected", func(t *testing.T) {
		_, err := c.AddBus("750", []string{"Universam"}, false)
		assert.ErrorIs(t, err, ErrDuplicateBus)
	})

	t.Run("Missing bus is not found", func(t *testing.T) {
		_, ok := c.FindBus("751")
		assert.False(t, ok)
	})
}

func TestUsefulStopIDs(t *testing.T) {
	c := newTestCatalogue(t)

	// first-use order: bus 256 then bus 750
	expected := []string{
		"Biryulyovo Zapadnoye", "Biryusinka", "Universam", "Biryulyovo Tovarnaya",
		"Biryulyovo Passazhirskaya", "Tolstopaltsevo", "Marushkino", "Rasskazovka",
	}

	assert.Equal(t, len(expected), c.UsefulStopCount())
	for want, name := range expected {
		got, ok := c.UsefulStopID(name)
		require.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	seen := make(map[int]bool)
	for i, stopID := range c.UsefulStops() {
		usefulID, ok := c.UsefulStopIDOf(stopID)
		require.True(t, ok)
		assert.Equal(t, i, usefulID)
		assert.False(t, seen[usefulID])
		seen[usefulID] = true
	}

	t.Run("Stop without buses has no useful id", func(t *testing.T) {
		_, ok := c.UsefulStopID("Rossoshanskaya ulitsa")
		assert.False(t, ok)
	})

	t.Run("Unknown stop has no useful id", func(t *testing.T) {
		_, ok := c.UsefulStopID("Nowhere")
		assert.False(t, ok)
	})

	t.Run("Ids stay stable when more buses are added", func(t *testing.T) {
		_, err := c.AddBus("828", []string{"Rossoshanskaya ulitsa", "Universam"}, false)
		require.NoError(t, err)

		id, ok := c.UsefulStopID("Universam")
		require.True(t, ok)
		assert.Equal(t, 2, id)

		id, ok = c.UsefulStopID("Rossoshanskaya ulitsa")
		require.True(t, ok)
		assert.Equal(t, 8, id)
	})
}

func TestBusInfoStopCount(t *testing.T) {
	c := New()
	for _, name := range []string{"A", "B", "C"} {
		_, err := c.AddStop(name, models.Coordinates{Lat: 55.0, Lng: 37.0 + float64(len(name))})
		require.NoError(t, err)
	}
	_, err := c.AddBus("loop", []string{"A", "B", "C", "A"}, true)
	require.NoError(t, err)
	_, err = c.AddBus("line", []string{"A", "B", "C"}, false)
	require.NoError(t, err)
	_, err = c.AddBus("empty", nil, false)
	require.NoError(t, err)

	tests := []struct {
		name      string
		bus       string
		found     bool
		stopCount int
		unique    int
	}{
		{"Loop counts every stop once", "loop", true, 4, 3},
		{"Non-loop retraces its path", "line", true, 5, 3},
		{"Empty bus is not found", "empty", false, 0, 0},
		{"Unknown bus is not found", "missing", false, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, ok := c.BusInfo(tt.bus)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.stopCount, info.StopCount)
			assert.Equal(t, tt.unique, info.UniqueStopCount)
		})
	}
}

func TestBusInfoLengths(t *testing.T) {
	c := newTestCatalogue(t)

	distances := []struct {
		from, to string
		meters   int
	}{
		{"Tolstopaltsevo", "Marushkino", 3900},
		{"Marushkino", "Rasskazovka", 9900},
		{"Rasskazovka", "Marushkino", 9500},
		{"Biryulyovo Zapadnoye", "Biryusinka", 1800},
		{"Biryulyovo Zapadnoye", "Universam", 2400},
		{"Biryusinka", "Universam", 750},
		{"Universam", "Biryulyovo Tovarnaya", 900},
		{"Biryulyovo Tovarnaya", "Biryulyovo Passazhirskaya", 1300},
		{"Biryulyovo Passazhirskaya", "Biryulyovo Zapadnoye", 1200},
	}
	for _, d := range distances {
		require.NoError(t, c.SetDistance(d.from, d.to, d.meters))
	}

	t.Run("Loop bus", func(t *testing.T) {
		info, ok := c.BusInfo("256")
		require.True(t, ok)
		assert.Equal(t, 6, info.StopCount)
		assert.Equal(t, 5, info.UniqueStopCount)
		assert.InDelta(t, 5950.0, info.RoadLength, 1e-9)
		assert.InDelta(t, 1.36124, info.Curvature, 1e-4)
	})

	t.Run("Non-loop bus with one-way distance falls back to straight line", func(t *testing.T) {
		info, ok := c.BusInfo("750")
		require.True(t, ok)

		bus, _ := c.FindBus("750")
		back := c.StraightDistance(bus.Stops[1], bus.Stops[0])
		assert.InDelta(t, 3900+9900+9500+back, info.RoadLength, 1e-9)

		straight := 2 * (c.StraightDistance(bus.Stops[0], bus.Stops[1]) + c.StraightDistance(bus.Stops[1], bus.Stops[2]))
		assert.InDelta(t, straight, info.StraightLength, 1e-9)
		assert.InDelta(t, info.RoadLength/info.StraightLength, info.Curvature, 1e-12)
	})

	t.Run("Result is cached", func(t *testing.T) {
		first, _ := c.BusInfo("750")
		require.NoError(t, c.SetDistance("Marushkino", "Tolstopaltsevo", 1))
		second, _ := c.BusInfo("750")
		assert.Equal(t, first, second)
	})
}

func TestBusInfoOneWayDistance(t *testing.T) {
	c := New()
	a := models.Coordinates{Lat: 55.0, Lng: 37.0}
	b := models.Coordinates{Lat: 55.01, Lng: 37.0}
	_, err := c.AddStop("A", a)
	require.NoError(t, err)
	_, err = c.AddStop("B", b)
	require.NoError(t, err)
	_, err = c.AddBus("line", []string{"A", "B"}, false)
	require.NoError(t, err)
	_, err = c.AddBus("reverse", []string{"B", "A"}, false)
	require.NoError(t, err)
	require.NoError(t, c.SetDistance("A", "B", 2000))

	straight := geo.ComputeDistance(a, b)

	t.Run("Forward recorded, backward straight", func(t *testing.T) {
		info, ok := c.BusInfo("line")
		require.True(t, ok)
		assert.InDelta(t, 2000+straight, info.RoadLength, 1e-9)
	})

	t.Run("Forward leg borrows the reverse distance", func(t *testing.T) {
		info, ok := c.BusInfo("reverse")
		require.True(t, ok)
		assert.InDelta(t, 2000+2000, info.RoadLength, 1e-9)
	})
}

func TestStopInfo(t *testing.T) {
	c := newTestCatalogue(t)
	_, err := c.AddBus("828", []string{"Biryulyovo Zapadnoye", "Universam", "Rossoshanskaya ulitsa"}, false)
	require.NoError(t, err)

	t.Run("Buses are sorted and deduplicated", func(t *testing.T) {
		info, ok := c.StopInfo("Biryulyovo Zapadnoye")
		require.True(t, ok)
		assert.Equal(t, []string{"256", "828"}, info.Buses)
	})

	t.Run("Stop without buses exists with empty list", func(t *testing.T) {
		c2 := New()
		_, err := c2.AddStop("Lonely", models.Coordinates{})
		require.NoError(t, err)

		info, ok := c2.StopInfo("Lonely")
		require.True(t, ok)
		assert.Empty(t, info.Buses)
		assert.NotNil(t, info.Buses)
	})

	t.Run("Unknown stop is not found", func(t *testing.T) {
		_, ok := c.StopInfo("Nowhere")
		assert.False(t, ok)
	})
}

func TestDistances(t *testing.T) {
	c := newTestCatalogue(t)
	require.NoError(t, c.SetDistance("Marushkino", "Rasskazovka", 9900))
	require.NoError(t, c.SetDistance("Tolstopaltsevo", "Marushkino", 3900))

	// straight distances are cached alongside but are not recorded road distances
	_ = c.StraightDistance(0, 2)

	got := c.Distances()
	require.Len(t, got, 2)
	assert.Equal(t, models.RoadDistance{From: 0, To: 1, Meters: 3900}, got[0])
	assert.Equal(t, models.RoadDistance{From: 1, To: 2, Meters: 9900}, got[1])

	meters, ok := c.RoadDistance(1, 2)
	assert.True(t, ok)
	assert.Equal(t, 9900, meters)

	_, ok = c.RoadDistance(2, 1)
	assert.False(t, ok, "reverse direction is not implied")

	assert.ErrorIs(t, c.SetDistance("Nowhere", "Marushkino", 1), ErrUnknownStop)
}

func TestString(t *testing.T) {
	c := newTestCatalogue(t)
	assert.Equal(t, "9 stops (8 useful), 2 buses, 0 road distances", c.String())

	require.NoError(t, c.SetDistance("Marushkino", "Rasskazovka", 9900))
	require.NoError(t, c.SetDistance("Marushkino", "Rasskazovka", 9800))
	require.NoError(t, c.SetDistance("Rasskazovka", "Marushkino", 9500))
	_ = c.StraightDistance(0, 1)
	_ = c.StraightDistance(1, 2)

	assert.Equal(t, "9 stops (8 useful), 2 buses, 2 road distances", c.String())
	assert.Len(t, c.Distances(), 2)
}

func TestOrderedIteration(t *testing.T) {
	c := newTestCatalogue(t)

	buses := c.Buses()
	require.Len(t, buses, 2)
	assert.Equal(t, "256", buses[0].Name)
	assert.Equal(t, "750", buses[1].Name)

	stops := c.Stops()
	assert.Equal(t, "Tolstopaltsevo", stops[0].Name)
	assert.Equal(t, "Rossoshanskaya ulitsa", stops[len(stops)-1].Name)

	byName := c.UsefulStopsByName()
	assert.Len(t, byName, 8)
	assert.Equal(t, "Biryulyovo Passazhirskaya", byName[0].Name)
}
