package models

// StopID is the insertion-order position of a stop in the catalogue
type StopID int

// BusID is the insertion-order position of a bus route in the catalogue
type BusID int

// Coordinates is a geographic point in degrees
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Stop represents a physical stop known to the catalogue
type Stop struct {
	ID       StopID
	Name     string
	Location Coordinates
}

// Bus represents a route: an ordered sequence of stops served by one line.
// Stops are referenced by StopID, never by name.
type Bus struct {
	ID     BusID
	Name   string
	IsLoop bool
	Stops  []StopID
}

// StopPair is an ordered (from, to) key for distances
type StopPair struct {
	From StopID
	To   StopID
}

// Distance holds both distance kinds between an ordered pair of stops
type Distance struct {
	Straight    float64 // meters, computed lazily
	HasStraight bool
	Road        int // meters, supplied explicitly
	HasRoad     bool
}

// RoadDistance is a recorded directed road distance, used for iteration and persistence
type RoadDistance struct {
	From   StopID
	To     StopID
	Meters int
}

// RoutingSettings configures graph compilation
type RoutingSettings struct {
	BusWaitTime float64 `json:"bus_wait_time" validate:"gte=0"` // minutes
	BusVelocity float64 `json:"bus_velocity" validate:"gt=0"`   // km/h
}

// RenderSettings configures the map projection and styling carried with the base
type RenderSettings struct {
	Width             float64    `json:"width" validate:"gte=0"`
	Height            float64    `json:"height" validate:"gte=0"`
	Padding           float64    `json:"padding" validate:"gte=0"`
	LineWidth         float64    `json:"line_width" validate:"gte=0"`
	StopRadius        float64    `json:"stop_radius" validate:"gte=0"`
	BusLabelFontSize  int        `json:"bus_label_font_size" validate:"gte=0"`
	BusLabelOffset    [2]float64 `json:"bus_label_offset"`
	StopLabelFontSize int        `json:"stop_label_font_size" validate:"gte=0"`
	StopLabelOffset   [2]float64 `json:"stop_label_offset"`
	UnderlayerColor   Color      `json:"underlayer_color"`
	UnderlayerWidth   float64    `json:"underlayer_width" validate:"gte=0"`
	ColorPalette      []Color    `json:"color_palette"`
}

// ProjectorSettings is the state of a configured sphere projector
type ProjectorSettings struct {
	Padding   float64
	MinLng    float64
	MaxLat    float64
	ZoomCoeff float64
}

// BusInfo contains statistics of a route
type BusInfo struct {
	Name            string
	StopCount       int
	UniqueStopCount int
	StraightLength  float64 // meters
	RoadLength      float64 // meters
	Curvature       float64
}

// StopInfo lists the routes passing through a stop (sorted by name)
type StopInfo struct {
	Name  string
	Buses []string
}

// StopRecord is an "add stop" input record
type StopRecord struct {
	Name          string         `json:"name" validate:"required"`
	Latitude      float64        `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude     float64        `json:"longitude" validate:"gte=-180,lte=180"`
	RoadDistances map[string]int `json:"road_distances" validate:"dive,gte=0"`
}

// BusRecord is an "add route" input record
type BusRecord struct {
	Name        string   `json:"name" validate:"required"`
	Stops       []string `json:"stops" validate:"dive,required"`
	IsRoundtrip bool     `json:"is_roundtrip"`
}

// BaseData is everything needed to build a base
type BaseData struct {
	Stops   []StopRecord
	Buses   []BusRecord
	Routing RoutingSettings
	Render  *RenderSettings
}

// ItemType is the kind of an itinerary item
type ItemType string

const (
	ItemWait ItemType = "Wait"
	ItemBus  ItemType = "Bus"
)

// Item is one step of an itinerary: either waiting at a stop or riding a bus.
// StopName is the waiting stop for a wait and the boarding stop for a ride.
type Item struct {
	Type      ItemType `json:"type"`
	StopName  string   `json:"stop_name,omitempty"`
	Bus       string   `json:"bus,omitempty"`
	SpanCount int      `json:"span_count,omitempty"`
	Time      float64  `json:"time"`
}

// Itinerary is the answer to a route query
type Itinerary struct {
	TotalTime float64 `json:"total_time"`
	Items     []Item  `json:"items"`
}
