package render

import (
	"math"

	"github.com/passbi/transit_catalogue/internal/models"
)

const epsilon = 1e-6

// Point is a position on the map plane
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Projector maps geographic coordinates onto a width x height plane with padding
type Projector struct {
	settings models.ProjectorSettings
}

// NewProjector fits the given points into the plane. The zoom is the smaller of the
// horizontal and vertical fits; a degenerate axis is ignored.
func NewProjector(points []models.Coordinates, width, height, padding float64) *Projector {
	p := &Projector{settings: models.ProjectorSettings{Padding: padding}}
	if len(points) == 0 {
		return p
	}

	minLng, maxLng := points[0].Lng, points[0].Lng
	minLat, maxLat := points[0].Lat, points[0].Lat
	for _, pt := range points[1:] {
		minLng = math.Min(minLng, pt.Lng)
		maxLng = math.Max(maxLng, pt.Lng)
		minLat = math.Min(minLat, pt.Lat)
		maxLat = math.Max(maxLat, pt.Lat)
	}
	p.settings.MinLng = minLng
	p.settings.MaxLat = maxLat

	widthZoom, hasWidth := 0.0, !isZero(maxLng-minLng)
	if hasWidth {
		widthZoom = (width - 2*padding) / (maxLng - minLng)
	}
	heightZoom, hasHeight := 0.0, !isZero(maxLat-minLat)
	if hasHeight {
		heightZoom = (height - 2*padding) / (maxLat - minLat)
	}

	switch {
	case hasWidth && hasHeight:
		p.settings.ZoomCoeff = math.Min(widthZoom, heightZoom)
	case hasWidth:
		p.settings.ZoomCoeff = widthZoom
	case hasHeight:
		p.settings.ZoomCoeff = heightZoom
	}

	return p
}

// FromSettings restores a projector configured earlier
func FromSettings(settings models.ProjectorSettings) *Projector {
	return &Projector{settings: settings}
}

// Settings returns the projector state for persistence
func (p *Projector) Settings() models.ProjectorSettings {
	return p.settings
}

// Project maps a coordinate onto the plane
func (p *Projector) Project(c models.Coordinates) Point {
	return Point{
		X: (c.Lng-p.settings.MinLng)*p.settings.ZoomCoeff + p.settings.Padding,
		Y: (p.settings.MaxLat-c.Lat)*p.settings.ZoomCoeff + p.settings.Padding,
	}
}

func isZero(v float64) bool {
	return math.Abs(v) < epsilon
}
